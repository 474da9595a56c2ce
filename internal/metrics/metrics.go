// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// Page Shellと各プロバイダーから利用する。
type MetricsCollector interface {
	RecordPageRender(page string)
	RecordLoginRedirect(page string)
	RecordLocationRequest()
	RecordLocationDenial()
	RecordLocationDedup()
	RecordTranslationMiss(language string)
	RecordSchemesUpserted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	pageRenders     *prometheus.CounterVec
	loginRedirects  *prometheus.CounterVec
	locationReqs    prometheus.Counter
	locationDenials prometheus.Counter
	locationDedups  prometheus.Counter
	translationMiss *prometheus.CounterVec
	schemesUpserted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pageRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sahay_page_renders_total",
			Help: "ページ描画（Ready到達）の合計数",
		}, []string{"page"}),
		loginRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sahay_login_redirects_total",
			Help: "未認証リダイレクトの合計数",
		}, []string{"page"}),
		locationReqs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sahay_location_requests_total",
			Help: "位置情報リクエストの合計数",
		}),
		locationDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sahay_location_denials_total",
			Help: "位置情報の提供拒否の合計数",
		}),
		locationDedups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sahay_location_dedup_total",
			Help: "実行中の位置取得に合流したリクエストの合計数",
		}),
		translationMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sahay_translation_miss_total",
			Help: "未解決の翻訳キーの合計数",
		}, []string{"language"}),
		schemesUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sahay_schemes_upserted_total",
			Help: "アップサートされた制度告知の合計数",
		}),
	}

	reg.MustRegister(
		c.pageRenders,
		c.loginRedirects,
		c.locationReqs,
		c.locationDenials,
		c.locationDedups,
		c.translationMiss,
		c.schemesUpserted,
	)

	return c
}

// RecordPageRender はページ描画を記録する。
func (c *Collector) RecordPageRender(page string) {
	c.pageRenders.WithLabelValues(page).Inc()
}

// RecordLoginRedirect は未認証リダイレクトを記録する。
func (c *Collector) RecordLoginRedirect(page string) {
	c.loginRedirects.WithLabelValues(page).Inc()
}

// RecordLocationRequest は位置情報リクエストを記録する。
func (c *Collector) RecordLocationRequest() {
	c.locationReqs.Inc()
}

// RecordLocationDenial は位置情報の提供拒否を記録する。
func (c *Collector) RecordLocationDenial() {
	c.locationDenials.Inc()
}

// RecordLocationDedup は実行中の取得への合流を記録する。
func (c *Collector) RecordLocationDedup() {
	c.locationDedups.Inc()
}

// RecordTranslationMiss は未解決の翻訳キーを記録する。
func (c *Collector) RecordTranslationMiss(language string) {
	c.translationMiss.WithLabelValues(language).Inc()
}

// RecordSchemesUpserted はアップサートされた制度告知数を記録する。
func (c *Collector) RecordSchemesUpserted(count int) {
	c.schemesUpserted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
