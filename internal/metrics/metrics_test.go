package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue は指定メトリクスのカウンタ値を取得する。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

func TestRecordPageRender_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPageRender("landing")
	c.RecordPageRender("landing")
	c.RecordPageRender("shopping")

	if got := counterValue(t, reg, "sahay_page_renders_total"); got != 3 {
		t.Errorf("page_renders_total = %v, want 3", got)
	}
}

func TestRecordLoginRedirect_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginRedirect("schemes")

	if got := counterValue(t, reg, "sahay_login_redirects_total"); got != 1 {
		t.Errorf("login_redirects_total = %v, want 1", got)
	}
}

func TestRecordLocationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLocationRequest()
	c.RecordLocationRequest()
	c.RecordLocationDenial()
	c.RecordLocationDedup()
	c.RecordLocationDedup()
	c.RecordLocationDedup()

	if got := counterValue(t, reg, "sahay_location_requests_total"); got != 2 {
		t.Errorf("location_requests_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "sahay_location_denials_total"); got != 1 {
		t.Errorf("location_denials_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "sahay_location_dedup_total"); got != 3 {
		t.Errorf("location_dedup_total = %v, want 3", got)
	}
}

func TestRecordTranslationMiss_IncrementsCounterWithLanguageLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTranslationMiss("hi")
	c.RecordTranslationMiss("hi")
	c.RecordTranslationMiss("en")

	if got := counterValue(t, reg, "sahay_translation_miss_total"); got != 3 {
		t.Errorf("translation_miss_total = %v, want 3", got)
	}
}

func TestRecordSchemesUpserted_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSchemesUpserted(10)
	c.RecordSchemesUpserted(5)

	if got := counterValue(t, reg, "sahay_schemes_upserted_total"); got != 15 {
		t.Errorf("schemes_upserted_total = %v, want 15", got)
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPageRender("landing")
	c.RecordLoginRedirect("shopping")
	c.RecordLocationRequest()
	c.RecordSchemesUpserted(3)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"sahay_page_renders_total",
		"sahay_login_redirects_total",
		"sahay_location_requests_total",
		"sahay_schemes_upserted_total",
	}
	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はCollectorがMetricsCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}
