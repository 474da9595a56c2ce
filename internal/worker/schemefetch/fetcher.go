// Package schemefetch は行政支援制度告知フィードのバックグラウンド取得を提供する。
// スケジューラとフェッチャーを含む。
package schemefetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/anandk/sahay/internal/model"
	"github.com/anandk/sahay/internal/repository"
	"github.com/anandk/sahay/internal/security"
)

// Fetcher は個別の告知フィードのHTTPフェッチとパースを行う。
// SSRF検証、サイズ上限付きの読み取り、gofeedによるパース、
// bluemondayによるサニタイズ、schemesテーブルへのUPSERTを実行する。
type Fetcher struct {
	schemeRepo  repository.SchemeRepository
	guard       security.OutboundGuard
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
	sanitizer   *bluemonday.Policy

	// FetchedHook はフィード1本の取り込み完了時に件数付きで呼ばれる（省略可）。
	FetchedHook func(feedURL string, upserted int)
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	schemeRepo repository.SchemeRepository,
	guard security.OutboundGuard,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		schemeRepo:  schemeRepo,
		guard:       guard,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// Fetch は告知フィードを1本フェッチし、制度告知を保存する。
// SSRF検証に失敗したフィードはフェッチせずエラーを返す。
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) error {
	start := time.Now()

	if err := f.guard.ValidateURL(feedURL); err != nil {
		f.logger.Error("scheme feed URL failed SSRF validation",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("SSRF validation failed: %w", err)
	}

	client := f.guard.SafeClient(f.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", "Sahay/1.0 Scheme Updates")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		f.logger.Error("scheme feed request failed",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("fetch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scheme feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read scheme feed body: %w", err)
	}

	parsedFeed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		f.logger.Error("failed to parse scheme feed",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to parse scheme feed: %w", err)
	}

	now := time.Now()
	upserted := 0
	for _, item := range parsedFeed.Items {
		scheme := f.convertItem(item, now)
		if scheme == nil {
			continue
		}
		if err := f.schemeRepo.Upsert(ctx, scheme); err != nil {
			f.logger.Error("failed to upsert scheme",
				slog.String("feed_url", feedURL),
				slog.String("link", scheme.Link),
				slog.String("error", err.Error()),
			)
			continue
		}
		upserted++
	}

	f.logger.Info("scheme feed fetched",
		slog.String("feed_url", feedURL),
		slog.Int("items_total", len(parsedFeed.Items)),
		slog.Int("items_upserted", upserted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	if f.FetchedHook != nil {
		f.FetchedHook(feedURL, upserted)
	}
	return nil
}

// convertItem はフィード記事を制度告知に変換する。
// タイトルと概要はマークアップを全除去してから保存する。
// タイトルまたはリンクを欠く記事はスキップする。
func (f *Fetcher) convertItem(item *gofeed.Item, fetchedAt time.Time) *model.Scheme {
	if item == nil {
		return nil
	}

	title := strings.TrimSpace(f.sanitizer.Sanitize(item.Title))
	if title == "" || item.Link == "" {
		return nil
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}
	summary = strings.TrimSpace(f.sanitizer.Sanitize(summary))

	publishedAt := fetchedAt
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	}

	return &model.Scheme{
		ID:          uuid.New().String(),
		Title:       title,
		Summary:     summary,
		Link:        item.Link,
		PublishedAt: publishedAt,
		FetchedAt:   fetchedAt,
	}
}
