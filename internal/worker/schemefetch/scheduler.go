package schemefetch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SchemeFetcherService は告知フィードフェッチの実行インターフェース。
type SchemeFetcherService interface {
	// Fetch は指定フィードを1本フェッチし、制度告知を保存する。
	Fetch(ctx context.Context, feedURL string) error
}

// Scheduler は告知フィードフェッチのスケジューリングと並列制御を行う。
// 固定間隔のティッカーで設定済みフィードを巡回し、
// semaphoreパターンで最大並列数を制御しながらフェッチを実行する。
type Scheduler struct {
	feedURLs       []string
	fetcher        SchemeFetcherService
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewScheduler(
	feedURLs []string,
	fetcher SchemeFetcherService,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Scheduler{
		feedURLs:       feedURLs,
		fetcher:        fetcher,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は固定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("scheme fetch scheduler started",
		slog.Duration("interval", interval),
		slog.Int("feed_count", len(s.feedURLs)),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheme fetch scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は設定済みの全告知フィードを1巡フェッチする。
// semaphoreパターンで最大並列数を制御する。
func (s *Scheduler) RunOnce(ctx context.Context) {
	if len(s.feedURLs) == 0 {
		s.logger.Info("no scheme feeds configured")
		return
	}

	start := time.Now()
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, feedURL := range s.feedURLs {
		wg.Add(1)
		sem <- struct{}{}

		go func(url string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.fetcher.Fetch(ctx, url); err != nil {
				s.logger.Error("scheme feed fetch failed",
					slog.String("feed_url", url),
					slog.String("error", err.Error()),
				)
			}
		}(feedURL)
	}

	wg.Wait()

	s.logger.Info("scheme fetch cycle completed",
		slog.Int("feed_count", len(s.feedURLs)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
}
