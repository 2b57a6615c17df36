// Package ingest はニュースフィードのバックグラウンド取り込み処理を提供する。
// スケジューラとフェッチャーを含み、取得した記事はUPSERTで記事カタログへ
// 反映される。
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/repository"
)

// ArticleUpserter は記事のUPSERT処理のインターフェース。
type ArticleUpserter interface {
	UpsertArticles(ctx context.Context, source string, parsed []model.ParsedArticle) (int, int, error)
}

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// IngestRecorder は取り込み件数を記録する。
type IngestRecorder interface {
	AddArticlesIngested(inserted, updated int)
	IncIngestFailure(source string)
}

// Fetcher は個別取り込み元のHTTPフェッチとパースを行う。
// SSRF検証、gofeedによるパース、UpsertServiceによる記事保存を実行する。
type Fetcher struct {
	sourceRepo  repository.SourceRepository
	upsertSvc   ArticleUpserter
	ssrfGuard   SSRFValidator
	logger      *slog.Logger
	recorder    IngestRecorder
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。recorderはnil可。
func NewFetcher(
	sourceRepo repository.SourceRepository,
	upsertSvc ArticleUpserter,
	ssrfGuard SSRFValidator,
	logger *slog.Logger,
	recorder IngestRecorder,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		sourceRepo:  sourceRepo,
		upsertSvc:   upsertSvc,
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		recorder:    recorder,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Fetch は取り込み元のフィードをフェッチして記事をUPSERTする。
func (f *Fetcher) Fetch(ctx context.Context, source *model.NewsSource) error {
	start := time.Now()

	if err := f.ssrfGuard.ValidateURL(source.FeedURL); err != nil {
		f.fail(source, "SSRF検証に失敗しました", err)
		return fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.FeedURL, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "VeritasNews/1.0 News Aggregator")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		f.fail(source, "HTTPリクエストに失敗しました", err)
		return fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status=%d", resp.StatusCode)
		f.fail(source, "フィードが異常応答を返しました", err)
		return fmt.Errorf("フィード取得失敗: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		f.fail(source, "フィードの解析に失敗しました", err)
		return fmt.Errorf("フィード解析失敗: %w", err)
	}

	articles := f.toParsedArticles(parsed, source)
	inserted, updated, err := f.upsertSvc.UpsertArticles(ctx, source.Name, articles)
	if err != nil {
		f.fail(source, "記事のUPSERTに失敗しました", err)
		return fmt.Errorf("記事UPSERT失敗: %w", err)
	}

	if err := f.sourceRepo.UpdateLastFetched(ctx, source.ID, time.Now()); err != nil {
		f.logger.Error("最終フェッチ日時の更新に失敗しました",
			slog.String("source_id", source.ID),
			slog.String("error", err.Error()),
		)
	}

	if f.recorder != nil {
		f.recorder.AddArticlesIngested(inserted, updated)
	}
	f.logger.Info("フィード取り込みが完了しました",
		slog.String("source", source.Name),
		slog.Int("inserted", inserted),
		slog.Int("updated", updated),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// toParsedArticles はgofeedのアイテムをドメインのParsedArticleへ変換する。
// タイトルのないアイテムはスキップする。
func (f *Fetcher) toParsedArticles(feed *gofeed.Feed, source *model.NewsSource) []model.ParsedArticle {
	out := make([]model.ParsedArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		parsed := model.ParsedArticle{
			GuidOrID:    item.GUID,
			Title:       title,
			Link:        item.Link,
			Content:     item.Content,
			Summary:     item.Description,
			Category:    source.Category,
			Source:      source.Name,
			PublishedAt: item.PublishedParsed,
		}
		if parsed.Content == "" {
			parsed.Content = item.Description
		}
		out = append(out, parsed)
	}
	return out
}

func (f *Fetcher) fail(source *model.NewsSource, msg string, err error) {
	f.logger.Error(msg,
		slog.String("source", source.Name),
		slog.String("feed_url", source.FeedURL),
		slog.String("error", err.Error()),
	)
	if f.recorder != nil {
		f.recorder.IncIngestFailure(source.Name)
	}
}
