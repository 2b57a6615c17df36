package ingest

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/VeritasNews/Backend/internal/model"
)

// --- テスト用モック ---

type mockSourceRepo struct {
	mu          sync.Mutex
	sources     []*model.NewsSource
	lastFetched map[string]time.Time
}

func newMockSourceRepo(sources ...*model.NewsSource) *mockSourceRepo {
	return &mockSourceRepo{sources: sources, lastFetched: map[string]time.Time{}}
}

func (m *mockSourceRepo) List(context.Context) ([]*model.NewsSource, error) {
	return m.sources, nil
}

func (m *mockSourceRepo) UpdateLastFetched(_ context.Context, sourceID string, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFetched[sourceID] = fetchedAt
	return nil
}

type mockUpserter struct {
	mu    sync.Mutex
	calls map[string][]model.ParsedArticle // source -> parsed
}

func newMockUpserter() *mockUpserter {
	return &mockUpserter{calls: map[string][]model.ParsedArticle{}}
}

func (m *mockUpserter) UpsertArticles(_ context.Context, source string, parsed []model.ParsedArticle) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[source] = append(m.calls[source], parsed...)
	return len(parsed), 0, nil
}

// allowAllValidator は検証を常に通過させるSSRFValidator。
type allowAllValidator struct{}

func (allowAllValidator) ValidateURL(string) error { return nil }

func (allowAllValidator) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

// denyAllValidator は常に検証を拒否するSSRFValidator。
type denyAllValidator struct{}

func (denyAllValidator) ValidateURL(string) error {
	return context.Canceled
}

func (denyAllValidator) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Haber</title>
    <item>
      <guid>g1</guid>
      <title>Birinci haber</title>
      <link>https://example.com/1</link>
      <description>özet 1</description>
      <pubDate>Mon, 09 Mar 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <guid>g2</guid>
      <title></title>
      <link>https://example.com/2</link>
    </item>
    <item>
      <guid>g3</guid>
      <title>Üçüncü haber</title>
      <link>https://example.com/3</link>
      <description>özet 3</description>
    </item>
  </channel>
</rss>`

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	defer server.Close()

	sourceRepo := newMockSourceRepo()
	upserter := newMockUpserter()
	fetcher := NewFetcher(sourceRepo, upserter, allowAllValidator{}, testLogger(), nil, 5*time.Second, 1<<20)

	source := &model.NewsSource{ID: "s1", Name: "ntv", FeedURL: server.URL, Category: "Siyaset"}
	if err := fetcher.Fetch(context.Background(), source); err != nil {
		t.Fatalf("Fetch エラー: %v", err)
	}

	parsed := upserter.calls["ntv"]
	// タイトルなしのアイテムはスキップされる
	if len(parsed) != 2 {
		t.Fatalf("UPSERT対象 = %d, want 2", len(parsed))
	}
	if parsed[0].GuidOrID != "g1" || parsed[0].Title != "Birinci haber" {
		t.Errorf("1件目 = %+v", parsed[0])
	}
	if parsed[0].Category != "Siyaset" {
		t.Errorf("Category = %q, want 取り込み元のカテゴリ", parsed[0].Category)
	}
	if parsed[0].PublishedAt == nil {
		t.Error("pubDateが解析されていない")
	}
	if _, ok := sourceRepo.lastFetched["s1"]; !ok {
		t.Error("最終フェッチ日時が更新されていない")
	}
}

func TestFetcher_SSRFRejection(t *testing.T) {
	fetcher := NewFetcher(newMockSourceRepo(), newMockUpserter(), denyAllValidator{}, testLogger(), nil, time.Second, 1<<20)

	source := &model.NewsSource{ID: "s1", Name: "ntv", FeedURL: "http://169.254.169.254/feed"}
	if err := fetcher.Fetch(context.Background(), source); err == nil {
		t.Error("SSRF検証拒否でエラーが返らなかった")
	}
}

func TestFetcher_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sourceRepo := newMockSourceRepo()
	fetcher := NewFetcher(sourceRepo, newMockUpserter(), allowAllValidator{}, testLogger(), nil, time.Second, 1<<20)

	source := &model.NewsSource{ID: "s1", Name: "ntv", FeedURL: server.URL}
	if err := fetcher.Fetch(context.Background(), source); err == nil {
		t.Error("非200応答でエラーが返らなかった")
	}
	if _, ok := sourceRepo.lastFetched["s1"]; ok {
		t.Error("失敗時に最終フェッチ日時が更新された")
	}
}

type mockFetcherService struct {
	mu      sync.Mutex
	fetched []string
}

func (m *mockFetcherService) Fetch(_ context.Context, source *model.NewsSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, source.Name)
	return nil
}

func TestScheduler_RunOnce(t *testing.T) {
	sourceRepo := newMockSourceRepo(
		&model.NewsSource{ID: "s1", Name: "bir"},
		&model.NewsSource{ID: "s2", Name: "iki"},
		&model.NewsSource{ID: "s3", Name: "üç"},
	)
	fetcherService := &mockFetcherService{}
	scheduler := NewScheduler(sourceRepo, fetcherService, testLogger(), 2)

	if err := scheduler.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce エラー: %v", err)
	}
	if len(fetcherService.fetched) != 3 {
		t.Errorf("フェッチ件数 = %d, want 3", len(fetcherService.fetched))
	}
}

func TestScheduler_RunOnceEmpty(t *testing.T) {
	scheduler := NewScheduler(newMockSourceRepo(), &mockFetcherService{}, testLogger(), 0)
	if err := scheduler.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce エラー: %v", err)
	}
}
