package ranking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VeritasNews/Backend/internal/heuristic"
)

type mockRankRecorder struct {
	fallbacks int
}

func (m *mockRankRecorder) IncRankingFallback() { m.fallbacks++ }

func rankInputs() []heuristic.Input {
	return []heuristic.Input{
		{ID: "a1", Title: "Başlık 1", Body: "İçerik", SourceScore: 0.8, PublishedAt: time.Now(), Clicks: 3},
		{ID: "a2", Title: "Başlık 2", Body: "İçerik", SourceScore: 0.9, PublishedAt: time.Now(), Shares: 1},
	}
}

func TestRemoteRanker_Rank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/rank" {
			t.Errorf("予期しないリクエスト: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("genre"); got != "politics" {
			t.Errorf("genre = %q, want politics", got)
		}
		if got := r.URL.Query().Get("country"); got != "TR" {
			t.Errorf("country = %q, want TR", got)
		}
		var payload []rankRequestArticle
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("リクエストの解析に失敗: %v", err)
		}
		if len(payload) != 2 {
			t.Errorf("記事数 = %d, want 2", len(payload))
		}
		json.NewEncoder(w).Encode([]rankResponseEntry{
			{ID: "a2", Score: 0.92},
			{ID: "a1", Score: 0.41},
		})
	}))
	defer server.Close()

	ranker := NewRemoteRanker(server.URL, time.Second, nil, nil)
	scores := ranker.Rank(context.Background(), rankInputs(), "politics", "TR")

	if len(scores) != 2 {
		t.Fatalf("スコア数 = %d, want 2", len(scores))
	}
	if scores["a2"] != 0.92 || scores["a1"] != 0.41 {
		t.Errorf("スコアが不正: %v", scores)
	}
}

func TestRemoteRanker_FailureReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	recorder := &mockRankRecorder{}
	ranker := NewRemoteRanker(server.URL, time.Second, nil, recorder)

	scores := ranker.Rank(context.Background(), rankInputs(), "", "")
	if len(scores) != 0 {
		t.Errorf("非200応答 = %v, want 空マップ", scores)
	}
	if recorder.fallbacks != 1 {
		t.Errorf("フォールバック記録 = %d, want 1", recorder.fallbacks)
	}

	server.Close()
	if scores := ranker.Rank(context.Background(), rankInputs(), "", ""); len(scores) != 0 {
		t.Errorf("接続不可 = %v, want 空マップ", scores)
	}
}

func TestLocalRanker_Rank(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	scorer := heuristic.NewScorer(nil, func() time.Time { return now })
	ranker := NewLocalRanker(scorer, nil)

	inputs := []heuristic.Input{
		{ID: "new", Title: "Haber", SourceScore: 0.8, PublishedAt: now.Add(-1 * time.Hour)},
		{ID: "old", Title: "Haber", SourceScore: 0.8, PublishedAt: now.Add(-48 * time.Hour)},
	}
	scores := ranker.Rank(context.Background(), inputs, "", "TR")

	if len(scores) != 2 {
		t.Fatalf("スコア数 = %d, want 2", len(scores))
	}
	if scores["new"] <= scores["old"] {
		t.Errorf("新しい記事が高スコアであるべき: new=%v old=%v", scores["new"], scores["old"])
	}
}
