package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VeritasNews/Backend/internal/heuristic"
)

type stubRanker struct {
	gotGenre   string
	gotCountry string
	gotInputs  []heuristic.Input
	scores     map[string]float64
}

func (s *stubRanker) Rank(ctx context.Context, articles []heuristic.Input, genre, country string) map[string]float64 {
	s.gotInputs = articles
	s.gotGenre = genre
	s.gotCountry = country
	return s.scores
}

func TestRankHandler_Rank_ReturnsSortedScores(t *testing.T) {
	ranker := &stubRanker{scores: map[string]float64{
		"a1": 0.3,
		"a2": 0.9,
		"a3": 0.5,
	}}
	h := NewRankHandler(ranker)

	body := `[
		{"id":"a1","title":"birinci","source_score":0.8},
		{"id":"a2","title":"ikinci","source_score":0.9,"clicks":5,"shares":2},
		{"id":"a3","title":"üçüncü","source_score":0.7}
	]`
	req := httptest.NewRequest(http.MethodPost, "/v1/rank?genre=politics&country=TR", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Rank(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ranker.gotGenre != "politics" || ranker.gotCountry != "TR" {
		t.Errorf("genre/country = (%q, %q), want (politics, TR)", ranker.gotGenre, ranker.gotCountry)
	}
	if len(ranker.gotInputs) != 3 {
		t.Fatalf("inputs = %d, want 3", len(ranker.gotInputs))
	}
	if ranker.gotInputs[1].Clicks != 5 || ranker.gotInputs[1].Shares != 2 {
		t.Errorf("エンゲージメントの変換が不正: %+v", ranker.gotInputs[1])
	}

	var entries []rankEntryResponse
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	wantOrder := []string{"a2", "a3", "a1"}
	for i, want := range wantOrder {
		if entries[i].ID != want {
			t.Errorf("entries[%d].ID = %q, want %q", i, entries[i].ID, want)
		}
	}
}

func TestRankHandler_Rank_EmptyScoresReturnsEmptyArray(t *testing.T) {
	h := NewRankHandler(&stubRanker{scores: map[string]float64{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/rank", strings.NewReader(`[{"id":"a1","title":"t"}]`))
	w := httptest.NewRecorder()
	h.Rank(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var entries []rankEntryResponse
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if entries == nil {
		t.Error("entries は null ではなく空配列であるべき")
	}
}

func TestRankHandler_Rank_InvalidJSON(t *testing.T) {
	h := NewRankHandler(&stubRanker{})

	req := httptest.NewRequest(http.MethodPost, "/v1/rank", strings.NewReader("{invalid"))
	w := httptest.NewRecorder()
	h.Rank(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
