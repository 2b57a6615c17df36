package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/VeritasNews/Backend/internal/heuristic"
	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/ranking"
)

// RankHandler はヒューリスティック採点を外部公開するHTTPハンドラー。
// リモートランキングサービスと同一のワイヤフォーマットを提供するため、
// このサービス自身を他インスタンスのランキングバックエンドとして使える。
type RankHandler struct {
	ranker ranking.Ranker
}

// NewRankHandler はRankHandlerを生成する。
func NewRankHandler(ranker ranking.Ranker) *RankHandler {
	return &RankHandler{ranker: ranker}
}

// rankArticleRequest はランキングリクエストの1記事分。
type rankArticleRequest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	SourceScore float64   `json:"source_score"`
	PublishedAt time.Time `json:"published_at"`
	Clicks      int       `json:"clicks"`
	Shares      int       `json:"shares"`
}

// rankEntryResponse はランキング結果の1件分。
type rankEntryResponse struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Rank は記事バッチをスコアリングし、スコア降順で返す。
// POST /v1/rank?genre=xxx&country=XX
func (h *RankHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req []rankArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}

	genre := r.URL.Query().Get("genre")
	country := r.URL.Query().Get("country")

	inputs := make([]heuristic.Input, len(req))
	for i, a := range req {
		inputs[i] = heuristic.Input{
			ID:          a.ID,
			Title:       a.Title,
			Body:        a.Body,
			SourceScore: a.SourceScore,
			PublishedAt: a.PublishedAt,
			Clicks:      a.Clicks,
			Shares:      a.Shares,
		}
	}

	scores := h.ranker.Rank(r.Context(), inputs, genre, country)

	entries := make([]rankEntryResponse, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, rankEntryResponse{ID: id, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ID < entries[j].ID
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
