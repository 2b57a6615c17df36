package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/VeritasNews/Backend/internal/middleware"
	"github.com/VeritasNews/Backend/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// GetFeed はユーザーのパーソナライズ済みフィードを返す。
	GetFeed(ctx context.Context, userID, category, priority string) ([]*model.ScoredArticle, error)
}

// FeedHandler はパーソナライズ済みフィードのHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// scoredArticleResponse はフィード1件分のレスポンス。
type scoredArticleResponse struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Summary              string     `json:"summary"`
	Category             string     `json:"category,omitempty"`
	Source               string     `json:"source,omitempty"`
	Link                 string     `json:"link,omitempty"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
	RelevanceScore       float64    `json:"relevance_score"`
	PersonalizedPriority string     `json:"personalized_priority"`
}

// feedResponse はフィード全体のレスポンス。
type feedResponse struct {
	Articles []scoredArticleResponse `json:"articles"`
}

// GetFeed はユーザーのパーソナライズ済みフィードを取得する。
// GET /api/feed?category=xxx&priority=xxx
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	category := r.URL.Query().Get("category")
	priority := r.URL.Query().Get("priority")

	scored, err := h.service.GetFeed(r.Context(), userID, category, priority)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := feedResponse{Articles: make([]scoredArticleResponse, len(scored))}
	for i, sa := range scored {
		resp.Articles[i] = toScoredArticleResponse(sa)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// toScoredArticleResponse はドメインのScoredArticleをレスポンス型に変換する。
func toScoredArticleResponse(sa *model.ScoredArticle) scoredArticleResponse {
	return scoredArticleResponse{
		ID:                   sa.ID,
		Title:                sa.Title,
		Summary:              sa.Summary,
		Category:             sa.Category,
		Source:               sa.Source,
		Link:                 sa.Link,
		CreatedAt:            sa.CreatedAt,
		RelevanceScore:       sa.RelevanceScore,
		PersonalizedPriority: string(sa.PersonalizedPriority),
	}
}
