package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VeritasNews/Backend/internal/article"
	"github.com/VeritasNews/Backend/internal/model"
)

// ArticleServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type ArticleServiceInterface interface {
	// List は記事一覧をカテゴリフィルタ付きで返す。
	List(ctx context.Context, category string, limit int) ([]*model.Article, error)
	// Get は記事詳細を返す。
	Get(ctx context.Context, id string) (*model.Article, error)
	// CreateBatch は記事をまとめて取り込む。
	CreateBatch(ctx context.Context, inputs []article.CreateInput) ([]*model.Article, error)
}

// ArticleHandler は記事管理のHTTPハンドラー。
type ArticleHandler struct {
	service ArticleServiceInterface
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface) *ArticleHandler {
	return &ArticleHandler{service: service}
}

// articleResponse は記事1件分のレスポンス。
type articleResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary,omitempty"`
	LongerSummary string     `json:"longer_summary,omitempty"`
	Content       string     `json:"content,omitempty"`
	Category      string     `json:"category,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Source        string     `json:"source,omitempty"`
	Location      string     `json:"location,omitempty"`
	Popularity    float64    `json:"popularity"`
	Priority      string     `json:"priority,omitempty"`
	Link          string     `json:"link,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// articleListResponse は記事一覧のレスポンス。
type articleListResponse struct {
	Articles []articleResponse `json:"articles"`
}

// createArticleRequest はバッチ取り込みリクエストの1記事分。
type createArticleRequest struct {
	Title         string     `json:"title"`
	Summary       string     `json:"summary,omitempty"`
	LongerSummary string     `json:"longer_summary,omitempty"`
	Content       string     `json:"content,omitempty"`
	Category      string     `json:"category,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Source        string     `json:"source,omitempty"`
	Location      string     `json:"location,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// createBatchRequest はバッチ取り込みリクエストのボディ。
type createBatchRequest struct {
	Articles []createArticleRequest `json:"articles"`
}

// List は記事一覧を取得する。
// GET /api/articles?category=xxx&limit=50
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limitは整数で指定してください"))
			return
		}
		limit = parsed
	}

	articles, err := h.service.List(r.Context(), category, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := articleListResponse{Articles: make([]articleResponse, len(articles))}
	for i, a := range articles {
		resp.Articles[i] = toArticleResponse(a)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Get は記事詳細を取得する。
// GET /api/articles/{id}
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toArticleResponse(a))
}

// CreateBatch は記事をまとめて取り込む。
// POST /api/articles
func (h *ArticleHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}

	inputs := make([]article.CreateInput, len(req.Articles))
	for i, a := range req.Articles {
		inputs[i] = article.CreateInput{
			Title:         a.Title,
			Summary:       a.Summary,
			LongerSummary: a.LongerSummary,
			Content:       a.Content,
			Category:      a.Category,
			Tags:          a.Tags,
			Source:        a.Source,
			Location:      a.Location,
			Priority:      a.Priority,
			CreatedAt:     a.CreatedAt,
		}
	}

	created, err := h.service.CreateBatch(r.Context(), inputs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := articleListResponse{Articles: make([]articleResponse, len(created))}
	for i, a := range created {
		resp.Articles[i] = toArticleResponse(a)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// toArticleResponse はドメインのArticleをレスポンス型に変換する。
func toArticleResponse(a *model.Article) articleResponse {
	return articleResponse{
		ID:            a.ID,
		Title:         a.Title,
		Summary:       a.Summary,
		LongerSummary: a.LongerSummary,
		Content:       a.Content,
		Category:      a.Category,
		Tags:          a.Tags,
		Source:        a.Source,
		Location:      a.Location,
		Popularity:    a.Popularity,
		Priority:      string(a.Priority),
		Link:          a.Link,
		CreatedAt:     a.CreatedAt,
	}
}
