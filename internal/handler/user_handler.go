package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VeritasNews/Backend/internal/middleware"
	"github.com/VeritasNews/Backend/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Create は新規ユーザーを登録する。
	Create(ctx context.Context, name, email string) (*model.User, error)
	// Get はユーザーを取得する。
	Get(ctx context.Context, userID string) (*model.User, error)
	// UpdatePreferredCategories は優先カテゴリを更新する。
	UpdatePreferredCategories(ctx context.Context, userID string, categories []string) error
	// AddFriend は友人関係を登録する。
	AddFriend(ctx context.Context, userID, friendID string) error
	// ListFriends は友人一覧を返す。
	ListFriends(ctx context.Context, userID string) ([]*model.User, error)
	// LikeArticle は記事への「いいね」を記録する。
	LikeArticle(ctx context.Context, userID, articleID string) error
	// UnlikeArticle は記事への「いいね」を取り消す。
	UnlikeArticle(ctx context.Context, userID, articleID string) error
	// ListLikedArticles は「いいね」済み記事の一覧を返す。
	ListLikedArticles(ctx context.Context, userID string) ([]*model.Article, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// createUserRequest はユーザー登録リクエストのボディ。
type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// userResponse はユーザー情報のレスポンス。
type userResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	PreferredCategories []string  `json:"preferred_categories"`
	CreatedAt           time.Time `json:"created_at"`
}

// userListResponse はユーザー一覧のレスポンス。
type userListResponse struct {
	Users []userResponse `json:"users"`
}

// updateCategoriesRequest は優先カテゴリ更新リクエストのボディ。
type updateCategoriesRequest struct {
	Categories []string `json:"categories"`
}

// Create は新規ユーザーを登録する。
// POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}

	u, err := h.service.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toUserResponse(u))
}

// Me は識別済みユーザー自身の情報を返す。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	u, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(u))
}

// UpdateCategories は優先カテゴリを更新する。
// PUT /api/users/me/categories
func (h *UserHandler) UpdateCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateCategoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}

	if err := h.service.UpdatePreferredCategories(r.Context(), userID, req.Categories); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddFriend は友人関係を登録する。
// PUT /api/users/me/friends/{id}
func (h *UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	friendID := chi.URLParam(r, "id")
	if err := h.service.AddFriend(r.Context(), userID, friendID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFriends は友人一覧を取得する。
// GET /api/users/me/friends
func (h *UserHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	friends, err := h.service.ListFriends(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := userListResponse{Users: make([]userResponse, len(friends))}
	for i, u := range friends {
		resp.Users[i] = toUserResponse(u)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// LikeArticle は記事への「いいね」を記録する。
// POST /api/articles/{id}/like
func (h *UserHandler) LikeArticle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	articleID := chi.URLParam(r, "id")
	if err := h.service.LikeArticle(r.Context(), userID, articleID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnlikeArticle は記事への「いいね」を取り消す。
// DELETE /api/articles/{id}/like
func (h *UserHandler) UnlikeArticle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	articleID := chi.URLParam(r, "id")
	if err := h.service.UnlikeArticle(r.Context(), userID, articleID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListLikedArticles は「いいね」済み記事の一覧を取得する。
// GET /api/users/me/likes
func (h *UserHandler) ListLikedArticles(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	articles, err := h.service.ListLikedArticles(r.Context(), userID)
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

// toUserResponse はドメインのUserをレスポンス型に変換する。
func toUserResponse(u *model.User) userResponse {
	categories := u.PreferredCategories
	if categories == nil {
		categories = []string{}
	}
	return userResponse{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		PreferredCategories: categories,
		CreatedAt:           u.CreatedAt,
	}
}
