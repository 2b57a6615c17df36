package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/VeritasNews/Backend/internal/middleware"
	"github.com/VeritasNews/Backend/internal/model"
)

// InteractionServiceInterface はインタラクションハンドラーが必要とするサービスインターフェース。
type InteractionServiceInterface interface {
	// Record はユーザーのインタラクションイベントを記録する。
	Record(ctx context.Context, userID, articleID, action string, timeSpent *int) error
}

// InteractionHandler はインタラクション記録のHTTPハンドラー。
type InteractionHandler struct {
	service InteractionServiceInterface
}

// NewInteractionHandler はInteractionHandlerを生成する。
func NewInteractionHandler(service InteractionServiceInterface) *InteractionHandler {
	return &InteractionHandler{service: service}
}

// interactionRequest はインタラクション記録リクエストのボディ。
type interactionRequest struct {
	ArticleID string `json:"articleId"`
	Action    string `json:"action"`
	TimeSpent *int   `json:"time_spent,omitempty"` // 秒
}

// Record はインタラクションイベントを記録する。
// POST /api/interactions
func (h *InteractionHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}
	if req.ArticleID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("articleIdは必須です"))
		return
	}

	if err := h.service.Record(r.Context(), userID, req.ArticleID, req.Action, req.TimeSpent); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
