package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/VeritasNews/Backend/internal/metrics"
	"github.com/VeritasNews/Backend/internal/middleware"
	"github.com/VeritasNews/Backend/internal/ranking"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	MetricsRecorder   middleware.HTTPMetricsRecorder

	// メトリクス公開
	MetricsGatherer prometheus.Gatherer

	// サービス
	FeedService        FeedServiceInterface
	InteractionService InteractionServiceInterface
	ArticleService     ArticleServiceInterface
	UserService        UserServiceInterface
	Ranker             ranking.Ranker

	// ヘルスチェック
	HealthCheck func() error
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → SecurityHeaders → Identity → RateLimit(General)
//
// /health、/metrics、/v1/rank は識別不要のルートとしてチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.MetricsRecorder))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	feedHandler := NewFeedHandler(deps.FeedService)
	interactionHandler := NewInteractionHandler(deps.InteractionService)
	articleHandler := NewArticleHandler(deps.ArticleService)
	userHandler := NewUserHandler(deps.UserService)
	rankHandler := NewRankHandler(deps.Ranker)

	// --- 識別不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// ランキングサービス互換エンドポイント
	r.Post("/v1/rank", rankHandler.Rank)

	// ユーザー登録は識別前に行われるため識別不要ルートに置く
	r.Post("/api/users", userHandler.Create)

	// --- 識別が必要なルート ---
	// ミドルウェアスタック: Identity → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// パーソナライズ済みフィード
		r.Get("/api/feed", feedHandler.GetFeed)

		// インタラクション記録（専用レート制限を追加）
		r.With(deps.RateLimiter.InteractionMiddleware()).Post("/api/interactions", interactionHandler.Record)

		// 記事管理
		r.Route("/api/articles", func(r chi.Router) {
			r.Get("/", articleHandler.List)
			r.Post("/", articleHandler.CreateBatch)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", articleHandler.Get)
				r.Post("/like", userHandler.LikeArticle)
				r.Delete("/like", userHandler.UnlikeArticle)
			})
		})

		// ユーザー管理
		r.Route("/api/users/me", func(r chi.Router) {
			r.Get("/", userHandler.Me)
			r.Put("/categories", userHandler.UpdateCategories)
			r.Get("/friends", userHandler.ListFriends)
			r.Put("/friends/{id}", userHandler.AddFriend)
			r.Get("/likes", userHandler.ListLikedArticles)
		})
	})

	return r
}
