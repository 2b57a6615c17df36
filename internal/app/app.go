package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/VeritasNews/Backend/internal/article"
	"github.com/VeritasNews/Backend/internal/classifier"
	"github.com/VeritasNews/Backend/internal/config"
	"github.com/VeritasNews/Backend/internal/database"
	"github.com/VeritasNews/Backend/internal/feed"
	"github.com/VeritasNews/Backend/internal/handler"
	"github.com/VeritasNews/Backend/internal/heuristic"
	"github.com/VeritasNews/Backend/internal/interaction"
	"github.com/VeritasNews/Backend/internal/logger"
	"github.com/VeritasNews/Backend/internal/metrics"
	"github.com/VeritasNews/Backend/internal/middleware"
	"github.com/VeritasNews/Backend/internal/priority"
	"github.com/VeritasNews/Backend/internal/ranking"
	"github.com/VeritasNews/Backend/internal/repository"
	"github.com/VeritasNews/Backend/internal/retrain"
	"github.com/VeritasNews/Backend/internal/security"
	"github.com/VeritasNews/Backend/internal/user"
	"github.com/VeritasNews/Backend/internal/worker/cleanup"
	"github.com/VeritasNews/Backend/internal/worker/ingest"
	"github.com/VeritasNews/Backend/internal/worker/rescore"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// buildRanker はランキングバックエンドを構築する。
// RANKING_SERVICE_URLが設定されていれば外部サービスへ委譲するRemoteRanker、
// 未設定ならヒューリスティックエンジン内蔵のLocalRankerを返す。
func buildRanker(cfg *config.Config, collector *metrics.Collector) ranking.Ranker {
	if cfg.RankingServiceURL != "" {
		return ranking.NewRemoteRanker(
			cfg.RankingServiceURL, cfg.RankingTimeout, slog.Default(), collector,
		)
	}

	var trending heuristic.TrendingSource
	if cfg.TrendingFeedURL != "" {
		trending = heuristic.NewHTTPTrendingSource(
			cfg.TrendingFeedURL, cfg.TrendingAPIKey, cfg.DefaultCountry,
			cfg.TrendingTimeout, slog.Default(), collector,
		)
	}
	scorer := heuristic.NewScorer(nil, time.Now)
	return ranking.NewLocalRanker(scorer, trending)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	articleRepo := repository.NewPostgresArticleRepo(db)
	interactionRepo := repository.NewPostgresInteractionRepo(db)
	scoreRepo := repository.NewPostgresScoreRepo(db)
	userRepo := repository.NewPostgresUserRepo(db)
	friendshipRepo := repository.NewPostgresFriendshipRepo(db)
	likeRepo := repository.NewPostgresLikeRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 再学習トリガーの初期化
	// Webhook URL未設定の場合は再学習通知を無効化する。
	// 再学習パイプラインが書き出す新アーティファクトはワーカー側のWatcherが取り込む。
	var notifier interaction.RetrainNotifier
	if cfg.RetrainWebhookURL != "" {
		dispatcher := retrain.NewWebhookDispatcher(cfg.RetrainWebhookURL, 0)
		notifier = retrain.NewTrigger(dispatcher, cfg.RetrainCooldown, slog.Default(), collector, nil)
	}

	// 5. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()
	articleService := article.NewService(articleRepo, sanitizer)
	interactionService := interaction.NewService(interactionRepo, articleRepo, notifier)
	feedService := feed.NewService(scoreRepo, articleRepo)
	userService := user.NewService(userRepo, friendshipRepo, likeRepo, articleRepo)

	// 6. ランキングバックエンドの構築（/v1/rank 用）
	ranker := buildRanker(cfg, collector)

	// 7. ルーターの構築
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.InteractionRate = rate.Limit(float64(cfg.RateLimitInteraction) / 60.0)
	rateLimiterCfg.InteractionBurst = cfg.RateLimitInteraction
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		MetricsRecorder:   collector,
		MetricsGatherer:   registry,

		FeedService:        feedService,
		InteractionService: interactionService,
		ArticleService:     articleService,
		UserService:        userService,
		Ranker:             ranker,

		HealthCheck: db.Ping,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 記事取り込みスケジューラと再スコアリングスケジューラを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	articleRepo := repository.NewPostgresArticleRepo(db)
	interactionRepo := repository.NewPostgresInteractionRepo(db)
	scoreRepo := repository.NewPostgresScoreRepo(db)
	sourceRepo := repository.NewPostgresSourceRepo(db)
	userRepo := repository.NewPostgresUserRepo(db)

	// 3. メトリクスとセキュリティサービスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. 取り込みフェッチャーの初期化
	upsertSvc := article.NewUpsertService(articleRepo, sanitizer)
	fetcher := ingest.NewFetcher(
		sourceRepo, upsertSvc, ssrfGuard,
		slog.Default(), collector, cfg.IngestTimeout, cfg.IngestMaxBodySize,
	)
	ingestScheduler := ingest.NewScheduler(
		sourceRepo, fetcher, slog.Default(), cfg.IngestMaxConcurrent,
	)

	// 5. 分類器モデルの読み込み
	// アーティファクト未配置の場合はフォールバック確率で稼働する。
	// 再学習パイプラインが同一パスへ書き出した新モデルはWatcherが検出して差し替える。
	store := classifier.NewStore()
	var modelWatcher *classifier.Watcher
	if cfg.ModelArtifactPath != "" {
		if err := store.Reload(cfg.ModelArtifactPath); err != nil {
			slog.Warn("model artifact load failed, using fallback predictions",
				slog.String("path", cfg.ModelArtifactPath),
				slog.String("error", err.Error()),
			)
		}
		modelWatcher = classifier.NewWatcher(store, cfg.ModelArtifactPath, slog.Default())
	}
	predictor := classifier.NewPredictor(store, slog.Default(), collector)

	// 6. 再スコアリングスケジューラの初期化
	ranker := buildRanker(cfg, collector)
	bucketer := priority.NewBucketer(scoreRepo, slog.Default(), collector)
	rescorer := rescore.NewRescorer(
		userRepo, articleRepo, interactionRepo,
		predictor, ranker, bucketer,
		slog.Default(), collector, cfg.DefaultCountry, 0,
	)
	rescoreScheduler := rescore.NewScheduler(
		interactionRepo, rescorer, slog.Default(),
		cfg.RescoreActiveWindow, cfg.RescoreMaxConcurrent,
	)

	// 7. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(scoreRepo, slog.Default())
	cleanupJob.RetentionDays = cfg.ScoreRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("ingest_interval", cfg.IngestInterval),
		slog.Duration("rescore_interval", cfg.RescoreInterval),
		slog.Int("rescore_max_concurrent", cfg.RescoreMaxConcurrent),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}
		cleanupJob.Start(ctx, 24*time.Hour)
	}()

	// モデルアーティファクトの更新監視をバックグラウンドで起動
	if modelWatcher != nil {
		go modelWatcher.Start(ctx, cfg.ModelReloadInterval)
	}

	// 再スコアリングスケジューラをバックグラウンドで起動
	go rescoreScheduler.Start(ctx, cfg.RescoreInterval)

	// 取り込みスケジューラをメインgoroutineで実行（ブロッキング）
	ingestScheduler.Start(ctx, cfg.IngestInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
