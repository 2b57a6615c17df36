package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string

	// Ranking
	RankingServiceURL string // 空文字の場合はローカルヒューリスティックで採点する
	RankingTimeout    time.Duration
	DefaultCountry    string

	// Trending
	TrendingFeedURL string
	TrendingAPIKey  string
	TrendingTimeout time.Duration

	// Classifier
	ModelArtifactPath   string
	ModelReloadInterval time.Duration

	// Retrain
	RetrainWebhookURL string
	RetrainCooldown   time.Duration

	// Rescore
	RescoreInterval      time.Duration
	RescoreMaxConcurrent int
	RescoreActiveWindow  time.Duration

	// Ingest
	IngestTimeout       time.Duration
	IngestMaxBodySize   int64
	IngestInterval      time.Duration
	IngestMaxConcurrent int

	// Cleanup
	ScoreRetentionDays int

	// Rate Limit
	RateLimitGeneral     int
	RateLimitInteraction int

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	cfg.RankingServiceURL = getEnvString("RANKING_SERVICE_URL", "")
	cfg.RankingTimeout = getEnvDuration("RANKING_TIMEOUT", 5*time.Second)
	cfg.DefaultCountry = getEnvString("DEFAULT_COUNTRY", "TR")

	cfg.TrendingFeedURL = getEnvString("TRENDING_FEED_URL", "")
	cfg.TrendingAPIKey = getEnvString("TRENDING_API_KEY", "")
	cfg.TrendingTimeout = getEnvDuration("TRENDING_TIMEOUT", 5*time.Second)

	cfg.ModelArtifactPath = getEnvString("MODEL_ARTIFACT_PATH", "")
	cfg.ModelReloadInterval = getEnvDuration("MODEL_RELOAD_INTERVAL", time.Minute)

	cfg.RetrainWebhookURL = getEnvString("RETRAIN_WEBHOOK_URL", "")
	cfg.RetrainCooldown = getEnvDuration("RETRAIN_COOLDOWN", 10*time.Minute)

	cfg.RescoreInterval = getEnvDuration("RESCORE_INTERVAL", 15*time.Minute)
	cfg.RescoreMaxConcurrent = getEnvInt("RESCORE_MAX_CONCURRENT", 4)
	cfg.RescoreActiveWindow = getEnvDuration("RESCORE_ACTIVE_WINDOW", 24*time.Hour)

	cfg.IngestTimeout = getEnvDuration("INGEST_TIMEOUT", 10*time.Second)
	cfg.IngestMaxBodySize = getEnvInt64("INGEST_MAX_BODY_SIZE", 5242880)
	cfg.IngestInterval = getEnvDuration("INGEST_INTERVAL", 5*time.Minute)
	cfg.IngestMaxConcurrent = getEnvInt("INGEST_MAX_CONCURRENT", 10)

	cfg.ScoreRetentionDays = getEnvInt("SCORE_RETENTION_DAYS", 30)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitInteraction = getEnvInt("RATE_LIMIT_INTERACTION", 60)

	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
