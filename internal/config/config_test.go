package config

import (
	"testing"
	"time"
)

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("DATABASE_URL未設定時にLoadはエラーを返すべき")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/veritas?sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.RankingServiceURL != "" {
		t.Errorf("RankingServiceURL = %q, want empty", cfg.RankingServiceURL)
	}
	if cfg.RankingTimeout != 5*time.Second {
		t.Errorf("RankingTimeout = %v, want 5s", cfg.RankingTimeout)
	}
	if cfg.DefaultCountry != "TR" {
		t.Errorf("DefaultCountry = %q, want %q", cfg.DefaultCountry, "TR")
	}
	if cfg.RetrainCooldown != 10*time.Minute {
		t.Errorf("RetrainCooldown = %v, want 10m", cfg.RetrainCooldown)
	}
	if cfg.ModelReloadInterval != time.Minute {
		t.Errorf("ModelReloadInterval = %v, want 1m", cfg.ModelReloadInterval)
	}
	if cfg.RescoreInterval != 15*time.Minute {
		t.Errorf("RescoreInterval = %v, want 15m", cfg.RescoreInterval)
	}
	if cfg.RescoreMaxConcurrent != 4 {
		t.Errorf("RescoreMaxConcurrent = %d, want 4", cfg.RescoreMaxConcurrent)
	}
	if cfg.RescoreActiveWindow != 24*time.Hour {
		t.Errorf("RescoreActiveWindow = %v, want 24h", cfg.RescoreActiveWindow)
	}
	if cfg.IngestTimeout != 10*time.Second {
		t.Errorf("IngestTimeout = %v, want 10s", cfg.IngestTimeout)
	}
	if cfg.IngestMaxBodySize != 5242880 {
		t.Errorf("IngestMaxBodySize = %d, want 5242880", cfg.IngestMaxBodySize)
	}
	if cfg.IngestInterval != 5*time.Minute {
		t.Errorf("IngestInterval = %v, want 5m", cfg.IngestInterval)
	}
	if cfg.IngestMaxConcurrent != 10 {
		t.Errorf("IngestMaxConcurrent = %d, want 10", cfg.IngestMaxConcurrent)
	}
	if cfg.ScoreRetentionDays != 30 {
		t.Errorf("ScoreRetentionDays = %d, want 30", cfg.ScoreRetentionDays)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitInteraction != 60 {
		t.Errorf("RateLimitInteraction = %d, want 60", cfg.RateLimitInteraction)
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/veritas?sslmode=disable")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RANKING_SERVICE_URL", "http://ranker:8000")
	t.Setenv("RANKING_TIMEOUT", "3s")
	t.Setenv("DEFAULT_COUNTRY", "US")
	t.Setenv("TRENDING_FEED_URL", "https://newsapi.example.com/v2/top-headlines")
	t.Setenv("TRENDING_API_KEY", "secret")
	t.Setenv("RETRAIN_COOLDOWN", "30m")
	t.Setenv("MODEL_ARTIFACT_PATH", "/models/artifact.json")
	t.Setenv("MODEL_RELOAD_INTERVAL", "5m")
	t.Setenv("SCORE_RETENTION_DAYS", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
	if cfg.RankingServiceURL != "http://ranker:8000" {
		t.Errorf("RankingServiceURL = %q, want %q", cfg.RankingServiceURL, "http://ranker:8000")
	}
	if cfg.RankingTimeout != 3*time.Second {
		t.Errorf("RankingTimeout = %v, want 3s", cfg.RankingTimeout)
	}
	if cfg.DefaultCountry != "US" {
		t.Errorf("DefaultCountry = %q, want %q", cfg.DefaultCountry, "US")
	}
	if cfg.TrendingFeedURL != "https://newsapi.example.com/v2/top-headlines" {
		t.Errorf("TrendingFeedURL = %q", cfg.TrendingFeedURL)
	}
	if cfg.TrendingAPIKey != "secret" {
		t.Errorf("TrendingAPIKey = %q, want %q", cfg.TrendingAPIKey, "secret")
	}
	if cfg.RetrainCooldown != 30*time.Minute {
		t.Errorf("RetrainCooldown = %v, want 30m", cfg.RetrainCooldown)
	}
	if cfg.ModelArtifactPath != "/models/artifact.json" {
		t.Errorf("ModelArtifactPath = %q", cfg.ModelArtifactPath)
	}
	if cfg.ModelReloadInterval != 5*time.Minute {
		t.Errorf("ModelReloadInterval = %v, want 5m", cfg.ModelReloadInterval)
	}
	if cfg.ScoreRetentionDays != 90 {
		t.Errorf("ScoreRetentionDays = %d, want 90", cfg.ScoreRetentionDays)
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/veritas?sslmode=disable")
	t.Setenv("RESCORE_MAX_CONCURRENT", "not-a-number")
	t.Setenv("RANKING_TIMEOUT", "not-a-duration")
	t.Setenv("INGEST_MAX_BODY_SIZE", "xyz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}

	if cfg.RescoreMaxConcurrent != 4 {
		t.Errorf("不正な値はデフォルトにフォールバックすべき: RescoreMaxConcurrent = %d", cfg.RescoreMaxConcurrent)
	}
	if cfg.RankingTimeout != 5*time.Second {
		t.Errorf("不正な値はデフォルトにフォールバックすべき: RankingTimeout = %v", cfg.RankingTimeout)
	}
	if cfg.IngestMaxBodySize != 5242880 {
		t.Errorf("不正な値はデフォルトにフォールバックすべき: IngestMaxBodySize = %d", cfg.IngestMaxBodySize)
	}
}
