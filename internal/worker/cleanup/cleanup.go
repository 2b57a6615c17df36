// Package cleanup はスコアキャッシュの自動削除ジョブを提供する。
// 記事が消えた孤児レコードと、保持期間（デフォルト30日）を超過して
// 更新されていないレコードを日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/VeritasNews/Backend/internal/repository"
)

// DefaultRetentionDays はスコアレコードのデフォルト保持日数。
const DefaultRetentionDays = 30

// CleanupJob はスコアキャッシュの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	scoreRepo     repository.ScoreRepository
	logger        *slog.Logger
	RetentionDays int // スコアレコードの保持日数
	now           func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(scoreRepo repository.ScoreRepository, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		scoreRepo:     scoreRepo,
		logger:        logger,
		RetentionDays: DefaultRetentionDays,
		now:           time.Now,
	}
}

// Run は孤児レコードと保持期間超過レコードを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()

	orphaned, err := j.scoreRepo.DeleteOrphaned(ctx)
	if err != nil {
		j.logger.Error("孤児スコアレコードの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("孤児スコアレコードの削除に失敗: %w", err)
	}

	cutoff := start.AddDate(0, 0, -j.RetentionDays)
	stale, err := j.scoreRepo.DeleteStale(ctx, cutoff)
	if err != nil {
		j.logger.Error("期限切れスコアレコードの削除に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("期限切れスコアレコードの削除に失敗: %w", err)
	}

	j.logger.Info("スコアキャッシュのクリーンアップが完了しました",
		slog.Int64("orphaned_deleted", orphaned),
		slog.Int64("stale_deleted", stale),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は24時間間隔でクリーンアップを定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
