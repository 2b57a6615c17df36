package rescore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/VeritasNews/Backend/internal/repository"
)

// UserRescorer は1ユーザー分の再スコアリングの実行インターフェース。
type UserRescorer interface {
	RescoreUser(ctx context.Context, userID string) error
}

// Scheduler は再スコアリングのスケジューリングと並列制御を行う。
// ティッカーごとに活動ウィンドウ内のユーザーを取得し、semaphoreパターンで
// 最大並列数を制御しながらユーザー単位の再スコアリングを実行する。
type Scheduler struct {
	interactionRepo repository.InteractionRepository
	rescorer        UserRescorer
	logger          *slog.Logger
	activeWindow    time.Duration
	maxConcurrency  int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値4、activeWindowが0以下の場合は
// 24時間を使用する。
func NewScheduler(
	interactionRepo repository.InteractionRepository,
	rescorer UserRescorer,
	logger *slog.Logger,
	activeWindow time.Duration,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	if activeWindow <= 0 {
		activeWindow = 24 * time.Hour
	}
	return &Scheduler{
		interactionRepo: interactionRepo,
		rescorer:        rescorer,
		logger:          logger,
		activeWindow:    activeWindow,
		maxConcurrency:  maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("再スコアリングスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("再スコアリングスケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("再スコアリングサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は活動ウィンドウ内のユーザーを1回取得し、並列で再スコアリングする。
// 個別ユーザーの失敗はサイクル全体を止めない。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	userIDs, err := s.interactionRepo.ListActiveUserIDs(ctx, start.Add(-s.activeWindow))
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		s.logger.Info("再スコアリング対象のユーザーはいません")
		return nil
	}

	s.logger.Info("再スコアリングサイクルを開始します",
		slog.Int("user_count", len(userIDs)),
	)

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}

		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.rescorer.RescoreUser(ctx, id); err != nil {
				s.logger.Error("ユーザーの再スコアリングに失敗しました",
					slog.String("user_id", id),
					slog.String("error", err.Error()),
				)
			}
		}(userID)
	}

	wg.Wait()

	s.logger.Info("再スコアリングサイクルが完了しました",
		slog.Int("user_count", len(userIDs)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}
