// Package interaction はインタラクションイベント記録のドメインロジックを提供する。
package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/repository"
)

// RetrainNotifier は適格なインタラクションの発生を再学習トリガーへ通知する。
type RetrainNotifier interface {
	NotifyInteraction() bool
}

// Service はインタラクション記録のサービス層。
// イベントの追記、記事人気度の再計算、再学習トリガーへの通知を行う。
type Service struct {
	interactionRepo repository.InteractionRepository
	articleRepo     repository.ArticleRepository
	notifier        RetrainNotifier
	now             func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。notifierはnil可。
func NewService(
	interactionRepo repository.InteractionRepository,
	articleRepo repository.ArticleRepository,
	notifier RetrainNotifier,
) *Service {
	return &Service{
		interactionRepo: interactionRepo,
		articleRepo:     articleRepo,
		notifier:        notifier,
		now:             time.Now,
	}
}

// Record はインタラクションイベントを記録する。
// アクション種別を検証し、対象記事の存在を確認した上でイベントを追記する。
// 追記後は記事の人気度を再計算し、再学習トリガーへ通知する。
// 人気度の再計算失敗はイベント記録の成功を覆さない（ログのみ）。
func (s *Service) Record(ctx context.Context, userID, articleID, action string, timeSpent *int) error {
	if !model.IsValidAction(action) {
		return model.NewInvalidActionError(action)
	}

	article, err := s.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		return fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return model.NewArticleNotFoundError(articleID)
	}

	event := &model.Interaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		ArticleID: articleID,
		Action:    model.Action(action),
		TimeSpent: timeSpent,
		CreatedAt: s.now(),
	}
	if err := s.interactionRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("インタラクションの記録に失敗しました: %w", err)
	}

	if err := s.recomputePopularity(ctx, articleID); err != nil {
		slog.Warn("人気度の再計算に失敗しました",
			slog.String("article_id", articleID),
			slog.Any("error", err),
		)
	}

	if s.notifier != nil && s.notifier.NotifyInteraction() {
		slog.Info("再学習トリガーがディスパッチを開始しました",
			slog.String("user_id", userID),
		)
	}
	return nil
}

// recomputePopularity は記事の全インタラクション集計から人気度を再計算して保存する。
func (s *Service) recomputePopularity(ctx context.Context, articleID string) error {
	engagement, err := s.interactionRepo.EngagementByArticle(ctx, articleID)
	if err != nil {
		return fmt.Errorf("インタラクション集計の取得に失敗しました: %w", err)
	}
	if err := s.articleRepo.UpdatePopularity(ctx, articleID, engagement.PopularityScore()); err != nil {
		return fmt.Errorf("人気度の更新に失敗しました: %w", err)
	}
	return nil
}
