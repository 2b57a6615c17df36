// Package feed はパーソナライズドフィード取得のドメインロジックを提供する。
package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/repository"
)

// FallbackLimit はスコア未計算ユーザーへの時系列フォールバックの件数上限。
const FallbackLimit = 20

// DefaultLimit はスコア済みフィードのデフォルト取得件数。
const DefaultLimit = 100

// Service はフィード取得のサービス層。
// スコアキャッシュを読み、未スコアのユーザーには時系列フォールバックを返す。
type Service struct {
	scoreRepo   repository.ScoreRepository
	articleRepo repository.ArticleRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(scoreRepo repository.ScoreRepository, articleRepo repository.ArticleRepository) *Service {
	return &Service{
		scoreRepo:   scoreRepo,
		articleRepo: articleRepo,
	}
}

// GetFeed はユーザーのパーソナライズドフィードを返す。
// スコア降順（同点は作成日時の新しい順）で、category・priorityの
// フィルタを適用する。スコアレコードが1件もないユーザーには
// 新着順の記事（最大20件）をフォールバックとして返す。
// 戻り値は常に非nilのスライスで、記事が存在しなければ空となる。
func (s *Service) GetFeed(ctx context.Context, userID, category, priority string) ([]*model.ScoredArticle, error) {
	if category != "" && !model.IsValidCategory(category) {
		return nil, model.NewInvalidCategoryError(category)
	}
	if priority != "" && !model.IsValidPriority(priority) {
		return nil, model.NewInvalidPriorityError(priority)
	}

	scored, err := s.scoreRepo.ListScoredArticles(ctx, userID, category, model.Priority(priority), DefaultLimit)
	if err != nil {
		return nil, fmt.Errorf("スコア済みフィードの取得に失敗しました: %w", err)
	}
	if len(scored) > 0 {
		return scored, nil
	}

	// フィルタなしでもスコアが存在しないか確認してからフォールバックする。
	// フィルタで0件になっただけのユーザーに時系列を返さないため。
	if category != "" || priority != "" {
		any, err := s.scoreRepo.ListScoredArticles(ctx, userID, "", "", 1)
		if err != nil {
			return nil, fmt.Errorf("スコアレコードの確認に失敗しました: %w", err)
		}
		if len(any) > 0 {
			return []*model.ScoredArticle{}, nil
		}
	}

	slog.Debug("スコア未計算ユーザーに時系列フォールバックを返します",
		slog.String("user_id", userID),
	)
	return s.chronologicalFallback(ctx, category)
}

// chronologicalFallback は新着順の記事を既存の優先度ラベル付きで返す。
// スコアは未計算のため0.0となる。
func (s *Service) chronologicalFallback(ctx context.Context, category string) ([]*model.ScoredArticle, error) {
	var (
		articles []*model.Article
		err      error
	)
	if category != "" {
		articles, err = s.articleRepo.List(ctx, category, FallbackLimit)
	} else {
		articles, err = s.articleRepo.ListRecent(ctx, FallbackLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("時系列フォールバックの取得に失敗しました: %w", err)
	}

	out := make([]*model.ScoredArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, &model.ScoredArticle{
			Article:              *a,
			RelevanceScore:       0,
			PersonalizedPriority: a.Priority,
		})
	}
	return out, nil
}
