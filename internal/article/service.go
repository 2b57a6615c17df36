// Package article は記事カタログ管理のドメインロジックを提供する。
package article

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/repository"
	"github.com/VeritasNews/Backend/internal/security"
)

// DefaultListLimit は記事一覧のデフォルト取得件数。
const DefaultListLimit = 50

// Service は記事カタログのサービス層。
type Service struct {
	articleRepo repository.ArticleRepository
	sanitizer   security.ContentSanitizerService
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(articleRepo repository.ArticleRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		articleRepo: articleRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// List はカテゴリフィルタ付きの記事一覧を新しい順に返す。
func (s *Service) List(ctx context.Context, category string, limit int) ([]*model.Article, error) {
	if category != "" && !model.IsValidCategory(category) {
		return nil, model.NewInvalidCategoryError(category)
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	articles, err := s.articleRepo.List(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	return articles, nil
}

// Get は指定IDの記事を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return nil, model.NewArticleNotFoundError(id)
	}
	return article, nil
}

// CreateInput はバッチ取り込みAPIの1記事分の入力。
type CreateInput struct {
	Title         string
	Summary       string
	LongerSummary string
	Content       string
	Category      string
	Tags          []string
	Source        string
	Location      string
	Priority      string
	CreatedAt     *time.Time
}

// CreateBatch は記事をまとめて取り込む。
// カテゴリと優先度を検証し、HTMLコンテンツをサニタイズした上で保存する。
// 優先度"most"の記事は、既存の速報保持記事をリポジトリ層の
// トランザクションで"high"へ降格してから挿入される。
// いずれかの記事が不正な場合はバッチ全体を拒否する。
func (s *Service) CreateBatch(ctx context.Context, inputs []CreateInput) ([]*model.Article, error) {
	if len(inputs) == 0 {
		return nil, model.NewInvalidRequestError("記事が1件も含まれていません")
	}

	articles := make([]*model.Article, 0, len(inputs))
	now := s.now()
	for _, in := range inputs {
		if in.Title == "" {
			return nil, model.NewInvalidRequestError("タイトルは必須です")
		}
		if in.Category != "" && !model.IsValidCategory(in.Category) {
			return nil, model.NewInvalidCategoryError(in.Category)
		}
		priority := model.PriorityLow
		if in.Priority != "" {
			if !model.IsValidPriority(in.Priority) {
				return nil, model.NewInvalidPriorityError(in.Priority)
			}
			priority = model.Priority(in.Priority)
		}

		createdAt := in.CreatedAt
		if createdAt == nil {
			createdAt = &now
		}
		articles = append(articles, &model.Article{
			ID:            uuid.NewString(),
			Title:         in.Title,
			Summary:       s.sanitizer.Sanitize(in.Summary),
			LongerSummary: s.sanitizer.Sanitize(in.LongerSummary),
			Content:       s.sanitizer.Sanitize(in.Content),
			Category:      in.Category,
			Tags:          in.Tags,
			Source:        in.Source,
			Location:      in.Location,
			Priority:      priority,
			CreatedAt:     createdAt,
			UpdatedAt:     now,
		})
	}

	for _, a := range articles {
		if err := s.articleRepo.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("記事の作成に失敗しました: %w", err)
		}
	}

	slog.Info("記事バッチを取り込みました", slog.Int("count", len(articles)))
	return articles, nil
}
