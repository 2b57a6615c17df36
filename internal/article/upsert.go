package article

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/repository"
	"github.com/VeritasNews/Backend/internal/security"
)

// UpsertService はフィード取り込み記事の同一性判定とUPSERT処理を提供する。
// 3段階の同一性判定ロジックにより、重複登録を防ぎつつ既存記事の上書き更新を行う。
type UpsertService struct {
	articleRepo repository.ArticleRepository
	sanitizer   security.ContentSanitizerService
}

// NewUpsertService はUpsertServiceの新しいインスタンスを生成する。
func NewUpsertService(
	articleRepo repository.ArticleRepository,
	sanitizer security.ContentSanitizerService,
) *UpsertService {
	return &UpsertService{
		articleRepo: articleRepo,
		sanitizer:   sanitizer,
	}
}

// UpsertArticles はフィードから取得した記事をUPSERTする。
// 3段階の同一性判定ロジック:
//  1. (source, guid_or_id) - 最優先
//  2. (source, link) - 第2優先
//  3. hash(title + published + summary) - 第3優先
//
// 戻り値は挿入数、更新数、エラー。
func (s *UpsertService) UpsertArticles(
	ctx context.Context,
	source string,
	parsed []model.ParsedArticle,
) (inserted int, updated int, err error) {
	if len(parsed) == 0 {
		return 0, 0, nil
	}

	now := time.Now()

	for _, p := range parsed {
		sanitizedContent := s.sanitizer.Sanitize(p.Content)
		sanitizedSummary := s.sanitizer.Sanitize(p.Summary)

		// content_hashはサニタイズ後のサマリーから計算する
		contentHash := computeContentHash(p.Title, p.PublishedAt, sanitizedSummary)

		existing, findErr := s.findExisting(ctx, source, p, contentHash)
		if findErr != nil {
			slog.Error("記事の同一性判定でエラー",
				"source", source,
				"guid_or_id", p.GuidOrID,
				"error", findErr,
			)
			return inserted, updated, fmt.Errorf("記事の同一性判定に失敗: %w", findErr)
		}

		if existing != nil {
			if updateErr := s.updateExisting(ctx, existing, p, sanitizedContent, sanitizedSummary, contentHash, now); updateErr != nil {
				slog.Error("記事の更新でエラー",
					"source", source,
					"article_id", existing.ID,
					"error", updateErr,
				)
				return inserted, updated, fmt.Errorf("記事の更新に失敗: %w", updateErr)
			}
			updated++
		} else {
			if createErr := s.createNew(ctx, source, p, sanitizedContent, sanitizedSummary, contentHash, now); createErr != nil {
				slog.Error("記事の挿入でエラー",
					"source", source,
					"guid_or_id", p.GuidOrID,
					"error", createErr,
				)
				return inserted, updated, fmt.Errorf("記事の挿入に失敗: %w", createErr)
			}
			inserted++
		}
	}

	slog.Info("記事UPSERT完了",
		"source", source,
		"inserted", inserted,
		"updated", updated,
	)

	return inserted, updated, nil
}

// findExisting は3段階の同一性判定で既存記事を検索する。
// 優先順位: (source, guid_or_id) > (source, link) > hash(title+published+summary)
func (s *UpsertService) findExisting(
	ctx context.Context,
	source string,
	parsed model.ParsedArticle,
	contentHash string,
) (*model.Article, error) {
	if parsed.GuidOrID != "" {
		article, err := s.articleRepo.FindBySourceAndGUID(ctx, source, parsed.GuidOrID)
		if err != nil {
			return nil, err
		}
		if article != nil {
			return article, nil
		}
	}

	if parsed.Link != "" {
		article, err := s.articleRepo.FindBySourceAndLink(ctx, source, parsed.Link)
		if err != nil {
			return nil, err
		}
		if article != nil {
			return article, nil
		}
	}

	if contentHash != "" {
		article, err := s.articleRepo.FindByContentHash(ctx, source, contentHash)
		if err != nil {
			return nil, err
		}
		if article != nil {
			return article, nil
		}
	}

	return nil, nil
}

// updateExisting は既存記事を上書き更新する。履歴は保持しない。
// 優先度と人気度は取り込みでは変更しない（エンジン側の責務）。
func (s *UpsertService) updateExisting(
	ctx context.Context,
	existing *model.Article,
	parsed model.ParsedArticle,
	sanitizedContent, sanitizedSummary, contentHash string,
	now time.Time,
) error {
	existing.GuidOrID = parsed.GuidOrID
	existing.Title = parsed.Title
	existing.Link = parsed.Link
	existing.Content = sanitizedContent
	existing.Summary = sanitizedSummary
	existing.ContentHash = contentHash
	existing.UpdatedAt = now
	if parsed.Category != "" && model.IsValidCategory(parsed.Category) {
		existing.Category = parsed.Category
	}
	// 既存記事の更新時、parsed.PublishedAtがnilの場合は既存の値を維持
	if parsed.PublishedAt != nil {
		existing.CreatedAt = parsed.PublishedAt
	}

	return s.articleRepo.Update(ctx, existing)
}

// createNew は新規記事を作成する。
// 公開日時が未設定の場合は取り込み時刻を代用する。優先度は"low"から始まり、
// 以後の格付けはエンジンに委ねる。
func (s *UpsertService) createNew(
	ctx context.Context,
	source string,
	parsed model.ParsedArticle,
	sanitizedContent, sanitizedSummary, contentHash string,
	now time.Time,
) error {
	category := ""
	if model.IsValidCategory(parsed.Category) {
		category = parsed.Category
	}
	article := &model.Article{
		ID:          uuid.New().String(),
		GuidOrID:    parsed.GuidOrID,
		Title:       parsed.Title,
		Link:        parsed.Link,
		Content:     sanitizedContent,
		Summary:     sanitizedSummary,
		Category:    category,
		Source:      source,
		Priority:    model.PriorityLow,
		ContentHash: contentHash,
		CreatedAt:   &now,
		UpdatedAt:   now,
	}
	if parsed.PublishedAt != nil {
		article.CreatedAt = parsed.PublishedAt
	}

	return s.articleRepo.Create(ctx, article)
}

// computeContentHash はtitle + published + summaryのSHA-256ハッシュを計算する。
// 同一性判定の第3優先手段として使用される。
func computeContentHash(title string, publishedAt *time.Time, summary string) string {
	pubStr := ""
	if publishedAt != nil {
		pubStr = publishedAt.UTC().Format(time.RFC3339)
	}
	data := fmt.Sprintf("%s|%s|%s", title, pubStr, summary)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
