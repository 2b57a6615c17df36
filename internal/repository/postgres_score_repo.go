package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/VeritasNews/Backend/internal/model"
)

// PostgresScoreRepo はPostgreSQLを使用したスコアレコードリポジトリ。
type PostgresScoreRepo struct {
	db *sql.DB
}

// NewPostgresScoreRepo はPostgresScoreRepoを生成する。
func NewPostgresScoreRepo(db *sql.DB) *PostgresScoreRepo {
	return &PostgresScoreRepo{db: db}
}

// Upsert はスコアレコードを冪等にUPSERTする。
// UNIQUE(user_id, article_id)制約を利用したINSERT ON CONFLICTにより、
// 並行する再計算が同一キーで衝突しても1行に収束する。
func (r *PostgresScoreRepo) Upsert(ctx context.Context, score *model.UserArticleScore) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_article_scores (id, user_id, article_id, score, priority, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, article_id) DO UPDATE SET
		     score = EXCLUDED.score,
		     priority = EXCLUDED.priority,
		     updated_at = EXCLUDED.updated_at`,
		score.ID, score.UserID, score.ArticleID,
		score.Score, string(score.Priority), score.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("スコアレコードのUPSERTに失敗しました: %w", err)
	}
	return nil
}

// ListScoredArticles はユーザーのスコア済み記事をスコア降順で返す。
// 同点は作成日時の新しい順（決定的な第2キー）で並べる。
func (r *PostgresScoreRepo) ListScoredArticles(ctx context.Context, userID, category string, priority model.Priority, limit int) ([]*model.ScoredArticle, error) {
	query := `SELECT a.id, a.title, a.summary, a.longer_summary, a.content, a.category, a.tags,
	    a.source, a.location, a.popularity, a.priority, a.guid_or_id, a.link, a.content_hash,
	    a.created_at, a.updated_at,
	    s.score, s.priority
	 FROM user_article_scores s
	 JOIN articles a ON a.id = s.article_id
	 WHERE s.user_id = $1`
	args := []any{userID}

	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(` AND a.category = $%d`, len(args))
	}
	if priority != "" {
		args = append(args, string(priority))
		query += fmt.Sprintf(` AND s.priority = $%d`, len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY s.score DESC, a.created_at DESC NULLS LAST LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("スコア済み記事の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []*model.ScoredArticle
	for rows.Next() {
		sa := &model.ScoredArticle{}
		var articleCategory, articlePriority, location sql.NullString
		var createdAt sql.NullTime
		var personalizedPriority string

		if err := rows.Scan(
			&sa.ID, &sa.Title, &sa.Summary, &sa.LongerSummary, &sa.Content,
			&articleCategory, pq.Array(&sa.Tags),
			&sa.Source, &location, &sa.Popularity, &articlePriority,
			&sa.GuidOrID, &sa.Link, &sa.ContentHash,
			&createdAt, &sa.UpdatedAt,
			&sa.RelevanceScore, &personalizedPriority,
		); err != nil {
			return nil, fmt.Errorf("スコア行の読み取りに失敗しました: %w", err)
		}

		sa.Category = articleCategory.String
		sa.Location = location.String
		sa.Article.Priority = model.Priority(articlePriority.String)
		sa.PersonalizedPriority = model.Priority(personalizedPriority)
		if createdAt.Valid {
			sa.CreatedAt = &createdAt.Time
		}
		results = append(results, sa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スコア済み記事の走査に失敗しました: %w", err)
	}
	return results, nil
}

// DeleteOrphaned は記事が削除されたスコアレコードを削除し、件数を返す。
func (r *PostgresScoreRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_article_scores s
		 WHERE NOT EXISTS (SELECT 1 FROM articles a WHERE a.id = s.article_id)`,
	)
	if err != nil {
		return 0, fmt.Errorf("孤立スコアレコードの削除に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// DeleteStale は指定時刻より古いスコアレコードを削除し、件数を返す。
func (r *PostgresScoreRepo) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_article_scores WHERE updated_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("古いスコアレコードの削除に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ ScoreRepository = (*PostgresScoreRepo)(nil)
