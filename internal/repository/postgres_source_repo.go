package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/VeritasNews/Backend/internal/model"
)

// PostgresSourceRepo はPostgreSQLを使用した取り込み元リポジトリ。
type PostgresSourceRepo struct {
	db *sql.DB
}

// NewPostgresSourceRepo はPostgresSourceRepoを生成する。
func NewPostgresSourceRepo(db *sql.DB) *PostgresSourceRepo {
	return &PostgresSourceRepo{db: db}
}

// List は登録済みの取り込み元一覧を返す。
func (r *PostgresSourceRepo) List(ctx context.Context) ([]*model.NewsSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, feed_url, category, weight, last_fetched_at, created_at
		 FROM news_sources ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("取り込み元一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sources []*model.NewsSource
	for rows.Next() {
		s := &model.NewsSource{}
		var category sql.NullString
		var lastFetched sql.NullTime
		if err := rows.Scan(&s.ID, &s.Name, &s.FeedURL, &category,
			&s.Weight, &lastFetched, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("取り込み元行の読み取りに失敗しました: %w", err)
		}
		s.Category = category.String
		if lastFetched.Valid {
			s.LastFetchedAt = &lastFetched.Time
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("取り込み元一覧の走査に失敗しました: %w", err)
	}
	return sources, nil
}

// UpdateLastFetched は取り込み元の最終フェッチ日時を更新する。
func (r *PostgresSourceRepo) UpdateLastFetched(ctx context.Context, sourceID string, fetchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE news_sources SET last_fetched_at = $2 WHERE id = $1`,
		sourceID, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("最終フェッチ日時の更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SourceRepository = (*PostgresSourceRepo)(nil)
