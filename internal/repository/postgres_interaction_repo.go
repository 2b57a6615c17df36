package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/VeritasNews/Backend/internal/model"
)

// PostgresInteractionRepo はPostgreSQLを使用したインタラクションリポジトリ。
// interactionsテーブルは追記専用であり、更新・削除は提供しない。
type PostgresInteractionRepo struct {
	db *sql.DB
}

// NewPostgresInteractionRepo はPostgresInteractionRepoを生成する。
func NewPostgresInteractionRepo(db *sql.DB) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{db: db}
}

// Create はインタラクションイベントを追記する。
func (r *PostgresInteractionRepo) Create(ctx context.Context, interaction *model.Interaction) error {
	var timeSpent sql.NullInt64
	if interaction.TimeSpent != nil {
		timeSpent = sql.NullInt64{Int64: int64(*interaction.TimeSpent), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interactions (id, user_id, article_id, action, time_spent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		interaction.ID, interaction.UserID, interaction.ArticleID,
		string(interaction.Action), timeSpent, interaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("インタラクションの記録に失敗しました: %w", err)
	}
	return nil
}

// StatsByUser は指定ユーザーの記事ごとのインタラクション集計を返す。
// time_spentの平均と、アクション種別ごとの件数を1クエリで集計する。
func (r *PostgresInteractionRepo) StatsByUser(ctx context.Context, userID string) (map[string]*model.InteractionStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT article_id,
		    COALESCE(AVG(time_spent), 0),
		    COUNT(*) FILTER (WHERE action = 'view'),
		    COUNT(*) FILTER (WHERE action = 'click'),
		    COUNT(*) FILTER (WHERE action = 'like'),
		    COUNT(*) FILTER (WHERE action = 'share')
		 FROM interactions
		 WHERE user_id = $1
		 GROUP BY article_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("インタラクション集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*model.InteractionStats)
	for rows.Next() {
		s := &model.InteractionStats{UserID: userID}
		if err := rows.Scan(&s.ArticleID, &s.MeanTimeSpent,
			&s.Views, &s.Clicks, &s.Likes, &s.Shares); err != nil {
			return nil, fmt.Errorf("集計行の読み取りに失敗しました: %w", err)
		}
		stats[s.ArticleID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計の走査に失敗しました: %w", err)
	}
	return stats, nil
}

// EngagementByArticle は記事単位のインタラクション集計を返す。
// インタラクションが存在しない場合もゼロ値の集計を返す。
func (r *PostgresInteractionRepo) EngagementByArticle(ctx context.Context, articleID string) (*model.ArticleEngagement, error) {
	e := &model.ArticleEngagement{ArticleID: articleID}
	err := r.db.QueryRowContext(ctx,
		`SELECT
		    COUNT(*) FILTER (WHERE action = 'view'),
		    COUNT(*) FILTER (WHERE action = 'click'),
		    COUNT(*) FILTER (WHERE action = 'like'),
		    COUNT(*) FILTER (WHERE action = 'share')
		 FROM interactions
		 WHERE article_id = $1`,
		articleID,
	).Scan(&e.Views, &e.Clicks, &e.Likes, &e.Shares)
	if err != nil {
		return nil, fmt.Errorf("エンゲージメント集計の取得に失敗しました: %w", err)
	}
	return e, nil
}

// EngagementByArticles は複数記事のインタラクション集計を1クエリで返す。
// 再スコアリングワーカーが候補記事一式をまとめて集計するために使用する。
func (r *PostgresInteractionRepo) EngagementByArticles(ctx context.Context, articleIDs []string) (map[string]*model.ArticleEngagement, error) {
	result := make(map[string]*model.ArticleEngagement)
	if len(articleIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT article_id,
		    COUNT(*) FILTER (WHERE action = 'view'),
		    COUNT(*) FILTER (WHERE action = 'click'),
		    COUNT(*) FILTER (WHERE action = 'like'),
		    COUNT(*) FILTER (WHERE action = 'share')
		 FROM interactions
		 WHERE article_id = ANY($1)
		 GROUP BY article_id`,
		pq.Array(articleIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("エンゲージメント一括集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e := &model.ArticleEngagement{}
		if err := rows.Scan(&e.ArticleID, &e.Views, &e.Clicks, &e.Likes, &e.Shares); err != nil {
			return nil, fmt.Errorf("エンゲージメント行の読み取りに失敗しました: %w", err)
		}
		result[e.ArticleID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("エンゲージメント集計の走査に失敗しました: %w", err)
	}
	return result, nil
}

// ListActiveUserIDs は指定時刻以降にインタラクションを記録したユーザーIDの一覧を返す。
func (r *PostgresInteractionRepo) ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM interactions WHERE created_at >= $1`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("アクティブユーザーの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ユーザー行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アクティブユーザーの走査に失敗しました: %w", err)
	}
	return ids, nil
}

// compile-time interface check
var _ InteractionRepository = (*PostgresInteractionRepo)(nil)
