package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/VeritasNews/Backend/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, preferred_categories, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Name, &user.Email, pq.Array(&user.PreferredCategories),
		&user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, preferred_categories, created_at, updated_at
		 FROM users WHERE email = $1`, email,
	).Scan(&user.ID, &user.Name, &user.Email, pq.Array(&user.PreferredCategories),
		&user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, preferred_categories, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, pq.Array(user.PreferredCategories),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdatePreferredCategories はユーザーの優先カテゴリを更新する。
func (r *PostgresUserRepo) UpdatePreferredCategories(ctx context.Context, userID string, categories []string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET preferred_categories = $2, updated_at = now() WHERE id = $1`,
		userID, pq.Array(categories),
	)
	if err != nil {
		return fmt.Errorf("優先カテゴリの更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)

// PostgresFriendshipRepo はPostgreSQLを使用した友人関係リポジトリ。
// (user_a < user_b) の正規順で1行のみ保存する。
type PostgresFriendshipRepo struct {
	db *sql.DB
}

// NewPostgresFriendshipRepo はPostgresFriendshipRepoを生成する。
func NewPostgresFriendshipRepo(db *sql.DB) *PostgresFriendshipRepo {
	return &PostgresFriendshipRepo{db: db}
}

// Add は友人関係を冪等に追加する。ペアは正規順に並べ替えて保存するため、
// どちらの方向から追加しても同一行に収束する。
func (r *PostgresFriendshipRepo) Add(ctx context.Context, userID, friendID string) error {
	a, b := model.CanonicalPair(userID, friendID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friendships (user_a, user_b, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_a, user_b) DO NOTHING`,
		a, b,
	)
	if err != nil {
		return fmt.Errorf("友人関係の追加に失敗しました: %w", err)
	}
	return nil
}

// ListFriendIDs は指定ユーザーの友人ID一覧を返す。
// 正規ペアの両方向を検索して対称性を展開する。
func (r *PostgresFriendshipRepo) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
		 FROM friendships WHERE user_a = $1 OR user_b = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("友人一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("友人行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("友人一覧の走査に失敗しました: %w", err)
	}
	return ids, nil
}

// compile-time interface check
var _ FriendshipRepository = (*PostgresFriendshipRepo)(nil)

// PostgresLikeRepo はPostgreSQLを使用したいいねリポジトリ。
type PostgresLikeRepo struct {
	db *sql.DB
}

// NewPostgresLikeRepo はPostgresLikeRepoを生成する。
func NewPostgresLikeRepo(db *sql.DB) *PostgresLikeRepo {
	return &PostgresLikeRepo{db: db}
}

// Like はいいねを冪等に追加する。
func (r *PostgresLikeRepo) Like(ctx context.Context, userID, articleID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO article_likes (user_id, article_id, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, article_id) DO NOTHING`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("いいねの追加に失敗しました: %w", err)
	}
	return nil
}

// Unlike はいいねを削除する。
func (r *PostgresLikeRepo) Unlike(ctx context.Context, userID, articleID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM article_likes WHERE user_id = $1 AND article_id = $2`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("いいねの削除に失敗しました: %w", err)
	}
	return nil
}

// ListLikedArticles はユーザーがいいねした記事一覧を新しい順に返す。
func (r *PostgresLikeRepo) ListLikedArticles(ctx context.Context, userID string) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.title, a.summary, a.longer_summary, a.content, a.category, a.tags,
		    a.source, a.location, a.popularity, a.priority, a.guid_or_id, a.link, a.content_hash,
		    a.created_at, a.updated_at
		 FROM articles a
		 JOIN article_likes l ON l.article_id = a.id
		 WHERE l.user_id = $1
		 ORDER BY l.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("いいね済み記事の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// compile-time interface check
var _ LikeRepository = (*PostgresLikeRepo)(nil)
