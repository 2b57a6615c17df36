package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/VeritasNews/Backend/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// articleColumns はSELECT句で使用する列の並び。scanArticleと対応する。
const articleColumns = `id, title, summary, longer_summary, content, category, tags,
	source, location, popularity, priority, guid_or_id, link, content_hash,
	created_at, updated_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanArticle は1行を読み取りArticleに変換する。
func scanArticle(row rowScanner) (*model.Article, error) {
	a := &model.Article{}
	var category, priority, location sql.NullString
	var createdAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.Title, &a.Summary, &a.LongerSummary, &a.Content,
		&category, pq.Array(&a.Tags),
		&a.Source, &location, &a.Popularity, &priority,
		&a.GuidOrID, &a.Link, &a.ContentHash,
		&createdAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Category = category.String
	a.Location = location.String
	a.Priority = model.Priority(priority.String)
	if createdAt.Valid {
		a.CreatedAt = &createdAt.Time
	}

	return a, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return article, nil
}

// FindBySourceAndGUID はsourceとguid_or_idで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindBySourceAndGUID(ctx context.Context, source, guid string) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE source = $1 AND guid_or_id = $2`,
		source, guid)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の検索に失敗しました: %w", err)
	}
	return article, nil
}

// FindBySourceAndLink はsourceとlinkで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindBySourceAndLink(ctx context.Context, source, link string) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE source = $1 AND link = $2`,
		source, link)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の検索に失敗しました: %w", err)
	}
	return article, nil
}

// FindByContentHash はsourceとcontent_hashで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByContentHash(ctx context.Context, source, contentHash string) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE source = $1 AND content_hash = $2`,
		source, contentHash)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の検索に失敗しました: %w", err)
	}
	return article, nil
}

// List はカテゴリフィルタ付きで記事一覧を新しい順に返す。
func (r *PostgresArticleRepo) List(ctx context.Context, category string, limit int) ([]*model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC NULLS LAST LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// ListRecent は作成日時の新しい順に記事を返す（作成日時NULLは末尾）。
func (r *PostgresArticleRepo) ListRecent(ctx context.Context, limit int) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 ORDER BY created_at DESC NULLS LAST LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// collectArticles はrowsを読み切ってArticleスライスに変換する。
func collectArticles(rows *sql.Rows) ([]*model.Article, error) {
	var articles []*model.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("記事行の読み取りに失敗しました: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}
	return articles, nil
}

// Create は記事を作成する。
// priorityが"most"の場合、同一トランザクション内で既存の"most"保持記事を
// "high"に降格してから挿入する。速報フラグは全記事中で同時に1件のみ。
func (r *PostgresArticleRepo) Create(ctx context.Context, article *model.Article) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if article.Priority == model.PriorityMost {
		// 既存の"most"保持記事を"high"に降格してから挿入する
		if _, err := tx.ExecContext(ctx,
			`UPDATE articles SET priority = $1, updated_at = now() WHERE priority = $2`,
			model.PriorityHigh, model.PriorityMost,
		); err != nil {
			return fmt.Errorf("速報記事の降格に失敗しました: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO articles (id, title, summary, longer_summary, content, category, tags,
		    source, location, popularity, priority, guid_or_id, link, content_hash,
		    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		article.ID, article.Title, article.Summary, article.LongerSummary, article.Content,
		nullString(article.Category), pq.Array(article.Tags),
		article.Source, nullString(article.Location), article.Popularity,
		nullString(string(article.Priority)),
		article.GuidOrID, article.Link, article.ContentHash,
		nullTime(article.CreatedAt), article.UpdatedAt,
	); err != nil {
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update は既存記事を上書き更新する。履歴は保持しない。
func (r *PostgresArticleRepo) Update(ctx context.Context, article *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET
		    title = $2, summary = $3, longer_summary = $4, content = $5,
		    category = $6, tags = $7, location = $8,
		    guid_or_id = $9, link = $10, content_hash = $11,
		    created_at = $12, updated_at = $13
		 WHERE id = $1`,
		article.ID, article.Title, article.Summary, article.LongerSummary, article.Content,
		nullString(article.Category), pq.Array(article.Tags), nullString(article.Location),
		article.GuidOrID, article.Link, article.ContentHash,
		nullTime(article.CreatedAt), article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	return nil
}

// UpdatePopularity は記事の人気度カウンタを更新する。
func (r *PostgresArticleRepo) UpdatePopularity(ctx context.Context, articleID string, popularity float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET popularity = $2, updated_at = now() WHERE id = $1`,
		articleID, popularity,
	)
	if err != nil {
		return fmt.Errorf("人気度の更新に失敗しました: %w", err)
	}
	return nil
}

// FindBreaking は現在速報フラグを保持する記事を返す。存在しない場合はnilを返す。
func (r *PostgresArticleRepo) FindBreaking(ctx context.Context) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE priority = $1`,
		model.PriorityMost)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("速報記事の取得に失敗しました: %w", err)
	}
	return article, nil
}

// nullString は空文字をNULLに変換する。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTime はnilをNULLに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
