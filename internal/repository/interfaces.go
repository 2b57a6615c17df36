// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/VeritasNews/Backend/internal/model"
)

// ArticleRepository は記事データの永続化インターフェース。
// 取り込み時の同一性判定（3段階の優先順位）と速報フラグの単一性維持を提供する。
type ArticleRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)

	// FindBySourceAndGUID はsourceとguid_or_idで記事を検索する。
	// 同一性判定の最優先手段。見つからない場合はnilを返す。
	FindBySourceAndGUID(ctx context.Context, source, guid string) (*model.Article, error)

	// FindBySourceAndLink はsourceとlinkで記事を検索する。
	// 同一性判定の第2優先手段。見つからない場合はnilを返す。
	FindBySourceAndLink(ctx context.Context, source, link string) (*model.Article, error)

	// FindByContentHash はsourceとcontent_hashで記事を検索する。
	// 同一性判定の第3優先手段。見つからない場合はnilを返す。
	FindByContentHash(ctx context.Context, source, contentHash string) (*model.Article, error)

	// List はカテゴリフィルタ付きで記事一覧を新しい順に返す。
	// categoryが空文字の場合は全カテゴリを対象とする。
	List(ctx context.Context, category string, limit int) ([]*model.Article, error)

	// ListRecent は作成日時の新しい順に記事を返す（作成日時NULLは末尾）。
	// スコアリング対象の候補取得とフィードの時系列フォールバックに使用する。
	ListRecent(ctx context.Context, limit int) ([]*model.Article, error)

	// Create は記事を作成する。
	// priorityが"most"の場合、同一トランザクション内で既存の"most"保持記事を
	// "high"に降格してから挿入する（速報フラグの単一性不変条件）。
	Create(ctx context.Context, article *model.Article) error

	// Update は既存記事を上書き更新する。履歴は保持しない。
	Update(ctx context.Context, article *model.Article) error

	// UpdatePopularity は記事の人気度カウンタを更新する。
	UpdatePopularity(ctx context.Context, articleID string, popularity float64) error

	// FindBreaking は現在グローバル速報フラグ（priority='most'）を保持する
	// 記事を返す。存在しない場合はnilを返す。
	FindBreaking(ctx context.Context) (*model.Article, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdatePreferredCategories はユーザーの優先カテゴリを更新する。
	UpdatePreferredCategories(ctx context.Context, userID string, categories []string) error
}

// FriendshipRepository は対称な友人関係の永続化インターフェース。
// (user_a < user_b) の正規順で1行のみ保存し、対称性は読み取り時に展開する。
type FriendshipRepository interface {
	// Add は友人関係を冪等に追加する。ペアは正規順に並べ替えて保存する。
	Add(ctx context.Context, userID, friendID string) error

	// ListFriendIDs は指定ユーザーの友人ID一覧を返す。
	// 正規ペアの両方向を検索して展開する。
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
}

// LikeRepository はユーザーのいいね済み記事集合の永続化インターフェース。
type LikeRepository interface {
	// Like はいいねを冪等に追加する。
	Like(ctx context.Context, userID, articleID string) error

	// Unlike はいいねを削除する。
	Unlike(ctx context.Context, userID, articleID string) error

	// ListLikedArticles はユーザーがいいねした記事一覧を新しい順に返す。
	ListLikedArticles(ctx context.Context, userID string) ([]*model.Article, error)
}

// InteractionRepository はインタラクションイベントの永続化インターフェース。
// テーブルは追記専用であり、更新・削除は提供しない。
type InteractionRepository interface {
	// Create はインタラクションイベントを追記する。
	Create(ctx context.Context, interaction *model.Interaction) error

	// StatsByUser は指定ユーザーの記事ごとのインタラクション集計を返す。
	// 特徴量ビルダーの入力となる。キーは記事ID。
	StatsByUser(ctx context.Context, userID string) (map[string]*model.InteractionStats, error)

	// EngagementByArticle は記事単位のインタラクション集計を返す。
	// インタラクションが存在しない場合もゼロ値の集計を返す。
	EngagementByArticle(ctx context.Context, articleID string) (*model.ArticleEngagement, error)

	// EngagementByArticles は複数記事のインタラクション集計を1クエリで返す。
	// キーは記事ID。インタラクションのない記事はマップに含まれない。
	EngagementByArticles(ctx context.Context, articleIDs []string) (map[string]*model.ArticleEngagement, error)

	// ListActiveUserIDs は指定時刻以降にインタラクションを記録した
	// ユーザーIDの一覧を返す。再スコアリングワーカーの対象選定に使用する。
	ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error)
}

// ScoreRepository はキャッシュ済みスコアレコードの永続化インターフェース。
type ScoreRepository interface {
	// Upsert はスコアレコードを冪等にUPSERTする。
	// UNIQUE(user_id, article_id)制約を利用したINSERT ON CONFLICTで実装し、
	// 並行書き込みでも同一キーが複数行にならないことを保証する。
	Upsert(ctx context.Context, score *model.UserArticleScore) error

	// ListScoredArticles はユーザーのスコア済み記事をスコア降順
	// （同点は作成日時の新しい順）で返す。category・priorityが空文字の
	// 場合はフィルタしない。スコアレコードが存在しない場合は空を返す。
	ListScoredArticles(ctx context.Context, userID, category string, priority model.Priority, limit int) ([]*model.ScoredArticle, error)

	// DeleteOrphaned は記事が削除されたスコアレコードを削除し、件数を返す。
	DeleteOrphaned(ctx context.Context) (int64, error)

	// DeleteStale は指定時刻より古いスコアレコードを削除し、件数を返す。
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// SourceRepository はニュース取り込み元の永続化インターフェース。
type SourceRepository interface {
	// List は登録済みの取り込み元一覧を返す。
	List(ctx context.Context) ([]*model.NewsSource, error)

	// UpdateLastFetched は取り込み元の最終フェッチ日時を更新する。
	UpdateLastFetched(ctx context.Context, sourceID string, fetchedAt time.Time) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
