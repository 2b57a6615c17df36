// Package model はドメインモデルを定義する。
package model

import "time"

// UserArticleScore は (user, article) ごとにキャッシュされた関連度スコアを表す。
// 優先度バケッターがUPSERTし、フィードエンドポイントが読み取る。
// (user_id, article_id) の一意制約により並行書き込みでも1行に収束する。
type UserArticleScore struct {
	ID        string
	UserID    string
	ArticleID string
	Score     float64
	Priority  Priority
	UpdatedAt time.Time
}

// ScoredArticle は記事とパーソナライズ結果を結合したモデル。
// user_article_scoresテーブルとJOINして取得される。
type ScoredArticle struct {
	Article
	RelevanceScore       float64
	PersonalizedPriority Priority
}
