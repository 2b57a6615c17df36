// Package model はドメインモデルを定義する。
package model

import "time"

// NewsSource は記事の取り込み元（RSS/Atomフィード）を表す。
// weightはヒューリスティックスコアラーの情報源評価にも使用される。
type NewsSource struct {
	ID            string
	Name          string
	FeedURL       string
	Category      string // このフィードの記事に付与するカテゴリ
	Weight        float64
	LastFetchedAt *time.Time
	CreatedAt     time.Time
}
