// Package model はドメインモデルを定義する。
package model

import "time"

// Action はインタラクションの種別を表す。
type Action string

const (
	// ActionView は記事の閲覧を示す。
	ActionView Action = "view"
	// ActionClick は記事のクリック（詳細表示）を示す。
	ActionClick Action = "click"
	// ActionLike は記事へのいいねを示す。
	ActionLike Action = "like"
	// ActionShare は記事のシェアを示す。
	ActionShare Action = "share"
)

// IsValidAction はアクション種別が列挙に含まれるか検証する。
func IsValidAction(a string) bool {
	switch Action(a) {
	case ActionView, ActionClick, ActionLike, ActionShare:
		return true
	default:
		return false
	}
}

// Interaction はユーザーと記事を結ぶ不変のイベントレコードを表す。
// 追記専用であり、集計特徴量のすべての源泉となる。
type Interaction struct {
	ID        string
	UserID    string
	ArticleID string
	Action    Action
	TimeSpent *int // 秒。view以外では通常nil
	CreatedAt time.Time
}

// InteractionStats は (user, article) ごとのインタラクション集計を表す。
// 特徴量ビルダーの入力となる。
type InteractionStats struct {
	UserID        string
	ArticleID     string
	MeanTimeSpent float64 // time_spentの平均（記録がなければ0）
	Views         int
	Clicks        int
	Likes         int
	Shares        int
}

// ArticleEngagement は記事単位のインタラクション集計を表す。
// 人気度の再計算とヒューリスティックのエンゲージメント項に使用する。
type ArticleEngagement struct {
	ArticleID string
	Views     int
	Clicks    int
	Likes     int
	Shares    int
}

// PopularityScore は固定重み付きの人気度を計算する。
// views + 2*likes + 1.5*clicks + 3*shares
func (e ArticleEngagement) PopularityScore() float64 {
	return float64(e.Views) + 2*float64(e.Likes) + 1.5*float64(e.Clicks) + 3*float64(e.Shares)
}
