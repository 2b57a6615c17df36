// Package feature は (user, article) ペアの特徴量ベクトル構築を提供する。
// 出力の列順はビルダー側で固定し、分類器アーティファクトのスキーマとの
// 整合（列合わせ）は推論側で明示的に行う。
package feature

import (
	"math"
	"time"

	"github.com/VeritasNews/Backend/internal/model"
)

// アクション種別ごとの重み。オフライン学習パイプラインの特徴量定義と一致させる。
const (
	likeWeight  = 2.0
	clickWeight = 1.5
	viewWeight  = 1.0
	shareWeight = 3.0

	// preferenceBoost は記事カテゴリがユーザーの優先カテゴリに含まれる場合の特徴量値。
	preferenceBoost = 5.0

	// recencyWindowDays は直線的な新しさ特徴量の窓幅（日）。
	recencyWindowDays = 7.0

	// popularityScale は人気度の正規化スケール。min(1, popularity/100)
	popularityScale = 100.0
)

// Vector は名前付きの特徴量ベクトルを表す。
// NamesとValuesは同じ長さで、同一インデックスが対応する。
type Vector struct {
	Names  []string
	Values []float64
}

// Get は指定名の特徴量値を返す。存在しない場合は0とfalseを返す。
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Build は (user, article) ペアと集計済みインタラクションから特徴量ベクトルを構築する。
// statsがnilの場合（未インタラクション記事）、インタラクション由来の特徴量は
// すべて0.0となり、記事フィールド由来の特徴量（recency、popularity等）は計算される。
// 非有限値（NaN、±Inf）はすべて0.0に矯正する。
func Build(user *model.User, article *model.Article, stats *model.InteractionStats, now time.Time) Vector {
	names := make([]string, 0, 9+len(model.Categories)+len(model.Priorities))
	values := make([]float64, 0, cap(names))

	add := func(name string, value float64) {
		names = append(names, name)
		values = append(values, sanitize(value))
	}

	// インタラクション由来の特徴量
	var meanTimeSpent, likes, clicks, views, shares float64
	if stats != nil {
		meanTimeSpent = stats.MeanTimeSpent
		likes = float64(stats.Likes)
		clicks = float64(stats.Clicks)
		views = float64(stats.Views)
		shares = float64(stats.Shares)
	}
	add("time_spent", meanTimeSpent)
	add("like_weight", likes*likeWeight)
	add("click_weight", clicks*clickWeight)
	add("view_weight", views*viewWeight)
	add("share_weight", shares*shareWeight)

	// 記事フィールド由来の特徴量
	add("breaking", boolFeature(article.IsBreaking()))
	add("preference_match", preferenceFeature(user, article))
	add("recency", Recency(article.CreatedAt, now))
	add("popularity", math.Min(1.0, article.Popularity/popularityScale))

	// カテゴリのone-hot展開（固定列挙順）
	for _, c := range model.Categories {
		add("category_"+c, boolFeature(article.Category == c))
	}

	// 優先度のone-hot展開（固定列挙順）
	for _, p := range model.Priorities {
		add("priority_"+string(p), boolFeature(article.Priority == p))
	}

	return Vector{Names: names, Values: values}
}

// Recency は直線的な新しさ特徴量を計算する。
// max(0, 7 - min(7, age_in_days)) / 7 で、当日=1.0、7日以上前=0.0となる。
// 作成日時が欠損している記事は0.0を返す。
func Recency(createdAt *time.Time, now time.Time) float64 {
	if createdAt == nil {
		return 0
	}
	ageDays := now.Sub(*createdAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Max(0, recencyWindowDays-math.Min(recencyWindowDays, ageDays)) / recencyWindowDays
}

// preferenceFeature は優先カテゴリ一致のブースト値を返す。
func preferenceFeature(user *model.User, article *model.Article) float64 {
	if user != nil && article.Category != "" && user.PrefersCategory(article.Category) {
		return preferenceBoost
	}
	return 0
}

// boolFeature はbool値を0/1の特徴量に変換する。
func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// sanitize は非有限値を0.0に矯正する。
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
