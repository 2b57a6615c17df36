package ranking

import (
	"time"

	"github.com/VeritasNews/Backend/internal/heuristic"
	"github.com/VeritasNews/Backend/internal/model"
)

// ベーススコアの線形結合の重み。
const (
	weightClassifier = 0.5
	weightHeuristic  = 0.3
	weightRecency    = 0.2
)

// ベーススコアに乗じるブースト係数。互いに独立で、該当すれば同時に合成される。
const (
	breakingBoost   = 2.5
	preferenceBoost = 1.5
	freshBoost      = 1.3

	// freshWindow は掲載直後ブーストの対象期間。
	freshWindow = 6 * time.Hour
)

// Fuse は分類器確率、ヒューリスティックスコア、新しさ減衰を
// 1つの関連度スコアへ融合する。ブースト係数は乗算で合成され、
// 適用順序に依存しない。
func Fuse(classifierProb, heuristicScore float64, user *model.User, article *model.Article, now time.Time) float64 {
	recency := 0.0
	if article.CreatedAt != nil {
		recency = heuristic.RecencyWeight(*article.CreatedAt, "", now)
	}

	score := weightClassifier*classifierProb +
		weightHeuristic*heuristicScore +
		weightRecency*recency

	if article.IsBreaking() {
		score *= breakingBoost
	}
	if user != nil && article.Category != "" && user.PrefersCategory(article.Category) {
		score *= preferenceBoost
	}
	if article.CreatedAt != nil && now.Sub(*article.CreatedAt) < freshWindow {
		score *= freshBoost
	}
	return score
}
