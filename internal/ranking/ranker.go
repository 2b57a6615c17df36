// Package ranking はヒューリスティックランキングの能力インタフェースと
// スコア融合を提供する。ランカーはプロセス内実装とリモートサービス実装を
// 差し替え可能で、融合ロジック自体はネットワークに依存しない。
package ranking

import (
	"context"

	"github.com/VeritasNews/Backend/internal/heuristic"
)

// NeutralScore はランカー不達時に呼び出し側が代入する中立スコア。
const NeutralScore = 0.5

// Ranker は記事バッチのヒューリスティックスコアを計算する。
// 戻り値は記事ID→スコアのマップ。バッチ全体の失敗は空マップで表現し、
// エラーは返さない（呼び出し側が中立値で代替する）。
type Ranker interface {
	Rank(ctx context.Context, articles []heuristic.Input, genre, country string) map[string]float64
}

// LocalRanker はプロセス内のヒューリスティックスコアラーによるRanker実装。
type LocalRanker struct {
	scorer   *heuristic.Scorer
	trending heuristic.TrendingSource
}

// NewLocalRanker はLocalRankerを生成する。trendingはnil可。
func NewLocalRanker(scorer *heuristic.Scorer, trending heuristic.TrendingSource) *LocalRanker {
	return &LocalRanker{scorer: scorer, trending: trending}
}

// Rank はバッチ内の各記事をスコアリングする。トレンド見出しは
// バッチごとに1回だけ取得する。
func (r *LocalRanker) Rank(ctx context.Context, articles []heuristic.Input, genre, country string) map[string]float64 {
	var headlines []string
	if r.trending != nil {
		headlines = r.trending.Headlines(ctx)
	}
	scores := make(map[string]float64, len(articles))
	for _, a := range articles {
		scores[a.ID] = r.scorer.Score(a, genre, headlines)
	}
	return scores
}

var _ Ranker = (*LocalRanker)(nil)
