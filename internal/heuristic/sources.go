package heuristic

import "strings"

// DefaultSourceScore は評価表に載っていない配信元の既定スコア。
const DefaultSourceScore = 0.8

// sourceWeights は配信元の静的な信頼度評価表。
// 1.0が中立で、信頼度の低い配信元には負値も許容する。
var sourceWeights = map[string]float64{
	"anadolu ajansı": 1.0,
	"aa":             1.0,
	"reuters":        1.0,
	"bbc":            0.95,
	"ntv":            0.9,
	"hürriyet":       0.85,
	"sözcü":          0.8,
	"sabah":          0.75,
	"clickbait haber": -0.5,
}

// SourceScore は配信元名から信頼度スコアを引く。
// 未知の配信元には既定スコアを返す。大文字小文字は区別しない。
func SourceScore(source string) float64 {
	if source == "" {
		return DefaultSourceScore
	}
	if w, ok := sourceWeights[strings.ToLower(source)]; ok {
		return w
	}
	return DefaultSourceScore
}
