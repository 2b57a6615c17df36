package classifier

import (
	"log/slog"
	"math"

	"github.com/VeritasNews/Backend/internal/feature"
)

// FallbackProbability はモデル欠損・推論失敗時に返す中立確率。
const FallbackProbability = 0.5

// FallbackRecorder は推論フォールバックの発生を記録する。
type FallbackRecorder interface {
	IncInferenceFallback(reason string)
}

// Predictor は特徴量ベクトルから関連確率を推論する。
type Predictor struct {
	store    *Store
	logger   *slog.Logger
	recorder FallbackRecorder
}

// NewPredictor はPredictorを生成する。recorderはnil可。
func NewPredictor(store *Store, logger *slog.Logger, recorder FallbackRecorder) *Predictor {
	return &Predictor{store: store, logger: logger, recorder: recorder}
}

// Predict は特徴量ベクトルを現行モデルのスキーマに整合させた上で
// シグモイド確率を返す。モデル未設定、整合後の次元不一致、非有限な
// 出力のいずれの場合も中立確率0.5にフォールバックする（panicしない）。
func (p *Predictor) Predict(vec feature.Vector) float64 {
	artifact := p.store.Current()
	if artifact == nil {
		p.fallback("model_missing")
		return FallbackProbability
	}

	aligned := Align(vec, artifact.Features)
	if len(aligned) != len(artifact.Weights) {
		p.fallback("schema_mismatch")
		return FallbackProbability
	}

	z := artifact.Bias
	for i, w := range artifact.Weights {
		z += w * aligned[i]
	}
	prob := sigmoid(z)
	if math.IsNaN(prob) || math.IsInf(prob, 0) {
		p.fallback("non_finite_output")
		return FallbackProbability
	}
	return prob
}

func (p *Predictor) fallback(reason string) {
	if p.logger != nil {
		p.logger.Warn("推論フォールバック", "reason", reason)
	}
	if p.recorder != nil {
		p.recorder.IncInferenceFallback(reason)
	}
}

// Align は入力ベクトルをモデルの特徴量スキーマに明示的に整合させる。
// モデルが知らない入力特徴量は破棄し、入力に存在しないモデル特徴量は
// 0.0で埋める。戻り値はschemaと同じ長さ・同じ列順。
func Align(vec feature.Vector, schema []string) []float64 {
	byName := make(map[string]float64, len(vec.Names))
	for i, name := range vec.Names {
		byName[name] = vec.Values[i]
	}
	aligned := make([]float64, len(schema))
	for i, name := range schema {
		aligned[i] = byName[name] // 欠損列は0.0埋め
	}
	return aligned
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
