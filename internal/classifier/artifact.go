// Package classifier は学習済みロジスティック回帰モデルによる関連度推論を提供する。
// モデルはJSONアーティファクトとしてファイルから読み込み、アトミックポインタで
// 保持する。推論中のリロードと競合しない。
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync/atomic"
)

// Artifact は学習済みモデルの重みとスキーマを表す。
// Featuresは学習時の列順をそのまま保持し、Weightsと同じ長さでなければならない。
type Artifact struct {
	Version  string    `json:"version"`
	Features []string  `json:"features"`
	Weights  []float64 `json:"weights"`
	Bias     float64   `json:"bias"`
}

// Validate はアーティファクトの整合性を検証する。
func (a *Artifact) Validate() error {
	if len(a.Features) == 0 {
		return fmt.Errorf("特徴量スキーマが空です")
	}
	if len(a.Features) != len(a.Weights) {
		return fmt.Errorf("特徴量数と重み数が一致しません: features=%d weights=%d", len(a.Features), len(a.Weights))
	}
	for i, w := range a.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("重みに非有限値が含まれます: index=%d", i)
		}
	}
	if math.IsNaN(a.Bias) || math.IsInf(a.Bias, 0) {
		return fmt.Errorf("バイアスが非有限値です")
	}
	return nil
}

// LoadArtifact はJSONファイルからモデルアーティファクトを読み込んで検証する。
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("モデルアーティファクトの読み込みに失敗しました: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("モデルアーティファクトの解析に失敗しました: %w", err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("モデルアーティファクトが不正です: %w", err)
	}
	return &artifact, nil
}

// Store は現在有効なモデルアーティファクトを保持する。
// Swapは進行中の推論に影響を与えず、次回のCurrent呼び出しから新モデルが使われる。
type Store struct {
	current atomic.Pointer[Artifact]
}

// NewStore は空のストアを生成する。アーティファクト未設定の間、推論は
// 中立確率へフォールバックする。
func NewStore() *Store {
	return &Store{}
}

// Current は現在のアーティファクトを返す。未設定の場合はnil。
func (s *Store) Current() *Artifact {
	return s.current.Load()
}

// Swap はアーティファクトをアトミックに差し替える。
func (s *Store) Swap(artifact *Artifact) {
	s.current.Store(artifact)
}

// Reload は指定パスからアーティファクトを再読み込みして差し替える。
// 読み込みに失敗した場合は現行モデルを維持する。
func (s *Store) Reload(path string) error {
	artifact, err := LoadArtifact(path)
	if err != nil {
		return err
	}
	s.Swap(artifact)
	return nil
}
