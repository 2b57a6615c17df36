// Package priority は関連度ランキングから優先度ラベルへの割り当てを提供する。
package priority

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/repository"
)

// ランキング順位ごとのバケット境界。順位5位までが高、15位までが中、残りは低。
const (
	highRankLimit   = 5
	mediumRankLimit = 15
)

// Assign はスコア済み記事集合に優先度ラベルを割り当てる。
// スコア降順（同点は作成日時の新しい順）に整列した上で、
//   - 全体速報フラグを持つ記事は"most"を維持する（順位付けから除外）
//   - 速報がなければ残りの順位1位を"most"に昇格する
//   - 以降、順位5位までを"high"、15位までを"medium"、残りを"low"とする
//
// 入力スライスは破壊せず、整列済みの新しいスライスを返す。冪等で、
// 同じ入力に対して常に同じラベル付けを生成する。
func Assign(scored []model.ScoredArticle) []model.ScoredArticle {
	out := make([]model.ScoredArticle, len(scored))
	copy(out, scored)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt)
	})

	hasBreaking := false
	for i := range out {
		if out[i].IsBreaking() {
			out[i].PersonalizedPriority = model.PriorityMost
			hasBreaking = true
		}
	}

	rank := 0
	for i := range out {
		if out[i].PersonalizedPriority == model.PriorityMost {
			continue
		}
		rank++
		if !hasBreaking && rank == 1 {
			out[i].PersonalizedPriority = model.PriorityMost
			hasBreaking = true
			continue
		}
		switch {
		case rank <= highRankLimit:
			out[i].PersonalizedPriority = model.PriorityHigh
		case rank <= mediumRankLimit:
			out[i].PersonalizedPriority = model.PriorityMedium
		default:
			out[i].PersonalizedPriority = model.PriorityLow
		}
	}

	return out
}

// newerFirst は作成日時の新しい順の比較。nilは常に後ろに回す。
func newerFirst(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

// UpsertRecorder はスコアレコードのUPSERT件数を記録する。
type UpsertRecorder interface {
	AddScoreUpserts(n int)
}

// Bucketer はラベル割り当てとスコアキャッシュへの永続化をまとめる。
type Bucketer struct {
	scores   repository.ScoreRepository
	logger   *slog.Logger
	recorder UpsertRecorder
	now      func() time.Time
}

// NewBucketer はBucketerを生成する。recorderはnil可。
func NewBucketer(scores repository.ScoreRepository, logger *slog.Logger, recorder UpsertRecorder) *Bucketer {
	return &Bucketer{scores: scores, logger: logger, recorder: recorder, now: time.Now}
}

// Apply は1ユーザー分のスコア済み記事にラベルを割り当て、
// スコアレコードとしてUPSERTする。戻り値はラベル付け済みの整列結果。
func (b *Bucketer) Apply(ctx context.Context, userID string, scored []model.ScoredArticle) ([]model.ScoredArticle, error) {
	labeled := Assign(scored)
	now := b.now()

	for i := range labeled {
		record := &model.UserArticleScore{
			ID:        uuid.NewString(),
			UserID:    userID,
			ArticleID: labeled[i].ID,
			Score:     labeled[i].RelevanceScore,
			Priority:  labeled[i].PersonalizedPriority,
			UpdatedAt: now,
		}
		if err := b.scores.Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("スコアレコードのUPSERTに失敗しました: user=%s article=%s: %w", userID, labeled[i].ID, err)
		}
	}

	if b.recorder != nil {
		b.recorder.AddScoreUpserts(len(labeled))
	}
	b.logger.Debug("優先度ラベルを更新しました", "user_id", userID, "articles", len(labeled))
	return labeled, nil
}
