// Package rescore はユーザーごとの関連度スコア再計算ワーカーを提供する。
// 直近のインタラクションを持つユーザーを対象に、特徴量構築→分類器推論→
// ヒューリスティック→融合→優先度ラベル付けのパイプラインを実行する。
package rescore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/VeritasNews/Backend/internal/classifier"
	"github.com/VeritasNews/Backend/internal/feature"
	"github.com/VeritasNews/Backend/internal/heuristic"
	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/priority"
	"github.com/VeritasNews/Backend/internal/ranking"
	"github.com/VeritasNews/Backend/internal/repository"
	"github.com/VeritasNews/Backend/internal/textutil"
)

// DefaultCandidateLimit はスコアリング対象とする新着記事の件数上限。
const DefaultCandidateLimit = 200

// ScoringRecorder はスコアリング1回あたりの所要時間を記録する。
type ScoringRecorder interface {
	ObserveScoringDuration(seconds float64)
}

// Rescorer は1ユーザー分の関連度スコアを再計算する。
type Rescorer struct {
	userRepo        repository.UserRepository
	articleRepo     repository.ArticleRepository
	interactionRepo repository.InteractionRepository
	predictor       *classifier.Predictor
	ranker          ranking.Ranker
	bucketer        *priority.Bucketer
	logger          *slog.Logger
	recorder        ScoringRecorder
	country         string
	candidateLimit  int
	now             func() time.Time
}

// NewRescorer はRescorerの新しいインスタンスを生成する。
// candidateLimitが0以下の場合はデフォルト値を使用する。recorderはnil可。
func NewRescorer(
	userRepo repository.UserRepository,
	articleRepo repository.ArticleRepository,
	interactionRepo repository.InteractionRepository,
	predictor *classifier.Predictor,
	ranker ranking.Ranker,
	bucketer *priority.Bucketer,
	logger *slog.Logger,
	recorder ScoringRecorder,
	country string,
	candidateLimit int,
) *Rescorer {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	return &Rescorer{
		userRepo:        userRepo,
		articleRepo:     articleRepo,
		interactionRepo: interactionRepo,
		predictor:       predictor,
		ranker:          ranker,
		bucketer:        bucketer,
		logger:          logger,
		recorder:        recorder,
		country:         country,
		candidateLimit:  candidateLimit,
		now:             time.Now,
	}
}

// RescoreUser は1ユーザーの全候補記事を再スコアリングし、
// 優先度ラベルをスコアキャッシュへUPSERTする。
// ヒューリスティックランカーの不達は中立値で代替し、処理を止めない。
func (r *Rescorer) RescoreUser(ctx context.Context, userID string) error {
	start := r.now()

	user, err := r.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		r.logger.Warn("存在しないユーザーの再スコアリングをスキップします",
			slog.String("user_id", userID),
		)
		return nil
	}

	candidates, err := r.articleRepo.ListRecent(ctx, r.candidateLimit)
	if err != nil {
		return fmt.Errorf("候補記事の取得に失敗しました: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	stats, err := r.interactionRepo.StatsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("インタラクション集計の取得に失敗しました: %w", err)
	}

	heuristicScores := r.ranker.Rank(ctx, r.toHeuristicInputs(ctx, candidates), "", r.country)

	now := r.now()
	scored := make([]model.ScoredArticle, 0, len(candidates))
	for _, article := range candidates {
		vec := feature.Build(user, article, stats[article.ID], now)
		prob := r.predictor.Predict(vec)

		h, ok := heuristicScores[article.ID]
		if !ok {
			h = ranking.NeutralScore
		}

		scored = append(scored, model.ScoredArticle{
			Article:        *article,
			RelevanceScore: ranking.Fuse(prob, h, user, article, now),
		})
	}

	if _, err := r.bucketer.Apply(ctx, userID, scored); err != nil {
		return fmt.Errorf("優先度ラベルの適用に失敗しました: %w", err)
	}

	elapsed := time.Since(start)
	if r.recorder != nil {
		r.recorder.ObserveScoringDuration(elapsed.Seconds())
	}
	r.logger.Info("ユーザーの再スコアリングが完了しました",
		slog.String("user_id", userID),
		slog.Int("articles", len(scored)),
		slog.Float64("duration_ms", float64(elapsed.Milliseconds())),
	)
	return nil
}

// toHeuristicInputs は候補記事をヒューリスティックスコアラーの入力へ変換する。
// エンゲージメントは全候補分を一括取得する（取得失敗時はゼロ値で続行）。
func (r *Rescorer) toHeuristicInputs(ctx context.Context, articles []*model.Article) []heuristic.Input {
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	engagements, err := r.interactionRepo.EngagementByArticles(ctx, ids)
	if err != nil {
		r.logger.Warn("記事エンゲージメントの一括取得に失敗しました",
			slog.Int("articles", len(ids)),
			slog.Any("error", err),
		)
		engagements = nil
	}

	inputs := make([]heuristic.Input, 0, len(articles))
	for _, a := range articles {
		var clicks, shares int
		if e, ok := engagements[a.ID]; ok && e != nil {
			clicks = e.Clicks
			shares = e.Shares
		}

		publishedAt := time.Time{}
		if a.CreatedAt != nil {
			publishedAt = *a.CreatedAt
		}
		inputs = append(inputs, heuristic.Input{
			ID:          a.ID,
			Title:       a.Title,
			Body:        textutil.PlainText(a.Content),
			SourceScore: heuristic.SourceScore(a.Source),
			PublishedAt: publishedAt,
			Clicks:      clicks,
			Shares:      shares,
		})
	}
	return inputs
}
