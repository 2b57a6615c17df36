package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/VeritasNews/Backend/internal/heuristic"
)

// defaultRankTimeout はリモートランキングサービス呼び出しのデフォルトタイムアウト。
const defaultRankTimeout = 5 * time.Second

// RankFailureRecorder はリモートランキング失敗の発生を記録する。
type RankFailureRecorder interface {
	IncRankingFallback()
}

// RemoteRanker は外部ランキングサービスを呼び出すRanker実装。
// 非200応答やタイムアウトではバッチ全体を空マップとして返し、
// 呼び出し側の中立値フォールバックに委ねる。
type RemoteRanker struct {
	client   *http.Client
	baseURL  string
	logger   *slog.Logger
	recorder RankFailureRecorder
}

// NewRemoteRanker はRemoteRankerを生成する。
// timeoutが0以下の場合はデフォルト値を使う。recorderはnil可。
func NewRemoteRanker(baseURL string, timeout time.Duration, logger *slog.Logger, recorder RankFailureRecorder) *RemoteRanker {
	if timeout <= 0 {
		timeout = defaultRankTimeout
	}
	return &RemoteRanker{
		client:   &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		logger:   logger,
		recorder: recorder,
	}
}

// rankRequestArticle はワイヤ上の記事表現。
type rankRequestArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	SourceScore float64   `json:"source_score"`
	PublishedAt time.Time `json:"published_at"`
	Clicks      int       `json:"clicks"`
	Shares      int       `json:"shares"`
}

// rankResponseEntry はランキングサービスの応答1件。
type rankResponseEntry struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Rank は記事バッチをランキングサービスへPOSTし、記事ID→スコアを返す。
// あらゆる失敗で空マップを返す。
func (r *RemoteRanker) Rank(ctx context.Context, articles []heuristic.Input, genre, country string) map[string]float64 {
	scores, err := r.rank(ctx, articles, genre, country)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("リモートランキングの呼び出しに失敗しました", "error", err, "articles", len(articles))
		}
		if r.recorder != nil {
			r.recorder.IncRankingFallback()
		}
		return map[string]float64{}
	}
	return scores
}

func (r *RemoteRanker) rank(ctx context.Context, articles []heuristic.Input, genre, country string) (map[string]float64, error) {
	u, err := url.Parse(r.baseURL + "/v1/rank")
	if err != nil {
		return nil, fmt.Errorf("ランキングサービスURLの解析に失敗しました: %w", err)
	}
	q := u.Query()
	if genre != "" {
		q.Set("genre", genre)
	}
	if country != "" {
		q.Set("country", country)
	}
	u.RawQuery = q.Encode()

	payload := make([]rankRequestArticle, 0, len(articles))
	for _, a := range articles {
		payload = append(payload, rankRequestArticle{
			ID:          a.ID,
			Title:       a.Title,
			Body:        a.Body,
			SourceScore: a.SourceScore,
			PublishedAt: a.PublishedAt,
			Clicks:      a.Clicks,
			Shares:      a.Shares,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ランキングサービスへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ランキングサービスが異常応答を返しました: status=%d", resp.StatusCode)
	}

	var entries []rankResponseEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("応答の解析に失敗しました: %w", err)
	}

	scores := make(map[string]float64, len(entries))
	for _, e := range entries {
		scores[e.ID] = e.Score
	}
	return scores, nil
}

var _ Ranker = (*RemoteRanker)(nil)
