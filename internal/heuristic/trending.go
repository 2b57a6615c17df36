package heuristic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

// maxHeadlineWords を超える見出しは類似度比較の対象から除外する。
const maxHeadlineWords = 8

// defaultTrendingTimeout は外部フィード取得のデフォルトタイムアウト。
const defaultTrendingTimeout = 5 * time.Second

// TrendingScore は見出しとトレンド見出し集合の最大類似度を返す。
// 類似度はRatcliff-Obershelp法で、[0,1]に収める。集合が空なら0。
func TrendingScore(title string, trending []string) float64 {
	if len(trending) == 0 {
		return 0
	}
	lowered := strings.ToLower(title)
	best := 0.0
	for _, headline := range trending {
		sim := difflib.NewMatcher(strings.Split(lowered, ""), strings.Split(headline, "")).Ratio()
		if sim > best {
			best = sim
		}
	}
	if best > 1 {
		best = 1
	}
	return best
}

// TrendingSource は現在のトレンド見出し集合を取得する能力インタフェース。
type TrendingSource interface {
	Headlines(ctx context.Context) []string
}

// TrendingFailureRecorder はトレンド取得失敗の発生を記録する。
type TrendingFailureRecorder interface {
	IncTrendingFetchFailure()
}

// HTTPTrendingSource は外部ヘッドラインAPIからトレンド見出しを取得する。
// 取得失敗はスコアリング経路にエラーとして伝播させず、空集合を返す。
type HTTPTrendingSource struct {
	client   *http.Client
	feedURL  string
	apiKey   string
	country  string
	logger   *slog.Logger
	recorder TrendingFailureRecorder
}

// NewHTTPTrendingSource はHTTPTrendingSourceを生成する。
// timeoutが0以下の場合はデフォルト値を使う。recorderはnil可。
func NewHTTPTrendingSource(feedURL, apiKey, country string, timeout time.Duration, logger *slog.Logger, recorder TrendingFailureRecorder) *HTTPTrendingSource {
	if timeout <= 0 {
		timeout = defaultTrendingTimeout
	}
	return &HTTPTrendingSource{
		client:   &http.Client{Timeout: timeout},
		feedURL:  feedURL,
		apiKey:   apiKey,
		country:  country,
		logger:   logger,
		recorder: recorder,
	}
}

type trendingResponse struct {
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// Headlines はトレンド見出しを取得し、小文字化と語数フィルタを適用して返す。
// あらゆる失敗（接続不可、非200、解析不能）で空集合を返す。
func (s *HTTPTrendingSource) Headlines(ctx context.Context) []string {
	if s.feedURL == "" {
		return nil
	}
	headlines, err := s.fetch(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("トレンド見出しの取得に失敗しました", "error", err)
		}
		if s.recorder != nil {
			s.recorder.IncTrendingFetchFailure()
		}
		return nil
	}
	return headlines
}

func (s *HTTPTrendingSource) fetch(ctx context.Context) ([]string, error) {
	u, err := url.Parse(s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("トレンドフィードURLの解析に失敗しました: %w", err)
	}
	q := u.Query()
	if s.apiKey != "" {
		q.Set("apiKey", s.apiKey)
	}
	if s.country != "" {
		q.Set("country", strings.ToLower(s.country))
	}
	q.Set("pageSize", "20")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("トレンドフィードへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("トレンドフィードが異常応答を返しました: status=%d", resp.StatusCode)
	}

	var decoded trendingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("トレンド応答の解析に失敗しました: %w", err)
	}

	headlines := make([]string, 0, len(decoded.Articles))
	for _, a := range decoded.Articles {
		title := strings.ToLower(strings.TrimSpace(a.Title))
		if title == "" {
			continue
		}
		if len(strings.Fields(title)) >= maxHeadlineWords {
			continue
		}
		headlines = append(headlines, title)
	}
	return headlines, nil
}

var _ TrendingSource = (*HTTPTrendingSource)(nil)
