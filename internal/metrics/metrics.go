// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はスコアリングエンジン全体のPrometheusメトリクスを収集する。
// 各パッケージが定義するレコーダーインターフェースをまとめて実装する。
type Collector struct {
	inferenceFallback   *prometheus.CounterVec
	rankingFallback     prometheus.Counter
	trendingFetchFail   prometheus.Counter
	retrainDispatch     prometheus.Counter
	scoreUpserts        prometheus.Counter
	articlesIngested    *prometheus.CounterVec
	ingestFail          *prometheus.CounterVec
	scoringDuration     prometheus.Histogram
	httpStatus          *prometheus.CounterVec
	httpRequestDuration prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		inferenceFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_inference_fallback_total",
			Help: "分類器推論がフォールバック確率を返した回数（理由別）",
		}, []string{"reason"}),
		rankingFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veritas_ranking_fallback_total",
			Help: "外部ランキングサービス呼び出しが失敗した回数",
		}),
		trendingFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veritas_trending_fetch_fail_total",
			Help: "トレンド見出し取得が失敗した回数",
		}),
		retrainDispatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veritas_retrain_dispatch_total",
			Help: "再学習ジョブをディスパッチした回数",
		}),
		scoreUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veritas_score_upserts_total",
			Help: "UPSERTされたスコアレコードの合計数",
		}),
		articlesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_articles_ingested_total",
			Help: "取り込まれた記事の合計数（挿入・更新別）",
		}, []string{"op"}),
		ingestFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_ingest_fail_total",
			Help: "取り込み失敗の合計数（取り込み元別）",
		}, []string{"source"}),
		scoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritas_scoring_duration_seconds",
			Help:    "1ユーザー分の再スコアリング所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritas_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.inferenceFallback,
		c.rankingFallback,
		c.trendingFetchFail,
		c.retrainDispatch,
		c.scoreUpserts,
		c.articlesIngested,
		c.ingestFail,
		c.scoringDuration,
		c.httpStatus,
		c.httpRequestDuration,
	)

	return c
}

// IncInferenceFallback は分類器のフォールバックを理由付きで記録する。
func (c *Collector) IncInferenceFallback(reason string) {
	c.inferenceFallback.WithLabelValues(reason).Inc()
}

// IncRankingFallback は外部ランキングサービスの失敗を記録する。
func (c *Collector) IncRankingFallback() {
	c.rankingFallback.Inc()
}

// IncTrendingFetchFailure はトレンド見出し取得の失敗を記録する。
func (c *Collector) IncTrendingFetchFailure() {
	c.trendingFetchFail.Inc()
}

// IncRetrainDispatch は再学習ジョブのディスパッチを記録する。
func (c *Collector) IncRetrainDispatch() {
	c.retrainDispatch.Inc()
}

// AddScoreUpserts はUPSERTされたスコアレコード数を記録する。
func (c *Collector) AddScoreUpserts(n int) {
	c.scoreUpserts.Add(float64(n))
}

// AddArticlesIngested は取り込まれた記事数を挿入・更新別に記録する。
func (c *Collector) AddArticlesIngested(inserted, updated int) {
	c.articlesIngested.WithLabelValues("inserted").Add(float64(inserted))
	c.articlesIngested.WithLabelValues("updated").Add(float64(updated))
}

// IncIngestFailure は取り込み失敗を取り込み元別に記録する。
func (c *Collector) IncIngestFailure(source string) {
	c.ingestFail.WithLabelValues(source).Inc()
}

// ObserveScoringDuration は再スコアリングの所要時間を記録する。
func (c *Collector) ObserveScoringDuration(seconds float64) {
	c.scoringDuration.Observe(seconds)
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPDuration はHTTPリクエストの処理時間を記録する。
func (c *Collector) RecordHTTPDuration(duration time.Duration) {
	c.httpRequestDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
