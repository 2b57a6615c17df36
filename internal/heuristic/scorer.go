// Package heuristic はコンテンツ由来のシグナルによる記事スコアリングを提供する。
// ユーザーの履歴には依存しない純粋な関数群で、時刻は注入されたclockから取得する。
package heuristic

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// 各サブスコアの重み。合算したbaseにブースト係数を乗じて最終スコアとする。
const (
	weightSource     = 0.18
	weightRecency    = 0.20
	weightEngagement = 0.20
	weightGeo        = 0.17
	weightSeverity   = 0.15
	weightTrending   = 0.10

	// hotTopicBoost は注目トピック含有時の乗数。
	hotTopicBoost = 1.2
	// morningBoost は朝のピーク帯（07:00〜11:59）の乗数。
	morningBoost = 1.2

	// 政治ジャンルは陳腐化が速いため半減期を短くする。
	politicalHalfLifeHours = 4.0
	defaultHalfLifeHours   = 12.0

	// defaultSeverity はキーワード不一致時の基礎深刻度。
	defaultSeverity = 0.2
	// politicalSeverityBonus は政治ジャンルへの加算分。
	politicalSeverityBonus = 0.05

	// GenrePolitics は半減期短縮と深刻度加算の対象ジャンル。
	GenrePolitics = "politics"
)

// severityKeywords は見出し・本文に含まれると深刻度を引き上げるキーワード表。
// トルコ語と英語の両方を引く。最大一致を採用する。
var severityKeywords = map[string]float64{
	"earthquake": 1.0, "deprem": 1.0,
	"coup": 0.95, "darbe": 0.95,
	"election": 0.9, "seçim": 0.9,
	"protest": 0.8, "gösteri": 0.8,
}

// hotTopics は注目トピック集合。含有判定は小文字化した全文に対して行う。
var hotTopics = []string{
	"1 mayıs", "taksim", "kadıköy", "anayasa", "gençlik",
	"deprem", "ekonomi", "enflasyon", "gazze", "öğrenci",
	"özgür özel", "erdoğan", "önder",
}

// turkishLocationPattern はエンティティ認識器が使えない場合の地名フォールバック。
var turkishLocationPattern = regexp.MustCompile(`(?i)(Türkiye|Ankara|İstanbul|İzmir)`)

// turkishLocations はエンティティ認識器の出力と突き合わせる既知地名集合。
var turkishLocations = map[string]struct{}{
	"türkiye": {}, "ankara": {}, "istanbul": {}, "izmir": {},
}

// Input はスコアリング対象の1記事を表す。
type Input struct {
	ID          string
	Title       string
	Body        string
	SourceScore float64
	PublishedAt time.Time
	Clicks      int
	Shares      int
}

// EntityRecognizer は本文から地名エンティティを抽出する。
// 外部NLPサービスを差し込めるようにするための能力インタフェース。
type EntityRecognizer interface {
	Locations(text string) []string
}

// Scorer はヒューリスティックスコアラーを表す。
// recognizerはnil可で、その場合は正規表現フォールバックを使う。
type Scorer struct {
	recognizer EntityRecognizer
	now        func() time.Time
}

// NewScorer はScorerを生成する。nowがnilの場合はtime.Nowを使う。
func NewScorer(recognizer EntityRecognizer, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{recognizer: recognizer, now: now}
}

// Score は1記事の最終ヒューリスティックスコアを計算する。
// trendingはTrendingSourceから取得済みの見出し集合（空可）。
func (s *Scorer) Score(in Input, genre string, trending []string) float64 {
	now := s.now()
	fullText := in.Title + " " + in.Body

	rec := RecencyWeight(in.PublishedAt, genre, now)
	eng := EngagementScore(in.Clicks, in.Shares)
	sev := Severity(fullText, genre)
	geo := s.placeBoost(in.Body)
	trend := TrendingScore(in.Title, trending)

	base := weightSource*in.SourceScore +
		weightRecency*rec +
		weightEngagement*eng +
		weightGeo*geo +
		weightSeverity*sev +
		weightTrending*trend

	return base * TopicBoost(fullText) * TimeBoost(now)
}

// RecencyWeight は指数減衰による新しさの重みを返す。
// 半減期はジャンルがpoliticsなら4時間、それ以外は12時間。
func RecencyWeight(publishedAt time.Time, genre string, now time.Time) float64 {
	if publishedAt.IsZero() {
		return 0
	}
	hours := now.Sub(publishedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	halfLife := defaultHalfLifeHours
	if genre == GenrePolitics {
		halfLife = politicalHalfLifeHours
	}
	return math.Exp(-hours / halfLife)
}

// EngagementScore はクリックとシェアからエンゲージメント項を計算する。
// sqrt(clicks + 2*shares)。シェアはクリックの2倍に重み付けする。
func EngagementScore(clicks, shares int) float64 {
	if clicks < 0 {
		clicks = 0
	}
	if shares < 0 {
		shares = 0
	}
	return math.Sqrt(float64(clicks) + 2*float64(shares))
}

// Severity はキーワード表から記事の深刻度を求める。
// 複数一致時は最大値、不一致時は0.2。politicsジャンルは+0.05、上限1.0。
func Severity(text, genre string) float64 {
	lowered := strings.ToLower(text)
	score := defaultSeverity
	for keyword, value := range severityKeywords {
		if strings.Contains(lowered, keyword) && value > score {
			score = value
		}
	}
	if strings.ToLower(genre) == GenrePolitics {
		score += politicalSeverityBonus
	}
	return math.Min(score, 1.0)
}

// TopicBoost は注目トピック含有時に1.2、それ以外は1.0を返す。
func TopicBoost(text string) float64 {
	lowered := strings.ToLower(text)
	for _, topic := range hotTopics {
		if strings.Contains(lowered, topic) {
			return hotTopicBoost
		}
	}
	return 1.0
}

// TimeBoost は朝のピーク帯（07:00〜11:59）に1.2、それ以外は1.0を返す。
func TimeBoost(now time.Time) float64 {
	hour := now.Hour()
	if hour >= 7 && hour <= 11 {
		return morningBoost
	}
	return 1.0
}

// placeBoost は本文にトルコの主要地名が含まれるかを0/1で返す。
// エンティティ認識器があればその出力を既知地名集合と突き合わせ、
// なければ正規表現フォールバックを使う。
func (s *Scorer) placeBoost(body string) float64 {
	if s.recognizer != nil {
		for _, loc := range s.recognizer.Locations(body) {
			if _, ok := turkishLocations[strings.ToLower(loc)]; ok {
				return 1.0
			}
		}
		return 0.0
	}
	if turkishLocationPattern.MatchString(body) {
		return 1.0
	}
	return 0.0
}
