// Package model はドメインモデルを定義する。
package model

import "time"

// Priority は記事の優先度ラベルを表す。
// フィードのレイアウトと速報プロモーションを制御する。
type Priority string

const (
	// PriorityMost は最優先（速報）を示す。全記事中で同時に1件のみ許される。
	PriorityMost Priority = "most"
	// PriorityHigh は高優先度を示す。
	PriorityHigh Priority = "high"
	// PriorityMedium は中優先度を示す。
	PriorityMedium Priority = "medium"
	// PriorityLow は低優先度を示す。
	PriorityLow Priority = "low"
)

// Priorities は優先度の固定列挙。特徴量のone-hot展開の順序にも使用する。
var Priorities = []Priority{PriorityMost, PriorityHigh, PriorityMedium, PriorityLow}

// IsValidPriority は優先度ラベルが列挙に含まれるか検証する。
func IsValidPriority(p string) bool {
	for _, v := range Priorities {
		if string(v) == p {
			return true
		}
	}
	return false
}

// Categories は記事カテゴリの固定列挙。
// オフライン学習パイプラインの特徴量スキーマと一致させる必要がある。
var Categories = []string{
	"Siyaset", "Entertainment", "Spor", "Teknoloji", "Saglik", "Cevre",
	"Bilim", "Egitim", "Ekonomi", "Seyahat", "Moda", "Kultur", "Suc",
	"Yemek", "YasamTarzi", "IsDunyasi", "DunyaHaberleri", "Oyun",
	"Otomotiv", "Sanat", "Tarih", "Uzay", "Iliskiler", "Din",
	"RuhSagligi", "Magazin",
}

// IsValidCategory はカテゴリが固定列挙に含まれるか検証する。
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Article はニュース記事を表す。
// エンジンはインタラクション起点の人気度再計算で更新するが、削除は行わない。
type Article struct {
	ID            string
	Title         string
	Summary       string     // プレーンテキストの要約
	LongerSummary string     // 長めの要約
	Content       string     // サニタイズ済みHTML
	Category      string     // Categories のいずれか（未分類は空文字）
	Tags          []string
	Source        string
	Location      string
	Popularity    float64    // views + 2*likes + 1.5*clicks + 3*shares
	Priority      Priority   // 未割り当ての場合は空文字
	GuidOrID      string     // 取り込み時の同一性判定用
	Link          string
	ContentHash   string
	CreatedAt     *time.Time // 公開日時。取得元により欠損しうる
	UpdatedAt     time.Time
}

// IsBreaking は記事がグローバル速報フラグを保持しているかを返す。
func (a *Article) IsBreaking() bool {
	return a.Priority == PriorityMost
}

// ParsedArticle はフィードパーサーから取得した未保存の記事データを表す。
// 取り込みワーカーがパース後、ArticleUpsertServiceに渡す。
type ParsedArticle struct {
	GuidOrID    string
	Title       string
	Link        string
	Content     string // 未サニタイズのHTML
	Summary     string // 未サニタイズ
	Category    string
	Source      string
	PublishedAt *time.Time
}
