package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/VeritasNews/Backend/internal/heuristic"
	"github.com/VeritasNews/Backend/internal/model"
)

var fusionNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func fusionArticle(category string, priority model.Priority, age time.Duration) *model.Article {
	created := fusionNow.Add(-age)
	return &model.Article{
		ID:        "a1",
		Category:  category,
		Priority:  priority,
		CreatedAt: &created,
	}
}

func TestFuse_BaseWeights(t *testing.T) {
	// ブースト対象外: 非速報、優先カテゴリ外、6時間超
	article := fusionArticle("Spor", model.PriorityLow, 12*time.Hour)
	user := &model.User{PreferredCategories: []string{"Siyaset"}}

	got := Fuse(0.8, 0.6, user, article, fusionNow)

	recency := heuristic.RecencyWeight(*article.CreatedAt, "", fusionNow)
	want := 0.5*0.8 + 0.3*0.6 + 0.2*recency
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Fuse = %v, want %v", got, want)
	}
}

func TestFuse_BoostsComposeMultiplicatively(t *testing.T) {
	user := &model.User{PreferredCategories: []string{"Siyaset"}}

	baseline := Fuse(0.5, 0.5, user, fusionArticle("Spor", model.PriorityLow, 12*time.Hour), fusionNow)

	cases := []struct {
		name    string
		article *model.Article
		boost   float64
	}{
		{"速報", fusionArticle("Spor", model.PriorityMost, 12*time.Hour), 2.5},
		{"優先カテゴリ一致", fusionArticle("Siyaset", model.PriorityLow, 12*time.Hour), 1.5},
		{"全ブースト同時", fusionArticle("Siyaset", model.PriorityMost, 12*time.Hour), 2.5 * 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Fuse(0.5, 0.5, user, tc.article, fusionNow)
			if math.Abs(got-baseline*tc.boost) > 1e-9 {
				t.Errorf("Fuse = %v, want %v (baseline %v × %v)", got, baseline*tc.boost, baseline, tc.boost)
			}
		})
	}
}

func TestFuse_FreshWindow(t *testing.T) {
	user := &model.User{}
	fresh := fusionArticle("Spor", model.PriorityLow, 3*time.Hour)
	stale := fusionArticle("Spor", model.PriorityLow, 7*time.Hour)

	freshScore := Fuse(0.5, 0.5, user, fresh, fusionNow)
	staleScore := Fuse(0.5, 0.5, user, stale, fusionNow)

	// 新しさ減衰の差に加え、6時間以内は1.3倍のブーストが乗る
	recFresh := heuristic.RecencyWeight(*fresh.CreatedAt, "", fusionNow)
	wantFresh := (0.5*0.5 + 0.3*0.5 + 0.2*recFresh) * 1.3
	if math.Abs(freshScore-wantFresh) > 1e-9 {
		t.Errorf("6時間以内 = %v, want %v", freshScore, wantFresh)
	}
	recStale := heuristic.RecencyWeight(*stale.CreatedAt, "", fusionNow)
	wantStale := 0.5*0.5 + 0.3*0.5 + 0.2*recStale
	if math.Abs(staleScore-wantStale) > 1e-9 {
		t.Errorf("6時間超 = %v, want %v", staleScore, wantStale)
	}
}

func TestFuse_NilCreatedAt(t *testing.T) {
	article := &model.Article{ID: "a1", Category: "Spor", Priority: model.PriorityLow}
	got := Fuse(0.5, 0.5, &model.User{}, article, fusionNow)
	want := 0.5*0.5 + 0.3*0.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("作成日時なし = %v, want %v (新しさ項は0)", got, want)
	}
}
