package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:      rate.Limit(2),
		GeneralBurst:     3,
		InteractionRate:  rate.Limit(1),
		InteractionBurst: 2,
		CleanupInterval:  50 * time.Millisecond,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithUser(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithUser("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("リクエスト%d: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}
}

func TestGeneralMiddleware_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithUser("user-1"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithUser("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429レスポンスにはRetry-Afterヘッダーを含むべき")
	}
}

func TestGeneralMiddleware_LimitsPerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	// user-1のバーストを使い切る
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithUser("user-1"))
	}

	// user-2は影響を受けない
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithUser("user-2"))
	if w.Code != http.StatusOK {
		t.Errorf("別ユーザーのstatus = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGeneralMiddleware_MissingUserIDReturns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestInteractionMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	general := rl.GeneralMiddleware()(okHandler())
	interaction := rl.InteractionMiddleware()(okHandler())

	// インタラクションのバースト(2)を使い切る
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		interaction.ServeHTTP(w, requestWithUser("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("リクエスト%d: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	interaction.ServeHTTP(w, requestWithUser("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("インタラクション超過: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// API全般の制限は独立して動作する
	w = httptest.NewRecorder()
	general.ServeHTTP(w, requestWithUser("user-1"))
	if w.Code != http.StatusOK {
		t.Errorf("API全般: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	cfg := testRateLimiterConfig()
	cfg.GeneralBurst = 1000
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n%5)
			for j := 0; j < 10; j++ {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, requestWithUser(userID))
			}
		}(i)
	}
	wg.Wait()

	if got := rl.GeneralLimiterCount(); got != 5 {
		t.Errorf("GeneralLimiterCount = %d, want 5", got)
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithUser("user-1"))

	if got := rl.GeneralLimiterCount(); got != 1 {
		t.Fatalf("GeneralLimiterCount = %d, want 1", got)
	}

	// TTL（CleanupInterval×2）経過後のクリーンアップでエントリが削除される
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.GeneralLimiterCount() == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("期限切れエントリがクリーンアップされなかった")
}
