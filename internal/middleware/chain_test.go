package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// chainTestHandler はフルミドルウェアチェーンを組み立てる。
// 本番のルーター構成と同じ順序: recovery → logging → cors → security → identity → ratelimit。
func chainTestHandler(t *testing.T, rl *RateLimiter, final http.Handler) http.Handler {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := rl.GeneralMiddleware()(final)
	h = NewIdentityMiddleware()(h)
	h = NewSecurityHeadersMiddleware()(h)
	h = NewCORSMiddleware("http://localhost:3000")(h)
	h = NewLoggingMiddleware(logger, nil)(h)
	h = NewRecoveryMiddleware()(h)
	return h
}

func TestChain_AuthorizedRequestPassesThrough(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:      rate.Limit(10),
		GeneralBurst:     10,
		InteractionRate:  rate.Limit(10),
		InteractionBurst: 10,
		CleanupInterval:  time.Minute,
	})
	defer rl.Stop()

	handler := chainTestHandler(t, rl, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("セキュリティヘッダーが付与されていない")
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("CORSヘッダーが付与されていない")
	}
}

func TestChain_UnidentifiedRequestRejectedBeforeRateLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:      rate.Limit(10),
		GeneralBurst:     10,
		InteractionRate:  rate.Limit(10),
		InteractionBurst: 10,
		CleanupInterval:  time.Minute,
	})
	defer rl.Stop()

	handler := chainTestHandler(t, rl, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if rl.GeneralLimiterCount() != 0 {
		t.Error("未識別リクエストでリミッターエントリが作成されてはならない")
	}
}

func TestChain_PanicInFinalHandlerReturns500(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:      rate.Limit(10),
		GeneralBurst:     10,
		InteractionRate:  rate.Limit(10),
		InteractionBurst: 10,
		CleanupInterval:  time.Minute,
	})
	defer rl.Stop()

	handler := chainTestHandler(t, rl, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
