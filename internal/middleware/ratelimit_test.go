package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(locationBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    3,
		LocationRate:    rate.Limit(0.001),
		LocationBurst:   locationBurst,
		CleanupInterval: time.Hour,
	}
}

func rateLimitedRequest(handler http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/location/request", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), userID))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestLocationMiddleware_EnforcesBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2))
	defer rl.Stop()

	handler := rl.LocationMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		if w := rateLimitedRequest(handler, "user-1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}

	w := rateLimitedRequest(handler, "user-1")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d after burst exhausted", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing on 429")
	}
}

func TestLocationMiddleware_PerUserIsolation(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.LocationMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if w := rateLimitedRequest(handler, "user-1"); w.Code != http.StatusOK {
		t.Fatalf("user-1 first request: status = %d", w.Code)
	}
	if w := rateLimitedRequest(handler, "user-1"); w.Code != http.StatusTooManyRequests {
		t.Errorf("user-1 second request: status = %d, want 429", w.Code)
	}

	// 別ユーザーは独立したバケットを持つ
	if w := rateLimitedRequest(handler, "user-2"); w.Code != http.StatusOK {
		t.Errorf("user-2 first request: status = %d, want 200", w.Code)
	}
}

func TestGeneralMiddleware_IndependentFromLocationBucket(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	locHandler := rl.LocationMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	genHandler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 位置情報バケットを使い切る
	rateLimitedRequest(locHandler, "user-1")
	if w := rateLimitedRequest(locHandler, "user-1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("location bucket not exhausted: status = %d", w.Code)
	}

	// API全般バケットは影響を受けない
	if w := rateLimitedRequest(genHandler, "user-1"); w.Code != http.StatusOK {
		t.Errorf("general request: status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_MissingUserID(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRateLimiter_TracksLimiterCounts(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(5))
	defer rl.Stop()

	genHandler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rateLimitedRequest(genHandler, "user-1")
	rateLimitedRequest(genHandler, "user-2")

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", got)
	}
	if got := rl.LocationLimiterCount(); got != 0 {
		t.Errorf("LocationLimiterCount() = %d, want 0", got)
	}
}
