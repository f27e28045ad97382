package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dongnae-labs/storefront/pkg/logger"
)

func TestRateLimiterKeysByClientIP(t *testing.T) {
	rl := NewRateLimiter(1, 1, logger.NewNop())
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/stores/meat", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := serve("10.0.0.1:1111"); code != http.StatusOK {
		t.Fatalf("first request limited: %d", code)
	}
	if code := serve("10.0.0.1:2222"); code != http.StatusTooManyRequests {
		t.Fatalf("same client's second request not limited: %d", code)
	}
	// A different client has its own bucket.
	if code := serve("10.0.0.2:1111"); code != http.StatusOK {
		t.Fatalf("unrelated client limited: %d", code)
	}
}
