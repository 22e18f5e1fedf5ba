package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func doRequest(handler http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/focuses", nil)
	req.Header.Set("X-Forwarded-For", ip)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	handler := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ip := "203.0.113.7"
	for i := 0; i < burstSize; i++ {
		assert.Equal(t, http.StatusOK, doRequest(handler, ip), "request %d should pass", i+1)
	}

	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, ip))
}

func TestRateLimit_BucketsArePerClient(t *testing.T) {
	handler := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	exhausted := "203.0.113.8"
	for i := 0; i < burstSize+1; i++ {
		doRequest(handler, exhausted)
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, exhausted))

	// A different client still has a full bucket.
	assert.Equal(t, http.StatusOK, doRequest(handler, "203.0.113.9"))
}
