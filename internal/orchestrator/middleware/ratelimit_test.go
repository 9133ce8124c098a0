package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func TestRateLimit_BurstExceeded(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(rate.Limit(1), 2)(next)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/triggers/ci", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("requests within burst should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("got status %d for burst overflow, want 429", codes[2])
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(rate.Limit(1), 1)(next)

	first := httptest.NewRequest(http.MethodPost, "/triggers/ci", nil)
	first.RemoteAddr = "10.0.0.1:5555"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	if rr.Code != http.StatusOK {
		t.Fatalf("first client refused: %d", rr.Code)
	}

	// a different client has its own bucket
	second := httptest.NewRequest(http.MethodPost, "/triggers/ci", nil)
	second.RemoteAddr = "10.0.0.2:5555"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, second)
	if rr.Code != http.StatusOK {
		t.Errorf("second client refused: %d", rr.Code)
	}
}

func TestRateLimit_ZeroMeansUnlimited(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(0, 0)(next)

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/triggers/ci", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d refused with limit 0", i)
		}
	}
}
