package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		trustProxy bool
		want       string
	}{
		{"plain", "192.0.2.1:51234", "", false, "192.0.2.1"},
		{"xff ignored without trust", "192.0.2.1:51234", "203.0.113.7", false, "192.0.2.1"},
		{"xff first hop with trust", "192.0.2.1:51234", "203.0.113.7, 10.0.0.1", true, "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}

			if got := GetRealIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("GetRealIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdminAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := AdminAuthMiddleware("secret", next)

	r := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	r.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	r.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Errorf("valid token status = %d, want 204", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := &Server{
		hardLimitCount: 1,
		hardLimitWin:   time.Minute,
	}

	handler := s.RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/query/info", nil)
	r.RemoteAddr = "192.0.2.1:51234"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d, want 204", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}

	// A different client IP has its own bucket.
	r2 := httptest.NewRequest(http.MethodGet, "/api/query/info", nil)
	r2.RemoteAddr = "192.0.2.2:51234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r2)
	if w.Code != http.StatusNoContent {
		t.Errorf("other client status = %d, want 204", w.Code)
	}
}
