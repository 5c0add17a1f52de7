package server

import (
	"net/http"
	"testing"
)

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t, Config{LoginRateLimitPerMinute: 1})
	registerAndLoginBody := map[string]string{
		"email":    "ada@example.com",
		"password": "hunter2hunter2",
	}

	resp := doJSON(t, http.MethodPost, ts.url+"/api/auth/login", "", registerAndLoginBody, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("first request expected 401 for unknown account, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.url+"/api/auth/login", "", registerAndLoginBody, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}
}

func TestRegisterRateLimit(t *testing.T) {
	ts := newTestServer(t, Config{RegisterRateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		resp := doJSON(t, http.MethodPost, ts.url+"/api/auth/register", "", map[string]string{
			"firstName": "Ada",
			"email":     "ada@example.com",
			"password":  "short", // rejected, but still counts against the window
		}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("request %d expected 400, got %d", i+1, resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodPost, ts.url+"/api/auth/register", "", map[string]string{
		"firstName": "Ada",
		"email":     "ada@example.com",
		"password":  "hunter2hunter2",
	}, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("third request expected 429, got %d", resp.StatusCode)
	}
}

