package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/remedyhq/remedy/internal/config"
)

func authTestHandler(cfg *config.SecurityConfig) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return APIKeyAuth(cfg)(next)
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SecurityConfig
		key      string
		wantCode int
		wantBody string
	}{
		{
			name:     "auth disabled passes without key",
			cfg:      config.SecurityConfig{RequireAPIKey: false},
			key:      "",
			wantCode: http.StatusOK,
		},
		{
			name:     "auth disabled ignores bogus key",
			cfg:      config.SecurityConfig{RequireAPIKey: false},
			key:      "anything",
			wantCode: http.StatusOK,
		},
		{
			name:     "missing key rejected",
			cfg:      config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret-key"}},
			key:      "",
			wantCode: http.StatusUnauthorized,
			wantBody: "AUTH_MISSING_KEY",
		},
		{
			name:     "invalid key rejected",
			cfg:      config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret-key"}},
			key:      "wrong-key",
			wantCode: http.StatusForbidden,
			wantBody: "AUTH_INVALID_KEY",
		},
		{
			name:     "valid key passes",
			cfg:      config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret-key"}},
			key:      "secret-key",
			wantCode: http.StatusOK,
		},
		{
			name:     "second configured key passes",
			cfg:      config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"key-a", "key-b"}},
			key:      "key-b",
			wantCode: http.StatusOK,
		},
		{
			name:     "auth required with no keys rejects everything",
			cfg:      config.SecurityConfig{RequireAPIKey: true},
			key:      "any-key",
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}

			w := httptest.NewRecorder()
			authTestHandler(&tt.cfg).ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not mention %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestIsValidAPIKey(t *testing.T) {
	keys := []string{"alpha", "beta"}

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "first key matches", key: "alpha", want: true},
		{name: "second key matches", key: "beta", want: true},
		{name: "no match", key: "gamma", want: false},
		{name: "empty key", key: "", want: false},
		{name: "prefix is not a match", key: "alph", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidAPIKey(tt.key, keys); got != tt.want {
				t.Errorf("isValidAPIKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}

	if isValidAPIKey("anything", nil) {
		t.Error("isValidAPIKey with no configured keys should reject")
	}
}
