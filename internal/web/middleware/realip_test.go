package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// captureRemoteAddr returns a handler that records the RemoteAddr it saw.
func captureRemoteAddr(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = r.RemoteAddr
		w.WriteHeader(http.StatusOK)
	})
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{
			name:       "trusted proxy with X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4567",
			realIP:     "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy with X-Forwarded-For chain",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4567",
			forwarded:  "198.51.100.9, 10.0.0.1",
			want:       "198.51.100.9",
		},
		{
			name:       "X-Real-IP wins over X-Forwarded-For",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4567",
			realIP:     "203.0.113.7",
			forwarded:  "198.51.100.9",
			want:       "203.0.113.7",
		},
		{
			name:       "untrusted client cannot spoof",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.168.1.50:1000",
			realIP:     "203.0.113.7",
			want:       "192.168.1.50:1000",
		},
		{
			name:       "no trusted proxies keeps RemoteAddr",
			trusted:    nil,
			remoteAddr: "10.1.2.3:4567",
			realIP:     "203.0.113.7",
			want:       "10.1.2.3:4567",
		},
		{
			name:       "bare IP entry trusts a single address",
			trusted:    []string{"10.1.2.3"},
			remoteAddr: "10.1.2.3:4567",
			realIP:     "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "bare IP entry does not trust neighbors",
			trusted:    []string{"10.1.2.3"},
			remoteAddr: "10.1.2.4:4567",
			realIP:     "203.0.113.7",
			want:       "10.1.2.4:4567",
		},
		{
			name:       "unparseable header value is ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4567",
			realIP:     "not-an-ip",
			want:       "10.1.2.3:4567",
		},
		{
			name:       "ipv6 mapped proxy address matches ipv4 prefix",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "[::ffff:10.1.2.3]:4567",
			realIP:     "203.0.113.7",
			want:       "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := TrustedRealIP(tt.trusted)(captureRemoteAddr(&got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got != tt.want {
				t.Errorf("RemoteAddr seen by handler = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePrefixes(t *testing.T) {
	prefixes := parsePrefixes([]string{
		"10.0.0.0/8",
		"  192.0.2.1  ",
		"",
		"not-a-cidr",
		"2001:db8::/32",
	})

	// The garbage entry and the blank are dropped, the rest survive.
	if len(prefixes) != 3 {
		t.Fatalf("got %d prefixes, want 3: %v", len(prefixes), prefixes)
	}
	if got := prefixes[0].String(); got != "10.0.0.0/8" {
		t.Errorf("prefix 0 = %q, want 10.0.0.0/8", got)
	}
	if got := prefixes[1].String(); got != "192.0.2.1/32" {
		t.Errorf("prefix 1 = %q, want 192.0.2.1/32", got)
	}
	if got := prefixes[2].String(); got != "2001:db8::/32" {
		t.Errorf("prefix 2 = %q, want 2001:db8::/32", got)
	}
}
