package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		path   string
		header string
		want   int
	}{
		{"no keys disables auth", nil, "/docs/search", "", http.StatusOK},
		{"blank keys disable auth", []string{"", ""}, "/docs/search", "", http.StatusOK},
		{"missing header", []string{"secret"}, "/docs/search", "", http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, "/docs/search", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong token", []string{"secret"}, "/docs/search", "Bearer wrong", http.StatusUnauthorized},
		{"prefix of token", []string{"secret"}, "/docs/search", "Bearer secre", http.StatusUnauthorized},
		{"valid token", []string{"secret"}, "/docs/search", "Bearer secret", http.StatusOK},
		{"second key", []string{"k1", "k2"}, "/ingestion/upload-from-file", "Bearer k2", http.StatusOK},
		{"health exempt", []string{"secret"}, "/health", "", http.StatusOK},
		{"metrics exempt", []string{"secret"}, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tt.keys)(okHandler())
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d", rr.Code, tt.want)
			}
			if tt.want != http.StatusUnauthorized {
				return
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != ErrorCodeUnauthorized {
				t.Errorf("code = %s, want %s", errResp.Code, ErrorCodeUnauthorized)
			}
		})
	}
}
