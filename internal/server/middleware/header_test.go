package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractCredential(t *testing.T) {
	tests := []struct {
		name     string
		cookie   string
		headers  map[string]string
		expected string
	}{
		{
			name:     "bearer authorization header",
			headers:  map[string]string{"Authorization": "Bearer tok-123"},
			expected: "tok-123",
		},
		{
			name:     "authorization without prefix passes through",
			headers:  map[string]string{"Authorization": "tok-raw"},
			expected: "tok-raw",
		},
		{
			name:     "token prefix",
			headers:  map[string]string{"Authorization": "Token tok-456"},
			expected: "tok-456",
		},
		{
			name:     "api key header",
			headers:  map[string]string{"X-API-Key": "sk-789"},
			expected: "sk-789",
		},
		{
			name:     "lowercase variant header",
			headers:  map[string]string{"Api-Key": "sk-abc"},
			expected: "sk-abc",
		},
		{
			name:     "cookie wins over authorization header",
			cookie:   "cookie-tok",
			headers:  map[string]string{"Authorization": "Bearer tok-123"},
			expected: "cookie-tok",
		},
		{
			name:     "authorization wins over api key header",
			headers:  map[string]string{"Authorization": "Bearer tok-123", "X-API-Key": "sk-789"},
			expected: "tok-123",
		},
		{
			name:     "empty cookie falls through to header",
			cookie:   "",
			headers:  map[string]string{"X-API-Key": "sk-789"},
			expected: "sk-789",
		},
		{
			name:     "blank authorization falls through to api key",
			headers:  map[string]string{"Authorization": "Bearer ", "X-API-Key": "sk-789"},
			expected: "sk-789",
		},
		{
			name:     "nothing presented",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "tenon_session", Value: tt.cookie})
			}

			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			got := ExtractCredential(req, nil)
			if got != tt.expected {
				t.Errorf("expected credential %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExtractCredential_CustomConfig(t *testing.T) {
	config := &CredentialConfig{
		Headers:         []string{"X-Custom"},
		AllowedPrefixes: []string{"Custom "},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Custom", "Custom tok-1")
	req.Header.Set("Authorization", "Bearer ignored")

	if got := ExtractCredential(req, config); got != "tok-1" {
		t.Errorf("expected credential %q, got %q", "tok-1", got)
	}
}
