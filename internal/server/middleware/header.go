package middleware

import (
	"net/http"
	"strings"
)

// CredentialConfig configures bearer-credential extraction.
type CredentialConfig struct {
	// CookieName is the same-site session cookie, checked first.
	CookieName string
	// Headers to check, in precedence order.
	Headers []string
	// AllowedPrefixes stripped from header values ("Bearer ", etc.).
	AllowedPrefixes []string
}

var DefaultCredentialConfig = defaultCredentialConfig()

func defaultCredentialConfig() *CredentialConfig {
	return &CredentialConfig{
		CookieName:      "tenon_session",
		Headers:         []string{"Authorization", "X-API-Key", "X-Api-Key", "API-Key", "Api-Key"},
		AllowedPrefixes: []string{"Bearer ", "Token ", "Api-Key ", "API-Key "},
	}
}

// ExtractCredential pulls the bearer credential from the request with the
// fixed precedence: same-site cookie, then Authorization header, then the
// vendor API-key headers. Returns "" when nothing is presented; a missing
// credential is not an error, the request just resolves as anonymous.
func ExtractCredential(r *http.Request, config *CredentialConfig) string {
	if config == nil {
		config = DefaultCredentialConfig
	}

	if config.CookieName != "" {
		if cookie, err := r.Cookie(config.CookieName); err == nil {
			if value := strings.TrimSpace(cookie.Value); value != "" {
				return value
			}
		}
	}

	for _, headerName := range config.Headers {
		headerValue := r.Header.Get(headerName)
		if headerValue == "" {
			continue
		}

		credential := headerValue

		for _, prefix := range config.AllowedPrefixes {
			if strings.HasPrefix(headerValue, prefix) {
				credential = strings.TrimPrefix(headerValue, prefix)
				break
			}
		}

		if credential = strings.TrimSpace(credential); credential != "" {
			return credential
		}
	}

	return ""
}
