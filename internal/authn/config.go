package authn

import "time"

// Config holds the verification material for bearer credentials.
// All of it is process-start configuration; the core consumes but does not own it.
type Config struct {
	// BreakGlassSecret, when presented exactly as the credential, bypasses
	// verification and grants unconditional super-admin. Compared in constant time.
	BreakGlassSecret string `conf:"break_glass_secret" yaml:"break_glass_secret" json:"-"`

	// SigningSecret verifies legacy shared-secret (HS256) tokens.
	SigningSecret string `conf:"signing_secret" yaml:"signing_secret" json:"-"`

	// Issuer and Audience are enforced on externally signed tokens when set.
	Issuer   string `conf:"issuer" yaml:"issuer" json:"issuer"`
	Audience string `conf:"audience" yaml:"audience" json:"audience"`

	// KeySetURL is the per-issuer key-set endpoint for RS256 verification.
	KeySetURL string `conf:"key_set_url" yaml:"key_set_url" json:"key_set_url"`

	// FetchTimeout bounds the key-set HTTP fetch.
	FetchTimeout time.Duration `conf:"fetch_timeout" yaml:"fetch_timeout" json:"fetch_timeout"`
}
