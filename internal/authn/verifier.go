// Package authn verifies bearer credentials and extracts their raw claims.
// Two verification modes are supported: shared-secret (HS256) tokens signed
// with the legacy signing secret, and externally issued (RS256) tokens
// verified against a published key set.
package authn

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers bad signature, expiry, issuer and audience failures.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnconfigured means no verification material is available for the token.
	ErrUnconfigured = errors.New("no verification material configured")
)

// Verifier verifies bearer credentials.
type Verifier struct {
	cfg    Config
	keySet *KeySet
}

// NewVerifier creates a verifier from config. The key set is fetched lazily
// on the first externally signed token.
func NewVerifier(cfg Config) *Verifier {
	v := &Verifier{cfg: cfg}

	if cfg.KeySetURL != "" {
		v.keySet = NewKeySet(cfg.KeySetURL, cfg.FetchTimeout)
	}

	return v
}

// IsBreakGlass reports whether the credential equals the break-glass secret.
// Uses constant-time comparison; an empty configured secret never matches.
func (v *Verifier) IsBreakGlass(credential string) bool {
	if v.cfg.BreakGlassSecret == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(credential), []byte(v.cfg.BreakGlassSecret)) == 1
}

// Verify checks the token signature and registered claims and returns the raw
// claim set. Fails with ErrInvalidToken on any verification failure and
// ErrUnconfigured when no material exists for the token's signing mode.
func (v *Verifier) Verify(ctx context.Context, token string) (Claims, error) {
	header, err := peekHeader(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	switch {
	case strings.HasPrefix(header.Alg, "HS"):
		return v.verifyShared(token)
	case strings.HasPrefix(header.Alg, "RS"):
		return v.verifyExternal(ctx, token, header.Kid)
	default:
		return nil, fmt.Errorf("%w: unsupported signing method %q", ErrInvalidToken, header.Alg)
	}
}

func (v *Verifier) verifyShared(token string) (Claims, error) {
	if v.cfg.SigningSecret == "" {
		return nil, fmt.Errorf("%w: no signing secret", ErrUnconfigured)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(v.cfg.SigningSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claimsOf(parsed)
}

func (v *Verifier) verifyExternal(ctx context.Context, token, kid string) (Claims, error) {
	if v.keySet == nil {
		return nil, fmt.Errorf("%w: no key-set endpoint", ErrUnconfigured)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
	}

	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.keySet.Key(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claimsOf(parsed)
}

// IsExternal reports whether the compact token is asymmetrically signed,
// i.e. issued by the external identity provider rather than with the
// legacy shared secret. Malformed tokens report false.
func IsExternal(token string) bool {
	header, err := peekHeader(token)
	if err != nil {
		return false
	}

	return strings.HasPrefix(header.Alg, "RS")
}

// DecodeUnverified extracts claims without any signature check.
// Display use only. Never use the result for enforcement decisions.
func DecodeUnverified(token string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims shape", ErrInvalidToken)
	}

	return Claims(mapClaims), nil
}

func claimsOf(parsed *jwt.Token) (Claims, error) {
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: unexpected claims shape", ErrInvalidToken)
	}

	return Claims(mapClaims), nil
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// peekHeader decodes only the header segment to pick the verification mode.
// The signature is still fully checked afterwards.
func peekHeader(token string) (tokenHeader, error) {
	var header tokenHeader

	parts := strings.SplitN(token, ".", 3)
	if len(parts) != 3 {
		return header, fmt.Errorf("malformed compact token")
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return header, fmt.Errorf("malformed token header: %w", err)
	}

	if err := json.Unmarshal(raw, &header); err != nil {
		return header, fmt.Errorf("malformed token header: %w", err)
	}

	return header, nil
}
