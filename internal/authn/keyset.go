package authn

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tenonhq/tenon/internal/log"
	"github.com/tenonhq/tenon/internal/pkg/xcache"
)

// KeySet resolves RSA signing keys by key id from a published key-set endpoint.
// Fetched keys are cached process-wide without expiry: staleness is accepted
// and key rotation requires a restart, which is a documented limitation.
type KeySet struct {
	url    string
	client *http.Client
	cache  xcache.SetterCache[*rsa.PublicKey]
}

// NewKeySet creates a key set backed by the given endpoint URL.
func NewKeySet(url string, fetchTimeout time.Duration) *KeySet {
	if fetchTimeout == 0 {
		fetchTimeout = 10 * time.Second
	}

	return &KeySet{
		url:    url,
		client: &http.Client{Timeout: fetchTimeout},
		cache:  xcache.NewMemoryWithOptions[*rsa.PublicKey](gocache.NoExpiration, 0),
	}
}

// Key returns the public key for kid, fetching the key set lazily on first use.
// Concurrent fetches for the same endpoint are a benign race: the content is
// idempotent and last-writer-wins is acceptable.
func (ks *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, fmt.Errorf("%w: token has no key id", ErrInvalidToken)
	}

	cacheKey := ks.url + "#" + kid

	if key, err := ks.cache.Get(ctx, cacheKey); err == nil && key != nil {
		return key, nil
	}

	keys, err := ks.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var found *rsa.PublicKey

	for id, key := range keys {
		if err := ks.cache.Set(ctx, ks.url+"#"+id, key); err != nil {
			log.Warn(ctx, "failed to cache signing key", log.String("kid", id), log.Cause(err))
		}

		if id == kid {
			found = key
		}
	}

	if found == nil {
		return nil, fmt.Errorf("%w: no signing key for kid %q", ErrInvalidToken, kid)
	}

	return found, nil
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jsonWebKeySet struct {
	Keys []jsonWebKey `json:"keys"`
}

func (ks *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build key-set request: %w", err)
	}

	resp, err := ks.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key-set endpoint returned %d", resp.StatusCode)
	}

	var doc jsonWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode key set: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))

	for _, jwk := range doc.Keys {
		if jwk.Kty != "RSA" || jwk.Kid == "" {
			continue
		}

		key, err := jwk.publicKey()
		if err != nil {
			log.Warn(ctx, "skipping malformed signing key", log.String("kid", jwk.Kid), log.Cause(err))
			continue
		}

		keys[jwk.Kid] = key
	}

	return keys, nil
}

func (k jsonWebKey) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	if e <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
