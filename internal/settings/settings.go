// Package settings loads and saves the Canvas connection settings.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbaille/coursework/internal/domain"
)

// Persistent store keys.
const (
	KeyDomain = "canvasDomain"
	KeyToken  = "canvasToken"
	KeyProxy  = "corsProxy"
)

// DefaultProxy is used until the user saves a proxy of their own,
// including an empty one.
const DefaultProxy = "https://corsproxy.io/?"

// KV is the persistent key-value store settings live in.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
}

// Load reads the configuration from kv.
func Load(ctx context.Context, kv KV) (domain.Configuration, error) {
	var cfg domain.Configuration

	d, _, err := kv.Get(ctx, KeyDomain)
	if err != nil {
		return cfg, fmt.Errorf("load domain: %w", err)
	}
	t, _, err := kv.Get(ctx, KeyToken)
	if err != nil {
		return cfg, fmt.Errorf("load token: %w", err)
	}
	p, ok, err := kv.Get(ctx, KeyProxy)
	if err != nil {
		return cfg, fmt.Errorf("load proxy: %w", err)
	}
	if !ok {
		p = DefaultProxy
	}

	cfg.Domain = d
	cfg.AccessToken = t
	cfg.ProxyPrefix = p
	return cfg, nil
}

// Save normalizes and stores the three settings, returning what was stored.
// Nothing is validated here; a bad token or domain shows up on the first request.
func Save(ctx context.Context, kv KV, domainName, token, proxy string) (domain.Configuration, error) {
	cfg := domain.Configuration{
		Domain:      NormalizeDomain(domainName),
		AccessToken: strings.TrimSpace(token),
		ProxyPrefix: strings.TrimSpace(proxy),
	}

	err := kv.SetMany(ctx, map[string]string{
		KeyDomain: cfg.Domain,
		KeyToken:  cfg.AccessToken,
		KeyProxy:  cfg.ProxyPrefix,
	})
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("save settings: %w", err)
	}
	return cfg, nil
}

// NormalizeDomain trims whitespace and one leading http:// or https://.
func NormalizeDomain(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "https://"); ok {
		return rest
	}
	return strings.TrimPrefix(s, "http://")
}

// MaskToken hides all but the last four characters of a token for display.
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	r := []rune(token)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
