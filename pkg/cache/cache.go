// Package cache provides the optional verdict cache. Classification is
// a pure function of the evidence, so a verdict can be replayed for an
// identical request without re-querying any tier.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

// DefaultTTL bounds how long a cached verdict stays valid.
const DefaultTTL = 6 * time.Hour

// VerdictCache stores verdicts keyed by request fingerprint.
type VerdictCache interface {
	Get(ctx context.Context, key string) (*evidence.ValidationVerdict, bool, error)
	Set(ctx context.Context, key string, verdict *evidence.ValidationVerdict) error
	Close() error
}

// Fingerprint derives the deterministic cache key for a request. Two
// requests with identical label, text, category and images share a key.
func Fingerprint(req *evidence.ValidationRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// New builds the configured cache backend. A disabled config returns
// nil with no error; callers treat a nil cache as a no-op.
func New(cfg config.CacheConfig) (VerdictCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if cfg.TTLSeconds <= 0 {
		ttl = DefaultTTL
	}
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(cfg.MaxEntries, ttl), nil
	case "redis":
		return NewRedisCache(cfg.Redis, ttl)
	default:
		return nil, fmt.Errorf("cache backend %q is not supported", cfg.Backend)
	}
}
