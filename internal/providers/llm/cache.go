package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedOracle memoizes responses by prompt hash. The oracle contract is
// idempotent-safe to retry, so replaying a cached answer is sound; errors
// are never cached.
type CachedOracle struct {
	inner Oracle
	cache *lru.Cache[string, string]
}

func NewCached(inner Oracle, size int) (*CachedOracle, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedOracle{inner: inner, cache: c}, nil
}

func (c *CachedOracle) Ask(ctx context.Context, prompt string) (string, error) {
	key := promptHash(prompt)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	out, err := c.inner.Ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, out)
	return out, nil
}

func promptHash(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(h[:])
}
