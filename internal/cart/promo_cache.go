package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/appetiteclub/apt"
)

// PromoCache caches promo lookups against the backoffice service. Entries
// stay until invalidated by a promo-changed event, so repeated code entry
// during one checkout does not hammer the backoffice.
type PromoCache struct {
	mu     sync.RWMutex
	promos map[string]Promo
	client *apt.ServiceClient
	logger apt.Logger
}

func NewPromoCache(client *apt.ServiceClient, logger apt.Logger) *PromoCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &PromoCache{
		promos: make(map[string]Promo),
		client: client,
		logger: logger,
	}
}

// Ensure returns the promo for code, fetching it on a cache miss. Codes are
// case-insensitive.
func (c *PromoCache) Ensure(ctx context.Context, code string) (Promo, error) {
	code = normalizePromoCode(code)
	if code == "" {
		return Promo{}, fmt.Errorf("invalid promo code")
	}
	if promo, ok := c.Get(code); ok {
		return promo, nil
	}
	return c.Refresh(ctx, code)
}

// Refresh fetches the promo from the backoffice and stores it, active or
// not; an inactive promo is still an answer worth caching.
func (c *PromoCache) Refresh(ctx context.Context, code string) (Promo, error) {
	if c.client == nil {
		return Promo{}, fmt.Errorf("promo cache uninitialized")
	}
	resp, err := c.client.Get(ctx, "promos", code)
	if err != nil {
		return Promo{}, fmt.Errorf("failed to fetch promo %s: %w", code, err)
	}

	var promo Promo
	if err := rehydrate(resp.Data, &promo); err != nil {
		return Promo{}, fmt.Errorf("failed to decode promo %s: %w", code, err)
	}
	if promo.Code == "" {
		promo.Code = code
	}

	c.Set(promo)
	return promo, nil
}

func (c *PromoCache) Get(code string) (Promo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	promo, ok := c.promos[normalizePromoCode(code)]
	return promo, ok
}

func (c *PromoCache) Set(promo Promo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promos[normalizePromoCode(promo.Code)] = promo
}

// Invalidate drops the cached entry so the next lookup refetches.
func (c *PromoCache) Invalidate(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.promos, normalizePromoCode(code))
}

func normalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func rehydrate(data interface{}, out interface{}) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}
