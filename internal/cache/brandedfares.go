package cache

import (
	"sync"

	"github.com/adisatrio/offersession/internal/models"
)

// BrandedFareCache memoizes fetched-and-sorted upsell fare lists per offer id
// so reopening the same offer's fare drawer does not refetch. Invalidated
// wholesale on currency change.
type BrandedFareCache struct {
	mu      sync.RWMutex
	entries map[string][]models.Offer
}

func NewBrandedFareCache() *BrandedFareCache {
	return &BrandedFareCache{entries: make(map[string][]models.Offer)}
}

func (c *BrandedFareCache) Get(offerID string) ([]models.Offer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	offers, ok := c.entries[offerID]
	return offers, ok
}

func (c *BrandedFareCache) Put(offerID string, offers []models.Offer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[offerID] = offers
}

func (c *BrandedFareCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]models.Offer)
}
