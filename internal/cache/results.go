package cache

import (
	"sync"
	"time"

	"github.com/adisatrio/offersession/internal/models"
)

// ResultCache holds the most recent successful OfferResponse per sort mode.
// A single fetch timestamp is shared across all three modes: refreshing one
// mode counts as refreshing the others for staleness purposes. That mirrors
// the upstream product behavior and is deliberate; do not split per mode.
type ResultCache struct {
	mu          sync.RWMutex
	entries     map[models.SortMode]*models.OfferResponse
	lastFetch   time.Time
	staleWindow time.Duration

	now func() time.Time
}

func NewResultCache(staleWindow time.Duration) *ResultCache {
	return &ResultCache{
		entries:     make(map[models.SortMode]*models.OfferResponse),
		staleWindow: staleWindow,
		now:         time.Now,
	}
}

func (c *ResultCache) Get(mode models.SortMode) (*models.OfferResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[mode]
	return resp, ok
}

// Put records the response for a mode and stamps the shared fetch timestamp.
func (c *ResultCache) Put(mode models.SortMode, resp *models.OfferResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[mode] = resp
	c.lastFetch = c.now()
}

// StampFetch refreshes the shared timestamp without storing data. Called once
// when a global refresh is initiated, before any of its fetches complete.
func (c *ResultCache) StampFetch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastFetch = c.now()
}

// IsFresh reports whether the entry for a mode exists and the shared
// timestamp is inside the staleness window.
func (c *ResultCache) IsFresh(mode models.SortMode) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.entries[mode]; !ok {
		return false
	}
	return c.now().Sub(c.lastFetch) < c.staleWindow
}

// Stale reports whether the shared timestamp has aged past the window,
// regardless of which entries exist.
func (c *ResultCache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastFetch.IsZero() {
		return false
	}
	return c.now().Sub(c.lastFetch) >= c.staleWindow
}

func (c *ResultCache) LastFetch() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastFetch
}

// InvalidateAll clears all entries and zeroes the timestamp. Used when the
// display currency changes and every cached price is wrong.
func (c *ResultCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[models.SortMode]*models.OfferResponse)
	c.lastFetch = time.Time{}
}
