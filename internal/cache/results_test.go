package cache

import (
	"testing"
	"time"

	"github.com/adisatrio/offersession/internal/models"
)

const window = 10 * time.Minute

func newTestCache(start time.Time) (*ResultCache, *time.Time) {
	now := start
	c := NewResultCache(window)
	c.now = func() time.Time { return now }
	return c, &now
}

func resp(total int) *models.OfferResponse {
	return &models.OfferResponse{Meta: models.Meta{Total: total, Page: 1, Limit: 10}}
}

func TestFreshnessBoundary(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c, now := newTestCache(t0)

	c.Put(models.SortCheapest, resp(5))

	*now = t0.Add(window - time.Millisecond)
	if !c.IsFresh(models.SortCheapest) {
		t.Error("expected fresh just inside the window")
	}
	if c.Stale() {
		t.Error("expected not stale just inside the window")
	}

	*now = t0.Add(window + time.Millisecond)
	if c.IsFresh(models.SortCheapest) {
		t.Error("expected stale just past the window")
	}
	if !c.Stale() {
		t.Error("expected Stale just past the window")
	}
}

func TestSharedTimestampAcrossModes(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c, now := newTestCache(t0)

	c.Put(models.SortCheapest, resp(5))
	c.Put(models.SortShortest, resp(7))

	// Age both entries out, then refresh only one mode. The other mode is
	// considered refreshed too: the timestamp is shared.
	*now = t0.Add(window + time.Minute)
	if c.IsFresh(models.SortShortest) {
		t.Fatal("expected shortest to be stale before refresh")
	}

	c.Put(models.SortCheapest, resp(6))
	if !c.IsFresh(models.SortShortest) {
		t.Error("refreshing cheapest must count as refreshing shortest")
	}
}

func TestMissingModeIsNeverFresh(t *testing.T) {
	c, _ := newTestCache(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))

	c.Put(models.SortCheapest, resp(5))
	if c.IsFresh(models.SortRecommended) {
		t.Error("a mode without an entry cannot be fresh")
	}
}

func TestStampFetchRefreshesWithoutData(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c, now := newTestCache(t0)

	c.Put(models.SortCheapest, resp(5))
	*now = t0.Add(window + time.Minute)

	c.StampFetch()
	if c.Stale() {
		t.Error("stamping at refresh initiation must clear staleness")
	}
	if got, ok := c.Get(models.SortCheapest); !ok || got.Meta.Total != 5 {
		t.Error("stamping must not touch stored entries")
	}
}

func TestInvalidateAll(t *testing.T) {
	c, _ := newTestCache(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))

	for _, mode := range models.AllSortModes {
		c.Put(mode, resp(3))
	}
	c.InvalidateAll()

	for _, mode := range models.AllSortModes {
		if _, ok := c.Get(mode); ok {
			t.Errorf("mode %s survived invalidation", mode)
		}
	}
	if !c.LastFetch().IsZero() {
		t.Error("invalidation must zero the shared timestamp")
	}
	if c.Stale() {
		t.Error("an empty cache is not stale, it is absent")
	}
}

func TestBrandedFareCache(t *testing.T) {
	c := NewBrandedFareCache()

	offers := []models.Offer{{ID: "alt-1"}, {ID: "alt-2"}}
	c.Put("offer-1", offers)

	got, ok := c.Get("offer-1")
	if !ok || len(got) != 2 {
		t.Fatalf("got %v, want the two cached alternatives", got)
	}

	c.InvalidateAll()
	if _, ok := c.Get("offer-1"); ok {
		t.Error("expected a miss after wholesale invalidation")
	}
}
