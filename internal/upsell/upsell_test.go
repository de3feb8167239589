package upsell

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/adisatrio/offersession/internal/cache"
	"github.com/adisatrio/offersession/internal/client"
	"github.com/adisatrio/offersession/internal/models"
)

func withCabins(id string, cabins ...string) models.Offer {
	o := models.Offer{ID: id}
	for _, c := range cabins {
		o.TravelerPricings = append(o.TravelerPricings, models.TravelerFare{Cabin: c})
	}
	return o
}

func TestSortByCabinPriority(t *testing.T) {
	input := []models.Offer{
		withCabins("mixed-biz", "BUSINESS", "FIRST"),
		withCabins("first", "FIRST"),
		withCabins("biz", "BUSINESS"),
		withCabins("mixed-eco", "ECONOMY", "BUSINESS"),
		withCabins("eco", "ECONOMY"),
	}

	got := SortByCabinPriority(input)

	want := []string{"eco", "mixed-eco", "biz", "first", "mixed-biz"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s, want %s (full: %v)", i, got[i].ID, id, idsOf(got))
		}
	}
	// Input order untouched.
	if input[0].ID != "mixed-biz" {
		t.Error("SortByCabinPriority must not reorder its input")
	}
}

func TestSortKeepsEqualPriorityOrder(t *testing.T) {
	input := []models.Offer{
		withCabins("eco-a", "ECONOMY"),
		withCabins("eco-b", "ECONOMY"),
	}
	got := SortByCabinPriority(input)
	if got[0].ID != "eco-a" || got[1].ID != "eco-b" {
		t.Errorf("stable order broken: %v", idsOf(got))
	}
}

func TestFaresForFiltersAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []models.Offer{
				withCabins("no-cabin"),
				withCabins("biz", "BUSINESS"),
				withCabins("eco", "ECONOMY"),
			},
		})
	}))
	defer srv.Close()

	svc := New(client.New(client.Config{BaseURL: srv.URL}), cache.NewBrandedFareCache())
	base := models.Offer{ID: "base-1"}

	fares, err := svc.FaresFor(context.Background(), base)
	if err != nil {
		t.Fatalf("FaresFor: %v", err)
	}
	if len(fares) != 2 {
		t.Fatalf("expected the cabin-less alternative to be dropped, got %v", idsOf(fares))
	}
	if fares[0].ID != "eco" || fares[1].ID != "biz" {
		t.Errorf("order: got %v", idsOf(fares))
	}

	// Second call: served from cache.
	if _, err := svc.FaresFor(context.Background(), base); err != nil {
		t.Fatalf("FaresFor (cached): %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls.Load())
	}

	svc.Invalidate()
	if _, err := svc.FaresFor(context.Background(), base); err != nil {
		t.Fatalf("FaresFor (after invalidate): %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected refetch after invalidation, got %d calls", calls.Load())
	}
}

func idsOf(offers []models.Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.ID
	}
	return out
}
