package upsell

import (
	"context"
	"sort"
	"strings"

	"github.com/adisatrio/offersession/internal/cache"
	"github.com/adisatrio/offersession/internal/client"
	"github.com/adisatrio/offersession/internal/models"
)

// Cabin-class priority buckets, in display order. Lower sorts first.
const (
	prioPureEconomy = iota
	prioMixedEconomy
	prioPureBusiness
	prioPureFirst
	prioMixedBusiness
	prioOther
)

const defaultPageLimit = 20

// Service fetches branded-fare upsell alternatives for a base offer, filters
// them for cabin-class consistency and sorts them by cabin priority. Results
// are memoized per offer id until the currency changes.
type Service struct {
	api   *client.BookingAPI
	cache *cache.BrandedFareCache
}

func New(api *client.BookingAPI, c *cache.BrandedFareCache) *Service {
	return &Service{api: api, cache: c}
}

func (s *Service) FaresFor(ctx context.Context, offer models.Offer) ([]models.Offer, error) {
	if cached, ok := s.cache.Get(offer.ID); ok {
		return cached, nil
	}

	fetched, err := s.api.BrandedFares(ctx, offer, 1, defaultPageLimit)
	if err != nil {
		return nil, err
	}

	fares := SortByCabinPriority(filterConsistent(fetched))
	s.cache.Put(offer.ID, fares)
	return fares, nil
}

func (s *Service) Invalidate() {
	s.cache.InvalidateAll()
}

// filterConsistent drops alternatives that carry no cabin information at all;
// their tier cannot be placed in the upsell ladder.
func filterConsistent(offers []models.Offer) []models.Offer {
	result := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if len(cabinsOf(o)) == 0 {
			continue
		}
		result = append(result, o)
	}
	return result
}

// SortByCabinPriority orders upsell offers by the fixed cabin ladder:
// pure economy, mixed with economy, pure business, pure first, mixed with
// business, everything else. Equal-priority offers keep their API order.
func SortByCabinPriority(offers []models.Offer) []models.Offer {
	sorted := make([]models.Offer, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return cabinPriority(sorted[i]) < cabinPriority(sorted[j])
	})
	return sorted
}

func cabinPriority(o models.Offer) int {
	cabins := cabinsOf(o)

	hasEconomy := cabins[string(models.ClassEconomy)] || cabins[string(models.ClassPremiumEconomy)]
	hasBusiness := cabins[string(models.ClassBusiness)]
	hasFirst := cabins[string(models.ClassFirst)]

	switch {
	case len(cabins) == 1 && hasEconomy:
		return prioPureEconomy
	case hasEconomy:
		return prioMixedEconomy
	case len(cabins) == 1 && hasBusiness:
		return prioPureBusiness
	case len(cabins) == 1 && hasFirst:
		return prioPureFirst
	case hasBusiness:
		return prioMixedBusiness
	default:
		return prioOther
	}
}

func cabinsOf(o models.Offer) map[string]bool {
	cabins := make(map[string]bool)
	for _, tp := range o.TravelerPricings {
		cabin := strings.ToUpper(strings.TrimSpace(tp.Cabin))
		if cabin == "" {
			continue
		}
		// Premium economy counts into the economy bucket for the ladder.
		cabins[cabin] = true
	}
	return cabins
}
