package fares

import (
	"strings"
	"time"

	"github.com/adisatrio/offersession/internal/models"
)

// Query is the search context a fare is matched against.
type Query struct {
	Currency    string
	TripType    models.TripType
	TravelClass models.TravelClass
	Travelers   models.Travelers
	// Now anchors validity-window checks; zero means wall clock.
	Now time.Time
}

func (q Query) at() time.Time {
	if q.Now.IsZero() {
		return time.Now()
	}
	return q.Now
}

// Matches reports whether a promotional fare is applicable to the offer under
// the given query, price aside.
func Matches(o models.Offer, f models.PromotionalFare, q Query) bool {
	if !f.IsActive {
		return false
	}
	if f.Currency != "" && !strings.EqualFold(f.Currency, q.Currency) {
		return false
	}
	if f.TripType != q.TripType {
		return false
	}
	if f.TravelClass != q.TravelClass {
		return false
	}
	if !f.AllOrigins() && !originMatches(o, f.Origin) {
		return false
	}
	if !f.AllDestinations() && !destinationMatches(o, f.Destination) {
		return false
	}
	if !f.ValidAt(q.at()) {
		return false
	}
	if !f.AllAirlines() && !airlinesIntersect(o, f.Airlines) {
		return false
	}
	return true
}

// BestMatch returns the first fare in catalog order that matches the offer
// and prices strictly below its undiscounted grand total. No ranking beyond
// catalog order.
func BestMatch(o models.Offer, catalog []models.PromotionalFare, q Query) *models.PromotionalFare {
	for i := range catalog {
		f := catalog[i]
		if !Matches(o, f, q) {
			continue
		}
		if Price(o, f, q.Travelers) < o.Price.GrandTotal {
			return &f
		}
	}
	return nil
}

// Price computes the fare-adjusted total for an offer, before any group-fare
// multiplication.
func Price(o models.Offer, f models.PromotionalFare, t models.Travelers) float64 {
	base := o.Price.Base
	fees := o.Price.GrandTotal - base

	switch f.DeductionType {
	case models.DeductionPercentage:
		// Percentage applies to the base fare only; fees pass through.
		discount := base * f.DeductionValue / 100
		return (base - discount) + fees
	case models.DeductionFixed:
		return (base - f.DeductionValue) + fees
	case models.DeductionPerPax:
		// Infants do not contribute to per-passenger totals.
		var total float64
		for _, pf := range f.FarePerPassengers {
			switch strings.ToUpper(pf.PassengerType) {
			case "ADULT":
				total += pf.Amount * float64(t.Adults)
			case "CHILD":
				total += pf.Amount * float64(t.Children)
			}
		}
		return total
	default:
		return o.Price.GrandTotal
	}
}

// ComparablePrice is the price an offer competes on before display: the
// fare-adjusted total when a fare matches, the raw grand total otherwise.
// No group multiplier; price-band filtering works on per-unit prices.
func ComparablePrice(o models.Offer, catalog []models.PromotionalFare, q Query) float64 {
	if f := BestMatch(o, catalog, q); f != nil {
		return Price(o, *f, q.Travelers)
	}
	return o.Price.GrandTotal
}

// GroupTotal applies the group-fare multiplier. It is applied exactly once,
// at the final display or booking step, never at intermediate comparisons.
func GroupTotal(o models.Offer, t models.Travelers, price float64) float64 {
	if !o.IsGroupFare {
		return price
	}
	return price * float64(t.Total())
}

// DisplayPrice computes the price view for an offer on the given tab.
//
// On the recommended tab the lowest of the main offer's (possibly
// fare-adjusted) price and each child offer's grand total wins; the group
// multiplier is applied after the minimum is chosen. On the other tabs a
// matching discount is shown next to the original when strictly cheaper.
func DisplayPrice(o models.Offer, mode models.SortMode, catalog []models.PromotionalFare, q Query) models.DisplayPrice {
	if mode == models.SortRecommended {
		return recommendedPrice(o, catalog, q)
	}

	original := o.Price.GrandTotal
	if f := BestMatch(o, catalog, q); f != nil {
		discounted := GroupTotal(o, q.Travelers, Price(o, *f, q.Travelers))
		shown := GroupTotal(o, q.Travelers, original)
		if discounted < shown {
			return models.DisplayPrice{
				Price:         discounted,
				OriginalPrice: &shown,
				Fare:          f,
			}
		}
	}
	return models.DisplayPrice{Price: GroupTotal(o, q.Travelers, original)}
}

func recommendedPrice(o models.Offer, catalog []models.PromotionalFare, q Query) models.DisplayPrice {
	lowest := o.Price.GrandTotal
	var matched *models.PromotionalFare

	if !o.IsGroupFare {
		if f := BestMatch(o, catalog, q); f != nil {
			if p := Price(o, *f, q.Travelers); p < lowest {
				lowest = p
				matched = f
			}
		}
	}
	for _, child := range o.ChildOffers {
		if child.Price.GrandTotal < lowest {
			lowest = child.Price.GrandTotal
			matched = nil
		}
	}

	view := models.DisplayPrice{Price: GroupTotal(o, q.Travelers, lowest), Fare: matched}
	if matched != nil {
		orig := GroupTotal(o, q.Travelers, o.Price.GrandTotal)
		view.OriginalPrice = &orig
	}
	return view
}

func originMatches(o models.Offer, origin string) bool {
	for _, it := range o.Itineraries {
		if len(it.Segments) == 0 {
			continue
		}
		if strings.EqualFold(it.Segments[0].Departure.Airport, origin) {
			return true
		}
	}
	return false
}

func destinationMatches(o models.Offer, destination string) bool {
	for _, it := range o.Itineraries {
		if len(it.Segments) == 0 {
			continue
		}
		last := it.Segments[len(it.Segments)-1]
		if strings.EqualFold(last.Arrival.Airport, destination) {
			return true
		}
	}
	return false
}

func airlinesIntersect(o models.Offer, airlines []string) bool {
	used := make(map[string]bool)
	for _, code := range o.CarrierCodes() {
		used[strings.ToUpper(code)] = true
	}
	for _, a := range airlines {
		if used[strings.ToUpper(a)] {
			return true
		}
	}
	return false
}
