package filter

import (
	"strings"

	"github.com/adisatrio/offersession/internal/models"
)

// Full-day sentinel for the hour bands. A band left at [0,24] is not a
// filter.
const (
	fullDayMin = 0
	fullDayMax = 24
)

// Bounds are the data-derived filter extremes taken from the dictionaries
// block of a fresh OfferResponse. A State value sitting at its bound is
// treated as inactive, not as "selected full range".
type Bounds struct {
	Price     models.PriceRange
	Departure models.HourRange
	Arrival   models.HourRange
	Airlines  []models.AirlineCount
}

func BoundsFrom(d models.Dictionaries) Bounds {
	return Bounds{
		Price:     d.PriceRange,
		Departure: d.DepartureTime,
		Arrival:   d.ArrivalTime,
		Airlines:  d.Airlines,
	}
}

// State is the user-chosen filter set for one results session.
type State struct {
	Direct       bool `json:"direct"`
	OneStop      bool `json:"one_stop"`
	TwoPlusStops bool `json:"two_plus_stops"`

	PriceMin float64 `json:"price_min"`
	PriceMax float64 `json:"price_max"`

	// Airlines maps carrier code to its checked flag.
	Airlines map[string]bool `json:"airlines"`

	DepartureHours models.HourRange `json:"departure_hours"`
	ArrivalHours   models.HourRange `json:"arrival_hours"`
}

// DefaultState is the all-inactive state for the given bounds. Applied
// whenever a fresh OfferResponse resets the filter panel.
func DefaultState(b Bounds) State {
	return State{
		PriceMin:       b.Price.Min,
		PriceMax:       b.Price.Max,
		Airlines:       make(map[string]bool),
		DepartureHours: models.HourRange{Min: fullDayMin, Max: fullDayMax},
		ArrivalHours:   models.HourRange{Min: fullDayMin, Max: fullDayMax},
	}
}

func (s State) transitActive() bool {
	return s.Direct || s.OneStop || s.TwoPlusStops
}

func (s State) priceActive(b Bounds) bool {
	return s.PriceMin > b.Price.Min || s.PriceMax < b.Price.Max
}

func (s State) airlineActive(b Bounds) bool {
	checked := 0
	for _, on := range s.Airlines {
		if on {
			checked++
		}
	}
	// Checking every airline filters nothing.
	return checked > 0 && checked < len(b.Airlines)
}

func (s State) departureActive() bool {
	return s.DepartureHours.Min > fullDayMin || s.DepartureHours.Max < fullDayMax
}

func (s State) arrivalActive() bool {
	return s.ArrivalHours.Min > fullDayMin || s.ArrivalHours.Max < fullDayMax
}

// Active reports whether any of the five filters would reject an offer.
func (s State) Active(b Bounds) bool {
	return s.transitActive() || s.priceActive(b) || s.airlineActive(b) ||
		s.departureActive() || s.arrivalActive()
}

// PriceFunc resolves the price an offer is filtered on. The session passes a
// fare-adjusted price here; Apply falls back to the raw grand total.
type PriceFunc func(models.Offer) float64

// Apply evaluates the active filters over the full cached list and returns
// the offers passing all of them. When no filter is active the input slice is
// returned as-is, unallocated.
func Apply(offers []models.Offer, s State, b Bounds) []models.Offer {
	return ApplyWithPrice(offers, s, b, nil)
}

func ApplyWithPrice(offers []models.Offer, s State, b Bounds, priceOf PriceFunc) []models.Offer {
	if !s.Active(b) {
		return offers
	}
	if priceOf == nil {
		priceOf = func(o models.Offer) float64 { return o.Price.GrandTotal }
	}

	transit := s.transitActive()
	price := s.priceActive(b)
	airline := s.airlineActive(b)
	departure := s.departureActive()
	arrival := s.arrivalActive()

	result := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if transit && !matchesTransit(o, s) {
			continue
		}
		if price && !matchesPrice(priceOf(o), s) {
			continue
		}
		if airline && !matchesAirline(o, s) {
			continue
		}
		if departure && !matchesDeparture(o, s) {
			continue
		}
		if arrival && !matchesArrival(o, s) {
			continue
		}
		result = append(result, o)
	}
	return result
}

// matchesTransit passes when ANY itinerary satisfies a checked stop-count
// category. A round trip with a direct outbound passes the direct filter even
// if the return leg has stops.
func matchesTransit(o models.Offer, s State) bool {
	for _, it := range o.Itineraries {
		switch n := len(it.Segments); {
		case n == 1:
			if s.Direct {
				return true
			}
		case n == 2:
			if s.OneStop {
				return true
			}
		case n > 2:
			if s.TwoPlusStops {
				return true
			}
		}
	}
	return false
}

func matchesPrice(price float64, s State) bool {
	return price >= s.PriceMin && price <= s.PriceMax
}

func matchesAirline(o models.Offer, s State) bool {
	for _, code := range o.CarrierCodes() {
		if s.Airlines[strings.ToUpper(code)] {
			return true
		}
	}
	return false
}

// matchesDeparture checks only the first segment of the first itinerary.
func matchesDeparture(o models.Offer, s State) bool {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return false
	}
	h := o.Itineraries[0].Segments[0].Departure.ClockHour()
	return h >= s.DepartureHours.Min && h <= s.DepartureHours.Max
}

// matchesArrival checks only the last segment of the last itinerary.
func matchesArrival(o models.Offer, s State) bool {
	if len(o.Itineraries) == 0 {
		return false
	}
	last := o.Itineraries[len(o.Itineraries)-1]
	if len(last.Segments) == 0 {
		return false
	}
	h := last.Segments[len(last.Segments)-1].Arrival.ClockHour()
	return h >= s.ArrivalHours.Min && h <= s.ArrivalHours.Max
}
