package models

import (
	"strconv"
	"strings"
	"time"
)

type SortMode string

const (
	SortCheapest    SortMode = "cheapest"
	SortShortest    SortMode = "shortest"
	SortRecommended SortMode = "recommended"
)

var AllSortModes = []SortMode{SortCheapest, SortShortest, SortRecommended}

// SortKey is the upstream API sort parameter for this mode. The recommended
// mode has no sort key; it is served by the family-tree endpoint instead.
func (m SortMode) SortKey() string {
	switch m {
	case SortCheapest:
		return "PRICE_LOW_TO_HIGH"
	case SortShortest:
		return "SHORT_DURATION"
	default:
		return ""
	}
}

func (m SortMode) SearchPath() string {
	if m == SortRecommended {
		return "family-tree/price-group"
	}
	return "price-group"
}

func (m SortMode) Valid() bool {
	switch m {
	case SortCheapest, SortShortest, SortRecommended:
		return true
	}
	return false
}

type Price struct {
	Currency   string  `json:"currency"`
	Base       float64 `json:"base"`
	Fees       float64 `json:"fees"`
	GrandTotal float64 `json:"grand_total"`
}

type SegmentPoint struct {
	Airport  string `json:"airport"`
	Terminal string `json:"terminal,omitempty"`
	// At is the local clock time at the airport, no zone designator.
	At string `json:"at"`
}

// ClockHour converts the local timestamp to a fractional hour in [0,24).
func (p SegmentPoint) ClockHour() float64 {
	t, err := time.Parse("2006-01-02T15:04:05", p.At)
	if err != nil {
		if t, err = time.Parse("2006-01-02T15:04", p.At); err != nil {
			return 0
		}
	}
	return float64(t.Hour()) + float64(t.Minute())/60
}

type Segment struct {
	ID              string       `json:"id"`
	CarrierCode     string       `json:"carrier_code"`
	FlightNumber    string       `json:"flight_number"`
	Aircraft        string       `json:"aircraft,omitempty"`
	Departure       SegmentPoint `json:"departure"`
	Arrival         SegmentPoint `json:"arrival"`
	DurationMinutes int          `json:"duration_minutes"`
}

type Itinerary struct {
	DurationMinutes int       `json:"duration_minutes"`
	Segments        []Segment `json:"segments"`
}

type BaggageAllowance struct {
	CheckedKg float64 `json:"checked_kg"`
	CabinKg   float64 `json:"cabin_kg"`
}

type TravelerFare struct {
	TravelerID   string           `json:"traveler_id"`
	TravelerType string           `json:"traveler_type"`
	Cabin        string           `json:"cabin"`
	FareBasis    string           `json:"fare_basis,omitempty"`
	BrandedFare  string           `json:"branded_fare,omitempty"`
	Baggage      BaggageAllowance `json:"baggage"`
	FareRules    []string         `json:"fare_rules,omitempty"`
}

// Offer is one priced flight combination returned by the search API. Cached
// offers are never mutated in place; adjusted-price views are derived copies.
type Offer struct {
	ID               string         `json:"id"`
	IsGroupFare      bool           `json:"is_group_fare"`
	Price            Price          `json:"price"`
	Itineraries      []Itinerary    `json:"itineraries"`
	TravelerPricings []TravelerFare `json:"traveler_pricings,omitempty"`
	ChildOffers      []Offer        `json:"child_offers,omitempty"`
	SamePriceOffers  []Offer        `json:"same_price_offers,omitempty"`
}

// CarrierCodes returns the union of carrier codes across all segments of all
// itineraries, uppercased, in first-seen order.
func (o Offer) CarrierCodes() []string {
	seen := make(map[string]bool)
	var codes []string
	for _, it := range o.Itineraries {
		for _, s := range it.Segments {
			code := strings.ToUpper(s.CarrierCode)
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type HourRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type AirlineCount struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	FlightCount int    `json:"flight_count"`
}

type Dictionaries struct {
	PriceRange    PriceRange        `json:"price_range"`
	Airlines      []AirlineCount    `json:"airlines"`
	DepartureTime HourRange         `json:"departure_time"`
	ArrivalTime   HourRange         `json:"arrival_time"`
	Carriers      map[string]string `json:"carriers"`
}

type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (m Meta) TotalPages() int {
	if m.Limit <= 0 {
		return 0
	}
	return (m.Total + m.Limit - 1) / m.Limit
}

type OfferResponse struct {
	Data         []Offer      `json:"data"`
	Dictionaries Dictionaries `json:"dictionaries"`
	Meta         Meta         `json:"meta"`
}

// FormatMinutes renders a segment duration the way the booking UI expects,
// e.g. 95 -> "1h 35m".
func FormatMinutes(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "m"
}
