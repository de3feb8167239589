package models

import (
	"strings"
	"time"
)

type DeductionType string

const (
	DeductionPercentage DeductionType = "PERCENTAGE"
	DeductionFixed      DeductionType = "FIXED"
	DeductionPerPax     DeductionType = "PER_PASSENGER"
)

// MatchAll is the wildcard value for fare restrictions that apply to every
// origin, destination or airline.
const MatchAll = "ALL"

type PassengerFare struct {
	PassengerType string  `json:"passenger_type"`
	Amount        float64 `json:"amount"`
}

// PromotionalFare is an externally configured discount rule fetched from the
// fare catalog endpoint. Read-only to this service.
type PromotionalFare struct {
	ID                string          `json:"id"`
	Name              string          `json:"name,omitempty"`
	IsActive          bool            `json:"is_active"`
	Currency          string          `json:"currency,omitempty"`
	TripType          TripType        `json:"trip_type"`
	TravelClass       TravelClass     `json:"travel_class"`
	Origin            string          `json:"origin"`
	Destination       string          `json:"destination"`
	Airlines          []string        `json:"airlines"`
	ValidFrom         *time.Time      `json:"valid_from,omitempty"`
	ValidTo           *time.Time      `json:"valid_to,omitempty"`
	DeductionType     DeductionType   `json:"deduction_type"`
	DeductionValue    float64         `json:"deduction_value"`
	FarePerPassengers []PassengerFare `json:"fare_per_passengers,omitempty"`
}

func (f PromotionalFare) AllOrigins() bool {
	return f.Origin == "" || strings.EqualFold(f.Origin, MatchAll)
}

func (f PromotionalFare) AllDestinations() bool {
	return f.Destination == "" || strings.EqualFold(f.Destination, MatchAll)
}

func (f PromotionalFare) AllAirlines() bool {
	if len(f.Airlines) == 0 {
		return true
	}
	for _, a := range f.Airlines {
		if strings.EqualFold(a, MatchAll) {
			return true
		}
	}
	return false
}

// ValidAt reports whether t falls within the fare's validity window. An unset
// bound is open.
func (f PromotionalFare) ValidAt(t time.Time) bool {
	if f.ValidFrom != nil && t.Before(*f.ValidFrom) {
		return false
	}
	if f.ValidTo != nil && t.After(*f.ValidTo) {
		return false
	}
	return true
}
