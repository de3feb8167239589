package models

type TripType string

const (
	TripOneWay    TripType = "ONE_WAY"
	TripRoundTrip TripType = "ROUND_TRIP"
)

type TravelClass string

const (
	ClassEconomy        TravelClass = "ECONOMY"
	ClassPremiumEconomy TravelClass = "PREMIUM_ECONOMY"
	ClassBusiness       TravelClass = "BUSINESS"
	ClassFirst          TravelClass = "FIRST"
)

type Travelers struct {
	Adults   int `json:"adults" validate:"min=0,max=9"`
	Children int `json:"children" validate:"min=0,max=9"`
	Infants  int `json:"infants" validate:"min=0,max=9"`
}

func (t Travelers) Total() int {
	return t.Adults + t.Children + t.Infants
}

// ManualFilter is the optional server-side filter block forwarded verbatim to
// the search endpoint. Distinct from the client-side filter state, which is
// applied over cached results after the fact.
type ManualFilter struct {
	MaxStops *int     `json:"max_stops,omitempty"`
	Airlines []string `json:"airlines,omitempty"`
}

type SearchRequest struct {
	Origin        string        `json:"origin" validate:"required,len=3,alpha"`
	Destination   string        `json:"destination" validate:"required,len=3,alpha"`
	DepartureDate string        `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ReturnDate    string        `json:"return_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Travelers     Travelers     `json:"travelers"`
	TravelClass   TravelClass   `json:"travel_class,omitempty"`
	TripType      TripType      `json:"trip_type,omitempty"`
	Currency      string        `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	SortMode      SortMode      `json:"sort_mode,omitempty"`
	Filters       *ManualFilter `json:"filters,omitempty"`
}

// Validate fills defaults after struct-tag validation has passed.
func (r *SearchRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	if r.Travelers.Adults <= 0 {
		r.Travelers.Adults = 1
	}
	if r.TravelClass == "" {
		r.TravelClass = ClassEconomy
	}
	if r.TripType == "" {
		if r.ReturnDate != "" {
			r.TripType = TripRoundTrip
		} else {
			r.TripType = TripOneWay
		}
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if r.SortMode == "" {
		r.SortMode = SortCheapest
	}
	if !r.SortMode.Valid() {
		return ErrInvalidSortMode
	}
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin        ValidationError = "origin is required"
	ErrMissingDestination   ValidationError = "destination is required"
	ErrMissingDepartureDate ValidationError = "departure_date is required"
	ErrInvalidSortMode      ValidationError = "sort_mode must be one of cheapest, shortest, recommended"
)
