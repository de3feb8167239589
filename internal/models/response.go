package models

// DisplayPrice is the price view computed for one offer on the active tab.
// OriginalPrice is set only when a promotional fare produced a strictly lower
// price; Formatted carries the human-readable total.
type DisplayPrice struct {
	Price         float64          `json:"price"`
	OriginalPrice *float64         `json:"original_price,omitempty"`
	Formatted     string           `json:"formatted,omitempty"`
	Fare          *PromotionalFare `json:"fare,omitempty"`
}

// OfferView is one filtered offer plus its computed display price and a
// back-reference to the unfiltered source list it was filtered from.
type OfferView struct {
	Offer        Offer        `json:"offer"`
	DisplayPrice DisplayPrice `json:"display_price"`
	// Source points at the full unfiltered list for the active sort mode;
	// consumers use it for related-offer lookups. Never mutated onto Offer.
	Source []Offer `json:"-"`
}

// BookingPayload is handed to the session store for the booking page.
type BookingPayload struct {
	Offer         Offer            `json:"offer"`
	IsChildFare   bool             `json:"is_child_fare"`
	Price         float64          `json:"price"`
	OriginalPrice *float64         `json:"original_price,omitempty"`
	Currency      string           `json:"currency"`
	BestValueFare *PromotionalFare `json:"best_value_fare,omitempty"`
	Dictionaries  Dictionaries     `json:"dictionaries"`
	Search        SearchRequest    `json:"search"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
