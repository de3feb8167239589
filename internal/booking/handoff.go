package booking

import (
	"context"
	"log"
	"strings"

	"github.com/adisatrio/offersession/internal/fares"
	"github.com/adisatrio/offersession/internal/models"
	"github.com/adisatrio/offersession/internal/session"
)

// Handoff turns a chosen offer into the payload the booking page consumes.
// It is a pure price transformation plus best-effort persistence: a store
// failure is logged, never surfaced to the traveler.
type Handoff struct {
	store session.ClientStore
}

func NewHandoff(store session.ClientStore) *Handoff {
	return &Handoff{store: store}
}

// Prepare computes the final booked price for an offer. A matching best-value
// fare is applied only when its travel class equals the searched class after
// normalization; the group-fare multiplier is applied here, exactly once.
func (h *Handoff) Prepare(ctx context.Context, sess *session.Session, offerID string, isChildFare bool) (models.BookingPayload, error) {
	offer, ok := sess.Offer(offerID)
	if !ok {
		return models.BookingPayload{}, ErrOfferNotFound
	}

	req := sess.Request()
	q := sess.FareQuery()

	price := offer.Price.GrandTotal
	var matched *models.PromotionalFare
	var original *float64

	if f := fares.BestMatch(offer, sess.Catalog(), q); f != nil && classMatches(f.TravelClass, req.TravelClass) {
		if adjusted := fares.Price(offer, *f, req.Travelers); adjusted < price {
			orig := fares.GroupTotal(offer, req.Travelers, price)
			price = adjusted
			matched = f
			original = &orig
		}
	}
	price = fares.GroupTotal(offer, req.Travelers, price)

	// Dictionaries travel with the payload so the booking page can resolve
	// carrier names without another search call.
	var dicts models.Dictionaries
	if resp, ok := sess.ActiveResponse(); ok {
		dicts = resp.Dictionaries
	}

	payload := models.BookingPayload{
		Offer:         offer,
		IsChildFare:   isChildFare,
		Price:         price,
		OriginalPrice: original,
		Currency:      req.Currency,
		BestValueFare: matched,
		Dictionaries:  dicts,
		Search:        req,
	}

	if h.store != nil {
		if matched != nil {
			if err := h.store.SaveBestValueBooking(ctx, sess.ClientID(), *matched); err != nil {
				log.Printf("session %s: best-value record persist failed: %v", sess.ID(), err)
			}
		}
		if err := h.store.SaveBookingPayload(ctx, sess.ClientID(), payload); err != nil {
			log.Printf("session %s: booking payload persist failed: %v", sess.ID(), err)
		}
	}

	return payload, nil
}

func classMatches(fareClass, searched models.TravelClass) bool {
	norm := func(c models.TravelClass) string {
		return strings.ToUpper(strings.TrimSpace(string(c)))
	}
	return norm(fareClass) == norm(searched)
}

type handoffError string

func (e handoffError) Error() string {
	return string(e)
}

const ErrOfferNotFound handoffError = "offer not found in active results"
