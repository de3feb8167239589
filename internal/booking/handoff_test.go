package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adisatrio/offersession/internal/client"
	"github.com/adisatrio/offersession/internal/models"
	"github.com/adisatrio/offersession/internal/session"
)

func bookingFixture() models.OfferResponse {
	return models.OfferResponse{
		Data: []models.Offer{
			{
				ID:    "solo",
				Price: models.Price{Currency: "AUD", Base: 800, GrandTotal: 880},
				Itineraries: []models.Itinerary{{
					Segments: []models.Segment{{
						CarrierCode: "QF",
						Departure:   models.SegmentPoint{Airport: "SYD", At: "2026-09-10T08:00:00"},
						Arrival:     models.SegmentPoint{Airport: "MEL", At: "2026-09-10T09:30:00"},
					}},
				}},
			},
			{
				ID:          "group",
				IsGroupFare: true,
				Price:       models.Price{Currency: "AUD", Base: 180, GrandTotal: 200},
				Itineraries: []models.Itinerary{{
					Segments: []models.Segment{{
						CarrierCode: "VA",
						Departure:   models.SegmentPoint{Airport: "SYD", At: "2026-09-10T10:00:00"},
						Arrival:     models.SegmentPoint{Airport: "MEL", At: "2026-09-10T11:30:00"},
					}},
				}},
			},
		},
		Dictionaries: models.Dictionaries{
			Carriers: map[string]string{"QF": "Qantas", "VA": "Virgin Australia"},
		},
		Meta: models.Meta{Total: 2, Page: 1, Limit: 10},
	}
}

func startBookingSession(t *testing.T, catalog []models.PromotionalFare, travelers models.Travelers) *session.Session {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/flight-search/"):
			json.NewEncoder(w).Encode(bookingFixture())
		case r.URL.Path == "/fare":
			json.NewEncoder(w).Encode(catalog)
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	t.Cleanup(srv.Close)

	req := models.SearchRequest{
		Origin:        "SYD",
		Destination:   "MEL",
		DepartureDate: "2026-09-10",
		Travelers:     travelers,
		Currency:      "AUD",
	}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}

	sess := session.New("sess-1", "client-1", req, client.New(client.Config{BaseURL: srv.URL}), session.Config{})
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(sess.Close)

	if len(catalog) > 0 {
		deadline := time.Now().Add(2 * time.Second)
		for len(sess.Catalog()) == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return sess
}

func economyFare() models.PromotionalFare {
	return models.PromotionalFare{
		ID:             "promo",
		IsActive:       true,
		Currency:       "AUD",
		TripType:       models.TripOneWay,
		TravelClass:    models.ClassEconomy,
		Origin:         models.MatchAll,
		Destination:    models.MatchAll,
		Airlines:       []string{models.MatchAll},
		DeductionType:  models.DeductionPercentage,
		DeductionValue: 10,
	}
}

func TestPrepareAppliesFareAndPersists(t *testing.T) {
	sess := startBookingSession(t, []models.PromotionalFare{economyFare()}, models.Travelers{Adults: 1})
	store := session.NewMemoryStore()
	h := NewHandoff(store)

	payload, err := h.Prepare(context.Background(), sess, "solo", false)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if payload.Price != 800 {
		t.Errorf("price: got %v, want 800", payload.Price)
	}
	if payload.OriginalPrice == nil || *payload.OriginalPrice != 880 {
		t.Errorf("original: got %v, want 880", payload.OriginalPrice)
	}
	if payload.BestValueFare == nil || payload.BestValueFare.ID != "promo" {
		t.Errorf("fare: got %+v", payload.BestValueFare)
	}
	if payload.Dictionaries.Carriers["QF"] != "Qantas" {
		t.Error("dictionaries must travel with the payload")
	}

	stored, ok := store.BookingPayload(context.Background(), "client-1")
	if !ok || stored.Offer.ID != "solo" {
		t.Errorf("stored payload: got %+v, %v", stored.Offer.ID, ok)
	}
}

func TestPrepareSkipsFareOnClassMismatch(t *testing.T) {
	fare := economyFare()
	fare.TravelClass = models.ClassBusiness

	sess := startBookingSession(t, []models.PromotionalFare{fare}, models.Travelers{Adults: 1})
	h := NewHandoff(session.NewMemoryStore())

	payload, err := h.Prepare(context.Background(), sess, "solo", false)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if payload.Price != 880 || payload.BestValueFare != nil {
		t.Errorf("got %v with fare %+v, want undiscounted 880", payload.Price, payload.BestValueFare)
	}
}

func TestPrepareGroupFareMultipliedOnce(t *testing.T) {
	sess := startBookingSession(t, nil, models.Travelers{Adults: 2, Children: 1})
	h := NewHandoff(session.NewMemoryStore())

	payload, err := h.Prepare(context.Background(), sess, "group", false)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if payload.Price != 600 {
		t.Errorf("got %v, want 600 (200 x 3)", payload.Price)
	}
}

func TestPrepareUnknownOffer(t *testing.T) {
	sess := startBookingSession(t, nil, models.Travelers{Adults: 1})
	h := NewHandoff(session.NewMemoryStore())

	if _, err := h.Prepare(context.Background(), sess, "ghost", false); err != ErrOfferNotFound {
		t.Errorf("got %v, want ErrOfferNotFound", err)
	}
}

func TestPrepareStoreFailureIsNotSurfaced(t *testing.T) {
	sess := startBookingSession(t, nil, models.Travelers{Adults: 1})
	h := NewHandoff(failingStore{})

	if _, err := h.Prepare(context.Background(), sess, "solo", false); err != nil {
		t.Errorf("store failures must stay silent, got %v", err)
	}
}

type failingStore struct{}

func (failingStore) SaveCurrency(context.Context, string, string) error { return errStore }
func (failingStore) Currency(context.Context, string) (string, bool) { return "", false }
func (failingStore) SaveLastSearch(context.Context, string, string) error {
	return errStore
}
func (failingStore) LastSearch(context.Context, string) (string, bool) {
	return "", false
}
func (failingStore) SaveBestValueBooking(context.Context, string, models.PromotionalFare) error {
	return errStore
}
func (failingStore) SaveBookingPayload(context.Context, string, models.BookingPayload) error {
	return errStore
}
func (failingStore) BookingPayload(context.Context, string) (models.BookingPayload, bool) {
	return models.BookingPayload{}, false
}
func (failingStore) Close() error { return nil }

type storeError string

func (e storeError) Error() string { return string(e) }

const errStore storeError = "store unavailable"
