package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adisatrio/offersession/internal/models"
	"github.com/adisatrio/offersession/internal/ratelimit"
)

// BookingAPI is the client for the remote booking backend. All calls pass
// through the per-endpoint rate limiter before hitting the wire.
type BookingAPI struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *ratelimit.EndpointLimiter
}

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Limiter    *ratelimit.EndpointLimiter
}

func New(cfg Config) *BookingAPI {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewEndpointLimiterWithDefaults()
	}
	return &BookingAPI{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    httpClient,
		limiter: limiter,
	}
}

type APIError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return e.Endpoint + ": " + e.Err.Error()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

type originDestination struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type searchBody struct {
	Currency           string               `json:"currency"`
	OriginDestinations []originDestination  `json:"origin_destinations"`
	Travelers          models.Travelers     `json:"travelers"`
	TravelClass        models.TravelClass   `json:"travel_class"`
	TripType           models.TripType      `json:"trip_type"`
	Filters            *models.ManualFilter `json:"filters,omitempty"`
	SortBy             string               `json:"sort_by,omitempty"`
	PageSize           int                  `json:"page_size"`
	GroupByPrice       bool                 `json:"group_by_price"`
}

func buildSearchBody(req models.SearchRequest, mode models.SortMode, limit int) searchBody {
	legs := []originDestination{{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
	}}
	if req.TripType == models.TripRoundTrip && req.ReturnDate != "" {
		legs = append(legs, originDestination{
			Origin:        req.Destination,
			Destination:   req.Origin,
			DepartureDate: req.ReturnDate,
		})
	}
	return searchBody{
		Currency:           req.Currency,
		OriginDestinations: legs,
		Travelers:          req.Travelers,
		TravelClass:        req.TravelClass,
		TripType:           req.TripType,
		Filters:            req.Filters,
		SortBy:             mode.SortKey(),
		PageSize:           limit,
		GroupByPrice:       true,
	}
}

// SearchOffers fetches one page of offers for the given sort mode. The
// recommended mode is served by the family-tree endpoint, the other two by
// the plain price-group endpoint with an explicit sort key.
func (c *BookingAPI) SearchOffers(ctx context.Context, req models.SearchRequest, mode models.SortMode, page, limit int) (*models.OfferResponse, error) {
	if err := c.limiter.Wait(ctx, ratelimit.EndpointSearch); err != nil {
		return nil, &APIError{Endpoint: ratelimit.EndpointSearch, Err: err}
	}

	endpoint := fmt.Sprintf("%s/flight-search/%s?%s", c.baseURL, mode.SearchPath(), pageQuery(page, limit))
	var resp models.OfferResponse
	if err := c.postJSON(ctx, ratelimit.EndpointSearch, endpoint, buildSearchBody(req, mode, limit), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BrandedFares fetches the upsell fare alternatives for a base offer.
func (c *BookingAPI) BrandedFares(ctx context.Context, offer models.Offer, page, limit int) ([]models.Offer, error) {
	if err := c.limiter.Wait(ctx, ratelimit.EndpointUpsell); err != nil {
		return nil, &APIError{Endpoint: ratelimit.EndpointUpsell, Err: err}
	}

	endpoint := fmt.Sprintf("%s/flight-branded-fares-upsell?%s", c.baseURL, pageQuery(page, limit))
	headers := map[string]string{"X-Client-Ref": newClientRef()}

	var resp struct {
		Data []models.Offer `json:"data"`
	}
	if err := c.postJSON(ctx, ratelimit.EndpointUpsell, endpoint, offer, headers, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// FareCatalog fetches the promotional fare catalog and keeps only active
// entries.
func (c *BookingAPI) FareCatalog(ctx context.Context) ([]models.PromotionalFare, error) {
	if err := c.limiter.Wait(ctx, ratelimit.EndpointFare); err != nil {
		return nil, &APIError{Endpoint: ratelimit.EndpointFare, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/fare", nil)
	if err != nil {
		return nil, &APIError{Endpoint: ratelimit.EndpointFare, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	var fares []models.PromotionalFare
	if err := c.do(httpReq, ratelimit.EndpointFare, &fares); err != nil {
		return nil, err
	}

	active := make([]models.PromotionalFare, 0, len(fares))
	for _, f := range fares {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return active, nil
}

// RecordSearch logs a search to the history endpoint, best effort.
func (c *BookingAPI) RecordSearch(ctx context.Context, req models.SearchRequest) error {
	if err := c.limiter.Wait(ctx, ratelimit.EndpointHistory); err != nil {
		return &APIError{Endpoint: ratelimit.EndpointHistory, Err: err}
	}
	return c.postJSON(ctx, ratelimit.EndpointHistory, c.baseURL+"/flight-search-history", req, nil, nil)
}

func (c *BookingAPI) postJSON(ctx context.Context, endpoint, rawURL string, body any, headers map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	return c.do(httpReq, endpoint, out)
}

func (c *BookingAPI) do(req *http.Request, endpoint string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected response: %s", string(body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	return nil
}

func pageQuery(page, limit int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))
	return q.Encode()
}

func newClientRef() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf)
}
