package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/adisatrio/offersession/internal/cache"
	"github.com/adisatrio/offersession/internal/client"
	"github.com/adisatrio/offersession/internal/fares"
	"github.com/adisatrio/offersession/internal/filter"
	"github.com/adisatrio/offersession/internal/models"
	"github.com/adisatrio/offersession/pkg/currency"
)

type Config struct {
	// StaleWindow is how long a fetched result set is served before a
	// background refresh is due.
	StaleWindow time.Duration
	// WatchdogInterval is the recurring staleness check backstopping the
	// deadline timer.
	WatchdogInterval time.Duration
	// PageLimit is the page size requested from the search endpoint.
	PageLimit int
	// FetchTimeout bounds each background fetch.
	FetchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		StaleWindow:      10 * time.Minute,
		WatchdogInterval: 10 * time.Second,
		PageLimit:        10,
		FetchTimeout:     15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.StaleWindow <= 0 {
		c.StaleWindow = def.StaleWindow
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = def.WatchdogInterval
	}
	if c.PageLimit <= 0 {
		c.PageLimit = def.PageLimit
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	return c
}

// Session owns the result state of one active SearchRequest: the per-mode
// result cache, the filter state, the fare catalog and the refresh scheduler.
// It is created when a search starts and disposed when the search is replaced
// or the client goes away.
type Session struct {
	id       string
	clientID string
	api      *client.BookingAPI
	cfg      Config

	results *cache.ResultCache
	branded *cache.BrandedFareCache

	mu         sync.RWMutex
	req        models.SearchRequest
	activeMode models.SortMode
	filters    filter.State
	bounds     filter.Bounds
	catalog    []models.PromotionalFare

	sched *scheduler
}

// New builds a session for one search. clientID identifies the client across
// searches and keys the persisted state; id identifies this results session
// only.
func New(id, clientID string, req models.SearchRequest, api *client.BookingAPI, cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		id:         id,
		clientID:   clientID,
		api:        api,
		cfg:        cfg,
		results:    cache.NewResultCache(cfg.StaleWindow),
		branded:    cache.NewBrandedFareCache(),
		req:        req,
		activeMode: req.SortMode,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) ClientID() string {
	return s.clientID
}

func (s *Session) Request() models.SearchRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.req
}

func (s *Session) ActiveMode() models.SortMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeMode
}

func (s *Session) Filters() filter.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Session) Bounds() filter.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

func (s *Session) Catalog() []models.PromotionalFare {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

func (s *Session) BrandedCache() *cache.BrandedFareCache {
	return s.branded
}

// Start issues the primary blocking fetch for the requested sort mode, loads
// the fare catalog, logs the search and arms the refresh scheduler. A primary
// fetch failure is returned to the caller; everything else is best effort.
func (s *Session) Start(ctx context.Context) error {
	req := s.Request()

	resp, err := s.api.SearchOffers(ctx, req, req.SortMode, 1, s.cfg.PageLimit)
	if err != nil {
		return err
	}
	s.storeResponse(req.SortMode, resp)

	go s.loadCatalog()
	go func() {
		hctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
		defer cancel()
		if err := s.api.RecordSearch(hctx, req); err != nil {
			log.Printf("session %s: search history write failed: %v", s.id, err)
		}
	}()

	s.sched = newScheduler(s)
	s.sched.run()
	return nil
}

func (s *Session) loadCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
	defer cancel()

	catalog, err := s.api.FareCatalog(ctx)
	if err != nil {
		log.Printf("session %s: fare catalog fetch failed: %v", s.id, err)
		return
	}

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
}

// storeResponse writes one mode's response into the cache, re-arms the
// deadline timer, and resets filter bounds when the stored mode is the one on
// screen.
func (s *Session) storeResponse(mode models.SortMode, resp *models.OfferResponse) {
	s.results.Put(mode, resp)
	if s.sched != nil {
		s.sched.rearm()
	}

	s.mu.Lock()
	if mode == s.activeMode {
		s.bounds = filter.BoundsFrom(resp.Dictionaries)
		s.filters = filter.DefaultState(s.bounds)
	}
	s.mu.Unlock()
}

// FareQuery is the fare-matching context derived from the active search.
func (s *Session) FareQuery() fares.Query {
	req := s.Request()
	return fares.Query{
		Currency:    req.Currency,
		TripType:    req.TripType,
		TravelClass: req.TravelClass,
		Travelers:   req.Travelers,
	}
}

// Results returns the filtered, price-adjusted view of the active mode's
// cached offers. Each view keeps a back-reference to the unfiltered list the
// related-offers UI walks.
func (s *Session) Results() ([]models.OfferView, models.Meta) {
	s.mu.RLock()
	mode := s.activeMode
	state := s.filters
	bounds := s.bounds
	catalog := s.catalog
	s.mu.RUnlock()

	resp, ok := s.results.Get(mode)
	if !ok {
		return nil, models.Meta{}
	}

	q := s.FareQuery()
	filtered := filter.ApplyWithPrice(resp.Data, state, bounds, func(o models.Offer) float64 {
		return fares.ComparablePrice(o, catalog, q)
	})

	views := make([]models.OfferView, len(filtered))
	for i, o := range filtered {
		dp := fares.DisplayPrice(o, mode, catalog, q)
		dp.Formatted = currency.Format(dp.Price, o.Price.Currency)
		views[i] = models.OfferView{
			Offer:        o,
			DisplayPrice: dp,
			Source:       resp.Data,
		}
	}
	return views, resp.Meta
}

// ActiveResponse returns the raw cached response for the tab on screen.
func (s *Session) ActiveResponse() (*models.OfferResponse, bool) {
	return s.results.Get(s.ActiveMode())
}

// Offer finds a cached offer by id in the active mode's list, descending into
// child and same-price offers.
func (s *Session) Offer(offerID string) (models.Offer, bool) {
	resp, ok := s.results.Get(s.ActiveMode())
	if !ok {
		return models.Offer{}, false
	}
	return findOffer(resp.Data, offerID)
}

func findOffer(offers []models.Offer, id string) (models.Offer, bool) {
	for _, o := range offers {
		if o.ID == id {
			return o, true
		}
		if found, ok := findOffer(o.ChildOffers, id); ok {
			return found, true
		}
		if found, ok := findOffer(o.SamePriceOffers, id); ok {
			return found, true
		}
	}
	return models.Offer{}, false
}

// SetFilters replaces the filter state. The next Results call recomputes over
// the full cached list, never over a previously filtered one.
func (s *Session) SetFilters(state filter.State) {
	s.mu.Lock()
	s.filters = state
	s.mu.Unlock()
}

// SwitchMode activates a sort tab, fetching it first when its cache entry is
// missing or stale. The tab is activated only once its data is available; a
// failed fetch leaves the previous tab on screen.
func (s *Session) SwitchMode(ctx context.Context, mode models.SortMode) error {
	if !mode.Valid() {
		return models.ErrInvalidSortMode
	}

	if s.results.IsFresh(mode) {
		// Reuse cached bounds for the tab being shown.
		if resp, ok := s.results.Get(mode); ok {
			s.mu.Lock()
			s.activeMode = mode
			s.bounds = filter.BoundsFrom(resp.Dictionaries)
			s.filters = filter.DefaultState(s.bounds)
			s.mu.Unlock()
		}
		return nil
	}

	resp, err := s.api.SearchOffers(ctx, s.Request(), mode, 1, s.cfg.PageLimit)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.activeMode = mode
	s.mu.Unlock()
	s.storeResponse(mode, resp)
	return nil
}

// SetCurrency invalidates every cached price view, persists the choice and
// refetches the active tab. The remaining tabs are refilled in the
// background.
func (s *Session) SetCurrency(ctx context.Context, code string, store ClientStore) error {
	s.mu.Lock()
	s.req.Currency = code
	mode := s.activeMode
	s.mu.Unlock()

	s.results.InvalidateAll()
	s.branded.InvalidateAll()

	if store != nil {
		if err := store.SaveCurrency(ctx, s.clientID, code); err != nil {
			log.Printf("session %s: currency persist failed: %v", s.id, err)
		}
	}

	resp, err := s.api.SearchOffers(ctx, s.Request(), mode, 1, s.cfg.PageLimit)
	if err != nil {
		return err
	}
	s.storeResponse(mode, resp)

	go s.refreshModes(otherModes(mode))
	return nil
}

func otherModes(active models.SortMode) []models.SortMode {
	var rest []models.SortMode
	for _, m := range models.AllSortModes {
		if m != active {
			rest = append(rest, m)
		}
	}
	return rest
}

// Close stops the refresh scheduler. Safe to call more than once.
func (s *Session) Close() {
	if s.sched != nil {
		s.sched.stopOnce()
	}
}
