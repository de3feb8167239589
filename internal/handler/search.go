package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/adisatrio/offersession/internal/booking"
	"github.com/adisatrio/offersession/internal/client"
	"github.com/adisatrio/offersession/internal/filter"
	"github.com/adisatrio/offersession/internal/models"
	"github.com/adisatrio/offersession/internal/session"
	"github.com/adisatrio/offersession/internal/token"
	"github.com/adisatrio/offersession/internal/upsell"
)

// SearchHandler owns the live results sessions and exposes the pipeline over
// HTTP. One session per started search; a client starting a new search
// disposes its previous session and the timers that came with it.
type SearchHandler struct {
	api         *client.BookingAPI
	store       session.ClientStore
	cfg         session.Config
	searchEntry string
	validate    *validator.Validate
	handoff     *booking.Handoff

	mu       sync.RWMutex
	sessions map[string]*session.Session
	// clients maps a client id to its one live session id.
	clients map[string]string
}

func NewSearchHandler(api *client.BookingAPI, store session.ClientStore, cfg session.Config, searchEntry string) *SearchHandler {
	return &SearchHandler{
		api:         api,
		store:       store,
		cfg:         cfg,
		searchEntry: searchEntry,
		validate:    validator.New(),
		handoff:     booking.NewHandoff(store),
		sessions:    make(map[string]*session.Session),
		clients:     make(map[string]string),
	}
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.POST("/sessions", h.CreateSession)
	g.DELETE("/sessions/:id", h.CloseSession)
	g.GET("/sessions/:id/offers", h.Offers)
	g.PUT("/sessions/:id/filters", h.SetFilters)
	g.PUT("/sessions/:id/tab", h.SwitchTab)
	g.PUT("/sessions/:id/currency", h.SetCurrency)
	g.GET("/sessions/:id/offers/:offerId/upsell", h.Upsell)
	g.POST("/sessions/:id/book", h.Book)
}

type createSessionRequest struct {
	// Token is the opaque navigation parameter from the search page. When
	// set, Search is ignored.
	Token  string                `json:"token,omitempty"`
	Search *models.SearchRequest `json:"search,omitempty"`
	// ClientID identifies the client across searches; the X-Client-ID
	// header takes precedence.
	ClientID string `json:"client_id,omitempty"`
}

type offersResponse struct {
	SessionID  string             `json:"session_id"`
	Mode       models.SortMode    `json:"mode"`
	Offers     []models.OfferView `json:"offers"`
	Meta       models.Meta        `json:"meta"`
	TotalPages int                `json:"total_pages"`
	Filters    filter.State       `json:"filters"`
	Bounds     filter.Bounds      `json:"bounds"`
}

func (h *SearchHandler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var body createSessionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	var req models.SearchRequest
	switch {
	case body.Token != "":
		decoded, err := token.Decode(body.Token)
		if err != nil {
			// Broken or incomplete navigation token: back to the search
			// entry point, never an error page.
			return c.Redirect(http.StatusSeeOther, h.searchEntry)
		}
		req = decoded
	case body.Search != nil:
		req = *body.Search
		if err := h.validate.Struct(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
		}
	default:
		return c.Redirect(http.StatusSeeOther, h.searchEntry)
	}

	clientID := clientIdentity(c, body)

	// A stored currency preference for this client overrides the token's
	// currency.
	if h.store != nil {
		if cur, ok := h.store.Currency(ctx, clientID); ok {
			req.Currency = cur
		}
	}

	id := newSessionID()
	sess := session.New(id, clientID, req, h.api, h.cfg)
	if err := sess.Start(ctx); err != nil {
		sess.Close()
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "search_error",
			Message: "Flight search is temporarily unavailable, please retry",
			Code:    http.StatusBadGateway,
		})
	}

	// A new search replaces the client's previous session wholesale; its
	// scheduler must not keep fetching for an abandoned request.
	h.mu.Lock()
	if oldID, ok := h.clients[clientID]; ok {
		if old, ok := h.sessions[oldID]; ok {
			old.Close()
			delete(h.sessions, oldID)
		}
	}
	h.sessions[id] = sess
	h.clients[clientID] = id
	h.mu.Unlock()

	if h.store != nil {
		if encoded, err := token.Encode(req); err == nil {
			_ = h.store.SaveLastSearch(ctx, clientID, encoded)
		}
	}

	return c.JSON(http.StatusCreated, h.offersPayload(sess))
}

// clientIdentity resolves the caller's stable client id: the X-Client-ID
// header, then the request body, then a generated one-off id for anonymous
// callers.
func clientIdentity(c echo.Context, body createSessionRequest) string {
	if id := c.Request().Header.Get("X-Client-ID"); id != "" {
		return id
	}
	if body.ClientID != "" {
		return body.ClientID
	}
	return newSessionID()
}

func (h *SearchHandler) CloseSession(c echo.Context) error {
	id := c.Param("id")

	h.mu.Lock()
	sess, ok := h.sessions[id]
	delete(h.sessions, id)
	if ok && h.clients[sess.ClientID()] == id {
		delete(h.clients, sess.ClientID())
	}
	h.mu.Unlock()

	if ok {
		sess.Close()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SearchHandler) Offers(c echo.Context) error {
	sess, ok := h.session(c)
	if !ok {
		return sessionNotFound(c)
	}
	return c.JSON(http.StatusOK, h.offersPayload(sess))
}

func (h *SearchHandler) SetFilters(c echo.Context) error {
	sess, ok := h.session(c)
	if !ok {
		return sessionNotFound(c)
	}

	var state filter.State
	if err := c.Bind(&state); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse filter state: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	sess.SetFilters(state)
	return c.JSON(http.StatusOK, h.offersPayload(sess))
}

type switchTabRequest struct {
	Mode models.SortMode `json:"mode"`
}

func (h *SearchHandler) SwitchTab(c echo.Context) error {
	sess, ok := h.session(c)
	if !ok {
		return sessionNotFound(c)
	}

	var body switchTabRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := sess.SwitchMode(c.Request().Context(), body.Mode); err != nil {
		if errors.Is(err, models.ErrInvalidSortMode) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
		}
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to load the requested tab, please retry",
			Code:    http.StatusBadGateway,
		})
	}
	return c.JSON(http.StatusOK, h.offersPayload(sess))
}

type setCurrencyRequest struct {
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

func (h *SearchHandler) SetCurrency(c echo.Context) error {
	sess, ok := h.session(c)
	if !ok {
		return sessionNotFound(c)
	}

	var body setCurrencyRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if err := h.validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := sess.SetCurrency(c.Request().Context(), body.Currency, h.store); err != nil {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to reprice offers, please retry",
			Code:    http.StatusBadGateway,
		})
	}
	return c.JSON(http.StatusOK, h.offersPayload(sess))
}

func (h *SearchHandler) Upsell(c echo.Context) error {
	sess, ok := h.session(c)
	if !ok {
		return sessionNotFound(c)
	}

	offer, ok := sess.Offer(c.Param("offerId"))
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "offer_not_found",
			Message: "Offer is no longer in the active result set",
			Code:    http.StatusNotFound,
		})
	}

	svc := upsell.New(h.api, sess.BrandedCache())
	fares, err := svc.FaresFor(c.Request().Context(), offer)
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "upsell_error",
			Message: "Failed to load fare options, please retry",
			Code:    http.StatusBadGateway,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"offer_id": offer.ID, "fares": fares})
}

type bookRequest struct {
	OfferID     string `json:"offer_id" validate:"required"`
	IsChildFare bool   `json:"is_child_fare"`
}

func (h *SearchHandler) Book(c echo.Context) error {
	sess, ok := h.session(c)
	if !ok {
		return sessionNotFound(c)
	}

	var body bookRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if err := h.validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	payload, err := h.handoff.Prepare(c.Request().Context(), sess, body.OfferID, body.IsChildFare)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "offer_not_found",
			Message: err.Error(),
			Code:    http.StatusNotFound,
		})
	}
	return c.JSON(http.StatusOK, payload)
}

func (h *SearchHandler) session(c echo.Context) (*session.Session, bool) {
	h.mu.RLock()
	sess, ok := h.sessions[c.Param("id")]
	h.mu.RUnlock()
	return sess, ok
}

func sessionNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "session_not_found",
		Message: "No active search session with that id",
		Code:    http.StatusNotFound,
	})
}

func (h *SearchHandler) offersPayload(sess *session.Session) offersResponse {
	views, meta := sess.Results()
	return offersResponse{
		SessionID:  sess.ID(),
		Mode:       sess.ActiveMode(),
		Offers:     views,
		Meta:       meta,
		TotalPages: meta.TotalPages(),
		Filters:    sess.Filters(),
		Bounds:     sess.Bounds(),
	}
}

func newSessionID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
