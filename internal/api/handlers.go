package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/trogers1052/stock-watchlist/internal/auth"
	"github.com/trogers1052/stock-watchlist/internal/indicators"
	"github.com/trogers1052/stock-watchlist/internal/models"
)

// SnapshotService builds ticker snapshots from live quote data
type SnapshotService interface {
	Snapshot(ctx context.Context, ticker string, params indicators.Params) (*models.TickerSnapshot, error)
}

// WatchlistStore manages per-user watchlists
type WatchlistStore interface {
	List(ctx context.Context, userID int64) (models.Watchlist, error)
	Add(ctx context.Context, userID int64, snapshot *models.TickerSnapshot) (models.Watchlist, error)
	Remove(ctx context.Context, userID int64, ticker string) (models.Watchlist, error)
}

// AuthService registers users and issues and verifies tokens
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (string, error)
	ParseToken(token string) (*auth.Claims, error)
}

// EventHistory reads the watchlist audit trail
type EventHistory interface {
	GetWatchlistEventsByUser(ctx context.Context, userID int64, limit int) ([]*models.WatchlistEventRecord, error)
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	snapshots  SnapshotService
	watchlists WatchlistStore
	auth       AuthService
	events     EventHistory
	db         Pinger
	logger     zerolog.Logger
}

// NewHandler creates a new Handler. events and db may be nil.
func NewHandler(snapshots SnapshotService, watchlists WatchlistStore, authSvc AuthService, events EventHistory, db Pinger, logger zerolog.Logger) *Handler {
	return &Handler{
		snapshots:  snapshots,
		watchlists: watchlists,
		auth:       authSvc,
		events:     events,
		db:         db,
		logger:     logger,
	}
}

type stocksResponse struct {
	Message string           `json:"message,omitempty"`
	Stocks  models.Watchlist `json:"stocks"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.auth.Register(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetStock handles GET /api/finance/stock/{symbol}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	params, err := indicators.ParseParams(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	snap, err := h.snapshots.Snapshot(r.Context(), symbol, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// GetWatchlist handles GET /api/finance/watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	list, err := h.watchlists.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stocksResponse{Stocks: list})
}

// AddToWatchlist handles POST /api/finance/watchlist. The body carries the
// ticker and optional indicator parameters, which may also be given as query
// parameters; body values win.
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var ticker string
	if raw, ok := body["ticker"]; ok {
		if err := json.Unmarshal(raw, &ticker); err != nil {
			respondError(w, http.StatusBadRequest, "ticker must be a string")
			return
		}
	}
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	values, err := mergeParams(r.URL.Query(), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	params, err := indicators.ParseParams(values)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	userID := userIDFrom(r.Context())

	// cheap duplicate check before hitting the quote source
	current, err := h.watchlists.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if current.IndexOf(ticker) >= 0 {
		respondError(w, http.StatusConflict, fmt.Sprintf("%s is already in the watchlist", ticker))
		return
	}

	snap, err := h.snapshots.Snapshot(r.Context(), ticker, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.watchlists.Add(r.Context(), userID, snap)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stocksResponse{Message: "Stock added to watchlist", Stocks: list})
}

// RemoveFromWatchlist handles DELETE /api/finance/watchlist/{ticker}
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	userID := userIDFrom(r.Context())

	list, err := h.watchlists.Remove(r.Context(), userID, ticker)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stocksResponse{Message: "Stock removed from watchlist", Stocks: list})
}

// GetWatchlistHistory handles GET /api/finance/watchlist/history
func (h *Handler) GetWatchlistHistory(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		respondError(w, http.StatusNotImplemented, "watchlist history is not enabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	events, err := h.events.GetWatchlistEventsByUser(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("health check failed")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "unreachable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// mergeParams overlays indicator parameters found in body onto query
func mergeParams(query url.Values, body map[string]json.RawMessage) (url.Values, error) {
	values := url.Values{}
	for _, name := range indicators.ParamNames {
		if query.Has(name) {
			values.Set(name, query.Get(name))
		}
		raw, ok := body[name]
		if !ok {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %s is not valid JSON", indicators.ErrInvalidParams, name)
		}
		switch v := v.(type) {
		case float64:
			values.Set(name, strconv.FormatFloat(v, 'f', -1, 64))
		case string:
			values.Set(name, strings.TrimSpace(v))
		case nil:
		default:
			return nil, fmt.Errorf("%w: %s must be a number", indicators.ErrInvalidParams, name)
		}
	}
	return values, nil
}

// fail logs err and writes the mapped error response
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("request failed")

	respondError(w, status, messageFor(err, status))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
