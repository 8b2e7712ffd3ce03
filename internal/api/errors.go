package api

import (
	"errors"
	"net/http"

	"github.com/trogers1052/stock-watchlist/internal/auth"
	"github.com/trogers1052/stock-watchlist/internal/indicators"
	"github.com/trogers1052/stock-watchlist/internal/quotes"
	"github.com/trogers1052/stock-watchlist/internal/snapshot"
	"github.com/trogers1052/stock-watchlist/internal/watchlist"
)

// statusFor maps domain errors to HTTP status codes. User errors are 4xx,
// an unreachable quote source is 502 and anything else is 500.
func statusFor(err error) int {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, indicators.ErrInvalidParams),
		errors.Is(err, indicators.ErrInsufficientData),
		errors.Is(err, snapshot.ErrEmptyTicker):
		return http.StatusBadRequest
	case errors.Is(err, quotes.ErrNoData),
		errors.Is(err, watchlist.ErrNotFound),
		errors.Is(err, watchlist.ErrNoWatchlist):
		return http.StatusNotFound
	case errors.Is(err, watchlist.ErrDuplicateTicker):
		return http.StatusConflict
	case errors.Is(err, quotes.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing message for err. Server-side failures
// are not echoed back.
func messageFor(err error, status int) string {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, quotes.ErrNoData):
		return "No quote data found for ticker"
	case errors.Is(err, quotes.ErrSourceUnavailable):
		return "Quote source unavailable"
	case status >= http.StatusInternalServerError:
		return "Server error"
	default:
		return err.Error()
	}
}
