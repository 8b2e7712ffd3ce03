package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/trogers1052/stock-watchlist/internal/metrics"
)

// RouteOptions configures the cross-cutting parts of the router
type RouteOptions struct {
	Metrics     *metrics.Recorder
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      zerolog.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, opts RouteOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(Recover(opts.Logger), CORS(opts.CORSOrigins), Instrument(opts.Metrics, opts.Logger))

	// preflight requests are answered by the CORS middleware
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	// Auth routes
	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	authRoutes.HandleFunc("/register", handler.Register).Methods("POST")
	authRoutes.HandleFunc("/login", handler.Login).Methods("POST")

	// Finance routes
	finance := r.PathPrefix("/api/finance").Subrouter()
	finance.Use(handler.RequireAuth)
	finance.HandleFunc("/stock/{symbol}", handler.GetStock).Methods("GET")
	finance.HandleFunc("/watchlist", handler.GetWatchlist).Methods("GET")
	finance.HandleFunc("/watchlist", handler.AddToWatchlist).Methods("POST")
	finance.HandleFunc("/watchlist/history", handler.GetWatchlistHistory).Methods("GET")
	finance.HandleFunc("/watchlist/{ticker}", handler.RemoveFromWatchlist).Methods("DELETE")

	return r
}
