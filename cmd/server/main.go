package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trogers1052/stock-watchlist/internal/api"
	"github.com/trogers1052/stock-watchlist/internal/auth"
	"github.com/trogers1052/stock-watchlist/internal/config"
	"github.com/trogers1052/stock-watchlist/internal/database"
	"github.com/trogers1052/stock-watchlist/internal/kafka"
	"github.com/trogers1052/stock-watchlist/internal/logger"
	"github.com/trogers1052/stock-watchlist/internal/metrics"
	"github.com/trogers1052/stock-watchlist/internal/quotes"
	"github.com/trogers1052/stock-watchlist/internal/snapshot"
	"github.com/trogers1052/stock-watchlist/internal/watchlist"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to create logger")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	rec := metrics.New(registry)

	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}
	log.Info().Str("driver", db.Driver()).Msg("database ready")

	source := newQuoteSource(cfg.Quotes, rec, log)
	snapshots := snapshot.NewService(source, rec, log.With().Str("component", "snapshot").Logger(), cfg.Quotes.Timeout)

	locker, closeLocker, err := newLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	var publisher watchlist.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing watchlist events")
	}

	store := watchlist.NewStore(db, locker, publisher, rec, log.With().Str("component", "watchlist").Logger())
	authSvc := auth.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log.With().Str("component", "auth").Logger())

	var wg sync.WaitGroup
	if cfg.Kafka.ConsumerEnabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, db, rec,
			log.With().Str("component", "audit-consumer").Logger())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("audit consumer stopped")
			}
		}()
	}

	handler := api.NewHandler(snapshots, store, authSvc, db, db, log.With().Str("component", "api").Logger())
	router := api.SetupRoutes(handler, api.RouteOptions{
		Metrics:     rec,
		Gatherer:    registry,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log.With().Str("component", "http").Logger(),
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	stop()
	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// newQuoteSource builds the configured provider behind a circuit breaker
func newQuoteSource(cfg config.QuotesConfig, rec *metrics.Recorder, log zerolog.Logger) quotes.Source {
	var source quotes.Source
	switch cfg.Source {
	case "polygon":
		source = quotes.NewPolygonSource(cfg.PolygonAPIKey)
	default:
		source = quotes.NewYahooSource(quotes.YahooConfig{
			BaseURL: cfg.YahooBaseURL,
			Proxy:   cfg.Proxy,
			Timeout: cfg.Timeout,
		})
	}

	breaker := quotes.NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout)
	name := source.Name()
	rec.SetBreakerState(name, int(quotes.StateClosed))
	breaker.OnStateChange = func(from, to quotes.BreakerState) {
		rec.SetBreakerState(name, int(to))
		log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("quote source breaker changed state")
	}

	log.Info().Str("source", name).Msg("quote source configured")
	return quotes.NewGuarded(source, breaker)
}

// newLocker returns the per-user mutation lock for the configured mode
func newLocker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (watchlist.Locker, func(), error) {
	switch cfg.Watchlist.LockMode {
	case watchlist.LockModeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis watchlist locks")
		return watchlist.NewRedisLocker(client, cfg.Watchlist.LockTTL, cfg.Watchlist.LockWait, log.With().Str("component", "watchlist-lock").Logger()), func() { client.Close() }, nil
	case watchlist.LockModeNone:
		log.Warn().Msg("watchlist locking disabled")
		return watchlist.NoopLocker{}, func() {}, nil
	default:
		return watchlist.NewLocalLocker(), func() {}, nil
	}
}
