package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/glenxmac/CC-PipeLineTool/internal/api"
	"github.com/glenxmac/CC-PipeLineTool/internal/config"
	"github.com/glenxmac/CC-PipeLineTool/internal/events"
	"github.com/glenxmac/CC-PipeLineTool/internal/localstore"
	"github.com/glenxmac/CC-PipeLineTool/internal/metrics"
	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/pipeline"
	"github.com/glenxmac/CC-PipeLineTool/internal/recordstore"
	"github.com/glenxmac/CC-PipeLineTool/internal/schedule"
	"github.com/glenxmac/CC-PipeLineTool/internal/timegrid"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("WORKSHOP_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	grid, err := timegrid.New(cfg.Workshop.StartHour, cfg.Workshop.EndHour, cfg.Workshop.SlotMinutes)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid workshop hours")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persist, deals, mechanics, cleanup, err := buildStores(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("store setup error")
	}
	defer cleanup()

	session := schedule.NewSession(grid, persist, logger)
	session.SetMechanics(mechanics)
	if len(cfg.ServiceDurations) > 0 {
		session.SetServiceDurations(cfg.ServiceDurations)
	}

	bus := events.NewBus()
	bus.SubscribeAll(func(ev events.Event) {
		if ev.Type == events.BookingRejected {
			logger.Warn().Str("booking_id", ev.BookingID).Str("reason", ev.Reason).Msg("booking rejected")
			return
		}
		metrics.IncBookingCommitted(ev.Type)
		logger.Info().
			Str("event", ev.Type).
			Str("booking_id", ev.BookingID).
			Str("mechanic", ev.Mechanic).
			Str("date", ev.Date).
			Msg("booking event")
	})
	session.UseBus(bus)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewHTTPServer(session, deals, &logger).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("addr", cfg.Server.Addr).Str("mode", cfg.Store.Mode).Msg("workshop scheduler started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server error")
	}
}

// buildStores wires either the sqlite store or the remote record-store client
// as the persistence collaborator for both bookings and deals.
func buildStores(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (schedule.Persistence, pipeline.DealAPI, []model.Mechanic, func(), error) {
	switch cfg.Store.Mode {
	case config.StoreRemote:
		perSecond, burst := cfg.RemoteRate()
		client := recordstore.New(cfg.Remote.BaseURL, recordstore.Credentials{
			TokenURL:     cfg.Remote.TokenURL,
			ClientID:     cfg.Remote.ClientID,
			ClientSecret: cfg.Remote.ClientSecret,
			Scopes:       cfg.Remote.Scopes,
		}, perSecond, burst)

		if cfg.Redis.Address != "" && cfg.RemoteCacheTTL() > 0 {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			client.UseRedisCache(rdb, cfg.RemoteCacheTTL())
		}

		mechanics, err := client.ListMechanics(ctx)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("list mechanics: %w", err)
		}

		var persist schedule.Persistence = client
		cleanup := func() {}
		if cfg.Remote.FallbackLocal {
			db, err := localstore.Open(cfg.Database.Path, logger)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			persist = schedule.NewFailoverPersistence(client, db, logger)
			cleanup = func() { db.Close() }
		}
		return persist, client, mechanics, cleanup, nil

	default:
		db, err := localstore.Open(cfg.Database.Path, logger)
		if err != nil {
			return nil, nil, nil, nil, err
		}

		names := cfg.Workshop.Mechanics
		if len(names) == 0 {
			names = []string{"John Gill", "Nick Campbell"}
		}
		if err := db.SeedMechanics(ctx, names); err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		mechanics, err := db.ListMechanics(ctx)
		if err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}

		if cfg.Backup.Enabled {
			backup := localstore.NewBackupService(cfg.Database.Path, localstore.BackupConfig{
				Enabled:       true,
				Interval:      cfg.BackupInterval(),
				Path:          cfg.Backup.Path,
				RetentionDays: cfg.Backup.RetentionDays,
			}, logger)
			go backup.Start(ctx)
		}

		return db, db, mechanics, func() { db.Close() }, nil
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
