package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"rollcall/internal/bridge"
	"rollcall/internal/directory"
	"rollcall/internal/directory/cache"
	"rollcall/internal/ingest"
	ingestmetrics "rollcall/internal/ingest/metrics"
	"rollcall/internal/ledger"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/middleware"
	"rollcall/internal/platform/postgres"
	platformredis "rollcall/internal/platform/redis"
	"rollcall/internal/query"
	httptransport "rollcall/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	var (
		db             *sql.DB
		directoryStore directory.Store
		ledgerStore    ledger.Store
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		directoryStore = directory.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgresStore(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		directoryStore = directory.NewInMemoryStore()
		ledgerStore = ledger.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		directoryStore = cache.New(directoryStore, redisClient.Client, cfg.PersonCacheTTL, log)
	}

	msgBridge := bridge.New(cfg.Broker, log)

	directorySvc, err := directory.NewService(directoryStore,
		directory.WithNotifier(msgBridge),
		directory.WithLogger(log),
	)
	if err != nil {
		return err
	}

	ingestSvc, err := ingest.NewService(directorySvc, ledgerStore, msgBridge,
		ingest.WithLogger(log),
		ingest.WithMetrics(ingestmetrics.New()),
	)
	if err != nil {
		return err
	}

	querySvc, err := query.NewService(directorySvc, ledgerStore,
		query.WithNotifier(msgBridge),
		query.WithLogger(log),
	)
	if err != nil {
		return err
	}

	handler := httptransport.NewHandler(directorySvc, ingestSvc, querySvc, log)
	handler.AddHealthCheck("bridge", func(ctx context.Context) error {
		if state := msgBridge.State(); state != bridge.StateSubscribed {
			return errors.New("broker " + state.String())
		}
		return nil
	})
	if db != nil {
		handler.AddHealthCheck("postgres", db.PingContext)
	}
	if redisClient != nil {
		handler.AddHealthCheck("redis", redisClient.Health)
	}

	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))
	r.Handle("/metrics", promhttp.Handler())
	handler.Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := msgBridge.Run(gctx, ingestSvc)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
