// main wires the service: config, stores, registry, gate, audit sink, and
// the HTTP router. Business logic lives in internal packages; this file only
// assembles dependencies and owns the process lifecycle.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	apikeyscache "hawiya/internal/apikeys/cache"
	apikeysservice "hawiya/internal/apikeys/service"
	apikeysstore "hawiya/internal/apikeys/store"
	"hawiya/internal/audit"
	"hawiya/internal/platform/config"
	"hawiya/internal/platform/httpserver"
	"hawiya/internal/platform/logger"
	"hawiya/internal/platform/metrics"
	"hawiya/internal/platform/postgres"
	platformredis "hawiya/internal/platform/redis"
	"hawiya/internal/ratelimit/counter"
	"hawiya/internal/ratelimit/gate"
	ratelimitmetrics "hawiya/internal/ratelimit/metrics"
	httptransport "hawiya/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores. Both Postgres and Redis are optional: without them the
	// process runs on in-memory implementations, which is only suitable
	// for a single node.
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	appMetrics := metrics.New()
	gateMetrics := ratelimitmetrics.New()

	var accountStore apikeysservice.Store
	var auditStore audit.Store
	if db != nil {
		accountStore = apikeysstore.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
	} else {
		log.Warn("postgres not configured, using in-memory stores")
		accountStore = apikeysstore.NewInMemory()
		auditStore = audit.NewInMemory()
	}

	registryOpts := []apikeysservice.Option{apikeysservice.WithLogger(log)}
	var quotaCounter counter.Counter
	if redisClient != nil {
		registryOpts = append(registryOpts, apikeysservice.WithCache(
			apikeyscache.NewRedis(redisClient.Client, cfg.Keys.CacheTTL, cfg.Keys.NegativeCacheTTL)))
		quotaCounter = counter.NewRedis(redisClient.Client)
	} else {
		log.Warn("redis not configured, using in-memory quota counters")
		quotaCounter = counter.NewMemory()
	}

	registry, err := apikeysservice.New(accountStore, cfg.Keys, registryOpts...)
	if err != nil {
		return err
	}

	requestGate, err := gate.New(registry, quotaCounter,
		gate.WithLogger(log),
		gate.WithMetrics(gateMetrics),
		gate.WithStoreTimeout(cfg.StoreTimeout),
	)
	if err != nil {
		return err
	}

	recorder := audit.NewRecorder(cfg.Audit.BufferSize,
		audit.WithDroppedCounter(appMetrics.AuditDropped),
		audit.WithRecorderLogger(log),
	)
	worker := audit.NewWorker(auditStore, recorder.Inbox(), log)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Validate:   httptransport.NewValidateHandler(log, appMetrics, recorder),
		APIKeys:    httptransport.NewAPIKeysHandler(registry, log, appMetrics),
		Authorizer: requestGate,
		Health: func() error {
			if redisClient == nil {
				return nil
			}
			healthCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
			defer cancel()
			return redisClient.Health(healthCtx)
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
