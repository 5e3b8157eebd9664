// Command server runs the caseflow intake portal.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caseflow/internal/backend"
	"caseflow/internal/intake/draftstore"
	intakehandler "caseflow/internal/intake/handler"
	"caseflow/internal/intake/service"
	"caseflow/internal/intake/sharetoken"
	"caseflow/internal/l2l"
	l2lhandler "caseflow/internal/l2l/handler"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/logger"
	"caseflow/internal/platform/metrics"
	"caseflow/internal/platform/postgres"
	"caseflow/internal/platform/redis"
	"caseflow/internal/session"
	sessionhandler "caseflow/internal/session/handler"
	httptransport "caseflow/internal/transport/http"
	"caseflow/pkg/audit"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	health := map[string]httptransport.HealthChecker{}

	// Redis and Postgres are optional; when absent the in-memory store
	// variants are used and the data does not survive a restart.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		health["redis"] = redisClient.Health
	}

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		health["postgres"] = db.PingContext
	}

	auditOpts := []audit.PublisherOption{
		audit.WithLogger(log),
		audit.WithAsyncBuffer(256),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka sink unavailable", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, audit.WithSink(sink))
	}
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), auditOpts...)
	defer auditor.Close()

	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, log, m)
	intakeClient := backend.NewIntakeClient(backendClient)
	userClient := backend.NewUserClient(backendClient)
	authClient := backend.NewAuthClient(backendClient)

	var places intakehandler.Autocompleter
	if cfg.PlacesBaseURL != "" {
		places = backend.NewPlacesClient(backend.NewClient(cfg.PlacesBaseURL, cfg.BackendTimeout, log, m))
	}

	var drafts draftstore.Store = draftstore.NewInMemoryStore(cfg.DraftTTL)
	var sessions session.Store = session.NewInMemoryStore()
	if redisClient != nil {
		drafts = draftstore.NewRedisStore(redisClient.Client, cfg.DraftTTL)
		sessions = session.NewRedisStore(redisClient.Client)
	}

	var processes l2l.Store = l2l.NewInMemoryStore()
	if db != nil {
		pgStore := l2l.NewPostgresStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("l2l schema setup failed", "error", err)
			os.Exit(1)
		}
		processes = pgStore
	}

	shares := sharetoken.NewService(cfg.ShareTokenSigningKey, cfg.ShareTokenTTL)
	intakeService := service.NewService(drafts, intakeClient, userClient,
		service.WithShareTokens(shares),
		service.WithAudit(auditor),
		service.WithMetrics(m),
		service.WithLogger(log),
	)
	sessionService := session.NewService(sessions, authClient, cfg.SessionTTL,
		session.WithAudit(auditor),
		session.WithLogger(log),
	)
	l2lService := l2l.NewService(processes,
		l2l.WithAudit(auditor),
		l2l.WithLogger(log),
	)

	router := httptransport.New(httptransport.Deps{
		Logger:   log,
		Metrics:  m,
		Sessions: sessionService,
		Intake:   intakehandler.New(intakeService, places, log),
		L2L:      l2lhandler.New(l2lService, log),
		Auth:     sessionhandler.New(sessionService, cfg.SessionTTL, log),
		Health:   health,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		if err := httpserver.Shutdown(srv, 10*time.Second); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}
}
