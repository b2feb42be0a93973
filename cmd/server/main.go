package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	accounthandler "afridio/internal/account/handler"
	accountmetrics "afridio/internal/account/metrics"
	accountservice "afridio/internal/account/service"
	accountstore "afridio/internal/account/store"
	"afridio/internal/audit"
	jwttoken "afridio/internal/jwt_token"
	"afridio/internal/phone/generator"
	phonehandler "afridio/internal/phone/handler"
	phonemetrics "afridio/internal/phone/metrics"
	phoneservice "afridio/internal/phone/service"
	phonestore "afridio/internal/phone/store"
	"afridio/internal/platform/config"
	"afridio/internal/platform/httpserver"
	"afridio/internal/platform/logger"
	"afridio/internal/platform/metrics"
	"afridio/internal/platform/redis"
	"afridio/internal/sms"
	httptransport "afridio/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	phoneStore, accountStore, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	gateway, err := buildGateway(cfg.SMS, log)
	if err != nil {
		return err
	}

	sink, closeSink, err := buildAuditSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()
	auditWorker := audit.NewWorker(sink, 256, log)

	gen, err := generator.New(cfg.Verification.CodeLength)
	if err != nil {
		return err
	}

	phoneService := phoneservice.New(
		phoneStore,
		gateway,
		gen,
		sms.NewComposer(cfg.SMS.AppName),
		cfg.Verification,
		phoneservice.WithLogger(log),
		phoneservice.WithMetrics(phonemetrics.New()),
		phoneservice.WithAuditPublisher(auditWorker),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, "afridio", "afridio-api")
	accountService := accountservice.New(
		accountStore,
		phoneService,
		jwtService,
		cfg.JWT.AccessTokenTTL,
		accountservice.WithLogger(log),
		accountservice.WithMetrics(accountmetrics.New()),
		accountservice.WithAuditPublisher(auditWorker),
	)

	httpMetrics := metrics.New()
	router := httptransport.NewRouter(
		accounthandler.New(accountService, log, httpMetrics),
		phonehandler.New(phoneService, log, httpMetrics, jwttoken.NewJWTServiceAdapter(jwtService)),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return auditWorker.Run(ctx)
	})
	group.Go(func() error {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// buildStores selects the persistence backend: postgres when DATABASE_URL is
// set, redis for verification records when REDIS_URL is set, in-memory
// otherwise.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (phonestore.Store, accountstore.Store, func(), error) {
	noop := func() {}

	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, noop, fmt.Errorf("ping postgres: %w", err)
		}
		log.Info("using postgres stores")
		return phonestore.NewPostgres(db), accountstore.NewPostgres(db), func() { db.Close() }, nil
	}

	if cfg.Redis.URL != "" {
		client, err := redis.New(cfg.Redis)
		if err != nil {
			return nil, nil, noop, err
		}
		log.Info("using redis verification store")
		// Accounts stay in memory; only verification records need the
		// shared, expiring store in this deployment shape.
		return phonestore.NewRedis(client.Client), accountstore.NewMemory(), func() { client.Close() }, nil
	}

	log.Info("using in-memory stores")
	return phonestore.NewMemory(), accountstore.NewMemory(), noop, nil
}

func buildGateway(cfg config.SMS, log *slog.Logger) (sms.Gateway, error) {
	switch cfg.Backend {
	case "console", "":
		return sms.NewConsoleGateway(log), nil
	case "twilio":
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFrom == "" {
			return nil, errors.New("twilio backend requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER")
		}
		twilio := sms.NewTwilioGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, cfg.Timeout)
		// The breaker flags provider outages in the logs; failed dispatches
		// still surface to the caller so nobody waits on a code that was
		// never sent.
		return sms.NewMonitoredGateway(twilio, log), nil
	default:
		return nil, fmt.Errorf("unknown SMS backend %q", cfg.Backend)
	}
}

func buildAuditSink(ctx context.Context, cfg config.Config, log *slog.Logger) (audit.Sink, func(), error) {
	noop := func() {}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("audit events kept in-process")
		return audit.NewPublisher(audit.NewMemoryStore()), noop, nil
	}
	publisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
	if err != nil {
		return nil, noop, fmt.Errorf("kafka audit publisher: %w", err)
	}
	log.Info("audit events published to kafka", "topic", cfg.Kafka.AuditTopic)
	return publisher, publisher.Close, nil
}
