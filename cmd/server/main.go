package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kgo"

	"fairgate/internal/fairness"
	"fairgate/internal/ingest"
	"fairgate/internal/monitor"
	"fairgate/internal/monitor/cache"
	"fairgate/internal/monitor/handler"
	"fairgate/internal/monitor/metrics"
	alertstore "fairgate/internal/monitor/store/alert"
	auditstore "fairgate/internal/monitor/store/audit"
	"fairgate/internal/notify"
	"fairgate/internal/platform/config"
	"fairgate/internal/platform/httpserver"
	"fairgate/internal/platform/logger"
	"fairgate/internal/platform/middleware"
	platformredis "fairgate/internal/platform/redis"
	httptransport "fairgate/internal/transport/http"
)

// main wires dependencies explicitly and keeps the server lifecycle small.
// Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calc := fairness.NewCalculator(fairness.WithLogger(log))
	thresholds := monitor.NewThresholdStore(monitor.DefaultThresholds(), time.Now())
	m := metrics.New()

	var (
		alerts monitor.AlertStore = alertstore.NewMemory()
		audits monitor.AuditStore = auditstore.NewMemory()
	)
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("pgx pool setup failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		alerts = alertstore.NewPostgres(pool)

		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		defer db.Close()
		audits = auditstore.NewPostgres(db)
	}

	var results monitor.ResultCache = cache.NewMemory()
	checks := map[string]handler.HealthChecker{}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		results = cache.NewRedis(redisClient.Client)
		checks["redis"] = redisClient.Health
	}

	opts := []monitor.Option{
		monitor.WithLogger(log),
		monitor.WithMetrics(m),
		monitor.WithWorkerLimit(cfg.Monitor.WorkerLimit),
		monitor.WithCacheTTL(cfg.Monitor.CacheTTL),
	}

	var kafkaClient *kgo.Client
	if len(cfg.Kafka.Seeds) > 0 {
		kafkaClient, err = kgo.NewClient(
			kgo.SeedBrokers(cfg.Kafka.Seeds...),
			kgo.ConsumerGroup(cfg.Kafka.ConsumerGroup),
			kgo.ConsumeTopics(cfg.Kafka.ProcessTopic),
		)
		if err != nil {
			log.Error("kafka client setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
		opts = append(opts, monitor.WithNotifier(notify.NewKafka(kafkaClient,
			notify.WithTopic(cfg.Kafka.AlertTopic),
			notify.WithLogger(log),
		)))
		checks["kafka"] = func(ctx context.Context) error { return kafkaClient.Ping(ctx) }
	}

	service, err := monitor.NewService(calc, alerts, audits, results, thresholds, opts...)
	if err != nil {
		log.Error("service setup failed", "error", err)
		os.Exit(1)
	}

	if kafkaClient != nil {
		consumer := ingest.New(kafkaClient, service,
			ingest.WithTopic(cfg.Kafka.ProcessTopic),
			ingest.WithLogger(log),
		)
		if err := consumer.EnsureTopic(ctx, 3, 1); err != nil {
			log.Error("topic setup failed", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("ingest consumer stopped", "error", err)
			}
		}()
	}

	sweeper := monitor.NewSweeper(service, cfg.Monitor.SweepInterval,
		monitor.WithSweepLogger(log),
		monitor.WithSweepFanout(cfg.Monitor.SweepFanout),
	)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("sweeper stopped", "error", err)
		}
	}()

	h := handler.New(service, log, checks)
	validator := middleware.NewHMACValidator(cfg.Server.JWTSigningKey)
	router := httptransport.NewRouter(h, validator, log)
	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("starting fairgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
