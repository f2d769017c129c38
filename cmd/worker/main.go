package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"signal-enginev1/config"
	"signal-enginev1/internal/continuity"
	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/lock"
	"signal-enginev1/internal/logger"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/pipeline"
	"signal-enginev1/internal/scheduler"
	postgresstore "signal-enginev1/internal/store/postgres"
	redisstore "signal-enginev1/internal/store/redis"
	"signal-enginev1/internal/transport"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	logger.Init("worker", slog.LevelInfo)
	log.Println("[worker] starting...")

	// ---- Load config from env ----
	cfg := config.Load()
	market := model.MarketByName(cfg.Market)
	intervals := cfg.ParseIntervals()
	log.Printf("[worker] market=%s intervals=%v", market.Name, intervals)

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Redis (cache, locks, broker) ----
	rdb, err := redisstore.NewClient(redisstore.ClientConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("[worker] redis init failed: %v", err)
	}
	defer rdb.Close()

	// ---- Postgres (store of record) ----
	store, err := postgresstore.Open(postgresstore.Config{
		DSN:          cfg.PostgresDSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}, market)
	if err != nil {
		log.Fatalf("[worker] postgres init failed: %v", err)
	}
	defer store.Close()

	health.StartLivenessChecker(ctx, rdb, store.DB(), 10*time.Second)

	// ---- SQS (durable plan queue) ----
	awsOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSEndpoint != "" {
		// local emulator: static dummy credentials, no metadata lookup
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		log.Fatalf("[worker] aws config failed: %v", err)
	}
	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWSEndpoint != "" {
			o.BaseEndpoint = &cfg.AWSEndpoint
		}
	})
	queue := transport.NewSQSQueue(sqsClient)

	// ---- Pipeline collaborators ----
	locker := lock.New(rdb)
	cache := redisstore.NewCache(rdb, market.KeyPrefix)
	broker := transport.NewRedisBroker(rdb)

	validator := continuity.NewValidator(cfg.FlushGrace)
	engine := indicator.NewEngine(indicator.DefaultSpecs(), validator, cache, cfg.IndicatorGrace)

	indicators := pipeline.NewIndicatorsStage(market, locker, engine, store, broker, prom, cfg.StageLockTTL)
	strategies := pipeline.NewStrategiesStage(market, locker, cache, store, store, broker, prom, cfg.StageLockTTL)
	plans := pipeline.NewPlansStage(market, locker, store, store, store, queue, prom, pipeline.PlansConfig{
		LockTTL:       cfg.StageLockTTL,
		LookbackSteps: cfg.LookbackSteps,
		OrderAmount:   cfg.OrderAmount,
	})

	worker := pipeline.NewWorker(broker)
	worker.Register(market.Topic("klines"), indicators)
	worker.Register(market.Topic("indicators"), strategies)
	worker.Register(market.Topic("strategies"), plans)

	// ---- Self-healing sweep ----
	sweep := scheduler.NewSweep(market, store, broker, prom, intervals)
	sched := scheduler.New()
	sched.Register(sweep.Job(scheduler.Every(cfg.SweepEvery)))
	sched.Start()

	// ---- Run event loop ----
	go func() {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("[worker] fatal: %v", err)
		}
	}()
	log.Println("[worker] pipeline ready")

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[worker] shutdown signal received, cleaning up...")
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	log.Println("[worker] shutdown complete.")
}
