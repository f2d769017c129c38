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
	"signal-enginev1/internal/execution"
	"signal-enginev1/internal/lock"
	"signal-enginev1/internal/logger"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/notification"
	"signal-enginev1/internal/pipeline"
	postgresstore "signal-enginev1/internal/store/postgres"
	redisstore "signal-enginev1/internal/store/redis"
	"signal-enginev1/internal/transport"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	logger.Init("placement", slog.LevelInfo)
	log.Println("[placement] starting...")

	// ---- Load config from env ----
	cfg := config.Load()
	market := model.MarketByName(cfg.Market)
	log.Printf("[placement] market=%s queue=%s", market.Name, market.QueueName)

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

	// ---- Redis (locks, price snapshots) ----
	rdb, err := redisstore.NewClient(redisstore.ClientConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("[placement] redis init failed: %v", err)
	}
	defer rdb.Close()

	// ---- Postgres (plans) ----
	store, err := postgresstore.Open(postgresstore.Config{
		DSN:          cfg.PostgresDSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}, market)
	if err != nil {
		log.Fatalf("[placement] postgres init failed: %v", err)
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
		log.Fatalf("[placement] aws config failed: %v", err)
	}
	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWSEndpoint != "" {
			o.BaseEndpoint = &cfg.AWSEndpoint
		}
	})
	queue := transport.NewSQSQueue(sqsClient)

	// ---- Notification channels ----
	var channels notification.Multi
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		channels = append(channels, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	var notify notification.Notifier
	if len(channels) > 0 {
		notify = channels
	}

	// ---- Placement stage ----
	locker := lock.New(rdb)
	snapshot := redisstore.NewSnapshot(rdb, market.KeyPrefix)
	placer := execution.NewPaperPlacer(2) // 2 bps simulated slippage

	stage := pipeline.NewPlacementStage(market, locker, store, snapshot, queue, placer, notify, prom,
		pipeline.PlacementConfig{
			LockTTL:       cfg.PlanLockTTL,
			PollBackoff:   cfg.PollBackoff,
			MaxPlanAge:    cfg.MaxPlanAge,
			MaxPriceDrift: cfg.MaxPriceDrift,
		})

	go stage.Run(ctx)
	log.Println("[placement] consumer ready")

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[placement] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	log.Println("[placement] shutdown complete.")
}
