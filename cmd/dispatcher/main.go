package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/stwalsh4118/hoadues/internal/config"
	"github.com/stwalsh4118/hoadues/internal/database"
	"github.com/stwalsh4118/hoadues/internal/email"
	"github.com/stwalsh4118/hoadues/internal/events"
	"github.com/stwalsh4118/hoadues/internal/logger"
	"github.com/stwalsh4118/hoadues/internal/repository"
	"github.com/stwalsh4118/hoadues/internal/services"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateEmail(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid email configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	redisClient, err := events.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", err, map[string]interface{}{
			"addr": cfg.Redis.Addr,
		})
	}
	defer redisClient.Close()

	sender, err := email.NewSESSender(ctx, cfg.Email, log)
	if err != nil {
		log.Fatal("Failed to create email sender", err, map[string]interface{}{
			"region": cfg.Email.Region,
		})
	}

	repo := repository.NewAccountRepository(repository.NewPostgresStore(db))
	dispatchService := services.NewDispatchService(repo, sender, log)

	consumerName := cfg.Dispatch.Consumer
	if consumerName == "" {
		consumerName = defaultConsumerName()
	}

	consumer := events.NewConsumer(redisClient, events.ConsumerConfig{
		Stream:           cfg.Dispatch.Stream,
		Group:            cfg.Dispatch.Group,
		Consumer:         consumerName,
		DeadLetterStream: cfg.Dispatch.DeadLetterStream,
		MaxDeliveries:    int64(cfg.Dispatch.MaxDeliveries),
		ClaimIdle:        cfg.Dispatch.ClaimIdle,
		Block:            cfg.Dispatch.Block,
	}, log)

	log.Info("Starting dispatcher", map[string]interface{}{
		"environment":    cfg.Server.Env,
		"stream":         cfg.Dispatch.Stream,
		"group":          cfg.Dispatch.Group,
		"consumer":       consumerName,
		"test_recipient": cfg.Email.TestRecipient != "",
	})

	if err := consumer.Run(ctx, dispatchService.HandleEnvelope); err != nil {
		log.Fatal("Dispatcher stopped", err, nil)
	}

	log.Info("Dispatcher exited", nil)
}

// defaultConsumerName is unique per process so restarted workers do not
// inherit another worker's pending list by accident.
func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "dispatcher"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
