package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"deskbook/internal/activity/handler"
	"deskbook/internal/activity/repository"
	"deskbook/pkg/config"
	"deskbook/pkg/kafka"
	kafka_config "deskbook/pkg/kafka/config"
	kafka_middleware "deskbook/pkg/kafka/middleware"
	"deskbook/pkg/telemetry"

	"go.opentelemetry.io/otel"
)

const ServiceName = "deskbook-activity"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting activity worker")

	shutdownTelemetry := telemetry.Setup(cfg.Log, ServiceName)
	cfg.SetMongo()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	repo := repository.NewMongoActivityRepository(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.WriteTimeout)
	activityHandler := handler.NewActivityHandler(repo, cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		cfg.ActivityGroupID,
		cfg.BookingEventsDLQ,
		activityHandler.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		metrics, err := kafka_middleware.NewMetrics(otel.Meter("deskbook/kafka"))
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka metrics", "error", err)
		}
		consumer.Use(metrics.ConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming booking events",
		"topic", cfg.BookingEventsTopic,
		"group", cfg.ActivityGroupID,
		"dlq", cfg.BookingEventsDLQ,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped unexpectedly", "error", err)
	}

	cfg.Log.Info("Shutting down activity worker")
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		cfg.Log.Error("Failed to shut down telemetry", "error", err)
	}
	cfg.GracefulShutdown()
}
