package main

import (
	"context"

	bookinghandler "deskbook/internal/bookings/handler"
	bookingrepo "deskbook/internal/bookings/repository"
	bookingservice "deskbook/internal/bookings/service"
	bookingvalidator "deskbook/internal/bookings/validator"
	"deskbook/internal/events"
	officehandler "deskbook/internal/offices/handler"
	officerepo "deskbook/internal/offices/repository"
	officeservice "deskbook/internal/offices/service"
	officevalidator "deskbook/internal/offices/validator"
	userhandler "deskbook/internal/users/handler"
	userrepo "deskbook/internal/users/repository"
	userservice "deskbook/internal/users/service"
	uservalidator "deskbook/internal/users/validator"
	"deskbook/pkg/app"
	"deskbook/pkg/config"
	"deskbook/pkg/kafka"
	kafka_config "deskbook/pkg/kafka/config"
	kafka_middleware "deskbook/pkg/kafka/middleware"
	"deskbook/pkg/sealer"
	"deskbook/pkg/telemetry"

	"go.opentelemetry.io/otel"
)

const ServiceName = "deskbook"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting deskbook service")

	shutdownTelemetry := telemetry.Setup(cfg.Log, ServiceName)
	cfg.SetMongo()

	publisher, closePublisher := initPublisher(cfg)

	cursors, err := sealer.New(cfg.CursorSecret)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize cursor sealer", "error", err)
	}

	users := userrepo.NewMongoUserRepository(cfg)
	userService := userservice.NewUserService(users, uservalidator.NewUserValidator(cfg.Log), publisher, cfg)

	officeService := officeservice.NewOfficeService(
		officerepo.NewMongoOfficeRepository(cfg),
		officevalidator.NewOfficeValidator(cfg.Log),
		publisher,
		cfg,
	)

	bookingService := bookingservice.NewBookingService(
		bookingrepo.NewMongoBookingRepository(cfg),
		users,
		cursors,
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg, userService)
	serverApp.OnShutdown("telemetry", shutdownTelemetry)
	serverApp.OnShutdown("event publisher", closePublisher)
	serverApp.SetApp(
		officehandler.NewOfficeHandler(officeService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		userhandler.NewUserHandler(userService, cfg.Log),
	)
	serverApp.Run()
}

func initPublisher(cfg *config.Config) (events.Publisher, func(context.Context) error) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Domain events disabled")
		return events.NopPublisher{}, func(context.Context) error { return nil }
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		metrics, err := kafka_middleware.NewMetrics(otel.Meter("deskbook/kafka"))
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka metrics", "error", err)
		}
		producer.Use(metrics.ProducerMiddleware())
	}

	cfg.Log.Info("Domain events enabled", "topic", producer.Topic())
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log), func(context.Context) error {
		return producer.Close()
	}
}
