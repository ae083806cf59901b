package main

import (
	"context"
	_ "time/tzdata"

	incidentshandler "ptcms/internal/incidents/handler"
	incidentsservice "ptcms/internal/incidents/service"
	mongoMigration "ptcms/internal/migrations/mongo"
	"ptcms/internal/orders/assignment"
	"ptcms/internal/orders/availability"
	"ptcms/internal/orders/events"
	"ptcms/internal/orders/form"
	"ptcms/internal/orders/handler"
	"ptcms/internal/orders/live"
	"ptcms/internal/orders/quote"
	"ptcms/internal/orders/service"
	"ptcms/internal/orders/validator"
	"ptcms/internal/reference"
	"ptcms/pkg/app"
	"ptcms/pkg/config"
	"ptcms/pkg/kafka"
	kafka_config "ptcms/pkg/kafka/config"
	kafka_middleware "ptcms/pkg/kafka/middleware"
)

const ServiceName = "orders"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetBackend()
	cfg.SetRedis()
	if cfg.UsesMongo() {
		cfg.SetMongo()
		migrate(cfg)
	}

	cfg.Log.Info("Starting Orders service")
	serverApp := app.NewApplication(cfg)

	publisher, metrics := initEvents(cfg, serverApp)
	orderHandler, incidentHandler := initHandlers(cfg, publisher)

	serverApp.SetApp(handler.NewHealthHandler(healthChecks(cfg, metrics), cfg.Log), orderHandler, incidentHandler)
	serverApp.Run()
}

func migrate(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Fatal("Mongo migration failed", "error", err)
	}
}

// initEvents returns a no-op publisher when no broker is configured.
func initEvents(cfg *config.Config, serverApp *app.Application) (events.Publisher, *kafka_middleware.Metrics) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("KAFKA_BROKERS not set, booking events disabled")
		return events.NoopPublisher{}, nil
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingTopic, kafkaCfg.BookingDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))

	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})
	return events.NewKafkaPublisher(producer, cfg.Log), metrics
}

func initHandlers(cfg *config.Config, publisher events.Publisher) (*handler.OrderHandler, *incidentshandler.IncidentHandler) {
	var cache reference.Cache
	if cfg.Client.Redis != nil {
		cache = reference.NewRedisCache(cfg.Client.Redis)
	}
	refs := reference.NewLoader(cfg.Client.Catalog, cache, cfg.ReferenceCacheTTL, cfg.Log)

	var cooldowns assignment.CooldownStore
	if cfg.CooldownStore == config.CooldownStoreMongo {
		cooldowns = assignment.NewMongoCooldownStore(cfg)
	} else {
		cooldowns = assignment.NewMemoryCooldownStore()
	}

	orderValidator := validator.NewOrderValidator(cfg.Log, cfg.Location)
	calculator := quote.NewCalculator(cfg.Client.Bookings, cfg.Location, cfg.Log)

	orderService := service.NewOrderService(service.Dependencies{
		Bookings:     cfg.Client.Bookings,
		Reference:    refs,
		Quoter:       calculator,
		Availability: availability.NewChecker(cfg.Client.Bookings, cfg.Location, cfg.Log),
		Assigner:     assignment.NewCoordinator(cfg.Client.Bookings, refs, cooldowns, cfg.AssignCooldown, cfg.Log),
		Saver:        form.NewSaver(cfg.Client.Bookings, orderValidator, publisher, cfg.Log),
		Events:       publisher,
	}, cfg)
	liveServer := live.NewServer(calculator, cfg.QuoteDebounce, cfg.CORSAllowedOrigins, cfg.Log)

	incidentService := incidentsservice.NewIncidentService(cfg.Client.Incidents, orderValidator, cfg)

	cfg.Log.Info("Order services initialized",
		"cooldown_store", cfg.CooldownStore,
		"reference_cache", cache != nil,
	)
	return handler.NewOrderHandler(orderService, liveServer, cfg.Log),
		incidentshandler.NewIncidentHandler(incidentService, cfg.Log)
}

func healthChecks(cfg *config.Config, metrics *kafka_middleware.Metrics) handler.HealthChecks {
	checks := handler.HealthChecks{
		Backend: cfg.Client.Backend.Ping,
		Events:  metrics,
	}
	if mongoClient := cfg.Client.Mongo; mongoClient != nil {
		checks.Database = func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		}
	}
	if redisClient := cfg.Client.Redis; redisClient != nil {
		checks.Cache = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
