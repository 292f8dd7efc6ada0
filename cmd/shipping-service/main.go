package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/shipping-service/api/routes"
	"github.com/angelmondragon/shipping-service/internal/notifications"
	"github.com/angelmondragon/shipping-service/internal/shipments"
	"github.com/angelmondragon/shipping-service/pkg/auth"
	"github.com/angelmondragon/shipping-service/pkg/config"
	"github.com/angelmondragon/shipping-service/pkg/idempotency"
	"github.com/angelmondragon/shipping-service/pkg/instance"
	"github.com/angelmondragon/shipping-service/pkg/logger"
	"github.com/angelmondragon/shipping-service/pkg/metrics"
	"github.com/angelmondragon/shipping-service/pkg/redis"
)

const serviceName = "shipping-service"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "shipping service stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "shipping service shut down gracefully")
}

func run(cfg *config.Config, logg *logger.Logger) error {
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBoot()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	publishMetrics := metrics.NewPublishMetrics(registry)

	tr, err := newTransport(bootCtx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := tr.Close(); err != nil {
			logg.Error(context.Background(), "error closing message transport", err)
		}
	}()

	store := shipments.NewMemoryStore(shipments.WithTransitionPolicy(cfg.Shipments.Policy()))
	events, err := shipments.NewEventPublisher(tr.queue,
		shipments.WithGroupFallback(cfg.Eventing.GroupFallback),
		shipments.WithPublishMetrics(publishMetrics),
	)
	if err != nil {
		return err
	}
	shipmentService, err := shipments.NewService(store, events, logg)
	if err != nil {
		return err
	}

	verifier, err := auth.NewJWTVerifier(cfg.JWT)
	if err != nil {
		return err
	}

	var consumer *notifications.Consumer
	if cfg.Consumer.Enabled {
		dispatcher, err := notifications.NewDispatcher(tr.topic, logg,
			notifications.WithGroupKey(cfg.Eventing.NotificationGroup),
			notifications.WithDispatchMetrics(publishMetrics),
		)
		if err != nil {
			return err
		}

		params := notifications.ConsumerParams{
			Queue:          tr.queue,
			Notifier:       dispatcher,
			Logger:         logg,
			Metrics:        metrics.NewConsumerMetrics(registry),
			PollInterval:   cfg.Consumer.PollInterval,
			BatchSize:      cfg.Consumer.BatchSize,
			WaitTime:       cfg.Consumer.WaitTime,
			Concurrency:    cfg.Consumer.Concurrency,
			HandlerTimeout: cfg.Consumer.HandlerTimeout,
		}
		if cfg.Redis.Enabled() {
			redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
			if err != nil {
				return err
			}
			defer func() {
				if err := redisClient.Close(); err != nil {
					logg.Error(context.Background(), "error closing redis", err)
				}
			}()
			guard, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
			if err != nil {
				return err
			}
			params.Guard = guard
			tr.pingers["redis"] = redisClient
		}

		consumer, err = notifications.NewConsumer(params)
		if err != nil {
			return err
		}
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			Shipments: shipmentService,
			Identity:  verifier,
			Gatherer:  registry,
			Readiness: tr.pingers,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	params := ServiceParams{Logger: logg, Server: server}
	if consumer != nil {
		params.Consumer = consumer
	}
	service, err := NewService(params)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"instance":  instance.GetID(),
		"transport": tr.driver,
		"consumer":  cfg.Consumer.Enabled,
	})
	logg.Info(ctx, "starting shipping service")

	return service.Run(ctx)
}
