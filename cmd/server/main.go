package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/config"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/internal/handlers"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/database"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/events"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/kvs"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/repositories"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/services"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/startup"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing/exporters"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := newZapLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
}

func newZapLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	zc.Level = level
	return zc.Build()
}

func run(ctx context.Context, cfg config.Config, logger ectologger.Logger) error {
	shutdownTracing, err := setupTracing(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	medium, keyPrefix, err := newKVS(cfg, logger)
	if err != nil {
		return err
	}

	bus := events.NewBus(logger)
	var publisher *events.KafkaPublisher
	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		writer := events.NewKafkaWriter(events.KafkaConfig{
			Brokers:   brokers,
			Topic:     cfg.KafkaChangesTopic,
			QueueSize: cfg.KafkaQueueSize,
		})
		publisher = events.NewKafkaPublisher(writer, cfg.KafkaQueueSize, logger)
		bus.AddSink(publisher)
	}

	var engine storage.Engine
	if cfg.DatabaseDriver != "" {
		engine = storage.SQLEngine{
			Driver: cfg.DatabaseDriver,
			DSN:    cfg.DatabaseDSN,
			Pool: database.PoolConfig{
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			},
			Logger: logger,
		}
	}

	store := storage.New(storage.Options{
		Platform:           storage.Platform(cfg.Platform),
		Engine:             engine,
		BridgeProbe:        bridgeProbe(cfg.BridgeURL),
		BridgePollInterval: cfg.BridgePollInterval,
		BridgeTimeout:      cfg.BridgeTimeout,
		ReadyTimeout:       cfg.StorageReadyTimeout,
		KVS:                medium,
		KeyPrefix:          keyPrefix,
	}, bus, logger)

	pages := repositories.NewSocialMediaPageRepository(store, logger)
	posts := repositories.NewSocialMediaPostRepository(store, logger)
	campaigns := repositories.NewSocialMediaCampaignRepository(store, logger)
	integrations := services.NewIntegrationsService(repositories.NewIntegrationRepository(store, logger), bus, logger)
	defer integrations.Close()

	e := handlers.NewRouter(handlers.Dependencies{
		AppName:      cfg.AppName,
		Version:      cfg.Version,
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
		Logger:       logger,
		Store:        store,
		KVS:          medium,
		Integrations: integrations,
		Social:       services.NewSocialMediaService(store, pages, posts, campaigns, logger),
		Pages:        pages,
		Posts:        posts,
		Campaigns:    campaigns,
		Sessions:     kvs.NewSessionStore(medium),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	serverErr := make(chan error, 1)

	s := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	s.AddDependency(startup.Dependency{
		Name: "kvs",
		StartFunc: func(ctx context.Context) error {
			return medium.Ping(ctx)
		},
		StopFunc: func(context.Context) error {
			return medium.Close()
		},
	})
	s.AddDependency(startup.Dependency{
		Name: "events",
		StopFunc: func(context.Context) error {
			if publisher == nil {
				return nil
			}
			return publisher.Close()
		},
	})
	s.AddDependency(startup.Dependency{
		Name:     "storage",
		Requires: []string{"kvs", "events"},
		StartFunc: func(context.Context) error {
			// selection outlives startup, so it runs on the process context
			store.Start(ctx)
			return nil
		},
		StopFunc: func(context.Context) error {
			return store.Close()
		},
	})
	s.AddDependency(startup.Dependency{
		Name:     "http",
		Requires: []string{"storage"},
		StartFunc: func(context.Context) error {
			go func() {
				logger.WithFields(map[string]any{"addr": server.Addr}).Info("http server listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})

	if err := s.Start(ctx); err != nil {
		return errors.Wrap(err, "startup failed")
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-serverErr:
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := s.Stop(sctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// newKVS opens the configured medium and returns the prefix the storage layer
// still has to add to bucket keys. Redis namespaces every key itself.
func newKVS(cfg config.Config, logger ectologger.Logger) (kvs.Store, string, error) {
	switch cfg.KVSDriver {
	case "redis":
		store, err := kvs.NewRedisStore(kvs.RedisConfig{
			Host:      cfg.RedisHost,
			Port:      cfg.RedisPort,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KVSKeyPrefix,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	case "", "memory":
		return kvs.NewMemoryStore(), cfg.KVSKeyPrefix, nil
	default:
		return nil, "", errors.Errorf("unsupported KVS_DRIVER %q", cfg.KVSDriver)
	}
}

// bridgeProbe reports the bridge present once url answers 2xx. An empty url
// never becomes available.
func bridgeProbe(url string) storage.BridgeProbe {
	if url == "" {
		return nil
	}
	client := &http.Client{Timeout: time.Second}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode < 300
	}
}

func setupTracing(ctx context.Context, cfg config.Config, logger ectologger.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	otlp := exporters.OTLPConfig{Endpoint: cfg.TracingEndpoint, Insecure: cfg.TracingInsecure}
	switch strings.ToLower(cfg.TracingExporter) {
	case "":
		return noop, nil
	case "console":
	case "otlp-grpc":
		otlp.Enabled, otlp.Protocol = true, "grpc"
	case "otlp-http":
		otlp.Enabled, otlp.Protocol = true, "http"
	default:
		return noop, errors.Errorf("unsupported TRACING_EXPORTER %q", cfg.TracingExporter)
	}

	exporter, err := exporters.NewSpanExporter(ctx, otlp, logger)
	if err != nil {
		return noop, errors.Wrap(err, "failed to create span exporter")
	}
	tp := exporters.NewTracerProvider(cfg.AppName, exporter, cfg.TracingSampling)
	tracing.SetTracer(tp.Tracer(cfg.AppName))
	return tp.Shutdown, nil
}
