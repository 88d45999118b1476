package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"push-service/internal/api"
	"push-service/internal/cache"
	"push-service/internal/config"
	"push-service/internal/db"
	"push-service/internal/delivery"
	"push-service/internal/kafka"
	"push-service/internal/logging"
	"push-service/internal/notification"
	"push-service/internal/providers"
	"push-service/internal/realtime"
	"push-service/internal/utils"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(logger)
	var wg sync.WaitGroup
	var sender api.Sender
	var history api.HistoryStore
	var svc *notification.Service
	var consumer *kafka.Consumer

	// Without credentials the API still serves health and answers sends with 500.
	configErr := cfg.Validate()
	if configErr != nil {
		logger.Errorf("Push pipeline disabled: %v", configErr)
	} else {
		// Connect to database
		dbConn, err := db.New(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Errorf("Failed to connect to database: %v", err)
			log.Fatalf("Database connection failed: %v", err)
		}
		defer dbConn.Close()
		history = dbConn

		var prefs notification.PreferenceStore = dbConn
		if cfg.Redis.Addr != "" {
			rdb, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
			if err != nil {
				logger.Warnf("Preference cache disabled: %v", err)
			} else {
				defer rdb.Close()
				prefs = cache.NewPreferenceCache(dbConn, rdb, cfg.Redis.PreferenceTTL, logger)
			}
		}

		fcm := providers.NewFCMClientFromConfig(cfg)
		instrumented := providers.NewInstrumentedSender(fcm.Name(), fcm, prometheus.DefaultRegisterer)
		engine := delivery.NewEngine(instrumented, cfg.Push.MaxRetries, utils.ExponentialBackoff{Base: time.Second}, logger)

		// Initialize notification service
		svc, err = notification.New(cfg, prefs, engine, dbConn, logger, notification.WithAlertSink(hub))
		if err != nil {
			log.Fatalf("Failed to init notification service: %v", err)
		}
		svc.Start(&wg)
		sender = svc

		// Initialize Kafka consumer
		if cfg.Kafka.Broker != "" {
			consumer = kafka.NewConsumer(strings.Split(cfg.Kafka.Broker, ","), cfg.Kafka.Topic, cfg.Kafka.GroupID, svc, logger)
			logger.Infof("Kafka consumer initialized with topic: %s", cfg.Kafka.Topic)
			consumer.Start(ctx, &wg)
		}
	}

	// Start API server
	handler := api.NewHandler(sender, history, hub, logger, configErr)
	server := &http.Server{
		Addr:              cfg.API.Port,
		Handler:           api.NewRouter(logger, cfg, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown failed: %v", err)
	}
	if consumer != nil {
		consumer.Close()
	}
	if svc != nil {
		svc.Stop()
	}
	wg.Wait()
	logger.Info("Service stopped")
}
