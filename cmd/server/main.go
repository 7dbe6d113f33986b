package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rentwheels/booking-wizard/internal/application"
	"github.com/rentwheels/booking-wizard/internal/catalog"
	"github.com/rentwheels/booking-wizard/internal/config"
	"github.com/rentwheels/booking-wizard/internal/database"
	"github.com/rentwheels/booking-wizard/internal/domain/wizard"
	"github.com/rentwheels/booking-wizard/internal/events"
	"github.com/rentwheels/booking-wizard/internal/handler"
	"github.com/rentwheels/booking-wizard/internal/logger"
	"github.com/rentwheels/booking-wizard/internal/middleware"
	"github.com/rentwheels/booking-wizard/internal/repository"
)

const serviceName = "booking-wizard"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(&repository.BookingRecordModel{}, &repository.VehicleTypeCacheModel{}); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	var publisher application.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers, serviceName, log)
		defer func() { _ = producer.Close() }()
		publisher = producer
		log.Info("kafka producer enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		log.Info("kafka producer disabled, no brokers configured")
	}

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, catalog.Policy{
		ExcludedTypeNames: cfg.ExcludedTypeNames,
		BlockedModelNames: cfg.BlockedModelNames,
	})

	service := application.NewWizardService(
		catalogClient,
		repository.NewGormBookingRecordRepository(db),
		repository.NewGormVehicleTypeCache(db),
		publisher,
		wizard.NewStandardPricingStrategy(),
		log,
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	service.LoadTypes(startupCtx)
	cancelStartup()

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go service.StartJanitor(janitorCtx, cfg.SessionTTL)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(log),
		middleware.RecoveryMiddleware(log),
		middleware.CORSMiddleware(),
		middleware.SecurityHeadersMiddleware(),
	)

	healthHandler := handler.NewHealthHandler(db, serviceName)
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/v1")
	handler.NewWizardHandler(service).RegisterRoutes(api)
	handler.NewCatalogHandler(service).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting booking wizard service", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
