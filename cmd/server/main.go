package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	// Internal packages
	"github.com/chaitanyak175/attack-capital/internal/adapter/audio"
	"github.com/chaitanyak175/attack-capital/internal/adapter/http/fiber/handlers"
	"github.com/chaitanyak175/attack-capital/internal/adapter/http/fiber/middleware"
	"github.com/chaitanyak175/attack-capital/internal/adapter/model"
	"github.com/chaitanyak175/attack-capital/internal/service/classifier"
	"github.com/chaitanyak175/attack-capital/internal/service/health"
	"github.com/chaitanyak175/attack-capital/pkg/config"

	// Import metrics to register them
	_ "github.com/chaitanyak175/attack-capital/internal/observability/telemetry"
)

const (
	serviceName    = "amd-service"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting AMD Service",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Load the pretrained model. The process must not accept traffic
	// without it, so any failure here is fatal.
	amdModel, err := model.Load(model.Config{
		ModelPath:   cfg.Model.Path,
		CacheDir:    cfg.Model.CacheDir,
		Device:      cfg.Model.Device,
		LibraryPath: cfg.Model.LibraryPath,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to load model", zap.Error(err))
	}
	defer amdModel.Close()

	// 4. Load the model's companion feature-extraction configuration
	extractorCfg, err := model.LoadExtractorConfig(model.CheckpointDir(cfg.Model.Path, cfg.Model.CacheDir))
	if err != nil {
		logger.Fatal("Failed to load feature extractor config", zap.Error(err))
	}
	extractor := model.NewExtractor(extractorCfg)

	// 5. Initialize the Pipeline (Business Logic Layer)
	decoder := audio.NewDecoder(extractorCfg.SamplingRate)
	classifierService := classifier.NewService(decoder, extractor, amdModel, classifier.Config{
		MinDurationS: cfg.Audio.MinDurationS,
		MaxDurationS: cfg.Audio.MaxDurationS,
	}, logger)

	healthService := health.NewService(classifierService, serviceName, serviceVersion, logger)

	// 6. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.HTTP))

	// Metrics endpoint for Prometheus
	app.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	// Routes
	healthHandler := handlers.NewHealthHandler(healthService, classifierService, logger)
	app.Get("/health", healthHandler.Health)
	app.Get("/model-info", healthHandler.ModelInfo)

	predictHandler := handlers.NewPredictHandler(classifierService, logger)
	app.Post("/predict", predictHandler.Predict)
	app.Post("/predict-stream", predictHandler.Predict)
	app.Post("/predict-raw", predictHandler.PredictRaw)

	// 7. Start HTTP Server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		logger.Info("Starting HTTP Server", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
