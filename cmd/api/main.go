package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/ficr/insight/internal/api/handlers"
	"github.com/ficr/insight/internal/cache/redis"
	"github.com/ficr/insight/internal/metrics"
	"github.com/ficr/insight/internal/middleware/ratelimit"
	"github.com/ficr/insight/internal/middleware/security"
	"github.com/ficr/insight/internal/middleware/validation"
	"github.com/ficr/insight/internal/pipeline"
	"github.com/ficr/insight/internal/queries"
	"github.com/ficr/insight/internal/reference"
	"github.com/ficr/insight/internal/report"
	"github.com/ficr/insight/internal/sparql"
	"github.com/ficr/insight/internal/storage/sqlite"
	"github.com/ficr/insight/pkg/config"
	appLogger "github.com/ficr/insight/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting FiCR Insight API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Caching is an optimization; the server runs without Redis.
	var reportCache report.Cache
	var queryCache handlers.QueryCache
	var invalidator handlers.ReportInvalidator
	redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		reportCache = redisClient
		queryCache = redisClient
		invalidator = redisClient
	}

	catalog, err := queries.Load()
	if err != nil {
		appLogger.Fatal("Failed to load query catalog", zap.Error(err))
	}

	vocab, err := reference.Load()
	if err != nil {
		appLogger.Fatal("Failed to load vocabulary", zap.Error(err))
	}

	sparqlClient := sparql.NewClient(
		cfg.GraphDB.Endpoint,
		cfg.GraphDB.PostStyle,
		cfg.GraphDB.Username,
		cfg.GraphDB.Password,
	)

	reportService := report.NewService(
		sparqlClient,
		catalog,
		reportCache,
		report.Options{IncludeDoorObstructionInOverall: cfg.Report.IncludeDoorObstructionInOverall},
		time.Duration(cfg.Report.CacheTTLSec)*time.Second,
	)

	converter := pipeline.NewConverterClient(
		cfg.Pipeline.ConverterURL,
		time.Duration(cfg.Pipeline.TimeoutSec)*time.Second,
	)
	llmClient := pipeline.NewLLMClient(cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.TimeoutSec)
	pipelineService := pipeline.NewService(converter, sparqlClient, catalog, llmClient)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{Logger: appLogger.GetLogger()})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{Logger: appLogger.GetLogger()}))

	queryHandler := handlers.NewQueryHandler(
		sparqlClient,
		catalog,
		sqliteClient,
		queryCache,
		time.Duration(cfg.Report.CacheTTLSec)*time.Second,
	)
	reportHandler := handlers.NewReportHandler(reportService)
	pipelineHandler := handlers.NewPipelineHandler(
		pipelineService,
		sqliteClient,
		invalidator,
		time.Duration(cfg.Pipeline.TimeoutSec+cfg.LLM.TimeoutSec)*time.Second,
	)
	referenceHandler := handlers.NewReferenceHandler(vocab)

	api := app.Group("/api/v1")

	api.Post("/query", queryHandler.HandleQuery)
	api.Get("/query/presets", queryHandler.GetPresets)
	api.Get("/query/history", queryHandler.GetQueryHistory)

	api.Get("/report", reportHandler.GetReport)
	api.Get("/report/print", reportHandler.GetPrintReport)

	api.Post("/pipeline", pipelineHandler.RunPipeline)
	api.Get("/providers", pipelineHandler.GetProviders)
	api.Get("/sample-surveys", pipelineHandler.GetSampleSurveys)
	api.Get("/sample-surveys/:slug", pipelineHandler.GetSampleSurvey)

	api.Get("/reference/classes", referenceHandler.GetClasses)
	api.Get("/reference/properties", referenceHandler.GetProperties)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	// Readiness probes the repository with a minimal query.
	api.Get("/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		if _, err := sparqlClient.Query(ctx, "SELECT ?s WHERE { ?s ?p ?o } LIMIT 1"); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
