package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"medication-sku-service/internal/api"
	"medication-sku-service/internal/config"
	"medication-sku-service/internal/dbwait"
	"medication-sku-service/internal/events"
	"medication-sku-service/internal/jwt"
	"medication-sku-service/internal/repository"
	"medication-sku-service/internal/service"
	"medication-sku-service/internal/tracing"
	_ "medication-sku-service/migrations"
)

const serviceName = "medication-sku-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	api.SetupGlobalHandler(serviceName)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			handleMigrations(cfg)
			return
		case "wait_for_db":
			handleWaitForDB(cfg)
			return
		case "createsuperuser":
			handleCreateSuperuser(cfg, os.Args[2:])
			return
		default:
			log.Fatalf("unknown command %q", os.Args[1])
		}
	}

	shutdownTracer, err := tracing.InitTracerProvider(serviceName, cfg.OtelEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	db := connectDB(cfg)
	defer db.Close()

	var eventPublisher events.EventPublisher = events.NoopPublisher{}
	if cfg.NatsURL != "" {
		natsPublisher, err := events.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		eventPublisher = natsPublisher
		log.Println("Successfully connected to NATS.")
	}

	userRepo := repository.NewPostgresUserRepository(db)
	tokenRepo := repository.NewPostgresTokenRepository(db)
	skuRepo := repository.NewPostgresMedicationSKURepository(db)
	tagRepo := repository.NewPostgresTagRepository(db)

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, tokenRepo, tokens)
	skuService := service.NewMedicationSKUService(skuRepo, eventPublisher)
	// Runs before natsPublisher.Close so in-flight events are flushed.
	defer skuService.Drain()
	tagService := service.NewTagService(tagRepo)

	payloads := api.NewPayloadValidator()

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(requestid.New(), api.RequestContextMiddleware())
	app.Use(api.PrometheusMiddleware())
	app.Use(api.RateLimitMiddleware(cfg.RateLimitMax, cfg.RateLimitExpiration))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": serviceName})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api.SetupRoutes(app, authService, api.Handlers{
		Auth:          api.NewAuthHandler(authService, payloads),
		MedicationSKU: api.NewMedicationSKUHandler(skuService, payloads),
		Tag:           api.NewTagHandler(tagService, payloads),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during server shutdown: %v", err)
		}
	}()

	log.Printf("Listening %s on port %s", serviceName, cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

func connectDB(cfg *config.Config) *sqlx.DB {
	db, err := sqlx.Connect("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func handleWaitForDB(cfg *config.Config) {
	db, err := sql.Open("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dbwait.Wait(ctx, db, cfg.DBWaitInterval, os.Stdout); err != nil {
		log.Fatalf("gave up waiting for database: %v", err)
	}
}

func handleCreateSuperuser(cfg *config.Config, args []string) {
	if len(args) != 2 {
		log.Fatal("usage: server createsuperuser <email> <password>")
	}

	db := connectDB(cfg)
	defer db.Close()

	authService := service.NewAuthService(
		repository.NewPostgresUserRepository(db),
		repository.NewPostgresTokenRepository(db),
		jwt.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
	)

	user, err := authService.CreateSuperuser(context.Background(), args[0], args[1])
	if err != nil {
		log.Fatalf("failed to create superuser: %v", err)
	}

	fmt.Printf("Superuser %s created.\n", user.Email)
}

func handleMigrations(cfg *config.Config) {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
