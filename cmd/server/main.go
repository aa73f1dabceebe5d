package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arkodent/clinic/internal/api"
	"github.com/arkodent/clinic/internal/appointment"
	"github.com/arkodent/clinic/internal/audit"
	"github.com/arkodent/clinic/internal/auth"
	"github.com/arkodent/clinic/internal/config"
	"github.com/arkodent/clinic/internal/database"
	"github.com/arkodent/clinic/internal/patient"
	"github.com/arkodent/clinic/internal/settings"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// PostgreSQL holds the appointment ledger and user accounts
	pgPort := cfg.Database.Port
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		pgPort, err = strconv.Atoi(v)
		if err != nil {
			logger.Fatal("Invalid POSTGRES_PORT", zap.Error(err))
		}
	}
	postgresConfig := database.PostgresConfig{
		Host:        envOr("POSTGRES_HOST", cfg.Database.Host),
		Port:        pgPort,
		Database:    envOr("POSTGRES_DB", cfg.Database.Name),
		User:        envOr("POSTGRES_USER", cfg.Database.User),
		Password:    envOr("POSTGRES_PASSWORD", cfg.Database.Password),
		SSLMode:     envOr("POSTGRES_SSLMODE", "disable"),
		MaxPoolSize: 10,
		ConnTimeout: 5 * time.Second,
	}
	db, err := database.Connect(ctx, postgresConfig)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.Disconnect(db)

	// MongoDB holds the flat patient record documents
	mongoClient, err := database.ConnectMongo(ctx, database.MongoConfig{
		URI:                    envOr("MONGO_URI", cfg.Mongo.URI),
		Database:               cfg.Mongo.Database,
		MaxPoolSize:            10,
		MinPoolSize:            1,
		ConnectTimeout:         5 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	// Elasticsearch receives the audit trail
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{os.Getenv("ELASTICSEARCH_URL")},
		Username:  os.Getenv("ELASTICSEARCH_USERNAME"),
		Password:  os.Getenv("ELASTICSEARCH_PASSWORD"),
	})
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
	}
	auditService := audit.NewService(esClient)

	authService := auth.NewService(db, auditService, auth.ServiceConfig{
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenExpiry: 24 * time.Hour,
	})
	if err := authService.Initialize(ctx); err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}

	settingsStore := settings.NewStore()

	// Hydrate the in-memory appointment ledger from storage
	ledger := appointment.NewLedger()
	appointmentStore := appointment.NewStore(db)
	entries, err := appointmentStore.LoadAll(ctx)
	if err != nil {
		logger.Fatal("Failed to load appointment ledger", zap.Error(err))
	}
	ledger.ReplaceAll(entries)

	// Hydrate the patient collection from storage
	repo := patient.NewRepository()
	deriver := patient.NewDeriver(ledger, settingsStore)
	patientStore := patient.NewMongoStore(mongoClient.Database(cfg.Mongo.Database))
	patientService := patient.NewService(repo, patientStore, appointmentStore, deriver, auditService)
	if err := patientService.Hydrate(ctx); err != nil {
		logger.Fatal("Failed to load patient records", zap.Error(err))
	}

	handler := api.NewHandler(authService, patientService, auditService, settingsStore)
	router := api.NewRouter(handler, authService)
	engine := router.SetupRouter(logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	go func() {
		logger.Info("Starting server",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		if cfg.Server.TLS.Enabled {
			if err := srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		} else {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exiting")
}

func envOr(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
