package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/arkodent/clinic/internal/audit"
	"github.com/arkodent/clinic/internal/auth"
	"github.com/arkodent/clinic/internal/database"
)

func main() {
	username := flag.String("username", "", "Admin username")
	password := flag.String("password", "", "Admin password")
	email := flag.String("email", "", "Admin email")
	flag.Parse()

	if *username == "" || *password == "" || *email == "" {
		log.Fatal("Username, password, and email are required. Use -username, -password, and -email flags")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{os.Getenv("ELASTICSEARCH_URL")},
		Username:  os.Getenv("ELASTICSEARCH_USERNAME"),
		Password:  os.Getenv("ELASTICSEARCH_PASSWORD"),
	})
	if err != nil {
		log.Fatalf("Failed to connect to Elasticsearch: %v", err)
	}
	auditService := audit.NewService(esClient)

	postgresConfig := database.PostgresConfig{
		Host:        os.Getenv("POSTGRES_HOST"),
		Port:        5432,
		Database:    os.Getenv("POSTGRES_DB"),
		User:        os.Getenv("POSTGRES_USER"),
		Password:    os.Getenv("POSTGRES_PASSWORD"),
		SSLMode:     os.Getenv("POSTGRES_SSLMODE"),
		MaxPoolSize: 1,
		ConnTimeout: 5 * time.Second,
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, postgresConfig)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.Disconnect(db)

	authService := auth.NewService(db, auditService, auth.ServiceConfig{
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenExpiry: 24 * time.Hour,
	})

	if err := authService.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	user, err := authService.Register(ctx, *username, *email, *password, []string{auth.RoleAdmin})
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Printf("Successfully created admin user:\n")
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Roles: %v\n", user.Roles)

	// Verify the stored hash round-trips
	var hashedPassword string
	err = db.QueryRow(ctx, "SELECT password_hash FROM users WHERE username = $1", *username).Scan(&hashedPassword)
	if err != nil {
		log.Fatalf("Failed to get user password hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(*password)); err != nil {
		log.Printf("WARNING: Password verification failed: %v", err)
	} else {
		log.Printf("Password hash verified successfully")
	}
}
