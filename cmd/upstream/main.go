package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"hyperleaf/adapters/memory"
	"hyperleaf/adapters/postgres"
	"hyperleaf/internal"
	"hyperleaf/internal/config"
	"hyperleaf/internal/migration"
	"hyperleaf/internal/upstream"
	"hyperleaf/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// upstream runs the stand-in prediction service used for local work and
// demos. It stores users and predictions in Postgres when DATABASE_URL is
// set and in memory otherwise.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		users       ports.UserRepository
		predictions ports.PredictionRepository
	)
	if dsn := appConfig.Upstream.DatabaseURL; dsn != "" {
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)

		if err := migration.NewRunner(upstream.SeedUsers()).Run(ctx, db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		users = postgres.NewUserRepository(db)
		predictions = postgres.NewPredictionRepository(db)
		logger.Info("[upstream] using postgres storage")
	} else {
		store := memory.NewStore()
		users, predictions = store, store
		logger.Info("[upstream] using in-memory storage")
	}

	server := upstream.NewServer(users, predictions, appConfig.Upstream.CORSOrigins, logger)
	if err := server.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	addr := ":" + appConfig.Upstream.Port
	logger.Info("[upstream] listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
