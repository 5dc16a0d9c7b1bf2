package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/flockdir/flock-backend/internal/config"
	"github.com/flockdir/flock-backend/internal/infrastructure/database"
	"github.com/flockdir/flock-backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "Refusing to seed a production database")
		os.Exit(1)
	}

	log := logger.NewForEnvironment(cfg.Server.Env, cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.Reset(ctx, db); err != nil {
		log.Fatal("Failed to reset database", zap.Error(err))
	}
	if err := database.SeedDemo(ctx, db, time.Now().Year(), log); err != nil {
		log.Fatal("Failed to seed database", zap.Error(err))
	}

	log.Info("Database seeded")
}
