package container

import (
	"context"
	"fmt"

	"github.com/flockdir/flock-backend/internal/config"
	deliveryhttp "github.com/flockdir/flock-backend/internal/delivery/http"
	"github.com/flockdir/flock-backend/internal/delivery/http/handler"
	"github.com/flockdir/flock-backend/internal/delivery/http/middleware"
	"github.com/flockdir/flock-backend/internal/infrastructure/database"
	"github.com/flockdir/flock-backend/internal/infrastructure/google"
	"github.com/flockdir/flock-backend/internal/infrastructure/server"
	"github.com/flockdir/flock-backend/internal/repository/postgres"
	redisrepo "github.com/flockdir/flock-backend/internal/repository/redis"
	"github.com/flockdir/flock-backend/internal/usecase/auth"
	"github.com/flockdir/flock-backend/internal/usecase/directory"
	"github.com/flockdir/flock-backend/internal/usecase/messaging"
	"github.com/flockdir/flock-backend/internal/usecase/onboarding"
	"github.com/flockdir/flock-backend/internal/usecase/stats"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client
	Server *server.Server
	Logger *zap.Logger
}

// NewContainer connects to the stores, runs migrations when enabled and
// wires every layer together.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	verifier, err := google.NewVerifier(ctx, cfg.Auth.GoogleClientID)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	// Repositories
	profileRepo := postgres.NewProfileRepository(db)
	locationRepo := postgres.NewLocationRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	transactor := postgres.NewTransactor(db)
	drafts := redisrepo.NewDraftStore(redisClient, cfg.Onboarding.DraftTTL)

	// Use cases
	authUseCase := auth.NewAuthUseCase(profileRepo, sessionRepo, verifier, auth.Options{
		JWTSecret:         cfg.Auth.JWTSecret,
		TokenExpiry:       cfg.Auth.TokenExpiry,
		SessionHashKey:    cfg.Auth.SessionHashKey,
		InstitutionDomain: cfg.Auth.InstitutionDomain,
	}, logger)
	onboardingUseCase := onboarding.NewOnboardingUseCase(profileRepo, locationRepo, drafts, transactor, logger)
	directoryUseCase := directory.NewDirectoryUseCase(profileRepo, locationRepo, transactor, logger)
	statsUseCase := stats.NewStatsUseCase(profileRepo, locationRepo)
	messagingUseCase := messaging.NewMessagingUseCase(conversationRepo, messageRepo, profileRepo, transactor, logger)

	// Handlers
	router := deliveryhttp.NewRouter(
		handler.NewAuthHandler(authUseCase, cfg.IsProduction(), logger),
		handler.NewUserHandler(directoryUseCase, onboardingUseCase, logger),
		handler.NewOnboardingHandler(onboardingUseCase, logger),
		handler.NewStatsHandler(statsUseCase, logger),
		handler.NewConversationHandler(messagingUseCase, logger),
		middleware.NewAuthMiddleware(authUseCase, logger),
		cfg.CORSOrigins,
		logger,
	)

	srv := server.NewServer(&cfg.Server, router.Setup(), logger)

	return &Container{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Server: srv,
		Logger: logger,
	}, nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Error closing Redis", zap.Error(err))
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
