package http

import (
	"time"

	"github.com/flockdir/flock-backend/internal/delivery/http/handler"
	"github.com/flockdir/flock-backend/internal/delivery/http/middleware"
	"github.com/flockdir/flock-backend/internal/infrastructure/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	onboardingHandler   *handler.OnboardingHandler
	statsHandler        *handler.StatsHandler
	conversationHandler *handler.ConversationHandler
	authMiddleware      *middleware.AuthMiddleware
	corsOrigins         []string
	logger              *zap.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	onboardingHandler *handler.OnboardingHandler,
	statsHandler *handler.StatsHandler,
	conversationHandler *handler.ConversationHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		authHandler:         authHandler,
		userHandler:         userHandler,
		onboardingHandler:   onboardingHandler,
		statsHandler:        statsHandler,
		conversationHandler: conversationHandler,
		authMiddleware:      authMiddleware,
		corsOrigins:         corsOrigins,
		logger:              logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(logger.Recovery(r.logger))
	router.Use(logger.GinMiddleware(r.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     r.corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/google", r.authHandler.GoogleSignIn)
			auth.POST("/logout", r.authMiddleware.RequireAuth(), r.authHandler.Logout)
			auth.GET("/me", r.authMiddleware.RequireAuth(), r.authHandler.Me)
		}

		protected := api.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			users := protected.Group("/users")
			{
				users.GET("", r.userHandler.ListUsers)
				users.GET("/me", r.userHandler.GetMe)
				users.POST("/onboarding-progress", r.userHandler.SaveOnboardingProgress)
				users.GET("/:id", r.userHandler.GetUser)
				users.PUT("/:id", r.userHandler.UpdateUser)
			}

			onboarding := protected.Group("/onboarding")
			{
				onboarding.GET("", r.onboardingHandler.GetState)
				onboarding.POST("", r.onboardingHandler.Commit)
				onboarding.POST("/submit", r.onboardingHandler.Submit)
				onboarding.POST("/steps/class-year", r.onboardingHandler.ClassYear())
				onboarding.POST("/steps/post-grad-type", r.onboardingHandler.PostGradType())
				onboarding.POST("/steps/details", r.onboardingHandler.Details())
				onboarding.POST("/steps/location", r.onboardingHandler.Location())
				onboarding.POST("/steps/visibility", r.onboardingHandler.Visibility())
			}

			protected.GET("/locations", r.statsHandler.Locations)
			protected.GET("/stats/top-destinations", r.statsHandler.TopDestinations)

			conversations := protected.Group("/conversations")
			{
				conversations.GET("", r.conversationHandler.Inbox)
				conversations.GET("/unread-count", r.conversationHandler.UnreadCount)
				conversations.GET("/:userId", r.conversationHandler.GetConversation)
				conversations.POST("/:userId/messages", r.conversationHandler.SendMessage)
			}
		}
	}

	return router
}
