package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fieldmate/fieldmate-backend/internal/handlers"
	"github.com/fieldmate/fieldmate-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	ActivityHandler   *handlers.ActivityHandler
	SuggestionHandler *handlers.SuggestionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/clients", cfg.ActivityHandler.CreateClient)
	protected.GET("/clients", cfg.ActivityHandler.ListClients)
	protected.POST("/visits", cfg.ActivityHandler.CreateVisit)
	protected.GET("/visits", cfg.ActivityHandler.ListVisits)
	protected.POST("/notes", cfg.ActivityHandler.CreateNote)

	protected.POST("/suggestions/analyze", cfg.SuggestionHandler.Analyze)
	protected.GET("/suggestions", cfg.SuggestionHandler.List)
	protected.GET("/suggestions/urgent", cfg.SuggestionHandler.Urgent)
	protected.GET("/suggestions/briefing", cfg.SuggestionHandler.Briefing)
	protected.POST("/suggestions/:id/complete", cfg.SuggestionHandler.Complete)
	protected.POST("/suggestions/:id/postpone", cfg.SuggestionHandler.Postpone)
	protected.POST("/suggestions/:id/ignore", cfg.SuggestionHandler.Ignore)

	return router
}
