package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fieldmate/fieldmate-backend/internal/clients/redis"
	"github.com/fieldmate/fieldmate-backend/internal/data/db"
	"github.com/fieldmate/fieldmate-backend/internal/data/repos"
	"github.com/fieldmate/fieldmate-backend/internal/fieldcrypt"
	"github.com/fieldmate/fieldmate-backend/internal/handlers"
	"github.com/fieldmate/fieldmate-backend/internal/middleware"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
	"github.com/fieldmate/fieldmate-backend/internal/server"
	"github.com/fieldmate/fieldmate-backend/internal/services"
	"github.com/fieldmate/fieldmate-backend/internal/services/triggers"
	"github.com/fieldmate/fieldmate-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	scanIntervalMin := utils.GetEnvAsInt("SCAN_INTERVAL_MINUTES", 360, log)
	triggerConfig := triggers.FromEnv(log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Field crypto
	cipher, err := fieldcrypt.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init field crypto", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	clientRepo := repos.NewClientRepo(thePG, log)
	visitRepo := repos.NewVisitRepo(thePG, log)
	noteRepo := repos.NewNoteRepo(thePG, log)
	suggestionRepo := repos.NewSuggestionRepo(thePG, log)

	// Optional briefing cache
	var briefingCache services.BriefingCache
	if cache, err := redis.NewBriefingCache(log); err != nil {
		log.Warn("Briefing cache disabled", "error", err)
	} else {
		briefingCache = cache
	}

	// Services
	log.Info("Setting up services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	activityService := services.NewActivityService(thePG, log, clientRepo, visitRepo, noteRepo, cipher)
	suggestionService := services.NewSuggestionService(thePG, log, suggestionRepo, visitRepo, noteRepo, clientRepo, cipher, triggerConfig, briefingCache)

	scanWorker := services.NewScanWorker(log, userRepo, suggestionService, time.Duration(scanIntervalMin)*time.Minute)
	scanWorker.Start(context.Background())

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	activityHandler := handlers.NewActivityHandler(log, activityService)
	suggestionHandler := handlers.NewSuggestionHandler(log, suggestionService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		ActivityHandler:   activityHandler,
		SuggestionHandler: suggestionHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
