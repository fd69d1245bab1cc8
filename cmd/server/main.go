package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/app"
	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/config"
	"github.com/yukikurage/sprint-planner-api/internal/constants"
	"github.com/yukikurage/sprint-planner-api/internal/database"
	"github.com/yukikurage/sprint-planner-api/internal/handlers"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/middleware"
	"github.com/yukikurage/sprint-planner-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Global()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Info().Msg("OPENAI_API_KEY not set, task suggestions are disabled")
	}

	svc := app.NewServices(database.GetDB(), cfg, aiService)

	// Seed holiday calendars from file
	if cfg.HolidaysFile != "" {
		locations, err := calendar.LoadHolidayFile(cfg.HolidaysFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.HolidaysFile).Msg("Failed to load holiday file")
		}
		if err := svc.Calendars.ImportLocations(logger.WithRequestID(context.Background(), "startup"), locations); err != nil {
			log.Fatal().Err(err).Msg("Failed to import holidays")
		}
		log.Info().Int("locations", len(locations)).Msg("Holiday calendars imported")
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,                        // Redis pool size
		"tcp",                     // network type
		redisAddr,                 // Redis address from config
		"",                        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis store")
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.RegisterRoutes(r, svc, middleware.NewPerMinuteLimiter(cfg.AIRequestsPerMinute))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
