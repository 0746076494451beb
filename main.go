package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rzaleman/taskman-be/internal/api"
	"github.com/rzaleman/taskman-be/internal/auth"
	"github.com/rzaleman/taskman-be/internal/config"
	"github.com/rzaleman/taskman-be/internal/database"
	"github.com/rzaleman/taskman-be/internal/logger"
	"github.com/rzaleman/taskman-be/internal/services"
	"github.com/rzaleman/taskman-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.AppEnv)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret)
	userService := services.NewUserService(db, tokenManager)
	taskService := services.NewTaskService(db)
	eventService := services.NewEventService(db)
	emailService := services.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppEnv == "dev")
	notifier := services.NewNotifier(emailService, 2)

	authenticator := auth.NewAuthenticator(tokenManager, userService)

	// Set up router
	router := api.NewRouter(api.Deps{
		Users:         userService,
		Tasks:         taskService,
		Events:        eventService,
		Notifier:      notifier,
		Hub:           hub,
		Authenticator: authenticator,
		AvatarMaxSize: cfg.AvatarMaxSize,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Let queued notification email drain before exit.
	notifier.Stop()

	log.Info().Msg("Server exiting")
}
