package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/parley-be/internal/api"
	"github.com/isdelr/parley-be/internal/auth"
	"github.com/isdelr/parley-be/internal/config"
	"github.com/isdelr/parley-be/internal/database"
	"github.com/isdelr/parley-be/internal/logger"
	"github.com/isdelr/parley-be/internal/monitoring"
	"github.com/isdelr/parley-be/internal/oauth"
	"github.com/isdelr/parley-be/internal/services"
	"github.com/isdelr/parley-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up services
	userService := services.NewUserService(db)
	messageService := services.NewMessageService(db)

	// Set up the session authenticator, with federated login when configured
	var provider auth.FederatedProvider
	if cfg.GoogleEnabled() {
		provider = oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}
	authenticator := auth.NewAuthenticator(userService, provider, cfg.JWTSecret)

	// Set up the broadcast hub
	hub := websocket.NewHub(authenticator, messageService)
	go hub.Run()

	// Set up and run the background session sweeper
	sweeper := monitoring.NewSweeper(authenticator)
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(hub, authenticator, userService, messageService, cfg.HistoryLimit)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sweeper.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
