package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/parley-be/internal/api/handlers"
	"github.com/isdelr/parley-be/internal/auth"
	"github.com/isdelr/parley-be/internal/services"
	"github.com/isdelr/parley-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(hub *websocket.Hub, authenticator *auth.Authenticator, userService services.UserServiceProvider, messageService services.MessageServiceProvider, historyLimit int) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, authenticator)
	oauthHandler := handlers.NewOAuthHandler(authenticator)
	messageHandler := handlers.NewMessageHandler(messageService, historyLimit)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public authentication endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Get("/google", oauthHandler.Begin)
			r.Get("/google/callback", oauthHandler.Callback)

			r.Group(func(r chi.Router) {
				r.Use(authenticator.Middleware())
				r.Post("/logout", userHandler.Logout)
			})
		})

		// Everything else requires a live session
		r.Group(func(r chi.Router) {
			r.Use(authenticator.Middleware())

			r.Get("/users/me", userHandler.GetMe)
			r.Get("/messages", messageHandler.GetRecent)
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}
