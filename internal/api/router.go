package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mika/mahjong-copilot-server/internal/api/handlers"
	"github.com/mika/mahjong-copilot-server/internal/api/middleware"
	"github.com/mika/mahjong-copilot-server/internal/config"
	"github.com/mika/mahjong-copilot-server/internal/service"
	"github.com/mika/mahjong-copilot-server/internal/session"
	"github.com/mika/mahjong-copilot-server/internal/websocket"
)

func NewRouter(services *service.Services, registry *session.Registry, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth)
	roomHandler := handlers.NewRoomHandler(registry, hub)
	historyHandler := handlers.NewHistoryHandler(services.History)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/refresh", authHandler.Refresh)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			// Room routes
			r.Route("/rooms", func(r chi.Router) {
				r.Post("/", roomHandler.Create)
				r.Get("/{code}", roomHandler.Get)
				r.Post("/{code}/join", roomHandler.Join)
				r.Post("/leave", roomHandler.Leave)
			})

			// Match history routes
			r.Route("/match-history", func(r chi.Router) {
				r.Get("/", historyHandler.List)
				r.Get("/{id}", historyHandler.Get)
				r.Get("/room/{code}", historyHandler.GetByRoom)
			})
		})

		// WebSocket endpoint (token auth via query parameter)
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
