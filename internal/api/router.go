package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rzaleman/taskman-be/internal/api/handlers"
	"github.com/rzaleman/taskman-be/internal/auth"
	"github.com/rzaleman/taskman-be/internal/metrics"
	"github.com/rzaleman/taskman-be/internal/services"
	"github.com/rzaleman/taskman-be/internal/websocket"
)

// Deps bundles everything the router needs.
type Deps struct {
	Users         services.UserServiceProvider
	Tasks         services.TaskServiceProvider
	Events        services.EventServiceProvider
	Notifier      *services.Notifier
	Hub           *websocket.Hub
	Authenticator *auth.Authenticator
	AvatarMaxSize int64
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTPMetrics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.Users, d.Events, d.Notifier, d.AvatarMaxSize)
	taskHandler := handlers.NewTaskHandler(d.Tasks, d.Events, d.Hub)
	eventHandler := handlers.NewEventHandler(d.Events)
	wsHandler := handlers.NewWebSocketHandler(d.Hub)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Signup)
		r.Post("/login", userHandler.Login)
		r.Get("/{id}/avatar", userHandler.GetAvatar)

		r.Group(func(r chi.Router) {
			r.Use(d.Authenticator.Middleware)
			r.Post("/logout", userHandler.Logout)
			r.Post("/logoutAll", userHandler.LogoutAll)
			r.Route("/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Patch("/", userHandler.UpdateMe)
				r.Delete("/", userHandler.DeleteMe)
				r.Post("/avatar", userHandler.UploadAvatar)
				r.Delete("/avatar", userHandler.DeleteAvatar)
			})
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(d.Authenticator.Middleware)
		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.Get)
			r.Patch("/", taskHandler.Update)
			r.Delete("/", taskHandler.Delete)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(d.Authenticator.Middleware)
		r.Get("/events", eventHandler.GetRecent)
		r.Get("/ws", wsHandler.Serve)
	})

	return r
}
