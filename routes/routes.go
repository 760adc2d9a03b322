package routes

import (
	"log/slog"
	"net/http"
	"time"

	_ "github.com/Dosada05/pong-arena/docs" // swagger spec registration
	"github.com/Dosada05/pong-arena/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

const restTimeout = 10 * time.Second

type Handlers struct {
	WebSocket   *handlers.WebSocketHandler
	Tournaments *handlers.TournamentHandler
	Matches     *handlers.MatchHandler
	Health      *handlers.HealthHandler
}

func SetupRoutes(router chi.Router, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", h.Health.Check)
	// The websocket outlives any request timeout.
	router.Get("/ws", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(restTimeout))
		r.Get("/tournaments", h.Tournaments.ListPublic)
		r.Get("/users/{userID}/matches", h.Matches.ListByUser)
	})

	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
