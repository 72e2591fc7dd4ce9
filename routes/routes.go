package routes

import (
	"net/http"
	"os"

	"github.com/Dosada05/mafia-overlay/handlers"
	"github.com/Dosada05/mafia-overlay/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

// Deps - всё, что нужно для сборки роутера.
type Deps struct {
	Game       *handlers.GameHandler
	Tournament *handlers.TournamentHandler
	Player     *handlers.PlayerHandler
	WebSocket  *handlers.WebSocketHandler
	Health     *handlers.HealthHandler

	Metrics        http.Handler
	RequestLogger  func(http.Handler) http.Handler
	RateLimiter    *middleware.IPRateLimiter
	AllowedOrigins []string
	StaticDir      string
}

func SetupRoutes(router chi.Router, d Deps) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	if d.RequestLogger != nil {
		router.Use(d.RequestLogger)
	}
	router.Use(chiMiddleware.Recoverer)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Оверлей и админка подключаются сюда и шлют join_game
	router.Get("/ws", d.WebSocket.ServeWs)
	if d.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", d.Health.Health)

		r.Route("/games", func(r chi.Router) {
			r.With(middleware.RateLimit(d.RateLimiter)).Post("/", d.Game.CreateGame)

			r.Route("/{gameID}", func(r chi.Router) {
				r.Get("/", d.Game.GetGame)

				// Команды админки
				r.Group(func(r chi.Router) {
					r.Use(middleware.RateLimit(d.RateLimiter))

					r.Put("/seating", d.Game.AssignSeating)
					r.Post("/seating", d.Game.AssignSeating)
					r.Delete("/seating", d.Game.ClearSeating)

					r.Put("/roles", d.Game.AssignRoles)
					r.Post("/roles", d.Game.AssignRoles)

					r.Patch("/seats/{playerID}/elimination", d.Game.SetElimination)
					r.Patch("/seats/{playerID}/card", d.Game.SetCard)

					r.Put("/nominees", d.Game.UpdateNominees)
					r.Post("/nominees", d.Game.UpdateNominees)

					r.Post("/rounds", d.Game.SaveRound)
					r.Put("/rounds/{roundNumber}", d.Game.SaveRound)
					r.Delete("/rounds/{roundNumber}", d.Game.DeleteRound)

					r.Post("/best-move", d.Game.SetBestMove)
					r.Patch("/overlay", d.Game.SetOverlay)
					r.Patch("/status", d.Game.SetStatus)
				})
			})
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", d.Tournament.ListHandler)
			r.Post("/", d.Tournament.CreateHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", d.Tournament.GetByIDHandler)
				r.Put("/", d.Tournament.UpdateHandler)
				r.Delete("/", d.Tournament.DeleteHandler)

				r.Get("/players", d.Tournament.ListPlayersHandler)
				r.Post("/players", d.Tournament.AddPlayersHandler)
				r.Delete("/players/{playerID}", d.Tournament.RemovePlayerHandler)

				r.Get("/games", d.Tournament.ListGamesHandler)
				r.Get("/games/{gameNumber}", d.Game.GetTournamentGame)
			})
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", d.Player.ListHandler)
			r.Post("/", d.Player.CreateHandler)
			r.Get("/search", d.Player.SearchHandler)
			r.Get("/{playerID}", d.Player.GetByIDHandler)
			r.Put("/{playerID}", d.Player.UpdateHandler)
			r.Delete("/{playerID}", d.Player.DeleteHandler)
		})

		r.Route("/upload", func(r chi.Router) {
			r.Use(middleware.RateLimit(d.RateLimiter))
			r.Post("/player-photo", d.Player.UploadPhotoHandler)
			r.Delete("/{filename}", d.Player.DeletePhotoHandler)
		})
	})

	// Статика оверлея и админки
	if d.StaticDir != "" {
		if info, err := os.Stat(d.StaticDir); err == nil && info.IsDir() {
			router.Handle("/*", http.FileServer(http.Dir(d.StaticDir)))
		}
	}
}
