package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mhamdane/knockout-tour/handlers"
	"github.com/mhamdane/knockout-tour/middleware"
)

// SetupRoutes wires every handler into the router. Mutating endpoints sit
// behind admin authentication; reads and the websocket feed are public.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	entryHandler *handlers.EntryHandler,
	drawHandler *handlers.DrawHandler,
	matchHandler *handlers.MatchHandler,
	rankingHandler *handlers.RankingHandler,
	suspensionHandler *handlers.SuspensionHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/login", authHandler.LoginHandler)

	router.Route("/entries", func(r chi.Router) {
		r.Post("/", entryHandler.RegisterHandler)
		r.Post("/{entryID}/withdraw", entryHandler.WithdrawHandler)
	})

	router.Route("/draws", func(r chi.Router) {
		r.Get("/{drawID}/bracket", drawHandler.GetBracketHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize("admin"))

			r.Post("/", drawHandler.CreateHandler)
			r.Post("/{drawID}/close", drawHandler.CloseEntriesHandler)
			r.Post("/{drawID}/generate", drawHandler.GenerateHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize("admin"))

			r.Post("/{matchID}/result", matchHandler.SubmitResultHandler)
		})
	})

	router.Route("/rankings", func(r chi.Router) {
		r.Get("/", rankingHandler.GetHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize("admin"))

			r.Post("/publish", rankingHandler.PublishHandler)
		})
	})

	router.Get("/players/{playerID}/suspensions", suspensionHandler.ListForPlayerHandler)

	router.Get("/ws/draws/{drawID}", webSocketHandler.ServeDraw)
}
