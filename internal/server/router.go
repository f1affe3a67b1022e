package server

import (
	"net/http"
	"time"

	"signalnet/internal/metrics"
	"signalnet/internal/server/handlers"
	"signalnet/internal/server/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Feed        handlers.FeedBuilder
	Catalog     handlers.SignalCatalog
	Signals     handlers.SignalService
	Posts       handlers.PostService
	Connections handlers.ConnectionService
	Messages    handlers.MessageService
	Profiles    handlers.ProfileService
	LinkCodes   handlers.LinkCodeStore
	Tokens      middleware.TokenValidator
	RateCounter middleware.Counter
	Health      map[string]handlers.Pinger
	Metrics     *metrics.Collector
}

type RouterOptions struct {
	CORSOrigins     []string
	RequestTimeout  time.Duration
	RateLimitPerMin int
	LinkCodeTTL     time.Duration
}

func NewRouter(deps Deps, opts RouterOptions, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(logger, deps.Metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", handlers.NewHealthHandler(deps.Health, logger).Check)
	router.Handle("/metrics", deps.Metrics.Handler())

	feedHandler := handlers.NewFeedHandler(deps.Feed, logger)
	signalHandler := handlers.NewSignalHandler(deps.Catalog, deps.Signals, logger)
	postHandler := handlers.NewPostHandler(deps.Posts, logger)
	connectionHandler := handlers.NewConnectionHandler(deps.Connections, logger)
	messageHandler := handlers.NewMessageHandler(deps.Messages, logger)
	profileHandler := handlers.NewProfileHandler(deps.Profiles, logger)
	telegramHandler := handlers.NewTelegramHandler(deps.LinkCodes, opts.LinkCodeTTL, logger)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Tokens, logger))
		r.Use(middleware.RateLimit(deps.RateCounter, opts.RateLimitPerMin, logger))
		r.Use(chimiddleware.Timeout(opts.RequestTimeout))

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", feedHandler.GetFeed)
			r.Post("/", postHandler.Create)
			r.Patch("/{postID}", postHandler.Update)
			r.Delete("/{postID}", postHandler.Delete)
			r.Post("/{postID}/archive", postHandler.Archive)
		})

		r.Route("/signals", func(r chi.Router) {
			r.Get("/", signalHandler.ListSignals)
			r.Get("/categories", signalHandler.ListCategories)
		})

		r.Route("/user-signals", func(r chi.Router) {
			r.Get("/", signalHandler.ListUserSignals)
			r.Post("/{signalID}", signalHandler.Add)
			r.Delete("/{signalID}", signalHandler.Remove)
			r.Post("/{signalID}/toggle", signalHandler.Toggle)
			r.Get("/{signalID}/validate", signalHandler.Validate)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", connectionHandler.List)
			r.Post("/", connectionHandler.Request)
			r.Patch("/{connectionID}", connectionHandler.Respond)
			r.Delete("/{connectionID}", connectionHandler.Remove)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messageHandler.List)
			r.Post("/", messageHandler.Send)
			r.Post("/read", messageHandler.MarkRead)
		})
		r.Get("/conversations", messageHandler.Conversations)

		r.Get("/profiles", profileHandler.List)
		r.Get("/profiles/{profileID}", profileHandler.Get)
		r.Put("/profile/location", profileHandler.SetLocation)

		r.Post("/telegram/link", telegramHandler.CreateLinkCode)
	})

	return router
}
