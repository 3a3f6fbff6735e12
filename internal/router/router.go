package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"

	"github.com/avasile/snapvault/internal/api"
	"github.com/avasile/snapvault/internal/cache"
	"github.com/avasile/snapvault/internal/config"
	"github.com/avasile/snapvault/internal/database"
	"github.com/avasile/snapvault/internal/handler"
	"github.com/avasile/snapvault/internal/storage"
	"github.com/avasile/snapvault/internal/transform"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	Handler *handler.Handler
	Router  chi.Router
}

// New creates a Server with a fully configured chi router.
func New(db database.Database, store storage.ObjectStore, c cache.Cache, cfg *config.Config) *Server {
	tokenAuth := api.NewTokenAuth(cfg.JWTSecret)

	svc := transform.New(db, store, c,
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.SignedURLTTLSeconds)*time.Second,
	)

	h := &handler.Handler{
		DB:        db,
		Store:     store,
		Transform: svc,
		Config:    cfg,
		TokenAuth: tokenAuth,
	}
	if fs, ok := store.(*storage.FileSystem); ok {
		h.Files = fs
	}

	r := chi.NewRouter()

	// CORS — must be before other middleware to handle preflight OPTIONS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(api.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", health)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(jwtauth.Authenticator(tokenAuth))
			r.Use(api.UserContext)
			r.Get("/me", h.Me)
		})
	})

	r.Route("/api/images", func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Use(api.UserContext)

		r.Get("/", h.ListImages)
		r.Post("/", h.UploadImage)
		r.Get("/{id}", h.GetImage)
		r.Delete("/{id}", h.DeleteImage)

		// Transforms are rate limited per user, not per IP.
		r.With(transformLimiter(cfg)).Post("/{id}/transform", h.TransformImage)
	})

	// Signed local delivery, filesystem backend only.
	if h.Files != nil {
		r.Get("/files/*", h.ServeFile)
	}

	return &Server{Handler: h, Router: r}
}

// transformLimiter bounds transform requests per authenticated user within
// a rolling window, replying 429 to the excess.
func transformLimiter(cfg *config.Config) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.TransformRateLimit,
		time.Duration(cfg.TransformRateWindow)*time.Second,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return api.GetUserID(r.Context()), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			api.WriteMessage(w, http.StatusTooManyRequests, "Too many image transformations, slow down!")
		}),
	)
}

func health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
