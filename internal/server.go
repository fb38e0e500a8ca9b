package internal

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"

	"asset-tracker-api/internal/auth"
	"asset-tracker-api/internal/config"
	"asset-tracker-api/internal/handlers"
	"asset-tracker-api/internal/store"
	"asset-tracker-api/pkg/reconciler"
)

// Server owns the router, the store, and the reconciler. All mutating
// handlers serialize on mu: collections are read-modify-write as whole
// documents, so concurrent writers would lose updates.
type Server struct {
	Store      store.Store
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Reconciler *reconciler.Reconciler

	cfg *config.Config
	mu  sync.Mutex
}

func NewServer(cfg *config.Config, st store.Store) *Server {
	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatal("JWT configuration validation failed:", err)
	}

	// Field alias mapping: built-in defaults unless overridden from YAML
	aliases := reconciler.DefaultAliases()
	if cfg.AliasConfigPath != "" {
		loaded, err := reconciler.LoadAliases(cfg.AliasConfigPath)
		if err != nil {
			log.Fatal("Alias config load failed:", err)
		}
		aliases = loaded
	}

	s := &Server{
		Store:      st,
		Router:     chi.NewRouter(),
		JWTManager: jwtManager,
		Metrics:    NewMetrics(),
		Reconciler: reconciler.New(st, reconciler.Options{
			HistoryLimit: cfg.HistoryLimit,
			Aliases:      aliases,
		}),
		cfg: cfg,
	}

	s.Router.Use(requestLogger)
	if os.Getenv("ENABLE_METRICS") == "true" {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Public routes (no middleware)
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Post("/auth/login", s.loginUser)

	// Create a protected route group with middleware
	s.Router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(s.JWTManager))
		s.mountProtectedRoutes(r, aliases)
	})

	return s
}

// mountProtectedRoutes mounts all protected routes that require authentication
func (s *Server) mountProtectedRoutes(r chi.Router, aliases *reconciler.AliasConfig) {
	writer := auth.MustRole(auth.RoleAdmin)
	ingester := auth.MustRole(auth.RoleAdmin, auth.RoleIngest)

	// Webhook ingestion - the reconciler entry point
	ingestHandler := handlers.NewIngestHandler(s.Reconciler)
	ingestHandler.Observe = s.Metrics.ObserveIngest
	r.With(ingester).Post("/ingest", s.locked(ingestHandler.Ingest))

	// Assets - admin role for write operations
	r.Get("/assets", s.listAssets)
	r.Get("/assets/{id}", s.getAsset)
	r.With(writer).Put("/assets/{id}", s.updateAsset)
	r.With(writer).Delete("/assets/{id}", s.deleteAsset)

	// Trackers
	r.Get("/trackers", s.listTrackers)
	r.Get("/trackers/{id}", s.getTracker)
	r.With(writer).Put("/trackers/{id}", s.updateTracker)
	r.With(writer).Delete("/trackers/{id}", s.deleteTracker)

	// Links
	r.Get("/links", s.listLinks)
	r.With(writer).Put("/links", s.upsertLink)
	r.With(writer).Delete("/links", s.deleteLink)

	// Positions
	r.Get("/positions", s.listPositions)
	r.Get("/trackers/{id}/position", s.getTrackerPosition)
	r.Get("/trackers/{id}/history", s.getTrackerHistory)

	// Excel import - admin only
	importsHandler := handlers.NewImportsHandler(s.Store, aliases)
	importsHandler.HistoryLimit = s.cfg.HistoryLimit
	r.With(writer).Post("/imports/excel", s.locked(importsHandler.UploadExcel))
}

// locked serializes a mutating handler on the server's write mutex.
func (s *Server) locked(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(w, r)
	}
}
