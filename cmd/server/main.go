package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/quote-estimator/internal/catalog"
	"github.com/Simplici0/quote-estimator/internal/config"
	"github.com/Simplici0/quote-estimator/internal/crm"
	"github.com/Simplici0/quote-estimator/internal/db"
	"github.com/Simplici0/quote-estimator/internal/migrations"
	"github.com/Simplici0/quote-estimator/internal/seed"
	"github.com/Simplici0/quote-estimator/internal/submission"
)

const (
	maxBodyBytes        = 1 << 20
	sessionCacheSize    = 10000
	sessionTTL          = 24 * time.Hour
	startupRetryTimeout = 2 * time.Minute
)

type server struct {
	auth        *authService
	db          *sql.DB
	cat         *catalog.Catalog
	sessions    *sessionStore
	ghl         *crm.Client
	gateway     *crm.Gateway
	submissions *submission.Store
	outbox      *submission.Outbox
	now         func() time.Time
}

func newServer(database *sql.DB, cat *catalog.Catalog, ghl *crm.Client, auth *authService) *server {
	store := submission.NewStore(database)
	gateway := crm.NewGateway(cat, ghl, store)
	return &server{
		auth:        auth,
		db:          database,
		cat:         cat,
		sessions:    newSessionStore(cat, sessionCacheSize, sessionTTL),
		ghl:         ghl,
		gateway:     gateway,
		submissions: store,
		outbox:      submission.NewOutbox(store, gateway),
		now:         time.Now,
	}
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		log.Fatalf("failed to run database migrations: %v", err)
	}

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		PipelineID:    cfg.GHL.PipelineID,
		Stages:        cfg.GHL.Stages,
	})
	if err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}
	log.Printf("seed: %d inserts, %d updates", stats.Inserts, stats.Updates)

	cat, err := loadCatalog(cfg)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	ghl := crm.NewClient(cfg.GHL.AccessToken, cfg.GHL.LocationID, crm.WithBaseURL(cfg.GHL.BaseURL))
	auth := newAuthService(database, cfg.SessionSecret, !cfg.IsDev())
	srv := newServer(database, cat, ghl, auth)

	if ghl.Configured() == nil {
		go srv.retryFailedSubmissions()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (%s)", addr, cfg.Env)
	if err := http.ListenAndServe(addr, srv.routes(cfg.CORSOrigin)); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// loadCatalog reads CATALOG_PATH, or uses the built-in catalog. Lint problems
// are logged, and fatal only in strict mode.
func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}

	problems := cat.Lint()
	for _, p := range problems {
		log.Printf("catalog: %s", p)
	}
	if cfg.CatalogStrict && len(problems) > 0 {
		return nil, fmt.Errorf("catalog has %d problems", len(problems))
	}
	return cat, nil
}

func (s *server) retryFailedSubmissions() {
	ctx, cancel := context.WithTimeout(context.Background(), startupRetryTimeout)
	defer cancel()

	stats, err := s.outbox.RetryFailed(ctx)
	if err != nil {
		log.Printf("retry failed submissions: %v", err)
		return
	}
	if stats.Attempted > 0 {
		log.Printf("retried %d failed submissions: %d sent, %d still failing", stats.Attempted, stats.Sent, stats.Failed)
	}
}

func (s *server) routes(corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(corsOrigin))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Post("/quote", s.handleQuote)
		r.Post("/quote/text", s.handleQuoteText)
		r.Post("/submit-quote", s.handleSubmitQuote)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleSessionCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.withSession(s.handleSessionGet))
				r.Post("/services/{serviceID}/toggle", s.withSession(s.handleSessionToggle))
				r.Patch("/services/{serviceID}", s.withSession(s.handleSessionServiceConfig))
				r.Patch("/common", s.withSession(s.handleSessionCommon))
				r.Patch("/preferences", s.withSession(s.handleSessionPreferences))
				r.Put("/step", s.withSession(s.handleSessionStep))
				r.Post("/next", s.withSession(s.handleSessionNext))
				r.Post("/back", s.withSession(s.handleSessionBack))
				r.Post("/reset", s.withSession(s.handleSessionReset))
				r.Post("/submit", s.handleSessionSubmit)
			})
		})

		r.Route("/ghl", func(r chi.Router) {
			r.Get("/health", s.handleGHLHealth)
			r.Get("/pipelines", s.handleGHLPipelines)
			r.Get("/estimator-fields", s.handleGHLEstimatorFields)
			r.Get("/estimate-range-fields", s.handleGHLRangeFields)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleAdminLogin)
		r.Post("/logout", s.handleAdminLogout)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/submissions", s.handleAdminSubmissions)
			r.Post("/submissions/retry", s.handleAdminRetry)
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// decodeJSON reads a size-limited JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
