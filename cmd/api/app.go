package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"automation-builder/api/internal/config"
	"automation-builder/api/internal/metrics"
	"automation-builder/api/internal/respond"
	"automation-builder/api/services/automation"
	"automation-builder/api/services/catalog"
	"automation-builder/api/services/editor"
	"automation-builder/api/services/history"
	"automation-builder/api/services/workflow"
)

// app holds the wired services for one process.
type app struct {
	pool        *pgxpool.Pool
	catalog     *catalog.Catalog
	automations *automation.Service
	editor      *editor.Manager
	history     history.Store
	metrics     *metrics.Metrics
	corsOrigins []string
	closers     []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{metrics: metrics.New(), corsOrigins: cfg.CORSOrigins}

	c, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	a.catalog = c

	if cfg.NeedsDatabase() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.pool = pool
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
	}

	var (
		persister workflow.Persister
		loader    editor.Loader
	)
	if cfg.PersistURL != "" {
		client := automation.NewClient(cfg.PersistURL, cfg.SaveTimeout)
		persister, loader = client, client
	} else {
		a.automations = automation.NewService(a.pool)
		persister, loader = a.automations, a.automations
	}
	a.editor = editor.NewManager(c, persister, loader, a.metrics, cfg.SaveTimeout)

	switch cfg.HistoryBackend {
	case config.HistoryBadger:
		s, err := history.OpenBadger(cfg.BadgerPath, slog.Default().With("component", "badger"))
		if err != nil {
			a.close()
			return nil, err
		}
		a.history = s
		a.closers = append(a.closers, s.Close)
	case config.HistoryPostgres:
		a.history = history.NewPostgresStore(a.pool)
	default:
		a.history = history.NewMemoryStore()
	}

	return a, nil
}

// migrate creates the tables of every postgres-backed store in use.
func (a *app) migrate(ctx context.Context) error {
	if a.automations != nil {
		if err := a.automations.Migrate(ctx); err != nil {
			return err
		}
	}
	if s, ok := a.history.(*history.PostgresStore); ok {
		return s.Migrate(ctx)
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if a.automations != nil {
		a.automations.RegisterRoutes(api)
	}
	editor.NewHandler(a.editor, a.catalog).RegisterRoutes(api)
	history.NewHandler(history.NewConversations(a.history), a.metrics).RegisterRoutes(api)

	cors := handlers.CORS(
		handlers.AllowedOrigins(a.corsOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError)),
	)
	return handlers.CombinedLoggingHandler(os.Stdout, recovery(cors(r)))
}
