// Package app wires the sampleapp server runtime: config, logging, storage,
// HTTP routes and the live feed.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/internal/api"
	"sampleapp/cmd/internal/auth/session"
	"sampleapp/cmd/internal/metrics"
	"sampleapp/cmd/internal/micropost"
	"sampleapp/cmd/internal/realtime"
)

// App is the sampleapp server runtime: it owns storage lifecycle and HTTP wiring.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	metrics  *metrics.Metrics
	hub      *realtime.Hub
	users    identity.Store
	posts    *micropost.Service
	sessions *session.Manager

	handler http.Handler
}

// New constructs a fully wired App. sess must already carry its secret
// (see ValidateSecurityConfig).
func New(ctx context.Context, cfg Config, sess session.Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	a := &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}
	a.hub = realtime.NewHub(log, a.metrics)

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}

	auth := identity.NewAuthenticator(a.users)
	sessions, err := session.NewManager(sess, auth,
		session.WithLogger(log),
		session.WithErrorHandler(api.WriteUnavailable),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.sessions = sessions

	apiOpts := []api.HandlerOption{api.WithLogger(log), api.WithMetrics(a.metrics)}
	if a.dbEnabled {
		auditor, err := api.NewPostgresAuditor(a.dbPool, identity.DefaultSchema, log)
		if err != nil {
			a.close()
			return nil, err
		}
		apiOpts = append(apiOpts, api.WithAuditor(auditor))
	}
	apiHandler, err := api.NewHandler(api.LoadConfigFromEnv(), a.users, auth, sessions, a.posts, apiOpts...)
	if err != nil {
		a.close()
		return nil, err
	}

	gwCfg := realtime.DefaultGatewayConfig()
	gwCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	gwCfg.OriginRequired = cfg.WSOriginRequired
	if cfg.WSSendQueueSize > 0 {
		gwCfg.SendQueueSize = cfg.WSSendQueueSize
	}
	feed := realtime.NewFeedGateway(log, a.hub, sessions, gwCfg)

	mux := http.NewServeMux()
	registerHTTP(mux, routes{
		log:       log,
		cfg:       cfg,
		dbPool:    a.dbPool,
		dbEnabled: a.dbEnabled,
		metrics:   a.metrics,
		feed:      feed,
		api:       apiHandler,
	})

	var h http.Handler = sessions.Middleware(mux)
	h = WithSecurityHeaders(h)
	h = WithCORS(h, cfg, log)
	a.handler = WithRequestLogging(h, log, a.metrics, mux)

	return a, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// openStores decides between Postgres-backed persistence and the in-memory dev stores.
func (a *App) openStores(ctx context.Context) error {
	postOpts := []micropost.Option{
		micropost.WithPublisher(a.hub),
		micropost.WithMetrics(a.metrics),
		micropost.WithLogger(a.log),
	}

	if a.cfg.DatabaseURL == "" {
		a.log.Info("db.disabled.inmemory_store")
		users := identity.NewMemoryStore()
		a.posts = micropost.NewService(micropost.NewMemoryStore(micropost.WithOwners(users)), postOpts...)
		// Postgres cascades through the foreign key; memory needs the hook.
		users.OnDelete(a.posts.DeleteByUser)
		a.users = users
		return nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.dbPool, a.dbEnabled = pool, true

	if a.cfg.DBAutoMigrate {
		if err := RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return err
		}
		a.log.Info("db.migrations.applied")
	}

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return err
	}
	posts, err := micropost.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return err
	}

	a.log.Info("db.enabled.postgres_store")
	a.users = users
	a.posts = micropost.NewService(posts, postOpts...)
	return nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.close()
		return err
	}

	a.close()
	a.log.Info("server.stopped")
	return nil
}

func (a *App) close() {
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
