package app

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sampleapp/cmd/internal/api"
	"sampleapp/cmd/internal/metrics"
	"sampleapp/cmd/internal/realtime"
)

type routes struct {
	log       Logger
	cfg       Config
	dbPool    *pgxpool.Pool
	dbEnabled bool
	metrics   *metrics.Metrics
	feed      *realtime.FeedGateway
	api       *api.Handler
}

func registerHTTP(mux *http.ServeMux, rt routes) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if rt.cfg.ReadinessRequireDB && !rt.dbEnabled {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if rt.dbEnabled && rt.dbPool != nil {
			if err := PingDB(r.Context(), rt.dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				rt.log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", rt.metrics.Handler())

	if rt.api != nil {
		rt.api.Register(mux)
	}
	if rt.feed != nil {
		mux.Handle("GET /ws/feed", rt.feed)
	}
}
