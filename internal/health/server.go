// Package health exposes the agent's liveness endpoints over HTTP.
package health

import (
	"context"
	"encoding/json"
	"expvar"
	"log/slog"
	"net/http"
	"time"

	"jockey-agent/internal/logging"
	"jockey-agent/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

// Store is the persistence slice the health payload reports on.
type Store interface {
	Ping(ctx context.Context) error
	RecentActivity(ctx context.Context, limit int) ([]store.Activity, error)
}

const recentActivityLimit = 5

// NewRouter builds the health endpoints. status is polled per request
// and embedded in the /health payload as-is.
func NewRouter(status func() any, db Store) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogMiddleware())

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		dbState := "up"
		if db != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				dbState = "down"
			}
		}

		payload := map[string]any{"ok": dbState == "up", "db": dbState}
		if status != nil {
			payload["agent"] = status()
		}
		if db != nil && dbState == "up" {
			if acts, err := db.RecentActivity(req.Context(), recentActivityLimit); err == nil {
				payload["recent_activity"] = activityPayload(acts)
			}
		}
		if dbState != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(payload)
	})

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	r.Get("/debug/vars", expvar.Handler().ServeHTTP)

	return r
}

func activityPayload(acts []store.Activity) []map[string]any {
	out := make([]map[string]any, 0, len(acts))
	for _, a := range acts {
		out = append(out, map[string]any{
			"kind":   a.Kind,
			"detail": a.Detail,
			"at":     a.At,
		})
	}
	return out
}

// Serve runs the health server until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func requestLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}
