// Package server assembles the HTTP and WebSocket handlers and starts the
// server.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/vegalite/internal/session"
	"github.com/matthewbaird/vegalite/internal/stats"
	"github.com/matthewbaird/vegalite/internal/wire"
)

// Config holds server configuration.
type Config struct {
	Port int

	// Stats summarizes fields for every compile. May be nil.
	Stats stats.Provider

	// Logger receives compile warnings. May be nil.
	Logger *log.Logger
}

// NewRouter registers every route on a fresh router.
func NewRouter(cfg Config, sessions *session.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions.Len(),
		})
	})

	ch := NewCompileHandler(cfg.Stats, cfg.Logger)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/compile", ch.Compile)
		r.Post("/validate", ch.Validate)
		r.Get("/ws", wire.NewHandler(sessions, cfg.Stats, cfg.Logger).ServeHTTP)
	})
	return r
}

// Run starts the HTTP server and blocks until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	// 30 min idle, 24 hr max
	sessions := session.NewManager(24*time.Hour, 30*time.Minute)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg, sessions),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				server.Shutdown(shutdownCtx)
				return
			case <-ticker.C:
				sessions.Cleanup()
			}
		}
	}()

	log.Printf("starting server on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
