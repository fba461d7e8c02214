package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

func NewRouter(handlers Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ping", handlers.PingHandler)
	r.Get("/state", handlers.StateHandler)
	r.Get("/results", handlers.RecentResultsHandler)
	r.Get("/results/{id}", handlers.ResultHandler)

	return r
}

// Start - serves the status API until ctx is done.
func Start(ctx context.Context, logger *slog.Logger, addr string, handlers Handlers) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(handlers),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	logger.Info("serving status API", "component", "rest", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
