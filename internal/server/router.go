package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP listener.
const ShutdownTimeout = 10 * time.Second

// Options configures the router.
type Options struct {
	State *SnapshotState

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Checks are served under /healthz in addition to a ping check.
	Checks map[string]healthz.Checker
}

// NewRouter builds the watch-mode HTTP API.
func NewRouter(opts Options) http.Handler {
	checks := map[string]healthz.Checker{"ping": healthz.Ping}
	for name, c := range opts.Checks {
		checks[name] = c
	}

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Recoverer)

	r.Get("/readyz", ReadyzHandler(opts.State))
	r.Mount("/healthz", http.StripPrefix("/healthz", &healthz.Handler{Checks: checks}))
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/report", ReportHandler(opts.State))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	logger := log.FromContext(ctx).WithName("server")

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
