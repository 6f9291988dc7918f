// Package api serves a read-only inspection API over one save file. The file
// is reloaded whenever it changes on disk.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the route table. gatherer backs /metrics.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/characters", s.metrics.InstrumentHandler("GET", "/api/v1/characters", s.handleCharacters))
		r.Get("/slots/{slot}/issues", s.metrics.InstrumentHandler("GET", "/api/v1/slots/{slot}/issues", s.handleIssues))
		r.Get("/checksums", s.metrics.InstrumentHandler("GET", "/api/v1/checksums", s.handleChecksums))
	})

	return r
}

// Watch reloads the save whenever it is written or replaced, until ctx is
// done. The directory is watched because atomic saves swap the file.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}

	target := filepath.Clean(s.config.SavePath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watch %s", filepath.Dir(target))
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					_ = s.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("api.watch_error", slog.String("error", err.Error()))
			}
		}
	}()
	return nil
}

// StartServer loads the save, starts watching it and serves until the
// listener fails.
func StartServer(inspector Inspector, config ServerConfig, metrics *Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	server := NewServer(inspector, config, metrics, logger)
	if err := server.Reload(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := server.Watch(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.logger.Info("api.listen", slog.String("addr", addr), slog.String("save", config.SavePath))
	fmt.Printf("Serving %s on http://%s/api/v1\n", config.SavePath, addr)
	fmt.Printf("Metrics available at: http://%s/metrics\n", addr)
	return httpServer.ListenAndServe()
}
