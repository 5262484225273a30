package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ritzau/cross-streets/pkg/logging"
	"github.com/ritzau/cross-streets/pkg/pubsub"
	"github.com/ritzau/cross-streets/pkg/route"
)

//go:embed static/*
var staticFiles embed.FS

// Options configures a Server
type Options struct {
	// DataPath is reported by the dataset endpoints
	DataPath string
	// CORSOrigins enables CORS for the listed origins; empty disables it
	CORSOrigins []string
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	handler   http.Handler
	planner   *route.Planner
	publisher *pubsub.SSEPublisher
	opts      Options
}

// NewServer creates a new web server around planner. Every planner change is
// published on the route topic.
func NewServer(planner *route.Planner, opts Options) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// route: replay only the latest state to new subscribers
	ssePublisher.ConfigureTopic(pubsub.TopicRoute, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	// dataset: replay the latest load result
	ssePublisher.ConfigureTopic(pubsub.TopicDataset, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	// Street names may contain "/", "//" or "..". Match on the encoded path
	// and skip cleaning so they reach the handlers intact.
	router := mux.NewRouter().SkipClean(true).UseEncodedPath()

	s := &Server{
		router:    router,
		planner:   planner,
		publisher: ssePublisher,
		opts:      opts,
	}
	s.setupRoutes()

	var h http.Handler = s.router
	if len(opts.CORSOrigins) > 0 {
		h = cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		})(h)
	}
	s.handler = logging.RequestIDMiddleware(recoveryMiddleware(h))

	planner.OnChange(func(reason string, st route.State) {
		s.publishRoute(reason, st)
	})
	s.publishRoute("initial", planner.State())

	return s
}

// Publisher returns the server's event publisher
func (s *Server) Publisher() pubsub.Publisher {
	return s.publisher
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) publishRoute(reason string, st route.State) {
	if err := s.publisher.Publish(pubsub.TopicRoute, reason, st); err != nil {
		logging.Warn("failed to publish route state", "error", err)
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(metricsMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/route", pubsub.Handler(s.publisher, pubsub.TopicRoute)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/dataset", pubsub.Handler(s.publisher, pubsub.TopicDataset)).Methods("GET")

	// API routes
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/route", s.handleRoute).Methods("GET")
	s.router.HandleFunc("/api/route", s.handleSetRoute).Methods("PUT")
	s.router.HandleFunc("/api/streets", s.handleStreets).Methods("GET")
	s.router.HandleFunc("/api/streets/{name:.+}/toggle", s.handleToggleStreet).Methods("POST")
	s.router.HandleFunc("/api/edges/{id}/click", s.handleEdgeClick).Methods("POST")
	s.router.HandleFunc("/api/nodes/{id}", s.handleNode).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Start serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.publisher.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	logging.Info("shutting down web server")
	// Ends open SSE streams so Shutdown does not wait on them
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	return nil
}
