package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/render"
	"github.com/ziadkadry99/docchat/internal/session"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
	// SessionTTL ends sessions idle for longer than this. Zero keeps
	// sessions until the process exits.
	SessionTTL time.Duration
	// MaxUploadBytes bounds a multipart upload request.
	MaxUploadBytes int64
}

const (
	defaultMaxUpload = 64 << 20
	requestTimeout   = 5 * time.Minute
)

// localHosts are the browser origins trusted without AllowAll.
var localHosts = []string{"localhost", "127.0.0.1"}

func localOrigins() []string {
	origins := make([]string, len(localHosts))
	for i, h := range localHosts {
		origins[i] = "http://" + h + ":*"
	}
	return origins
}

// Server exposes document chat over REST and a websocket.
type Server struct {
	cfg        Config
	backend    *assistant.Backend
	sessions   *session.Manager
	renderer   *render.Renderer
	router     chi.Router
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New creates a server over backend. Each browser gets its own session from
// sessions, keyed by a cookie.
func New(cfg Config, backend *assistant.Backend, sessions *session.Manager) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	s := &Server{
		cfg:      cfg,
		backend:  backend,
		sessions: sessions,
		renderer: render.New(),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   localOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", serveIndex)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		// The websocket outlives the request timeout.
		r.Get("/ws/chat", s.handleWebSocket)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/session", s.handleSession)
			r.Delete("/session", s.handleEndSession)
			r.Get("/models", s.handleModels)
			r.Get("/model", s.handleGetModel)
			r.Put("/model", s.handleSetModel)

			r.Get("/documents", s.handleListDocuments)
			r.Post("/documents", s.handleUpload)
			r.Get("/documents/{name}", s.handleGetDocument)
			r.Delete("/documents/{name}", s.handleRemoveDocument)
			r.Get("/documents/{name}/history", s.handleGetHistory)
			r.Delete("/documents/{name}/history", s.handleClearHistory)
			r.Post("/documents/{name}/ask", s.handleAskDocument)

			r.Get("/general/history", s.handleGeneralHistory)
			r.Delete("/general/history", s.handleClearGeneral)
			r.Post("/general/ask", s.handleAskGeneral)
		})
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. Idle sessions are evicted
// until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if s.cfg.SessionTTL > 0 {
		go s.evictLoop(ctx)
	}

	log.Printf("docchat server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) evictLoop(ctx context.Context) {
	interval := s.cfg.SessionTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Evict(s.cfg.SessionTTL); n > 0 {
				log.Printf("server: evicted %d idle sessions", n)
			}
		}
	}
}
