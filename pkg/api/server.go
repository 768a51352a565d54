// Package api serves the HTTP surface: session lifecycle, SSE turn streams,
// the claim graph, health, and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noesis-forge/noesis/pkg/config"
	"github.com/noesis-forge/noesis/pkg/database"
	"github.com/noesis-forge/noesis/pkg/events"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

// SessionAPI is the service surface the handlers drive.
// *services.SessionService satisfies it.
type SessionAPI interface {
	Create(ctx context.Context, problem string) (*store.Session, error)
	Get(ctx context.Context, id string) (*store.Session, error)
	List(ctx context.Context, f models.SessionFilters) (*models.SessionListResponse, error)
	Cancel(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Graph(ctx context.Context, id string) (*models.GraphResponse, error)
	AddResearchDirective(ctx context.Context, id string, req models.ResearchDirectiveRequest) error
	Stream(ctx context.Context, id string) (<-chan events.Event, error)
	SubmitInput(ctx context.Context, id string, in *models.UserInput) (<-chan events.Event, error)
}

// Pinger reports backing-store health. *database.Client satisfies it.
type Pinger interface {
	Health(ctx context.Context) (*database.HealthStatus, error)
}

// Server hosts the REST and SSE API.
type Server struct {
	sessions SessionAPI
	db       Pinger
	http     *http.Server
}

// NewServer assembles the router and binds it to cfg.ListenAddr. SSE
// streams are long-lived, so the server sets no write timeout; slow-client
// protection stays at the read-header level.
func NewServer(cfg config.ServerConfig, sessions SessionAPI, db Pinger) *Server {
	s := &Server{sessions: sessions, db: db}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), corsMiddleware(cfg.CORSOrigins))
	s.registerRoutes(router)

	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.POST("/sessions", s.createSessionHandler)
	v1.GET("/sessions", s.listSessionsHandler)
	v1.GET("/sessions/:id", s.getSessionHandler)
	v1.POST("/sessions/:id/cancel", s.cancelSessionHandler)
	v1.DELETE("/sessions/:id", s.deleteSessionHandler)
	v1.GET("/sessions/:id/stream", s.streamSessionHandler)
	v1.POST("/sessions/:id/user-input", s.userInputHandler)
	v1.GET("/sessions/:id/graph", s.graphHandler)
	v1.POST("/sessions/:id/research-directive", s.researchDirectiveHandler)
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until Shutdown is called or the listener fails. ctx becomes
// the base context of every request, so cancelling it interrupts in-flight
// turns: their runners checkpoint, write a final snapshot, and close their
// streams, which lets Shutdown drain quickly.
func (s *Server) Start(ctx context.Context) error {
	s.http.BaseContext = func(net.Listener) context.Context { return ctx }
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests until
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
