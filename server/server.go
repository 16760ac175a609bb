package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/server/endpoint"
	"github.com/kbukum/voicebrief/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP front of the bot, backed by Gin.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger

	mu       sync.RWMutex
	listener net.Listener
}

// New creates a Server with the middleware chain applied. Routes are added
// with RegisterRoutes.
func New(cfg Config, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	log = log.WithComponent("server")

	handler := middleware.Chain(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.BodySizeLimit(cfg.MaxBodyBytes),
		middleware.RequestLogger(log, "/health"),
	)(engine)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		},
		engine: engine,
		config: cfg,
		log:    log,
	}
}

// Routes is what RegisterRoutes needs from the rest of the service.
type Routes struct {
	ServiceName string
	Dispatcher  Dispatcher
	Health      endpoint.HealthChecker
	// WebhookSecret, when set, must match the secret token header of every
	// webhook delivery.
	WebhookSecret string
}

// RegisterRoutes mounts the service routes: the landing page, the webhook
// pair, /health and /version.
func (s *Server) RegisterRoutes(r Routes) {
	s.engine.GET("/", Welcome())
	s.engine.POST(s.config.WebhookPath, SecretToken(r.WebhookSecret, s.log), Webhook(r.Dispatcher, s.log))
	s.engine.GET(s.config.WebhookPath, WebhookStatus())
	s.engine.GET("/health", endpoint.Health(r.ServiceName, r.Health))
	s.engine.GET("/version", endpoint.Version())
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the port and begins serving, over TLS when configured. It
// returns once the listener is bound; serving continues in a goroutine.
func (s *Server) Start(_ context.Context) error {
	tlsConfig, err := s.config.TLS.Build()
	if err != nil {
		return err
	}
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	if tlsConfig != nil {
		listener = tls.NewListener(listener, tlsConfig)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Server error")
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", listener.Addr().String(), "tls", tlsConfig != nil))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
