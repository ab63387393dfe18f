package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"speecheval-server/pkg/config"
	"speecheval-server/pkg/feedback"
	"speecheval-server/pkg/messaging"
	"speecheval-server/pkg/metrics"
	"speecheval-server/pkg/stt"
)

// Server is the HTTP front of the evaluation service.
type Server struct {
	logger     *logrus.Logger
	config     *config.Config
	sttManager *stt.ProviderManager
	feedback   *feedback.Client
	publisher  *messaging.AMQPClient
	httpServer *http.Server
	startTime  time.Time
}

// NewServer creates a new HTTP server. The publisher may be nil when
// AMQP publishing is not configured.
func NewServer(logger *logrus.Logger, cfg *config.Config, sttManager *stt.ProviderManager, fb *feedback.Client, publisher *messaging.AMQPClient) *Server {
	return &Server{
		logger:     logger,
		config:     cfg,
		sttManager: sttManager,
		feedback:   fb,
		publisher:  publisher,
		startTime:  time.Now(),
	}
}

// Routes builds the request multiplexer for the API surface.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /api/evaluate/pronunciation", s.handleEvaluatePronunciation)
	mux.HandleFunc("POST /api/evaluate/batch", s.handleEvaluateBatch)
	mux.HandleFunc("POST /api/score", s.handleScore)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	if s.config.HTTP.EnableMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	return mux
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:      s.Routes(),
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
	}

	s.logger.WithField("port", s.config.HTTP.Port).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
