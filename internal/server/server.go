// Package server implements the command endpoint of a running instance: the
// HTTP API used to request the exit and scrape metrics, and a gRPC health
// service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/yanet-platform/lifeexit/internal/monitoring/metrics"
)

// Server accepts commands addressed to the running instance. It stops
// accepting them once an exit is under way.
type Server struct {
	config       Config
	grpcServer   *grpc.Server
	healthServer *health.Server
	httpServer   *http.Server
	stopOnce     sync.Once
	logger       *log.Logger
}

// New creates a new Server instance with the given configuration. It
// initializes both gRPC and HTTP servers and registers necessary services.
func New(config Config, exiter Exiter, gatherer metrics.Gatherer, logger *log.Logger) *Server {
	config.Default()
	logger = logger.With(log.String("component", "server"))

	// Register health and reflection services on gRPC server.
	healthServer := health.NewServer()
	gRPCServer := grpc.NewServer()
	healthpb.RegisterHealthServer(gRPCServer, healthServer)
	reflection.Register(gRPCServer)

	h := &handler{exiter: exiter, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /exit", h.exit)
	mux.HandleFunc("GET /status", h.status)
	if gatherer != nil {
		mux.Handle("GET /metrics", gatherer.GetHTTPHandler())
	}

	httpServer := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           requestIDMiddleware(logger)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		config:       config,
		grpcServer:   gRPCServer,
		healthServer: healthServer,
		httpServer:   httpServer,
		logger:       logger,
	}
}

// Handler returns the HTTP handler of the server.
func (m *Server) Handler() http.Handler {
	return m.httpServer.Handler
}

// Run starts both the gRPC and HTTP servers.
func (m *Server) Run(ctx context.Context) error {
	wg, _ := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return m.runGRPCServer()
	})
	wg.Go(func() error {
		return m.runHTTPServer()
	})
	return wg.Wait()
}

// Stop gracefully stops both the gRPC and HTTP servers. It is safe to call
// it more than once.
func (m *Server) Stop() {
	m.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		m.healthServer.Shutdown()
		m.grpcServer.Stop()
		if err := m.httpServer.Shutdown(ctx); err != nil {
			m.logger.Warn("failed to shutdown HTTP server", log.Error(err))
		}
		m.logger.Info("server stopped")
	})
}

func (m *Server) runGRPCServer() error {
	listener, err := net.Listen("tcp", m.config.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	m.logger.Info("gRPC server started", log.String("addr", m.config.GRPCAddr))
	if err := m.grpcServer.Serve(listener); !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (m *Server) runHTTPServer() error {
	m.logger.Info("HTTP server started", log.String("addr", m.config.HTTPAddr))
	if err := m.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
