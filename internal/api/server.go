// Package api serves pool reserves and swap/liquidity simulations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ammScope/internal/model"
	"ammScope/internal/pricing"
	"ammScope/internal/reserves"
	"ammScope/internal/storage"
)

const (
	defaultAddr       = ":3001"
	maxBodyBytes      = 1 << 20
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Config holds HTTP settings.
type Config struct {
	Addr string
	// Prefix is mounted in front of the /amm routes.
	Prefix string
	// RequestsPerMinute per client on /amm routes; zero disables limiting.
	RequestsPerMinute float64
	Burst             int
	MetricsNamespace  string
	// RequestTimeout bounds reserve lookups per request; zero means none.
	RequestTimeout time.Duration
}

// Deps are the collaborators handlers price against.
type Deps struct {
	Engine *pricing.Engine
	Source reserves.Source
	// Pair is the pool address reported in responses, if known.
	Pair string
	// Token0 and Token1 enable address matching for tokenIn and formatted amounts.
	Token0 *model.TokenInfo
	Token1 *model.TokenInfo
	// Journal, if set, receives a record of every simulation served.
	Journal storage.QuoteSink
}

// Server is the AMM HTTP service.
type Server struct {
	cfg     Config
	deps    Deps
	logger  *zap.Logger
	metrics *Metrics
	handler http.Handler
}

// New builds a Server and its router.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Server, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("pricing engine is nil")
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("reserve source is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.Prefix == "/" {
		cfg.Prefix = ""
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		metrics: NewMetrics(cfg.MetricsNamespace),
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(instrument(s.metrics, s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route(s.cfg.Prefix+"/amm", func(ar chi.Router) {
		if s.cfg.RequestsPerMinute > 0 {
			ar.Use(NewRateLimiter(s.cfg.RequestsPerMinute, s.cfg.Burst, s.logger).Middleware)
		}
		ar.Get("/reserves", s.handleReserves)
		ar.Post("/simulate-swap", s.handleSimulateSwap)
		ar.Post("/simulate-liquidity", s.handleSimulateLiquidity)
		ar.Get("/liquidity-info/{address}", s.handleLiquidityInfo)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no route for "+r.URL.Path)
	})
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on cfg.Addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", listener.Addr().String()), zap.String("prefix", s.cfg.Prefix))
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
