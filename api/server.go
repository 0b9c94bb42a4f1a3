package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
	"golang.org/x/net/netutil"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/events"
	"github.com/rollkit/lightbridge/relay"
)

// Server serves the HTTP API of a running light node.
type Server struct {
	*service.BaseService

	cfg     config.Config
	backend Backend
	bus     *events.Bus
	metrics *relay.Metrics

	mtx      sync.Mutex
	listener net.Listener
	server   http.Server
}

// NewServer creates new instance of Server with given configuration.
func NewServer(cfg config.Config, backend Backend, bus *events.Bus, metrics *relay.Metrics, logger log.Logger) *Server {
	srv := &Server{
		cfg:     cfg.Clone(),
		backend: backend,
		bus:     bus,
		metrics: metrics,
	}
	srv.BaseService = service.NewBaseService(logger, "API", srv)
	return srv
}

// OnStart is called when Server is started (see service.BaseService for details).
func (s *Server) OnStart() error {
	return s.startAPI()
}

// OnStop is called when Server is stopped (see service.BaseService for details).
func (s *Server) OnStop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.Logger.Error("error while shuting down API server", "error", err)
	}
}

// Addr returns the address the server listens on, nil if not listening.
func (s *Server) Addr() net.Addr {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) startAPI() error {
	addr := s.cfg.HTTPListenAddress()
	if addr == "" {
		s.Logger.Info("HTTP server port not specified - API will not be exposed")
		return nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	if s.cfg.MaxOpenConnections != 0 {
		s.Logger.Debug("limiting number of connections", "limit", s.cfg.MaxOpenConnections)
		listener = netutil.LimitListener(listener, s.cfg.MaxOpenConnections)
	}

	handler, err := NewHandler(s.backend, s.bus, s.cfg, s.metrics, s.Logger)
	if err != nil {
		_ = listener.Close()
		return err
	}

	if len(s.cfg.CORSAllowedOrigins) > 0 {
		s.Logger.Debug("CORS enabled", "origins", s.cfg.CORSAllowedOrigins)
		c := cors.New(cors.Options{
			AllowedOrigins: s.cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
		})
		handler = c.Handler(handler)
	}

	s.mtx.Lock()
	s.listener = listener
	s.server = http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second * 2,
	}
	s.mtx.Unlock()

	go func() {
		err := s.serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("error while serving HTTP", "error", err)
		}
	}()

	return nil
}

func (s *Server) serve(listener net.Listener) error {
	s.Logger.Info("serving HTTP", "listen address", listener.Addr())
	return s.server.Serve(listener)
}
