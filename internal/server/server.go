package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/stockinfo/internal/app"
	"github.com/bobmcallan/stockinfo/internal/common"
)

// Server serves the stock page and the report API for one App.
type Server struct {
	app          *app.App
	server       *http.Server
	listener     net.Listener
	logger       *common.Logger
	shutdownChan chan struct{}
}

// SetShutdownChannel sets the channel signalled by POST /api/shutdown.
// A buffered channel of size one is expected.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// NewServer builds the HTTP server from the App's server config.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	cfg := a.Config.Server
	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           applyMiddleware(mux, a.Logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.GetReadTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Addr returns the bound address once Listen has succeeded, otherwise the
// configured one. With port 0 this is where the kernel-chosen port shows up.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Listen binds the configured address so that bind errors surface before serving.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Serve accepts connections until Shutdown. It binds first if Listen was not
// called. http.ErrServerClosed is reported as nil.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info().
		Str("addr", s.Addr()).
		Str("environment", s.app.Config.Environment).
		Msg("Serving stock report page")

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight reports.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
