package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds how long in-flight HTTP calls may finish.
const shutdownTimeout = 5 * time.Second

// Server exposes the import engine over MCP.
//
// Tool calls share repository sessions for the server's lifetime, so an
// object imported by one call can be the destination or association
// target of the next. There is one session per overwrite mode and all of
// them share a single identity cache.
type Server struct {
	ports  *Ports
	server *mcp.Server

	mu       sync.Mutex
	sessions map[sessionMode]*driving.Session
	cache    driven.IdentityCache
}

// sessionMode is the overwrite option a session was opened with.
type sessionMode int

const (
	modeSettings sessionMode = iota
	modeOverwrite
	modeKeep
)

func modeOf(overwrite *bool) sessionMode {
	switch {
	case overwrite == nil:
		return modeSettings
	case *overwrite:
		return modeOverwrite
	default:
		return modeKeep
	}
}

// NewServer creates a server over the given ports. No repository
// connection is made until the first tool call needs one.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:    ports,
		server:   mcp.NewServer(&mcp.Implementation{Name: "cmisimport", Version: Version}, nil),
		sessions: make(map[sessionMode]*driving.Session),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Serve blocks until ctx is done. An empty addr speaks JSON-RPC over
// stdio; otherwise the streamable HTTP transport listens on addr.
func (s *Server) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return s.server.Run(ctx, &mcp.StdioTransport{})
	}
	return s.serveHTTP(ctx, addr)
}

func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutting down http server: %v", err)
		}
	}()

	logger.Info("mcp: listening on %s", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// session returns the open session for the overwrite option, opening it
// on first use.
func (s *Server) session(ctx context.Context, overwrite *bool) (*driving.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := modeOf(overwrite)
	if session, ok := s.sessions[mode]; ok {
		return session, nil
	}

	session, err := s.ports.Session.Open(ctx, driving.SessionOptions{Overwrite: overwrite, Cache: s.cache})
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		s.cache = session.Cache
	}
	s.sessions[mode] = session
	logger.Debug("mcp: opened session (overwrite=%t)", session.Overwrite)
	return session, nil
}

// forget drops open sessions after err if it means the repository was
// lost. The next call reconnects and keeps the identity cache.
func (s *Server) forget(err error) {
	if !errors.Is(err, domain.ErrRepositoryUnavailable) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
	logger.Warn("mcp: repository session lost: %v", err)
}
