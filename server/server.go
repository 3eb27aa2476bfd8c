package server

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server owns the HTTP listener, upgrades websocket peers, and hands them to
// the gateway. Model asset files are served from a plain directory; clients
// consume the download URLs opaquely.
type Server struct {
	addr     string
	gateway  *Gateway
	log      *zap.Logger
	assetDir string

	upgrader websocket.Upgrader
	listener net.Listener
	httpSrv  *http.Server
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[*connection]struct{}
}

// NewServer constructs a server for the given listen address.
func NewServer(addr string, gateway *Gateway, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		addr:    addr,
		gateway: gateway,
		log:     log,
		upgrader: websocket.Upgrader{
			// Every user is a trusted peer; there is no origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		quit:  make(chan struct{}),
		conns: make(map[*connection]struct{}),
	}
}

// SetAssetDir enables serving uploaded model files under /assets/.
func (s *Server) SetAssetDir(dir string) {
	s.assetDir = dir
}

// Start binds the listener and begins accepting connections.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = l

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebsocket)
	if s.assetDir != "" {
		mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(s.assetDir))))
	}

	s.httpSrv = &http.Server{Handler: mux}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(l); err != nil && err != http.ErrServerClosed {
			select {
			case <-s.quit:
			default:
				s.log.Error("http serve failed", zap.Error(err))
			}
		}
	}()

	s.log.Info("listening", zap.String("addr", l.Addr().String()))
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConnection(ws, s.gateway, s.log)
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	s.wg.Add(1)

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		s.wg.Done()
	}()

	conn.serve()
}

// Stop closes the listener and all live connections, then waits for the
// handlers to drain or the context to expire. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.quit) })
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
