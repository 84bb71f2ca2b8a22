package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm"
)

// DefaultPath is the HTTP path accepting websocket connections.
const DefaultPath = "/ws"

// Server implements l1.Registrar by accepting websocket connections.
type Server struct {
	Addr string
	Path string

	comm.Hub

	lock     sync.RWMutex
	listener net.Listener
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, Path: DefaultPath}
}

// ListenAddr returns the bound address, nil before listening.
func (s *Server) ListenAddr() net.Addr {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler creates the http.Handler. ctx must carry the loop control.
func (s *Server) Handler(ctx context.Context) http.Handler {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		remote := conn.Request().RemoteAddr
		glog.Infof("websocket %s connected", remote)
		err := s.Serve(ctx, New(conn))
		glog.Infof("websocket %s disconnected: %v", remote, err)
	}))
	return mux
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.listener = ln
	s.lock.Unlock()
	glog.Infof("websocket listening on %s", ln.Addr())

	srv := &http.Server{Handler: s.Handler(ctx)}
	err = fx.RunWithContextCloser(ctx, srv, func() error {
		return srv.Serve(ln)
	})
	s.Close()
	if err == http.ErrServerClosed || err == context.Canceled {
		return ctx.Err()
	}
	return err
}
