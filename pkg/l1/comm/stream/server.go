package stream

import (
	"context"
	"net"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm"
)

// Server implements l1.Registrar by accepting TCP connections
// carrying length prefixed packets.
type Server struct {
	Addr string

	comm.Hub

	lock     sync.RWMutex
	listener net.Listener
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{Addr: addr}
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
	glog.Infof("tcp listening on %s", ln.Addr())

	var wg sync.WaitGroup
	err = fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				remote := conn.RemoteAddr()
				glog.Infof("tcp %s connected", remote)
				err := s.Serve(ctx, New(conn))
				glog.Infof("tcp %s disconnected: %v", remote, err)
			}()
		}
	})
	s.Close()
	wg.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
