package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
)

// Hub implements Registrar over a changing set of connections.
// Commands from any connection are posted to the loop, events are
// broadcast to all connections.
type Hub struct {
	lock  sync.RWMutex
	conns map[*Registrar]struct{}
}

// Serve registers rw until it fails or ctx is done.
// ctx must carry the loop control.
func (h *Hub) Serve(ctx context.Context, rw PacketReadWriter) error {
	reg := &Registrar{}
	reg.Init(rw)
	h.lock.Lock()
	if h.conns == nil {
		h.conns = make(map[*Registrar]struct{})
	}
	h.conns[reg] = struct{}{}
	h.lock.Unlock()
	defer h.remove(reg)
	return reg.Run(ctx)
}

// Connections returns the number of connections.
func (h *Hub) Connections() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.conns)
}

// SendEvent implements Registrar. Connections failing to
// receive the event are closed.
func (h *Hub) SendEvent(ctx context.Context, msg fx.Message) error {
	h.lock.RLock()
	regs := make([]*Registrar, 0, len(h.conns))
	for reg := range h.conns {
		regs = append(regs, reg)
	}
	h.lock.RUnlock()
	for _, reg := range regs {
		if err := reg.SendEvent(ctx, msg); err != nil {
			glog.V(1).Infof("drop connection: %v", err)
			h.remove(reg)
			reg.Close()
		}
	}
	return nil
}

// Close closes all connections.
func (h *Hub) Close() error {
	h.lock.Lock()
	conns := h.conns
	h.conns = nil
	h.lock.Unlock()
	var errs fx.AggregatedError
	for reg := range conns {
		errs.Add(reg.Close())
	}
	return errs.Aggregate()
}

func (h *Hub) remove(reg *Registrar) {
	h.lock.Lock()
	delete(h.conns, reg)
	h.lock.Unlock()
}
