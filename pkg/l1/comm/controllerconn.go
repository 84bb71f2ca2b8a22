package comm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

// ErrConnClosed fails the commands pending when the connection stops.
var ErrConnClosed = errors.New("connection closed")

// DefaultCommandExpiration is the default expiration expecting a result.
const DefaultCommandExpiration = 1 * time.Second

// ControllerConn implements l1.ControllerConn over a Pipe.
// Commands not replied within Expiration fail with context.DeadlineExceeded,
// and the ones pending when the pipe stops fail with ErrConnClosed.
type ControllerConn struct {
	Expiration time.Duration
	Clock      clock.Clock

	pipe    Pipe
	lock    sync.Mutex
	seq     uint32
	closed  bool
	pending map[uint32]*commandFuture
	// futures in the order of expiration, which is the order of sending.
	queue []*commandFuture
}

// Init initializes ControllerConn with defaults.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.Clock = clock.New()
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.pending = make(map[uint32]*commandFuture)
}

// DoCommand implements ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	f := &commandFuture{result: make(chan l1.Result, 1)}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		f.complete(l1.Result{Err: ErrConnClosed})
		return f
	}
	if c.seq++; c.seq == 0 {
		c.seq++
	}
	f.seq, f.expireAt = c.seq, c.Clock.Now().Add(c.Expiration)
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.complete(l1.Result{Err: err})
		return f
	}
	c.pending[f.seq] = f
	c.queue = append(c.queue, f)
	return f
}

// Pending returns the number of commands waiting for replies.
func (c *ControllerConn) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// Run implements Runnable. It runs the pipe and fails all pending
// commands once the pipe stops.
func (c *ControllerConn) Run(ctx context.Context) error {
	err := c.pipe.Run(ctx)
	c.lock.Lock()
	c.closed = true
	for _, f := range c.pending {
		f.complete(l1.Result{Err: ErrConnClosed})
	}
	c.pending, c.queue = make(map[uint32]*commandFuture), nil
	c.lock.Unlock()
	return err
}

// Close closes the transport, which stops Run.
func (c *ControllerConn) Close() error {
	return c.pipe.Close()
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	c.pipe.addTransport(l)
	l.AddRunnable(c)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.purgeExpired))
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	if !typed.IsReply() {
		glog.V(1).Infof("drop command %x sent to the connector side", typed.TypeId)
		return nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	f := c.pending[typed.Sequence]
	if f == nil {
		glog.V(2).Infof("drop reply of unknown sequence %d", typed.Sequence)
		return nil
	}
	delete(c.pending, typed.Sequence)
	result := l1.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.complete(result)
	return nil
}

func (c *ControllerConn) purgeExpired(cc fx.ControlContext) error {
	now := c.Clock.Now()
	c.lock.Lock()
	defer c.lock.Unlock()
	n := 0
	for ; n < len(c.queue); n++ {
		f := c.queue[n]
		if f.expireAt.After(now) {
			break
		}
		// replied futures are already removed from pending.
		if c.pending[f.seq] == f {
			delete(c.pending, f.seq)
			f.complete(l1.Result{Err: context.DeadlineExceeded})
		}
	}
	c.queue = c.queue[n:]
	return nil
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	result   chan l1.Result
}

func (f *commandFuture) complete(res l1.Result) {
	f.result <- res
	close(f.result)
}

func (f *commandFuture) ResultChan() <-chan l1.Result {
	return f.result
}
