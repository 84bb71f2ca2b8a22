package comm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
// It must be safe for concurrent use.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
// Transports implementing io.Closer are closed with the Pipe.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

var (
	// ErrNotCommand indicates a non-command message sent as a command.
	ErrNotCommand = errors.New("message is not a command")
	// ErrNotEvent indicates a non-event message sent as an event.
	ErrNotEvent = errors.New("message is not an event")
)

// Pipe exchanges Typed messages over a PacketReadWriter.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    msgs.TypedMsgHandler
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter) *Pipe {
	return &Pipe{ReadWriter: rw}
}

// SendCommandMsg sends a command, or the reply of a command, with
// the sequence number pairing them.
func (p *Pipe) SendCommandMsg(msg fx.Message, seq uint32) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsCommand() {
		return fmt.Errorf("%w: type %x", ErrNotCommand, typed.TypeId)
	}
	typed.Sequence = seq
	return p.SendTyped(typed)
}

// SendEventMsg sends an event.
func (p *Pipe) SendEventMsg(msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsEvent() {
		return fmt.Errorf("%w: type %x", ErrNotEvent, typed.TypeId)
	}
	return p.SendTyped(typed)
}

// SendTyped send a Typed message.
func (p *Pipe) SendTyped(typed *msgs.Typed) error {
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	glog.V(3).Infof("send type %x seq %d", typed.TypeId, typed.Sequence)
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable. It dispatches received messages to Handler
// until the transport fails or ctx is done.
func (p *Pipe) Run(ctx context.Context) error {
	err := fx.RunWithContextCloser(ctx, p, func() error {
		return p.receive(ctx)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *Pipe) receive(ctx context.Context) error {
	for {
		pkt, err := p.ReadWriter.ReadPacket()
		if err != nil {
			return err
		}
		typed, err := msgs.DecodeTyped(pkt)
		if err != nil {
			glog.V(1).Infof("drop malformed packet: %v", err)
			continue
		}
		msg, err := typed.Decode()
		if err != nil {
			glog.V(1).Infof("decode type %x error: %v", typed.TypeId, err)
			if typed.IsCommand() && !typed.IsReply() {
				if err = p.SendCommandMsg(msgs.NewCommandErr(err), typed.Sequence); err != nil {
					return err
				}
			}
			continue
		}
		if h := p.Handler; h != nil {
			if err = h.HandleTypedMsg(ctx, msg, typed); err != nil {
				return err
			}
		}
	}
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	p.addTransport(loop)
	loop.AddRunnable(p)
}

// addTransport adds the transport to the loop if it needs to run.
func (p *Pipe) addTransport(loop *fx.Loop) {
	if adder, ok := p.ReadWriter.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := p.ReadWriter.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
}
