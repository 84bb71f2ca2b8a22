package comm

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

// ErrAlreadyReplied is returned when a command is replied twice.
var ErrAlreadyReplied = errors.New("command already replied")

// Registrar implements l1.Registrar over a Pipe.
// Received commands are posted to the loop wrapped in l1.CommandMsg,
// events are posted as they are.
type Registrar struct {
	pipe Pipe
}

// Init initializes the Registrar on a transport.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(r.post)
}

func (r *Registrar) post(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsReply() {
		glog.V(1).Infof("drop reply %x of sequence %d", typed.TypeId, typed.Sequence)
		return nil
	}
	if typed.IsCommand() {
		msg = &l1.CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: &r.pipe}}
	}
	loopCtl := fx.LoopCtlFrom(ctx)
	loopCtl.PostMessage(msg)
	loopCtl.TriggerNext()
	return nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

// Run receives messages until the transport is closed. It's used when
// the transport is attached after the loop started, ctx must carry the
// loop control.
func (r *Registrar) Run(ctx context.Context) error {
	return r.pipe.Run(ctx)
}

// Close closes the transport.
func (r *Registrar) Close() error {
	return r.pipe.Close()
}

type command struct {
	seq     uint32
	msg     fx.Message
	pipe    *Pipe
	replied int32
}

func (c *command) Msg() fx.Message {
	return c.msg
}

func (c *command) Done(msg fx.Message) error {
	if !atomic.CompareAndSwapInt32(&c.replied, 0, 1) {
		return ErrAlreadyReplied
	}
	return c.pipe.SendCommandMsg(msg, c.seq)
}

// RegistrarMux sends events through multiple Registrars.
type RegistrarMux struct {
	Registrars []l1.Registrar
}

// SendEvent implements Registrar.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, reg := range r.Registrars {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	for _, reg := range r.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...l1.Registrar) {
	r.Registrars = append(r.Registrars, regs...)
}

// UnsupportedCommands replies left-over commands as unsupported.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		mctx.MessageTaken()
		glog.V(1).Infof("unsupported command %T", cmdMsg.Command.Msg())
		if err := cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)); err != nil {
			glog.Warningf("reply unsupported command error: %v", err)
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
