package base

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
	"github.com/robotalks/roboclaw.go/pkg/manager"
)

// Controller is the L1 controller of a base driven by RoboClaw
// controllers. Commands are queued to the manager and every telemetry
// sample is forwarded as an event.
type Controller struct {
	Manager   *manager.Manager
	Registrar l1.Registrar
}

// NewController creates a Controller.
func NewController(reg l1.Registrar, m *manager.Manager) *Controller {
	return &Controller{Manager: m, Registrar: reg}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(
		fx.NamedRun("manager", c.Manager),
		fx.NamedRun("telemetry", fx.RunFunc(c.pumpTelemetry)),
	)
	loop.AddController(fx.PrLvControl, c)
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		if reply := c.handle(cmd.Command.Msg()); reply != nil {
			mctx.MessageTaken()
			if err := cmd.Command.Done(reply); err != nil {
				glog.Warningf("reply error: %v", err)
			}
		}
	}))
	return nil
}

// handle returns nil for commands not for the base.
func (c *Controller) handle(msg fx.Message) fx.Message {
	var cmd manager.Command
	switch m := msg.(type) {
	case *msgs.BaseVelocity:
		cmd = manager.VelocityCommand{Linear: m.Linear, Angular: m.Angular, Accel: m.Accel}
	case *msgs.WheelSpeed:
		cmd = manager.SpeedCommand{
			Wheel:    int(m.Wheel),
			Speed:    m.Speed,
			Accel:    m.Accel,
			Deccel:   m.Deccel,
			Distance: m.Distance,
			Buffered: m.Buffered,
		}
	case *msgs.WheelDuty:
		if m.Duty > math.MaxInt16 || m.Duty < math.MinInt16 {
			return msgs.NewCommandErrFromMsg(fmt.Sprintf("duty %d out of range", m.Duty))
		}
		if m.Accel > math.MaxUint16 {
			return msgs.NewCommandErrFromMsg(fmt.Sprintf("accel %d out of range", m.Accel))
		}
		cmd = manager.DutyCommand{Wheel: int(m.Wheel), Duty: int16(m.Duty), Accel: uint16(m.Accel)}
	case *msgs.BaseStop:
		cmd = manager.StopCommand{}
	case *msgs.BaseStatusQuery:
		return c.Status()
	default:
		return nil
	}
	if err := c.Manager.TrySubmit(cmd); err != nil {
		return msgs.NewCommandErr(err)
	}
	return msgs.NewCommandOK()
}

// Status reports the manager state.
func (c *Controller) Status() *msgs.BaseStatus {
	return &msgs.BaseStatus{
		State:       c.Manager.State().String(),
		Controllers: uint32(c.Manager.Controllers()),
		Wheels:      uint32(c.Manager.Wheels()),
		Dropped:     c.Manager.Dropped(),
	}
}

func (c *Controller) pumpTelemetry(ctx context.Context) error {
	for s := range c.Manager.Telemetry() {
		if err := c.Registrar.SendEvent(ctx, TelemetryFrom(s)); err != nil {
			glog.V(1).Infof("send telemetry error: %v", err)
		}
	}
	return nil
}

// TelemetryFrom converts a sample into the event message.
func TelemetryFrom(s manager.Sample) *msgs.Telemetry {
	ev := &msgs.Telemetry{
		Controller: uint32(s.Controller),
		Kind:       s.Kind.String(),
		Motor:      uint32(s.Motor),
		Values:     s.Values,
		Valid:      s.Valid,
		Timestamp:  s.Time.UnixNano(),
	}
	if s.Err != nil {
		ev.Error = s.Err.Error()
	}
	return ev
}
