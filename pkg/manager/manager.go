package manager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/roboclaw"
)

// Manager owns the controllers and runs the poll loop.
// Commands are queued by any number of goroutines and applied by the
// worker at the start of a cycle. Samples are published to a bounded
// outbox which drops the oldest sample when full.
type Manager struct {
	Clock         clock.Clock
	Interval      time.Duration
	Drive         *Drive
	VelocityPID   *roboclaw.VelocityPID
	SlowPollEvery int
	MaxFaults     int

	claws  []*roboclaw.Claw
	inbox  chan Command
	outbox chan Sample
	state  int32

	stopCh   chan struct{}
	stopOnce sync.Once

	cycle   uint64
	faults  []int
	dropped uint64
}

// New creates a Manager with default settings.
// Drive must be set before velocity commands are submitted.
func New(claws ...*roboclaw.Claw) *Manager {
	m := &Manager{Interval: DefaultPollInterval}
	m.init(claws, DefaultQueueSize, DefaultQueueSize*4)
	return m
}

func (m *Manager) init(claws []*roboclaw.Claw, inboxSize, outboxSize int) {
	m.Clock = clock.New()
	m.claws = claws
	m.inbox = make(chan Command, inboxSize)
	m.outbox = make(chan Sample, outboxSize)
	m.stopCh = make(chan struct{})
	m.faults = make([]int, len(claws))
}

// Controllers returns the number of controllers.
func (m *Manager) Controllers() int {
	return len(m.claws)
}

// Wheels returns the number of wheels.
func (m *Manager) Wheels() int {
	return len(m.claws) * 2
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(atomic.LoadInt32(&m.state))
}

// Telemetry returns the outbox. It's closed when the manager stops.
func (m *Manager) Telemetry() <-chan Sample {
	return m.outbox
}

// Dropped returns the number of samples discarded due to a full outbox.
func (m *Manager) Dropped() uint64 {
	return atomic.LoadUint64(&m.dropped)
}

// Submit queues a command, blocking until there's room.
func (m *Manager) Submit(ctx context.Context, cmd Command) error {
	if err := m.accept(cmd); err != nil {
		return err
	}
	select {
	case m.inbox <- cmd:
		return nil
	case <-m.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues a command without blocking.
func (m *Manager) TrySubmit(cmd Command) error {
	if err := m.accept(cmd); err != nil {
		return err
	}
	select {
	case m.inbox <- cmd:
		return nil
	default:
		return ErrInboxFull
	}
}

func (m *Manager) accept(cmd Command) error {
	if state := m.State(); state == Stopping || state == Stopped {
		return ErrStopped
	}
	var wheel int
	switch c := cmd.(type) {
	case DutyCommand:
		wheel = c.Wheel
	case SpeedCommand:
		wheel = c.Wheel
	case VelocityCommand:
		if m.Drive == nil {
			return fmt.Errorf("velocity command: no drive configured")
		}
		if n := len(m.Drive.TickRates(0, 0)); n < m.Wheels() {
			return fmt.Errorf("velocity command: kinematics has %d wheels, expect %d", n, m.Wheels())
		}
		return nil
	case StopCommand:
		return nil
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
	if wheel < 0 || wheel >= m.Wheels() {
		return fmt.Errorf("%w: %d", ErrNoWheel, wheel)
	}
	return nil
}

// Stop requests the worker to stop after the current cycle.
// A manager never started is stopped immediately.
func (m *Manager) Stop() {
	if atomic.CompareAndSwapInt32(&m.state, int32(Idle), int32(Stopped)) {
		m.release()
		return
	}
	atomic.CompareAndSwapInt32(&m.state, int32(Running), int32(Stopping))
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Run implements framework.Runnable.
func (m *Manager) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&m.state, int32(Idle), int32(Running)) {
		return ErrNotIdle
	}
	defer m.shutdown()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.Stop()
		case <-done:
		}
	}()

	m.configure()

	ticker := m.Clock.Ticker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return ctx.Err()
		case <-ticker.C:
			if m.State() != Running {
				return ctx.Err()
			}
			if err := m.runCycle(); err != nil {
				return err
			}
		}
	}
}

func (m *Manager) shutdown() {
	atomic.StoreInt32(&m.state, int32(Stopped))
	m.release()
	glog.Infof("manager stopped after %d cycles", m.cycle)
}

// release closes the controllers and the outbox.
func (m *Manager) release() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	var errs fx.AggregatedError
	for n, claw := range m.claws {
		if err := claw.Close(); err != nil {
			errs.Add(fmt.Errorf("controller %d: %w", n, err))
		}
	}
	if err := errs.Aggregate(); err != nil {
		glog.Errorf("close controllers: %v", err)
	}
	close(m.outbox)
}

func (m *Manager) configure() {
	for n, claw := range m.claws {
		ver, err := claw.ReadVersion()
		if err != nil {
			glog.Warningf("controller %d: read version: %v", n, err)
		} else {
			glog.Infof("controller %d: %s", n, ver)
		}
		if m.VelocityPID == nil {
			continue
		}
		pid := *m.VelocityPID
		pid.QPPS = int64(claw.MaxTicksPerSecond)
		for _, motor := range []roboclaw.Motor{roboclaw.M1, roboclaw.M2} {
			if err := claw.SetVelocityPID(motor, pid); err != nil {
				glog.Errorf("controller %d: set %s velocity PID: %v", n, motor, err)
			}
		}
	}
}

type poll struct {
	kind  Kind
	motor roboclaw.Motor
	op    roboclaw.Opcode
}

var (
	fastPolls = []poll{
		{InstSpeed, roboclaw.M1, roboclaw.ReadM1InstSpeed},
		{InstSpeed, roboclaw.M2, roboclaw.ReadM2InstSpeed},
	}
	slowPolls = []poll{
		{Encoder, roboclaw.M1, roboclaw.ReadM1Encoder},
		{Encoder, roboclaw.M2, roboclaw.ReadM2Encoder},
		{MainBattery, 0, roboclaw.ReadMainBattery},
		{LogicBattery, 0, roboclaw.ReadLogicBattery},
		{Temperature, 0, roboclaw.ReadTemperature},
		{Currents, 0, roboclaw.ReadCurrents},
		{Speed, roboclaw.M1, roboclaw.ReadM1Speed},
		{Speed, roboclaw.M2, roboclaw.ReadM2Speed},
		{BufferCounts, 0, roboclaw.ReadBufferCounts},
		{VelocityPID, roboclaw.M1, roboclaw.ReadM1VelocityPID},
		{VelocityPID, roboclaw.M2, roboclaw.ReadM2VelocityPID},
		{ErrorState, 0, roboclaw.ReadErrorState},
	}
)

// runCycle applies queued commands and polls every controller once.
func (m *Manager) runCycle() error {
	slow := m.SlowPollEvery > 0 && m.cycle%uint64(m.SlowPollEvery) == 0
	m.cycle++

	faults := make([]error, len(m.claws))
	m.drainInbox(faults)

	for n, claw := range m.claws {
		polls := fastPolls
		if slow {
			polls = append(append([]poll{}, fastPolls...), slowPolls...)
		}
		for _, p := range polls {
			if err := m.query(n, claw, p); err != nil {
				faults[n] = err
			}
		}
	}

	for n, err := range faults {
		if err == nil {
			m.faults[n] = 0
			continue
		}
		m.faults[n]++
		if m.MaxFaults > 0 && m.faults[n] >= m.MaxFaults {
			return &FaultError{Controller: n, Faults: m.faults[n], Err: err}
		}
	}
	return nil
}

func (m *Manager) drainInbox(faults []error) {
	for {
		select {
		case cmd := <-m.inbox:
			n, err := m.apply(cmd)
			if err != nil {
				glog.Warningf("controller %d: %#v: %v", n, cmd, err)
				if roboclaw.IsTransportError(err) {
					faults[n] = err
				}
			}
		default:
			return
		}
	}
}

// query executes one read and publishes the sample, returning the
// transport fault if any.
func (m *Manager) query(n int, claw *roboclaw.Claw, p poll) error {
	vals, err := claw.Exec(p.op)
	m.publish(Sample{
		Controller: n,
		Kind:       p.kind,
		Motor:      p.motor,
		Values:     vals,
		Valid:      err == nil,
		Err:        err,
		Time:       m.Clock.Now(),
	})
	switch {
	case err == nil:
		return nil
	case roboclaw.IsTransportError(err):
		glog.Warningf("controller %d: %s: %v", n, p.op, err)
		return err
	default:
		glog.V(1).Infof("controller %d: %s: %v", n, p.op, err)
		return nil
	}
}

func (m *Manager) publish(s Sample) {
	for {
		select {
		case m.outbox <- s:
			return
		default:
		}
		select {
		case old := <-m.outbox:
			atomic.AddUint64(&m.dropped, 1)
			glog.V(2).Infof("telemetry full, dropped %s of controller %d", old.Kind, old.Controller)
		default:
		}
	}
}

func (m *Manager) wheel(n int) (int, *roboclaw.Claw, roboclaw.Motor) {
	return n / 2, m.claws[n/2], roboclaw.Motor(n%2 + 1)
}

// apply sends a command and returns the index of the failing controller.
func (m *Manager) apply(cmd Command) (int, error) {
	switch c := cmd.(type) {
	case DutyCommand:
		n, claw, motor := m.wheel(c.Wheel)
		if c.Accel > 0 {
			return n, claw.DutyAccel(motor, c.Duty, c.Accel)
		}
		return n, claw.Duty(motor, c.Duty)
	case SpeedCommand:
		n, claw, motor := m.wheel(c.Wheel)
		return n, applySpeed(claw, motor, c)
	case VelocityCommand:
		rates := m.Drive.TickRates(c.Linear, c.Angular)
		for n, claw := range m.claws {
			var err error
			if c.Accel > 0 {
				err = claw.MixedSpeedAccel(c.Accel, rates[n*2], rates[n*2+1])
			} else {
				err = claw.MixedSpeed(rates[n*2], rates[n*2+1])
			}
			if err != nil {
				return n, err
			}
		}
	case StopCommand:
		for n, claw := range m.claws {
			if err := claw.MixedDuty(0, 0); err != nil {
				return n, err
			}
		}
	}
	return 0, nil
}

func applySpeed(claw *roboclaw.Claw, motor roboclaw.Motor, c SpeedCommand) error {
	buffer := roboclaw.Immediate
	if c.Buffered {
		buffer = roboclaw.Buffered
	}
	switch {
	case c.Deccel > 0:
		speed := c.Speed
		if speed < 0 {
			speed = -speed
		}
		return claw.SpeedAccelDeccelPosition(motor, roboclaw.Move{
			Accel:    c.Accel,
			Speed:    uint32(speed),
			Deccel:   c.Deccel,
			Position: c.Distance,
		}, buffer)
	case c.Distance > 0 && c.Accel > 0:
		return claw.SpeedAccelDistance(motor, c.Accel, c.Speed, c.Distance, buffer)
	case c.Distance > 0:
		return claw.SpeedDistance(motor, c.Speed, c.Distance, buffer)
	case c.Accel > 0:
		return claw.SpeedAccel(motor, c.Accel, c.Speed)
	default:
		return claw.Speed(motor, c.Speed)
	}
}
