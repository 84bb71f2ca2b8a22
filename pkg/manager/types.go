package manager

import (
	"errors"
	"fmt"
	"time"

	"github.com/robotalks/roboclaw.go/pkg/roboclaw"
)

// Command is a motion command accepted by the inbox.
// Wheel i is driven by controller i/2, channel M1 for even i and M2 for odd i.
type Command interface {
	isCommand()
}

// DutyCommand sets the duty cycle of a wheel.
type DutyCommand struct {
	Wheel int
	Duty  int16
	// Accel is optional, 0 means switching immediately.
	Accel uint16
}

// SpeedCommand sets the speed of a wheel in ticks/s.
type SpeedCommand struct {
	Wheel int
	Speed int32
	// Accel, Deccel are optional, in ticks/s^2.
	Accel  uint32
	Deccel uint32
	// Distance is optional, in ticks. When Deccel is set, it's the target
	// position and the direction comes from the position.
	Distance uint32
	// Buffered queues a distance/position command after the running ones.
	Buffered bool
}

// VelocityCommand moves the robot with linear (m/s) and angular (rad/s)
// velocities in the robot frame.
type VelocityCommand struct {
	Linear  float64
	Angular float64
	// Accel is optional, in ticks/s^2.
	Accel uint32
}

// StopCommand releases all motors (zero duty cycle).
type StopCommand struct{}

func (DutyCommand) isCommand()     {}
func (SpeedCommand) isCommand()    {}
func (VelocityCommand) isCommand() {}
func (StopCommand) isCommand()     {}

// Kind is the type of a telemetry sample.
type Kind int

// Sample kinds
const (
	InstSpeed Kind = iota
	Encoder
	Speed
	MainBattery
	LogicBattery
	Temperature
	Currents
	ErrorState
	BufferCounts
	VelocityPID
)

var kindNames = []string{
	"inst-speed",
	"encoder",
	"speed",
	"main-battery",
	"logic-battery",
	"temperature",
	"currents",
	"error-state",
	"buffer-counts",
	"velocity-pid",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sample is one telemetry reading.
// When Valid is false, Values are the roboclaw.Invalid sentinel and Err
// tells why: roboclaw.ErrChecksum or a transport fault.
type Sample struct {
	Controller int
	Kind       Kind
	// Motor is 0 for readings of the whole controller.
	Motor  roboclaw.Motor
	Values []int64
	Valid  bool
	Err    error
	Time   time.Time
}

// State is the lifecycle state of the Manager.
type State int32

// States
const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

var (
	// ErrInboxFull indicates the command can't be queued without blocking.
	ErrInboxFull = errors.New("command inbox full")
	// ErrStopped indicates the manager no longer accepts commands.
	ErrStopped = errors.New("manager stopped")
	// ErrNotIdle indicates Run is called more than once.
	ErrNotIdle = errors.New("manager already started")
	// ErrNoWheel indicates a command addresses a wheel not attached.
	ErrNoWheel = errors.New("no such wheel")
)

// FaultError terminates the manager after a controller keeps failing.
type FaultError struct {
	Controller int
	Faults     int
	Err        error
}

// Error implements error.
func (e *FaultError) Error() string {
	return fmt.Sprintf("controller %d: %d consecutive faults: %v", e.Controller, e.Faults, e.Err)
}

// Unwrap returns the last fault.
func (e *FaultError) Unwrap() error {
	return e.Err
}
