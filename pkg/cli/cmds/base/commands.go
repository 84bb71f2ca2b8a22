package base

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/roboclaw.go/pkg/cli/sh"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

var (
	// VelocityCmd exposes BaseVelocity command.
	VelocityCmd = ishell.Cmd{
		Name:    "base.velocity",
		Aliases: []string{"v"},
		Help:    "LINEAR(m/s) ANGULAR(degrees/s) [ACCEL(ticks/s^2)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseVelocity(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// WheelSpeedCmd exposes WheelSpeed command.
	WheelSpeedCmd = ishell.Cmd{
		Name:    "wheel.speed",
		Aliases: []string{"ws"},
		Help:    "WHEEL SPEED(ticks/s) [accel=N] [deccel=N] [distance=N] [buffered]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseWheelSpeed(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// WheelDutyCmd exposes WheelDuty command.
	WheelDutyCmd = ishell.Cmd{
		Name:    "wheel.duty",
		Aliases: []string{"wd"},
		Help:    "WHEEL DUTY(%) [ACCEL]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseWheelDuty(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// StopCmd exposes BaseStop command.
	StopCmd = ishell.Cmd{
		Name:    "base.stop",
		Aliases: []string{"stop", "s"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.BaseStop{})
		}),
	}

	// StatusCmd exposes BaseStatusQuery command.
	StatusCmd = ishell.Cmd{
		Name:    "base.status",
		Aliases: []string{"status"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.BaseStatusQuery{})
		}),
	}
)

func init() {
	sh.AddCmds(
		&VelocityCmd,
		&WheelSpeedCmd,
		&WheelDutyCmd,
		&StopCmd,
		&StatusCmd,
	)
}

// ParseVelocity parses arguments of base.velocity.
func ParseVelocity(args []string) (*msgs.BaseVelocity, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("LINEAR and ANGULAR required")
	}
	var msg msgs.BaseVelocity
	var err error
	if msg.Linear, err = strconv.ParseFloat(args[0], 64); err != nil {
		return nil, fmt.Errorf("invalid LINEAR: %w", err)
	}
	deg, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ANGULAR: %w", err)
	}
	msg.Angular = deg * math.Pi / 180
	if len(args) > 2 {
		if msg.Accel, err = parseUint32(args[2]); err != nil {
			return nil, fmt.Errorf("invalid ACCEL: %w", err)
		}
	}
	return &msg, nil
}

// ParseWheelSpeed parses arguments of wheel.speed.
func ParseWheelSpeed(args []string) (*msgs.WheelSpeed, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("WHEEL and SPEED required")
	}
	var msg msgs.WheelSpeed
	var err error
	if msg.Wheel, err = parseUint32(args[0]); err != nil {
		return nil, fmt.Errorf("invalid WHEEL: %w", err)
	}
	speed, err := strconv.ParseInt(args[1], 0, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid SPEED: %w", err)
	}
	msg.Speed = int32(speed)
	for _, opt := range args[2:] {
		if opt == "buffered" {
			msg.Buffered = true
			continue
		}
		kv := strings.SplitN(opt, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid option %q", opt)
		}
		var field *uint32
		switch kv[0] {
		case "accel":
			field = &msg.Accel
		case "deccel":
			field = &msg.Deccel
		case "distance":
			field = &msg.Distance
		default:
			return nil, fmt.Errorf("unknown option %q", kv[0])
		}
		if *field, err = parseUint32(kv[1]); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", kv[0], err)
		}
	}
	return &msg, nil
}

// ParseWheelDuty parses arguments of wheel.duty.
// DUTY is a percentage of full power.
func ParseWheelDuty(args []string) (*msgs.WheelDuty, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("WHEEL and DUTY required")
	}
	var msg msgs.WheelDuty
	var err error
	if msg.Wheel, err = parseUint32(args[0]); err != nil {
		return nil, fmt.Errorf("invalid WHEEL: %w", err)
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DUTY: %w", err)
	}
	if pct < -100 || pct > 100 {
		return nil, fmt.Errorf("DUTY %v out of range", pct)
	}
	msg.Duty = int32(math.Round(pct * math.MaxInt16 / 100))
	if len(args) > 2 {
		if msg.Accel, err = parseUint32(args[2]); err != nil {
			return nil, fmt.Errorf("invalid ACCEL: %w", err)
		}
	}
	return &msg, nil
}

func parseUint32(s string) (uint32, error) {
	val, err := strconv.ParseUint(s, 0, 32)
	return uint32(val), err
}
