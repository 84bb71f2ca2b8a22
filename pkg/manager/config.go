package manager

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/roboclaw"
)

// Config defines the drive base and the poll loop.
type Config struct {
	// Ports is a comma separated list of device paths. The order defines
	// the controller index.
	Ports string

	PollInterval time.Duration
	// SlowPollEvery polls encoders, batteries and health every N cycles,
	// 0 disables it.
	SlowPollEvery int
	// MaxFaults is the number of consecutive transport faults on a single
	// controller before the manager gives up, 0 means never.
	MaxFaults int

	InboxSize  int
	OutboxSize int

	// WheelRadius, TrackWidth in m.
	WheelRadius float64
	TrackWidth  float64
	TicksPerRev float64

	// Velocity PID programmed on start when any of them is non-zero.
	PIDP uint
	PIDI uint
	PIDD uint
}

// Defaults
const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultQueueSize    = 16
)

var defaultConfig = Config{
	PollInterval:  DefaultPollInterval,
	SlowPollEvery: 20,
	InboxSize:     DefaultQueueSize,
	OutboxSize:    DefaultQueueSize * 4,
}

func init() {
	if val := os.Getenv("ROBOCLAW_PORTS"); val != "" {
		defaultConfig.Ports = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ports, "ports", defaultConfig.Ports, "Comma separated serial ports of controllers.")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Poll interval.")
	flag.IntVar(&defaultConfig.SlowPollEvery, "slow-poll", defaultConfig.SlowPollEvery, "Poll health readings every N cycles.")
	flag.IntVar(&defaultConfig.MaxFaults, "max-faults", defaultConfig.MaxFaults, "Consecutive faults before giving up, 0 for unlimited.")
	flag.IntVar(&defaultConfig.InboxSize, "inbox", defaultConfig.InboxSize, "Command queue size.")
	flag.IntVar(&defaultConfig.OutboxSize, "outbox", defaultConfig.OutboxSize, "Telemetry queue size.")
	flag.Float64Var(&defaultConfig.WheelRadius, "wheel-radius", defaultConfig.WheelRadius, "Wheel radius in meters.")
	flag.Float64Var(&defaultConfig.TrackWidth, "track-width", defaultConfig.TrackWidth, "Distance between left and right wheels in meters.")
	flag.Float64Var(&defaultConfig.TicksPerRev, "ticks-per-rev", defaultConfig.TicksPerRev, "Encoder ticks per wheel revolution.")
	flag.UintVar(&defaultConfig.PIDP, "pid-p", defaultConfig.PIDP, "Velocity PID proportional constant.")
	flag.UintVar(&defaultConfig.PIDI, "pid-i", defaultConfig.PIDI, "Velocity PID integral constant.")
	flag.UintVar(&defaultConfig.PIDD, "pid-d", defaultConfig.PIDD, "Velocity PID derivative constant.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// PortList splits Ports.
func (c *Config) PortList() []string {
	var ports []string
	for _, port := range strings.Split(c.Ports, ",") {
		if port = strings.TrimSpace(port); port != "" {
			ports = append(ports, port)
		}
	}
	return ports
}

// Validate checks the required values.
func (c *Config) Validate() error {
	var errs fx.AggregatedError
	if c.WheelRadius <= 0 {
		errs.Add(errors.New("wheel radius must be positive"))
	}
	if c.TrackWidth <= 0 {
		errs.Add(errors.New("track width must be positive"))
	}
	if c.TicksPerRev <= 0 {
		errs.Add(errors.New("ticks per revolution must be positive"))
	}
	if c.PollInterval <= 0 {
		errs.Add(errors.New("poll interval must be positive"))
	}
	if c.InboxSize <= 0 || c.OutboxSize <= 0 {
		errs.Add(errors.New("queue size must be positive"))
	}
	return errs.Aggregate()
}

// VelocityPID returns the PID to program, nil if not configured.
func (c *Config) VelocityPID() *roboclaw.VelocityPID {
	if c.PIDP == 0 && c.PIDI == 0 && c.PIDD == 0 {
		return nil
	}
	return &roboclaw.VelocityPID{P: int64(c.PIDP), I: int64(c.PIDI), D: int64(c.PIDD)}
}

// New creates a Manager driving the controllers.
func (c *Config) New(claws ...*roboclaw.Claw) (*Manager, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(claws) == 0 {
		return nil, errors.New("no controllers")
	}
	m := &Manager{
		Interval:      c.PollInterval,
		SlowPollEvery: c.SlowPollEvery,
		MaxFaults:     c.MaxFaults,
		VelocityPID:   c.VelocityPID(),
		Drive: &Drive{
			Kinematics:  NewSkidSteer(c.TrackWidth, len(claws)*2),
			WheelRadius: c.WheelRadius,
			TicksPerRev: c.TicksPerRev,
		},
	}
	m.init(claws, c.InboxSize, c.OutboxSize)
	return m, nil
}

// Open opens every port with the device config and creates the Manager.
// Without ports, a null device config gets a single controller.
func (c *Config) Open(dev *roboclaw.Config) (*Manager, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ports := c.PortList()
	if len(ports) == 0 {
		if !dev.Null {
			return nil, errors.New("no ports specified")
		}
		ports = []string{"null"}
	}
	claws := make([]*roboclaw.Claw, 0, len(ports))
	for _, port := range ports {
		claw, err := dev.WithPort(port).Open()
		if err != nil {
			for _, opened := range claws {
				opened.Close()
			}
			return nil, fmt.Errorf("controller %d: %w", len(claws), err)
		}
		glog.Infof("controller %d: %s", len(claws), port)
		claws = append(claws, claw)
	}
	return c.New(claws...)
}

// MustOpen opens the Manager or fails.
func (c *Config) MustOpen(dev *roboclaw.Config) *Manager {
	m, err := c.Open(dev)
	if err != nil {
		log.Fatalln(err)
	}
	return m
}
