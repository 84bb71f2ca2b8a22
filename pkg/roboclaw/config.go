package roboclaw

import (
	"flag"
	"time"
)

// Config defines how a controller is reached.
type Config struct {
	// Port is the device path, e.g. /dev/ttyACM0.
	Port string
	// Baud is ignored by USB revisions but required by older ones.
	Baud int
	// Timeout applies to each read from the port.
	Timeout time.Duration
	// Address of the controller, 0x80 - 0x87.
	Address uint
	// MaxTicksPerSecond is the encoder rate at full duty cycle.
	// It is measured per robot and programmed as QPPS.
	MaxTicksPerSecond uint
	// Null selects the hardware-absent device.
	Null bool
}

// Defaults
const (
	DefaultAddress = 0x80
	DefaultBaud    = 38400
	DefaultTimeout = 500 * time.Millisecond
)

var defaultConfig = Config{
	Baud:    DefaultBaud,
	Timeout: DefaultTimeout,
	Address: DefaultAddress,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate, ignored by USB controllers.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Read timeout per operation.")
	flag.UintVar(&defaultConfig.Address, "address", defaultConfig.Address, "Controller address.")
	flag.UintVar(&defaultConfig.MaxTicksPerSecond, "max-tps", defaultConfig.MaxTicksPerSecond, "Encoder ticks per second at full duty cycle (QPPS).")
	flag.BoolVar(&defaultConfig.Null, "null", defaultConfig.Null, "Run without hardware.")
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

// WithPort returns a copy of config for another port.
func (c *Config) WithPort(port string) *Config {
	conf := *c
	conf.Port = port
	return &conf
}

// Open opens the device selected by config.
func (c *Config) Open() (*Claw, error) {
	var dev Device
	if c.Null {
		dev = NewNullDevice()
	} else {
		d, err := OpenSerial(c)
		if err != nil {
			return nil, err
		}
		dev = d
	}
	claw := New(dev)
	claw.Name = c.Port
	claw.MaxTicksPerSecond = uint32(c.MaxTicksPerSecond)
	return claw, nil
}
