package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm/mqtt"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref l1.ControllerRef

	// RegistryURL specifies the URL of controller registry.
	// e.g. mqtt://host:port/topic-prefix
	RegistryURL string

	// Discover is how long discovery collects registered controllers.
	Discover time.Duration
}

var defaultConfig = Config{
	Ref:         l1.ControllerRef{Type: "roboclaw"},
	RegistryURL: "mqtt://localhost:1883/robo/",
	Discover:    mqtt.DefaultDiscoverTimeout,
}

func init() {
	if val := os.Getenv("ROBO_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("ROBO_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("ROBO_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	} else if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "robot-type", defaultConfig.Ref.Type, "Robot type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "robot-id", defaultConfig.Ref.ID, "Robot ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "robot-reg", defaultConfig.RegistryURL, "Robot Registry URL.")
	flag.DurationVar(&defaultConfig.Discover, "discover-timeout", defaultConfig.Discover, "Time collecting registered robots.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt":
		connector, err := mqtt.NewConnector(c.RegistryURL)
		if err != nil {
			return nil, err
		}
		if c.Discover > 0 {
			connector.DiscoverTimeout = c.Discover
		}
		return connector, nil
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// DiscoverTimeout bounds a whole discovery including connecting
// to the registry.
func (c *Config) DiscoverTimeout() time.Duration {
	if c.Discover <= 0 {
		return mqtt.DefaultDiscoverTimeout + discoverConnectTimeout
	}
	return c.Discover + discoverConnectTimeout
}

const discoverConnectTimeout = 5 * time.Second

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to L1 controller.
// When ID is not specified, the only discovered controller of the
// type is used.
func (c *Config) Connect(ctx context.Context) (l1.ControllerConn, error) {
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	ref, err := c.resolve(ctx, connector)
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, ref)
}

func (c *Config) resolve(ctx context.Context, connector l1.Connector) (l1.ControllerRef, error) {
	if c.Ref.IsValid() {
		return c.Ref, nil
	}
	if c.Ref.Type == "" {
		return c.Ref, fmt.Errorf("robot type must be specified")
	}
	infos, err := connector.Discover(ctx)
	if err != nil {
		return c.Ref, fmt.Errorf("discover error: %w", err)
	}
	var found []l1.ControllerRef
	for _, info := range infos {
		if info.Ref.Type == c.Ref.Type {
			found = append(found, info.Ref)
		}
	}
	switch len(found) {
	case 0:
		return c.Ref, fmt.Errorf("no %s controller found", c.Ref.Type)
	case 1:
		return found[0], nil
	default:
		return c.Ref, fmt.Errorf("%d %s controllers found, robot id must be specified", len(found), c.Ref.Type)
	}
}

// MustConnect connects to L1 controller for fail.
func (c *Config) MustConnect(ctx context.Context) l1.ControllerConn {
	conn, err := c.Connect(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
