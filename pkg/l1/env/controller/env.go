package controller

import (
	"flag"
	"fmt"
	"log"
	"os"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm/stream"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm/websocket"
	"github.com/robotalks/roboclaw.go/pkg/l1/env"
)

// Config provides common options to setup an env for L1 controllers.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string

	// WebsocketAddr is the listening address of websocket registrar.
	// Empty disables it.
	WebsocketAddr string

	// TCPAddr is the listening address of the TCP registrar carrying
	// length prefixed packets. Empty disables it.
	TCPAddr string
}

var defaultConfig = Config{
	Info: l1.ControllerInfo{
		Ref: l1.ControllerRef{Type: "roboclaw"},
	},
	MQTTBrokerURL: "mqtt://localhost:1883/robo/",
}

func init() {
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ROBO_WS_ADDR"); val != "" {
		defaultConfig.WebsocketAddr = val
	}
	if val := os.Getenv("ROBO_TCP_ADDR"); val != "" {
		defaultConfig.TCPAddr = val
	}
	if val := os.Getenv("ROBO_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	} else {
		defaultConfig.Info.Ref.ID = env.MachineID()
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Controller type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket listening address, e.g. :8080")
	flag.StringVar(&defaultConfig.TCPAddr, "tcp", defaultConfig.TCPAddr, "TCP listening address, e.g. :7070")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetControllerMeta should be called in init with basic info about the controller.
func SetControllerMeta(meta l1.ControllerMeta) {
	defaultConfig.Info.Meta = meta
}

// Env is the env for L1 controllers.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
	Websocket    *websocket.Server
	TCP          *stream.Server
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("robot type and id must be specified")
	}
	env := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		env.Registrar.Add(reg)
		env.RegistryURLs = append(env.RegistryURLs, c.MQTTBrokerURL)
	}
	if c.WebsocketAddr != "" {
		env.Websocket = websocket.NewServer(c.WebsocketAddr)
		env.Registrar.Add(env.Websocket)
		env.RegistryURLs = append(env.RegistryURLs, "ws://"+c.WebsocketAddr+websocket.DefaultPath)
	}
	if c.TCPAddr != "" {
		env.TCP = stream.NewServer(c.TCPAddr)
		env.Registrar.Add(env.TCP)
		env.RegistryURLs = append(env.RegistryURLs, "tcp://"+c.TCPAddr)
	}
	if len(env.Registrar.Registrars) == 0 {
		return nil, fmt.Errorf("at least one registrar is required")
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop adds controllers/runners to loop.
// Commands not taken by controllers are replied as unsupported.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	loop.Add(&comm.UnsupportedCommands{})
}
