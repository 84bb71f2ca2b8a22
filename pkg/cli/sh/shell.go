package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	env "github.com/robotalks/roboclaw.go/pkg/l1/env/connector"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Loop   *ConnLoop
}

// ConnLoop is a running loop with a controller connection.
// Telemetry events received by the loop are buffered in Events,
// the latest ones are dropped when nobody watches.
type ConnLoop struct {
	Ctx    context.Context
	Cancel func()
	Ref    l1.ControllerRef
	Loop   *fx.Loop
	Conn   l1.ControllerConn
	Events chan *msgs.Telemetry

	done chan struct{}
}

// EventsBufferSize is the number of telemetry events kept for watch.
const EventsBufferSize = 64

func (l *ConnLoop) collectEvents(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		ev, ok := mctx.CurrentMessage().(*msgs.Telemetry)
		if !ok {
			return
		}
		mctx.MessageTaken()
		select {
		case l.Events <- ev:
		default:
		}
	}))
	return nil
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	cmdTimeout = time.Second

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&WatchCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&cmdTimeout, "cmd-timeout", cmdTimeout, "Timeout waiting for command result.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     cmdTimeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Loop == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo prints ControllerInfo into friendly string for display.
func FormatInfo(info l1.ControllerInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// DoCommand runs a command and waits for result.
func DoCommand(c *ishell.Context, msg fx.Message) (err error) {
	s := ShellFrom(c)
	if s.Loop == nil {
		err = fmt.Errorf("not connected")
		c.Err(err)
		return
	}
	ctx, cancel := context.WithTimeout(s.Loop.Ctx, s.Timeout)
	defer cancel()
	reply, err := l1.WaitResult(ctx, s.Loop.Conn.DoCommand(msg))
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("command timeout")
	}
	if err != nil {
		c.Err(err)
		return err
	}
	out, err := FormatResult(reply, s.OutputJSON)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(out)
	return nil
}

// FormatResult prints a command result for display.
func FormatResult(msg fx.Message, asJSON bool) (string, error) {
	serializable, ok := msg.(msgs.SerializableMessage)
	if !ok {
		return "", fmt.Errorf("unexpected result %T", msg)
	}
	if asJSON {
		out, err := json.Marshal(serializable.Serializable())
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	if _, ok := msg.(*msgs.CommandOK); ok {
		return "OK", nil
	}
	return fmt.Sprintf("%s %s",
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		serializable.Serializable().String()), nil
}

// ParseRef parses the arguments of connect. A single ID takes the
// configured robot type, and no argument leaves the ref for discovery.
func (s *Shell) ParseRef(args []string) (l1.ControllerRef, error) {
	switch {
	case len(args) >= 2:
		return l1.ControllerRef{Type: args[0], ID: args[1]}, nil
	case len(args) == 0:
		return l1.ControllerRef{Type: s.Config.Ref.Type}, nil
	case strings.Contains(args[0], "/"):
		return l1.ParseControllerRef(args[0])
	case s.Config.Ref.Type == "":
		return l1.ControllerRef{}, fmt.Errorf("robot type unknown for %q", args[0])
	}
	return l1.ControllerRef{Type: s.Config.Ref.Type, ID: args[0]}, nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverControllers discovers controllers.
func (s *Shell) DiscoverControllers(filter func(l1.ControllerInfo) bool) (l1.Connector, []l1.ControllerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.DiscoverTimeout())
	defer cancel()
	infoList, err := connector.Discover(ctx)
	if err != nil {
		return connector, nil, err
	}
	if filter != nil {
		items := make([]l1.ControllerInfo, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return connector, infoList, nil
}

// SelectController discovers controllers and asks for a choice.
func (s *Shell) SelectController(filter func(l1.ControllerInfo) bool) (l1.Connector, *l1.ControllerInfo, error) {
	connector, infoList, err := s.DiscoverControllers(filter)
	if err != nil {
		return nil, nil, err
	}
	if len(infoList) == 0 {
		return connector, nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, nil, fmt.Errorf("more than 1 controllers discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = info.Ref.Name()
			if info.Meta.Description != "" {
				items[n] += ": " + info.Meta.Description
			}
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}

	return connector, &infoList[index], nil
}

// Connect connects controller with ref.
func (s *Shell) Connect(ref l1.ControllerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	connLoop := &ConnLoop{
		Ref:    ref,
		Events: make(chan *msgs.Telemetry, EventsBufferSize),
		done:   make(chan struct{}),
	}
	connLoop.Ctx, connLoop.Cancel = context.WithCancel(context.Background())
	if connLoop.Conn, err = connector.Connect(connLoop.Ctx, ref); err != nil {
		connLoop.Cancel()
		return err
	}
	connLoop.Loop = fx.NewLoop()
	if adder, ok := connLoop.Conn.(fx.LoopAdder); ok {
		connLoop.Loop.Add(adder)
	}
	connLoop.Loop.AddController(fx.PrLvControl, fx.ControlFunc(connLoop.collectEvents))
	s.Disconnect()
	s.Loop = connLoop
	go func() {
		defer close(connLoop.done)
		if err := connLoop.Loop.Run(connLoop.Ctx); err != nil && !errors.Is(err, context.Canceled) {
			glog.Errorf("connection %s stopped: %v", ref.Name(), err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
	return nil
}

// Disconnect disconnects current controller.
func (s *Shell) Disconnect() {
	if s.Loop != nil {
		s.Loop.Cancel()
		if closer, ok := s.Loop.Conn.(io.Closer); ok {
			closer.Close()
		}
		<-s.Loop.done
		s.Loop = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Ref.Type != "" {
		ref := s.Config.Ref
		if !ref.IsValid() {
			_, info, err := s.SelectController(func(info l1.ControllerInfo) bool {
				return info.Ref.Type == ref.Type
			})
			if err != nil {
				log.Fatalf("discover %q failed: %v", ref.Type, err)
			}
			if info != nil {
				ref = info.Ref
			}
		}
		if ref.IsValid() {
			if s.Interactive {
				s.Shell.Printf("Connecting %s ...\n", ref.Name())
			}
			if err := s.Connect(ref); err != nil {
				log.Fatalf("connect %q failed: %v", ref.Name(), err)
			}
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers controllers.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			_, infoList, err := s.DiscoverControllers(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []l1.ControllerInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No controllers found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE/ID | ID | TYPE ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ref, err := s.ParseRef(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if !ref.IsValid() {
				var filter func(l1.ControllerInfo) bool
				if ref.Type != "" {
					filter = func(info l1.ControllerInfo) bool {
						return info.Ref.Type == ref.Type
					}
				}
				_, info, err := s.SelectController(filter)
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no controller discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// WatchCmd prints telemetry events for a while.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION], default 5s",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			duration := 5 * time.Second
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				duration = d
			}
			timer := time.NewTimer(duration)
			defer timer.Stop()
			for {
				select {
				case ev := <-s.Loop.Events:
					out, err := FormatResult(ev, s.OutputJSON)
					if err != nil {
						c.Err(err)
						return
					}
					c.Println(out)
				case <-s.Loop.done:
					c.Err(fmt.Errorf("disconnected"))
					return
				case <-timer.C:
					return
				}
			}
		}),
	}

	// DisconnectCmd disconnects current controller.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
