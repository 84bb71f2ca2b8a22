package l1

import (
	"context"
	"fmt"
	"strings"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
)

// ControllerRef identifies an L1 controller, which is a single robot
// base in a registry.
type ControllerRef struct {
	// Type is the robot type, e.g. roboclaw.
	Type string
	// ID is unique among controllers of the same type.
	ID string
}

// ParseControllerRef parses "type/id".
func ParseControllerRef(name string) (ControllerRef, error) {
	items := strings.Split(name, "/")
	if len(items) != 2 || items[0] == "" || items[1] == "" {
		return ControllerRef{}, fmt.Errorf("invalid controller name %q", name)
	}
	return ControllerRef{Type: items[0], ID: items[1]}, nil
}

// Name is the string form "type/id" of the ref.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates ControllerRef is valid.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is published with a registered controller.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo is a discovered controller.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Registrar is the controller side of a registry. Commands arrive
// in the loop as CommandMsg.
type Registrar interface {
	// SendEvent publishes an event to all connected clients.
	SendEvent(context.Context, fx.Message) error
}

// Command is a received command waiting for its reply.
type Command interface {
	Msg() fx.Message
	// Done replies the command, it must be called exactly once.
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a Message.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// Connector is the client side of a registry.
type Connector interface {
	// Discover enumerates registered controllers.
	Discover(context.Context) ([]ControllerInfo, error)
	// Connect connects to the specified controller.
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is the connection to a controller.
type ControllerConn interface {
	// DoCommand sends a command, the reply arrives through the future.
	DoCommand(fx.Message) CommandFuture
}

// Result is the reply of a command, or the failure receiving it.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture is the future of sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}

// WaitResult waits for the reply of f until ctx is done.
// A reply which is an error is returned as the error.
func WaitResult(ctx context.Context, f CommandFuture) (fx.Message, error) {
	select {
	case res := <-f.ResultChan():
		if res.Err != nil {
			return res.Msg, res.Err
		}
		if err, ok := res.Msg.(error); ok {
			return res.Msg, err
		}
		return res.Msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
