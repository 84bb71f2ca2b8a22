package msgs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Typed is the envelope of every message on the wire.
// Sequence pairs a command with its reply, and is 0 for events.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (p *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (p *Typed) Reset() { *p = Typed{} }

// String implements proto.Message.
func (p *Typed) String() string { return proto.CompactTextString(p) }

// TypedMsgHandler handles a command-kind message.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, fx.Message, *Typed) error
}

// HandleTypedMsgFunc is func form of TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, fx.Message, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg fx.Message, typed *Typed) error {
	return f(ctx, msg, typed)
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

var (
	// ErrNotSerializable indicates the message is not serializable.
	ErrNotSerializable = errors.New("not serializable message")
	// ErrUnsupportedCommand indicates the command is unsupported.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// SerializableMessage can be serialized over the wire.
type SerializableMessage interface {
	fx.Message
	TypeID() uint32
	Serializable() proto.Message
}

var (
	typesLock sync.RWMutex
	types     = make(map[uint32]SerializableMessage)
)

func init() {
	err := RegisterTypes(
		(*CommandOK)(nil),
		(*CommandErr)(nil),
		(*BaseVelocity)(nil),
		(*WheelSpeed)(nil),
		(*WheelDuty)(nil),
		(*BaseStop)(nil),
		(*BaseStatusQuery)(nil),
		(*BaseStatus)(nil),
		(*Telemetry)(nil),
	)
	if err != nil {
		panic(err)
	}
}

// RegisterTypes makes messages decodable by their type IDs.
// A type ID can only be registered once.
func RegisterTypes(msgs ...SerializableMessage) error {
	typesLock.Lock()
	defer typesLock.Unlock()
	for _, msg := range msgs {
		typeID := msg.TypeID()
		if existing, ok := types[typeID]; ok {
			return fmt.Errorf("type %x already registered by %T", typeID, existing)
		}
		types[typeID] = msg
	}
	return nil
}

// LookupType finds the registered message of a type ID.
func LookupType(typeID uint32) (SerializableMessage, bool) {
	typesLock.RLock()
	defer typesLock.RUnlock()
	msg, ok := types[typeID]
	return msg, ok
}

// TypedFrom creates a Typed from a serializable message.
func TypedFrom(msg fx.Message) (*Typed, error) {
	if s, ok := msg.(SerializableMessage); ok {
		typeID, serializable := s.TypeID(), s.Serializable()
		data, err := proto.Marshal(serializable)
		if err != nil {
			return nil, err
		}
		return &Typed{TypeId: typeID, Message: data}, nil
	}
	return nil, ErrNotSerializable
}

// Decode decodes the packet into actual message.
func (p Typed) Decode() (fx.Message, error) {
	msgType, ok := LookupType(p.TypeId)
	if !ok {
		return nil, &ErrUnknownType{TypeID: p.TypeId}
	}
	msg := msgType.NewMessage()
	serializable := msg.(SerializableMessage).Serializable()
	if err := proto.Unmarshal(p.Message, serializable); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Typed to bytes.
func (p Typed) Encode() ([]byte, error) {
	return proto.Marshal(&p)
}

// Kind gets message kind from type ID.
func (p Typed) Kind() uint32 {
	return p.TypeId & TypeIDMaskKind
}

// IsCommand determines if the message is a command.
func (p Typed) IsCommand() bool {
	return p.Kind() == TypeIDKindCommand
}

// IsEvent determines if the message is an event.
func (p Typed) IsEvent() bool {
	return p.Kind() == TypeIDKindEvent
}

// Group gets the message group from type ID.
func (p Typed) Group() uint32 {
	return p.TypeId & TypeIDMaskGroup
}

// IsReply determines if the message is the reply of a command.
func (p Typed) IsReply() bool {
	return p.IsCommand() && p.TypeId&TypeIDMaskReply != 0
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}
