package msgs

import (
	"errors"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return NewCommandErrFromMsg(err.Error())
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{Message: message}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// BaseVelocity drives the base in robot frame.
type BaseVelocity struct {
	// Linear velocity in m/s.
	Linear float64 `protobuf:"fixed64,1,opt,name=linear,proto3" json:"linear,omitempty"`
	// Angular velocity in rad/s, counter-clockwise.
	Angular float64 `protobuf:"fixed64,2,opt,name=angular,proto3" json:"angular,omitempty"`
	// Accel in ticks/s^2, 0 for the default.
	Accel uint32 `protobuf:"varint,3,opt,name=accel,proto3" json:"accel,omitempty"`
}

// NewMessage implements Message.
func (m *BaseVelocity) NewMessage() fx.Message { return &BaseVelocity{} }

// TypeID implements SerializableMessage.
func (m *BaseVelocity) TypeID() uint32 { return BaseVelocityTypeID }

// Serializable implements SerializableMessage.
func (m *BaseVelocity) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *BaseVelocity) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BaseVelocity) Reset() { *m = BaseVelocity{} }

// String implements proto.Message.
func (m *BaseVelocity) String() string { return proto.CompactTextString(m) }

// WheelSpeed drives a single wheel in ticks/s.
type WheelSpeed struct {
	Wheel    uint32 `protobuf:"varint,1,opt,name=wheel,proto3" json:"wheel,omitempty"`
	Speed    int32  `protobuf:"varint,2,opt,name=speed,proto3" json:"speed,omitempty"`
	Accel    uint32 `protobuf:"varint,3,opt,name=accel,proto3" json:"accel,omitempty"`
	Deccel   uint32 `protobuf:"varint,4,opt,name=deccel,proto3" json:"deccel,omitempty"`
	Distance uint32 `protobuf:"varint,5,opt,name=distance,proto3" json:"distance,omitempty"`
	Buffered bool   `protobuf:"varint,6,opt,name=buffered,proto3" json:"buffered,omitempty"`
}

// NewMessage implements Message.
func (m *WheelSpeed) NewMessage() fx.Message { return &WheelSpeed{} }

// TypeID implements SerializableMessage.
func (m *WheelSpeed) TypeID() uint32 { return WheelSpeedTypeID }

// Serializable implements SerializableMessage.
func (m *WheelSpeed) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelSpeed) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelSpeed) Reset() { *m = WheelSpeed{} }

// String implements proto.Message.
func (m *WheelSpeed) String() string { return proto.CompactTextString(m) }

// WheelDuty sets the duty cycle of a single wheel.
type WheelDuty struct {
	Wheel uint32 `protobuf:"varint,1,opt,name=wheel,proto3" json:"wheel,omitempty"`
	Duty  int32  `protobuf:"varint,2,opt,name=duty,proto3" json:"duty,omitempty"`
	Accel uint32 `protobuf:"varint,3,opt,name=accel,proto3" json:"accel,omitempty"`
}

// NewMessage implements Message.
func (m *WheelDuty) NewMessage() fx.Message { return &WheelDuty{} }

// TypeID implements SerializableMessage.
func (m *WheelDuty) TypeID() uint32 { return WheelDutyTypeID }

// Serializable implements SerializableMessage.
func (m *WheelDuty) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelDuty) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelDuty) Reset() { *m = WheelDuty{} }

// String implements proto.Message.
func (m *WheelDuty) String() string { return proto.CompactTextString(m) }

// BaseStop releases all motors.
type BaseStop struct {
}

// NewMessage implements Message.
func (m *BaseStop) NewMessage() fx.Message { return &BaseStop{} }

// TypeID implements SerializableMessage.
func (m *BaseStop) TypeID() uint32 { return BaseStopTypeID }

// Serializable implements SerializableMessage.
func (m *BaseStop) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *BaseStop) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BaseStop) Reset() { *m = BaseStop{} }

// String implements proto.Message.
func (m *BaseStop) String() string { return proto.CompactTextString(m) }

// BaseStatusQuery queries the state of the base.
type BaseStatusQuery struct {
}

// NewMessage implements Message.
func (m *BaseStatusQuery) NewMessage() fx.Message { return &BaseStatusQuery{} }

// TypeID implements SerializableMessage.
func (m *BaseStatusQuery) TypeID() uint32 { return BaseStatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *BaseStatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *BaseStatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BaseStatusQuery) Reset() { *m = BaseStatusQuery{} }

// String implements proto.Message.
func (m *BaseStatusQuery) String() string { return proto.CompactTextString(m) }

// BaseStatus is the reply of BaseStatusQuery.
type BaseStatus struct {
	State       string `protobuf:"bytes,1,opt,name=state,proto3" json:"state,omitempty"`
	Controllers uint32 `protobuf:"varint,2,opt,name=controllers,proto3" json:"controllers,omitempty"`
	Wheels      uint32 `protobuf:"varint,3,opt,name=wheels,proto3" json:"wheels,omitempty"`
	Dropped     uint64 `protobuf:"varint,4,opt,name=dropped,proto3" json:"dropped,omitempty"`
}

// NewMessage implements Message.
func (m *BaseStatus) NewMessage() fx.Message { return &BaseStatus{} }

// TypeID implements SerializableMessage.
func (m *BaseStatus) TypeID() uint32 { return BaseStatusTypeID }

// Serializable implements SerializableMessage.
func (m *BaseStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *BaseStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BaseStatus) Reset() { *m = BaseStatus{} }

// String implements proto.Message.
func (m *BaseStatus) String() string { return proto.CompactTextString(m) }

// Telemetry is the event of a single controller reading.
type Telemetry struct {
	Controller uint32  `protobuf:"varint,1,opt,name=controller,proto3" json:"controller"`
	Kind       string  `protobuf:"bytes,2,opt,name=kind,proto3" json:"kind,omitempty"`
	Motor      uint32  `protobuf:"varint,3,opt,name=motor,proto3" json:"motor,omitempty"`
	Values     []int64 `protobuf:"varint,4,rep,packed,name=values,proto3" json:"values,omitempty"`
	Valid      bool    `protobuf:"varint,5,opt,name=valid,proto3" json:"valid"`
	Error      string  `protobuf:"bytes,6,opt,name=error,proto3" json:"error,omitempty"`
	// Timestamp in nanoseconds since epoch.
	Timestamp int64 `protobuf:"varint,7,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements Message.
func (m *Telemetry) NewMessage() fx.Message { return &Telemetry{} }

// TypeID implements SerializableMessage.
func (m *Telemetry) TypeID() uint32 { return TelemetryEventTypeID }

// Serializable implements SerializableMessage.
func (m *Telemetry) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Telemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Telemetry) Reset() { *m = Telemetry{} }

// String implements proto.Message.
func (m *Telemetry) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupBase    uint32 = 0x00030000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID       uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID      uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	BaseVelocityTypeID    uint32 = GroupBase | 0x0000
	WheelSpeedTypeID      uint32 = GroupBase | 0x0001
	WheelDutyTypeID       uint32 = GroupBase | 0x0002
	BaseStopTypeID        uint32 = GroupBase | 0x0003
	BaseStatusQueryTypeID uint32 = GroupBase | 0x0004
	BaseStatusTypeID      uint32 = BaseStatusQueryTypeID | TypeIDMaskReply
	TelemetryEventTypeID  uint32 = GroupBase | TypeIDKindEvent | 0x0000
)

var (
	// ErrUnknownCommand indicates the command is unknown.
	ErrUnknownCommand = errors.New("unknown command")
)
