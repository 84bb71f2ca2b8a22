package roboclaw

import "fmt"

// Opcode selects a device operation. The numbers are fixed by the firmware.
type Opcode byte

// Opcodes
const (
	M1Forward                     Opcode = 0
	M1Backward                    Opcode = 1
	SetMinMainBattery             Opcode = 2
	SetMaxMainBattery             Opcode = 3
	M2Forward                     Opcode = 4
	M2Backward                    Opcode = 5
	DriveM1                       Opcode = 6
	DriveM2                       Opcode = 7
	ForwardMixed                  Opcode = 8
	BackwardMixed                 Opcode = 9
	RightMixed                    Opcode = 10
	LeftMixed                     Opcode = 11
	DriveMixed                    Opcode = 12
	TurnMixed                     Opcode = 13
	ReadM1Encoder                 Opcode = 16
	ReadM2Encoder                 Opcode = 17
	ReadM1Speed                   Opcode = 18
	ReadM2Speed                   Opcode = 19
	ResetEncoders                 Opcode = 20
	ReadVersion                   Opcode = 21
	ReadMainBattery               Opcode = 24
	ReadLogicBattery              Opcode = 25
	SetM1VelocityPID              Opcode = 28
	SetM2VelocityPID              Opcode = 29
	ReadM1InstSpeed               Opcode = 30
	ReadM2InstSpeed               Opcode = 31
	M1Duty                        Opcode = 32
	M2Duty                        Opcode = 33
	MixedDuty                     Opcode = 34
	M1Speed                       Opcode = 35
	M2Speed                       Opcode = 36
	MixedSpeed                    Opcode = 37
	M1SpeedAccel                  Opcode = 38
	M2SpeedAccel                  Opcode = 39
	MixedSpeedAccel               Opcode = 40
	M1SpeedDistance               Opcode = 41
	M2SpeedDistance               Opcode = 42
	MixedSpeedDistance            Opcode = 43
	M1SpeedAccelDistance          Opcode = 44
	M2SpeedAccelDistance          Opcode = 45
	MixedSpeedAccelDistance       Opcode = 46
	ReadBufferCounts              Opcode = 47
	ReadCurrents                  Opcode = 49
	MixedSpeedIAccel              Opcode = 50
	MixedSpeedIAccelDistance      Opcode = 51
	M1DutyAccel                   Opcode = 52
	M2DutyAccel                   Opcode = 53
	MixedDutyAccel                Opcode = 54
	ReadM1VelocityPID             Opcode = 55
	ReadM2VelocityPID             Opcode = 56
	ReadMainBatterySettings       Opcode = 59
	ReadLogicBatterySettings      Opcode = 60
	SetM1PositionPID              Opcode = 61
	SetM2PositionPID              Opcode = 62
	ReadM1PositionPID             Opcode = 63
	ReadM2PositionPID             Opcode = 64
	M1SpeedAccelDeccelPosition    Opcode = 65
	M2SpeedAccelDeccelPosition    Opcode = 66
	MixedSpeedAccelDeccelPosition Opcode = 67
	ReadTemperature               Opcode = 82
	ReadErrorState                Opcode = 90
)

// Command describes the wire layout of one operation.
type Command struct {
	Name   string
	Params []Field
	Reply  []Field
}

// IsQuery indicates the command expects a reply.
func (c *Command) IsQuery() bool {
	return len(c.Reply) > 0
}

func fields(f ...Field) []Field { return f }

var (
	oneByte     = fields(U8)
	speedStatus = fields(S32, U8)
	fourLongs   = fields(U32, U32, U32, U32)
	sevenLongs  = fields(U32, U32, U32, U32, U32, U32, U32)
)

// Commands is the catalogue of all operations keyed by opcode.
// ReadVersion is not listed: its reply is a string handled by ReadVersion.
var Commands = map[Opcode]*Command{
	M1Forward:         {Name: "M1Forward", Params: oneByte},
	M1Backward:        {Name: "M1Backward", Params: oneByte},
	SetMinMainBattery: {Name: "SetMinMainBattery", Params: oneByte},
	SetMaxMainBattery: {Name: "SetMaxMainBattery", Params: oneByte},
	M2Forward:         {Name: "M2Forward", Params: oneByte},
	M2Backward:        {Name: "M2Backward", Params: oneByte},
	DriveM1:           {Name: "DriveM1", Params: oneByte},
	DriveM2:           {Name: "DriveM2", Params: oneByte},
	ForwardMixed:      {Name: "ForwardMixed", Params: oneByte},
	BackwardMixed:     {Name: "BackwardMixed", Params: oneByte},
	RightMixed:        {Name: "RightMixed", Params: oneByte},
	LeftMixed:         {Name: "LeftMixed", Params: oneByte},
	DriveMixed:        {Name: "DriveMixed", Params: oneByte},
	TurnMixed:         {Name: "TurnMixed", Params: oneByte},

	ReadM1Encoder:    {Name: "ReadM1Encoder", Reply: speedStatus},
	ReadM2Encoder:    {Name: "ReadM2Encoder", Reply: speedStatus},
	ReadM1Speed:      {Name: "ReadM1Speed", Reply: speedStatus},
	ReadM2Speed:      {Name: "ReadM2Speed", Reply: speedStatus},
	ResetEncoders:    {Name: "ResetEncoders"},
	ReadMainBattery:  {Name: "ReadMainBattery", Reply: fields(U16)},
	ReadLogicBattery: {Name: "ReadLogicBattery", Reply: fields(U16)},

	// D, P, I, QPPS
	SetM1VelocityPID: {Name: "SetM1VelocityPID", Params: fourLongs},
	SetM2VelocityPID: {Name: "SetM2VelocityPID", Params: fourLongs},
	ReadM1InstSpeed:  {Name: "ReadM1InstSpeed", Reply: speedStatus},
	ReadM2InstSpeed:  {Name: "ReadM2InstSpeed", Reply: speedStatus},

	M1Duty:    {Name: "M1Duty", Params: fields(S16)},
	M2Duty:    {Name: "M2Duty", Params: fields(S16)},
	MixedDuty: {Name: "MixedDuty", Params: fields(S16, S16)},

	M1Speed:    {Name: "M1Speed", Params: fields(S32)},
	M2Speed:    {Name: "M2Speed", Params: fields(S32)},
	MixedSpeed: {Name: "MixedSpeed", Params: fields(S32, S32)},

	// accel, speed
	M1SpeedAccel:    {Name: "M1SpeedAccel", Params: fields(U32, S32)},
	M2SpeedAccel:    {Name: "M2SpeedAccel", Params: fields(U32, S32)},
	MixedSpeedAccel: {Name: "MixedSpeedAccel", Params: fields(U32, S32, S32)},

	// speed, distance, buffer
	M1SpeedDistance:    {Name: "M1SpeedDistance", Params: fields(S32, U32, U8)},
	M2SpeedDistance:    {Name: "M2SpeedDistance", Params: fields(S32, U32, U8)},
	MixedSpeedDistance: {Name: "MixedSpeedDistance", Params: fields(S32, U32, S32, U32, U8)},

	// accel, speed, distance, buffer
	M1SpeedAccelDistance:    {Name: "M1SpeedAccelDistance", Params: fields(U32, S32, U32, U8)},
	M2SpeedAccelDistance:    {Name: "M2SpeedAccelDistance", Params: fields(U32, S32, U32, U8)},
	MixedSpeedAccelDistance: {Name: "MixedSpeedAccelDistance", Params: fields(U32, S32, U32, S32, U32, U8)},

	ReadBufferCounts: {Name: "ReadBufferCounts", Reply: fields(U8, U8)},
	ReadCurrents:     {Name: "ReadCurrents", Reply: fields(U16, U16)},

	MixedSpeedIAccel:         {Name: "MixedSpeedIAccel", Params: fields(U32, S32, U32, S32)},
	MixedSpeedIAccelDistance: {Name: "MixedSpeedIAccelDistance", Params: fields(U32, S32, U32, U32, S32, U32, U8)},

	// duty, accel
	M1DutyAccel:    {Name: "M1DutyAccel", Params: fields(S16, U16)},
	M2DutyAccel:    {Name: "M2DutyAccel", Params: fields(S16, U16)},
	MixedDutyAccel: {Name: "MixedDutyAccel", Params: fields(S16, U16, S16, U16)},

	// P, I, D, QPPS
	ReadM1VelocityPID: {Name: "ReadM1VelocityPID", Reply: fourLongs},
	ReadM2VelocityPID: {Name: "ReadM2VelocityPID", Reply: fourLongs},

	ReadMainBatterySettings:  {Name: "ReadMainBatterySettings", Reply: fields(U16, U16)},
	ReadLogicBatterySettings: {Name: "ReadLogicBatterySettings", Reply: fields(U16, U16)},

	// D, P, I, IMax, Deadzone, Min, Max
	SetM1PositionPID: {Name: "SetM1PositionPID", Params: sevenLongs},
	SetM2PositionPID: {Name: "SetM2PositionPID", Params: sevenLongs},

	// P, I, D, IMax, Deadzone, Min, Max
	ReadM1PositionPID: {Name: "ReadM1PositionPID", Reply: sevenLongs},
	ReadM2PositionPID: {Name: "ReadM2PositionPID", Reply: sevenLongs},

	// accel, speed, deccel, position, buffer
	M1SpeedAccelDeccelPosition: {Name: "M1SpeedAccelDeccelPosition", Params: fields(U32, U32, U32, U32, U8)},
	M2SpeedAccelDeccelPosition: {Name: "M2SpeedAccelDeccelPosition", Params: fields(U32, U32, U32, U32, U8)},
	MixedSpeedAccelDeccelPosition: {
		Name:   "MixedSpeedAccelDeccelPosition",
		Params: fields(U32, U32, U32, U32, U32, U32, U32, U32, U8),
	},

	ReadTemperature: {Name: "ReadTemperature", Reply: fields(U16)},
	ReadErrorState:  {Name: "ReadErrorState", Reply: oneByte},
}

// String implements fmt.Stringer.
func (op Opcode) String() string {
	if op == ReadVersion {
		return "ReadVersion"
	}
	if cmd := Commands[op]; cmd != nil {
		return cmd.Name
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// Lookup finds the command and validates the number of arguments.
func Lookup(op Opcode, args []int64) (*Command, error) {
	cmd := Commands[op]
	if cmd == nil {
		return nil, fmt.Errorf("unknown opcode %d", byte(op))
	}
	if len(args) != len(cmd.Params) {
		return nil, &ArgsError{Op: op, Expected: len(cmd.Params), Actual: len(args)}
	}
	return cmd, nil
}

// Sentinel returns the all-Invalid reply of n values.
func Sentinel(n int) []int64 {
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = Invalid
	}
	return vals
}
