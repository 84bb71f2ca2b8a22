package roboclaw

import "fmt"

// Motor selects a channel of the controller.
type Motor int

// Motors
const (
	M1 Motor = 1
	M2 Motor = 2
)

// Pick selects the opcode for the motor.
func (m Motor) Pick(m1, m2 Opcode) Opcode {
	if m == M2 {
		return m2
	}
	return m1
}

// String implements fmt.Stringer.
func (m Motor) String() string {
	return fmt.Sprintf("M%d", int(m))
}

// Buffer flags of distance/position commands.
const (
	// Buffered queues the command after the ones being executed.
	Buffered uint8 = 0
	// Immediate replaces buffered commands.
	Immediate uint8 = 1
)

// Reading is a signed 32-bit quantity (encoder count, ticks/s) with the
// status byte reported along with it.
type Reading struct {
	Value  int64
	Status int64
}

// Valid indicates the reading was received correctly.
func (r Reading) Valid() bool {
	return r.Status != Invalid
}

// Pair is a reading of both channels.
type Pair struct {
	M1, M2 int64
}

// Valid indicates the reading was received correctly.
func (p Pair) Valid() bool {
	return p.M1 != Invalid
}

// Range is a min/max setting.
type Range struct {
	Min, Max int64
}

// Valid indicates the setting was received correctly.
func (r Range) Valid() bool {
	return r.Min != Invalid
}

// VelocityPID are the constants of the velocity controller.
// QPPS is the encoder rate at full duty cycle.
type VelocityPID struct {
	P, I, D, QPPS int64
}

// Valid indicates the constants were received correctly.
func (v VelocityPID) Valid() bool {
	return v.P != Invalid
}

// PositionPID are the constants of the position controller.
type PositionPID struct {
	P, I, D, IMax, Deadzone, Min, Max int64
}

// Valid indicates the constants were received correctly.
func (v PositionPID) Valid() bool {
	return v.P != Invalid
}

// Claw provides typed operations over a Device.
type Claw struct {
	Device
	Name              string
	MaxTicksPerSecond uint32
}

// New wraps a Device.
func New(dev Device) *Claw {
	return &Claw{Device: dev}
}

// Send executes a command without reply.
func (c *Claw) Send(op Opcode, args ...int64) error {
	_, err := c.Exec(op, args...)
	return err
}

func (c *Claw) byteCmd(op Opcode, val uint8) error {
	return c.Send(op, int64(val))
}

// M1Forward drives motor 1 forward, 0 - 127.
func (c *Claw) M1Forward(val uint8) error { return c.byteCmd(M1Forward, val) }

// M1Backward drives motor 1 backward, 0 - 127.
func (c *Claw) M1Backward(val uint8) error { return c.byteCmd(M1Backward, val) }

// M2Forward drives motor 2 forward, 0 - 127.
func (c *Claw) M2Forward(val uint8) error { return c.byteCmd(M2Forward, val) }

// M2Backward drives motor 2 backward, 0 - 127.
func (c *Claw) M2Backward(val uint8) error { return c.byteCmd(M2Backward, val) }

// DriveM1 drives motor 1 in 7-bit mode, 64 is stop.
func (c *Claw) DriveM1(val uint8) error { return c.byteCmd(DriveM1, val) }

// DriveM2 drives motor 2 in 7-bit mode, 64 is stop.
func (c *Claw) DriveM2(val uint8) error { return c.byteCmd(DriveM2, val) }

// ForwardMixed drives forward in mixed mode.
func (c *Claw) ForwardMixed(val uint8) error { return c.byteCmd(ForwardMixed, val) }

// BackwardMixed drives backward in mixed mode.
func (c *Claw) BackwardMixed(val uint8) error { return c.byteCmd(BackwardMixed, val) }

// RightMixed turns right in mixed mode.
func (c *Claw) RightMixed(val uint8) error { return c.byteCmd(RightMixed, val) }

// LeftMixed turns left in mixed mode.
func (c *Claw) LeftMixed(val uint8) error { return c.byteCmd(LeftMixed, val) }

// DriveMixed drives in 7-bit mixed mode.
func (c *Claw) DriveMixed(val uint8) error { return c.byteCmd(DriveMixed, val) }

// TurnMixed turns in 7-bit mixed mode.
func (c *Claw) TurnMixed(val uint8) error { return c.byteCmd(TurnMixed, val) }

// SetMinMainBattery sets the main battery cutoff, (V - 6) * 5.
func (c *Claw) SetMinMainBattery(val uint8) error { return c.byteCmd(SetMinMainBattery, val) }

// SetMaxMainBattery sets the main battery maximum, V * 5.12.
func (c *Claw) SetMaxMainBattery(val uint8) error { return c.byteCmd(SetMaxMainBattery, val) }

// ResetEncoders zeros both encoder counters.
func (c *Claw) ResetEncoders() error { return c.Send(ResetEncoders) }

func (c *Claw) reading(op Opcode) (Reading, error) {
	vals, err := c.Exec(op)
	if len(vals) != 2 {
		return Reading{Value: Invalid, Status: Invalid}, err
	}
	return Reading{Value: vals[0], Status: vals[1]}, err
}

func (c *Claw) pair(op Opcode) (Pair, error) {
	vals, err := c.Exec(op)
	if len(vals) != 2 {
		return Pair{M1: Invalid, M2: Invalid}, err
	}
	return Pair{M1: vals[0], M2: vals[1]}, err
}

func (c *Claw) single(op Opcode) (int64, error) {
	vals, err := c.Exec(op)
	if len(vals) != 1 {
		return Invalid, err
	}
	return vals[0], err
}

// ReadEncoder reads the encoder count.
func (c *Claw) ReadEncoder(m Motor) (Reading, error) {
	return c.reading(m.Pick(ReadM1Encoder, ReadM2Encoder))
}

// ReadSpeed reads the speed in ticks/s.
func (c *Claw) ReadSpeed(m Motor) (Reading, error) {
	return c.reading(m.Pick(ReadM1Speed, ReadM2Speed))
}

// ReadInstSpeed reads the instantaneous speed in ticks/s.
func (c *Claw) ReadInstSpeed(m Motor) (Reading, error) {
	return c.reading(m.Pick(ReadM1InstSpeed, ReadM2InstSpeed))
}

// ReadMainBattery reads main battery voltage in 0.1V.
func (c *Claw) ReadMainBattery() (int64, error) { return c.single(ReadMainBattery) }

// ReadLogicBattery reads logic battery voltage in 0.1V.
func (c *Claw) ReadLogicBattery() (int64, error) { return c.single(ReadLogicBattery) }

// ReadTemperature reads board temperature in 0.1 degree celsius.
func (c *Claw) ReadTemperature() (int64, error) { return c.single(ReadTemperature) }

// ReadErrorState reads the error status bits.
func (c *Claw) ReadErrorState() (int64, error) { return c.single(ReadErrorState) }

// ReadBufferCounts reads the number of buffered commands per channel.
func (c *Claw) ReadBufferCounts() (Pair, error) { return c.pair(ReadBufferCounts) }

// ReadCurrents reads motor currents in 10mA.
func (c *Claw) ReadCurrents() (Pair, error) { return c.pair(ReadCurrents) }

// ReadMainBatterySettings reads main battery min/max.
func (c *Claw) ReadMainBatterySettings() (Range, error) {
	p, err := c.pair(ReadMainBatterySettings)
	return Range{Min: p.M1, Max: p.M2}, err
}

// ReadLogicBatterySettings reads logic battery min/max.
func (c *Claw) ReadLogicBatterySettings() (Range, error) {
	p, err := c.pair(ReadLogicBatterySettings)
	return Range{Min: p.M1, Max: p.M2}, err
}

// SetVelocityPID writes the velocity PID constants.
func (c *Claw) SetVelocityPID(m Motor, pid VelocityPID) error {
	return c.Send(m.Pick(SetM1VelocityPID, SetM2VelocityPID), pid.D, pid.P, pid.I, pid.QPPS)
}

// ReadVelocityPID reads the velocity PID constants.
func (c *Claw) ReadVelocityPID(m Motor) (VelocityPID, error) {
	vals, err := c.Exec(m.Pick(ReadM1VelocityPID, ReadM2VelocityPID))
	if len(vals) != 4 {
		vals = Sentinel(4)
	}
	return VelocityPID{P: vals[0], I: vals[1], D: vals[2], QPPS: vals[3]}, err
}

// SetPositionPID writes the position PID constants.
func (c *Claw) SetPositionPID(m Motor, pid PositionPID) error {
	return c.Send(m.Pick(SetM1PositionPID, SetM2PositionPID),
		pid.D, pid.P, pid.I, pid.IMax, pid.Deadzone, pid.Min, pid.Max)
}

// ReadPositionPID reads the position PID constants.
func (c *Claw) ReadPositionPID(m Motor) (PositionPID, error) {
	vals, err := c.Exec(m.Pick(ReadM1PositionPID, ReadM2PositionPID))
	if len(vals) != 7 {
		vals = Sentinel(7)
	}
	return PositionPID{
		P: vals[0], I: vals[1], D: vals[2],
		IMax: vals[3], Deadzone: vals[4], Min: vals[5], Max: vals[6],
	}, err
}

// Duty sets the signed duty cycle, -32767 - 32767.
func (c *Claw) Duty(m Motor, duty int16) error {
	return c.Send(m.Pick(M1Duty, M2Duty), int64(duty))
}

// DutyAccel sets the duty cycle with acceleration.
func (c *Claw) DutyAccel(m Motor, duty int16, accel uint16) error {
	return c.Send(m.Pick(M1DutyAccel, M2DutyAccel), int64(duty), int64(accel))
}

// MixedDuty sets the duty cycle of both channels.
func (c *Claw) MixedDuty(duty1, duty2 int16) error {
	return c.Send(MixedDuty, int64(duty1), int64(duty2))
}

// MixedDutyAccel sets duty cycles with individual accelerations.
func (c *Claw) MixedDutyAccel(duty1 int16, accel1 uint16, duty2 int16, accel2 uint16) error {
	return c.Send(MixedDutyAccel, int64(duty1), int64(accel1), int64(duty2), int64(accel2))
}

// Speed sets the signed speed in ticks/s.
func (c *Claw) Speed(m Motor, speed int32) error {
	return c.Send(m.Pick(M1Speed, M2Speed), int64(speed))
}

// MixedSpeed sets the speed of both channels.
func (c *Claw) MixedSpeed(speed1, speed2 int32) error {
	return c.Send(MixedSpeed, int64(speed1), int64(speed2))
}

// SpeedAccel sets the speed with acceleration in ticks/s^2.
func (c *Claw) SpeedAccel(m Motor, accel uint32, speed int32) error {
	return c.Send(m.Pick(M1SpeedAccel, M2SpeedAccel), int64(accel), int64(speed))
}

// MixedSpeedAccel sets the speed of both channels with the same acceleration.
func (c *Claw) MixedSpeedAccel(accel uint32, speed1, speed2 int32) error {
	return c.Send(MixedSpeedAccel, int64(accel), int64(speed1), int64(speed2))
}

// MixedSpeedIAccel sets speeds with individual accelerations.
func (c *Claw) MixedSpeedIAccel(accel1 uint32, speed1 int32, accel2 uint32, speed2 int32) error {
	return c.Send(MixedSpeedIAccel, int64(accel1), int64(speed1), int64(accel2), int64(speed2))
}

// SpeedDistance runs at speed for distance ticks.
func (c *Claw) SpeedDistance(m Motor, speed int32, distance uint32, buffer uint8) error {
	return c.Send(m.Pick(M1SpeedDistance, M2SpeedDistance), int64(speed), int64(distance), int64(buffer))
}

// MixedSpeedDistance runs both channels for distances.
func (c *Claw) MixedSpeedDistance(speed1 int32, distance1 uint32, speed2 int32, distance2 uint32, buffer uint8) error {
	return c.Send(MixedSpeedDistance, int64(speed1), int64(distance1), int64(speed2), int64(distance2), int64(buffer))
}

// SpeedAccelDistance runs at speed with acceleration for distance ticks.
func (c *Claw) SpeedAccelDistance(m Motor, accel uint32, speed int32, distance uint32, buffer uint8) error {
	return c.Send(m.Pick(M1SpeedAccelDistance, M2SpeedAccelDistance),
		int64(accel), int64(speed), int64(distance), int64(buffer))
}

// MixedSpeedAccelDistance runs both channels with the same acceleration.
func (c *Claw) MixedSpeedAccelDistance(accel uint32, speed1 int32, distance1 uint32, speed2 int32, distance2 uint32, buffer uint8) error {
	return c.Send(MixedSpeedAccelDistance,
		int64(accel), int64(speed1), int64(distance1), int64(speed2), int64(distance2), int64(buffer))
}

// MixedSpeedIAccelDistance runs both channels with individual accelerations.
func (c *Claw) MixedSpeedIAccelDistance(accel1 uint32, speed1 int32, distance1 uint32, accel2 uint32, speed2 int32, distance2 uint32, buffer uint8) error {
	return c.Send(MixedSpeedIAccelDistance,
		int64(accel1), int64(speed1), int64(distance1),
		int64(accel2), int64(speed2), int64(distance2), int64(buffer))
}

// Move is one channel of a speed/accel/deccel/position command.
type Move struct {
	Accel, Speed, Deccel, Position uint32
}

func (m Move) args() []int64 {
	return []int64{int64(m.Accel), int64(m.Speed), int64(m.Deccel), int64(m.Position)}
}

// SpeedAccelDeccelPosition moves to position with a trapezoid profile.
func (c *Claw) SpeedAccelDeccelPosition(m Motor, move Move, buffer uint8) error {
	return c.Send(m.Pick(M1SpeedAccelDeccelPosition, M2SpeedAccelDeccelPosition),
		append(move.args(), int64(buffer))...)
}

// MixedSpeedAccelDeccelPosition moves both channels to positions.
func (c *Claw) MixedSpeedAccelDeccelPosition(move1, move2 Move, buffer uint8) error {
	args := append(move1.args(), move2.args()...)
	return c.Send(MixedSpeedAccelDeccelPosition, append(args, int64(buffer))...)
}
