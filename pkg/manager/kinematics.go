package manager

import "math"

// Kinematics maps a robot-frame velocity to the linear velocity (m/s) of
// every wheel, indexed the same way as Command wheels.
type Kinematics interface {
	WheelVelocities(linear, angular float64) []float64
}

// Side of a wheel.
type Side int

// Sides
const (
	Left Side = iota
	Right
)

// SkidSteer is the differential model of a skid-steer base.
type SkidSteer struct {
	// TrackWidth is the distance (m) between left and right wheels.
	TrackWidth float64
	Sides      []Side
}

// NewSkidSteer creates a SkidSteer where channel M1 of every controller
// drives a left wheel and M2 a right wheel.
func NewSkidSteer(trackWidth float64, wheels int) *SkidSteer {
	s := &SkidSteer{TrackWidth: trackWidth, Sides: make([]Side, wheels)}
	for n := range s.Sides {
		s.Sides[n] = Side(n % 2)
	}
	return s
}

// WheelVelocities implements Kinematics.
func (s *SkidSteer) WheelVelocities(linear, angular float64) []float64 {
	offset := angular * s.TrackWidth / 2
	vels := make([]float64, len(s.Sides))
	for n, side := range s.Sides {
		if side == Left {
			vels[n] = linear - offset
		} else {
			vels[n] = linear + offset
		}
	}
	return vels
}

// Drive converts robot-frame velocities into wheel tick rates.
type Drive struct {
	Kinematics Kinematics
	// WheelRadius in m.
	WheelRadius float64
	// TicksPerRev is the encoder count of one wheel revolution.
	TicksPerRev float64
}

// TickRate converts the linear velocity of a wheel into ticks/s.
// Rates beyond the range of the wire format saturate.
func (d *Drive) TickRate(vel float64) int32 {
	rate := math.Round(vel / (2 * math.Pi * d.WheelRadius) * d.TicksPerRev)
	switch {
	case rate >= math.MaxInt32:
		return math.MaxInt32
	case rate <= math.MinInt32:
		return math.MinInt32
	}
	return int32(rate)
}

// TickRates converts a robot-frame velocity into wheel tick rates.
func (d *Drive) TickRates(linear, angular float64) []int32 {
	vels := d.Kinematics.WheelVelocities(linear, angular)
	rates := make([]int32, len(vels))
	for n, vel := range vels {
		rates[n] = d.TickRate(vel)
	}
	return rates
}
