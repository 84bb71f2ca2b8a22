package manager

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDrive has a wheel circumference of 1m, so 1m/s is 1000 ticks/s.
func testDrive(wheels int) *Drive {
	return &Drive{
		Kinematics:  NewSkidSteer(0.5, wheels),
		WheelRadius: 1 / (2 * math.Pi),
		TicksPerRev: 1000,
	}
}

func TestSkidSteerSides(t *testing.T) {
	s := NewSkidSteer(1, 4)
	require.Equal(t, []Side{Left, Right, Left, Right}, s.Sides)
	require.Equal(t, []float64{-0.5, 0.5, -0.5, 0.5}, s.WheelVelocities(0, 1))
}

func TestTickRatesZero(t *testing.T) {
	require.Equal(t, []int32{0, 0, 0, 0}, testDrive(4).TickRates(0, 0))
	require.Equal(t, []int32{0, 0, 0, 0}, testDrive(4).TickRates(math.Copysign(0, -1), 0))
}

func TestTickRatesSign(t *testing.T) {
	d := testDrive(4)
	for _, rate := range d.TickRates(0.3, 0) {
		require.Positive(t, rate)
	}
	for _, rate := range d.TickRates(-0.3, 0) {
		require.Negative(t, rate)
	}
	// turning left in place
	rates := d.TickRates(0, 1)
	require.Negative(t, rates[0])
	require.Positive(t, rates[1])
	require.Negative(t, rates[2])
	require.Positive(t, rates[3])
}

func TestTickRatesLinear(t *testing.T) {
	d := testDrive(4)
	require.Equal(t, []int32{1000, 1000, 1000, 1000}, d.TickRates(1, 0))
	require.Equal(t, []int32{2000, 2000, 2000, 2000}, d.TickRates(2, 0))
	require.Equal(t, []int32{500, 1500, 500, 1500}, d.TickRates(1, 2))
	require.Equal(t, []int32{1500, 2500, 1500, 2500}, d.TickRates(2, 2))
}

func TestTickRateSaturates(t *testing.T) {
	d := testDrive(2)
	require.Equal(t, int32(math.MaxInt32), d.TickRate(1e12))
	require.Equal(t, int32(math.MinInt32), d.TickRate(-1e12))
}
