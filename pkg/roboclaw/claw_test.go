package roboclaw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClawWrites(t *testing.T) {
	testCases := []struct {
		name   string
		do     func(*Claw) error
		expect []byte
	}{
		{
			name:   "speed",
			do:     func(c *Claw) error { return c.Speed(M2, -1) },
			expect: []byte{testAddr, byte(M2Speed), 0xff, 0xff, 0xff, 0xff},
		},
		{
			name:   "mixed duty",
			do:     func(c *Claw) error { return c.MixedDuty(0x0102, -2) },
			expect: []byte{testAddr, byte(MixedDuty), 0x01, 0x02, 0xff, 0xfe},
		},
		{
			name:   "duty accel",
			do:     func(c *Claw) error { return c.DutyAccel(M1, 0x0102, 0x0304) },
			expect: []byte{testAddr, byte(M1DutyAccel), 0x01, 0x02, 0x03, 0x04},
		},
		{
			name: "velocity pid",
			do: func(c *Claw) error {
				return c.SetVelocityPID(M1, VelocityPID{P: 1, I: 2, D: 3, QPPS: 0x1000})
			},
			expect: []byte{testAddr, byte(SetM1VelocityPID),
				0, 0, 0, 3, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0x10, 0},
		},
		{
			name: "position pid",
			do: func(c *Claw) error {
				return c.SetPositionPID(M2, PositionPID{P: 1, I: 2, D: 3, IMax: 4, Deadzone: 5, Min: 6, Max: 7})
			},
			expect: []byte{testAddr, byte(SetM2PositionPID),
				0, 0, 0, 3, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 4, 0, 0, 0, 5, 0, 0, 0, 6, 0, 0, 0, 7},
		},
		{
			name:   "speed distance",
			do:     func(c *Claw) error { return c.SpeedDistance(M1, 1, 2, Immediate) },
			expect: []byte{testAddr, byte(M1SpeedDistance), 0, 0, 0, 1, 0, 0, 0, 2, 1},
		},
		{
			name: "mixed position",
			do: func(c *Claw) error {
				return c.MixedSpeedAccelDeccelPosition(Move{1, 2, 3, 4}, Move{5, 6, 7, 8}, Buffered)
			},
			expect: []byte{testAddr, byte(MixedSpeedAccelDeccelPosition),
				0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4,
				0, 0, 0, 5, 0, 0, 0, 6, 0, 0, 0, 7, 0, 0, 0, 8, 0},
		},
		{
			name:   "drive mixed",
			do:     func(c *Claw) error { return c.DriveMixed(64) },
			expect: []byte{testAddr, byte(DriveMixed), 64},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			port := newTestPort()
			require.NoError(t, tc.do(New(NewSerialDevice(port, testAddr))))
			require.Equal(t, append(tc.expect, sum(tc.expect)), port.written.Bytes())
		})
	}
}

func TestClawReads(t *testing.T) {
	pid := []int64{10, 20, 30, 40}
	claw := New(NewSerialDevice(newTestPort(replyFor(ReadM2VelocityPID, pid)...), testAddr))
	v, err := claw.ReadVelocityPID(M2)
	require.NoError(t, err)
	require.Equal(t, VelocityPID{P: 10, I: 20, D: 30, QPPS: 40}, v)

	claw = New(NewSerialDevice(newTestPort(replyFor(ReadM1Encoder, []int64{-5, 0x82})...), testAddr))
	r, err := claw.ReadEncoder(M1)
	require.NoError(t, err)
	require.Equal(t, Reading{Value: -5, Status: 0x82}, r)
	require.True(t, r.Valid())

	reply := replyFor(ReadCurrents, []int64{120, 340})
	reply[0] ^= 0x10
	claw = New(NewSerialDevice(newTestPort(reply...), testAddr))
	p, err := claw.ReadCurrents()
	require.Equal(t, ErrChecksum, err)
	require.Equal(t, Pair{M1: Invalid, M2: Invalid}, p)
	require.False(t, p.Valid())

	claw = New(NewSerialDevice(newTestPort(), testAddr))
	pos, err := claw.ReadPositionPID(M1)
	require.True(t, IsTransportError(err))
	require.False(t, pos.Valid())
	temp, err := claw.ReadTemperature()
	require.Error(t, err)
	require.Equal(t, Invalid, temp)
}
