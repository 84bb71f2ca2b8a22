package roboclaw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testAddr byte = 0x80

// replyFor encodes a correct reply of a query.
func replyFor(op Opcode, vals []int64) []byte {
	cmd := Commands[op]
	var b []byte
	for n, f := range cmd.Reply {
		b = f.Encode(b, vals[n])
	}
	return append(b, sum(append([]byte{testAddr, byte(op)}, b...)))
}

// replyValues generates values fitting the reply fields.
func replyValues(cmd *Command) []int64 {
	vals := make([]int64, len(cmd.Reply))
	for n, f := range cmd.Reply {
		switch f {
		case S32:
			vals[n] = -100000 - int64(n)
		case U32:
			vals[n] = 0x01020304 + int64(n)
		case U16:
			vals[n] = 0x0102 + int64(n)
		default:
			vals[n] = 0x10 + int64(n)
		}
	}
	return vals
}

func TestFireAndForgetTrailingByte(t *testing.T) {
	for op, cmd := range Commands {
		if cmd.IsQuery() {
			continue
		}
		t.Run(cmd.Name, func(t *testing.T) {
			args := make([]int64, len(cmd.Params))
			size := 0
			for n, f := range cmd.Params {
				args[n] = int64(0x7a6b5c4d) * int64(n+1)
				size += f.Size()
			}
			port := newTestPort()
			vals, err := NewSerialDevice(port, testAddr).Exec(op, args...)
			require.NoError(t, err)
			require.Nil(t, vals)
			out := port.written.Bytes()
			require.Len(t, out, size+3)
			require.Equal(t, []byte{testAddr, byte(op)}, out[:2])
			require.Equal(t, sum(out[:len(out)-1]), out[len(out)-1])
			require.Zero(t, out[len(out)-1]&0x80)
		})
	}
}

func TestQueryRoundTrip(t *testing.T) {
	for op, cmd := range Commands {
		if !cmd.IsQuery() {
			continue
		}
		t.Run(cmd.Name, func(t *testing.T) {
			expected := replyValues(cmd)
			port := newTestPort(replyFor(op, expected)...)
			vals, err := NewSerialDevice(port, testAddr).Exec(op)
			require.NoError(t, err)
			require.Equal(t, expected, vals)
			require.Equal(t, []byte{testAddr, byte(op)}, port.written.Bytes())
		})
	}
}

func TestQueryCorruptedByte(t *testing.T) {
	for op, cmd := range Commands {
		if !cmd.IsQuery() {
			continue
		}
		reply := replyFor(op, replyValues(cmd))
		for pos := 0; pos < len(reply)-1; pos++ {
			corrupted := append([]byte{}, reply...)
			corrupted[pos] ^= 0x01
			port := newTestPort(corrupted...)
			vals, err := NewSerialDevice(port, testAddr).Exec(op)
			require.Equal(t, ErrChecksum, err, "%s byte %d", cmd.Name, pos)
			require.Equal(t, Sentinel(len(cmd.Reply)), vals, "%s byte %d", cmd.Name, pos)
			require.Equal(t, 1, port.flushed)
		}
	}
}

func TestQueryTimeout(t *testing.T) {
	port := newTestPort(0x01, 0x02)
	vals, err := NewSerialDevice(port, testAddr).Exec(ReadM1InstSpeed)
	require.True(t, IsTransportError(err))
	require.Equal(t, []int64{Invalid, Invalid}, vals)
	require.Equal(t, 1, port.flushed)
}

func TestExecArgs(t *testing.T) {
	dev := NewSerialDevice(newTestPort(), testAddr)
	_, err := dev.Exec(M1Speed)
	require.Equal(t, &ArgsError{Op: M1Speed, Expected: 1, Actual: 0}, err)
	_, err = dev.Exec(Opcode(200))
	require.Error(t, err)
}

func TestReadVersion(t *testing.T) {
	str := []byte("USB Roboclaw 2x7a v4.1.34\n")
	reply := append(append([]byte{}, str...), 0)
	reply = append(reply, sum(append([]byte{testAddr, byte(ReadVersion)}, reply...)))
	port := newTestPort(reply...)
	ver, err := NewSerialDevice(port, testAddr).ReadVersion()
	require.NoError(t, err)
	require.Equal(t, string(str), ver)
	require.Equal(t, []byte{testAddr, byte(ReadVersion)}, port.written.Bytes())

	reply[len(reply)-1] ^= 0x01
	_, err = NewSerialDevice(newTestPort(reply...), testAddr).ReadVersion()
	require.Equal(t, ErrChecksum, err)
}

func TestSerialDeviceClose(t *testing.T) {
	port := newTestPort()
	dev := NewSerialDevice(port, testAddr)
	require.NoError(t, dev.Close())
	require.NoError(t, dev.Close())
	require.Equal(t, 1, port.closed)
	require.PanicsWithValue(t, ErrClosed, func() {
		dev.Exec(ResetEncoders)
	})
}

func TestNullDevice(t *testing.T) {
	dev := NewNullDevice()
	for op, cmd := range Commands {
		vals, err := dev.Exec(op, make([]int64, len(cmd.Params))...)
		require.NoError(t, err)
		if cmd.IsQuery() {
			require.Equal(t, make([]int64, len(cmd.Reply)), vals)
		} else {
			require.Nil(t, vals)
		}
		require.Equal(t, 1, dev.Calls(op))
	}
	ver, err := dev.ReadVersion()
	require.NoError(t, err)
	require.Equal(t, NullVersion, ver)

	claw := New(dev)
	r, err := claw.ReadInstSpeed(M2)
	require.NoError(t, err)
	require.True(t, r.Valid())
	require.Equal(t, Reading{}, r)

	require.NoError(t, dev.Close())
	require.PanicsWithValue(t, ErrClosed, func() {
		claw.Speed(M1, 10)
	})
}
