package roboclaw

import (
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/tarm/serial"
)

// Device is the capability shared by the hardware-backed and the
// hardware-absent controller handles.
type Device interface {
	io.Closer
	// Exec performs one exchange. Fire-and-forget commands return nil values.
	// Queries return the decoded reply, or the Invalid sentinel of the same
	// arity along with ErrChecksum or a *TransportError.
	Exec(op Opcode, args ...int64) ([]int64, error)
	// ReadVersion reads the firmware version string.
	ReadVersion() (string, error)
}

// MaxVersionLen is the longest version string accepted.
const MaxVersionLen = 32

type flusher interface {
	Flush() error
}

// SerialDevice talks to a controller over a byte stream.
// Exchanges are not reentrant: a single goroutine must own the device.
type SerialDevice struct {
	Address byte

	port   io.ReadWriteCloser
	codec  *Codec
	lock   sync.Mutex
	closed bool
}

// NewSerialDevice creates a SerialDevice over an opened port.
func NewSerialDevice(port io.ReadWriteCloser, address byte) *SerialDevice {
	return &SerialDevice{
		Address: address,
		port:    port,
		codec:   NewCodec(port),
	}
}

// OpenSerial opens the serial port in config.
func OpenSerial(conf *Config) (*SerialDevice, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        conf.Port,
		Baud:        conf.Baud,
		ReadTimeout: conf.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Port, err)
	}
	glog.V(1).Infof("opened %s at %d baud, address 0x%02x", conf.Port, conf.Baud, conf.Address)
	return NewSerialDevice(port, byte(conf.Address)), nil
}

// Exec implements Device.
func (d *SerialDevice) Exec(op Opcode, args ...int64) ([]int64, error) {
	cmd, err := Lookup(op, args)
	if err != nil {
		return nil, err
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.mustBeOpen()

	d.codec.Begin(d.Address, op)
	for n, f := range cmd.Params {
		d.codec.Write(f, args[n])
	}
	if !cmd.IsQuery() {
		err = d.codec.WriteChecksum()
		if err != nil {
			d.discardInput()
		}
		return nil, err
	}

	vals := make([]int64, len(cmd.Reply))
	for n, f := range cmd.Reply {
		if vals[n], err = d.codec.Read(f); err != nil {
			d.discardInput()
			return Sentinel(len(cmd.Reply)), err
		}
	}
	ok, err := d.codec.Verify()
	if err == nil && !ok {
		err = ErrChecksum
	}
	if err != nil {
		d.discardInput()
		return Sentinel(len(cmd.Reply)), err
	}
	return vals, nil
}

// ReadVersion implements Device.
// The reply is a NUL terminated string followed by the verification byte.
func (d *SerialDevice) ReadVersion() (string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.mustBeOpen()

	d.codec.Begin(d.Address, ReadVersion)
	str := make([]byte, 0, MaxVersionLen)
	for len(str) < MaxVersionLen {
		c, err := d.codec.Read(U8)
		if err != nil {
			d.discardInput()
			return "", err
		}
		if c == 0 {
			break
		}
		str = append(str, byte(c))
	}
	ok, err := d.codec.Verify()
	if err == nil && !ok {
		err = ErrChecksum
	}
	if err != nil {
		d.discardInput()
		return "", err
	}
	return string(str), nil
}

// Close implements io.Closer. The port is closed only once.
func (d *SerialDevice) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.port.Close()
}

func (d *SerialDevice) mustBeOpen() {
	if d.closed {
		panic(ErrClosed)
	}
}

// discardInput drops leftovers of a failed exchange so they are not
// interpreted as the reply of the next one.
func (d *SerialDevice) discardInput() {
	if f, ok := d.port.(flusher); ok {
		if err := f.Flush(); err != nil {
			glog.V(2).Infof("flush error: %v", err)
		}
	}
}

// NullDevice accepts all commands without hardware attached.
// Commands are no-ops and queries reply zeros.
type NullDevice struct {
	calls  map[Opcode]int
	lock   sync.Mutex
	closed bool
}

// NullVersion is the version string reported by NullDevice.
const NullVersion = "RoboClaw null"

// NewNullDevice creates a NullDevice.
func NewNullDevice() *NullDevice {
	return &NullDevice{calls: make(map[Opcode]int)}
}

// Exec implements Device.
func (d *NullDevice) Exec(op Opcode, args ...int64) ([]int64, error) {
	cmd, err := Lookup(op, args)
	if err != nil {
		return nil, err
	}
	d.called(op)
	if !cmd.IsQuery() {
		return nil, nil
	}
	return make([]int64, len(cmd.Reply)), nil
}

// ReadVersion implements Device.
func (d *NullDevice) ReadVersion() (string, error) {
	d.called(ReadVersion)
	return NullVersion, nil
}

// Close implements io.Closer.
func (d *NullDevice) Close() error {
	d.lock.Lock()
	d.closed = true
	d.lock.Unlock()
	return nil
}

// Calls returns how many times an operation was executed.
func (d *NullDevice) Calls(op Opcode) int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.calls[op]
}

func (d *NullDevice) called(op Opcode) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		panic(ErrClosed)
	}
	d.calls[op]++
}
