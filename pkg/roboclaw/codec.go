package roboclaw

import (
	"errors"
	"io"
	"os"
)

// Checksum is the running additive byte-sum of one command exchange.
type Checksum byte

// Reset starts a new exchange.
func (c *Checksum) Reset() {
	*c = 0
}

// Add accumulates bytes.
func (c *Checksum) Add(bytes ...byte) {
	for _, b := range bytes {
		*c += Checksum(b)
	}
}

// Sum returns the verification byte: the low 7 bits of the sum.
func (c Checksum) Sum() byte {
	return byte(c) & 0x7f
}

// Field is the wire type of a parameter or a reply value.
type Field byte

// Field types, all big-endian.
const (
	U8 Field = iota
	S8
	U16
	S16
	U32
	S32
)

// Size returns the number of bytes on the wire.
func (f Field) Size() int {
	switch f {
	case U16, S16:
		return 2
	case U32, S32:
		return 4
	default:
		return 1
	}
}

// Signed indicates a two's complement field.
func (f Field) Signed() bool {
	return f == S8 || f == S16 || f == S32
}

// Encode appends the big-endian bytes of v truncated to the field width.
func (f Field) Encode(b []byte, v int64) []byte {
	for n := f.Size() - 1; n >= 0; n-- {
		b = append(b, byte(v>>(uint(n)*8)))
	}
	return b
}

// Decode converts big-endian bytes, sign-extending signed fields.
func (f Field) Decode(b []byte) int64 {
	var v uint64
	for _, c := range b[:f.Size()] {
		v = v<<8 | uint64(c)
	}
	if f.Signed() {
		shift := uint(64 - f.Size()*8)
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

// Codec performs typed reads/writes of one exchange and keeps the checksum.
// Written bytes are staged and sent in a single write before the first read,
// or together with the trailing checksum byte.
type Codec struct {
	rw  io.ReadWriter
	sum Checksum
	out []byte
	buf [4]byte
}

// NewCodec creates a Codec over a transport.
func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{rw: rw, out: make([]byte, 0, 64)}
}

// Checksum returns the current accumulator.
func (c *Codec) Checksum() Checksum {
	return c.sum
}

// Begin resets the checksum and writes the command header.
func (c *Codec) Begin(address byte, op Opcode) {
	c.sum.Reset()
	c.out = c.out[:0]
	c.Write(U8, int64(address))
	c.Write(U8, int64(op))
}

// Write stages a typed value.
func (c *Codec) Write(f Field, v int64) {
	n := len(c.out)
	c.out = f.Encode(c.out, v)
	c.sum.Add(c.out[n:]...)
}

// WriteChecksum appends the trailing verification byte and sends the exchange.
func (c *Codec) WriteChecksum() error {
	c.out = append(c.out, c.sum.Sum())
	return c.Flush()
}

// Flush sends staged bytes.
func (c *Codec) Flush() error {
	if len(c.out) == 0 {
		return nil
	}
	_, err := c.rw.Write(c.out)
	c.out = c.out[:0]
	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// Read reads a typed value.
func (c *Codec) Read(f Field) (int64, error) {
	b, err := c.readFull(f.Size())
	if err != nil {
		return Invalid, err
	}
	c.sum.Add(b...)
	return f.Decode(b), nil
}

// Verify reads the trailing verification byte and compares it with the
// checksum. The verification byte itself is not accumulated.
func (c *Codec) Verify() (bool, error) {
	expected := c.sum.Sum()
	b, err := c.readFull(1)
	if err != nil {
		return false, err
	}
	return b[0] == expected, nil
}

func (c *Codec) readFull(n int) ([]byte, error) {
	if err := c.Flush(); err != nil {
		return nil, err
	}
	b := c.buf[:n]
	if _, err := io.ReadFull(c.rw, b); err != nil {
		// a serial port with a read timeout reports expiry as a short read.
		timeout := err == io.EOF || err == io.ErrUnexpectedEOF || os.IsTimeout(err)
		var te interface{ Timeout() bool }
		if errors.As(err, &te) && te.Timeout() {
			timeout = true
		}
		return nil, &TransportError{Op: "read", Timeout: timeout, Err: err}
	}
	return b, nil
}
