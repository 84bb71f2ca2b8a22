package stream

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// MaxPacketSize limits the length prefix accepted from the peer.
const MaxPacketSize = 1 << 20

// ReadWriter implements PacketReadWriter over a byte stream.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	io.ReadWriter

	writeLock sync.Mutex
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(p.ReadWriter, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(prefix[:])
	if size > MaxPacketSize {
		return nil, fmt.Errorf("packet size %d exceeds %d", size, MaxPacketSize)
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.ReadWriter, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
// The prefix and the packet are written in a single call.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	_, err := p.Write(buf)
	return err
}

// Close implements io.Closer if the stream is closable.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
