package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameSize bounds how much a single frame may ask us to buffer.
// The length field is 32-bit, so a malformed prefix could otherwise demand
// up to 4 GiB.
const DefaultMaxFrameSize uint32 = 64 << 20

const headerSize = 4

var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// Frame prepends a 4-byte big-endian unsigned length to payload.
func Frame(payload []byte) []byte {
	out := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(out[:headerSize], uint32(len(payload)))
	copy(out[headerSize:], payload)
	return out
}

// Extractor re-assembles framed payloads from an incoming byte stream.
// Bytes may arrive fragmented at any offset, including mid-prefix, and
// multiple frames may arrive in one feed.
type Extractor struct {
	buf      []byte
	maxFrame uint32
}

func NewExtractor(maxFrame uint32) *Extractor {
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &Extractor{maxFrame: maxFrame}
}

// Feed appends raw stream bytes to the accumulator.
func (e *Extractor) Feed(data []byte) {
	e.buf = append(e.buf, data...)
}

// Next returns the next complete payload, or ok=false if more bytes are
// needed. A length prefix above the configured maximum returns
// ErrFrameTooLarge; the extractor is unusable afterwards and the
// connection must be torn down.
func (e *Extractor) Next() (payload []byte, ok bool, err error) {
	if len(e.buf) < headerSize {
		return nil, false, nil
	}
	length := binary.BigEndian.Uint32(e.buf[:headerSize])
	if length > e.maxFrame {
		return nil, false, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, e.maxFrame)
	}
	total := headerSize + int(length)
	if len(e.buf) < total {
		return nil, false, nil
	}
	payload = make([]byte, length)
	copy(payload, e.buf[headerSize:total])
	e.buf = e.buf[total:]
	return payload, true, nil
}

// Buffered reports how many unconsumed bytes are held.
func (e *Extractor) Buffered() int {
	return len(e.buf)
}

// WriteFrame writes one framed payload to w.
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(Frame(payload))
	return err
}

// ReadFrame reads exactly one framed payload from r.
func ReadFrame(r io.Reader, maxFrame uint32) ([]byte, error) {
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > maxFrame {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, maxFrame)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
