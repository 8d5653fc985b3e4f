// Package wire implements the variable-length binary framing used on both
// the discovery and relay channels. A frame is a 1-4 byte little-endian
// length header followed immediately by the payload; the low 2 bits of the
// first byte select the header length, the remaining bits (shifted right by
// 2) give the payload length. One byte of overhead for small control
// messages, four bytes for multi-megabyte video frames.
package wire

import (
	"errors"
)

// ErrPayloadTooLarge is returned by Encode for payloads a 4-byte header
// cannot describe. Inbound frames cannot exceed the limit: the length field
// itself tops out at MaxPayload.
var ErrPayloadTooLarge = errors.New("payload exceeds maximum frame size")

const (
	// MaxPayload is the largest payload length a 4-byte header can carry.
	MaxPayload = 1<<30 - 1

	// MaxHeaderLen is the largest possible header size.
	MaxHeaderLen = 4
)

// Encode wraps payload in a single self-contained frame. Frames are never
// split on output.
func Encode(payload []byte) ([]byte, error) {
	n := len(payload)
	if n > MaxPayload {
		return nil, ErrPayloadTooLarge
	}

	var header [MaxHeaderLen]byte
	var hlen int

	switch {
	case n <= 0x3F:
		header[0] = byte(n << 2)
		hlen = 1
	case n <= 0x3FFF:
		v := uint32(n)<<2 | 1
		header[0] = byte(v)
		header[1] = byte(v >> 8)
		hlen = 2
	case n <= 0x3FFFFF:
		v := uint32(n)<<2 | 2
		header[0] = byte(v)
		header[1] = byte(v >> 8)
		header[2] = byte(v >> 16)
		hlen = 3
	default:
		v := uint32(n)<<2 | 3
		header[0] = byte(v)
		header[1] = byte(v >> 8)
		header[2] = byte(v >> 16)
		header[3] = byte(v >> 24)
		hlen = 4
	}

	buf := make([]byte, hlen+n)
	copy(buf, header[:hlen])
	copy(buf[hlen:], payload)

	return buf, nil
}

// HeaderLen reports the header length implied by the first byte of a frame.
func HeaderLen(first byte) int {
	return int(first&0x03) + 1
}

// Reader reassembles complete frames from an arbitrarily-chunked byte
// stream. The transport gives no alignment guarantees: a chunk may carry a
// partial header, several whole frames, or any mix of both. One Reader per
// channel; reassembly state never crosses the discovery/relay switch.
type Reader struct {
	buf []byte
	off int // start of unconsumed bytes in buf
}

// NewReader returns an empty Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Feed appends chunk to the reassembly buffer and returns every payload
// completed by it, in arrival order. Partial frames emit nothing and wait
// for more input. Consumed bytes are compacted away by shifting only the
// unconsumed tail, so repeated feeds do not re-copy the whole backlog.
func (r *Reader) Feed(chunk []byte) [][]byte {
	r.buf = append(r.buf, chunk...)

	var payloads [][]byte
	for {
		avail := len(r.buf) - r.off
		if avail < 1 {
			break
		}

		hlen := HeaderLen(r.buf[r.off])
		if avail < hlen {
			break
		}

		var v uint32
		for i := 0; i < hlen; i++ {
			v |= uint32(r.buf[r.off+i]) << (8 * i)
		}
		plen := int(v >> 2)

		if avail < hlen+plen {
			break
		}

		payload := make([]byte, plen)
		copy(payload, r.buf[r.off+hlen:r.off+hlen+plen])
		payloads = append(payloads, payload)
		r.off += hlen + plen
	}

	r.compact()
	return payloads
}

// Pending reports how many unconsumed bytes are buffered.
func (r *Reader) Pending() int {
	return len(r.buf) - r.off
}

// Reset drops all reassembly state.
func (r *Reader) Reset() {
	r.buf = r.buf[:0]
	r.off = 0
}

// compact shifts unconsumed bytes to the front once the consumed prefix
// dominates the buffer, keeping amortized cost linear.
func (r *Reader) compact() {
	if r.off == 0 {
		return
	}
	if r.off == len(r.buf) {
		r.buf = r.buf[:0]
		r.off = 0
		return
	}
	if r.off >= 4096 || r.off*2 >= len(r.buf) {
		n := copy(r.buf, r.buf[r.off:])
		r.buf = r.buf[:n]
		r.off = 0
	}
}
