package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Decoding errors returned by Reader.
var (
	ErrOutOfBounds     = errors.New("read past end of region")
	ErrInvalidEncoding = errors.New("invalid compressed-integer encoding")
	ErrInvalidUTF8     = errors.New("invalid UTF-8 in string")
)

// Reader walks an immutable byte region with a read cursor and
// bounds-checked, ECMA-335 specific read methods. It never reads outside
// the region it was created over.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over the given region.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Seek moves the cursor to an absolute position within the region.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return r.wrapError(ErrOutOfBounds)
	}
	r.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return r.wrapError(ErrOutOfBounds)
	}
	r.pos += n
	return nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.wrapError(ErrOutOfBounds)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the region.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, r.wrapError(ErrOutOfBounds)
	}
	buf := r.data[r.pos : r.pos+n]
	r.pos += n
	return buf, nil
}

// ReadU16 reads a little-endian uint16 (fixed 2 bytes).
func (r *Reader) ReadU16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadU32 reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadU64 reads a little-endian uint64 (fixed 8 bytes).
func (r *Reader) ReadU64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadIndex reads an unsigned index of the given byte width (2 or 4).
func (r *Reader) ReadIndex(width int) (uint32, error) {
	switch width {
	case 2:
		v, err := r.ReadU16()
		return uint32(v), err
	case 4:
		return r.ReadU32()
	default:
		return 0, fmt.Errorf("unsupported index width %d", width)
	}
}

// ReadCompressed reads an ECMA-335 compressed unsigned integer. The high
// bits of the first byte select the encoding: 0xxxxxxx is one byte,
// 10xxxxxx two bytes big-endian, 110xxxxx four bytes big-endian. A leading
// 111 bit pattern is invalid.
func (r *Reader) ReadCompressed() (uint32, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b0&0x80 == 0:
		return uint32(b0 & 0x7F), nil
	case b0&0xC0 == 0x80:
		b1, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x3F)<<8 | uint32(b1), nil
	case b0&0xE0 == 0xC0:
		rest, err := r.ReadBytes(3)
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x1F)<<24 | uint32(rest[0])<<16 | uint32(rest[1])<<8 | uint32(rest[2]), nil
	default:
		return 0, r.wrapError(ErrInvalidEncoding)
	}
}

// nullSentinel is the reserved length prefix denoting a null serialized
// string, distinct from a zero-length one.
const nullSentinel = 0xFF

// ReadSerString reads a serialized string: a compressed length prefix
// followed by that many UTF-8 bytes. The single byte 0xFF denotes a null
// string, reported through the second return value.
func (r *Reader) ReadSerString() (s string, isNull bool, err error) {
	if r.pos < len(r.data) && r.data[r.pos] == nullSentinel {
		r.pos++
		return "", true, nil
	}
	length, err := r.ReadCompressed()
	if err != nil {
		return "", false, err
	}
	buf, err := r.ReadBytes(int(length))
	if err != nil {
		return "", false, err
	}
	if !utf8.Valid(buf) {
		return "", false, r.wrapError(ErrInvalidUTF8)
	}
	return string(buf), false, nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}
