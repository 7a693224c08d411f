package binary

import (
	"errors"
	"testing"
)

// encodeCompressed produces the 1/2/4-byte ECMA encoding for round-trip
// tests. It mirrors the decoder's rules rather than sharing code with it.
func encodeCompressed(v uint32) []byte {
	switch {
	case v <= 0x7F:
		return []byte{byte(v)}
	case v <= 0x3FFF:
		return []byte{0x80 | byte(v>>8), byte(v)}
	default:
		return []byte{0xC0 | byte(v>>24), byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0x100, 0x3FFF, 0x4000, 0x123456, 0x1FFFFFFF}
	for _, v := range values {
		r := NewReader(encodeCompressed(v))
		got, err := r.ReadCompressed()
		if err != nil {
			t.Fatalf("decode %#x: %v", v, err)
		}
		if got != v {
			t.Errorf("decode %#x: got %#x", v, got)
		}
		if r.Remaining() != 0 {
			t.Errorf("decode %#x: %d bytes unconsumed", v, r.Remaining())
		}
	}
}

func TestCompressedEncodings(t *testing.T) {
	tests := []struct {
		encoded []byte
		value   uint32
	}{
		{[]byte{0x03}, 3},
		{[]byte{0x7F}, 0x7F},
		{[]byte{0x80, 0x80}, 0x80},
		{[]byte{0xAE, 0x57}, 0x2E57},
		{[]byte{0xBF, 0xFF}, 0x3FFF},
		{[]byte{0xC0, 0x00, 0x40, 0x00}, 0x4000},
		{[]byte{0xDF, 0xFF, 0xFF, 0xFF}, 0x1FFFFFFF},
	}
	for _, tt := range tests {
		got, err := NewReader(tt.encoded).ReadCompressed()
		if err != nil {
			t.Fatalf("decode % x: %v", tt.encoded, err)
		}
		if got != tt.value {
			t.Errorf("decode % x: got %#x, want %#x", tt.encoded, got, tt.value)
		}
	}
}

func TestCompressedInvalidLeadingBits(t *testing.T) {
	_, err := NewReader([]byte{0xE0, 0x00, 0x00, 0x00}).ReadCompressed()
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestCompressedTruncated(t *testing.T) {
	for _, data := range [][]byte{{}, {0x80}, {0xC0, 0x01}, {0xC0, 0x01, 0x02}} {
		_, err := NewReader(data).ReadCompressed()
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("decode % x: expected ErrOutOfBounds, got %v", data, err)
		}
	}
}

func TestSerString(t *testing.T) {
	data := []byte{5, 'h', 'e', 'l', 'l', 'o'}
	s, isNull, err := NewReader(data).ReadSerString()
	if err != nil {
		t.Fatalf("ReadSerString: %v", err)
	}
	if isNull || s != "hello" {
		t.Errorf("got %q (null=%v)", s, isNull)
	}
}

func TestSerStringNullDistinctFromEmpty(t *testing.T) {
	s, isNull, err := NewReader([]byte{0xFF}).ReadSerString()
	if err != nil {
		t.Fatalf("null: %v", err)
	}
	if !isNull || s != "" {
		t.Errorf("null sentinel: got %q (null=%v)", s, isNull)
	}

	s, isNull, err = NewReader([]byte{0x00}).ReadSerString()
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if isNull || s != "" {
		t.Errorf("empty string: got %q (null=%v)", s, isNull)
	}
}

func TestSerStringTruncated(t *testing.T) {
	_, _, err := NewReader([]byte{10, 'a', 'b'}).ReadSerString()
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestSerStringInvalidUTF8(t *testing.T) {
	_, _, err := NewReader([]byte{2, 0xFF, 0xFE}).ReadSerString()
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestFixedReads(t *testing.T) {
	r := NewReader([]byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0xEF, 0xCD, 0xAB, 0x89, 0x67, 0x45, 0x23, 0x01})
	if v, err := r.ReadU16(); err != nil || v != 0x1234 {
		t.Errorf("ReadU16: got %#x, err %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0x12345678 {
		t.Errorf("ReadU32: got %#x, err %v", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != 0x0123456789ABCDEF {
		t.Errorf("ReadU64: got %#x, err %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("expected full consumption, %d remaining", r.Remaining())
	}
}

func TestReadIndexWidths(t *testing.T) {
	r := NewReader([]byte{0x01, 0x00, 0x02, 0x00, 0x00, 0x00})
	if v, err := r.ReadIndex(2); err != nil || v != 1 {
		t.Errorf("ReadIndex(2): got %d, err %v", v, err)
	}
	if v, err := r.ReadIndex(4); err != nil || v != 2 {
		t.Errorf("ReadIndex(4): got %d, err %v", v, err)
	}
	if _, err := r.ReadIndex(3); err == nil {
		t.Error("expected error for unsupported width")
	}
}

func TestSeekSkipBounds(t *testing.T) {
	r := NewReader(make([]byte, 8))
	if err := r.Seek(8); err != nil {
		t.Errorf("Seek to end: %v", err)
	}
	if err := r.Seek(9); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Seek past end: got %v", err)
	}
	if err := r.Seek(0); err != nil {
		t.Fatalf("Seek(0): %v", err)
	}
	if err := r.Skip(9); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Skip past end: got %v", err)
	}
	if err := r.Skip(-1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("negative Skip: got %v", err)
	}
}
