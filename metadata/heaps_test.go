package metadata

import (
	"testing"

	"github.com/provtools/asmmeta/errors"
)

func TestStringHeapGet(t *testing.T) {
	h := NewStringHeap([]byte("\x00hello\x00world\x00"))
	tests := []struct {
		offset uint32
		want   string
	}{
		{0, ""},
		{1, "hello"},
		{7, "world"},
		{9, "rld"}, // mid-string offsets are legal
	}
	for _, tt := range tests {
		got, err := h.Get(tt.offset)
		if err != nil {
			t.Fatalf("Get(%d): %v", tt.offset, err)
		}
		if got != tt.want {
			t.Errorf("Get(%d): got %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestStringHeapOutOfBounds(t *testing.T) {
	h := NewStringHeap([]byte{0})
	if _, err := h.Get(5); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("expected OutOfBounds, got %v", err)
	}
	empty := NewStringHeap(nil)
	if _, err := empty.Get(0); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("empty heap: expected OutOfBounds, got %v", err)
	}
}

func TestStringHeapUnterminated(t *testing.T) {
	h := NewStringHeap([]byte("abc"))
	if _, err := h.Get(0); !errors.IsKind(err, errors.KindMalformedEncoding) {
		t.Errorf("expected MalformedEncoding, got %v", err)
	}
}

func TestBlobHeapGet(t *testing.T) {
	h := NewBlobHeap([]byte{0x00, 0x03, 0xAA, 0xBB, 0xCC})
	b, err := h.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(b) != 3 || b[0] != 0xAA || b[2] != 0xCC {
		t.Errorf("got % x", b)
	}

	b, err = h.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if len(b) != 0 {
		t.Errorf("empty blob: got % x", b)
	}
}

func TestBlobHeapLengthOverrun(t *testing.T) {
	h := NewBlobHeap([]byte{0x00, 0x10, 0xAA})
	if _, err := h.Get(1); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("expected OutOfBounds, got %v", err)
	}
}

func TestBlobHeapOffsetPastEnd(t *testing.T) {
	h := NewBlobHeap([]byte{0x00})
	if _, err := h.Get(9); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("expected OutOfBounds, got %v", err)
	}
}
