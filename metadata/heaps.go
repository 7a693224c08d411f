package metadata

import (
	stderrors "errors"

	"github.com/provtools/asmmeta/errors"
	"github.com/provtools/asmmeta/internal/binary"
)

// StringHeap is the #Strings heap: null-terminated UTF-8 strings addressed
// by byte offset.
type StringHeap struct {
	data []byte
}

// NewStringHeap wraps a #Strings stream.
func NewStringHeap(data []byte) StringHeap {
	return StringHeap{data: data}
}

// Get returns the string starting at offset.
func (h StringHeap) Get(offset uint32) (string, error) {
	if int64(offset) >= int64(len(h.data)) {
		return "", errors.OutOfBounds(errors.PhaseHeaps, int64(offset), 1, 0)
	}
	b := h.data[offset:]
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), nil
		}
	}
	return "", errors.MalformedEncoding(errors.PhaseHeaps, "unterminated string at offset 0x%x", offset)
}

// BlobHeap is the #Blob heap: length-prefixed byte runs addressed by offset.
type BlobHeap struct {
	data []byte
}

// NewBlobHeap wraps a #Blob stream.
func NewBlobHeap(data []byte) BlobHeap {
	return BlobHeap{data: data}
}

// Get returns the blob starting at offset. The compressed length prefix is
// stripped; the returned slice aliases the heap.
func (h BlobHeap) Get(offset uint32) ([]byte, error) {
	r := binary.NewReader(h.data)
	if err := r.Seek(int(offset)); err != nil {
		return nil, heapErr(err, int64(offset))
	}
	length, err := r.ReadCompressed()
	if err != nil {
		return nil, heapErr(err, int64(offset))
	}
	b, err := r.ReadBytes(int(length))
	if err != nil {
		return nil, heapErr(err, int64(offset))
	}
	return b, nil
}

// heapErr maps reader errors onto the structured taxonomy without losing
// the original cause.
func heapErr(err error, offset int64) error {
	kind := errors.KindMalformedEncoding
	if stderrors.Is(err, binary.ErrOutOfBounds) {
		kind = errors.KindOutOfBounds
	}
	return errors.New(errors.PhaseHeaps, kind).Offset(offset).Cause(err).Build()
}
