package metadata

import (
	"github.com/provtools/asmmeta/errors"
	"github.com/provtools/asmmeta/internal/binary"
)

// TypeRefRow is one row of the TypeRef table. Name and Namespace are
// #Strings heap offsets.
type TypeRefRow struct {
	ResolutionScope uint32
	Name            uint32
	Namespace       uint32
}

// MemberRefRow is one row of the MemberRef table. Class is a MemberRefParent
// coded index; Name and Signature address the string and blob heaps.
type MemberRefRow struct {
	Class     uint32
	Name      uint32
	Signature uint32
}

// CustomAttributeRow is one row of the CustomAttribute table. Parent and
// Type are HasCustomAttribute and CustomAttributeType coded indices; Value
// addresses the blob heap.
type CustomAttributeRow struct {
	Parent uint32
	Type   uint32
	Value  uint32
}

// TableStream holds the materialized rows needed for provenance extraction
// and the row counts of every present table. Rows are stored in arrays and
// referenced by index; the stream is immutable once parsed.
type TableStream struct {
	HeapSizes byte
	RowCounts [tableCount]uint32

	TypeRefs         []TypeRefRow
	MemberRefs       []MemberRefRow
	CustomAttributes []CustomAttributeRow
}

// ParseTableStream decodes a #~ stream. Exactly the TypeRef, MemberRef and
// CustomAttribute tables are materialized; every other present table is
// skipped by its computed byte width. Row counts that place any table past
// the end of the stream fail as MalformedTableStream, since no offset past
// the inconsistency can be trusted.
func ParseTableStream(data []byte) (*TableStream, error) {
	r := binary.NewReader(data)

	if err := r.Skip(6); err != nil { // reserved, major, minor
		return nil, errors.MalformedTableStream("truncated header")
	}
	heapSizes, err := r.ReadByte()
	if err != nil {
		return nil, errors.MalformedTableStream("truncated header")
	}
	if err := r.Skip(1); err != nil { // reserved
		return nil, errors.MalformedTableStream("truncated header")
	}
	valid, err := r.ReadU64()
	if err != nil {
		return nil, errors.MalformedTableStream("truncated header")
	}
	if _, err := r.ReadU64(); err != nil { // sorted bitmap, not needed
		return nil, errors.MalformedTableStream("truncated header")
	}

	ts := &TableStream{HeapSizes: heapSizes}
	lay := layout{heapSizes: heapSizes}

	// One row count per set bit, in table-number order. Bits beyond the
	// defined tables make later offsets uncomputable.
	for t := 0; t < 64; t++ {
		if valid&(1<<t) == 0 {
			continue
		}
		if t >= tableCount || tableColumns[t] == nil {
			return nil, errors.MalformedTableStream("unknown table 0x%02x present", t)
		}
		count, err := r.ReadU32()
		if err != nil {
			return nil, errors.MalformedTableStream("truncated row counts")
		}
		lay.rowCounts[t] = count
	}
	ts.RowCounts = lay.rowCounts

	// Single left-to-right pass: each table's offset is the cumulative byte
	// size of every preceding present table.
	pos := r.Position()
	for t := 0; t < tableCount; t++ {
		count := lay.rowCounts[t]
		if count == 0 {
			continue
		}
		width := lay.rowWidth(t)
		end := int64(pos) + int64(width)*int64(count)
		if end > int64(len(data)) {
			return nil, errors.MalformedTableStream(
				"table 0x%02x (%d rows of %d bytes) exceeds stream size %d", t, count, width, len(data))
		}
		switch t {
		case TableTypeRef:
			ts.TypeRefs, err = readTypeRefs(r, &lay, count)
		case TableMemberRef:
			ts.MemberRefs, err = readMemberRefs(r, &lay, count)
		case TableCustomAttribute:
			ts.CustomAttributes, err = readCustomAttributes(r, &lay, count)
		default:
			err = r.Seek(int(end))
		}
		if err != nil {
			return nil, errors.MalformedTableStream("table 0x%02x: %v", t, err)
		}
		pos = int(end)
	}
	return ts, nil
}

func readTypeRefs(r *binary.Reader, lay *layout, count uint32) ([]TypeRefRow, error) {
	scopeW := lay.codedWidth(codedResolutionScope)
	strW := lay.heapWidth(heapFlagString)
	rows := make([]TypeRefRow, count)
	for i := range rows {
		var row TypeRefRow
		var err error
		if row.ResolutionScope, err = r.ReadIndex(scopeW); err != nil {
			return nil, err
		}
		if row.Name, err = r.ReadIndex(strW); err != nil {
			return nil, err
		}
		if row.Namespace, err = r.ReadIndex(strW); err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

func readMemberRefs(r *binary.Reader, lay *layout, count uint32) ([]MemberRefRow, error) {
	classW := lay.codedWidth(codedMemberRefParent)
	strW := lay.heapWidth(heapFlagString)
	blobW := lay.heapWidth(heapFlagBlob)
	rows := make([]MemberRefRow, count)
	for i := range rows {
		var row MemberRefRow
		var err error
		if row.Class, err = r.ReadIndex(classW); err != nil {
			return nil, err
		}
		if row.Name, err = r.ReadIndex(strW); err != nil {
			return nil, err
		}
		if row.Signature, err = r.ReadIndex(blobW); err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

func readCustomAttributes(r *binary.Reader, lay *layout, count uint32) ([]CustomAttributeRow, error) {
	parentW := lay.codedWidth(codedHasCustomAttribute)
	typeW := lay.codedWidth(codedCustomAttributeType)
	blobW := lay.heapWidth(heapFlagBlob)
	rows := make([]CustomAttributeRow, count)
	for i := range rows {
		var row CustomAttributeRow
		var err error
		if row.Parent, err = r.ReadIndex(parentW); err != nil {
			return nil, err
		}
		if row.Type, err = r.ReadIndex(typeW); err != nil {
			return nil, err
		}
		if row.Value, err = r.ReadIndex(blobW); err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}
