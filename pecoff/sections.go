package pecoff

import (
	"github.com/provtools/asmmeta/errors"
	"github.com/provtools/asmmeta/internal/binary"
)

// section is one PE section header, reduced to the fields needed for
// RVA resolution.
type section struct {
	name           string
	virtualAddress uint32
	rawSize        uint32
	rawOffset      uint32
}

type sectionTable []section

// readSections parses the section table starting at tableStart.
func readSections(r *binary.Reader, tableStart, count int) (sectionTable, error) {
	if err := r.Seek(tableStart); err != nil {
		return nil, errors.InvalidContainer("section table out of range")
	}
	sections := make(sectionTable, 0, count)
	for i := 0; i < count; i++ {
		nameBytes, err := r.ReadBytes(8)
		if err != nil {
			return nil, errors.InvalidContainer("truncated section table")
		}
		if err := r.Skip(4); err != nil { // virtual size
			return nil, errors.InvalidContainer("truncated section table")
		}
		va, err := r.ReadU32()
		if err != nil {
			return nil, errors.InvalidContainer("truncated section table")
		}
		rawSize, err := r.ReadU32()
		if err != nil {
			return nil, errors.InvalidContainer("truncated section table")
		}
		rawOffset, err := r.ReadU32()
		if err != nil {
			return nil, errors.InvalidContainer("truncated section table")
		}
		if err := r.Skip(16); err != nil { // relocations, line numbers, characteristics
			return nil, errors.InvalidContainer("truncated section table")
		}
		sections = append(sections, section{
			name:           cString(nameBytes),
			virtualAddress: va,
			rawSize:        rawSize,
			rawOffset:      rawOffset,
		})
	}
	return sections, nil
}

// resolve maps a relative virtual address to a file offset through the
// section that contains it in raw data.
func (t sectionTable) resolve(rva uint32) (uint32, bool) {
	for _, s := range t {
		if rva >= s.virtualAddress && rva-s.virtualAddress < s.rawSize {
			return s.rawOffset + (rva - s.virtualAddress), true
		}
	}
	return 0, false
}

// MachineName returns a human-readable name for a COFF machine value.
// Unknown values are formatted as-is by the caller.
func MachineName(machine uint16) string {
	switch machine {
	case 0x14C:
		return "x86"
	case 0x8664:
		return "x64"
	case 0x1C0:
		return "arm"
	case 0xAA64:
		return "arm64"
	case 0:
		return "any"
	default:
		return ""
	}
}
