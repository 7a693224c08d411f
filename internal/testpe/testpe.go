// Package testpe builds minimal managed PE images for tests. The images are
// structurally valid ECMA-335 assemblies: a PE32 shell with one section
// holding a CLI header, a BSJB metadata root and a compressed table stream
// carrying the Module, TypeRef, MemberRef, CustomAttribute and Assembly
// tables.
package testpe

import (
	"bytes"
	"encoding/binary"
)

// Pair is one AssemblyMetadata(key, value) attribute to embed.
type Pair struct {
	Key       string
	Value     string
	NullValue bool // encode the value argument as the null sentinel
}

// Options selects the assembly-level attributes the built image carries.
type Options struct {
	Pairs       []Pair
	InfoVersion string // AssemblyInformationalVersion argument, "" = attribute absent
}

// Metadata stream layout constants used by the builder.
const (
	sectionRVA    = 0x2000
	sectionOffset = 0x200
	corHeaderSize = 72
)

// Build returns a complete managed PE image carrying the given attributes.
func Build(opts Options) []byte {
	md := buildMetadata(opts)
	return wrapPE(md)
}

// BuildMetadata returns just the metadata root bytes, for tests that drive
// the stream readers directly.
func BuildMetadata(opts Options) []byte {
	return buildMetadata(opts)
}

type stringHeap struct {
	buf     []byte
	offsets map[string]uint32
}

func newStringHeap() *stringHeap {
	return &stringHeap{buf: []byte{0}, offsets: map[string]uint32{"": 0}}
}

func (h *stringHeap) add(s string) uint32 {
	if off, ok := h.offsets[s]; ok {
		return off
	}
	off := uint32(len(h.buf))
	h.buf = append(h.buf, s...)
	h.buf = append(h.buf, 0)
	h.offsets[s] = off
	return off
}

type blobHeap struct {
	buf []byte
}

func newBlobHeap() *blobHeap {
	return &blobHeap{buf: []byte{0}}
}

func (h *blobHeap) add(b []byte) uint32 {
	off := uint32(len(h.buf))
	h.buf = append(h.buf, byte(len(b))) // all test blobs are < 0x80 bytes
	h.buf = append(h.buf, b...)
	return off
}

func serString(buf *bytes.Buffer, s string, isNull bool) {
	if isNull {
		buf.WriteByte(0xFF)
		return
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
}

// attributeValue encodes a custom-attribute value blob: the 0x0001 prolog,
// the fixed string arguments, and a zero named-argument count.
func attributeValue(args []string, nulls []bool) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x01, 0x00})
	for i, a := range args {
		serString(&buf, a, nulls[i])
	}
	buf.Write([]byte{0x00, 0x00})
	return buf.Bytes()
}

func buildMetadata(opts Options) []byte {
	strs := newStringHeap()
	blobs := newBlobHeap()

	nsReflection := strs.add("System.Reflection")
	nameMetadata := strs.add("AssemblyMetadataAttribute")
	nameInfoVer := strs.add("AssemblyInformationalVersionAttribute")
	nameCtor := strs.add(".ctor")
	nameModule := strs.add("test.dll")
	nameAssembly := strs.add("TestAssembly")

	// Constructor signatures are opaque to the reader; any blob will do.
	sigPair := blobs.add([]byte{0x20, 0x02, 0x01, 0x0E, 0x0E})
	sigInfoVer := blobs.add([]byte{0x20, 0x01, 0x01, 0x0E})

	// TypeRef rows 1 and 2, MemberRef rows 1 and 2.
	type typeRefRow struct{ scope, name, namespace uint32 }
	typeRefs := []typeRefRow{
		{0, nameMetadata, nsReflection},
		{0, nameInfoVer, nsReflection},
	}
	type memberRefRow struct{ class, name, sig uint32 }
	memberRefs := []memberRefRow{
		{1<<3 | 1, nameCtor, sigPair},    // MemberRefParent: TypeRef row 1
		{2<<3 | 1, nameCtor, sigInfoVer}, // MemberRefParent: TypeRef row 2
	}

	type customAttributeRow struct{ parent, ctor, value uint32 }
	var attrs []customAttributeRow
	assemblyParent := uint32(1<<5 | 14) // HasCustomAttribute: Assembly row 1
	for _, p := range opts.Pairs {
		value := blobs.add(attributeValue([]string{p.Key, p.Value}, []bool{false, p.NullValue}))
		attrs = append(attrs, customAttributeRow{assemblyParent, 1<<3 | 3, value})
	}
	if opts.InfoVersion != "" {
		value := blobs.add(attributeValue([]string{opts.InfoVersion}, []bool{false}))
		attrs = append(attrs, customAttributeRow{assemblyParent, 2<<3 | 3, value})
	}

	// Table stream. All heap and coded indexes fit in 2 bytes here.
	var ts bytes.Buffer
	put32(&ts, 0)       // reserved
	ts.WriteByte(2)     // major version
	ts.WriteByte(0)     // minor version
	ts.WriteByte(0)     // HeapSizes: all 2-byte indexes
	ts.WriteByte(1)     // reserved
	valid := uint64(1)<<0x00 | 1<<0x01 | 1<<0x0A | 1<<0x0C | 1<<0x20
	put64(&ts, valid)
	put64(&ts, 0) // sorted
	put32(&ts, 1) // Module rows
	put32(&ts, uint32(len(typeRefs)))
	put32(&ts, uint32(len(memberRefs)))
	put32(&ts, uint32(len(attrs)))
	put32(&ts, 1) // Assembly rows

	// Module: Generation, Name, Mvid, EncId, EncBaseId
	put16(&ts, 0)
	put16(&ts, uint16(nameModule))
	put16(&ts, 1)
	put16(&ts, 0)
	put16(&ts, 0)
	for _, r := range typeRefs {
		put16(&ts, uint16(r.scope))
		put16(&ts, uint16(r.name))
		put16(&ts, uint16(r.namespace))
	}
	for _, r := range memberRefs {
		put16(&ts, uint16(r.class))
		put16(&ts, uint16(r.name))
		put16(&ts, uint16(r.sig))
	}
	for _, r := range attrs {
		put16(&ts, uint16(r.parent))
		put16(&ts, uint16(r.ctor))
		put16(&ts, uint16(r.value))
	}
	// Assembly: HashAlgId, version x4, Flags, PublicKey, Name, Culture
	put32(&ts, 0x8004)
	put16(&ts, 1)
	put16(&ts, 0)
	put16(&ts, 0)
	put16(&ts, 0)
	put32(&ts, 0)
	put16(&ts, 0)
	put16(&ts, uint16(nameAssembly))
	put16(&ts, 0)

	guids := make([]byte, 16)

	return assembleRoot(ts.Bytes(), strs.buf, guids, blobs.buf)
}

// assembleRoot lays out the metadata root: BSJB header, version string,
// stream directory, then the stream bodies.
func assembleRoot(tables, strings, guids, blobs []byte) []byte {
	version := []byte("v4.0.30319\x00\x00") // padded to 4-byte alignment

	type stream struct {
		name string // already padded to 4 bytes
		data []byte
	}
	streams := []stream{
		{"#~\x00\x00", align4(tables)},
		{"#Strings\x00\x00\x00\x00", align4(strings)},
		{"#GUID\x00\x00\x00", guids},
		{"#Blob\x00\x00\x00", align4(blobs)},
	}

	headerSize := 16 + len(version) + 4
	for _, s := range streams {
		headerSize += 8 + len(s.name)
	}

	var buf bytes.Buffer
	put32(&buf, 0x424A5342) // BSJB
	put16(&buf, 1)
	put16(&buf, 1)
	put32(&buf, 0)
	put32(&buf, uint32(len(version)))
	buf.Write(version)
	put16(&buf, 0) // flags
	put16(&buf, uint16(len(streams)))

	offset := uint32(headerSize)
	for _, s := range streams {
		put32(&buf, offset)
		put32(&buf, uint32(len(s.data)))
		buf.WriteString(s.name)
		offset += uint32(len(s.data))
	}
	for _, s := range streams {
		buf.Write(s.data)
	}
	return buf.Bytes()
}

// wrapPE wraps metadata in a one-section PE32 image with a CLI header.
func wrapPE(md []byte) []byte {
	image := make([]byte, sectionOffset+corHeaderSize+len(md))

	// DOS header
	image[0] = 'M'
	image[1] = 'Z'
	binary.LittleEndian.PutUint32(image[0x3C:], 0x80) // e_lfanew

	// PE signature + COFF header
	copy(image[0x80:], []byte{'P', 'E', 0, 0})
	binary.LittleEndian.PutUint16(image[0x84:], 0x8664) // machine: x64
	binary.LittleEndian.PutUint16(image[0x86:], 1)      // one section
	binary.LittleEndian.PutUint16(image[0x94:], 224)    // optional header size (PE32)

	// Optional header at 0x98
	optStart := 0x98
	binary.LittleEndian.PutUint16(image[optStart:], 0x10B)      // PE32
	binary.LittleEndian.PutUint32(image[optStart+92:], 16)      // directory count
	dirBase := optStart + 96
	clrEntry := dirBase + 14*8
	binary.LittleEndian.PutUint32(image[clrEntry:], sectionRVA) // CLI header RVA
	binary.LittleEndian.PutUint32(image[clrEntry+4:], corHeaderSize)

	// Section header at optStart+224
	sec := optStart + 224
	copy(image[sec:], ".text\x00\x00\x00")
	size := uint32(corHeaderSize + len(md))
	binary.LittleEndian.PutUint32(image[sec+8:], size)          // virtual size
	binary.LittleEndian.PutUint32(image[sec+12:], sectionRVA)   // virtual address
	binary.LittleEndian.PutUint32(image[sec+16:], size)         // raw size
	binary.LittleEndian.PutUint32(image[sec+20:], sectionOffset)

	// CLI (COR20) header
	cor := sectionOffset
	binary.LittleEndian.PutUint32(image[cor:], corHeaderSize)
	binary.LittleEndian.PutUint16(image[cor+4:], 2) // runtime major
	binary.LittleEndian.PutUint16(image[cor+6:], 5) // runtime minor
	binary.LittleEndian.PutUint32(image[cor+8:], sectionRVA+corHeaderSize) // metadata RVA
	binary.LittleEndian.PutUint32(image[cor+12:], uint32(len(md)))
	binary.LittleEndian.PutUint32(image[cor+16:], 1) // flags: IL only

	copy(image[sectionOffset+corHeaderSize:], md)
	return image
}

func align4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func put16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func put32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func put64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}
