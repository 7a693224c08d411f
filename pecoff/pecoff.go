package pecoff

import (
	"github.com/provtools/asmmeta/errors"
	"github.com/provtools/asmmeta/internal/binary"
)

// PE image signatures and layout constants.
const (
	// dosMagic is the "MZ" signature at offset 0.
	dosMagic uint16 = 0x5A4D

	// peMagic is the "PE\0\0" signature at e_lfanew.
	peMagic uint32 = 0x00004550

	// metadataMagic is the "BSJB" signature of the metadata root.
	metadataMagic uint32 = 0x424A5342

	optMagicPE32     uint16 = 0x10B
	optMagicPE32Plus uint16 = 0x20B

	// lfanewOffset is where the DOS header records the PE header position.
	lfanewOffset = 0x3C

	// clrDirectoryIndex is the data-directory slot holding the CLI header.
	clrDirectoryIndex = 14

	dataDirectorySize = 8
)

// StreamDescriptor identifies one metadata stream within the metadata root.
type StreamDescriptor struct {
	Name   string
	Offset uint32 // relative to the metadata root
	Size   uint32
}

// Image is the located and validated metadata region of a managed PE file.
// It retains only the metadata root bytes; the rest of the image is not
// needed once the streams are located.
type Image struct {
	Machine         uint16
	PE32Plus        bool
	MetadataVersion string
	Streams         []StreamDescriptor

	metadata []byte
}

// Stream returns the bytes of the named metadata stream.
func (img *Image) Stream(name string) ([]byte, bool) {
	for _, s := range img.Streams {
		if s.Name == name {
			return img.metadata[s.Offset : s.Offset+s.Size], true
		}
	}
	return nil, false
}

// Locate validates the PE container in data, follows the CLI header to the
// metadata root and reads its stream directory. It fails with
// KindInvalidContainer when data is not a structurally consistent PE image
// and with KindNotManaged when the image carries no CLI metadata.
func Locate(data []byte) (*Image, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU16()
	if err != nil || magic != dosMagic {
		return nil, errors.InvalidContainer("missing MZ signature")
	}
	if err := r.Seek(lfanewOffset); err != nil {
		return nil, errors.InvalidContainer("truncated DOS header")
	}
	lfanew, err := r.ReadU32()
	if err != nil {
		return nil, errors.InvalidContainer("truncated DOS header")
	}
	if err := r.Seek(int(lfanew)); err != nil {
		return nil, errors.InvalidContainer("PE header offset 0x%x out of range", lfanew)
	}
	sig, err := r.ReadU32()
	if err != nil || sig != peMagic {
		return nil, errors.InvalidContainer("missing PE signature")
	}

	img := &Image{}

	// COFF file header
	img.Machine, err = r.ReadU16()
	if err != nil {
		return nil, errors.InvalidContainer("truncated COFF header")
	}
	sectionCount, err := r.ReadU16()
	if err != nil {
		return nil, errors.InvalidContainer("truncated COFF header")
	}
	if err := r.Skip(12); err != nil { // timestamp, symbol table pointer, symbol count
		return nil, errors.InvalidContainer("truncated COFF header")
	}
	optSize, err := r.ReadU16()
	if err != nil {
		return nil, errors.InvalidContainer("truncated COFF header")
	}
	if err := r.Skip(2); err != nil { // characteristics
		return nil, errors.InvalidContainer("truncated COFF header")
	}

	optStart := r.Position()
	optMagic, err := r.ReadU16()
	if err != nil {
		return nil, errors.InvalidContainer("truncated optional header")
	}
	var dirBase int
	switch optMagic {
	case optMagicPE32:
		dirBase = optStart + 96
	case optMagicPE32Plus:
		img.PE32Plus = true
		dirBase = optStart + 112
	default:
		return nil, errors.InvalidContainer("unknown optional header magic 0x%x", optMagic)
	}

	clrEntry := dirBase + clrDirectoryIndex*dataDirectorySize
	if clrEntry+dataDirectorySize > optStart+int(optSize) {
		return nil, errors.NotManaged("no CLI data directory")
	}
	if err := r.Seek(clrEntry); err != nil {
		return nil, errors.InvalidContainer("data directories out of range")
	}
	clrRVA, err := r.ReadU32()
	if err != nil {
		return nil, errors.InvalidContainer("truncated data directories")
	}
	clrSize, err := r.ReadU32()
	if err != nil {
		return nil, errors.InvalidContainer("truncated data directories")
	}
	if clrRVA == 0 || clrSize == 0 {
		return nil, errors.NotManaged("empty CLI data directory")
	}

	sections, err := readSections(r, optStart+int(optSize), int(sectionCount))
	if err != nil {
		return nil, err
	}

	mdRVA, mdSize, err := readCLIHeader(data, sections, clrRVA)
	if err != nil {
		return nil, err
	}

	mdOffset, ok := sections.resolve(mdRVA)
	if !ok {
		return nil, errors.InvalidContainer("metadata RVA 0x%x maps to no section", mdRVA)
	}
	if int64(mdOffset)+int64(mdSize) > int64(len(data)) {
		return nil, errors.InvalidContainer("metadata region exceeds file size")
	}
	img.metadata = data[mdOffset : mdOffset+mdSize]

	if err := readMetadataRoot(img); err != nil {
		return nil, err
	}
	return img, nil
}

// readCLIHeader reads the COR20 header and returns the metadata root
// directory entry.
func readCLIHeader(data []byte, sections sectionTable, rva uint32) (mdRVA, mdSize uint32, err error) {
	off, ok := sections.resolve(rva)
	if !ok {
		return 0, 0, errors.InvalidContainer("CLI header RVA 0x%x maps to no section", rva)
	}
	r := binary.NewReader(data)
	if err := r.Seek(int(off)); err != nil {
		return 0, 0, errors.InvalidContainer("CLI header out of range")
	}
	cb, err := r.ReadU32()
	if err != nil || cb < 72 {
		return 0, 0, errors.InvalidContainer("CLI header too small")
	}
	if err := r.Skip(4); err != nil { // runtime major/minor version
		return 0, 0, errors.InvalidContainer("truncated CLI header")
	}
	mdRVA, err = r.ReadU32()
	if err != nil {
		return 0, 0, errors.InvalidContainer("truncated CLI header")
	}
	mdSize, err = r.ReadU32()
	if err != nil {
		return 0, 0, errors.InvalidContainer("truncated CLI header")
	}
	if mdRVA == 0 || mdSize == 0 {
		return 0, 0, errors.NotManaged("CLI header has no metadata directory")
	}
	return mdRVA, mdSize, nil
}

// readMetadataRoot validates the BSJB root in img.metadata and fills in the
// version string and stream directory.
func readMetadataRoot(img *Image) error {
	r := binary.NewReader(img.metadata)

	sig, err := r.ReadU32()
	if err != nil || sig != metadataMagic {
		return errors.InvalidContainer("missing metadata root signature")
	}
	if err := r.Skip(8); err != nil { // major, minor, reserved
		return errors.InvalidContainer("truncated metadata root")
	}
	verLen, err := r.ReadU32()
	if err != nil {
		return errors.InvalidContainer("truncated metadata root")
	}
	verBytes, err := r.ReadBytes(int(verLen))
	if err != nil {
		return errors.InvalidContainer("metadata version string exceeds root")
	}
	img.MetadataVersion = cString(verBytes)
	if err := r.Skip(2); err != nil { // flags
		return errors.InvalidContainer("truncated metadata root")
	}
	streamCount, err := r.ReadU16()
	if err != nil {
		return errors.InvalidContainer("truncated metadata root")
	}

	img.Streams = make([]StreamDescriptor, 0, streamCount)
	for i := 0; i < int(streamCount); i++ {
		offset, err := r.ReadU32()
		if err != nil {
			return errors.InvalidContainer("truncated stream directory")
		}
		size, err := r.ReadU32()
		if err != nil {
			return errors.InvalidContainer("truncated stream directory")
		}
		name, err := readStreamName(r)
		if err != nil {
			return err
		}
		if int64(offset)+int64(size) > int64(len(img.metadata)) {
			return errors.InvalidContainer("stream %s exceeds metadata root", name)
		}
		img.Streams = append(img.Streams, StreamDescriptor{Name: name, Offset: offset, Size: size})
	}
	return nil
}

// readStreamName reads a null-terminated stream name padded to 4-byte
// alignment. Names are at most 32 bytes including padding.
func readStreamName(r *binary.Reader) (string, error) {
	var name []byte
	for read := 0; read < 32; {
		chunk, err := r.ReadBytes(4)
		if err != nil {
			return "", errors.InvalidContainer("truncated stream name")
		}
		read += 4
		for i, b := range chunk {
			if b == 0 {
				return string(append(name, chunk[:i]...)), nil
			}
		}
		name = append(name, chunk...)
	}
	return "", errors.InvalidContainer("unterminated stream name")
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
