package provenance

import (
	"go.uber.org/zap"

	"github.com/provtools/asmmeta/internal/binary"
	"github.com/provtools/asmmeta/metadata"
)

// Fully qualified names of the attribute kinds the resolver recognizes.
// Anything else is ignored, not an error: most custom attributes on an
// assembly are irrelevant here.
const (
	attrMetadataPairName = "System.Reflection.AssemblyMetadataAttribute"
	attrInfoVersionName  = "System.Reflection.AssemblyInformationalVersionAttribute"
)

// attributeKind is the closed enumeration of recognized attribute kinds.
type attributeKind int

const (
	attrIgnored attributeKind = iota
	attrMetadataPair
	attrInfoVersion
)

func classifyAttribute(fullName string) attributeKind {
	switch fullName {
	case attrMetadataPairName:
		return attrMetadataPair
	case attrInfoVersionName:
		return attrInfoVersion
	default:
		return attrIgnored
	}
}

// MetadataPair is one decoded AssemblyMetadata(key, value) attribute.
// ValueIsNull distinguishes a null argument from an empty string; the two
// are treated differently by the fallback rules.
type MetadataPair struct {
	Key         string
	Value       string
	ValueIsNull bool
}

// candidates collects everything the resolver extracted from the
// assembly-level custom attributes; the fallback rules consume it.
type candidates struct {
	pairs          []MetadataPair
	infoVersion    string
	hasInfoVersion bool
}

// attributeBlobProlog is the 2-byte prolog every custom-attribute value
// blob starts with.
const attributeBlobProlog = 0x0001

// resolveCandidates walks the CustomAttribute rows whose parent is the
// Assembly-definition row, resolves each constructor to a type name through
// the MemberRef and TypeRef tables, and decodes the fixed string arguments
// of recognized kinds. A malformed row is skipped; it never aborts the walk.
func resolveCandidates(ts *metadata.TableStream, strs metadata.StringHeap, blobs metadata.BlobHeap) candidates {
	var c candidates
	for i, row := range ts.CustomAttributes {
		parentTable, parentRow := metadata.DecodeHasCustomAttribute(row.Parent)
		if parentTable != metadata.TableAssembly || parentRow != 1 {
			continue
		}
		name, ok := constructorTypeName(ts, strs, row.Type)
		if !ok {
			continue
		}
		kind := classifyAttribute(name)
		if kind == attrIgnored {
			continue
		}
		if err := decodeArguments(&c, kind, blobs, row.Value); err != nil {
			Logger().Debug("skipping malformed attribute blob",
				zap.Int("row", i+1),
				zap.String("attribute", name),
				zap.Error(err))
		}
	}
	return c
}

// constructorTypeName resolves a CustomAttributeType coded index to the
// declaring type's namespace-qualified name. Only constructors referencing
// a MemberRef whose class is a TypeRef are resolvable; any other token kind
// reports false.
func constructorTypeName(ts *metadata.TableStream, strs metadata.StringHeap, ctor uint32) (string, bool) {
	table, row := metadata.DecodeCustomAttributeType(ctor)
	if table != metadata.TableMemberRef || row == 0 || int(row) > len(ts.MemberRefs) {
		return "", false
	}
	member := ts.MemberRefs[row-1]

	classTable, classRow := metadata.DecodeMemberRefParent(member.Class)
	if classTable != metadata.TableTypeRef || classRow == 0 || int(classRow) > len(ts.TypeRefs) {
		return "", false
	}
	typeRef := ts.TypeRefs[classRow-1]

	name, err := strs.Get(typeRef.Name)
	if err != nil {
		return "", false
	}
	namespace, err := strs.Get(typeRef.Namespace)
	if err != nil {
		return "", false
	}
	if namespace == "" {
		return name, true
	}
	return namespace + "." + name, true
}

// decodeArguments reads the fixed constructor arguments out of the value
// blob: two serialized strings for a metadata pair, one for the
// informational version.
func decodeArguments(c *candidates, kind attributeKind, blobs metadata.BlobHeap, valueOffset uint32) error {
	blob, err := blobs.Get(valueOffset)
	if err != nil {
		return err
	}
	r := binary.NewReader(blob)
	prolog, err := r.ReadU16()
	if err != nil {
		return err
	}
	if prolog != attributeBlobProlog {
		return binary.ErrInvalidEncoding
	}

	switch kind {
	case attrMetadataPair:
		key, keyNull, err := r.ReadSerString()
		if err != nil {
			return err
		}
		value, valueNull, err := r.ReadSerString()
		if err != nil {
			return err
		}
		if keyNull {
			return nil
		}
		c.pairs = append(c.pairs, MetadataPair{Key: key, Value: value, ValueIsNull: valueNull})
	case attrInfoVersion:
		version, isNull, err := r.ReadSerString()
		if err != nil {
			return err
		}
		if !isNull && !c.hasInfoVersion {
			c.infoVersion = version
			c.hasInfoVersion = true
		}
	}
	return nil
}
