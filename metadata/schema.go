package metadata

// Table numbers defined by ECMA-335 II.22. The table stream lays tables out
// contiguously in this order; a missing number simply contributes no rows.
const (
	TableModule                 = 0x00
	TableTypeRef                = 0x01
	TableTypeDef                = 0x02
	TableFieldPtr               = 0x03
	TableField                  = 0x04
	TableMethodPtr              = 0x05
	TableMethodDef              = 0x06
	TableParamPtr               = 0x07
	TableParam                  = 0x08
	TableInterfaceImpl          = 0x09
	TableMemberRef              = 0x0A
	TableConstant               = 0x0B
	TableCustomAttribute        = 0x0C
	TableFieldMarshal           = 0x0D
	TableDeclSecurity           = 0x0E
	TableClassLayout            = 0x0F
	TableFieldLayout            = 0x10
	TableStandAloneSig          = 0x11
	TableEventMap               = 0x12
	TableEventPtr               = 0x13
	TableEvent                  = 0x14
	TablePropertyMap            = 0x15
	TablePropertyPtr            = 0x16
	TableProperty               = 0x17
	TableMethodSemantics        = 0x18
	TableMethodImpl             = 0x19
	TableModuleRef              = 0x1A
	TableTypeSpec               = 0x1B
	TableImplMap                = 0x1C
	TableFieldRVA               = 0x1D
	TableEncLog                 = 0x1E
	TableEncMap                 = 0x1F
	TableAssembly               = 0x20
	TableAssemblyProcessor      = 0x21
	TableAssemblyOS             = 0x22
	TableAssemblyRef            = 0x23
	TableAssemblyRefProcessor   = 0x24
	TableAssemblyRefOS          = 0x25
	TableFile                   = 0x26
	TableExportedType           = 0x27
	TableManifestResource       = 0x28
	TableNestedClass            = 0x29
	TableGenericParam           = 0x2A
	TableMethodSpec             = 0x2B
	TableGenericParamConstraint = 0x2C

	tableCount = 0x2D
)

// HeapSizes flag bits: when set, the corresponding heap uses 4-byte indices.
const (
	heapFlagString = 1 << 0
	heapFlagGUID   = 1 << 1
	heapFlagBlob   = 1 << 2
)

// colKind identifies how wide one table column is and what it indexes.
type colKind uint8

const (
	colUint16 colKind = iota
	colUint32
	colString // #Strings heap index
	colGUID   // #GUID heap index
	colBlob   // #Blob heap index
	colIndex  // plain index into one table, arg = target table
	colCoded  // coded index, arg = coded set
)

type column struct {
	kind colKind
	arg  uint8
}

// Coded index sets (ECMA-335 II.24.2.6). A coded index packs a tag selecting
// the target table into the low bits and the row index into the rest.
const (
	codedTypeDefOrRef uint8 = iota
	codedHasConstant
	codedHasCustomAttribute
	codedHasFieldMarshal
	codedHasDeclSecurity
	codedMemberRefParent
	codedHasSemantics
	codedMethodDefOrRef
	codedMemberForwarded
	codedImplementation
	codedCustomAttributeType
	codedResolutionScope
	codedTypeOrMethodDef
)

type codedSet struct {
	tagBits uint
	tables  []int16 // -1 marks an unused tag slot
}

var codedSets = [...]codedSet{
	codedTypeDefOrRef:  {2, []int16{TableTypeDef, TableTypeRef, TableTypeSpec}},
	codedHasConstant:   {2, []int16{TableField, TableParam, TableProperty}},
	codedHasCustomAttribute: {5, []int16{
		TableMethodDef, TableField, TableTypeRef, TableTypeDef, TableParam,
		TableInterfaceImpl, TableMemberRef, TableModule, TableDeclSecurity,
		TableProperty, TableEvent, TableStandAloneSig, TableModuleRef,
		TableTypeSpec, TableAssembly, TableAssemblyRef, TableFile,
		TableExportedType, TableManifestResource, TableGenericParam,
		TableGenericParamConstraint, TableMethodSpec,
	}},
	codedHasFieldMarshal:     {1, []int16{TableField, TableParam}},
	codedHasDeclSecurity:     {2, []int16{TableTypeDef, TableMethodDef, TableAssembly}},
	codedMemberRefParent:     {3, []int16{TableTypeDef, TableTypeRef, TableModuleRef, TableMethodDef, TableTypeSpec}},
	codedHasSemantics:        {1, []int16{TableEvent, TableProperty}},
	codedMethodDefOrRef:      {1, []int16{TableMethodDef, TableMemberRef}},
	codedMemberForwarded:     {1, []int16{TableField, TableMethodDef}},
	codedImplementation:      {2, []int16{TableFile, TableAssemblyRef, TableExportedType}},
	codedCustomAttributeType: {3, []int16{-1, -1, TableMethodDef, TableMemberRef, -1}},
	codedResolutionScope:     {2, []int16{TableModule, TableModuleRef, TableAssemblyRef, TableTypeRef}},
	codedTypeOrMethodDef:     {1, []int16{TableTypeDef, TableMethodDef}},
}

// tableColumns describes every defined table's row layout (ECMA-335 II.22).
// The full set is required even though only four tables are materialized:
// a table's byte offset depends on the cumulative size of every table with a
// lower number, and column widths depend on other tables' row counts.
var tableColumns = [tableCount][]column{
	TableModule: {{colUint16, 0}, {colString, 0}, {colGUID, 0}, {colGUID, 0}, {colGUID, 0}},
	TableTypeRef: {
		{colCoded, codedResolutionScope}, {colString, 0}, {colString, 0},
	},
	TableTypeDef: {
		{colUint32, 0}, {colString, 0}, {colString, 0},
		{colCoded, codedTypeDefOrRef}, {colIndex, TableField}, {colIndex, TableMethodDef},
	},
	TableFieldPtr:  {{colIndex, TableField}},
	TableField:     {{colUint16, 0}, {colString, 0}, {colBlob, 0}},
	TableMethodPtr: {{colIndex, TableMethodDef}},
	TableMethodDef: {
		{colUint32, 0}, {colUint16, 0}, {colUint16, 0},
		{colString, 0}, {colBlob, 0}, {colIndex, TableParam},
	},
	TableParamPtr:      {{colIndex, TableParam}},
	TableParam:         {{colUint16, 0}, {colUint16, 0}, {colString, 0}},
	TableInterfaceImpl: {{colIndex, TableTypeDef}, {colCoded, codedTypeDefOrRef}},
	TableMemberRef:     {{colCoded, codedMemberRefParent}, {colString, 0}, {colBlob, 0}},
	TableConstant:      {{colUint16, 0}, {colCoded, codedHasConstant}, {colBlob, 0}},
	TableCustomAttribute: {
		{colCoded, codedHasCustomAttribute}, {colCoded, codedCustomAttributeType}, {colBlob, 0},
	},
	TableFieldMarshal:    {{colCoded, codedHasFieldMarshal}, {colBlob, 0}},
	TableDeclSecurity:    {{colUint16, 0}, {colCoded, codedHasDeclSecurity}, {colBlob, 0}},
	TableClassLayout:     {{colUint16, 0}, {colUint32, 0}, {colIndex, TableTypeDef}},
	TableFieldLayout:     {{colUint32, 0}, {colIndex, TableField}},
	TableStandAloneSig:   {{colBlob, 0}},
	TableEventMap:        {{colIndex, TableTypeDef}, {colIndex, TableEvent}},
	TableEventPtr:        {{colIndex, TableEvent}},
	TableEvent:           {{colUint16, 0}, {colString, 0}, {colCoded, codedTypeDefOrRef}},
	TablePropertyMap:     {{colIndex, TableTypeDef}, {colIndex, TableProperty}},
	TablePropertyPtr:     {{colIndex, TableProperty}},
	TableProperty:        {{colUint16, 0}, {colString, 0}, {colBlob, 0}},
	TableMethodSemantics: {{colUint16, 0}, {colIndex, TableMethodDef}, {colCoded, codedHasSemantics}},
	TableMethodImpl: {
		{colIndex, TableTypeDef}, {colCoded, codedMethodDefOrRef}, {colCoded, codedMethodDefOrRef},
	},
	TableModuleRef: {{colString, 0}},
	TableTypeSpec:  {{colBlob, 0}},
	TableImplMap: {
		{colUint16, 0}, {colCoded, codedMemberForwarded}, {colString, 0}, {colIndex, TableModuleRef},
	},
	TableFieldRVA: {{colUint32, 0}, {colIndex, TableField}},
	TableEncLog:   {{colUint32, 0}, {colUint32, 0}},
	TableEncMap:   {{colUint32, 0}},
	TableAssembly: {
		{colUint32, 0}, {colUint16, 0}, {colUint16, 0}, {colUint16, 0}, {colUint16, 0},
		{colUint32, 0}, {colBlob, 0}, {colString, 0}, {colString, 0},
	},
	TableAssemblyProcessor: {{colUint32, 0}},
	TableAssemblyOS:        {{colUint32, 0}, {colUint32, 0}, {colUint32, 0}},
	TableAssemblyRef: {
		{colUint16, 0}, {colUint16, 0}, {colUint16, 0}, {colUint16, 0},
		{colUint32, 0}, {colBlob, 0}, {colString, 0}, {colString, 0}, {colBlob, 0},
	},
	TableAssemblyRefProcessor: {{colUint32, 0}, {colIndex, TableAssemblyRef}},
	TableAssemblyRefOS: {
		{colUint32, 0}, {colUint32, 0}, {colUint32, 0}, {colIndex, TableAssemblyRef},
	},
	TableFile: {{colUint32, 0}, {colString, 0}, {colBlob, 0}},
	TableExportedType: {
		{colUint32, 0}, {colUint32, 0}, {colString, 0}, {colString, 0}, {colCoded, codedImplementation},
	},
	TableManifestResource: {
		{colUint32, 0}, {colUint32, 0}, {colString, 0}, {colCoded, codedImplementation},
	},
	TableNestedClass:  {{colIndex, TableTypeDef}, {colIndex, TableTypeDef}},
	TableGenericParam: {{colUint16, 0}, {colUint16, 0}, {colCoded, codedTypeOrMethodDef}, {colString, 0}},
	TableMethodSpec:   {{colCoded, codedMethodDefOrRef}, {colBlob, 0}},
	TableGenericParamConstraint: {
		{colIndex, TableGenericParam}, {colCoded, codedTypeDefOrRef},
	},
}

// layout resolves column byte widths for one table stream. Widths depend on
// the HeapSizes byte and on row counts, so the layout is only valid once all
// row counts are known.
type layout struct {
	heapSizes byte
	rowCounts [tableCount]uint32
}

func (l *layout) heapWidth(flag byte) int {
	if l.heapSizes&flag != 0 {
		return 4
	}
	return 2
}

// indexWidth returns the width of a plain index into table t: 2 bytes while
// every row number fits in 16 bits, else 4.
func (l *layout) indexWidth(t uint8) int {
	if l.rowCounts[t] > 0xFFFF {
		return 4
	}
	return 2
}

// codedWidth returns the width of a coded index: the row index shares the
// 16-bit space with the tag bits, so the widest referenced table decides.
func (l *layout) codedWidth(set uint8) int {
	cs := codedSets[set]
	max := uint32(0xFFFF) >> cs.tagBits
	for _, t := range cs.tables {
		if t >= 0 && l.rowCounts[t] > max {
			return 4
		}
	}
	return 2
}

func (l *layout) columnWidth(c column) int {
	switch c.kind {
	case colUint16:
		return 2
	case colUint32:
		return 4
	case colString:
		return l.heapWidth(heapFlagString)
	case colGUID:
		return l.heapWidth(heapFlagGUID)
	case colBlob:
		return l.heapWidth(heapFlagBlob)
	case colIndex:
		return l.indexWidth(c.arg)
	default:
		return l.codedWidth(c.arg)
	}
}

func (l *layout) rowWidth(table int) int {
	w := 0
	for _, c := range tableColumns[table] {
		w += l.columnWidth(c)
	}
	return w
}

// decodeCoded splits a coded index into its target table and 1-based row
// index. The second value is 0 for a null index or an unused tag slot.
func decodeCoded(set uint8, v uint32) (table int16, row uint32) {
	cs := codedSets[set]
	tag := v & (1<<cs.tagBits - 1)
	if int(tag) >= len(cs.tables) {
		return -1, 0
	}
	return cs.tables[tag], v >> cs.tagBits
}

// DecodeHasCustomAttribute decodes a CustomAttribute parent coded index.
func DecodeHasCustomAttribute(v uint32) (table int16, row uint32) {
	return decodeCoded(codedHasCustomAttribute, v)
}

// DecodeCustomAttributeType decodes a CustomAttribute constructor coded index.
func DecodeCustomAttributeType(v uint32) (table int16, row uint32) {
	return decodeCoded(codedCustomAttributeType, v)
}

// DecodeMemberRefParent decodes a MemberRef class coded index.
func DecodeMemberRefParent(v uint32) (table int16, row uint32) {
	return decodeCoded(codedMemberRefParent, v)
}
