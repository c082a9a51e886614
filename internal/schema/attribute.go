// Package schema describes the reserved LAS point attributes and the point
// data record formats that carry them.
package schema

import (
	"math"

	"github.com/ecopia-map/lascloud/internal/column"
)

// Reserved attribute names.
const (
	X                 = "X"
	Y                 = "Y"
	Z                 = "Z"
	Intensity         = "Intensity"
	GPSTime           = "gpstime"
	ReturnNumber      = "ReturnNumber"
	NumberOfReturns   = "NumberOfReturns"
	ScanDirectionFlag = "ScanDirectionFlag"
	EdgeOfFlightline  = "EdgeOfFlightline"
	Classification    = "Classification"
	SyntheticFlag     = "Synthetic_flag"
	KeypointFlag      = "Keypoint_flag"
	WithheldFlag      = "Withheld_flag"
	OverlapFlag       = "Overlap_flag"
	ScannerChannel    = "ScannerChannel"
	ScanAngle         = "ScanAngle"
	UserData          = "UserData"
	PointSourceID     = "PointSourceID"
	R                 = "R"
	G                 = "G"
	B                 = "B"
	NIR               = "NIR"
)

// SemanticType is the in-memory type of a reserved attribute.
type SemanticType uint8

const (
	Float64 SemanticType = iota
	Int32
	UInt8AsInt32
	BooleanAsInt32
)

func (s SemanticType) String() string {
	switch s {
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case UInt8AsInt32:
		return "uint8-as-int32"
	case BooleanAsInt32:
		return "boolean-as-int32"
	}
	return "unknown"
}

// Storage is the column type values of this semantic type are held in.
func (s SemanticType) Storage() column.Type {
	if s == Float64 {
		return column.Float64
	}
	return column.Int32
}

type valueRange struct {
	min, max float64
}

var unbounded = valueRange{math.Inf(-1), math.Inf(1)}

// Descriptor describes one reserved attribute.
type Descriptor struct {
	Name     string
	Semantic SemanticType
	// NativeBits is the width of the field in the point record. Coordinates
	// report the width of their scaled integer.
	NativeBits int
	// Requires is the capability a point format needs to carry the
	// attribute. Zero means every format carries it.
	Requires Capability

	legal    [2]valueRange // by family: legacy, extended
	storable [2]valueRange
}

// Storage is the column type of the attribute.
func (d Descriptor) Storage() column.Type {
	return d.Semantic.Storage()
}

// AllowedIn reports whether point format id carries the attribute.
func (d Descriptor) AllowedIn(id uint8) bool {
	f, ok := LookupFormat(id)
	if !ok {
		return false
	}
	return f.Capabilities.Has(d.Requires)
}

// AllowedPointFormats lists the format ids carrying the attribute.
func (d Descriptor) AllowedPointFormats() []uint8 {
	ids := make([]uint8, 0, len(formats))
	for _, f := range formats {
		if f.Capabilities.Has(d.Requires) {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// LegalRange is the range the format specification allows for values of
// the attribute in point format id.
func (d Descriptor) LegalRange(id uint8) (min, max float64) {
	r := d.legal[family(id)]
	return r.min, r.max
}

// StorableRange is the range the record field of point format id can hold.
func (d Descriptor) StorableRange(id uint8) (min, max float64) {
	r := d.storable[family(id)]
	return r.min, r.max
}

func family(id uint8) int {
	if id >= 6 {
		return 1
	}
	return 0
}

func same(min, max float64) [2]valueRange {
	return [2]valueRange{{min, max}, {min, max}}
}

func split(legacyMin, legacyMax, extMin, extMax float64) [2]valueRange {
	return [2]valueRange{{legacyMin, legacyMax}, {extMin, extMax}}
}

var reserved = []Descriptor{
	{Name: X, Semantic: Float64, NativeBits: 32, legal: [2]valueRange{unbounded, unbounded}, storable: [2]valueRange{unbounded, unbounded}},
	{Name: Y, Semantic: Float64, NativeBits: 32, legal: [2]valueRange{unbounded, unbounded}, storable: [2]valueRange{unbounded, unbounded}},
	{Name: Z, Semantic: Float64, NativeBits: 32, legal: [2]valueRange{unbounded, unbounded}, storable: [2]valueRange{unbounded, unbounded}},
	{Name: GPSTime, Semantic: Float64, NativeBits: 64, Requires: CapGPSTime, legal: [2]valueRange{unbounded, unbounded}, storable: [2]valueRange{unbounded, unbounded}},
	{Name: Intensity, Semantic: Int32, NativeBits: 16, legal: same(0, math.MaxUint16), storable: same(0, math.MaxUint16)},
	{Name: ReturnNumber, Semantic: Int32, NativeBits: 3, legal: split(0, 7, 0, 15), storable: split(0, 7, 0, 15)},
	{Name: NumberOfReturns, Semantic: Int32, NativeBits: 3, legal: split(0, 7, 0, 15), storable: split(0, 7, 0, 15)},
	{Name: ScanDirectionFlag, Semantic: BooleanAsInt32, NativeBits: 1, legal: same(0, 1), storable: same(0, 1)},
	{Name: EdgeOfFlightline, Semantic: BooleanAsInt32, NativeBits: 1, legal: same(0, 1), storable: same(0, 1)},
	{Name: Classification, Semantic: UInt8AsInt32, NativeBits: 8, legal: split(0, 31, 0, 255), storable: split(0, 31, 0, 255)},
	{Name: SyntheticFlag, Semantic: BooleanAsInt32, NativeBits: 1, legal: same(0, 1), storable: same(0, 1)},
	{Name: KeypointFlag, Semantic: BooleanAsInt32, NativeBits: 1, legal: same(0, 1), storable: same(0, 1)},
	{Name: WithheldFlag, Semantic: BooleanAsInt32, NativeBits: 1, legal: same(0, 1), storable: same(0, 1)},
	{Name: OverlapFlag, Semantic: BooleanAsInt32, NativeBits: 1, Requires: CapExtended, legal: same(0, 1), storable: same(0, 1)},
	{Name: ScannerChannel, Semantic: Int32, NativeBits: 2, Requires: CapExtended, legal: same(0, 3), storable: same(0, 3)},
	{Name: ScanAngle, Semantic: Int32, NativeBits: 8, legal: split(-90, 90, -30000, 30000), storable: split(math.MinInt8, math.MaxInt8, math.MinInt16, math.MaxInt16)},
	{Name: UserData, Semantic: UInt8AsInt32, NativeBits: 8, legal: same(0, math.MaxUint8), storable: same(0, math.MaxUint8)},
	{Name: PointSourceID, Semantic: Int32, NativeBits: 16, legal: same(0, math.MaxUint16), storable: same(0, math.MaxUint16)},
	{Name: R, Semantic: Int32, NativeBits: 16, Requires: CapColor, legal: same(0, math.MaxUint16), storable: same(0, math.MaxUint16)},
	{Name: G, Semantic: Int32, NativeBits: 16, Requires: CapColor, legal: same(0, math.MaxUint16), storable: same(0, math.MaxUint16)},
	{Name: B, Semantic: Int32, NativeBits: 16, Requires: CapColor, legal: same(0, math.MaxUint16), storable: same(0, math.MaxUint16)},
	{Name: NIR, Semantic: Int32, NativeBits: 16, Requires: CapNIR, legal: same(0, math.MaxUint16), storable: same(0, math.MaxUint16)},
}

var byName = func() map[string]int {
	m := make(map[string]int, len(reserved))
	for i, d := range reserved {
		m[d.Name] = i
	}
	return m
}()

// Lookup returns the descriptor of a reserved attribute.
func Lookup(name string) (Descriptor, bool) {
	i, ok := byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return reserved[i], true
}

// IsReserved reports whether name is a reserved attribute name.
func IsReserved(name string) bool {
	_, ok := byName[name]
	return ok
}

// All returns every reserved attribute in canonical order.
func All() []Descriptor {
	out := make([]Descriptor, len(reserved))
	copy(out, reserved)
	return out
}

// Order returns the canonical position of a reserved attribute, -1 otherwise.
func Order(name string) int {
	i, ok := byName[name]
	if !ok {
		return -1
	}
	return i
}
