// Package extrabytes manages user defined point attributes stored as LAS
// extra bytes: their descriptors, the slot table holding them and the
// extra bytes VLR encoding.
package extrabytes

import (
	"fmt"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/fixedstr"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
)

// DataType is the data_type code of an extra bytes descriptor.
type DataType uint8

const (
	Undocumented DataType = iota
	UChar
	Char
	UShort
	Short
	ULong
	Long
	ULongLong
	LongLong
	Float
	Double
)

var dataTypeColumns = map[DataType]column.Type{
	UChar:     column.Uint8,
	Char:      column.Int8,
	UShort:    column.Uint16,
	Short:     column.Int16,
	ULong:     column.Uint32,
	Long:      column.Int32,
	ULongLong: column.Uint64,
	LongLong:  column.Int64,
	Float:     column.Float32,
	Double:    column.Float64,
}

// ColumnType maps a data_type code to the in-memory column type.
func (d DataType) ColumnType() (column.Type, bool) {
	t, ok := dataTypeColumns[d]
	return t, ok
}

// DataTypeOf maps a column type to its data_type code. Strings and
// booleans have no extra bytes representation.
func DataTypeOf(t column.Type) (DataType, error) {
	for d, ct := range dataTypeColumns {
		if ct == t {
			return d, nil
		}
	}
	return Undocumented, fmt.Errorf("%w: %s values cannot be stored as extra bytes", laserr.ErrUnsupportedType, t)
}

const (
	nameSize        = 32
	descriptionSize = 32
)

// Descriptor describes one extra attribute.
type Descriptor struct {
	Name        string
	Description string
	Type        column.Type
	// Scale and Offset convert stored values to physical ones. A zero
	// Scale means the stored value is the physical value.
	Scale  float64
	Offset float64
	NoData *float64
	Min    *float64
	Max    *float64
	// Index is the registry slot. Set by Registry.Register.
	Index int
}

// Validate checks the descriptor can be registered and written.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return laserr.Attribute(d.Name, laserr.ErrUnsupportedType, "empty name")
	}
	if !d.Type.Numeric() {
		return laserr.Attribute(d.Name, laserr.ErrUnsupportedType, "%s values cannot be stored as extra bytes", d.Type)
	}
	if schema.IsReserved(d.Name) {
		return laserr.Attribute(d.Name, laserr.ErrNameCollision, "name of a reserved attribute")
	}
	if !fixedstr.Fits(d.Name, nameSize) {
		return laserr.Attribute(d.Name, laserr.ErrUnsupportedType, "name must be ISO-8859-1 and at most %d bytes", nameSize)
	}
	if !fixedstr.Fits(d.Description, descriptionSize) {
		return laserr.Attribute(d.Name, laserr.ErrUnsupportedType, "description must be ISO-8859-1 and at most %d bytes", descriptionSize)
	}
	if d.Scale < 0 {
		return laserr.Attribute(d.Name, laserr.ErrUnsupportedType, "negative scale %g", d.Scale)
	}
	return nil
}

// Scaled converts a stored value to its physical value.
func (d Descriptor) Scaled(raw float64) float64 {
	if d.Scale == 0 {
		return raw + d.Offset
	}
	return raw*d.Scale + d.Offset
}

// Size is the number of bytes a value takes in a point record.
func (d Descriptor) Size() int {
	return d.Type.Size()
}
