package extrabytes

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/fixedstr"
	"github.com/ecopia-map/lascloud/pkg/laserr"
)

// Identification of the extra bytes VLR.
const (
	UserID   = "LASF_Spec"
	RecordID = 4

	// DescriptorSize is the size of one descriptor in the VLR payload.
	DescriptorSize = 192
)

const (
	optNoData = 1 << iota
	optMin
	optMax
	optScale
	optOffset
)

// descriptor field offsets
const (
	offDataType    = 2
	offOptions     = 3
	offName        = 4
	offNoData      = 40
	offMin         = 64
	offMax         = 88
	offScale       = 112
	offOffset      = 136
	offDescription = 160
)

// Marshal encodes descriptors as an extra bytes VLR payload, in the order given.
func Marshal(ds []Descriptor) ([]byte, error) {
	out := make([]byte, DescriptorSize*len(ds))
	le := binary.LittleEndian
	for i, d := range ds {
		b := out[i*DescriptorSize : (i+1)*DescriptorSize]
		dt, err := DataTypeOf(d.Type)
		if err != nil {
			return nil, err
		}
		b[offDataType] = byte(dt)

		name, err := fixedstr.Encode(d.Name, nameSize)
		if err != nil {
			return nil, laserr.Attribute(d.Name, laserr.ErrUnsupportedType, err.Error())
		}
		copy(b[offName:], name)
		desc, err := fixedstr.Encode(d.Description, descriptionSize)
		if err != nil {
			return nil, laserr.Attribute(d.Name, laserr.ErrUnsupportedType, err.Error())
		}
		copy(b[offDescription:], desc)

		var options byte
		if d.NoData != nil {
			options |= optNoData
			putAny(b[offNoData:], d.Type, *d.NoData)
		}
		if d.Min != nil {
			options |= optMin
			putAny(b[offMin:], d.Type, *d.Min)
		}
		if d.Max != nil {
			options |= optMax
			putAny(b[offMax:], d.Type, *d.Max)
		}
		if d.Scale != 0 {
			options |= optScale
			le.PutUint64(b[offScale:], math.Float64bits(d.Scale))
		}
		if d.Offset != 0 {
			options |= optOffset
			le.PutUint64(b[offOffset:], math.Float64bits(d.Offset))
		}
		b[offOptions] = options
	}
	return out, nil
}

// Unmarshal decodes an extra bytes VLR payload. Undocumented descriptors
// are returned with Type column.Invalid and Scale holding their byte count
// so readers can skip them.
func Unmarshal(payload []byte) ([]Descriptor, error) {
	if len(payload)%DescriptorSize != 0 {
		return nil, fmt.Errorf("%w: extra bytes VLR of %d bytes is not a multiple of %d", laserr.ErrFileFormat, len(payload), DescriptorSize)
	}
	le := binary.LittleEndian
	n := len(payload) / DescriptorSize
	ds := make([]Descriptor, 0, n)
	for i := 0; i < n; i++ {
		b := payload[i*DescriptorSize : (i+1)*DescriptorSize]
		d := Descriptor{
			Name:        fixedstr.Decode(b[offName : offName+nameSize]),
			Description: fixedstr.Decode(b[offDescription : offDescription+descriptionSize]),
			Index:       i,
		}
		dt := DataType(b[offDataType])
		options := b[offOptions]
		if dt == Undocumented {
			d.Type = column.Invalid
			d.Scale = float64(options)
			ds = append(ds, d)
			continue
		}
		t, ok := dt.ColumnType()
		if !ok {
			return nil, fmt.Errorf("%w: extra bytes %q uses unsupported data type %d", laserr.ErrFileFormat, d.Name, dt)
		}
		d.Type = t
		if options&optNoData != 0 {
			v := getAny(b[offNoData:], t)
			d.NoData = &v
		}
		if options&optMin != 0 {
			v := getAny(b[offMin:], t)
			d.Min = &v
		}
		if options&optMax != 0 {
			v := getAny(b[offMax:], t)
			d.Max = &v
		}
		if options&optScale != 0 {
			d.Scale = math.Float64frombits(le.Uint64(b[offScale:]))
		}
		if options&optOffset != 0 {
			d.Offset = math.Float64frombits(le.Uint64(b[offOffset:]))
		}
		ds = append(ds, d)
	}
	return ds, nil
}

// anytype fields hold int64, uint64 or float64 depending on the data type.
func putAny(b []byte, t column.Type, v float64) {
	le := binary.LittleEndian
	switch t {
	case column.Float32, column.Float64:
		le.PutUint64(b, math.Float64bits(v))
	case column.Uint8, column.Uint16, column.Uint32, column.Uint64:
		le.PutUint64(b, uint64(v))
	default:
		le.PutUint64(b, uint64(int64(v)))
	}
}

func getAny(b []byte, t column.Type) float64 {
	le := binary.LittleEndian
	switch t {
	case column.Float32, column.Float64:
		return math.Float64frombits(le.Uint64(b))
	case column.Uint8, column.Uint16, column.Uint32, column.Uint64:
		return float64(le.Uint64(b))
	default:
		return float64(int64(le.Uint64(b)))
	}
}

// PutValue writes row i of v at the start of b in little endian order.
func PutValue(b []byte, v column.Values, i int) {
	le := binary.LittleEndian
	switch x := v.(type) {
	case column.Int8s:
		b[0] = byte(x[i])
	case column.Uint8s:
		b[0] = x[i]
	case column.Int16s:
		le.PutUint16(b, uint16(x[i]))
	case column.Uint16s:
		le.PutUint16(b, x[i])
	case column.Int32s:
		le.PutUint32(b, uint32(x[i]))
	case column.Uint32s:
		le.PutUint32(b, x[i])
	case column.Int64s:
		le.PutUint64(b, uint64(x[i]))
	case column.Uint64s:
		le.PutUint64(b, x[i])
	case column.Float32s:
		le.PutUint32(b, math.Float32bits(x[i]))
	case column.Float64s:
		le.PutUint64(b, math.Float64bits(x[i]))
	}
}

// AppendValue decodes a value from the start of b and appends it to v,
// which must be of the matching type.
func AppendValue(v column.Values, b []byte) column.Values {
	le := binary.LittleEndian
	switch x := v.(type) {
	case column.Int8s:
		return append(x, int8(b[0]))
	case column.Uint8s:
		return append(x, b[0])
	case column.Int16s:
		return append(x, int16(le.Uint16(b)))
	case column.Uint16s:
		return append(x, le.Uint16(b))
	case column.Int32s:
		return append(x, int32(le.Uint32(b)))
	case column.Uint32s:
		return append(x, le.Uint32(b))
	case column.Int64s:
		return append(x, int64(le.Uint64(b)))
	case column.Uint64s:
		return append(x, le.Uint64(b))
	case column.Float32s:
		return append(x, math.Float32frombits(le.Uint32(b)))
	case column.Float64s:
		return append(x, math.Float64frombits(le.Uint64(b)))
	}
	return v
}
