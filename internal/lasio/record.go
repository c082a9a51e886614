package lasio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
)

var le = binary.LittleEndian

// layout locates the optional fields of a point record. Offsets are -1
// when the format does not carry the field.
type layout struct {
	format schema.Format
	gps    int
	color  int
	nir    int
	// extra is where the extra bytes start.
	extra int
}

func newLayout(f schema.Format) layout {
	l := layout{format: f, gps: -1, color: -1, nir: -1}
	pos := 20
	if f.Extended() {
		l.gps = 22
		pos = 30
	} else if f.Capabilities.Has(schema.CapGPSTime) {
		l.gps = pos
		pos += 8
	}
	if f.Capabilities.Has(schema.CapColor) {
		l.color = pos
		pos += 6
	}
	if f.Capabilities.Has(schema.CapNIR) {
		l.nir = pos
		pos += 2
	}
	if f.Capabilities.Has(schema.CapWaveform) {
		pos += 29
	}
	l.extra = pos
	return l
}

// attribute indices of a decoded record
var (
	iX                 = schema.Order(schema.X)
	iY                 = schema.Order(schema.Y)
	iZ                 = schema.Order(schema.Z)
	iGPSTime           = schema.Order(schema.GPSTime)
	iIntensity         = schema.Order(schema.Intensity)
	iReturnNumber      = schema.Order(schema.ReturnNumber)
	iNumberOfReturns   = schema.Order(schema.NumberOfReturns)
	iScanDirectionFlag = schema.Order(schema.ScanDirectionFlag)
	iEdgeOfFlightline  = schema.Order(schema.EdgeOfFlightline)
	iClassification    = schema.Order(schema.Classification)
	iSyntheticFlag     = schema.Order(schema.SyntheticFlag)
	iKeypointFlag      = schema.Order(schema.KeypointFlag)
	iWithheldFlag      = schema.Order(schema.WithheldFlag)
	iOverlapFlag       = schema.Order(schema.OverlapFlag)
	iScannerChannel    = schema.Order(schema.ScannerChannel)
	iScanAngle         = schema.Order(schema.ScanAngle)
	iUserData          = schema.Order(schema.UserData)
	iPointSourceID     = schema.Order(schema.PointSourceID)
	iR                 = schema.Order(schema.R)
	iG                 = schema.Order(schema.G)
	iB                 = schema.Order(schema.B)
	iNIR               = schema.Order(schema.NIR)
)

var numReserved = len(schema.All())

// record holds the reserved attribute values of one point, indexed by
// canonical order. It is the row predicates are evaluated on.
type record struct {
	format schema.Format
	values []float64
}

func newRecord(f schema.Format) *record {
	return &record{format: f, values: make([]float64, numReserved)}
}

func (r *record) Value(attribute string) (float64, bool) {
	i := schema.Order(attribute)
	if i < 0 || !r.format.Has(attribute) {
		return 0, false
	}
	return r.values[i], true
}

func bit(b byte, n uint) float64 {
	return float64((b >> n) & 1)
}

// decode fills r from the reserved fields of rec. Coordinates are
// converted with scale and offset.
func (l layout) decode(rec []byte, scale, offset [3]float64, r *record) {
	v := r.values
	v[iX] = float64(int32(le.Uint32(rec[0:])))*scale[0] + offset[0]
	v[iY] = float64(int32(le.Uint32(rec[4:])))*scale[1] + offset[1]
	v[iZ] = float64(int32(le.Uint32(rec[8:])))*scale[2] + offset[2]
	v[iIntensity] = float64(le.Uint16(rec[12:]))

	if l.format.Extended() {
		returns := rec[14]
		v[iReturnNumber] = float64(returns & 0x0f)
		v[iNumberOfReturns] = float64(returns >> 4)
		flags := rec[15]
		v[iSyntheticFlag] = bit(flags, 0)
		v[iKeypointFlag] = bit(flags, 1)
		v[iWithheldFlag] = bit(flags, 2)
		v[iOverlapFlag] = bit(flags, 3)
		v[iScannerChannel] = float64((flags >> 4) & 0x03)
		v[iScanDirectionFlag] = bit(flags, 6)
		v[iEdgeOfFlightline] = bit(flags, 7)
		v[iClassification] = float64(rec[16])
		v[iUserData] = float64(rec[17])
		v[iScanAngle] = float64(int16(le.Uint16(rec[18:])))
		v[iPointSourceID] = float64(le.Uint16(rec[20:]))
	} else {
		returns := rec[14]
		v[iReturnNumber] = float64(returns & 0x07)
		v[iNumberOfReturns] = float64((returns >> 3) & 0x07)
		v[iScanDirectionFlag] = bit(returns, 6)
		v[iEdgeOfFlightline] = bit(returns, 7)
		class := rec[15]
		v[iClassification] = float64(class & 0x1f)
		v[iSyntheticFlag] = bit(class, 5)
		v[iKeypointFlag] = bit(class, 6)
		v[iWithheldFlag] = bit(class, 7)
		v[iScanAngle] = float64(int8(rec[16]))
		v[iUserData] = float64(rec[17])
		v[iPointSourceID] = float64(le.Uint16(rec[18:]))
	}
	if l.gps >= 0 {
		v[iGPSTime] = math.Float64frombits(le.Uint64(rec[l.gps:]))
	}
	if l.color >= 0 {
		v[iR] = float64(le.Uint16(rec[l.color:]))
		v[iG] = float64(le.Uint16(rec[l.color+2:]))
		v[iB] = float64(le.Uint16(rec[l.color+4:]))
	}
	if l.nir >= 0 {
		v[iNIR] = float64(le.Uint16(rec[l.nir:]))
	}
}

// encoder writes the reserved fields of a point record. Every value is
// checked against the range its field can store.
type encoder struct {
	layout
	scale, offset [3]float64
	row           int
	err           error
}

func (e *encoder) fail(name string, v float64, min, max float64) {
	if e.err == nil {
		e.err = laserr.Attribute(name, laserr.ErrInconsistentState,
			"row %d: value %g outside [%g,%g] storable by point format %d", e.row, v, min, max, e.format.ID)
	}
}

// field checks v fits the storable range of the attribute in the format.
func (e *encoder) field(name string, v float64) uint64 {
	d, _ := schema.Lookup(name)
	min, max := d.StorableRange(e.format.ID)
	if v < min || v > max || v != math.Trunc(v) {
		e.fail(name, v, min, max)
		return 0
	}
	return uint64(int64(v))
}

func (e *encoder) coordinate(name string, axis int, v float64) uint32 {
	raw := math.Round((v - e.offset[axis]) / e.scale[axis])
	if math.IsNaN(raw) || raw < math.MinInt32 || raw > math.MaxInt32 {
		e.fail(name, v, e.offset[axis]+math.MinInt32*e.scale[axis], e.offset[axis]+math.MaxInt32*e.scale[axis])
		return 0
	}
	return uint32(int32(raw))
}

// encode writes the values of r into rec, which must be zeroed.
func (e *encoder) encode(r *record, rec []byte) error {
	v := r.values
	le.PutUint32(rec[0:], e.coordinate(schema.X, 0, v[iX]))
	le.PutUint32(rec[4:], e.coordinate(schema.Y, 1, v[iY]))
	le.PutUint32(rec[8:], e.coordinate(schema.Z, 2, v[iZ]))
	le.PutUint16(rec[12:], uint16(e.field(schema.Intensity, v[iIntensity])))

	flag := func(name string, i int, shift uint) byte {
		return byte(e.field(name, v[i])) << shift
	}
	if e.format.Extended() {
		rec[14] = byte(e.field(schema.ReturnNumber, v[iReturnNumber])) |
			byte(e.field(schema.NumberOfReturns, v[iNumberOfReturns]))<<4
		rec[15] = flag(schema.SyntheticFlag, iSyntheticFlag, 0) |
			flag(schema.KeypointFlag, iKeypointFlag, 1) |
			flag(schema.WithheldFlag, iWithheldFlag, 2) |
			flag(schema.OverlapFlag, iOverlapFlag, 3) |
			flag(schema.ScannerChannel, iScannerChannel, 4) |
			flag(schema.ScanDirectionFlag, iScanDirectionFlag, 6) |
			flag(schema.EdgeOfFlightline, iEdgeOfFlightline, 7)
		rec[16] = byte(e.field(schema.Classification, v[iClassification]))
		rec[17] = byte(e.field(schema.UserData, v[iUserData]))
		le.PutUint16(rec[18:], uint16(int16(e.field(schema.ScanAngle, v[iScanAngle]))))
		le.PutUint16(rec[20:], uint16(e.field(schema.PointSourceID, v[iPointSourceID])))
	} else {
		rec[14] = byte(e.field(schema.ReturnNumber, v[iReturnNumber])) |
			byte(e.field(schema.NumberOfReturns, v[iNumberOfReturns]))<<3 |
			flag(schema.ScanDirectionFlag, iScanDirectionFlag, 6) |
			flag(schema.EdgeOfFlightline, iEdgeOfFlightline, 7)
		rec[15] = byte(e.field(schema.Classification, v[iClassification])) |
			flag(schema.SyntheticFlag, iSyntheticFlag, 5) |
			flag(schema.KeypointFlag, iKeypointFlag, 6) |
			flag(schema.WithheldFlag, iWithheldFlag, 7)
		rec[16] = byte(int8(e.field(schema.ScanAngle, v[iScanAngle])))
		rec[17] = byte(e.field(schema.UserData, v[iUserData]))
		le.PutUint16(rec[18:], uint16(e.field(schema.PointSourceID, v[iPointSourceID])))
	}
	if e.gps >= 0 {
		le.PutUint64(rec[e.gps:], math.Float64bits(v[iGPSTime]))
	}
	if e.color >= 0 {
		le.PutUint16(rec[e.color:], uint16(e.field(schema.R, v[iR])))
		le.PutUint16(rec[e.color+2:], uint16(e.field(schema.G, v[iG])))
		le.PutUint16(rec[e.color+4:], uint16(e.field(schema.B, v[iB])))
	}
	if e.nir >= 0 {
		le.PutUint16(rec[e.nir:], uint16(e.field(schema.NIR, v[iNIR])))
	}
	return e.err
}

func checkFormat(id uint8) (schema.Format, error) {
	f, ok := schema.LookupFormat(id)
	if !ok {
		return schema.Format{}, fmt.Errorf("%w: point format %d", laserr.ErrUnsupportedVersion, id)
	}
	return f, nil
}
