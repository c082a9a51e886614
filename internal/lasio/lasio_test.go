package lasio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/extrabytes"
	"github.com/ecopia-map/lascloud/internal/filter"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/las"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectID = uuid.MustParse("0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0")

// sample builds a format 3 cloud of five points with one extra attribute.
func sample(t *testing.T) (*las.Header, *las.PointTable) {
	h, err := las.NewHeader(las.HeaderSpec{
		PointFormat:        3,
		Scale:              [3]float64{0.01, 0.01, 0.01},
		Offset:             [3]float64{1000, 2000, 0},
		ProjectID:          projectID,
		SystemID:           "lascloud test",
		GeneratingSoftware: "lascloud",
		CreationDay:        42,
		CreationYear:       2024,
		FileSourceID:       7,
	})
	require.NoError(t, err)
	tbl, err := las.NewPointTable(h, 5, map[string]column.Values{
		schema.X:                 column.Float64s{1000.01, 1001.5, 1002.25, 1003, 1004.99},
		schema.Y:                 column.Float64s{2000, 2010.1, 2020.2, 2030.3, 2040.4},
		schema.Z:                 column.Float64s{10, 45.5, 49.99, 50, 120.75},
		schema.GPSTime:           column.Float64s{1.5, 2.5, 3.5, 4.5, 5.5},
		schema.Intensity:         column.Int32s{0, 100, 65535, 300, 400},
		schema.ReturnNumber:      column.Int32s{1, 1, 2, 1, 3},
		schema.NumberOfReturns:   column.Int32s{1, 2, 2, 3, 3},
		schema.ScanDirectionFlag: column.Int32s{0, 1, 0, 1, 0},
		schema.EdgeOfFlightline:  column.Int32s{1, 0, 0, 0, 1},
		schema.Classification:    column.Int32s{2, 2, 6, 9, 31},
		schema.SyntheticFlag:     column.Int32s{0, 0, 1, 0, 0},
		schema.KeypointFlag:      column.Int32s{0, 1, 0, 0, 0},
		schema.WithheldFlag:      column.Int32s{1, 0, 0, 0, 0},
		schema.ScanAngle:         column.Int32s{-90, -12, 0, 15, 90},
		schema.UserData:          column.Int32s{0, 1, 2, 3, 255},
		schema.PointSourceID:     column.Int32s{1, 1, 2, 2, 65535},
		schema.R:                 column.Int32s{0, 10, 20, 30, 65535},
		schema.G:                 column.Int32s{1, 11, 21, 31, 41},
		schema.B:                 column.Int32s{2, 12, 22, 32, 42},
	})
	require.NoError(t, err)
	noData := -1.0
	require.NoError(t, tbl.AddExtraColumn(extrabytes.Descriptor{Name: "height", Description: "above ground", Scale: 0.01, NoData: &noData}, column.Int16s{-1, 150, 220, 0, 9000}))
	require.NoError(t, tbl.AddExtraColumn(extrabytes.Descriptor{Name: "confidence"}, column.Float32s{0.5, 0.25, 1, 0, 0.75}))
	h.RecomputeBoundingBox(tbl)
	h.RecomputeReturnCounts(tbl)
	return h, tbl
}

func write(t *testing.T, h *las.Header, tbl *las.PointTable) string {
	path := filepath.Join(t.TempDir(), "cloud.las")
	require.NoError(t, Write(path, h, tbl))
	return path
}

func TestRoundTrip(t *testing.T) {
	h, tbl := sample(t)
	require.NoError(t, tbl.AddAttribute("label", column.Strings{"a", "b", "c", "d", "e"}))
	path := write(t, h, tbl)

	h2, t2, err := Read(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, t2.Len())
	assert.Equal(t, int64(5), h2.PointCount())
	assert.Equal(t, uint8(3), h2.PointFormat())
	assert.Equal(t, h.Scale(), h2.Scale())
	assert.Equal(t, h.Offset(), h2.Offset())
	assert.Equal(t, projectID, h2.ProjectID())
	assert.Equal(t, "lascloud test", h2.SystemID())
	assert.Equal(t, uint16(7), h2.FileSourceID())
	day, year := h2.CreationDate()
	assert.Equal(t, uint16(42), day)
	assert.Equal(t, uint16(2024), year)
	assert.Equal(t, h.PointsByReturn(), h2.PointsByReturn())
	assert.InDelta(t, h.BoundingBox().Xmax, h2.BoundingBox().Xmax, 1e-9)

	for _, name := range tbl.Names() {
		if name == "label" {
			continue
		}
		want, err := tbl.Get(name)
		require.NoError(t, err)
		got, err := t2.Get(name)
		require.NoError(t, err, name)
		switch name {
		case schema.X, schema.Y, schema.Z:
			assert.InDeltaSlice(t, []float64(want.(column.Float64s)), []float64(got.(column.Float64s)), 1e-9, name)
		default:
			assert.Equal(t, want, got, name)
		}
	}

	_, err = t2.Get("label")
	assert.True(t, errors.Is(err, laserr.ErrUnknownAttribute))
	assert.Empty(t, t2.AdHoc())

	d, ok := h2.ExtraByte("height")
	require.True(t, ok)
	assert.Equal(t, column.Int16, d.Type)
	assert.Equal(t, 0.01, d.Scale)
	require.NotNil(t, d.NoData)
	assert.Equal(t, -1.0, *d.NoData)
	assert.NoError(t, t2.Consistent())
}

func TestProjection(t *testing.T) {
	h, tbl := sample(t)
	path := write(t, h, tbl)

	_, t2, err := Read(path, ReadOptions{Select: filter.Attributes(schema.X, schema.Y, schema.Z)})
	require.NoError(t, err)
	assert.Equal(t, []string{schema.X, schema.Y, schema.Z}, t2.Names())
	_, err = t2.Get(schema.Intensity)
	assert.True(t, errors.Is(err, laserr.ErrUnknownAttribute))
	assert.Empty(t, t2.Header().ExtraBytes())
	assert.NoError(t, t2.Consistent())

	sel, err := filter.ParseSelect("xyzc0")
	require.NoError(t, err)
	_, t2, err = Read(path, ReadOptions{Select: sel})
	require.NoError(t, err)
	assert.Equal(t, []string{schema.X, schema.Y, schema.Z, schema.Classification, "height", "confidence"}, t2.Names())

	sel, err = filter.ParseSelect("* -RGB0")
	require.NoError(t, err)
	_, t2, err = Read(path, ReadOptions{Select: sel})
	require.NoError(t, err)
	assert.False(t, t2.Has(schema.R))
	assert.False(t, t2.Has("height"))
	assert.True(t, t2.Has(schema.GPSTime))
}

func TestPredicate(t *testing.T) {
	h, tbl := sample(t)
	path := write(t, h, tbl)

	h2, t2, err := Read(path, ReadOptions{Filter: filter.Where(schema.Z, filter.Lt, 50)})
	require.NoError(t, err)
	assert.Equal(t, 3, t2.Len())
	z, _ := t2.Get(schema.Z)
	for _, v := range z.(column.Float64s) {
		assert.Less(t, v, 50.0)
	}
	assert.Equal(t, int64(3), h2.PointCount())
	assert.InDelta(t, 49.99, h2.BoundingBox().Zmax, 1e-9)
	assert.Equal(t, uint64(2), h2.PointsByReturn()[0])
	hv, _ := t2.Get("height")
	assert.Equal(t, column.Int16s{-1, 150, 220}, hv)

	h2, t2, err = Read(path, ReadOptions{Filter: filter.Where(schema.Z, filter.Lt, 0)})
	require.NoError(t, err)
	assert.Equal(t, 0, t2.Len())
	assert.Equal(t, int64(0), h2.PointCount())
	assert.NoError(t, t2.Consistent())

	// the predicate reads Z even when it is not selected
	_, t2, err = Read(path, ReadOptions{
		Select: filter.Attributes(schema.Intensity),
		Filter: filter.Where(schema.Z, filter.Ge, 50),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{schema.Intensity}, t2.Names())
	iv, _ := t2.Get(schema.Intensity)
	assert.Equal(t, column.Int32s{300, 400}, iv)

	p, err := filter.ParseFilter("-keep_last -drop_class 31")
	require.NoError(t, err)
	_, t2, err = Read(path, ReadOptions{Filter: p})
	require.NoError(t, err)
	rn, _ := t2.Get(schema.ReturnNumber)
	assert.Equal(t, column.Int32s{1, 2}, rn)

	_, _, err = Read(path, ReadOptions{Filter: filter.Where("height", filter.Gt, 0)})
	assert.True(t, errors.Is(err, laserr.ErrUnknownAttribute))
}

func TestExtendedFormatRoundTrip(t *testing.T) {
	h, tbl := sample(t)
	require.NoError(t, tbl.AddReservedColumn(schema.NIR, column.Int32s{5, 6, 7, 8, 9}))
	require.NoError(t, tbl.AddReservedColumn(schema.ScannerChannel, column.Int32s{0, 1, 2, 3, 0}))
	require.NoError(t, tbl.AddReservedColumn(schema.OverlapFlag, column.Int32s{0, 0, 1, 0, 1}))
	require.NoError(t, tbl.Set(schema.Classification, column.Int32s{2, 2, 6, 9, 200}))
	require.NoError(t, tbl.Set(schema.ReturnNumber, column.Int32s{1, 1, 2, 1, 15}))
	require.NoError(t, tbl.Set(schema.NumberOfReturns, column.Int32s{1, 2, 2, 3, 15}))
	assert.Equal(t, uint8(8), h.PointFormat())

	path := write(t, h, tbl)
	h2, t2, err := Read(path, ReadOptions{})
	require.NoError(t, err)
	_, minor := h2.Version()
	assert.Equal(t, uint8(4), minor)
	for _, name := range []string{schema.NIR, schema.ScannerChannel, schema.OverlapFlag, schema.Classification, schema.ReturnNumber, schema.ScanAngle} {
		want, _ := tbl.Get(name)
		got, err := t2.Get(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	sa, _ := t2.Get(schema.ScanAngle)
	assert.Equal(t, column.Int32s{-15000, -2000, 0, 2500, 15000}, sa)
}

func TestWriterRefusesUnstorableValues(t *testing.T) {
	h, tbl := sample(t)
	require.NoError(t, las.SetAt(tbl, schema.Classification, 1, int32(40)))
	path := filepath.Join(t.TempDir(), "bad.las")
	err := Write(path, h, tbl)
	assert.True(t, errors.Is(err, laserr.ErrInconsistentState))
	var attrErr *laserr.AttributeError
	require.True(t, errors.As(err, &attrErr))
	assert.Equal(t, schema.Classification, attrErr.Attribute)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	h, tbl = sample(t)
	require.NoError(t, las.SetAt(tbl, schema.X, 0, 1e12))
	err = Write(path, h, tbl)
	assert.True(t, errors.Is(err, laserr.ErrInconsistentState))

	_, tbl = sample(t)
	other, _ := sample(t)
	err = Write(path, other, tbl)
	assert.True(t, errors.Is(err, laserr.ErrInconsistentState))
}

func TestMissingColumnsAreZeroFilled(t *testing.T) {
	h, tbl := sample(t)
	path := write(t, h, tbl)
	_, part, err := Read(path, ReadOptions{Select: filter.Attributes(schema.X, schema.Y, schema.Z, schema.Classification)})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "part.las")
	require.NoError(t, Write(out, part.Header(), part))
	_, t2, err := Read(out, ReadOptions{})
	require.NoError(t, err)
	iv, _ := t2.Get(schema.Intensity)
	assert.Equal(t, column.Int32s{0, 0, 0, 0, 0}, iv)
	cv, _ := t2.Get(schema.Classification)
	assert.Equal(t, column.Int32s{2, 2, 6, 9, 31}, cv)

	_, xy, err := Read(path, ReadOptions{Select: filter.Attributes(schema.Classification)})
	require.NoError(t, err)
	err = Write(out, xy.Header(), xy)
	assert.True(t, errors.Is(err, laserr.ErrInconsistentState))
}

func TestCRSRoundTrip(t *testing.T) {
	h, tbl := sample(t)
	require.NoError(t, h.SetCRS(32632, crs.Builtin()))
	path := write(t, h, tbl)
	h2, err := ReadHeader(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 32632, h2.EPSG())
	assert.True(t, h2.SpatialReference().Resolved())
	assert.Equal(t, "WGS 84 / UTM zone 32N", h2.SpatialReference().Name())
	assert.Zero(t, h2.GlobalEncoding()&las.WKT)

	// an unknown code is kept unresolved
	h, tbl = sample(t)
	require.NoError(t, h.SetCRS(5555, crs.StaticResolver{5555: {Name: "local"}}))
	path = write(t, h, tbl)
	h2, err = ReadHeader(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 5555, h2.EPSG())
	assert.False(t, h2.SpatialReference().Resolved())
	assert.NoError(t, h2.CheckCRS())

	// extended formats carry WKT
	wkt := `PROJCS["RGF93 v1 / Lambert-93",GEOGCS["RGF93 v1",AUTHORITY["EPSG","4171"]],AUTHORITY["EPSG","2154"]]`
	h, tbl = sample(t)
	require.NoError(t, tbl.AddReservedColumn(schema.OverlapFlag, column.Int32s{0, 0, 0, 0, 0}))
	require.NoError(t, h.SetCRS(2154, crs.StaticResolver{2154: {Name: "RGF93 v1 / Lambert-93", WKT: wkt}}))
	path = write(t, h, tbl)
	h2, err = ReadHeader(path, crs.StaticResolver{})
	require.NoError(t, err)
	assert.Equal(t, 2154, h2.EPSG())
	assert.NotZero(t, h2.GlobalEncoding()&las.WKT)

	h2, err = ReadHeader(path, crs.Builtin())
	require.NoError(t, err)
	assert.Equal(t, wkt, h2.SpatialReference().WKT())
	assert.Equal(t, "RGF93 v1 / Lambert-93", h2.SpatialReference().Name())
}

func TestVLRPassthrough(t *testing.T) {
	h, tbl := sample(t)
	require.NoError(t, h.AddVLR(las.VLR{UserID: "vendor", RecordID: 1, Description: "calibration", Data: []byte{1, 2, 3}}))
	require.NoError(t, tbl.AddReservedColumn(schema.OverlapFlag, column.Int32s{0, 0, 0, 0, 0}))
	require.NoError(t, h.AddVLR(las.VLR{UserID: "vendor", RecordID: 2, Data: make([]byte, 70000), Extended: true}))
	path := write(t, h, tbl)

	h2, t2, err := Read(path, ReadOptions{})
	require.NoError(t, err)
	vlrs := h2.VLRs()
	require.Len(t, vlrs, 2)
	assert.Equal(t, "calibration", vlrs[0].Description)
	assert.Equal(t, []byte{1, 2, 3}, vlrs[0].Data)
	assert.True(t, vlrs[1].Extended)
	assert.Len(t, vlrs[1].Data, 70000)
	assert.Equal(t, 5, t2.Len())
}

func TestReadRejects(t *testing.T) {
	h, tbl := sample(t)
	path := write(t, h, tbl)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	dir := t.TempDir()

	patched := func(name string, edit func([]byte)) string {
		b := append([]byte(nil), raw...)
		edit(b)
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, b, 0o644))
		return p
	}

	_, _, err = Read(patched("version.las", func(b []byte) { b[25] = 5 }), ReadOptions{})
	assert.True(t, errors.Is(err, laserr.ErrUnsupportedVersion))

	_, _, err = Read(patched("format.las", func(b []byte) { b[104] = 11 }), ReadOptions{})
	assert.True(t, errors.Is(err, laserr.ErrUnsupportedVersion))

	_, _, err = Read(patched("compressed.las", func(b []byte) { b[104] |= 0x80 }), ReadOptions{})
	assert.True(t, errors.Is(err, laserr.ErrFileFormat))

	_, _, err = Read(patched("signature.las", func(b []byte) { b[0] = 'X' }), ReadOptions{})
	assert.True(t, errors.Is(err, laserr.ErrFileFormat))

	_, _, err = Read(patched("count.las", func(b []byte) { b[107], b[108], b[109], b[110] = 0xff, 0xff, 0xff, 0xff }), ReadOptions{})
	assert.True(t, errors.Is(err, laserr.ErrFileFormat))
	_, err = ReadHeader(patched("offset.las", func(b []byte) { b[96], b[97], b[98], b[99] = 0xff, 0xff, 0xff, 0x7f }), nil)
	assert.True(t, errors.Is(err, laserr.ErrFileFormat))

	truncated := filepath.Join(dir, "truncated.las")
	require.NoError(t, os.WriteFile(truncated, raw[:len(raw)-10], 0o644))
	_, _, err = Read(truncated, ReadOptions{})
	assert.True(t, errors.Is(err, laserr.ErrFileFormat))

	laz := filepath.Join(dir, "cloud.laz")
	require.NoError(t, os.WriteFile(laz, raw, 0o644))
	_, _, err = Read(laz, ReadOptions{})
	assert.True(t, errors.Is(err, laserr.ErrFileFormat))
}

func TestDetectFileType(t *testing.T) {
	h, tbl := sample(t)
	path := write(t, h, tbl)
	ft, err := DetectFileType(path)
	require.NoError(t, err)
	assert.Equal(t, LAS, ft)

	raw, _ := os.ReadFile(path)
	laz := filepath.Join(t.TempDir(), "cloud.laz")
	require.NoError(t, os.WriteFile(laz, raw, 0o644))
	ft, err = DetectFileType(laz)
	require.NoError(t, err)
	assert.Equal(t, LAZ, ft)

	txt := filepath.Join(t.TempDir(), "notes.las")
	require.NoError(t, os.WriteFile(txt, []byte("hi"), 0o644))
	ft, err = DetectFileType(txt)
	require.NoError(t, err)
	assert.Equal(t, Unknown, ft)

	_, err = DetectFileType(filepath.Join(t.TempDir(), "missing.las"))
	assert.Error(t, err)
}

func TestGeoKeysAndWKT(t *testing.T) {
	code, err := parseGeoKeys(geoKeys(4326, true))
	require.NoError(t, err)
	assert.Equal(t, 4326, code)
	code, err = parseGeoKeys(geoKeys(32618, false))
	require.NoError(t, err)
	assert.Equal(t, 32618, code)
	_, err = parseGeoKeys([]byte{1, 0})
	assert.True(t, errors.Is(err, laserr.ErrFileFormat))

	assert.Equal(t, 32632, wktEPSG(`PROJCRS["WGS 84 / UTM zone 32N",BASEGEOGCRS["WGS 84",ID["EPSG",4326]],ID["EPSG",32632]]`))
	assert.Equal(t, 0, wktEPSG(`LOCAL_CS["site"]`))
}

func TestCorruptExtendedPointCount(t *testing.T) {
	h, tbl := sample(t)
	require.NoError(t, tbl.AddReservedColumn(schema.NIR, column.Int32s{5, 6, 7, 8, 9}))
	assert.Equal(t, uint8(8), h.PointFormat())
	raw, err := os.ReadFile(write(t, h, tbl))
	require.NoError(t, err)

	for i := 247; i < 255; i++ {
		raw[i] = 0xff
	}
	path := filepath.Join(t.TempDir(), "corrupt.las")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	_, _, err = Read(path, ReadOptions{})
	assert.True(t, errors.Is(err, laserr.ErrFileFormat))
}
