package pkg

import (
	"path/filepath"
	"testing"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/converters"
	"github.com/ecopia-map/lascloud/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/lascloud/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/lasio"
	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/las"
	"github.com/ecopia-map/lascloud/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testManager struct {
	corrector converters.ElevationCorrector
}

func (m testManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return m.corrector
}

func (m testManager) GetCRSResolver() crs.Resolver {
	return crs.Builtin()
}

func (m testManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return proj4_coordinate_converter.NewProj4CoordinateConverter()
}

func init() {
	tools.DisableLogger()
}

// writeGeographic writes three WGS84 points around the central meridian of UTM zone 18.
func writeGeographic(t *testing.T, path string) {
	h, err := las.NewHeader(las.HeaderSpec{
		PointFormat: 1,
		Scale:       [3]float64{1e-7, 1e-7, 0.01},
		Offset:      [3]float64{-80, 30, 0},
	})
	require.NoError(t, err)
	tbl, err := las.NewPointTable(h, 3, map[string]column.Values{
		schema.X:               column.Float64s{-75, -75.001, -74.999},
		schema.Y:               column.Float64s{40, 40.001, 40.002},
		schema.Z:               column.Float64s{10, 12.5, 30},
		schema.GPSTime:         column.Float64s{1, 2, 3},
		schema.Intensity:       column.Int32s{10, 20, 30},
		schema.ReturnNumber:    column.Int32s{1, 1, 2},
		schema.NumberOfReturns: column.Int32s{1, 2, 2},
		schema.Classification:  column.Int32s{2, 2, 5},
	})
	require.NoError(t, err)
	require.NoError(t, h.SetCRS(4326, crs.Builtin()))
	h.RecomputeBoundingBox(tbl)
	h.RecomputeReturnCounts(tbl)
	require.NoError(t, lasio.Write(path, h, tbl))
}

func TestSummarize(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.las")
	writeGeographic(t, in)
	h, tbl, err := lasio.Read(in, lasio.ReadOptions{})
	require.NoError(t, err)

	info := Summarize(h, tbl)
	assert.Equal(t, "1.0", info.Version)
	assert.Equal(t, uint8(1), info.PointFormat)
	assert.Equal(t, int64(3), info.PointCount)
	assert.Equal(t, uint64(2), info.PointsByReturn[0])
	assert.Equal(t, "EPSG:4326 (WGS 84)", info.CRS)

	var class ColumnInfo
	for _, c := range info.Columns {
		if c.Name == schema.Classification {
			class = c
		}
	}
	assert.Equal(t, "reserved", class.Kind)
	assert.Equal(t, 2.0, class.Min)
	assert.Equal(t, 5.0, class.Max)
	assert.Contains(t, info.String(), "point count:         3")
}

func TestFilterCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.las")
	out := filepath.Join(dir, "out", "kept.las")
	writeGeographic(t, in)

	opts := &options.Options{Input: in, Output: out, Select: "xyzc", Filter: "-keep_first"}
	require.NoError(t, NewFilter(testManager{}).RunCommand(opts))

	h, tbl, err := lasio.Read(out, lasio.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, int64(2), h.PointCount())
	z, err := tbl.Get(schema.Z)
	require.NoError(t, err)
	assert.Equal(t, column.Float64s{10, 12.5}, z)
	// unselected attributes are zero filled on write
	intensity, err := tbl.Get(schema.Intensity)
	require.NoError(t, err)
	assert.Equal(t, column.Int32s{0, 0}, intensity)

	opts.Filter = "-keep_everything"
	assert.Error(t, NewFilter(testManager{}).RunCommand(opts))
}

func TestSetCRSCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.las")
	out := filepath.Join(dir, "out.las")
	writeGeographic(t, in)

	require.NoError(t, NewSetCRS(testManager{}).RunCommand(&options.Options{Input: in, Output: out, EPSG: 4269}))
	h, err := lasio.ReadHeader(out, crs.Builtin())
	require.NoError(t, err)
	assert.Equal(t, 4269, h.EPSG())

	assert.Error(t, NewSetCRS(testManager{}).RunCommand(&options.Options{Input: in, Output: out, EPSG: 999999}))
}

func TestReprojectCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.las")
	out := filepath.Join(dir, "utm.las")
	writeGeographic(t, in)

	m := testManager{corrector: offset_elevation_corrector.NewOffsetElevationCorrector(100)}
	require.NoError(t, NewReproject(m).RunCommand(&options.Options{Input: in, Output: out, EPSG: 32618}))

	h, tbl, err := lasio.Read(out, lasio.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 32618, h.EPSG())
	assert.Equal(t, las.ProjectedScale, h.Scale()[0])

	x, _ := tbl.Get(schema.X)
	y, _ := tbl.Get(schema.Y)
	z, _ := tbl.Get(schema.Z)
	assert.InDelta(t, 500000, x.(column.Float64s)[0], 0.01)
	assert.InDelta(t, 4427757, y.(column.Float64s)[0], 5)
	assert.InDelta(t, 110, z.(column.Float64s)[0], 0.001)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeGeographic(t, filepath.Join(dir, "a.las"))
	writeGeographic(t, filepath.Join(dir, "b.las"))

	opts := &options.Options{
		Input:            dir,
		FolderProcessing: true,
		CheckOptions:     &options.CheckOptions{Workers: 4, MaxRows: 5},
	}
	check := NewCheck(tools.NewStandardFileFinder(), testManager{})
	require.NoError(t, check.RunCommand(opts))
	require.Len(t, check.Results, 2)
	for _, r := range check.Results {
		assert.NoError(t, r.Err)
		assert.Equal(t, 3, r.Points)
		assert.True(t, r.Report.OK())
	}

	opts.Input = filepath.Join(dir, "empty")
	assert.Error(t, check.RunCommand(opts))
}
