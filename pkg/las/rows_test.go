package las

import (
	"errors"
	"testing"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/filter"
	"github.com/ecopia-map/lascloud/internal/geometry"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterDeepCopies(t *testing.T) {
	tbl := newTable(t)
	all, err := tbl.Filter(filter.True())
	require.NoError(t, err)
	assert.Equal(t, tbl.Len(), all.Len())

	for _, name := range tbl.Names() {
		assert.False(t, tbl.SameStorage(all, name), name)
	}
	require.NoError(t, SetAt(all, schema.Classification, 0, int32(7)))
	v, _ := tbl.Get(schema.Classification)
	assert.Equal(t, column.Int32s{2, 2, 6, 9}, v)
}

func TestFilterSyncsHeader(t *testing.T) {
	tbl := newTable(t)
	low, err := tbl.Filter(filter.Where(schema.Z, filter.Lt, 60))
	require.NoError(t, err)
	assert.Equal(t, 2, low.Len())
	assert.Equal(t, int64(2), low.Header().PointCount())
	assert.Equal(t, geometry.BoundingBox{Xmin: 1, Xmax: 2, Ymin: 10, Ymax: 20, Zmin: 5, Zmax: 50}, low.Header().BoundingBox())
	assert.Equal(t, uint64(1), low.Header().PointsByReturn()[0])
	assert.Equal(t, uint64(1), low.Header().PointsByReturn()[1])
	assert.Equal(t, int64(4), tbl.Header().PointCount())

	none, err := tbl.Filter(filter.Where(schema.Z, filter.Gt, 100).And(filter.Where(schema.Z, filter.Lt, 0)))
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, int64(0), none.Header().PointCount())
	assert.Equal(t, geometry.BoundingBox{}, none.Header().BoundingBox())
	assert.NoError(t, none.Consistent())

	// the format carries no color, so no point has R
	none, err = tbl.Filter(filter.Where(schema.R, filter.Ge, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())

	_, err = tbl.Filter(filter.Where("height", filter.Gt, 1))
	assert.True(t, errors.Is(err, laserr.ErrUnknownAttribute))
}

func TestSelectRows(t *testing.T) {
	tbl := newTable(t)
	out, err := tbl.SelectRows([]int{3, 0})
	require.NoError(t, err)
	v, _ := out.Get(schema.X)
	assert.Equal(t, column.Float64s{4, 1}, v)

	_, err = tbl.SelectRows([]int{4})
	assert.True(t, errors.Is(err, laserr.ErrLengthMismatch))
}

func TestMerge(t *testing.T) {
	a := newTable(t)
	b := newTable(t)
	require.NoError(t, SetAt(b, schema.X, 0, -5.0))

	m, err := Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, 8, m.Len())
	assert.Equal(t, int64(8), m.Header().PointCount())
	assert.Equal(t, -5.0, m.Header().BoundingBox().Xmin)
	assert.NotEqual(t, uuid.Nil, m.Header().ProjectID())
	assert.NoError(t, m.Consistent())
	for _, name := range a.Names() {
		assert.False(t, a.SameStorage(m, name))
	}

	c := newTable(t)
	require.NoError(t, c.AddReservedColumn(schema.R, column.Int32s{0, 0, 0, 0}))
	_, err = Merge(a, c)
	assert.True(t, errors.Is(err, laserr.ErrInconsistentState))
}

func TestSetCRS(t *testing.T) {
	h := newHeader(t, 1)
	r := crs.Builtin()

	require.NoError(t, h.SetCRS(32632, r))
	assert.Equal(t, 32632, h.EPSG())
	assert.Equal(t, 32632, h.SpatialReference().EPSG())
	assert.Equal(t, "WGS 84 / UTM zone 32N", h.SpatialReference().Name())

	err := h.SetCRS(99999, r)
	assert.True(t, errors.Is(err, laserr.ErrUnknownEPSG))
	assert.Equal(t, 32632, h.EPSG())
	assert.Equal(t, 32632, h.SpatialReference().EPSG())

	err = h.SetCRS(4326, nil)
	assert.True(t, errors.Is(err, laserr.ErrUnknownEPSG))

	assert.NoError(t, h.CheckCRS())
	h.srs = crs.Unresolved(2154)
	assert.True(t, errors.Is(h.CheckCRS(), laserr.ErrInconsistentState))

	require.NoError(t, h.SetCRS(0, r))
	assert.True(t, h.SpatialReference().IsEmpty())
	assert.NoError(t, h.CheckCRS())
}

func TestScaleOffset(t *testing.T) {
	h := newHeader(t, 1)
	err := h.SetScaleOffset([3]float64{0.01, -1, 0.01}, [3]float64{})
	assert.True(t, errors.Is(err, laserr.ErrInconsistentState))
	assert.Equal(t, [3]float64{0.01, 0.01, 0.01}, h.Scale())

	require.NoError(t, h.SetScaleOffset([3]float64{0.001, 0.001, 0.01}, [3]float64{1000, 2000, 0}))
	assert.Equal(t, [3]float64{1000, 2000, 0}, h.Offset())

	assert.Equal(t, 1000.0, SuggestOffset(1234.567, 0.01))
	assert.Equal(t, -2000.0, SuggestOffset(-1234.5, 0.01))
	assert.Equal(t, -80.0, SuggestOffset(-73.5, 1e-7))
	assert.InDelta(t, 5.499, SuggestOffset(5.5, 0.003), 1e-12)
	assert.Equal(t, 0.0, SuggestOffset(12, 0))
}

func TestVLRs(t *testing.T) {
	h := newHeader(t, 1)
	require.NoError(t, h.AddVLR(VLR{UserID: "vendor", RecordID: 7, Data: []byte{1, 2}}))
	err := h.AddVLR(VLR{UserID: ProjectionUserID, RecordID: 34735})
	assert.True(t, errors.Is(err, laserr.ErrInconsistentState))

	c := h.Clone()
	c.vlrs[0].Data[0] = 9
	assert.Equal(t, byte(1), h.VLRs()[0].Data[0])
	assert.Equal(t, 1, c.RemoveVLRs("vendor", 7))
	assert.Len(t, h.VLRs(), 1)
	assert.Empty(t, c.VLRs())
}

type shiftConverter struct {
	dx float64
}

func (s shiftConverter) ConvertCoordinateSrid(_, _ crs.Definition, c geometry.Coordinate) (geometry.Coordinate, error) {
	c.X += s.dx
	return c, nil
}

func (s shiftConverter) ConvertCoordinates(_, _ crs.Definition, x, _, _ []float64) error {
	for i := range x {
		x[i] += s.dx
	}
	return nil
}

func (s shiftConverter) Cleanup() {}

type liftCorrector struct{}

func (liftCorrector) CorrectElevation(_, _, z float64) float64 { return z + 1 }

func TestReproject(t *testing.T) {
	tbl := newTable(t)
	r := crs.Builtin()
	_, err := tbl.Reproject(32633, r, shiftConverter{dx: 500000}, nil)
	assert.True(t, errors.Is(err, laserr.ErrInconsistentState))

	require.NoError(t, tbl.Header().SetCRS(32632, r))
	out, err := tbl.Reproject(32633, r, shiftConverter{dx: 500000}, liftCorrector{})
	require.NoError(t, err)

	assert.Equal(t, 32633, out.Header().EPSG())
	assert.Equal(t, 32632, tbl.Header().EPSG())
	x, _ := out.Get(schema.X)
	assert.Equal(t, column.Float64s{500001, 500002, 500003, 500004}, x)
	z, _ := out.Get(schema.Z)
	assert.Equal(t, column.Float64s{6, 51, 61, 101}, z)
	x, _ = tbl.Get(schema.X)
	assert.Equal(t, column.Float64s{1, 2, 3, 4}, x)

	assert.True(t, tbl.SameStorage(out, schema.Intensity))
	assert.False(t, tbl.SameStorage(out, schema.X))
	assert.Equal(t, 500001.0, out.Header().BoundingBox().Xmin)
	assert.Equal(t, 500000.0, out.Header().Offset()[0])
	assert.NoError(t, out.Consistent())

	_, err = tbl.Reproject(123456, r, shiftConverter{}, nil)
	assert.True(t, errors.Is(err, laserr.ErrUnknownEPSG))
}
