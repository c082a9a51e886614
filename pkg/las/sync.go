package las

import (
	"fmt"
	"math"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/geometry"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/golang/glog"
	"github.com/shopspring/decimal"
)

// ProjectionUserID is the user id of the GeoTIFF and WKT CRS records.
const ProjectionUserID = "LASF_Projection"

// scanAngleUnit is the extended formats' scan angle unit in degrees.
const scanAngleUnit = 0.006

// SetCRS sets the EPSG code and rebuilds the spatial reference mirror from
// the definition r resolves. On failure the header is left unchanged.
// Code 0 removes the CRS.
func (h *Header) SetCRS(epsg int, r crs.Resolver) error {
	if epsg == 0 {
		h.epsg, h.srs = 0, crs.SpatialReference{}
		return nil
	}
	if epsg < 0 || epsg > math.MaxUint16 {
		return fmt.Errorf("%w: %d", laserr.ErrUnknownEPSG, epsg)
	}
	if r == nil {
		return fmt.Errorf("%w: no resolver for EPSG:%d", laserr.ErrUnknownEPSG, epsg)
	}
	def, err := r.Resolve(epsg)
	if err != nil {
		return fmt.Errorf("cannot set CRS: %w", err)
	}
	def.EPSG = epsg
	h.epsg, h.srs = epsg, crs.NewSpatialReference(def)
	return nil
}

// CheckCRS verifies the EPSG code and its mirror agree.
func (h *Header) CheckCRS() error {
	if h.epsg != h.srs.EPSG() {
		return fmt.Errorf("%w: header EPSG:%d but spatial reference %s", laserr.ErrInconsistentState, h.epsg, h.srs)
	}
	return nil
}

// SetScaleOffset replaces the quantization of the coordinates. Coordinates
// are held as float64 so no point value changes; the new grid applies when
// the cloud is written.
func (h *Header) SetScaleOffset(scale, offset [3]float64) error {
	if err := checkScale(scale); err != nil {
		return err
	}
	for i, o := range offset {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			return fmt.Errorf("%w: offset %c must be finite", laserr.ErrInconsistentState, "xyz"[i])
		}
	}
	h.scale, h.offset = scale, offset
	return nil
}

// SuggestOffset returns an offset for coordinates starting at min: min
// rounded down to the largest power of ten up to 1000 lying on the scale
// grid and at most 1e8 scale steps wide, to a multiple of scale otherwise.
func SuggestOffset(min, scale float64) float64 {
	if math.IsNaN(min) || math.IsInf(min, 0) || !(scale > 0) {
		return 0
	}
	s := decimal.NewFromFloat(scale)
	limit := decimal.NewFromInt(1e8)
	step := s
	for _, p := range []int64{1000, 100, 10, 1} {
		d := decimal.NewFromInt(p)
		if d.Mod(s).IsZero() && d.Div(s).LessThanOrEqual(limit) {
			step = d
			break
		}
	}
	off, _ := decimal.NewFromFloat(min).Div(step).Floor().Mul(step).Float64()
	return off
}

// RecomputeBoundingBox derives the bounding box from the coordinates of t.
// A table without points gets a zero box.
func (h *Header) RecomputeBoundingBox(t *PointTable) {
	h.bbox = boundingBox(t)
}

func boundingBox(t *PointTable) geometry.BoundingBox {
	x, okx := t.float64s(schema.X)
	y, oky := t.float64s(schema.Y)
	z, okz := t.float64s(schema.Z)
	if !okx || !oky || !okz {
		return geometry.BoundingBox{}
	}
	b := geometry.EmptyBoundingBox()
	for i := range x {
		b.Extend(geometry.Coordinate{X: x[i], Y: y[i], Z: z[i]})
	}
	return b.OrZero()
}

// RecomputeReturnCounts derives the number of points by return from the
// ReturnNumber column of t. Return numbers outside 1..15 are not counted.
func (h *Header) RecomputeReturnCounts(t *PointTable) {
	var counts [MaxReturns]uint64
	if c, ok := t.columns[schema.ReturnNumber]; ok {
		for _, r := range c.Values().(column.Int32s) {
			if r >= 1 && r <= MaxReturns {
				counts[r-1]++
			}
		}
	}
	h.pointsByReturn = counts
}

// promote moves the header to the lowest point format carrying its
// current attributes plus required, raising the version when the new
// format needs it. It returns whether the format family changed from
// legacy to extended.
func (h *Header) promote(required schema.Capabilities) (bool, error) {
	id, err := schema.Promote(h.pointFormat, required)
	if err != nil {
		return false, err
	}
	if id == h.pointFormat {
		return false, nil
	}
	from := h.Format()
	to, _ := schema.LookupFormat(id)
	glog.V(1).Infof("promoting point format %d to %d for %s", from.ID, to.ID, required)
	h.pointFormat = id
	if h.versionMinor < to.MinorVersion {
		h.versionMinor = to.MinorVersion
	}
	return !from.Extended() && to.Extended(), nil
}

// PromotePointFormat moves the header of t to the lowest point format
// carrying its current attributes plus required. Moving from a legacy to
// an extended format converts a ScanAngle column from degrees to the
// extended 0.006 degree unit.
func (t *PointTable) PromotePointFormat(required schema.Capabilities) error {
	extended, err := t.header.promote(required)
	if err != nil {
		return err
	}
	if extended {
		if c, ok := t.columns[schema.ScanAngle]; ok {
			c.Update(func(v column.Values) {
				angles := v.(column.Int32s)
				for i, a := range angles {
					angles[i] = int32(math.Round(float64(a) / scanAngleUnit))
				}
			})
		}
	}
	return nil
}

// syncRows updates the header after the rows of t changed.
func (h *Header) syncRows(t *PointTable) {
	h.pointCount = int64(t.n)
	h.RecomputeBoundingBox(t)
	h.RecomputeReturnCounts(t)
}
