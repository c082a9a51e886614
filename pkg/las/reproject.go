package las

import (
	"fmt"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/converters"
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/golang/glog"
)

// Scale factors applied when reprojecting between angular and linear units.
const (
	GeographicScale = 1e-7
	ProjectedScale  = 0.001
)

// Reproject returns a table whose coordinates are expressed in the target
// EPSG system. Only X, Y and Z are copied; all other columns share
// storage with t. The CRS of the new header is set through SetCRS and its
// offsets and bounding box are derived from the new coordinates. A nil
// corrector leaves elevations as converted.
func (t *PointTable) Reproject(target int, r crs.Resolver, cc converters.CoordinateConverter, ec converters.ElevationCorrector) (*PointTable, error) {
	h := t.header
	if h.epsg == 0 {
		return nil, fmt.Errorf("%w: cloud has no CRS to reproject from", laserr.ErrInconsistentState)
	}
	source := h.srs.Definition()
	if !h.srs.Resolved() {
		def, err := r.Resolve(h.epsg)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve source CRS: %w", err)
		}
		source = def
	}
	x, okx := t.float64s(schema.X)
	y, oky := t.float64s(schema.Y)
	z, okz := t.float64s(schema.Z)
	if !okx || !oky || !okz {
		return nil, fmt.Errorf("%w: reprojection needs X, Y and Z", laserr.ErrUnknownAttribute)
	}

	out := t.Clone()
	if err := out.header.SetCRS(target, r); err != nil {
		out.Release()
		return nil, err
	}
	dest := out.header.srs.Definition()

	xs, ys, zs := x.Clone().(column.Float64s), y.Clone().(column.Float64s), z.Clone().(column.Float64s)
	if err := cc.ConvertCoordinates(source, dest, xs, ys, zs); err != nil {
		out.Release()
		return nil, err
	}
	if ec != nil {
		for i := range zs {
			zs[i] = ec.CorrectElevation(xs[i], ys[i], zs[i])
		}
	}
	for name, v := range map[string]column.Float64s{schema.X: xs, schema.Y: ys, schema.Z: zs} {
		if err := out.Set(name, v); err != nil {
			out.Release()
			return nil, err
		}
	}

	scale := h.scale
	switch {
	case dest.Geographic && !source.Geographic:
		scale[0], scale[1] = GeographicScale, GeographicScale
	case source.Geographic && !dest.Geographic:
		scale[0], scale[1] = ProjectedScale, ProjectedScale
	}
	out.header.RecomputeBoundingBox(out)
	b := out.header.bbox
	offset := [3]float64{
		SuggestOffset(b.Xmin, scale[0]),
		SuggestOffset(b.Ymin, scale[1]),
		SuggestOffset(b.Zmin, scale[2]),
	}
	if err := out.header.SetScaleOffset(scale, offset); err != nil {
		out.Release()
		return nil, err
	}
	glog.V(1).Infof("reprojected %d points from %s to %s", t.n, h.srs, out.header.srs)
	return out, nil
}
