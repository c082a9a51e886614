package proj4_coordinate_converter

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ecopia-map/lascloud/internal/converters"
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/geometry"
	"github.com/golang/glog"
	"github.com/xeonx/proj4"
)

const toRadians = math.Pi / 180
const toDegrees = 180 / math.Pi

type proj4CoordinateConverter struct {
	projections map[string]*proj4.Proj
	sync.Mutex
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		projections: make(map[string]*proj4.Proj),
	}
}

// Converts the given coordinate from the given source system to the given target one
func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(source crs.Definition, target crs.Definition, coord geometry.Coordinate) (geometry.Coordinate, error) {
	x := []float64{coord.X}
	y := []float64{coord.Y}
	z := []float64{coord.Z}
	if err := cc.ConvertCoordinates(source, target, x, y, z); err != nil {
		return coord, err
	}
	return geometry.Coordinate{X: x[0], Y: y[0], Z: z[0]}, nil
}

func (cc *proj4CoordinateConverter) ConvertCoordinates(source crs.Definition, target crs.Definition, x, y, z []float64) error {
	if source.EPSG == target.EPSG && source.EPSG != 0 {
		return nil
	}
	if len(x) != len(y) || len(x) != len(z) {
		return errors.New("coordinate columns differ in length")
	}

	src, err := cc.initProjection(source)
	if err != nil {
		return err
	}
	dst, err := cc.initProjection(target)
	if err != nil {
		return err
	}

	// proj4 expects geographic coordinates in radians
	if source.Geographic {
		scaleAll(x, toRadians)
		scaleAll(y, toRadians)
	}
	if err := proj4.Transform3(src, dst, x, y, z); err != nil {
		return fmt.Errorf("cannot convert from EPSG:%d to EPSG:%d: %w", source.EPSG, target.EPSG, err)
	}
	if target.Geographic {
		scaleAll(x, toDegrees)
		scaleAll(y, toDegrees)
	}
	return nil
}

// Releases all projection objects from memory
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.Lock()
	defer cc.Unlock()
	for key, val := range cc.projections {
		val.Close()
		delete(cc.projections, key)
	}
}

// Returns the projection corresponding to the given definition, initializing it only once
func (cc *proj4CoordinateConverter) initProjection(def crs.Definition) (*proj4.Proj, error) {
	if def.Proj4 == "" {
		return nil, fmt.Errorf("EPSG:%d has no proj4 definition", def.EPSG)
	}

	cc.Lock()
	defer cc.Unlock()

	if val, ok := cc.projections[def.Proj4]; ok {
		return val, nil
	}

	proj, err := proj4.InitPlus(def.Proj4)
	if err != nil {
		glog.Warningf("cannot initialize projection EPSG:%d [%s]: %v", def.EPSG, def.Proj4, err)
		return nil, err
	}
	cc.projections[def.Proj4] = proj

	return proj, nil
}

func scaleAll(values []float64, factor float64) {
	for i := range values {
		values[i] *= factor
	}
}
