package converters

import (
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/geometry"
)

// CoordinateConverter moves coordinates between reference systems.
type CoordinateConverter interface {
	ConvertCoordinateSrid(source crs.Definition, target crs.Definition, coord geometry.Coordinate) (geometry.Coordinate, error)
	// ConvertCoordinates converts the three columns in place.
	ConvertCoordinates(source crs.Definition, target crs.Definition, x, y, z []float64) error
	Cleanup()
}

// ElevationCorrector adjusts an elevation given the planimetric position it
// was measured at.
type ElevationCorrector interface {
	CorrectElevation(x, y, z float64) float64
}
