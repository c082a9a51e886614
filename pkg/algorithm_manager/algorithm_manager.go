package algorithm_manager

import (
	"github.com/ecopia-map/lascloud/internal/converters"
	"github.com/ecopia-map/lascloud/internal/crs"
)

type AlgorithmManager interface {
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	GetCRSResolver() crs.Resolver
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
}
