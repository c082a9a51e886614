package std_algorithm_manager

import (
	"github.com/ecopia-map/lascloud/internal/converters"
	"github.com/ecopia-map/lascloud/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/lascloud/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/crs/gdal_resolver"
	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options             *options.Options
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
	resolver            crs.Resolver
}

func NewAlgorithmManager(opts *options.Options) algorithm_manager.AlgorithmManager {
	return &StandardAlgorithmManager{
		options:             opts,
		coordinateConverter: proj4_coordinate_converter.NewProj4CoordinateConverter(),
		elevationCorrector:  evaluateElevationCorrectionAlgorithm(opts),
		resolver:            evaluateCRSResolver(opts),
	}
}

func (m *StandardAlgorithmManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return m.elevationCorrector
}

func (m *StandardAlgorithmManager) GetCRSResolver() crs.Resolver {
	return m.resolver
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}

// No corrector when there is no offset to apply
func evaluateElevationCorrectionAlgorithm(opts *options.Options) converters.ElevationCorrector {
	if opts.ZOffset == 0 {
		return nil
	}
	return offset_elevation_corrector.NewOffsetElevationCorrector(opts.ZOffset)
}

func evaluateCRSResolver(opts *options.Options) crs.Resolver {
	if opts.Resolver == options.ResolverGdal {
		return crs.Cached(crs.Chain{gdal_resolver.NewGdalResolver(), crs.Builtin()})
	}
	return crs.Builtin()
}
