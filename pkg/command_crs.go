package pkg

import (
	"fmt"

	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/pkg/algorithm_manager"
	"github.com/ecopia-map/lascloud/tools"
)

type Reproject struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewReproject(algorithmManager algorithm_manager.AlgorithmManager) ICommand {
	return &Reproject{
		algorithmManager: algorithmManager,
	}
}

// Converts the coordinates of the input to opts.EPSG, applying the elevation correction if any
func (r *Reproject) RunCommand(opts *options.Options) error {
	converter := r.algorithmManager.GetCoordinateConverterAlgorithm()
	defer converter.Cleanup()

	h, table, err := readInput(opts, r.algorithmManager.GetCRSResolver())
	if err != nil {
		return err
	}
	defer table.Release()

	tools.LogOutput(fmt.Sprintf("> converting from %s to EPSG:%d...", h.SpatialReference(), opts.EPSG))
	out, err := table.Reproject(opts.EPSG, r.algorithmManager.GetCRSResolver(), converter, r.algorithmManager.GetElevationCorrectionAlgorithm())
	if err != nil {
		return err
	}
	defer out.Release()

	return writeOutput(opts, out.Header(), out)
}

type SetCRS struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewSetCRS(algorithmManager algorithm_manager.AlgorithmManager) ICommand {
	return &SetCRS{
		algorithmManager: algorithmManager,
	}
}

// Labels the input with opts.EPSG without touching coordinates
func (s *SetCRS) RunCommand(opts *options.Options) error {
	h, table, err := readInput(opts, s.algorithmManager.GetCRSResolver())
	if err != nil {
		return err
	}
	defer table.Release()

	previous := h.SpatialReference()
	if err := h.SetCRS(opts.EPSG, s.algorithmManager.GetCRSResolver()); err != nil {
		return err
	}
	tools.LogOutput(fmt.Sprintf("> crs changed from %s to %s", previous, h.SpatialReference()))

	return writeOutput(opts, h, table)
}
