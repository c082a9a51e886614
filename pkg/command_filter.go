package pkg

import (
	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/pkg/algorithm_manager"
	"github.com/ecopia-map/lascloud/tools"
)

type Filter struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewFilter(algorithmManager algorithm_manager.AlgorithmManager) ICommand {
	return &Filter{
		algorithmManager: algorithmManager,
	}
}

// Decodes the input with the select and filter strings and writes what was kept
func (f *Filter) RunCommand(opts *options.Options) error {
	h, table, err := readInput(opts, f.algorithmManager.GetCRSResolver())
	if err != nil {
		return err
	}
	defer table.Release()

	if err := writeOutput(opts, h, table); err != nil {
		return err
	}
	tools.LogOutput("> done processing, kept", table.Len(), "points")
	return nil
}
