package pkg

import (
	"fmt"
	"path/filepath"

	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/filter"
	"github.com/ecopia-map/lascloud/internal/lasio"
	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/pkg/las"
	"github.com/ecopia-map/lascloud/tools"
)

type ICommand interface {
	RunCommand(opts *options.Options) error
}

// Decodes the input file of opts applying its select and filter strings
func readInput(opts *options.Options, resolver crs.Resolver) (*las.Header, *las.PointTable, error) {
	readOpts := lasio.ReadOptions{Resolver: resolver}
	var err error
	if opts.Select != "" {
		if readOpts.Select, err = filter.ParseSelect(opts.Select); err != nil {
			return nil, nil, err
		}
	}
	if readOpts.Filter, err = filter.ParseFilter(opts.Filter); err != nil {
		return nil, nil, err
	}

	tools.LogOutput("> reading data from las file...", filepath.Base(opts.Input))
	h, table, err := lasio.Read(opts.Input, readOpts)
	if err != nil {
		return nil, nil, err
	}
	tools.LogOutput(fmt.Sprintf("> loaded %d points, %d columns", table.Len(), len(table.Names())))
	return h, table, nil
}

func writeOutput(opts *options.Options, h *las.Header, table *las.PointTable) error {
	if err := tools.PrepareOutputFile(opts.Output); err != nil {
		return err
	}
	tools.LogOutput("> writing las file...", opts.Output)
	return lasio.Write(opts.Output, h, table)
}
