package pkg

import (
	"errors"
	"fmt"

	"github.com/ecopia-map/lascloud/internal/io"
	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/pkg/algorithm_manager"
	"github.com/ecopia-map/lascloud/tools"
	"github.com/golang/glog"
)

type Check struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
	Results          []*io.Result
}

func NewCheck(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) *Check {
	return &Check{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

// Checks every file the options point to, one file per consumer. Fails when a file
// cannot be read or holds conformance errors; warnings alone do not fail.
func (check *Check) RunCommand(opts *options.Options) error {
	tools.LogOutput("Preparing list of files to process...")

	lasFiles, err := check.fileFinder.GetLasFilesToProcess(opts)
	if err != nil {
		return err
	}
	if len(lasFiles) == 0 {
		return errors.New("no las file found")
	}

	// a consumer per worker, never more than files to check
	numConsumers := 1
	if opts.CheckOptions != nil && opts.CheckOptions.Workers > 1 {
		numConsumers = opts.CheckOptions.Workers
	}
	if numConsumers > len(lasFiles) {
		numConsumers = len(lasFiles)
	}
	consumers := make([]io.Consumer, numConsumers)
	for i := range consumers {
		consumers[i] = io.NewStandardConsumer(check.algorithmManager.GetCRSResolver())
	}

	check.Results = io.RunPool(io.NewStandardProducer(opts), consumers, lasFiles)

	failed := 0
	for _, r := range check.Results {
		if r.Err != nil || !r.Report.OK() {
			failed++
		}
		check.print(r, opts)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed the check", failed, len(check.Results))
	}
	return nil
}

func (check *Check) print(r *io.Result, opts *options.Options) {
	if r.Err != nil {
		glog.Errorf("%s: %v", r.Path, r.Err)
	}
	if opts.CheckOptions != nil && opts.CheckOptions.JSON {
		fmt.Println(tools.FmtJSONString(r))
		return
	}
	if r.Err != nil {
		fmt.Printf("%s: cannot read: %v\n", r.Path, r.Err)
		return
	}
	fmt.Printf("%s: %d points, %d errors, %d warnings\n", r.Path, r.Points, len(r.Report.Errors()), len(r.Report.Warnings()))
	for _, f := range r.Report.Findings {
		fmt.Println("  " + f.String())
	}
}
