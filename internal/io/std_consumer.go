package io

import (
	"sync"

	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/lasio"
	"github.com/ecopia-map/lascloud/pkg/validator"
	"github.com/golang/glog"
)

type StandardConsumer struct {
	resolver crs.Resolver
}

func NewStandardConsumer(resolver crs.Resolver) *StandardConsumer {
	return &StandardConsumer{
		resolver: resolver,
	}
}

// Continually consumes WorkUnits submitted to a work channel, checking one file at a time and
// submitting a Result for each of them. Continues working until the work channel is closed.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, resultchan chan *Result, waitGroup *sync.WaitGroup) {
	for work := range workchan {
		resultchan <- c.doWork(work)
	}

	// signal waitgroup finished work
	waitGroup.Done()
}

// Decodes the file of the WorkUnit and runs the validator on it
func (c *StandardConsumer) doWork(workUnit *WorkUnit) *Result {
	result := &Result{Path: workUnit.Path}

	h, table, err := lasio.Read(workUnit.Path, lasio.ReadOptions{Resolver: c.resolver})
	if err != nil {
		glog.Warningf("cannot read %s: %v", workUnit.Path, err)
		result.Err = err
		result.Error = err.Error()
		return result
	}
	defer table.Release()

	opts := validator.DefaultOptions()
	if co := workUnit.Opts.CheckOptions; co != nil {
		opts.DuplicateTolerance = co.DuplicateTolerance
		opts.MaxRows = co.MaxRows
	}
	result.Points = table.Len()
	result.Report = validator.Check(h, table, opts)
	return result
}
