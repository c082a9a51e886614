package io

import (
	"sync"

	"github.com/ecopia-map/lascloud/internal/options"
)

type StandardProducer struct {
	options *options.Options
}

func NewStandardProducer(options *options.Options) *StandardProducer {
	return &StandardProducer{
		options: options,
	}
}

// Submits a WorkUnit per file to the provided workchannel, then closes it.
func (p *StandardProducer) Produce(work chan *WorkUnit, wg *sync.WaitGroup, files []string) {
	for _, file := range files {
		work <- &WorkUnit{
			Path: file,
			Opts: p.options,
		}
	}
	close(work)
	wg.Done()
}
