package io

import "sync"

type Producer interface {
	Produce(work chan *WorkUnit, wg *sync.WaitGroup, files []string)
}

type Consumer interface {
	Consume(workchan chan *WorkUnit, resultchan chan *Result, waitGroup *sync.WaitGroup)
}
