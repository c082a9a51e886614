package io

import (
	"sort"
	"sync"
)

// RunPool checks files with a producer and the given number of consumers.
// Results are returned in the order of files.
func RunPool(producer Producer, consumers []Consumer, files []string) []*Result {
	if len(consumers) == 0 {
		return nil
	}

	// init channel where to submit work with a buffer 5 times greater than the number of consumer
	workChannel := make(chan *WorkUnit, len(consumers)*5)
	resultChannel := make(chan *Result, len(files))

	var waitGroup sync.WaitGroup

	// add producer to waitgroup and launch producer goroutine
	waitGroup.Add(1)
	go producer.Produce(workChannel, &waitGroup, files)

	// add consumers to waitgroup and launch them
	for _, consumer := range consumers {
		waitGroup.Add(1)
		go consumer.Consume(workChannel, resultChannel, &waitGroup)
	}

	// wait for producers and consumers to finish
	waitGroup.Wait()
	close(resultChannel)

	position := make(map[string]int, len(files))
	for i, f := range files {
		position[f] = i
	}
	results := make([]*Result, 0, len(files))
	for r := range resultChannel {
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool { return position[results[i].Path] < position[results[j].Path] })
	return results
}
