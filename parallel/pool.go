// Package parallel runs index-range work on a pool of persistent goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the minimum item count to use the workers.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultThreshold = 64

// ChunkFunc processes the half-open index range [start, end).
// It returns the first index in the range that failed, or -1.
type ChunkFunc func(start, end int) int

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	slot       int
	fn         ChunkFunc
}

// Pool holds persistent workers that process chunks of a range.
type Pool struct {
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running

	// failed[slot] is the first failing index reported by chunk slot.
	failed []int
}

// NewPool creates a pool. workers <= 0 selects GOMAXPROCS and threshold <= 0
// selects DefaultThreshold. Workers start lazily on the first parallel Run.
func NewPool(workers, threshold int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Pool{
		numWorkers: workers,
		threshold:  threshold,
		failed:     make([]int, workers),
	}
}

// Workers returns the configured number of workers.
func (p *Pool) Workers() int { return p.numWorkers }

// start launches persistent worker goroutines.
func (p *Pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Close signals all workers to exit and waits for them. Safe to call twice.
func (p *Pool) Close() {
	if p == nil || !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.failed[chunk.slot] = chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// Run applies fn to [0, n) and returns only after every chunk has finished.
// The result is the lowest failing index across all chunks, or -1, so it
// does not depend on how the range was split. Run must not be called
// concurrently on the same pool.
func (p *Pool) Run(n int, fn ChunkFunc) int {
	if n <= 0 {
		return -1
	}
	if n < p.threshold || p.numWorkers == 1 {
		return fn(0, n)
	}

	// Ensure workers are running
	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			p.failed[w] = -1
			continue
		}

		p.workChan <- workChunk{start: start, end: end, slot: w, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}

	// Slots are ordered by range, so the first failure is the lowest index.
	for _, idx := range p.failed {
		if idx >= 0 {
			return idx
		}
	}
	return -1
}
