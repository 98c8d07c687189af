// Package parallel provides a chunked fork-join helper for embarrassingly
// parallel per-particle passes.
package parallel

import (
	"runtime"
	"sync"
)

// For executes fn over [0, n) split into contiguous chunks, one goroutine per
// chunk. Ranges below minChunk run inline to avoid goroutine overhead. Callers
// must ensure chunks write to disjoint output slots.
func For(n, minChunk int, fn func(start, end int)) {
	workers := runtime.NumCPU()
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
