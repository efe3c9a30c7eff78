package ingesting

import (
	"runtime"
	"sync"

	"TopAnalyzer/pkg/series"
)

// Result is the outcome of ingesting one file.
type Result struct {
	Path    string
	Store   *series.Store
	Summary *Summary
	Err     error
}

// IngestFiles ingests every path with a pool of workers. Each file gets its own store;
// nothing is shared or merged between them. Results are returned in the order of paths.
func IngestFiles(paths []string, workers int, opts ...Option) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]Result, len(paths))
	jobs := make(chan int, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				path := paths[idx]
				store, sum, err := IngestFile(path, opts...)
				results[idx] = Result{Path: path, Store: store, Summary: sum, Err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
