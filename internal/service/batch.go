package service

import (
	"context"
	"sync"

	"github.com/UnknownOlympus/haulage/internal/models"
)

// BatchResult is the outcome of resolving one address of a batch.
type BatchResult struct {
	Query    string           `json:"query"`
	Location *models.Location `json:"location,omitempty"`
	Error    string           `json:"error,omitempty"`
	Err      error            `json:"-"`
}

type batchJob struct {
	idx   int
	query string
}

// ResolveBatch resolves many addresses with a pool of workers, filling the geocode cache on the way.
// Results keep the order of addresses; a failed address does not stop the others.
func (qs *QuoteService) ResolveBatch(ctx context.Context, addresses []string) []BatchResult {
	results := make([]BatchResult, len(addresses))
	if len(addresses) == 0 {
		return results
	}

	workers := min(qs.numWorkers, len(addresses))
	qs.log.InfoContext(ctx, "Resolving address batch", "jobs", len(addresses), "num_workers", workers)

	jobs := make(chan batchJob, len(addresses))
	var wgr sync.WaitGroup

	for i := 1; i <= workers; i++ {
		wgr.Add(1)
		go qs.worker(ctx, i, &wgr, jobs, results)
	}

	for idx, query := range addresses {
		jobs <- batchJob{idx: idx, query: query}
	}
	close(jobs)

	wgr.Wait()
	qs.log.InfoContext(ctx, "Address batch finished")

	return results
}

// worker resolves jobs until the channel is drained. Each job writes only its own slot of results.
func (qs *QuoteService) worker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan batchJob,
	results []BatchResult,
) {
	defer wg.Done()
	for job := range jobs {
		qs.metrics.ActiveWorkers.Inc()
		qs.log.DebugContext(ctx, "Resolving address", "worker", idx, "query", job.query)

		res := BatchResult{Query: job.query}
		loc, err := qs.ResolveAddress(ctx, job.query)
		if err != nil {
			res.Err = err
			res.Error = err.Error()
			qs.log.DebugContext(ctx, "Worker failed to resolve address", "worker", idx, "query", job.query,
				"error", err)
		} else {
			res.Location = loc
		}
		results[job.idx] = res

		qs.metrics.ActiveWorkers.Dec()
	}
}
