package transfers

import (
	"context"
	"sync"
	"time"

	"github.com/RogueTeam/volley/utils"
	"github.com/google/uuid"
)

// Run submits every request concurrently, waits for all of them, then
// confirms the accepted ones concurrently. Results keep the request order.
// Failed submissions are logged and dropped
func (c *Controller) Run(ctx context.Context, requests []Request) (batch Batch) {
	batch = Batch{
		Id:        uuid.New(),
		Started:   time.Now(),
		Requested: len(requests),
	}
	logger := c.logger.With("batch", batch.Id.String())

	var jobs = utils.NewJobPool(c.maxConcurrentJobs)
	var wg sync.WaitGroup

	// Each job owns its own slot
	submitted := make([]*Pending, len(requests))
	for index, req := range requests {
		jobs.Get()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer jobs.Put()

			pending, err := c.Submit(ctx, req)
			if err != nil {
				logger.Error("dropping transfer",
					"index", index,
					"signer", req.Signer,
					"destination", req.Destination,
					"error", err,
				)
				return
			}
			logger.Debug("submitted", "index", index, "id", pending.Id.String(), "latency", pending.Latency)
			submitted[index] = &pending
		}()
	}
	wg.Wait()

	pendings := make([]Pending, 0, len(requests))
	for _, pending := range submitted {
		if pending != nil {
			pendings = append(pendings, *pending)
		}
	}

	results := make([]Result, len(pendings))
	for index, pending := range pendings {
		jobs.Get()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer jobs.Put()

			results[index] = c.Confirm(ctx, pending)
			logger.Info("transfer settled",
				"id", pending.Id.String(),
				"status", results[index].Status,
				"attempts", results[index].Attempts,
			)
		}()
	}
	wg.Wait()

	batch.Results = results
	batch.Dropped = batch.Requested - len(results)
	batch.TotalExecutionTime, batch.Successful = Summarize(results)

	logger.Info("batch completed",
		"requested", batch.Requested,
		"dropped", batch.Dropped,
		"successful", batch.Successful,
		"execution-time", batch.TotalExecutionTime,
	)
	return batch
}
