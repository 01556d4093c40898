package transfers

import (
	"time"

	"github.com/RogueTeam/volley/utils"
)

// Summarize computes the batch totals from its results
func Summarize(results []Result) (total time.Duration, successful int) {
	times := make([]time.Duration, 0, len(results))
	for _, result := range results {
		times = append(times, result.ExecutionTime)
		if result.Status.Success() {
			successful++
		}
	}
	return utils.Sum(times), successful
}
