package transfers

import (
	"context"
	"fmt"

	"github.com/RogueTeam/volley/ledgers"
	"github.com/RogueTeam/volley/utils"
)

// Not seen by the ledger yet. Never leaves Confirm
const statusWaiting Status = "waiting"

// transition applies a status snapshot to the current state
func transition(current Status, snapshot ledgers.Status) (next Status, reason string) {
	if !snapshot.Found {
		return current, ""
	}
	if snapshot.Err != "" {
		return StatusRejected, snapshot.Err
	}

	switch snapshot.Level {
	case ledgers.LevelFinalized:
		return StatusFinalized, ""
	case ledgers.LevelConfirmed:
		return StatusConfirmed, ""
	case ledgers.LevelProcessed:
		return StatusProcessed, ""
	default:
		return current, ""
	}
}

// Confirm polls the ledger until pending reaches a terminal status.
// At most PollAttempts queries are made, with PollInterval between them
func (c *Controller) Confirm(ctx context.Context, pending Pending) (result Result) {
	result = Result{
		Id:            pending.Id,
		Source:        pending.Source,
		Destination:   pending.Destination,
		ExecutionTime: pending.Latency,
		Amount:        pending.Amount,
		Status:        statusWaiting,
	}
	logger := c.logger.With("id", pending.Id.String())

	var (
		failures int
		queryErr error
	)
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		result.Attempts = attempt

		snapshot, err := c.ledger.Status(ctx, ledgers.StatusRequest{Id: pending.Id})
		switch {
		case err != nil && ctx.Err() != nil:
			result.Status = StatusUnknown
			result.Error = fmt.Errorf("%w: %w", ErrConfirmAborted, ctx.Err()).Error()
			return result
		case err != nil:
			failures++
			queryErr = fmt.Errorf("%w: %w", ErrStatusQuery, err)
			logger.Debug("status query failed", "attempt", attempt, "error", err)
			if failures > c.queryRetries {
				result.Status = StatusUnknown
				result.Error = queryErr.Error()
				return result
			}
		default:
			failures = 0
			queryErr = nil
			if snapshot.Found {
				result.Level = snapshot.Level
			}
			result.Status, result.Error = transition(result.Status, snapshot)
			logger.Debug("polled", "attempt", attempt, "status", result.Status)
			if result.Status.Terminal() {
				return result
			}
		}

		if attempt == c.pollAttempts {
			break
		}

		err = utils.Sleep(ctx, c.pollInterval)
		if err != nil {
			result.Status = StatusUnknown
			result.Error = fmt.Errorf("%w: %w", ErrConfirmAborted, err).Error()
			return result
		}
	}

	// Retries ran out the budget
	if queryErr != nil {
		result.Status = StatusUnknown
		result.Error = queryErr.Error()
		return result
	}

	result.Status = StatusTimedOut
	return result
}
