package router

import (
	"errors"
	"fmt"
	"time"

	"github.com/RogueTeam/volley/decimal"
	"github.com/RogueTeam/volley/ledgers"
	"github.com/RogueTeam/volley/transfers"
	"github.com/google/uuid"
)

var (
	ErrNoTransfers = errors.New("no transfers requested")
)

type (
	Transfer struct {
		SenderKeypairPath string          `json:"sender_keypair_path"`
		ReceiverAddress   string          `json:"receiver_address"`
		AmountSol         decimal.Decimal `json:"amount_sol"`
	}
	Submit struct {
		Transfers []Transfer `json:"transfers"`
	}
)

func SubmitToTransfers(src *Submit) (requests []transfers.Request, err error) {
	if len(src.Transfers) == 0 {
		return nil, ErrNoTransfers
	}

	requests = make([]transfers.Request, 0, len(src.Transfers))
	for index, transfer := range src.Transfers {
		if !transfer.AmountSol.Valid() {
			return nil, fmt.Errorf("transfer %d: %w", index, decimal.ErrMissingAmount)
		}
		requests = append(requests, transfers.Request{
			Signer:      transfer.SenderKeypairPath,
			Destination: transfer.ReceiverAddress,
			Amount:      transfer.AmountSol,
		})
	}
	return requests, nil
}

type (
	Result struct {
		// Transaction signature
		Id            string                    `json:"id"`
		Source        string                    `json:"source"`
		Destination   string                    `json:"destination"`
		ExecutionTime float64                   `json:"executionTimeMs"`
		Status        transfers.Status          `json:"status"`
		Error         string                    `json:"error,omitzero"`
		Amount        decimal.Decimal           `json:"amount"`
		Level         ledgers.ConfirmationLevel `json:"level,omitzero"`
		Attempts      int                       `json:"attempts"`
	}
	Batch struct {
		Id                 uuid.UUID `json:"id"`
		Started            time.Time `json:"started"`
		Requested          int       `json:"requested"`
		Dropped            int       `json:"dropped"`
		Successful         int       `json:"successful"`
		TotalExecutionTime float64   `json:"totalExecutionTimeMs"`
		// Omitted when listing
		Results []Result `json:"results,omitempty"`
	}
)

func milliseconds(d time.Duration) (ms float64) {
	return float64(d) / float64(time.Millisecond)
}

// Convert from the transfers Batch to the exposed representation
func BatchFromTransfers(src *transfers.Batch, withResults bool) (batch Batch) {
	batch = Batch{
		Id:                 src.Id,
		Started:            src.Started,
		Requested:          src.Requested,
		Dropped:            src.Dropped,
		Successful:         src.Successful,
		TotalExecutionTime: milliseconds(src.TotalExecutionTime),
	}
	if !withResults {
		return batch
	}

	batch.Results = make([]Result, 0, len(src.Results))
	for _, result := range src.Results {
		batch.Results = append(batch.Results, Result{
			Id:            result.Id.String(),
			Source:        result.Source,
			Destination:   result.Destination,
			ExecutionTime: milliseconds(result.ExecutionTime),
			Status:        result.Status,
			Error:         result.Error,
			Amount:        result.Amount,
			Level:         result.Level,
			Attempts:      result.Attempts,
		})
	}
	return batch
}
