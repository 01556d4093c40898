package transfers

import (
	"errors"
	"fmt"
	"time"

	"github.com/RogueTeam/volley/decimal"
	"github.com/RogueTeam/volley/ledgers"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrKeyResolution  = errors.New("failed to resolve signer")
	ErrAddressParse   = errors.New("failed to parse destination address")
	ErrAnchor         = errors.New("failed to fetch anchor")
	ErrSubmit         = errors.New("failed to submit transfer")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrStatusQuery    = errors.New("failed to query status")
	ErrConfirmAborted = errors.New("confirmation aborted")
)

type Status string

const (
	// Seen by the ledger
	StatusProcessed Status = "processed"
	// Voted by a supermajority
	StatusConfirmed Status = "confirmed"
	// Rooted. The only successful outcome
	StatusFinalized Status = "finalized"
	// The ledger reported an error
	StatusRejected Status = "rejected"
	// The polling budget was exhausted
	StatusTimedOut Status = "timed-out"
	// The status could not be queried
	StatusUnknown Status = "unknown"
)

func (s Status) Validate() (err error) {
	switch s {
	case StatusProcessed, StatusConfirmed, StatusFinalized, StatusRejected, StatusTimedOut, StatusUnknown:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStatus, string(s))
	}
}

// Terminal reports if no further polling happens after s
func (s Status) Terminal() (terminal bool) {
	switch s {
	case StatusFinalized, StatusRejected, StatusTimedOut, StatusUnknown:
		return true
	default:
		return false
	}
}

func (s Status) Success() (success bool) {
	return s == StatusFinalized
}

type (
	Request struct {
		// Keypair reference resolved by the keys provider
		Signer string
		// Base58 address receiving the funds
		Destination string
		// Amount in SOL
		Amount decimal.Decimal
	}
	Pending struct {
		// Signature assigned by the ledger
		Id solana.Signature
		// Signer address
		Source string
		// Receiver address
		Destination string
		// Time spent signing and submitting
		Latency time.Duration
		// Amount in SOL
		Amount decimal.Decimal
	}
	Result struct {
		// Signature assigned by the ledger
		Id solana.Signature
		// Signer address
		Source string
		// Receiver address
		Destination string
		// Submission latency. Polling time is not included
		ExecutionTime time.Duration
		// Terminal status
		Status Status
		// Rejection or query failure reason
		Error string
		// Amount in SOL
		Amount decimal.Decimal
		// Last confirmation level observed
		Level ledgers.ConfirmationLevel
		// Status queries performed
		Attempts int
	}
	Batch struct {
		Id        uuid.UUID
		Started   time.Time
		Requested int
		// Requests that never reached the ledger
		Dropped int
		// One entry per submitted request, in request order
		Results []Result
		// Sum of the results execution time
		TotalExecutionTime time.Duration
		// Results with finalized status
		Successful int
	}
)
