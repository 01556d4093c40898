// Package ledgers defines the capability the transfer pipeline consumes from a
// remote ledger: anchors for building transfers, submission, and status queries.
package ledgers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

var (
	ErrInvalidLevel = errors.New("invalid confirmation level")
	ErrNoSignature  = errors.New("transaction carries no signature")
)

// Commitment reached by a transaction
type ConfirmationLevel string

const (
	LevelNone      ConfirmationLevel = ""
	LevelProcessed ConfirmationLevel = "processed"
	LevelConfirmed ConfirmationLevel = "confirmed"
	LevelFinalized ConfirmationLevel = "finalized"
)

func (l ConfirmationLevel) Validate() (err error) {
	switch l {
	case LevelNone, LevelProcessed, LevelConfirmed, LevelFinalized:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLevel, string(l))
	}
}

type (
	Anchor struct {
		// Recent blockhash the transfer is built against
		Blockhash solana.Hash
		// Last block height at which the blockhash is accepted
		LastValidBlockHeight uint64
	}
	SubmitRequest struct {
		// Signed transaction
		Transaction *solana.Transaction
	}
	Submit struct {
		// Identifier assigned by the ledger
		Id solana.Signature
	}
	StatusRequest struct {
		// Identifier returned by Submit
		Id solana.Signature
	}
	Status struct {
		// False when the ledger has not seen the transaction yet
		Found bool
		// Confirmation level reached
		Level ConfirmationLevel
		// Error reported by the ledger. Empty on success
		Err string
		// Slot the transaction was processed in
		Slot uint64
	}
)

type Ledger interface {
	// Fetch a fresh anchor. Anchors expire and must not be reused
	RecentAnchor(ctx context.Context) (anchor Anchor, err error)

	// Send a signed transaction. Success only means the ledger accepted it for processing
	Submit(ctx context.Context, req SubmitRequest) (submit Submit, err error)

	// Query the confirmation status of a submitted transaction
	Status(ctx context.Context, req StatusRequest) (status Status, err error)
}

// NewTransfer builds a system transfer of lamports from key to destination and signs it
func NewTransfer(key solana.PrivateKey, destination solana.PublicKey, lamports uint64, anchor Anchor) (tx *solana.Transaction, err error) {
	source := key.PublicKey()

	tx, err = solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, source, destination).Build(),
		},
		anchor.Blockhash,
		solana.TransactionPayer(source),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	_, err = tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(source) {
			return &key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

// TransactionId returns the id a ledger assigns to tx: its first signature
func TransactionId(tx *solana.Transaction) (id solana.Signature, err error) {
	if tx == nil || len(tx.Signatures) == 0 {
		return id, ErrNoSignature
	}
	return tx.Signatures[0], nil
}
