package transfers

import (
	"context"
	"fmt"
	"time"

	"github.com/RogueTeam/volley/ledgers"
	"github.com/gagliardetto/solana-go"
)

// Submit builds, signs and sends the transfer described by req.
// Latency covers signing and submission only. Nothing is retried
func (c *Controller) Submit(ctx context.Context, req Request) (pending Pending, err error) {
	lamports, err := req.Amount.ToUint64()
	if err != nil {
		return pending, fmt.Errorf("%w: %s: %w", ErrInvalidAmount, req.Amount, err)
	}

	key, err := c.keys.Resolve(req.Signer)
	if err != nil {
		return pending, fmt.Errorf("%w: %w", ErrKeyResolution, err)
	}

	destination, err := solana.PublicKeyFromBase58(req.Destination)
	if err != nil {
		return pending, fmt.Errorf("%w: %s: %w", ErrAddressParse, req.Destination, err)
	}

	anchor, err := c.ledger.RecentAnchor(ctx)
	if err != nil {
		return pending, fmt.Errorf("%w: %w", ErrAnchor, err)
	}

	started := time.Now()
	tx, err := ledgers.NewTransfer(key, destination, lamports, anchor)
	if err != nil {
		return pending, fmt.Errorf("%w: %w", ErrSubmit, err)
	}

	submit, err := c.ledger.Submit(ctx, ledgers.SubmitRequest{Transaction: tx})
	latency := time.Since(started)
	if err != nil {
		return pending, fmt.Errorf("%w: %w", ErrSubmit, err)
	}

	pending = Pending{
		Id:          submit.Id,
		Source:      key.PublicKey().String(),
		Destination: destination.String(),
		Latency:     latency,
		Amount:      req.Amount,
	}
	return pending, nil
}
