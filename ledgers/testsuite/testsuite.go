package testsuite

import (
	"testing"
	"time"

	"github.com/RogueTeam/volley/ledgers"
	"github.com/RogueTeam/volley/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

// DataGenerator defines an interface for test data generation.
type DataGenerator interface {
	// Source returns a funded key
	Source() (key solana.PrivateKey)
	// Destination returns the address receiving transfers
	Destination() (address solana.PublicKey)
	// TransferAmount returns the amount of lamports to send for a transfer.
	TransferAmount() (lamports uint64)
	// PollInterval returns the delay between status queries
	PollInterval() (interval time.Duration)
}

// Test runs a comprehensive suite of tests for any Ledger implementation.
func Test(t *testing.T, l ledgers.Ledger, gen DataGenerator) {
	t.Run("RecentAnchor", func(t *testing.T) {
		assertions := assert.New(t)

		ctx, cancel := utils.NewContext()
		defer cancel()

		first, err := l.RecentAnchor(ctx)
		assertions.Nil(err, "failed to fetch anchor")
		assertions.NotEqual(solana.Hash{}, first.Blockhash, "anchor should carry a blockhash")
	})

	t.Run("Unknown Transaction", func(t *testing.T) {
		assertions := assert.New(t)

		ctx, cancel := utils.NewContext()
		defer cancel()

		status, err := l.Status(ctx, ledgers.StatusRequest{Id: solana.Signature{1}})
		assertions.Nil(err, "failed to query status")
		assertions.False(status.Found, "unknown transaction should not be found")
	})

	t.Run("Transfer", func(t *testing.T) {
		assertions := assert.New(t)

		ctx, cancel := utils.NewContext()
		defer cancel()

		anchor, err := l.RecentAnchor(ctx)
		if !assertions.Nil(err, "failed to fetch anchor") {
			return
		}

		tx, err := ledgers.NewTransfer(gen.Source(), gen.Destination(), gen.TransferAmount(), anchor)
		if !assertions.Nil(err, "failed to build transfer") {
			return
		}

		submit, err := l.Submit(ctx, ledgers.SubmitRequest{Transaction: tx})
		if !assertions.Nil(err, "failed to submit transfer") {
			return
		}
		assertions.Equal(tx.Signatures[0], submit.Id, "id should be the first signature")
		t.Logf("Submitted: %s", submit.Id)

		var status ledgers.Status
		for range 60 {
			status, err = l.Status(ctx, ledgers.StatusRequest{Id: submit.Id})
			if !assertions.Nil(err, "failed to query status") {
				return
			}
			if status.Found && status.Level == ledgers.LevelFinalized {
				break
			}
			err = utils.Sleep(ctx, gen.PollInterval())
			if !assertions.Nil(err, "polling interrupted") {
				return
			}
		}
		assertions.True(status.Found, "transfer should be found")
		assertions.Nil(status.Level.Validate(), "invalid level")
		assertions.Equal(ledgers.LevelFinalized, status.Level, "transfer should finalize")
		assertions.Empty(status.Err, "transfer should not fail")
	})
}
