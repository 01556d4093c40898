package mock

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/RogueTeam/volley/ledgers"
	"github.com/RogueTeam/volley/random"
	"github.com/RogueTeam/volley/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

var (
	ErrUnknownAnchor        = errors.New("blockhash not found")
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrDuplicateTransaction = errors.New("transaction already submitted")
)

// Levels reported to destinations without a script, one per query
var DefaultProgression = []ledgers.ConfirmationLevel{
	ledgers.LevelProcessed,
	ledgers.LevelConfirmed,
	ledgers.LevelFinalized,
}

// Script overrides the behaviour for transfers sent to a destination
type Script struct {
	// Error returned by Submit
	SubmitErr error
	// Statuses returned by consecutive queries. The last one repeats
	Statuses []ledgers.Status
	// Error returned by every status query
	StatusErr error
}

type Config struct {
	// Delay applied to every call
	Latency time.Duration
	// Error returned by RecentAnchor
	AnchorErr error
	// Per destination behaviour
	Scripts map[solana.PublicKey]Script
	// Levels for destinations without script. Defaults to DefaultProgression
	Progression []ledgers.ConfirmationLevel
}

// Transfer is a submission accepted by the mock
type Transfer struct {
	Id          solana.Signature
	Source      solana.PublicKey
	Destination solana.PublicKey
	Lamports    uint64
	Blockhash   solana.Hash
}

type record struct {
	transfer Transfer
	queries  int
}

// Mock implements the ledgers.Ledger interface for testing purposes.
type Mock struct {
	mu          sync.Mutex
	rand        *rand.Rand
	latency     time.Duration
	anchorErr   error
	scripts     map[solana.PublicKey]Script
	progression []ledgers.ConfirmationLevel
	anchors     map[solana.Hash]struct{}
	records     map[solana.Signature]*record
	order       []solana.Signature
}

var _ ledgers.Ledger = (*Mock)(nil)

// New creates a new Mock ledger.
func New(config Config) *Mock {
	m := &Mock{
		rand:        random.CryptoRand(),
		latency:     config.Latency,
		anchorErr:   config.AnchorErr,
		scripts:     config.Scripts,
		progression: config.Progression,
		anchors:     make(map[solana.Hash]struct{}),
		records:     make(map[solana.Signature]*record),
	}
	if len(m.progression) == 0 {
		m.progression = DefaultProgression
	}
	return m
}

func (m *Mock) RecentAnchor(ctx context.Context) (anchor ledgers.Anchor, err error) {
	err = utils.Sleep(ctx, m.latency)
	if err != nil {
		return anchor, err
	}

	if m.anchorErr != nil {
		return anchor, m.anchorErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	anchor = ledgers.Anchor{
		Blockhash:            solana.HashFromBytes(random.Bytes(m.rand, solana.PublicKeyLength)),
		LastValidBlockHeight: uint64(len(m.anchors)) + 150,
	}
	m.anchors[anchor.Blockhash] = struct{}{}
	return anchor, nil
}

// Extracts the system transfer carried by tx
func decodeTransfer(tx *solana.Transaction) (transfer Transfer, err error) {
	msg := tx.Message
	if len(msg.Instructions) != 1 {
		return transfer, fmt.Errorf("%w: expecting a single instruction", ErrInvalidTransaction)
	}
	ix := msg.Instructions[0]

	if int(ix.ProgramIDIndex) >= len(msg.AccountKeys) || !msg.AccountKeys[ix.ProgramIDIndex].Equals(solana.SystemProgramID) {
		return transfer, fmt.Errorf("%w: not a system program instruction", ErrInvalidTransaction)
	}

	if len(ix.Data) != 12 || binary.LittleEndian.Uint32(ix.Data[:4]) != system.Instruction_Transfer {
		return transfer, fmt.Errorf("%w: not a transfer", ErrInvalidTransaction)
	}

	if len(ix.Accounts) != 2 {
		return transfer, fmt.Errorf("%w: expecting two accounts", ErrInvalidTransaction)
	}
	for _, index := range ix.Accounts {
		if int(index) >= len(msg.AccountKeys) {
			return transfer, fmt.Errorf("%w: account index out of range", ErrInvalidTransaction)
		}
	}

	transfer = Transfer{
		Source:      msg.AccountKeys[ix.Accounts[0]],
		Destination: msg.AccountKeys[ix.Accounts[1]],
		Lamports:    binary.LittleEndian.Uint64(ix.Data[4:]),
		Blockhash:   msg.RecentBlockhash,
	}
	return transfer, nil
}

func (m *Mock) Submit(ctx context.Context, req ledgers.SubmitRequest) (submit ledgers.Submit, err error) {
	err = utils.Sleep(ctx, m.latency)
	if err != nil {
		return submit, err
	}

	id, err := ledgers.TransactionId(req.Transaction)
	if err != nil {
		return submit, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	err = req.Transaction.VerifySignatures()
	if err != nil {
		return submit, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	transfer, err := decodeTransfer(req.Transaction)
	if err != nil {
		return submit, err
	}
	transfer.Id = id

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, found := m.anchors[transfer.Blockhash]; !found {
		return submit, ErrUnknownAnchor
	}

	if script, found := m.scripts[transfer.Destination]; found && script.SubmitErr != nil {
		return submit, script.SubmitErr
	}

	if _, found := m.records[id]; found {
		return submit, ErrDuplicateTransaction
	}

	m.records[id] = &record{transfer: transfer}
	m.order = append(m.order, id)
	return ledgers.Submit{Id: id}, nil
}

func (m *Mock) Status(ctx context.Context, req ledgers.StatusRequest) (status ledgers.Status, err error) {
	err = utils.Sleep(ctx, m.latency)
	if err != nil {
		return status, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, found := m.records[req.Id]
	if !found {
		return ledgers.Status{Found: false}, nil
	}
	r.queries++

	script, scripted := m.scripts[r.transfer.Destination]
	switch {
	case scripted && script.StatusErr != nil:
		return status, script.StatusErr
	case scripted && len(script.Statuses) > 0:
		return script.Statuses[min(r.queries, len(script.Statuses))-1], nil
	default:
		return ledgers.Status{
			Found: true,
			Level: m.progression[min(r.queries, len(m.progression))-1],
			Slot:  uint64(r.queries),
		}, nil
	}
}

// Transfers returns the accepted submissions in arrival order
func (m *Mock) Transfers() (transfers []Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transfers = make([]Transfer, 0, len(m.order))
	for _, id := range m.order {
		transfers = append(transfers, m.records[id].transfer)
	}
	return transfers
}

// Queries returns how many status queries were made for id
func (m *Mock) Queries(id solana.Signature) (queries int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, found := m.records[id]
	if !found {
		return 0
	}
	return r.queries
}
