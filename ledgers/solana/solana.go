package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RogueTeam/volley/ledgers"
	"github.com/gagliardetto/solana-go/rpc"
)

var (
	ErrEmptyResponse = errors.New("empty rpc response")
)

type Config struct {
	// Json-rpc client connected to the cluster
	Client *rpc.Client
	// Commitment used when fetching anchors. Defaults to finalized
	Commitment rpc.CommitmentType
}

// Ledger implements ledgers.Ledger over the solana json-rpc api
type Ledger struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

var _ ledgers.Ledger = (*Ledger)(nil)

func (l *Ledger) RecentAnchor(ctx context.Context) (anchor ledgers.Anchor, err error) {
	latest, err := l.client.GetLatestBlockhash(ctx, l.commitment)
	if err != nil {
		return anchor, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	if latest == nil || latest.Value == nil {
		return anchor, ErrEmptyResponse
	}

	anchor = ledgers.Anchor{
		Blockhash:            latest.Value.Blockhash,
		LastValidBlockHeight: latest.Value.LastValidBlockHeight,
	}
	return anchor, nil
}

func (l *Ledger) Submit(ctx context.Context, req ledgers.SubmitRequest) (submit ledgers.Submit, err error) {
	if req.Transaction == nil {
		return submit, ledgers.ErrNoSignature
	}

	id, err := l.client.SendTransaction(ctx, req.Transaction)
	if err != nil {
		return submit, fmt.Errorf("failed to send transaction: %w", err)
	}
	return ledgers.Submit{Id: id}, nil
}

func convertLevel(s rpc.ConfirmationStatusType) (level ledgers.ConfirmationLevel) {
	switch s {
	case rpc.ConfirmationStatusProcessed:
		return ledgers.LevelProcessed
	case rpc.ConfirmationStatusConfirmed:
		return ledgers.LevelConfirmed
	case rpc.ConfirmationStatusFinalized:
		return ledgers.LevelFinalized
	default:
		return ledgers.LevelNone
	}
}

// Renders the transaction error reported by the cluster
func encodeErr(v any) (reason string) {
	if v == nil {
		return ""
	}
	contents, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(contents)
}

func (l *Ledger) Status(ctx context.Context, req ledgers.StatusRequest) (status ledgers.Status, err error) {
	statuses, err := l.client.GetSignatureStatuses(ctx, false, req.Id)
	if err != nil {
		return status, fmt.Errorf("failed to get signature statuses: %w", err)
	}
	if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return ledgers.Status{Found: false}, nil
	}

	s := statuses.Value[0]
	status = ledgers.Status{
		Found: true,
		Level: convertLevel(s.ConfirmationStatus),
		Err:   encodeErr(s.Err),
		Slot:  s.Slot,
	}
	return status, nil
}

func New(config Config) (l *Ledger) {
	l = &Ledger{
		client:     config.Client,
		commitment: config.Commitment,
	}
	if l.commitment == "" {
		l.commitment = rpc.CommitmentFinalized
	}
	return l
}
