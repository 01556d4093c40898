package solana_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/RogueTeam/volley/internal/ledgerrpc/rpc"
	"github.com/RogueTeam/volley/keys"
	"github.com/RogueTeam/volley/ledgers"
	"github.com/RogueTeam/volley/ledgers/mock"
	ledger "github.com/RogueTeam/volley/ledgers/solana"
	"github.com/RogueTeam/volley/ledgers/testsuite"
	"github.com/RogueTeam/volley/utils"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	request struct {
		Id     any               `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	response struct {
		JSONRPC string            `json:"jsonrpc"`
		Id      any               `json:"id"`
		Result  any               `json:"result"`
		Error   *jsonrpc.RPCError `json:"error,omitempty"`
	}
)

// Serves the json-rpc methods used by the ledger on top of a mock
type cluster struct {
	ledger  *mock.Mock
	mu      sync.Mutex
	headers http.Header
	calls   map[string]int
}

func (c *cluster) handle(r *http.Request, req *request) (result any, err error) {
	ctx := r.Context()

	switch req.Method {
	case "getLatestBlockhash":
		anchor, err := c.ledger.RecentAnchor(ctx)
		if err != nil {
			return nil, err
		}
		result = solanarpc.GetLatestBlockhashResult{
			RPCContext: solanarpc.RPCContext{Context: solanarpc.Context{Slot: 1}},
			Value: &solanarpc.LatestBlockhashResult{
				Blockhash:            anchor.Blockhash,
				LastValidBlockHeight: anchor.LastValidBlockHeight,
			},
		}
		return result, nil
	case "sendTransaction":
		var encoded string
		err = json.Unmarshal(req.Params[0], &encoded)
		if err != nil {
			return nil, err
		}
		tx, err := solana.TransactionFromBase64(encoded)
		if err != nil {
			return nil, err
		}
		submit, err := c.ledger.Submit(ctx, ledgers.SubmitRequest{Transaction: tx})
		if err != nil {
			return nil, err
		}
		return submit.Id, nil
	case "getSignatureStatuses":
		var ids []solana.Signature
		err = json.Unmarshal(req.Params[0], &ids)
		if err != nil {
			return nil, err
		}
		var statuses solanarpc.GetSignatureStatusesResult
		for _, id := range ids {
			status, err := c.ledger.Status(ctx, ledgers.StatusRequest{Id: id})
			if err != nil {
				return nil, err
			}
			if !status.Found {
				statuses.Value = append(statuses.Value, nil)
				continue
			}
			entry := &solanarpc.SignatureStatusesResult{
				Slot:               status.Slot,
				ConfirmationStatus: solanarpc.ConfirmationStatusType(status.Level),
			}
			if status.Err != "" {
				entry.Err = map[string]any{"InstructionError": []any{0, status.Err}}
			}
			statuses.Value = append(statuses.Value, entry)
		}
		return statuses, nil
	default:
		return nil, errors.New("method not found")
	}
}

func (c *cluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	c.headers = r.Header.Clone()
	c.calls[req.Method]++
	c.mu.Unlock()

	res := response{JSONRPC: "2.0", Id: req.Id}
	res.Result, err = c.handle(r, &req)
	if err != nil {
		res.Result = nil
		res.Error = &jsonrpc.RPCError{Code: -32002, Message: err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&res)
}

func newCluster(t *testing.T, config mock.Config) (c *cluster, l *ledger.Ledger) {
	c = &cluster{ledger: mock.New(config), calls: map[string]int{}}
	server := httptest.NewServer(c)
	t.Cleanup(server.Close)

	client, err := rpc.New(rpc.Config{
		Url:           server.URL,
		CustomHeaders: map[string]string{"X-Token": "volley"},
	})
	require.Nil(t, err, "failed to prepare client")

	return c, ledger.New(ledger.Config{Client: client})
}

type generator struct {
	source      solana.PrivateKey
	destination solana.PublicKey
	amount      uint64
	interval    time.Duration
}

func (g *generator) Source() (key solana.PrivateKey)         { return g.source }
func (g *generator) Destination() (address solana.PublicKey) { return g.destination }
func (g *generator) TransferAmount() (lamports uint64)       { return g.amount }
func (g *generator) PollInterval() (interval time.Duration)  { return g.interval }

func newGenerator(t *testing.T) (gen *generator) {
	source, err := solana.NewRandomPrivateKey()
	require.Nil(t, err, "failed to generate source")
	destination, err := solana.NewRandomPrivateKey()
	require.Nil(t, err, "failed to generate destination")
	return &generator{source: source, destination: destination.PublicKey(), amount: 5_000}
}

func Test_Ledger(t *testing.T) {
	t.Run("Fake Cluster", func(t *testing.T) {
		_, l := newCluster(t, mock.Config{})
		testsuite.Test(t, l, newGenerator(t))
	})

	t.Run("Validator", func(t *testing.T) {
		url := os.Getenv("VOLLEY_RPC_URL")
		if url == "" {
			t.Skip("VOLLEY_RPC_URL not set")
		}
		keypair := os.Getenv("VOLLEY_KEYPAIR")
		if keypair == "" {
			t.Skip("VOLLEY_KEYPAIR not set")
		}

		var provider keys.Filesystem
		key, err := provider.Resolve(keypair)
		require.Nil(t, err, "failed to load funded keypair")

		client, err := rpc.New(rpc.Config{Url: url, Timeout: utils.DefaultTimeout})
		require.Nil(t, err, "failed to prepare client")

		gen := newGenerator(t)
		gen.source = key
		gen.amount = 1_000_000
		gen.interval = time.Second

		testsuite.Test(t, ledger.New(ledger.Config{Client: client}), gen)
	})
}

func Test_Mapping(t *testing.T) {
	t.Run("Headers", func(t *testing.T) {
		assertions := assert.New(t)

		c, l := newCluster(t, mock.Config{})
		_, err := l.RecentAnchor(t.Context())
		assertions.Nil(err, "failed to fetch anchor")
		c.mu.Lock()
		defer c.mu.Unlock()
		assertions.Equal("volley", c.headers.Get("X-Token"), "custom header should be sent")
		assertions.Equal(1, c.calls["getLatestBlockhash"])
	})

	t.Run("Rejected", func(t *testing.T) {
		assertions := assert.New(t)

		gen := newGenerator(t)
		_, l := newCluster(t, mock.Config{
			Scripts: map[solana.PublicKey]mock.Script{
				gen.destination: {Statuses: []ledgers.Status{
					{Found: true, Level: ledgers.LevelProcessed, Err: "insufficient funds"},
				}},
			},
		})

		ctx := t.Context()
		anchor, err := l.RecentAnchor(ctx)
		require.Nil(t, err, "failed to fetch anchor")
		tx, err := ledgers.NewTransfer(gen.source, gen.destination, gen.amount, anchor)
		require.Nil(t, err, "failed to build transfer")
		submit, err := l.Submit(ctx, ledgers.SubmitRequest{Transaction: tx})
		require.Nil(t, err, "failed to submit")

		status, err := l.Status(ctx, ledgers.StatusRequest{Id: submit.Id})
		assertions.Nil(err, "failed to query status")
		assertions.True(status.Found)
		assertions.Equal(ledgers.LevelProcessed, status.Level)
		assertions.JSONEq(`{"InstructionError":[0,"insufficient funds"]}`, status.Err)
	})

	t.Run("Submit Error", func(t *testing.T) {
		assertions := assert.New(t)

		gen := newGenerator(t)
		_, l := newCluster(t, mock.Config{
			Scripts: map[solana.PublicKey]mock.Script{
				gen.destination: {SubmitErr: errors.New("blockhash expired")},
			},
		})

		ctx := t.Context()
		anchor, err := l.RecentAnchor(ctx)
		require.Nil(t, err, "failed to fetch anchor")
		tx, err := ledgers.NewTransfer(gen.source, gen.destination, gen.amount, anchor)
		require.Nil(t, err, "failed to build transfer")

		_, err = l.Submit(ctx, ledgers.SubmitRequest{Transaction: tx})
		var rpcErr *jsonrpc.RPCError
		assertions.ErrorAs(err, &rpcErr, "should carry the rpc error")
		assertions.ErrorContains(err, "blockhash expired")
	})

	t.Run("Unsigned", func(t *testing.T) {
		assertions := assert.New(t)

		_, l := newCluster(t, mock.Config{})
		_, err := l.Submit(t.Context(), ledgers.SubmitRequest{})
		assertions.ErrorIs(err, ledgers.ErrNoSignature)
	})
}
