package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RogueTeam/volley/decimal"
	"github.com/RogueTeam/volley/internal/ledgerrpc/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `
rpc_url: http://127.0.0.1:8899
rpc:
  username: user
  password: pass
  headers:
    X-Token: abc
  timeout: 30s
confirmation:
  poll-interval: 500ms
  poll-attempts: 10
  query-retries: 2
max-concurrent-jobs: 4
transfers:
  - sender_keypair_path: ~/.config/solana/id.json
    receiver_address: 11111111111111111111111111111111
    amount_sol: 0.001
  - sender_keypair_path: /tmp/other.json
    receiver_address: SysvarRent111111111111111111111111111111111
    amount_sol: "2.5"
`

func writeManifest(t *testing.T, contents string) (path string) {
	path = filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(contents), 0600)
	require.Nil(t, err, "failed to write manifest")
	return path
}

func Test_LoadConfig(t *testing.T) {
	t.Run("Manifest", func(t *testing.T) {
		assertions := assert.New(t)

		cfg, err := LoadConfig(writeManifest(t, manifest))
		if !assertions.Nil(err, "failed to load manifest") {
			return
		}
		assertions.Equal("http://127.0.0.1:8899", cfg.RpcUrl)
		if assertions.NotNil(cfg.Rpc.Username) && assertions.NotNil(cfg.Rpc.Password) {
			assertions.Equal("user", *cfg.Rpc.Username)
			assertions.Equal("pass", *cfg.Rpc.Password)
		}
		assertions.Equal("abc", cfg.Rpc.Headers["X-Token"])
		assertions.Equal(30*time.Second, cfg.Rpc.Timeout)
		assertions.Equal(500*time.Millisecond, cfg.Confirmation.PollInterval)
		assertions.Equal(10, cfg.Confirmation.PollAttempts)
		assertions.Equal(2, cfg.Confirmation.QueryRetries)
		assertions.Equal(4, cfg.MaxConcurrentJobs)

		requests := cfg.Requests()
		if !assertions.Len(requests, 2) {
			return
		}
		assertions.Equal("~/.config/solana/id.json", requests[0].Signer)
		assertions.Equal("11111111111111111111111111111111", requests[0].Destination)
		assertions.True(requests[0].Amount.Equal(decimal.Must("0.001")))
		assertions.True(requests[1].Amount.Equal(decimal.Must("2.5")))
	})

	t.Run("Missing File", func(t *testing.T) {
		assertions := assert.New(t)

		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assertions.NotNil(err)
	})

	t.Run("Malformed Amount", func(t *testing.T) {
		assertions := assert.New(t)

		_, err := LoadConfig(writeManifest(t, "transfers:\n  - amount_sol: lots\n"))
		assertions.NotNil(err)
	})

	t.Run("Missing Amount", func(t *testing.T) {
		assertions := assert.New(t)

		contents := "rpc_url: http://127.0.0.1:8899\ntransfers:\n" +
			"  - sender_keypair_path: /tmp/id.json\n    receiver_address: 11111111111111111111111111111111\n    amount_sol: 0.5\n" +
			"  - sender_keypair_path: /tmp/id.json\n    receiver_address: 11111111111111111111111111111111\n"
		_, err := LoadConfig(writeManifest(t, contents))
		assertions.ErrorIs(err, decimal.ErrMissingAmount)
	})
}

func Test_Compile(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assertions := assert.New(t)

		cfg, err := LoadConfig(writeManifest(t, manifest))
		require.Nil(t, err, "failed to load manifest")

		_, err = cfg.Compile(nil)
		assertions.Nil(err, "failed to compile")
	})

	t.Run("Invalid Url", func(t *testing.T) {
		assertions := assert.New(t)

		cfg := Config{RpcUrl: "localhost:8899"}
		_, err := cfg.Compile(nil)
		assertions.ErrorIs(err, rpc.ErrInvalidUrl)
	})

	t.Run("Digest And Proxy", func(t *testing.T) {
		assertions := assert.New(t)

		user, pass := "user", "pass"
		cfg := Config{RpcUrl: "http://127.0.0.1:8899", Rpc: RPC{Username: &user, Password: &pass, Socks5: "127.0.0.1:9050"}}
		_, err := cfg.Compile(nil)
		assertions.ErrorIs(err, rpc.ErrConflictingSettings)
	})

	t.Run("Incomplete Auth", func(t *testing.T) {
		user, pass := "user", "pass"
		type Test struct {
			Name string
			Rpc  RPC
		}
		tests := []Test{
			{Name: "Username Only", Rpc: RPC{Username: &user}},
			{Name: "Password Only", Rpc: RPC{Password: &pass}},
		}
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				assertions := assert.New(t)

				cfg := Config{RpcUrl: "http://127.0.0.1:8899", Rpc: test.Rpc}
				_, err := cfg.Compile(nil)
				assertions.ErrorIs(err, rpc.ErrIncompleteAuth)
			})
		}
	})
}
