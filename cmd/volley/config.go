package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/RogueTeam/volley/decimal"
	"github.com/RogueTeam/volley/internal/ledgerrpc/rpc"
	"github.com/RogueTeam/volley/keys"
	"github.com/RogueTeam/volley/ledgers/solana"
	"github.com/RogueTeam/volley/transfers"
	"gopkg.in/yaml.v3"
)

// Yaml configuration reference
type (
	RPC struct {
		Username *string           `yaml:"username,omitempty"`
		Password *string           `yaml:"password,omitempty"`
		Socks5   string            `yaml:"socks5,omitempty"`
		Headers  map[string]string `yaml:"headers,omitempty"`
		Timeout  time.Duration     `yaml:"timeout,omitempty"`
	}
	Confirmation struct {
		PollInterval time.Duration `yaml:"poll-interval,omitempty"`
		PollAttempts int           `yaml:"poll-attempts,omitempty"`
		QueryRetries int           `yaml:"query-retries,omitempty"`
	}
	Transfer struct {
		SenderKeypairPath string          `yaml:"sender_keypair_path"`
		ReceiverAddress   string          `yaml:"receiver_address"`
		AmountSol         decimal.Decimal `yaml:"amount_sol"`
	}
	Config struct {
		RpcUrl            string       `yaml:"rpc_url"`
		Rpc               RPC          `yaml:"rpc,omitempty"`
		Confirmation      Confirmation `yaml:"confirmation,omitempty"`
		MaxConcurrentJobs int          `yaml:"max-concurrent-jobs,omitempty"`
		Transfers         []Transfer   `yaml:"transfers"`
	}
)

func LoadConfig(path string) (cfg Config, err error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read configuration: %w", err)
	}

	err = yaml.Unmarshal(contents, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse configuration: %w", err)
	}

	for index, transfer := range cfg.Transfers {
		if !transfer.AmountSol.Valid() {
			return cfg, fmt.Errorf("transfer %d: %w", index, decimal.ErrMissingAmount)
		}
	}
	return cfg, nil
}

func (c *Config) Requests() (requests []transfers.Request) {
	requests = make([]transfers.Request, 0, len(c.Transfers))
	for _, transfer := range c.Transfers {
		requests = append(requests, transfers.Request{
			Signer:      transfer.SenderKeypairPath,
			Destination: transfer.ReceiverAddress,
			Amount:      transfer.AmountSol,
		})
	}
	return requests
}

func (c *Config) Compile(logger *slog.Logger) (ctrl transfers.Controller, err error) {
	rpcConfig := rpc.Config{
		Url:           c.RpcUrl,
		CustomHeaders: c.Rpc.Headers,
		Socks5:        c.Rpc.Socks5,
		Timeout:       c.Rpc.Timeout,
	}
	if c.Rpc.Username != nil {
		rpcConfig.Username = *c.Rpc.Username
	}
	if c.Rpc.Password != nil {
		rpcConfig.Password = *c.Rpc.Password
	}

	client, err := rpc.New(rpcConfig)
	if err != nil {
		return ctrl, fmt.Errorf("failed to prepare rpc client: %w", err)
	}

	ctrl = transfers.New(transfers.Config{
		Ledger:            solana.New(solana.Config{Client: client}),
		Keys:              &keys.Filesystem{},
		Logger:            logger,
		PollInterval:      c.Confirmation.PollInterval,
		PollAttempts:      c.Confirmation.PollAttempts,
		QueryRetries:      c.Confirmation.QueryRetries,
		MaxConcurrentJobs: c.MaxConcurrentJobs,
	})
	return ctrl, nil
}
