package transfers

import (
	"log/slog"
	"time"

	"github.com/RogueTeam/volley/keys"
	"github.com/RogueTeam/volley/ledgers"
)

const (
	DefaultPollInterval = time.Second
	DefaultPollAttempts = 30
)

type Controller struct {
	ledger            ledgers.Ledger
	keys              keys.Provider
	logger            *slog.Logger
	pollInterval      time.Duration
	pollAttempts      int
	queryRetries      int
	maxConcurrentJobs int
}

type Config struct {
	// Ledger used for anchors, submissions and status queries.
	// Shared by every transfer of a batch
	Ledger ledgers.Ledger
	// Resolves signer references into keys
	Keys keys.Provider
	// Defaults to slog.Default()
	Logger *slog.Logger
	// Delay between status queries. Defaults to DefaultPollInterval
	PollInterval time.Duration
	// Maximum status queries per transfer. Defaults to DefaultPollAttempts
	PollAttempts int
	// Consecutive status query failures tolerated before giving up.
	// Retries count against PollAttempts
	QueryRetries int
	// Maximum transfers processed at the same time. Zero means unbounded
	MaxConcurrentJobs int
}

func New(config Config) (ctrl Controller) {
	ctrl.ledger = config.Ledger
	ctrl.keys = config.Keys
	ctrl.logger = config.Logger
	ctrl.pollInterval = config.PollInterval
	ctrl.pollAttempts = config.PollAttempts
	ctrl.queryRetries = max(config.QueryRetries, 0)
	ctrl.maxConcurrentJobs = config.MaxConcurrentJobs

	if ctrl.keys == nil {
		ctrl.keys = &keys.Filesystem{}
	}
	if ctrl.logger == nil {
		ctrl.logger = slog.Default()
	}
	if ctrl.pollInterval <= 0 {
		ctrl.pollInterval = DefaultPollInterval
	}
	if ctrl.pollAttempts <= 0 {
		ctrl.pollAttempts = DefaultPollAttempts
	}
	return ctrl
}
