package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RogueTeam/volley/cmd/volley/internal/router"
	"github.com/RogueTeam/volley/history"
	"github.com/RogueTeam/volley/keys"
	"github.com/RogueTeam/volley/report"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const ShutdownTimeout = 10 * time.Second

var logger = slog.Default()

const (
	ConfigFlag   = "config"
	DatabaseFlag = "database"
)

func configFlag() (flag *cli.StringFlag) {
	return &cli.StringFlag{
		Name:  ConfigFlag,
		Usage: "YAML configuration",
		Value: "config.yaml",
	}
}

func databaseFlag(value string, required bool) (flag *cli.StringFlag) {
	return &cli.StringFlag{
		Name:     DatabaseFlag,
		Usage:    "Badger database directory journaling batches",
		Value:    value,
		Required: required,
	}
}

// Opens the journal when a database path was given
func openHistory(path string) (store *history.Store, closeFn func(), err error) {
	if path == "" {
		return nil, func() {}, nil
	}

	db, err := history.Open(path)
	if err != nil {
		return nil, nil, err
	}
	s := history.New(history.Config{DB: db})
	return &s, func() { db.Close() }, nil
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Execute the transfers of the configuration",
	Flags: []cli.Flag{configFlag(), databaseFlag("", false)},
	Action: func(ctx context.Context, c *cli.Command) (err error) {
		cfg, err := LoadConfig(c.String(ConfigFlag))
		if err != nil {
			return err
		}

		ctrl, err := cfg.Compile(logger)
		if err != nil {
			return err
		}

		store, closeHistory, err := openHistory(c.String(DatabaseFlag))
		if err != nil {
			return err
		}
		defer closeHistory()

		batch := ctrl.Run(ctx, cfg.Requests())

		err = report.Table(os.Stdout, batch.Results)
		if err != nil {
			return err
		}
		fmt.Println()
		err = report.Statistics(os.Stdout, batch)
		if err != nil {
			return err
		}

		if store != nil {
			err = store.Save(batch)
			if err != nil {
				return fmt.Errorf("failed to journal batch: %w", err)
			}
		}
		return nil
	},
}

var keygenCommand = &cli.Command{
	Name:  "keygen",
	Usage: "Generate a new keypair file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "out",
			Usage:    "Keypair file to create",
			Required: true,
		},
	},
	Action: func(ctx context.Context, c *cli.Command) (err error) {
		var provider keys.Filesystem
		key, err := keys.Generate(provider.Path(c.String("out")))
		if err != nil {
			return err
		}
		fmt.Println(key.PublicKey())
		return nil
	},
}

var historyCommand = &cli.Command{
	Name:      "history",
	Usage:     "List journaled batches or show one of them",
	ArgsUsage: "[id]",
	Flags: []cli.Flag{
		databaseFlag("", true),
	},
	Action: func(ctx context.Context, c *cli.Command) (err error) {
		store, closeHistory, err := openHistory(c.String(DatabaseFlag))
		if err != nil {
			return err
		}
		defer closeHistory()

		if c.Args().Len() == 0 {
			batches, err := store.List()
			if err != nil {
				return err
			}
			for _, batch := range batches {
				fmt.Printf("%s\t%s\trequested=%d\tsuccessful=%d\tdropped=%d\n",
					batch.Id, batch.Started.Format(time.RFC3339), batch.Requested, batch.Successful, batch.Dropped)
			}
			return nil
		}

		id, err := uuid.Parse(c.Args().First())
		if err != nil {
			return fmt.Errorf("invalid batch id: %w", err)
		}
		batch, err := store.Get(id)
		if err != nil {
			return err
		}

		err = report.Table(os.Stdout, batch.Results)
		if err != nil {
			return err
		}
		fmt.Println()
		return report.Statistics(os.Stdout, batch)
	},
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Expose batch execution over HTTP",
	Flags: []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:  "listen",
			Usage: "Listen address",
			Value: "127.0.0.1:8080",
		},
		databaseFlag("volley.db", false),
	},
	Action: func(ctx context.Context, c *cli.Command) (err error) {
		cfg, err := LoadConfig(c.String(ConfigFlag))
		if err != nil {
			return err
		}

		ctrl, err := cfg.Compile(logger)
		if err != nil {
			return err
		}

		if c.String(DatabaseFlag) == "" {
			return errors.New("serve requires a database")
		}
		store, closeHistory, err := openHistory(c.String(DatabaseFlag))
		if err != nil {
			return err
		}
		defer closeHistory()

		e := gin.Default()
		var r = router.Router{
			Transfers: &ctrl,
			History:   store,
			Base:      e,
		}
		r.Register()

		server := &http.Server{
			Addr:    c.String("listen"),
			Handler: e,
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			logger.Info("listening", "address", server.Addr)
			err = server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() (err error) {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

var app = cli.Command{
	Name:  "volley",
	Usage: "Concurrent SOL transfer batches",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	},
	Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
		level := slog.LevelInfo
		if c.Bool("debug") {
			level = slog.LevelDebug
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return ctx, nil
	},
	Commands: []*cli.Command{
		runCommand,
		keygenCommand,
		historyCommand,
		serveCommand,
	},
}

func main() {
	ctx := context.TODO()
	err := app.Run(ctx, os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
