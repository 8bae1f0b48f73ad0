package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/strangelove-ventures/packetcore/blockdb"
	"github.com/strangelove-ventures/packetcore/config"
	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/log"
	"github.com/strangelove-ventures/packetcore/mockclient"
)

// These must be global for the Makefile to build properly (ldflags).
var (
	Version = "dev"
	GitSha  = "unknown"
)

// app is the state shared by every command, filled in before a command runs.
type app struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg config.Config
	log log.LoggerCloser
}

func newRootCmd() *cobra.Command {
	a := new(app)
	root := &cobra.Command{
		Use:   "packetcore",
		Short: "Validate and record IBC packet lifecycle transitions against a local ledger",
		Long: `Validate and record IBC packet lifecycle transitions against a local ledger.

The ledger lives in a sqlite database initialised from a genesis fixture. Lifecycle
messages are read as JSON, validated, and on success committed together with their events.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.log.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $HOME/.packetcore/config.{toml,yaml})")
	flags.StringVar(&a.dbPath, "db", "", "ledger database path, overrides database.path")
	flags.StringVar(&a.logLevel, "log-level", "", "log level, overrides log.level")

	root.AddCommand(
		initCmd(a),
		genesisCmd(),
		hostCmd(a),
		sendCmd(a),
		recvCmd(a),
		writeAckCmd(a),
		ackCmd(a),
		timeoutCmd(a),
		eventsCmd(a),
		channelsCmd(a),
		traceCmd(a),
		configCmd(a),
		versionCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	lc, err := log.Open(cfg.Log.File, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("open logger: %w", err)
	}
	a.log = lc
	return nil
}

// openStore connects to and migrates the ledger database. The caller closes the returned db.
func (a *app) openStore(ctx context.Context) (*blockdb.Store, *sql.DB, error) {
	db, err := blockdb.ConnectDB(ctx, a.cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := blockdb.Migrate(ctx, db, GitSha); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", a.cfg.Database.Path, err)
	}
	return blockdb.NewStore(db, mockclient.Codec()), db, nil
}

func (a *app) handler() (*handler.Handler, error) {
	policy, err := a.cfg.MissingCommitmentPolicy()
	if err != nil {
		return nil, err
	}
	return handler.New(a.log.Logger, handler.WithMissingCommitmentPolicy(policy)), nil
}

// readJSON decodes the file at path into v. A path of "-" reads in.
func readJSON(path string, in io.Reader, v any) error {
	var (
		bz  []byte
		err error
	)
	if path == "-" {
		bz, err = io.ReadAll(in)
	} else {
		bz, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
