package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strangelove-ventures/packetcore/ibc"
	"github.com/strangelove-ventures/packetcore/ledger"
)

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [genesis.yaml]",
		Short: "Initialise the ledger database from a genesis fixture",
		Long: `Initialise the ledger database from a genesis fixture, replacing its contents.
Without an argument the default genesis is used; see "packetcore genesis".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := ledger.DefaultGenesis()
			if len(args) == 1 {
				var err error
				if g, err = ledger.LoadGenesis(args[0]); err != nil {
					return err
				}
			}
			state, err := g.State()
			if err != nil {
				return fmt.Errorf("invalid genesis: %w", err)
			}

			store, db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.SaveState(cmd.Context(), state); err != nil {
				return fmt.Errorf("save genesis: %w", err)
			}
			a.log.Info("Initialised ledger",
				zap.String("path", a.cfg.Database.Path),
				zap.Int("channels", len(state.Channels())),
				zap.Stringer("host_height", state.HostCurrentHeight()),
			)
			return nil
		},
	}
}

func genesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Print the default genesis fixture as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bz, err := ledger.DefaultGenesis().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bz)
			return err
		},
	}
}

func hostCmd(a *app) *cobra.Command {
	host := &cobra.Command{
		Use:   "host",
		Short: "Manage the host chain's block height",
	}
	host.AddCommand(&cobra.Command{
		Use:   "advance <height> <timestamp>",
		Short: "Advance the host to a new block",
		Long: `Advance the host to a new block. Height is {revision number}-{revision height}
and timestamp is in unix nanoseconds. Heights never go backwards.`,
		Example: "packetcore host advance 0-11 1700000000000000000",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := ibc.ParseHeight(args[0])
			if err != nil {
				return err
			}
			ts, err := ibc.ParseTimestamp(args[1])
			if err != nil {
				return err
			}

			store, db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.SaveHostBlock(cmd.Context(), height, ts); err != nil {
				return err
			}
			a.log.Info("Advanced host", zap.Stringer("height", height), zap.Stringer("timestamp", ts))
			return nil
		},
	})
	return host
}
