package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strangelove-ventures/packetcore/blockdb"
)

func eventsCmd(a *app) *cobra.Command {
	var port, channel string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List committed events",
		Long: `List committed events in commit order. With --port or --channel only events where
either packet end matches are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			q := blockdb.NewQuery(db)
			events, err := q.PacketEvents(cmd.Context(), port, channel)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tHEIGHT\tSEQ\tSRC\tDST\tCONNECTION")
			for _, ev := range events {
				fmt.Fprintf(w, "%d\t%s\t%d-%d\t%s\t%s\t%s\t%s\n",
					ev.ID, ev.Type, ev.RevisionNumber, ev.RevisionHeight,
					nullableInt(ev.Sequence.Int64, ev.Sequence.Valid),
					end(ev.SrcPort.String, ev.SrcChannel.String),
					end(ev.DstPort.String, ev.DstChannel.String),
					nullable(ev.ConnectionID.String, ev.ConnectionID.Valid),
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "only events with a packet end on this port")
	cmd.Flags().StringVar(&channel, "channel", "", "only events with a packet end on this channel")
	return cmd
}

func channelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "Summarise the packet records of every channel end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			summaries, err := blockdb.NewQuery(db).ChannelSummaries(cmd.Context())
			if err != nil {
				return fmt.Errorf("query channels: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PORT\tCHANNEL\tSTATE\tORDERING\tCOMMITMENTS\tRECEIPTS\tACKS\tNEXT SEND")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					s.PortID, s.ChannelID, s.State, s.Ordering, s.Commitments, s.Receipts, s.Acks,
					nullableInt(s.NextSequenceSend.Int64, s.NextSequenceSend.Valid),
				)
			}
			return w.Flush()
		},
	}
}

func end(port, channel string) string {
	if port == "" && channel == "" {
		return "-"
	}
	return port + "/" + channel
}

func nullable(s string, valid bool) string {
	if !valid || s == "" {
		return "-"
	}
	return s
}

func nullableInt(v int64, valid bool) string {
	if !valid {
		return "-"
	}
	return fmt.Sprint(v)
}
