package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/ibc"
)

// packetOp runs one lifecycle operation against the stored ledger and commits its output.
type packetOp func(h *handler.Handler, reader handler.ChannelReader) (*handler.Output, error)

func (a *app) runPacketOp(cmd *cobra.Command, op packetOp) error {
	ctx := cmd.Context()
	h, err := a.handler()
	if err != nil {
		return err
	}

	store, db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	state, err := store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	out, err := op(h, state)
	if err != nil {
		return err
	}
	if err := store.Commit(ctx, out); err != nil {
		return fmt.Errorf("commit %s: %w", out.Result.Kind(), err)
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

// messageCmd builds a command reading a JSON message of type M and running it through run.
func messageCmd[M any](a *app, use, short, long string, run func(h *handler.Handler, reader handler.ChannelReader, msg M) (*handler.Output, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <message.json|->",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var msg M
			if err := readJSON(args[0], cmd.InOrStdin(), &msg); err != nil {
				return err
			}
			return a.runPacketOp(cmd, func(h *handler.Handler, reader handler.ChannelReader) (*handler.Output, error) {
				return run(h, reader, msg)
			})
		},
	}
}

func sendCmd(a *app) *cobra.Command {
	return messageCmd(a, "send", "Send a packet",
		`Send a packet. The message is a packet; its timeout height is relative to the host's
current height and its timeout timestamp relative to the host's latest timestamp.`,
		func(h *handler.Handler, reader handler.ChannelReader, packet ibc.Packet) (*handler.Output, error) {
			return h.SendPacket(reader, packet)
		})
}

func recvCmd(a *app) *cobra.Command {
	return messageCmd(a, "recv", "Receive a packet",
		`Receive a packet with a proof of its commitment on the sending chain.`,
		func(h *handler.Handler, reader handler.ChannelReader, msg handler.MsgRecvPacket) (*handler.Output, error) {
			if err := msg.ValidateBasic(); err != nil {
				return nil, err
			}
			return h.RecvPacket(reader, msg)
		})
}

func writeAckCmd(a *app) *cobra.Command {
	return messageCmd(a, "write-ack", "Write the acknowledgement of a received packet", "",
		func(h *handler.Handler, reader handler.ChannelReader, msg handler.MsgWriteAcknowledgement) (*handler.Output, error) {
			if err := msg.ValidateBasic(); err != nil {
				return nil, err
			}
			return h.WriteAcknowledgement(reader, msg)
		})
}

func ackCmd(a *app) *cobra.Command {
	return messageCmd(a, "ack", "Acknowledge a sent packet",
		`Acknowledge a sent packet with a proof that the receiving chain wrote the acknowledgement.`,
		func(h *handler.Handler, reader handler.ChannelReader, msg handler.MsgAcknowledgement) (*handler.Output, error) {
			if err := msg.ValidateBasic(); err != nil {
				return nil, err
			}
			return h.AcknowledgePacket(reader, msg)
		})
}

func timeoutCmd(a *app) *cobra.Command {
	return messageCmd(a, "timeout", "Time out a sent packet",
		`Time out a sent packet with a proof that the receiving chain did not receive it
before its timeout. A timeout on an ordered channel closes the channel.`,
		func(h *handler.Handler, reader handler.ChannelReader, msg handler.MsgTimeout) (*handler.Output, error) {
			if err := msg.ValidateBasic(); err != nil {
				return nil, err
			}
			return h.TimeoutPacket(reader, msg)
		})
}
