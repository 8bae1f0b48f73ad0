package handler

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// TimeoutPacket validates a timeout relayed back to the sending chain.
//
// The counterparty's proven height or timestamp must have reached the packet's timeout, and
// the counterparty must prove it never received the packet: absence of the receipt on
// unordered channels, or a next receive sequence not past the packet on ordered channels.
// A timeout on an ordered channel closes the channel, since ordering can no longer be kept.
func (h *Handler) TimeoutPacket(reader ChannelReader, msg MsgTimeout) (*Output, error) {
	out, err := h.timeoutPacket(reader, msg)
	if err != nil {
		return nil, h.rejected("timeout_packet", msg.Packet, err)
	}
	return h.accepted("timeout_packet", msg.Packet, out), nil
}

func (h *Handler) timeoutPacket(reader ChannelReader, msg MsgTimeout) (*Output, error) {
	packet := msg.Packet
	if err := checkRelayed(packet); err != nil {
		return nil, err
	}

	channel, err := openChannel(reader, packet.SourcePort, packet.SourceChannel)
	if err != nil {
		return nil, err
	}
	if err := authenticate(reader, packet.SourcePort); err != nil {
		return nil, err
	}
	if err := counterpartyIs(channel, packet.DestinationPort, packet.DestinationChannel); err != nil {
		return nil, err
	}
	p, err := resolve(reader, channel, false)
	if err != nil {
		return nil, err
	}

	consensus, err := p.consensusAt(reader, msg.ProofHeight)
	if err != nil {
		return nil, err
	}
	proofTimestamp := consensus.Timestamp()
	heightElapsed := !packet.TimeoutHeight.IsZero() && msg.ProofHeight.GTE(packet.TimeoutHeight)
	timestampElapsed := packet.TimeoutTimestamp != 0 && uint64(proofTimestamp) >= packet.TimeoutTimestamp
	if !heightElapsed && !timestampElapsed {
		return nil, errorsmod.Wrapf(ibc.ErrPacketTimeoutNotReached,
			"proof height %s, proof timestamp %s, packet timeout height %s, packet timeout timestamp %d",
			msg.ProofHeight, proofTimestamp, packet.TimeoutHeight, packet.TimeoutTimestamp)
	}

	found, err := h.storedCommitment(reader, packet)
	if err != nil {
		return nil, err
	}
	if !found {
		return h.noOp("timeout_packet", packet), nil
	}

	switch channel.Ordering {
	case ibc.Ordered:
		if msg.NextSequenceRecv > packet.Sequence {
			return nil, errorsmod.Wrapf(ibc.ErrPacketAlreadyReceived, "next sequence receive %d is past packet sequence %d", msg.NextSequenceRecv, packet.Sequence)
		}
		seqPath := ibc.NextSequenceRecvPath(packet.DestinationPort, packet.DestinationChannel)
		if err := p.client.VerifyMembership(msg.ProofHeight, msg.ProofUnreceived, seqPath, ibc.SequenceBytes(msg.NextSequenceRecv)); err != nil {
			return nil, errorsmod.Wrapf(ibc.ErrInvalidProof, "next sequence receive at %s: %s", seqPath, err)
		}
	default:
		receiptPath := ibc.PacketReceiptPath(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
		if err := p.client.VerifyNonMembership(msg.ProofHeight, msg.ProofUnreceived, receiptPath); err != nil {
			return nil, errorsmod.Wrapf(ibc.ErrInvalidProof, "receipt absence at %s: %s", receiptPath, err)
		}
	}

	hostHeight := reader.HostCurrentHeight()
	result := TimeoutPacketResult{
		PortID:    packet.SourcePort,
		ChannelID: packet.SourceChannel,
		Sequence:  packet.Sequence,
	}
	events := []ibc.Event{ibc.TimeoutPacket{
		Height:   hostHeight,
		Packet:   packet,
		Ordering: channel.Ordering,
	}}
	logs := []string{"success: packet timeout"}

	if channel.Ordering == ibc.Ordered {
		closed := channel.WithState(ibc.ChannelClosed)
		result.Channel = &closed
		events = append(events, ibc.CloseChannel{
			Height:     hostHeight,
			PortID:     packet.SourcePort,
			ChannelID:  packet.SourceChannel,
			Channel:    closed,
			Connection: p.connectionID,
		})
		logs = append(logs, "channel closed: timeout on ordered channel")
	}

	return &Output{Result: result, Events: events, Logs: logs}, nil
}
