package handler

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// RecvPacket validates delivery of a packet on the receiving chain.
//
// The packet commitment must be proven against the counterparty consensus state at the
// proof height, and the packet must not have timed out according to the host's current
// height and timestamp. Ordered channels accept only the next expected sequence;
// unordered channels reject any sequence already received.
func (h *Handler) RecvPacket(reader ChannelReader, msg MsgRecvPacket) (*Output, error) {
	out, err := h.recvPacket(reader, msg)
	if err != nil {
		return nil, h.rejected("recv_packet", msg.Packet, err)
	}
	return h.accepted("recv_packet", msg.Packet, out), nil
}

func (h *Handler) recvPacket(reader ChannelReader, msg MsgRecvPacket) (*Output, error) {
	packet := msg.Packet
	if err := checkRelayed(packet); err != nil {
		return nil, err
	}

	channel, err := openChannel(reader, packet.DestinationPort, packet.DestinationChannel)
	if err != nil {
		return nil, err
	}
	if err := authenticate(reader, packet.DestinationPort); err != nil {
		return nil, err
	}
	if err := counterpartyIs(channel, packet.SourcePort, packet.SourceChannel); err != nil {
		return nil, err
	}
	p, err := resolve(reader, channel, true)
	if err != nil {
		return nil, err
	}

	hostHeight := reader.HostCurrentHeight()
	if !packet.TimeoutHeight.IsZero() && hostHeight.GTE(packet.TimeoutHeight) {
		return nil, errorsmod.Wrapf(ibc.ErrPacketTimeout, "host height %s, packet timeout height %s", hostHeight, packet.TimeoutHeight)
	}
	if packet.TimeoutTimestamp != 0 {
		hostConsensus, ok := reader.HostConsensusState()
		if !ok {
			return nil, ibc.ErrMissingHostConsensusState
		}
		if uint64(hostConsensus.Timestamp()) >= packet.TimeoutTimestamp {
			return nil, errorsmod.Wrapf(ibc.ErrPacketTimeout, "host timestamp %s, packet timeout timestamp %d", hostConsensus.Timestamp(), packet.TimeoutTimestamp)
		}
	}

	if _, err := p.consensusAt(reader, msg.ProofHeight); err != nil {
		return nil, err
	}
	commitmentPath := ibc.PacketCommitmentPath(packet.SourcePort, packet.SourceChannel, packet.Sequence)
	if err := p.client.VerifyMembership(msg.ProofHeight, msg.ProofCommitment, commitmentPath, packet.Commitment()); err != nil {
		return nil, errorsmod.Wrapf(ibc.ErrInvalidProof, "packet commitment at %s: %s", commitmentPath, err)
	}

	result := RecvPacketResult{
		PortID:    packet.DestinationPort,
		ChannelID: packet.DestinationChannel,
		Sequence:  packet.Sequence,
		Ordering:  channel.Ordering,
	}
	switch channel.Ordering {
	case ibc.Ordered:
		nextSeqRecv, ok := reader.NextSequenceRecv(packet.DestinationPort, packet.DestinationChannel)
		if !ok {
			return nil, errorsmod.Wrapf(ibc.ErrMissingNextRecvSeq, "port %s, channel %s", packet.DestinationPort, packet.DestinationChannel)
		}
		if packet.Sequence != nextSeqRecv {
			return nil, errorsmod.Wrapf(ibc.ErrInvalidPacketSequence, "packet sequence %d, expected %d", packet.Sequence, nextSeqRecv)
		}
		result.NextSeqRecv = nextSeqRecv.Increment()
	default:
		if reader.PacketReceipt(packet.DestinationPort, packet.DestinationChannel, packet.Sequence) {
			return nil, errorsmod.Wrapf(ibc.ErrPacketAlreadyReceived, "port %s, channel %s, sequence %d", packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
		}
	}

	return &Output{
		Result: result,
		Events: []ibc.Event{ibc.ReceivePacket{
			Height:     hostHeight,
			Packet:     packet,
			Ordering:   channel.Ordering,
			Connection: p.connectionID,
		}},
		Logs: []string{"success: packet receive"},
	}, nil
}
