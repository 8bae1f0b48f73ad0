package handler

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// AcknowledgePacket validates an acknowledgement relayed back to the sending chain.
//
// The packet commitment must still be stored and match the packet. If it is gone the packet
// was already acknowledged or timed out; the handler's MissingCommitmentPolicy decides whether
// that is an error or a no-op.
func (h *Handler) AcknowledgePacket(reader ChannelReader, msg MsgAcknowledgement) (*Output, error) {
	out, err := h.acknowledgePacket(reader, msg)
	if err != nil {
		return nil, h.rejected("acknowledge_packet", msg.Packet, err)
	}
	return h.accepted("acknowledge_packet", msg.Packet, out), nil
}

func (h *Handler) acknowledgePacket(reader ChannelReader, msg MsgAcknowledgement) (*Output, error) {
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
	p, err := resolve(reader, channel, true)
	if err != nil {
		return nil, err
	}

	found, err := h.storedCommitment(reader, packet)
	if err != nil {
		return nil, err
	}
	if !found {
		return h.noOp("acknowledge_packet", packet), nil
	}

	if err := msg.Acknowledgement.Validate(); err != nil {
		return nil, errorsmod.Wrap(ibc.ErrInvalidAcknowledgement, err.Error())
	}
	if _, err := p.consensusAt(reader, msg.ProofHeight); err != nil {
		return nil, err
	}
	ackPath := ibc.PacketAcknowledgementPath(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	if err := p.client.VerifyMembership(msg.ProofHeight, msg.ProofAcked, ackPath, msg.Acknowledgement.Commitment()); err != nil {
		return nil, errorsmod.Wrapf(ibc.ErrInvalidProof, "acknowledgement at %s: %s", ackPath, err)
	}

	result := AckPacketResult{
		PortID:    packet.SourcePort,
		ChannelID: packet.SourceChannel,
		Sequence:  packet.Sequence,
	}
	if channel.Ordering == ibc.Ordered {
		nextSeqAck, ok := reader.NextSequenceAck(packet.SourcePort, packet.SourceChannel)
		if !ok {
			return nil, errorsmod.Wrapf(ibc.ErrMissingNextAckSeq, "port %s, channel %s", packet.SourcePort, packet.SourceChannel)
		}
		if packet.Sequence != nextSeqAck {
			return nil, errorsmod.Wrapf(ibc.ErrInvalidPacketSequence, "packet sequence %d, expected %d", packet.Sequence, nextSeqAck)
		}
		next := nextSeqAck.Increment()
		result.NextSeqAck = &next
	}

	return &Output{
		Result: result,
		Events: []ibc.Event{ibc.AcknowledgePacket{
			Height:     reader.HostCurrentHeight(),
			Packet:     packet,
			Ordering:   channel.Ordering,
			Connection: p.connectionID,
		}},
		Logs: []string{"success: packet acknowledgement"},
	}, nil
}
