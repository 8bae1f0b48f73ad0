package handler

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// WriteAcknowledgement validates the receiving application's acknowledgement of a packet.
// Each packet is acknowledged at most once and only after it was received: on unordered
// channels its receipt must exist, on ordered channels the next receive sequence must be past it.
func (h *Handler) WriteAcknowledgement(reader ChannelReader, msg MsgWriteAcknowledgement) (*Output, error) {
	out, err := h.writeAcknowledgement(reader, msg)
	if err != nil {
		return nil, h.rejected("write_acknowledgement", msg.Packet, err)
	}
	return h.accepted("write_acknowledgement", msg.Packet, out), nil
}

func (h *Handler) writeAcknowledgement(reader ChannelReader, msg MsgWriteAcknowledgement) (*Output, error) {
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
	if err := msg.Acknowledgement.Validate(); err != nil {
		return nil, errorsmod.Wrap(ibc.ErrInvalidAcknowledgement, err.Error())
	}
	if _, ok := reader.PacketAcknowledgement(packet.DestinationPort, packet.DestinationChannel, packet.Sequence); ok {
		return nil, errorsmod.Wrapf(ibc.ErrAcknowledgementExists, "port %s, channel %s, sequence %d", packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	}
	switch channel.Ordering {
	case ibc.Ordered:
		nextSeqRecv, ok := reader.NextSequenceRecv(packet.DestinationPort, packet.DestinationChannel)
		if !ok {
			return nil, errorsmod.Wrapf(ibc.ErrMissingNextRecvSeq, "port %s, channel %s", packet.DestinationPort, packet.DestinationChannel)
		}
		if packet.Sequence >= nextSeqRecv {
			return nil, errorsmod.Wrapf(ibc.ErrPacketReceiptNotFound, "packet sequence %d not yet received, next sequence receive %d", packet.Sequence, nextSeqRecv)
		}
	default:
		if !reader.PacketReceipt(packet.DestinationPort, packet.DestinationChannel, packet.Sequence) {
			return nil, errorsmod.Wrapf(ibc.ErrPacketReceiptNotFound, "port %s, channel %s, sequence %d", packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
		}
	}

	connection, _ := channel.FirstHop()
	return &Output{
		Result: WriteAckResult{
			PortID:        packet.DestinationPort,
			ChannelID:     packet.DestinationChannel,
			Sequence:      packet.Sequence,
			AckCommitment: msg.Acknowledgement.Commitment(),
		},
		Events: []ibc.Event{ibc.WriteAcknowledgement{
			Height:          reader.HostCurrentHeight(),
			Packet:          packet,
			Acknowledgement: msg.Acknowledgement,
			Connection:      connection,
		}},
		Logs: []string{"success: packet write acknowledgement"},
	}, nil
}
