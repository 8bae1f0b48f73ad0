package handler

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// SendPacket validates a packet about to be committed on the host chain.
//
// The timeout height is relative: the packet expires at the host's current height plus
// TimeoutHeight.RevisionHeight. The timeout timestamp is likewise added to the host's latest
// consensus timestamp. Either bound must still be ahead of the counterparty's latest known
// height or timestamp, otherwise the packet could never be received.
func (h *Handler) SendPacket(reader ChannelReader, packet ibc.Packet) (*Output, error) {
	out, err := h.sendPacket(reader, packet)
	if err != nil {
		return nil, h.rejected("send_packet", packet, err)
	}
	return h.accepted("send_packet", packet, out), nil
}

func (h *Handler) sendPacket(reader ChannelReader, packet ibc.Packet) (*Output, error) {
	if packet.Sequence.IsZero() {
		return nil, ibc.ErrZeroPacketSequence
	}
	if packet.TimeoutHeight.IsZero() && packet.TimeoutTimestamp == 0 {
		return nil, ibc.ErrZeroPacketTimeout
	}
	if len(packet.Data) == 0 {
		return nil, ibc.ErrZeroPacketData
	}

	channel, ok := reader.ChannelEnd(packet.SourcePort, packet.SourceChannel)
	if !ok {
		return nil, errorsmod.Wrapf(ibc.ErrChannelNotFound, "port %s, channel %s", packet.SourcePort, packet.SourceChannel)
	}
	if channel.StateMatches(ibc.ChannelClosed) {
		return nil, errorsmod.Wrapf(ibc.ErrChannelClosed, "channel %s", packet.SourceChannel)
	}

	if err := authenticate(reader, packet.SourcePort); err != nil {
		return nil, err
	}

	// Rebuild the counterparty from the stored fields. This only fails if counterparty
	// storage ever diverges from the channel end.
	var counterpartyChannel *ibc.ChannelID
	if id, ok := channel.Counterparty.Channel(); ok {
		counterpartyChannel = &id
	}
	counterparty := ibc.NewCounterparty(channel.Counterparty.PortID, counterpartyChannel)
	if !channel.CounterpartyMatches(counterparty) {
		return nil, errorsmod.Wrapf(ibc.ErrInvalidPacketCounterparty, "port %s, channel %s", packet.SourcePort, packet.SourceChannel)
	}

	p, err := resolve(reader, channel, false)
	if err != nil {
		return nil, err
	}

	// The revision number of the timeout height is not consulted.
	latestHeight := p.client.LatestHeight()
	packetHeight := reader.HostCurrentHeight().Add(packet.TimeoutHeight.RevisionHeight)
	if !packet.TimeoutHeight.IsZero() && packetHeight.LT(latestHeight) {
		return nil, errorsmod.Wrapf(ibc.ErrLowPacketHeight, "client latest height %s, packet timeout height %s", latestHeight, packet.TimeoutHeight)
	}

	consensus, err := p.consensusAt(reader, latestHeight)
	if err != nil {
		return nil, err
	}
	hostConsensus, ok := reader.HostConsensusState()
	if !ok {
		return nil, ibc.ErrMissingHostConsensusState
	}
	packetTimestamp := hostConsensus.Timestamp().AddNanos(packet.TimeoutTimestamp)
	if packet.TimeoutTimestamp != 0 && packetTimestamp < consensus.Timestamp() {
		return nil, errorsmod.Wrapf(ibc.ErrLowPacketTimestamp, "client latest timestamp %s, packet timeout timestamp %s", consensus.Timestamp(), packetTimestamp)
	}

	nextSeqSend, ok := reader.NextSequenceSend(packet.SourcePort, packet.SourceChannel)
	if !ok {
		return nil, errorsmod.Wrapf(ibc.ErrMissingNextSendSeq, "port %s, channel %s", packet.SourcePort, packet.SourceChannel)
	}
	if packet.Sequence != nextSeqSend {
		return nil, errorsmod.Wrapf(ibc.ErrInvalidPacketSequence, "packet sequence %d, expected %d", packet.Sequence, nextSeqSend)
	}

	return &Output{
		Result: SendPacketResult{
			PortID:           packet.SourcePort,
			ChannelID:        packet.SourceChannel,
			Sequence:         packet.Sequence,
			SendSeqNumber:    nextSeqSend.Increment(),
			Data:             packet.Data,
			TimeoutHeight:    packet.TimeoutHeight,
			TimeoutTimestamp: packet.TimeoutTimestamp,
			Commitment:       packet.Commitment(),
		},
		Events: []ibc.Event{ibc.SendPacket{
			Height:     packetHeight,
			Packet:     packet,
			Ordering:   channel.Ordering,
			Connection: p.connectionID,
		}},
		Logs: []string{"success: packet send"},
	}, nil
}
