package handler_test

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/ibc"
	"github.com/strangelove-ventures/packetcore/ledger"
	"github.com/strangelove-ventures/packetcore/mockclient"
)

const (
	srcPort    ibc.PortID    = "transfer"
	srcChannel ibc.ChannelID = "channel-0"
	dstPort    ibc.PortID    = "transfer"
	dstChannel ibc.ChannelID = "channel-1"
)

var (
	clientHeight = ibc.NewHeight(0, 10)
	hostHeight   = ibc.NewHeight(0, 20)
)

const (
	clientTime ibc.Timestamp = 1_000
	hostTime   ibc.Timestamp = 5_000
)

func newHandler(t *testing.T, opts ...handler.Option) *handler.Handler {
	return handler.New(zaptest.NewLogger(t), opts...)
}

func openConnection() ibc.ConnectionEnd {
	return ibc.ConnectionEnd{
		State:        ibc.ConnectionOpen,
		ClientID:     ibc.DefaultClientID,
		Counterparty: ibc.ConnectionCounterparty{ClientID: ibc.DefaultClientID, ConnectionID: ibc.DefaultConnectionID},
		Versions:     []ibc.Version{ibc.DefaultVersion()},
	}
}

func openChannel(order ibc.Order, cpPort ibc.PortID, cpChannel ibc.ChannelID) ibc.ChannelEnd {
	return ibc.NewChannelEnd(ibc.ChannelOpen, order, ibc.NewCounterparty(cpPort, &cpChannel),
		[]ibc.ConnectionID{ibc.DefaultConnectionID}, "ics20-1")
}

// baseLedger holds one open channel end on (port, channel) with everything it depends on,
// but no sequence counters.
func baseLedger(order ibc.Order, port ibc.PortID, channel ibc.ChannelID, cpPort ibc.PortID, cpChannel ibc.ChannelID) *ledger.State {
	return ledger.New().
		WithHost(hostHeight, hostTime).
		WithClientState(ibc.DefaultClientID, mockclient.NewClientState(clientHeight)).
		WithConsensusState(ibc.DefaultClientID, clientHeight, mockclient.NewConsensusState(clientTime)).
		WithConnection(ibc.DefaultConnectionID, openConnection()).
		WithChannel(port, channel, openChannel(order, cpPort, cpChannel)).
		WithPortCapability(port)
}

func withSequences(s *ledger.State, port ibc.PortID, channel ibc.ChannelID) *ledger.State {
	return s.
		WithSendSequence(port, channel, 1).
		WithRecvSequence(port, channel, 1).
		WithAckSequence(port, channel, 1)
}

// sourceLedger is the sending chain of testPacket.
func sourceLedger(order ibc.Order) *ledger.State {
	return withSequences(baseLedger(order, srcPort, srcChannel, dstPort, dstChannel), srcPort, srcChannel)
}

// destLedger is the receiving chain of testPacket.
func destLedger(order ibc.Order) *ledger.State {
	return withSequences(baseLedger(order, dstPort, dstChannel, srcPort, srcChannel), dstPort, dstChannel)
}

func testPacket(seq ibc.Sequence) ibc.Packet {
	return ibc.Packet{
		Sequence:           seq,
		SourcePort:         srcPort,
		SourceChannel:      srcChannel,
		DestinationPort:    dstPort,
		DestinationChannel: dstChannel,
		Data:               []byte("hello"),
		TimeoutHeight:      ibc.NewHeight(0, 100),
	}
}

func recvMsg(packet ibc.Packet, proofHeight ibc.Height) handler.MsgRecvPacket {
	path := ibc.PacketCommitmentPath(packet.SourcePort, packet.SourceChannel, packet.Sequence)
	return handler.MsgRecvPacket{
		Packet:          packet,
		ProofCommitment: mockclient.MembershipProof(proofHeight, path, packet.Commitment()),
		ProofHeight:     proofHeight,
	}
}

func ackMsg(packet ibc.Packet, ack ibc.Acknowledgement, proofHeight ibc.Height) handler.MsgAcknowledgement {
	path := ibc.PacketAcknowledgementPath(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	return handler.MsgAcknowledgement{
		Packet:          packet,
		Acknowledgement: ack,
		ProofAcked:      mockclient.MembershipProof(proofHeight, path, ack.Commitment()),
		ProofHeight:     proofHeight,
	}
}

func unorderedTimeoutMsg(packet ibc.Packet, proofHeight ibc.Height) handler.MsgTimeout {
	path := ibc.PacketReceiptPath(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	return handler.MsgTimeout{
		Packet:           packet,
		ProofUnreceived:  mockclient.NonMembershipProof(proofHeight, path),
		ProofHeight:      proofHeight,
		NextSequenceRecv: packet.Sequence,
	}
}

func orderedTimeoutMsg(packet ibc.Packet, proofHeight ibc.Height, nextSeqRecv ibc.Sequence) handler.MsgTimeout {
	path := ibc.NextSequenceRecvPath(packet.DestinationPort, packet.DestinationChannel)
	return handler.MsgTimeout{
		Packet:           packet,
		ProofUnreceived:  mockclient.MembershipProof(proofHeight, path, ibc.SequenceBytes(nextSeqRecv)),
		ProofHeight:      proofHeight,
		NextSequenceRecv: nextSeqRecv,
	}
}
