package handler

import "github.com/strangelove-ventures/packetcore/ibc"

// ChannelReader is the read-only view of ledger state the packet handler validates against.
// Implementations may be backed by any key-value store. Lookups report absence with a false
// boolean; the handler maps every absence to a named error kind.
type ChannelReader interface {
	ChannelEnd(port ibc.PortID, channel ibc.ChannelID) (ibc.ChannelEnd, bool)
	ConnectionEnd(connection ibc.ConnectionID) (ibc.ConnectionEnd, bool)
	ClientState(client ibc.ClientID) (ibc.ClientState, bool)
	ClientConsensusState(client ibc.ClientID, height ibc.Height) (ibc.ConsensusState, bool)

	// HostCurrentHeight is the height of the ledger executing the handler.
	HostCurrentHeight() ibc.Height
	// HostConsensusState is the host's own latest consensus state,
	// the baseline for timestamp timeouts.
	HostConsensusState() (ibc.ConsensusState, bool)

	NextSequenceSend(port ibc.PortID, channel ibc.ChannelID) (ibc.Sequence, bool)
	NextSequenceRecv(port ibc.PortID, channel ibc.ChannelID) (ibc.Sequence, bool)
	NextSequenceAck(port ibc.PortID, channel ibc.ChannelID) (ibc.Sequence, bool)

	PacketCommitment(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) ([]byte, bool)
	PacketReceipt(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) bool
	PacketAcknowledgement(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) ([]byte, bool)

	// AuthenticatedCapability returns the capability the caller holds for port,
	// or an error if the caller is not authorized to act on it.
	AuthenticatedCapability(port ibc.PortID) (ibc.Capability, error)
}
