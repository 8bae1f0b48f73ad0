package ibc

import (
	"encoding/binary"

	host "github.com/cosmos/ibc-go/v9/modules/core/24-host"
)

// ICS-24 store paths, rendered from the 24-host store keys. Proofs are verified against
// these paths on the counterparty, and the block database stores each record under its path.

func ChannelPath(port PortID, channel ChannelID) string {
	return string(host.ChannelKey(port.String(), channel.String()))
}

func ConnectionPath(connection ConnectionID) string {
	return string(host.ConnectionKey(connection.String()))
}

func ClientStatePath(client ClientID) string {
	return string(host.FullClientStateKey(client.String()))
}

func ConsensusStatePath(client ClientID, height Height) string {
	return string(host.FullConsensusStateKey(client.String(), height.ToProto()))
}

func NextSequenceSendPath(port PortID, channel ChannelID) string {
	return string(host.NextSequenceSendKey(port.String(), channel.String()))
}

func NextSequenceRecvPath(port PortID, channel ChannelID) string {
	return string(host.NextSequenceRecvKey(port.String(), channel.String()))
}

func NextSequenceAckPath(port PortID, channel ChannelID) string {
	return string(host.NextSequenceAckKey(port.String(), channel.String()))
}

func PacketCommitmentPath(port PortID, channel ChannelID, seq Sequence) string {
	return string(host.PacketCommitmentKey(port.String(), channel.String(), uint64(seq)))
}

func PacketReceiptPath(port PortID, channel ChannelID, seq Sequence) string {
	return string(host.PacketReceiptKey(port.String(), channel.String(), uint64(seq)))
}

func PacketAcknowledgementPath(port PortID, channel ChannelID, seq Sequence) string {
	return string(host.PacketAcknowledgementKey(port.String(), channel.String(), uint64(seq)))
}

// SequenceBytes is the stored form of a sequence counter: 8 big-endian bytes.
func SequenceBytes(seq Sequence) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(seq))
}
