package ibc

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	channeltypes "github.com/cosmos/ibc-go/v9/modules/core/04-channel/types"
	"go.uber.org/multierr"
)

// Sequence orders packets sent and received over one channel direction.
// Sequences start at 1; 0 is invalid.
type Sequence uint64

// IsZero returns true for the invalid zero sequence.
func (s Sequence) IsZero() bool { return s == 0 }

// Increment returns the following sequence.
func (s Sequence) Increment() Sequence { return s + 1 }

// Packet is a packet sent over an IBC channel as defined in ICS-4.
// See: https://github.com/cosmos/ibc/blob/master/spec/core/ics-004-channel-and-packet-semantics/README.md
type Packet struct {
	Sequence           Sequence  `json:"sequence"`            // the order of sends and receives, where a packet with an earlier sequence number must be sent and received before a packet with a later sequence number
	SourcePort         PortID    `json:"source_port"`         // the port on the sending chain
	SourceChannel      ChannelID `json:"source_channel"`      // the channel end on the sending chain
	DestinationPort    PortID    `json:"destination_port"`    // the port on the receiving chain
	DestinationChannel ChannelID `json:"destination_channel"` // the channel end on the receiving chain
	Data               []byte    `json:"data"`                // an opaque value which can be defined by the application logic of the associated modules
	TimeoutHeight      Height    `json:"timeout_height"`      // a consensus height on the destination chain after which the packet will no longer be processed
	TimeoutTimestamp   uint64    `json:"timeout_timestamp"`   // nanoseconds; a timestamp on the destination chain after which the packet will no longer be processed
}

// ValidateBasic performs the stateless checks of a packet and returns every violation found.
// It does not replace the ordered checks of the packet handler.
func (packet Packet) ValidateBasic() error {
	var merr error
	if packet.Sequence.IsZero() {
		merr = multierr.Append(merr, ErrZeroPacketSequence)
	}
	if err := packet.SourcePort.Validate(); err != nil {
		merr = multierr.Append(merr, fmt.Errorf("invalid packet source port: %w", err))
	}
	if err := packet.SourceChannel.Validate(); err != nil {
		merr = multierr.Append(merr, fmt.Errorf("invalid packet source channel: %w", err))
	}
	if err := packet.DestinationPort.Validate(); err != nil {
		merr = multierr.Append(merr, fmt.Errorf("invalid packet destination port: %w", err))
	}
	if err := packet.DestinationChannel.Validate(); err != nil {
		merr = multierr.Append(merr, fmt.Errorf("invalid packet destination channel: %w", err))
	}
	if packet.TimeoutHeight.IsZero() && packet.TimeoutTimestamp == 0 {
		merr = multierr.Append(merr, ErrZeroPacketTimeout)
	}
	if len(packet.Data) == 0 {
		merr = multierr.Append(merr, ErrZeroPacketData)
	}
	return merr
}

// Equal returns true if both packets are identical.
func (packet Packet) Equal(other Packet) bool {
	return packet.Sequence == other.Sequence &&
		packet.SourcePort == other.SourcePort &&
		packet.SourceChannel == other.SourceChannel &&
		packet.DestinationPort == other.DestinationPort &&
		packet.DestinationChannel == other.DestinationChannel &&
		bytes.Equal(packet.Data, other.Data) &&
		packet.TimeoutHeight.EQ(other.TimeoutHeight) &&
		packet.TimeoutTimestamp == other.TimeoutTimestamp
}

// Commitment returns the ICS-4 packet commitment stored by the sending chain:
// sha256(timeout timestamp || timeout revision number || timeout revision height || sha256(data)),
// with every integer encoded as 8 big-endian bytes.
func (packet Packet) Commitment() []byte {
	buf := make([]byte, 0, 24+sha256.Size)
	buf = binary.BigEndian.AppendUint64(buf, packet.TimeoutTimestamp)
	buf = binary.BigEndian.AppendUint64(buf, packet.TimeoutHeight.RevisionNumber)
	buf = binary.BigEndian.AppendUint64(buf, packet.TimeoutHeight.RevisionHeight)
	dataHash := sha256.Sum256(packet.Data)
	buf = append(buf, dataHash[:]...)
	sum := sha256.Sum256(buf)
	return sum[:]
}

// ToProto converts the packet to its ibc-go wire representation.
func (packet Packet) ToProto() channeltypes.Packet {
	return channeltypes.Packet{
		Sequence:           uint64(packet.Sequence),
		SourcePort:         packet.SourcePort.String(),
		SourceChannel:      packet.SourceChannel.String(),
		DestinationPort:    packet.DestinationPort.String(),
		DestinationChannel: packet.DestinationChannel.String(),
		Data:               packet.Data,
		TimeoutHeight:      packet.TimeoutHeight.ToProto(),
		TimeoutTimestamp:   packet.TimeoutTimestamp,
	}
}

// PacketFromProto converts an ibc-go packet.
func PacketFromProto(p channeltypes.Packet) Packet {
	return Packet{
		Sequence:           Sequence(p.Sequence),
		SourcePort:         PortID(p.SourcePort),
		SourceChannel:      ChannelID(p.SourceChannel),
		DestinationPort:    PortID(p.DestinationPort),
		DestinationChannel: ChannelID(p.DestinationChannel),
		Data:               p.Data,
		TimeoutHeight:      HeightFromProto(p.TimeoutHeight),
		TimeoutTimestamp:   p.TimeoutTimestamp,
	}
}

// Acknowledgement is the opaque application acknowledgement written by the receiving chain.
type Acknowledgement []byte

// Validate returns an error if the acknowledgement is empty.
func (ack Acknowledgement) Validate() error {
	if len(ack) == 0 {
		return errors.New("packet acknowledgement cannot be empty")
	}
	return nil
}

// Commitment returns sha256(ack), the value stored under the acknowledgement path.
func (ack Acknowledgement) Commitment() []byte {
	sum := sha256.Sum256(ack)
	return sum[:]
}
