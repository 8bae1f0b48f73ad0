package ibc

import (
	"encoding/hex"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
	channeltypes "github.com/cosmos/ibc-go/v9/modules/core/04-channel/types"
)

// Event is emitted by a successful lifecycle transition for relayers and other observers.
// Events are purely observational; the packet handler never reads them back.
type Event interface {
	// Type is the ABCI event type, e.g. send_packet.
	Type() string
	// EventHeight is the height at which the event logically occurred.
	EventHeight() Height
	ToABCI() abci.Event
}

var (
	_ Event = SendPacket{}
	_ Event = ReceivePacket{}
	_ Event = WriteAcknowledgement{}
	_ Event = AcknowledgePacket{}
	_ Event = TimeoutPacket{}
	_ Event = CloseChannel{}
)

// SendPacket is emitted when a packet commitment is written on the sending chain.
type SendPacket struct {
	Height     Height       `json:"height"`
	Packet     Packet       `json:"packet"`
	Ordering   Order        `json:"ordering"`
	Connection ConnectionID `json:"connection"`
}

func (e SendPacket) Type() string        { return channeltypes.EventTypeSendPacket }
func (e SendPacket) EventHeight() Height { return e.Height }
func (e SendPacket) ToABCI() abci.Event {
	return newABCIEvent(e.Type(), packetAttributes(e.Packet, e.Ordering, e.Connection))
}

// ReceivePacket is emitted when the receiving chain accepts a packet.
type ReceivePacket struct {
	Height     Height       `json:"height"`
	Packet     Packet       `json:"packet"`
	Ordering   Order        `json:"ordering"`
	Connection ConnectionID `json:"connection"`
}

func (e ReceivePacket) Type() string        { return channeltypes.EventTypeRecvPacket }
func (e ReceivePacket) EventHeight() Height { return e.Height }
func (e ReceivePacket) ToABCI() abci.Event {
	return newABCIEvent(e.Type(), packetAttributes(e.Packet, e.Ordering, e.Connection))
}

// WriteAcknowledgement is emitted when the receiving chain stores an acknowledgement.
type WriteAcknowledgement struct {
	Height          Height          `json:"height"`
	Packet          Packet          `json:"packet"`
	Acknowledgement Acknowledgement `json:"acknowledgement"`
	Connection      ConnectionID    `json:"connection"`
}

func (e WriteAcknowledgement) Type() string        { return channeltypes.EventTypeWriteAck }
func (e WriteAcknowledgement) EventHeight() Height { return e.Height }
func (e WriteAcknowledgement) ToABCI() abci.Event {
	attrs := packetAttributes(e.Packet, OrderNone, e.Connection)
	attrs = append(attrs, abci.EventAttribute{Key: channeltypes.AttributeKeyAckHex, Value: hex.EncodeToString(e.Acknowledgement), Index: true})
	return newABCIEvent(e.Type(), attrs)
}

// AcknowledgePacket is emitted when the sending chain processes an acknowledgement.
// Only the packet fields identifying the packet are relevant to observers.
type AcknowledgePacket struct {
	Height     Height       `json:"height"`
	Packet     Packet       `json:"packet"`
	Ordering   Order        `json:"ordering"`
	Connection ConnectionID `json:"connection"`
}

func (e AcknowledgePacket) Type() string        { return channeltypes.EventTypeAcknowledgePacket }
func (e AcknowledgePacket) EventHeight() Height { return e.Height }
func (e AcknowledgePacket) ToABCI() abci.Event {
	return newABCIEvent(e.Type(), packetIdentityAttributes(e.Packet, e.Ordering, e.Connection))
}

// TimeoutPacket is emitted when the sending chain processes a timeout.
type TimeoutPacket struct {
	Height   Height `json:"height"`
	Packet   Packet `json:"packet"`
	Ordering Order  `json:"ordering"`
}

func (e TimeoutPacket) Type() string        { return channeltypes.EventTypeTimeoutPacket }
func (e TimeoutPacket) EventHeight() Height { return e.Height }
func (e TimeoutPacket) ToABCI() abci.Event {
	return newABCIEvent(e.Type(), packetIdentityAttributes(e.Packet, e.Ordering, ""))
}

// CloseChannel is emitted when a timeout on an ordered channel closes it.
type CloseChannel struct {
	Height     Height       `json:"height"`
	PortID     PortID       `json:"port_id"`
	ChannelID  ChannelID    `json:"channel_id"`
	Channel    ChannelEnd   `json:"channel"`
	Connection ConnectionID `json:"connection"`
}

func (e CloseChannel) Type() string        { return channeltypes.EventTypeChannelClosed }
func (e CloseChannel) EventHeight() Height { return e.Height }
func (e CloseChannel) ToABCI() abci.Event {
	counterpartyChannel, _ := e.Channel.Counterparty.Channel()
	return newABCIEvent(e.Type(), []abci.EventAttribute{
		{Key: channeltypes.AttributeKeyPortID, Value: e.PortID.String(), Index: true},
		{Key: channeltypes.AttributeKeyChannelID, Value: e.ChannelID.String(), Index: true},
		{Key: channeltypes.AttributeCounterpartyPortID, Value: e.Channel.Counterparty.PortID.String(), Index: true},
		{Key: channeltypes.AttributeCounterpartyChannelID, Value: counterpartyChannel.String(), Index: true},
		{Key: channeltypes.AttributeKeyConnectionID, Value: e.Connection.String(), Index: true},
		{Key: channeltypes.AttributeKeyChannelOrdering, Value: e.Channel.Ordering.ToProto().String(), Index: true},
	})
}

func newABCIEvent(typ string, attrs []abci.EventAttribute) abci.Event {
	return abci.Event{Type: typ, Attributes: attrs}
}

func packetIdentityAttributes(packet Packet, order Order, connection ConnectionID) []abci.EventAttribute {
	attrs := []abci.EventAttribute{
		{Key: channeltypes.AttributeKeyTimeoutHeight, Value: packet.TimeoutHeight.String(), Index: true},
		{Key: channeltypes.AttributeKeyTimeoutTimestamp, Value: strconv.FormatUint(packet.TimeoutTimestamp, 10), Index: true},
		{Key: channeltypes.AttributeKeySequence, Value: strconv.FormatUint(uint64(packet.Sequence), 10), Index: true},
		{Key: channeltypes.AttributeKeySrcPort, Value: packet.SourcePort.String(), Index: true},
		{Key: channeltypes.AttributeKeySrcChannel, Value: packet.SourceChannel.String(), Index: true},
		{Key: channeltypes.AttributeKeyDstPort, Value: packet.DestinationPort.String(), Index: true},
		{Key: channeltypes.AttributeKeyDstChannel, Value: packet.DestinationChannel.String(), Index: true},
	}
	if order != OrderNone {
		attrs = append(attrs, abci.EventAttribute{Key: channeltypes.AttributeKeyChannelOrdering, Value: order.ToProto().String(), Index: true})
	}
	if connection != "" {
		attrs = append(attrs, abci.EventAttribute{Key: channeltypes.AttributeKeyConnection, Value: connection.String(), Index: true})
	}
	return attrs
}

func packetAttributes(packet Packet, order Order, connection ConnectionID) []abci.EventAttribute {
	attrs := []abci.EventAttribute{
		{Key: channeltypes.AttributeKeyDataHex, Value: hex.EncodeToString(packet.Data), Index: true},
	}
	return append(attrs, packetIdentityAttributes(packet, order, connection)...)
}
