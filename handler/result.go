package handler

import "github.com/strangelove-ventures/packetcore/ibc"

// PacketResult is the state change a successful lifecycle operation asks the caller to apply.
// Results are advisory: the caller commits them together with the rest of the transaction.
type PacketResult interface {
	// Kind names the transition that produced the result, e.g. send_packet.
	Kind() string

	isPacketResult()
}

var (
	_ PacketResult = SendPacketResult{}
	_ PacketResult = RecvPacketResult{}
	_ PacketResult = WriteAckResult{}
	_ PacketResult = AckPacketResult{}
	_ PacketResult = TimeoutPacketResult{}
	_ PacketResult = NoOpResult{}
)

// SendPacketResult stores the packet commitment and advances the send sequence.
type SendPacketResult struct {
	PortID    ibc.PortID    `json:"port_id"`
	ChannelID ibc.ChannelID `json:"channel_id"`
	Sequence  ibc.Sequence  `json:"sequence"`
	// SendSeqNumber is the next send sequence the caller must persist.
	SendSeqNumber    ibc.Sequence `json:"send_seq_number"`
	Data             []byte       `json:"data"`
	TimeoutHeight    ibc.Height   `json:"timeout_height"`
	TimeoutTimestamp uint64       `json:"timeout_timestamp"`
	Commitment       []byte       `json:"commitment"`
}

// RecvPacketResult records delivery of a packet on the receiving chain.
// Ordered channels advance the receive sequence to NextSeqRecv; unordered channels write a receipt.
type RecvPacketResult struct {
	PortID      ibc.PortID    `json:"port_id"`
	ChannelID   ibc.ChannelID `json:"channel_id"`
	Sequence    ibc.Sequence  `json:"sequence"`
	Ordering    ibc.Order     `json:"ordering"`
	NextSeqRecv ibc.Sequence  `json:"next_seq_recv,omitempty"`
}

// WriteAckResult stores the acknowledgement commitment for a received packet.
type WriteAckResult struct {
	PortID        ibc.PortID    `json:"port_id"`
	ChannelID     ibc.ChannelID `json:"channel_id"`
	Sequence      ibc.Sequence  `json:"sequence"`
	AckCommitment []byte        `json:"ack_commitment"`
}

// AckPacketResult deletes the packet commitment on the sending chain.
// NextSeqAck is set on ordered channels only.
type AckPacketResult struct {
	PortID     ibc.PortID    `json:"port_id"`
	ChannelID  ibc.ChannelID `json:"channel_id"`
	Sequence   ibc.Sequence  `json:"sequence"`
	NextSeqAck *ibc.Sequence `json:"next_seq_ack,omitempty"`
}

// TimeoutPacketResult deletes the packet commitment on the sending chain.
// Channel is set when the timeout closes an ordered channel and holds the closed channel end.
type TimeoutPacketResult struct {
	PortID    ibc.PortID      `json:"port_id"`
	ChannelID ibc.ChannelID   `json:"channel_id"`
	Sequence  ibc.Sequence    `json:"sequence"`
	Channel   *ibc.ChannelEnd `json:"channel,omitempty"`
}

// NoOpResult is returned when a message is recognized as already processed
// and the handler is configured to accept it without changing state.
type NoOpResult struct {
	Reason string `json:"reason"`
}

func (SendPacketResult) Kind() string    { return "send_packet" }
func (RecvPacketResult) Kind() string    { return "recv_packet" }
func (WriteAckResult) Kind() string      { return "write_acknowledgement" }
func (AckPacketResult) Kind() string     { return "acknowledge_packet" }
func (TimeoutPacketResult) Kind() string { return "timeout_packet" }
func (NoOpResult) Kind() string          { return "noop" }

func (SendPacketResult) isPacketResult()    {}
func (RecvPacketResult) isPacketResult()    {}
func (WriteAckResult) isPacketResult()      {}
func (AckPacketResult) isPacketResult()     {}
func (TimeoutPacketResult) isPacketResult() {}
func (NoOpResult) isPacketResult()          {}

// Output is the complete product of a successful lifecycle operation.
type Output struct {
	Result PacketResult
	Events []ibc.Event
	Logs   []string
}
