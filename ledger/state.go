// Package ledger is an in-memory ledger holding the records the packet handler reads:
// clients, connections, channels, sequence counters, commitments, receipts, acknowledgements
// and port capabilities. It implements handler.ChannelReader and applies handler results.
//
// A State is not safe for concurrent use.
package ledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/ibc"
	"github.com/strangelove-ventures/packetcore/mockclient"
)

var _ handler.ChannelReader = (*State)(nil)

// DefaultHostHeight is the host height of a new State.
var DefaultHostHeight = ibc.NewHeight(0, 1)

type channelKey struct {
	Port    ibc.PortID
	Channel ibc.ChannelID
}

type packetKey struct {
	Port     ibc.PortID
	Channel  ibc.ChannelID
	Sequence ibc.Sequence
}

type consensusKey struct {
	Client ibc.ClientID
	Height ibc.Height
}

// State is the ledger. The zero value is not usable; call New.
type State struct {
	hostHeight    ibc.Height
	hostConsensus ibc.ConsensusState

	clients      map[ibc.ClientID]ibc.ClientState
	consensus    map[consensusKey]ibc.ConsensusState
	connections  map[ibc.ConnectionID]ibc.ConnectionEnd
	channels     map[channelKey]ibc.ChannelEnd
	nextSend     map[channelKey]ibc.Sequence
	nextRecv     map[channelKey]ibc.Sequence
	nextAck      map[channelKey]ibc.Sequence
	commitments  map[packetKey][]byte
	receipts     map[packetKey]struct{}
	acks         map[packetKey][]byte
	capabilities map[ibc.PortID]ibc.Capability
}

// New returns an empty ledger at DefaultHostHeight whose host consensus state has timestamp zero.
func New() *State {
	return &State{
		hostHeight:    DefaultHostHeight,
		hostConsensus: mockclient.NewConsensusState(0),
		clients:       make(map[ibc.ClientID]ibc.ClientState),
		consensus:     make(map[consensusKey]ibc.ConsensusState),
		connections:   make(map[ibc.ConnectionID]ibc.ConnectionEnd),
		channels:      make(map[channelKey]ibc.ChannelEnd),
		nextSend:      make(map[channelKey]ibc.Sequence),
		nextRecv:      make(map[channelKey]ibc.Sequence),
		nextAck:       make(map[channelKey]ibc.Sequence),
		commitments:   make(map[packetKey][]byte),
		receipts:      make(map[packetKey]struct{}),
		acks:          make(map[packetKey][]byte),
		capabilities:  make(map[ibc.PortID]ibc.Capability),
	}
}

// Clone returns a deep copy of the ledger.
func (s *State) Clone() *State {
	out := &State{
		hostHeight:    s.hostHeight,
		hostConsensus: s.hostConsensus,
		clients:       maps.Clone(s.clients),
		consensus:     maps.Clone(s.consensus),
		connections:   make(map[ibc.ConnectionID]ibc.ConnectionEnd, len(s.connections)),
		channels:      make(map[channelKey]ibc.ChannelEnd, len(s.channels)),
		nextSend:      maps.Clone(s.nextSend),
		nextRecv:      maps.Clone(s.nextRecv),
		nextAck:       maps.Clone(s.nextAck),
		commitments:   make(map[packetKey][]byte, len(s.commitments)),
		receipts:      maps.Clone(s.receipts),
		acks:          make(map[packetKey][]byte, len(s.acks)),
		capabilities:  maps.Clone(s.capabilities),
	}
	for k, v := range s.connections {
		v.Versions = slices.Clone(v.Versions)
		out.connections[k] = v
	}
	for k, v := range s.channels {
		out.channels[k] = v.WithState(v.State)
	}
	for k, v := range s.commitments {
		out.commitments[k] = slices.Clone(v)
	}
	for k, v := range s.acks {
		out.acks[k] = slices.Clone(v)
	}
	return out
}

// Builders. Each mutates and returns the receiver for chaining.

// WithHost sets the host height and the timestamp of the host consensus state.
func (s *State) WithHost(height ibc.Height, ts ibc.Timestamp) *State {
	s.hostHeight = height
	s.hostConsensus = mockclient.NewConsensusState(ts)
	return s
}

// WithoutHostConsensusState removes the host consensus state.
func (s *State) WithoutHostConsensusState() *State {
	s.hostConsensus = nil
	return s
}

// WithClient registers an unfrozen mock client at height together with a consensus state
// at that height with timestamp zero.
func (s *State) WithClient(client ibc.ClientID, height ibc.Height) *State {
	return s.
		WithClientState(client, mockclient.NewClientState(height)).
		WithConsensusState(client, height, mockclient.NewConsensusState(0))
}

func (s *State) WithClientState(client ibc.ClientID, cs ibc.ClientState) *State {
	s.clients[client] = cs
	return s
}

func (s *State) WithConsensusState(client ibc.ClientID, height ibc.Height, cs ibc.ConsensusState) *State {
	s.consensus[consensusKey{client, height}] = cs
	return s
}

func (s *State) WithConnection(connection ibc.ConnectionID, end ibc.ConnectionEnd) *State {
	s.connections[connection] = end
	return s
}

func (s *State) WithChannel(port ibc.PortID, channel ibc.ChannelID, end ibc.ChannelEnd) *State {
	s.channels[channelKey{port, channel}] = end
	return s
}

// WithPortCapability grants the caller a capability for port.
func (s *State) WithPortCapability(port ibc.PortID) *State {
	if _, ok := s.capabilities[port]; !ok {
		s.capabilities[port] = ibc.Capability{Index: uint64(len(s.capabilities)) + 1, Port: port}
	}
	return s
}

func (s *State) WithCapability(c ibc.Capability) *State {
	s.capabilities[c.Port] = c
	return s
}

func (s *State) WithSendSequence(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) *State {
	s.nextSend[channelKey{port, channel}] = seq
	return s
}

func (s *State) WithRecvSequence(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) *State {
	s.nextRecv[channelKey{port, channel}] = seq
	return s
}

func (s *State) WithAckSequence(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) *State {
	s.nextAck[channelKey{port, channel}] = seq
	return s
}

func (s *State) WithPacketCommitment(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence, commitment []byte) *State {
	s.commitments[packetKey{port, channel, seq}] = slices.Clone(commitment)
	return s
}

func (s *State) WithPacketReceipt(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) *State {
	s.receipts[packetKey{port, channel, seq}] = struct{}{}
	return s
}

func (s *State) WithPacketAcknowledgement(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence, ackCommitment []byte) *State {
	s.acks[packetKey{port, channel, seq}] = slices.Clone(ackCommitment)
	return s
}

// handler.ChannelReader

func (s *State) ChannelEnd(port ibc.PortID, channel ibc.ChannelID) (ibc.ChannelEnd, bool) {
	end, ok := s.channels[channelKey{port, channel}]
	return end, ok
}

func (s *State) ConnectionEnd(connection ibc.ConnectionID) (ibc.ConnectionEnd, bool) {
	end, ok := s.connections[connection]
	return end, ok
}

func (s *State) ClientState(client ibc.ClientID) (ibc.ClientState, bool) {
	cs, ok := s.clients[client]
	return cs, ok
}

func (s *State) ClientConsensusState(client ibc.ClientID, height ibc.Height) (ibc.ConsensusState, bool) {
	cs, ok := s.consensus[consensusKey{client, height}]
	return cs, ok
}

func (s *State) HostCurrentHeight() ibc.Height { return s.hostHeight }

func (s *State) HostConsensusState() (ibc.ConsensusState, bool) {
	return s.hostConsensus, s.hostConsensus != nil
}

func (s *State) NextSequenceSend(port ibc.PortID, channel ibc.ChannelID) (ibc.Sequence, bool) {
	seq, ok := s.nextSend[channelKey{port, channel}]
	return seq, ok
}

func (s *State) NextSequenceRecv(port ibc.PortID, channel ibc.ChannelID) (ibc.Sequence, bool) {
	seq, ok := s.nextRecv[channelKey{port, channel}]
	return seq, ok
}

func (s *State) NextSequenceAck(port ibc.PortID, channel ibc.ChannelID) (ibc.Sequence, bool) {
	seq, ok := s.nextAck[channelKey{port, channel}]
	return seq, ok
}

func (s *State) PacketCommitment(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) ([]byte, bool) {
	c, ok := s.commitments[packetKey{port, channel, seq}]
	return c, ok
}

func (s *State) PacketReceipt(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) bool {
	_, ok := s.receipts[packetKey{port, channel, seq}]
	return ok
}

func (s *State) PacketAcknowledgement(port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) ([]byte, bool) {
	ack, ok := s.acks[packetKey{port, channel, seq}]
	return ack, ok
}

func (s *State) AuthenticatedCapability(port ibc.PortID) (ibc.Capability, error) {
	c, ok := s.capabilities[port]
	if !ok {
		return ibc.Capability{}, fmt.Errorf("no capability granted for port %s", port)
	}
	return c, nil
}

// Apply writes a handler result to the ledger.
func (s *State) Apply(result handler.PacketResult) error {
	switch r := result.(type) {
	case handler.SendPacketResult:
		s.commitments[packetKey{r.PortID, r.ChannelID, r.Sequence}] = slices.Clone(r.Commitment)
		s.nextSend[channelKey{r.PortID, r.ChannelID}] = r.SendSeqNumber
	case handler.RecvPacketResult:
		if r.Ordering == ibc.Ordered {
			s.nextRecv[channelKey{r.PortID, r.ChannelID}] = r.NextSeqRecv
		} else {
			s.receipts[packetKey{r.PortID, r.ChannelID, r.Sequence}] = struct{}{}
		}
	case handler.WriteAckResult:
		s.acks[packetKey{r.PortID, r.ChannelID, r.Sequence}] = slices.Clone(r.AckCommitment)
	case handler.AckPacketResult:
		delete(s.commitments, packetKey{r.PortID, r.ChannelID, r.Sequence})
		if r.NextSeqAck != nil {
			s.nextAck[channelKey{r.PortID, r.ChannelID}] = *r.NextSeqAck
		}
	case handler.TimeoutPacketResult:
		delete(s.commitments, packetKey{r.PortID, r.ChannelID, r.Sequence})
		if r.Channel != nil {
			s.channels[channelKey{r.PortID, r.ChannelID}] = *r.Channel
		}
	case handler.NoOpResult:
	default:
		return fmt.Errorf("unknown packet result %T", result)
	}
	return nil
}
