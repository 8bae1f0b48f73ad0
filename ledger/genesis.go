package ledger

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strangelove-ventures/packetcore/ibc"
	"github.com/strangelove-ventures/packetcore/mockclient"
)

// Genesis is the YAML document an initial ledger is built from.
// Clients in a genesis file are always mock clients.
type Genesis struct {
	Host         GenesisHost         `yaml:"host"`
	Clients      []GenesisClient     `yaml:"clients"`
	Connections  []GenesisConnection `yaml:"connections"`
	Channels     []GenesisChannel    `yaml:"channels"`
	Capabilities []ibc.PortID        `yaml:"capabilities"`
	Commitments  []GenesisPacket     `yaml:"commitments,omitempty"`
	Receipts     []GenesisPacket     `yaml:"receipts,omitempty"`
	Acks         []GenesisPacket     `yaml:"acknowledgements,omitempty"`
}

type GenesisHost struct {
	Height    ibc.Height    `yaml:"height"`
	Timestamp ibc.Timestamp `yaml:"timestamp"`
	// NoConsensusState leaves the host without a consensus state.
	NoConsensusState bool `yaml:"no_consensus_state,omitempty"`
}

type GenesisClient struct {
	ID              ibc.ClientID       `yaml:"id"`
	LatestHeight    ibc.Height         `yaml:"latest_height"`
	Frozen          bool               `yaml:"frozen,omitempty"`
	ConsensusStates []GenesisConsensus `yaml:"consensus_states"`
}

type GenesisConsensus struct {
	Height    ibc.Height    `yaml:"height"`
	Timestamp ibc.Timestamp `yaml:"timestamp"`
}

type GenesisConnection struct {
	ID  ibc.ConnectionID  `yaml:"id"`
	End ibc.ConnectionEnd `yaml:"end"`
}

// GenesisChannel is a channel end with its sequence counters.
// Zero counters are left unset.
type GenesisChannel struct {
	PortID      ibc.PortID     `yaml:"port_id"`
	ChannelID   ibc.ChannelID  `yaml:"channel_id"`
	End         ibc.ChannelEnd `yaml:"end"`
	NextSeqSend ibc.Sequence   `yaml:"next_sequence_send,omitempty"`
	NextSeqRecv ibc.Sequence   `yaml:"next_sequence_recv,omitempty"`
	NextSeqAck  ibc.Sequence   `yaml:"next_sequence_ack,omitempty"`
}

type GenesisPacket struct {
	PortID    ibc.PortID    `yaml:"port_id"`
	ChannelID ibc.ChannelID `yaml:"channel_id"`
	Sequence  ibc.Sequence  `yaml:"sequence"`
	Value     []byte        `yaml:"value,omitempty"`
}

// DefaultGenesis is a single open unordered channel on defaultPort/channel-0 over
// connection-0 and a mock client, with the next send, receive and ack sequences at 1.
func DefaultGenesis() Genesis {
	counterpartyChannel := ibc.DefaultChannelID
	return Genesis{
		Host: GenesisHost{Height: ibc.NewHeight(0, 10), Timestamp: 1},
		Clients: []GenesisClient{{
			ID:              ibc.DefaultClientID,
			LatestHeight:    ibc.NewHeight(0, 10),
			ConsensusStates: []GenesisConsensus{{Height: ibc.NewHeight(0, 10), Timestamp: 1}},
		}},
		Connections: []GenesisConnection{{
			ID: ibc.DefaultConnectionID,
			End: ibc.ConnectionEnd{
				State:        ibc.ConnectionOpen,
				ClientID:     ibc.DefaultClientID,
				Counterparty: ibc.ConnectionCounterparty{ClientID: ibc.DefaultClientID, ConnectionID: ibc.DefaultConnectionID},
				Versions:     []ibc.Version{ibc.DefaultVersion()},
			},
		}},
		Channels: []GenesisChannel{{
			PortID:    ibc.DefaultPortID,
			ChannelID: ibc.DefaultChannelID,
			End: ibc.NewChannelEnd(ibc.ChannelOpen, ibc.Unordered,
				ibc.NewCounterparty(ibc.DefaultPortID, &counterpartyChannel),
				[]ibc.ConnectionID{ibc.DefaultConnectionID}, "ics20-1"),
			NextSeqSend: 1,
			NextSeqRecv: 1,
			NextSeqAck:  1,
		}},
		Capabilities: []ibc.PortID{ibc.DefaultPortID},
	}
}

// LoadGenesis reads a YAML genesis file.
func LoadGenesis(path string) (Genesis, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, fmt.Errorf("read genesis: %w", err)
	}
	return ParseGenesis(bz)
}

// ParseGenesis decodes a YAML genesis document. Unknown fields are rejected.
func ParseGenesis(bz []byte) (Genesis, error) {
	var g Genesis
	dec := yaml.NewDecoder(bytes.NewReader(bz))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}
	return g, nil
}

// Marshal encodes the genesis as YAML.
func (g Genesis) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return nil, fmt.Errorf("encode genesis: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks identifiers and references between records.
func (g Genesis) Validate() error {
	clients := make(map[ibc.ClientID]bool, len(g.Clients))
	for _, c := range g.Clients {
		if err := c.ID.Validate(); err != nil {
			return fmt.Errorf("client %q: %w", c.ID, err)
		}
		clients[c.ID] = true
	}
	connections := make(map[ibc.ConnectionID]bool, len(g.Connections))
	for _, c := range g.Connections {
		if err := c.ID.Validate(); err != nil {
			return fmt.Errorf("connection %q: %w", c.ID, err)
		}
		if !clients[c.End.ClientID] {
			return fmt.Errorf("connection %s references unknown client %s", c.ID, c.End.ClientID)
		}
		connections[c.ID] = true
	}
	for _, ch := range g.Channels {
		if err := ch.PortID.Validate(); err != nil {
			return fmt.Errorf("channel port %q: %w", ch.PortID, err)
		}
		if err := ch.ChannelID.Validate(); err != nil {
			return fmt.Errorf("channel %q: %w", ch.ChannelID, err)
		}
		for _, hop := range ch.End.ConnectionHops {
			if !connections[hop] {
				return fmt.Errorf("channel %s/%s references unknown connection %s", ch.PortID, ch.ChannelID, hop)
			}
		}
	}
	return nil
}

// State builds a ledger from the genesis.
func (g Genesis) State() (*State, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	s := New().WithHost(g.Host.Height, g.Host.Timestamp)
	if g.Host.NoConsensusState {
		s.WithoutHostConsensusState()
	}
	for _, c := range g.Clients {
		s.WithClientState(c.ID, mockclient.ClientState{Height: c.LatestHeight, Frozen: c.Frozen})
		for _, cs := range c.ConsensusStates {
			s.WithConsensusState(c.ID, cs.Height, mockclient.NewConsensusState(cs.Timestamp))
		}
	}
	for _, c := range g.Connections {
		s.WithConnection(c.ID, c.End)
	}
	for _, ch := range g.Channels {
		s.WithChannel(ch.PortID, ch.ChannelID, ch.End)
		if !ch.NextSeqSend.IsZero() {
			s.WithSendSequence(ch.PortID, ch.ChannelID, ch.NextSeqSend)
		}
		if !ch.NextSeqRecv.IsZero() {
			s.WithRecvSequence(ch.PortID, ch.ChannelID, ch.NextSeqRecv)
		}
		if !ch.NextSeqAck.IsZero() {
			s.WithAckSequence(ch.PortID, ch.ChannelID, ch.NextSeqAck)
		}
	}
	for _, port := range g.Capabilities {
		s.WithPortCapability(port)
	}
	for _, p := range g.Commitments {
		s.WithPacketCommitment(p.PortID, p.ChannelID, p.Sequence, p.Value)
	}
	for _, p := range g.Receipts {
		s.WithPacketReceipt(p.PortID, p.ChannelID, p.Sequence)
	}
	for _, p := range g.Acks {
		s.WithPacketAcknowledgement(p.PortID, p.ChannelID, p.Sequence, p.Value)
	}
	return s, nil
}
