package ibc

import (
	"fmt"
	"slices"

	channeltypes "github.com/cosmos/ibc-go/v9/modules/core/04-channel/types"
)

// ChannelState is the handshake state of a channel end.
type ChannelState int

const (
	ChannelUninitialized ChannelState = iota
	ChannelInit
	ChannelTryOpen
	ChannelOpen
	ChannelClosed
)

var channelStateNames = map[ChannelState]string{
	ChannelUninitialized: "Uninitialized",
	ChannelInit:          "Init",
	ChannelTryOpen:       "TryOpen",
	ChannelOpen:          "Open",
	ChannelClosed:        "Closed",
}

func (s ChannelState) String() string {
	if name, ok := channelStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ChannelState(%d)", int(s))
}

func (s ChannelState) MarshalText() ([]byte, error) {
	if _, ok := channelStateNames[s]; !ok {
		return nil, fmt.Errorf("unknown channel state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *ChannelState) UnmarshalText(text []byte) error {
	for state, name := range channelStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown channel state %q", text)
}

// ToProto maps the state onto the ibc-go channel state enum.
func (s ChannelState) ToProto() channeltypes.State {
	switch s {
	case ChannelInit:
		return channeltypes.INIT
	case ChannelTryOpen:
		return channeltypes.TRYOPEN
	case ChannelOpen:
		return channeltypes.OPEN
	case ChannelClosed:
		return channeltypes.CLOSED
	default:
		return channeltypes.UNINITIALIZED
	}
}

// Order is the packet delivery guarantee of a channel.
type Order int

const (
	OrderNone Order = iota
	Unordered
	Ordered
)

var orderNames = map[Order]string{
	OrderNone: "none",
	Unordered: "unordered",
	Ordered:   "ordered",
}

func (o Order) String() string {
	if name, ok := orderNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Order(%d)", int(o))
}

func (o Order) MarshalText() ([]byte, error) {
	if _, ok := orderNames[o]; !ok {
		return nil, fmt.Errorf("unknown channel order %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *Order) UnmarshalText(text []byte) error {
	for order, name := range orderNames {
		if name == string(text) {
			*o = order
			return nil
		}
	}
	return fmt.Errorf("unknown channel order %q", text)
}

// ToProto maps the order onto the ibc-go channel order enum.
func (o Order) ToProto() channeltypes.Order {
	switch o {
	case Unordered:
		return channeltypes.UNORDERED
	case Ordered:
		return channeltypes.ORDERED
	default:
		return channeltypes.NONE
	}
}

// Counterparty is the remote end of a channel.
// ChannelID is nil until the counterparty channel identifier is known, i.e. during the
// first steps of the opening handshake.
type Counterparty struct {
	PortID    PortID     `json:"port_id" yaml:"port_id"`
	ChannelID *ChannelID `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
}

// NewCounterparty returns a counterparty. Pass nil when the channel id is not yet known.
func NewCounterparty(port PortID, channel *ChannelID) Counterparty {
	if channel != nil {
		id := *channel
		channel = &id
	}
	return Counterparty{PortID: port, ChannelID: channel}
}

// Channel returns the counterparty channel identifier and whether it is set.
func (c Counterparty) Channel() (ChannelID, bool) {
	if c.ChannelID == nil {
		return "", false
	}
	return *c.ChannelID, true
}

// Equal compares port and the presence and value of the channel identifier.
func (c Counterparty) Equal(other Counterparty) bool {
	if c.PortID != other.PortID {
		return false
	}
	a, aok := c.Channel()
	b, bok := other.Channel()
	switch {
	case aok && bok:
		return a == b
	case !aok && !bok:
		return true
	default:
		return false
	}
}

// ChannelEnd is the host chain's record of one end of a channel.
type ChannelEnd struct {
	State          ChannelState   `json:"state" yaml:"state"`
	Ordering       Order          `json:"ordering" yaml:"ordering"`
	Counterparty   Counterparty   `json:"counterparty" yaml:"counterparty"`
	ConnectionHops []ConnectionID `json:"connection_hops" yaml:"connection_hops"`
	Version        string         `json:"version" yaml:"version"`
}

// NewChannelEnd returns a channel end. The hops slice is copied.
func NewChannelEnd(state ChannelState, order Order, counterparty Counterparty, hops []ConnectionID, version string) ChannelEnd {
	return ChannelEnd{
		State:          state,
		Ordering:       order,
		Counterparty:   counterparty,
		ConnectionHops: slices.Clone(hops),
		Version:        version,
	}
}

// StateMatches returns true if the channel is in state s.
func (c ChannelEnd) StateMatches(s ChannelState) bool { return c.State == s }

// CounterpartyMatches returns true if the recorded counterparty equals other.
func (c ChannelEnd) CounterpartyMatches(other Counterparty) bool {
	return c.Counterparty.Equal(other)
}

// FirstHop returns the connection the channel is built on.
// The current protocol version uses exactly one hop.
func (c ChannelEnd) FirstHop() (ConnectionID, bool) {
	if len(c.ConnectionHops) == 0 {
		return "", false
	}
	return c.ConnectionHops[0], true
}

// WithState returns a copy of the channel end in state s.
func (c ChannelEnd) WithState(s ChannelState) ChannelEnd {
	return NewChannelEnd(s, c.Ordering, NewCounterparty(c.Counterparty.PortID, c.Counterparty.ChannelID), c.ConnectionHops, c.Version)
}
