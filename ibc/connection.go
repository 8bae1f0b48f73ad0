package ibc

import (
	"fmt"
	"time"
)

// ConnectionState is the handshake state of a connection end.
type ConnectionState int

const (
	ConnectionUninitialized ConnectionState = iota
	ConnectionInit
	ConnectionTryOpen
	ConnectionOpen
)

var connectionStateNames = map[ConnectionState]string{
	ConnectionUninitialized: "Uninitialized",
	ConnectionInit:          "Init",
	ConnectionTryOpen:       "TryOpen",
	ConnectionOpen:          "Open",
}

func (s ConnectionState) String() string {
	if name, ok := connectionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ConnectionState(%d)", int(s))
}

func (s ConnectionState) MarshalText() ([]byte, error) {
	if _, ok := connectionStateNames[s]; !ok {
		return nil, fmt.Errorf("unknown connection state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *ConnectionState) UnmarshalText(text []byte) error {
	for state, name := range connectionStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown connection state %q", text)
}

// ConnectionCounterparty is the remote end of a connection.
type ConnectionCounterparty struct {
	ClientID     ClientID     `json:"client_id" yaml:"client_id"`
	ConnectionID ConnectionID `json:"connection_id,omitempty" yaml:"connection_id,omitempty"`
	Prefix       []byte       `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Version is a negotiated connection version.
type Version struct {
	Identifier string   `json:"identifier" yaml:"identifier"`
	Features   []string `json:"features" yaml:"features"`
}

// DefaultVersion is the ICS-3 version supported by the host.
func DefaultVersion() Version {
	return Version{Identifier: "1", Features: []string{"ORDER_ORDERED", "ORDER_UNORDERED"}}
}

// ConnectionEnd is the host chain's record of one end of a connection.
// It is owned by the connection handshake and read-only to the packet handler.
type ConnectionEnd struct {
	State        ConnectionState        `json:"state" yaml:"state"`
	ClientID     ClientID               `json:"client_id" yaml:"client_id"`
	Counterparty ConnectionCounterparty `json:"counterparty" yaml:"counterparty"`
	Versions     []Version              `json:"versions" yaml:"versions"`
	DelayPeriod  time.Duration          `json:"delay_period" yaml:"delay_period"`
}

// StateMatches returns true if the connection is in state s.
func (c ConnectionEnd) StateMatches(s ConnectionState) bool { return c.State == s }
