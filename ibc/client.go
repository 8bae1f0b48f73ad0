package ibc

import "encoding/json"

// ClientState is a light client's view of a counterparty chain.
// The packet handler depends on nothing else, so any light client algorithm can sit behind it.
type ClientState interface {
	ClientType() string
	LatestHeight() Height
	IsFrozen() bool

	// VerifyMembership verifies that value is stored under path on the counterparty
	// as of the consensus state at height.
	VerifyMembership(height Height, proof []byte, path string, value []byte) error

	// VerifyNonMembership verifies that nothing is stored under path on the counterparty
	// as of the consensus state at height.
	VerifyNonMembership(height Height, proof []byte, path string) error
}

// ConsensusState is a light client's snapshot of a counterparty chain at one height.
// Consensus states are immutable once written.
type ConsensusState interface {
	ClientType() string
	Timestamp() Timestamp
}

// ClientCodec decodes the JSON form of one client type's states, so persisted
// light client records can be restored without the store knowing every client type.
type ClientCodec struct {
	ClientType           string
	DecodeClientState    func(json.RawMessage) (ClientState, error)
	DecodeConsensusState func(json.RawMessage) (ConsensusState, error)
}

// Capability is an unforgeable token authorizing a module to act on a port.
type Capability struct {
	Index uint64 `json:"index" yaml:"index"`
	Port  PortID `json:"port" yaml:"port"`
}
