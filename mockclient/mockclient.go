// Package mockclient is a deterministic light client for tests and local ledgers.
//
// It verifies no headers. A membership proof is the sha256 digest of the proof height,
// path and value; a non-membership proof is the digest of the height and path. Anyone can
// forge such proofs, so the client must never back a real connection.
package mockclient

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// ClientType is the client type reported by mock clients and consensus states.
const ClientType = "9999-mock"

var (
	_ ibc.ClientState    = ClientState{}
	_ ibc.ConsensusState = ConsensusState{}
)

// ClientState tracks only the latest height and whether the client is frozen.
type ClientState struct {
	Height ibc.Height `json:"latest_height" yaml:"latest_height"`
	Frozen bool       `json:"frozen" yaml:"frozen"`
}

// NewClientState returns an unfrozen client at height.
func NewClientState(height ibc.Height) ClientState {
	return ClientState{Height: height}
}

func (cs ClientState) ClientType() string       { return ClientType }
func (cs ClientState) LatestHeight() ibc.Height { return cs.Height }
func (cs ClientState) IsFrozen() bool           { return cs.Frozen }

// Freeze returns a frozen copy of the client.
func (cs ClientState) Freeze() ClientState {
	cs.Frozen = true
	return cs
}

func (cs ClientState) VerifyMembership(height ibc.Height, proof []byte, path string, value []byte) error {
	if err := cs.checkHeight(height); err != nil {
		return err
	}
	if !bytes.Equal(proof, MembershipProof(height, path, value)) {
		return fmt.Errorf("invalid membership proof for %s at height %s", path, height)
	}
	return nil
}

func (cs ClientState) VerifyNonMembership(height ibc.Height, proof []byte, path string) error {
	if err := cs.checkHeight(height); err != nil {
		return err
	}
	if !bytes.Equal(proof, NonMembershipProof(height, path)) {
		return fmt.Errorf("invalid non-membership proof for %s at height %s", path, height)
	}
	return nil
}

func (cs ClientState) checkHeight(height ibc.Height) error {
	if cs.Frozen {
		return fmt.Errorf("client is frozen")
	}
	if height.GT(cs.Height) {
		return fmt.Errorf("proof height %s is ahead of client latest height %s", height, cs.Height)
	}
	return nil
}

// ConsensusState records the counterparty block time at one height.
type ConsensusState struct {
	Time ibc.Timestamp `json:"timestamp" yaml:"timestamp"`
}

// NewConsensusState returns a consensus state with timestamp ts.
func NewConsensusState(ts ibc.Timestamp) ConsensusState {
	return ConsensusState{Time: ts}
}

func (cs ConsensusState) ClientType() string       { return ClientType }
func (cs ConsensusState) Timestamp() ibc.Timestamp { return cs.Time }

// MembershipProof returns the proof that value is stored under path at height.
func MembershipProof(height ibc.Height, path string, value []byte) []byte {
	return digest("membership", height, path, value)
}

// NonMembershipProof returns the proof that nothing is stored under path at height.
func NonMembershipProof(height ibc.Height, path string) []byte {
	return digest("non-membership", height, path, nil)
}

func digest(kind string, height ibc.Height, path string, value []byte) []byte {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write(binary.BigEndian.AppendUint64(nil, height.RevisionNumber))
	h.Write(binary.BigEndian.AppendUint64(nil, height.RevisionHeight))
	h.Write([]byte(path))
	h.Write(value)
	return h.Sum(nil)
}

// Codec decodes persisted mock client and consensus states.
func Codec() ibc.ClientCodec {
	return ibc.ClientCodec{
		ClientType: ClientType,
		DecodeClientState: func(raw json.RawMessage) (ibc.ClientState, error) {
			var cs ClientState
			if err := json.Unmarshal(raw, &cs); err != nil {
				return nil, fmt.Errorf("decode mock client state: %w", err)
			}
			return cs, nil
		},
		DecodeConsensusState: func(raw json.RawMessage) (ibc.ConsensusState, error) {
			var cs ConsensusState
			if err := json.Unmarshal(raw, &cs); err != nil {
				return nil, fmt.Errorf("decode mock consensus state: %w", err)
			}
			return cs, nil
		},
	}
}
