package handler

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// MsgRecvPacket delivers a packet to the receiving chain with a proof of its commitment
// on the sending chain.
type MsgRecvPacket struct {
	Packet          ibc.Packet `json:"packet"`
	ProofCommitment []byte     `json:"proof_commitment"`
	ProofHeight     ibc.Height `json:"proof_height"`
}

// MsgWriteAcknowledgement is the receiving application's acknowledgement of a received packet.
type MsgWriteAcknowledgement struct {
	Packet          ibc.Packet          `json:"packet"`
	Acknowledgement ibc.Acknowledgement `json:"acknowledgement"`
}

// MsgAcknowledgement relays an acknowledgement back to the sending chain with a proof
// that the receiving chain stored it.
type MsgAcknowledgement struct {
	Packet          ibc.Packet          `json:"packet"`
	Acknowledgement ibc.Acknowledgement `json:"acknowledgement"`
	ProofAcked      []byte              `json:"proof_acked"`
	ProofHeight     ibc.Height          `json:"proof_height"`
}

// MsgTimeout proves to the sending chain that a packet was not received before its timeout.
// NextSequenceRecv is the receiving end's next receive sequence at ProofHeight and is only
// meaningful for ordered channels.
type MsgTimeout struct {
	Packet           ibc.Packet   `json:"packet"`
	ProofUnreceived  []byte       `json:"proof_unreceived"`
	ProofHeight      ibc.Height   `json:"proof_height"`
	NextSequenceRecv ibc.Sequence `json:"next_sequence_recv"`
}

func validateProof(proof []byte, height ibc.Height) error {
	var merr error
	if len(proof) == 0 {
		merr = multierr.Append(merr, errors.New("proof cannot be empty"))
	}
	if height.IsZero() {
		merr = multierr.Append(merr, errors.New("proof height cannot be zero"))
	}
	return merr
}

// ValidateBasic performs stateless checks.
func (msg MsgRecvPacket) ValidateBasic() error {
	return multierr.Combine(msg.Packet.ValidateBasic(), validateProof(msg.ProofCommitment, msg.ProofHeight))
}

// ValidateBasic performs stateless checks.
func (msg MsgWriteAcknowledgement) ValidateBasic() error {
	return multierr.Combine(msg.Packet.ValidateBasic(), msg.Acknowledgement.Validate())
}

// ValidateBasic performs stateless checks.
func (msg MsgAcknowledgement) ValidateBasic() error {
	return multierr.Combine(
		msg.Packet.ValidateBasic(),
		msg.Acknowledgement.Validate(),
		validateProof(msg.ProofAcked, msg.ProofHeight),
	)
}

// ValidateBasic performs stateless checks.
func (msg MsgTimeout) ValidateBasic() error {
	var merr error
	if msg.NextSequenceRecv.IsZero() {
		merr = errors.New("next sequence receive cannot be 0")
	}
	return multierr.Combine(msg.Packet.ValidateBasic(), validateProof(msg.ProofUnreceived, msg.ProofHeight), merr)
}
