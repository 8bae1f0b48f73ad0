package ibc

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace is the ABCI codespace of every packet lifecycle error.
const Codespace = "packetcore"

// Packet lifecycle error kinds. Every rejected transition returns exactly one of these,
// usually wrapped with context; match with errors.Is.
var (
	ErrZeroPacketSequence          = errorsmod.Register(Codespace, 2, "packet sequence cannot be 0")
	ErrZeroPacketTimeout           = errorsmod.Register(Codespace, 3, "packet timeout height and packet timeout timestamp cannot both be 0")
	ErrZeroPacketData              = errorsmod.Register(Codespace, 4, "packet data bytes cannot be empty")
	ErrChannelNotFound             = errorsmod.Register(Codespace, 5, "channel not found")
	ErrChannelClosed               = errorsmod.Register(Codespace, 6, "channel is closed")
	ErrUnauthorized                = errorsmod.Register(Codespace, 7, "port capability not authenticated")
	ErrInvalidPacketCounterparty   = errorsmod.Register(Codespace, 8, "packet counterparty does not match channel counterparty")
	ErrMissingConnection           = errorsmod.Register(Codespace, 9, "connection not found")
	ErrMissingClientState          = errorsmod.Register(Codespace, 10, "client state not found")
	ErrFrozenClient                = errorsmod.Register(Codespace, 11, "client is frozen")
	ErrLowPacketHeight             = errorsmod.Register(Codespace, 12, "packet timeout height is lower than the client latest height")
	ErrMissingClientConsensusState = errorsmod.Register(Codespace, 13, "client consensus state not found")
	ErrMissingHostConsensusState   = errorsmod.Register(Codespace, 14, "host consensus state not found")
	ErrLowPacketTimestamp          = errorsmod.Register(Codespace, 15, "packet timeout timestamp is lower than the client latest timestamp")
	ErrMissingNextSendSeq          = errorsmod.Register(Codespace, 16, "next send sequence not found")
	ErrInvalidPacketSequence       = errorsmod.Register(Codespace, 17, "invalid packet sequence")
	ErrInvalidChannelState         = errorsmod.Register(Codespace, 18, "invalid channel state")
	ErrInvalidConnectionState      = errorsmod.Register(Codespace, 19, "invalid connection state")
	ErrPacketTimeout               = errorsmod.Register(Codespace, 20, "packet has timed out")
	ErrInvalidProof                = errorsmod.Register(Codespace, 21, "proof verification failed")
	ErrMissingNextRecvSeq          = errorsmod.Register(Codespace, 22, "next receive sequence not found")
	ErrPacketAlreadyReceived       = errorsmod.Register(Codespace, 23, "packet already received")
	ErrInvalidAcknowledgement      = errorsmod.Register(Codespace, 24, "invalid acknowledgement")
	ErrAcknowledgementExists       = errorsmod.Register(Codespace, 25, "acknowledgement for packet already exists")
	ErrPacketReceiptNotFound       = errorsmod.Register(Codespace, 26, "packet receipt not found")
	ErrPacketCommitmentNotFound    = errorsmod.Register(Codespace, 27, "packet commitment not found")
	ErrInvalidPacket               = errorsmod.Register(Codespace, 28, "packet does not match stored commitment")
	ErrMissingNextAckSeq           = errorsmod.Register(Codespace, 29, "next acknowledgement sequence not found")
	ErrPacketTimeoutNotReached     = errorsmod.Register(Codespace, 30, "packet timeout has not been reached for the proof height")
	ErrInvalidIdentifier           = errorsmod.Register(Codespace, 31, "invalid identifier")
)
