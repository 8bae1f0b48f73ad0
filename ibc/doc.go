// Package ibc provides the chain-agnostic domain model of the IBC packet layer.
// It exposes identifiers, heights, channel and connection ends, packets and the
// light client contracts the packet handler depends on.
//
// The official spec documentation can be found at https://github.com/cosmos/ibc/tree/master/spec.
// Channel and packet semantics follow ICS-4:
// https://github.com/cosmos/ibc/blob/master/spec/core/ics-004-channel-and-packet-semantics/README.md
package ibc
