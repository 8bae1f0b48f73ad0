// Package handler implements the ICS-4 packet lifecycle: send, receive, write acknowledgement,
// acknowledge and timeout.
//
// Each operation is a pure function of a read-only ChannelReader and an already parsed message.
// Validation runs in a fixed order and stops at the first failure, returning one of the error
// kinds declared in package ibc. On success the operation returns an Output describing the state
// change the caller must apply (a PacketResult), the events to emit and human-readable log lines.
// The handler itself never writes state.
package handler
