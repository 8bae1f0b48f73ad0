package ibc

import (
	host "github.com/cosmos/ibc-go/v9/modules/core/24-host"
)

// Default identifiers used when a caller does not care about naming, e.g. in tests.
const (
	DefaultPortID       PortID       = "defaultPort"
	DefaultChannelID    ChannelID    = "channel-0"
	DefaultConnectionID ConnectionID = "connection-0"
	DefaultClientID     ClientID     = "07-tendermint-0"
)

// PortID identifies a port on the host chain.
type PortID string

func (id PortID) String() string { return string(id) }

// Validate returns an error if id is not a valid ICS-24 port identifier.
func (id PortID) Validate() error { return host.PortIdentifierValidator(string(id)) }

// ChannelID identifies a channel end on the host chain.
type ChannelID string

func (id ChannelID) String() string { return string(id) }

// Validate returns an error if id is not a valid ICS-24 channel identifier.
func (id ChannelID) Validate() error { return host.ChannelIdentifierValidator(string(id)) }

// ConnectionID identifies a connection end on the host chain.
type ConnectionID string

func (id ConnectionID) String() string { return string(id) }

// Validate returns an error if id is not a valid ICS-24 connection identifier.
func (id ConnectionID) Validate() error { return host.ConnectionIdentifierValidator(string(id)) }

// ClientID identifies a light client on the host chain.
type ClientID string

func (id ClientID) String() string { return string(id) }

// Validate returns an error if id is not a valid ICS-24 client identifier.
func (id ClientID) Validate() error { return host.ClientIdentifierValidator(string(id)) }
