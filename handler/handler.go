package handler

import (
	"bytes"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// MissingCommitmentPolicy decides how acknowledge and timeout treat a packet whose
// commitment is already gone, i.e. a packet that was already acknowledged or timed out.
type MissingCommitmentPolicy string

const (
	// MissingCommitmentError rejects the message with ibc.ErrPacketCommitmentNotFound.
	MissingCommitmentError MissingCommitmentPolicy = "error"
	// MissingCommitmentNoOp accepts the message and returns a NoOpResult without events.
	MissingCommitmentNoOp MissingCommitmentPolicy = "noop"
)

// ParseMissingCommitmentPolicy parses "error" or "noop".
func ParseMissingCommitmentPolicy(s string) (MissingCommitmentPolicy, error) {
	switch p := MissingCommitmentPolicy(s); p {
	case MissingCommitmentError, MissingCommitmentNoOp:
		return p, nil
	default:
		return "", fmt.Errorf("unknown missing commitment policy %q (must be %q or %q)", s, MissingCommitmentError, MissingCommitmentNoOp)
	}
}

// Option configures a Handler.
type Option func(*Handler)

// WithMissingCommitmentPolicy sets the policy for acknowledge and timeout on a missing commitment.
// The default is MissingCommitmentError.
func WithMissingCommitmentPolicy(p MissingCommitmentPolicy) Option {
	return func(h *Handler) { h.missingCommitment = p }
}

// Handler validates packet lifecycle transitions.
// A Handler holds only immutable configuration and is safe to share.
type Handler struct {
	log               *zap.Logger
	missingCommitment MissingCommitmentPolicy
}

// New returns a Handler. A nil logger discards handler logs.
func New(log *zap.Logger, opts ...Option) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		log:               log,
		missingCommitment: MissingCommitmentError,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MissingCommitmentPolicy returns the configured policy.
func (h *Handler) MissingCommitmentPolicy() MissingCommitmentPolicy { return h.missingCommitment }

func (h *Handler) rejected(op string, packet ibc.Packet, err error) error {
	h.log.Debug("Packet rejected",
		zap.String("op", op),
		zap.Uint64("sequence", uint64(packet.Sequence)),
		zap.String("src_port", packet.SourcePort.String()),
		zap.String("src_channel", packet.SourceChannel.String()),
		zap.String("dst_port", packet.DestinationPort.String()),
		zap.String("dst_channel", packet.DestinationChannel.String()),
		zap.Error(err),
	)
	return err
}

func (h *Handler) accepted(op string, packet ibc.Packet, out *Output) *Output {
	h.log.Debug("Packet accepted",
		zap.String("op", op),
		zap.String("result", out.Result.Kind()),
		zap.Uint64("sequence", uint64(packet.Sequence)),
		zap.Int("events", len(out.Events)),
	)
	return out
}

// path is the channel, connection and client a packet travels over on the host chain.
type path struct {
	channel      ibc.ChannelEnd
	connectionID ibc.ConnectionID
	connection   ibc.ConnectionEnd
	clientID     ibc.ClientID
	client       ibc.ClientState
}

// checkRelayed rejects packets that no sending chain could have committed.
func checkRelayed(packet ibc.Packet) error {
	if packet.Sequence.IsZero() {
		return ibc.ErrZeroPacketSequence
	}
	if len(packet.Data) == 0 {
		return ibc.ErrZeroPacketData
	}
	return nil
}

// openChannel looks up a channel end that must be Open.
func openChannel(reader ChannelReader, port ibc.PortID, channel ibc.ChannelID) (ibc.ChannelEnd, error) {
	end, ok := reader.ChannelEnd(port, channel)
	if !ok {
		return ibc.ChannelEnd{}, errorsmod.Wrapf(ibc.ErrChannelNotFound, "port %s, channel %s", port, channel)
	}
	switch end.State {
	case ibc.ChannelOpen:
		return end, nil
	case ibc.ChannelClosed:
		return ibc.ChannelEnd{}, errorsmod.Wrapf(ibc.ErrChannelClosed, "port %s, channel %s", port, channel)
	default:
		return ibc.ChannelEnd{}, errorsmod.Wrapf(ibc.ErrInvalidChannelState, "port %s, channel %s is %s, expected %s", port, channel, end.State, ibc.ChannelOpen)
	}
}

func authenticate(reader ChannelReader, port ibc.PortID) error {
	if _, err := reader.AuthenticatedCapability(port); err != nil {
		return errorsmod.Wrapf(ibc.ErrUnauthorized, "port %s: %s", port, err)
	}
	return nil
}

// counterpartyIs checks that the channel's counterparty is exactly (port, channel).
func counterpartyIs(end ibc.ChannelEnd, port ibc.PortID, channel ibc.ChannelID) error {
	want := ibc.NewCounterparty(port, &channel)
	if !end.CounterpartyMatches(want) {
		got, _ := end.Counterparty.Channel()
		return errorsmod.Wrapf(ibc.ErrInvalidPacketCounterparty,
			"packet counterparty %s/%s, channel counterparty %s/%s", port, channel, end.Counterparty.PortID, got)
	}
	return nil
}

// resolve follows the channel's first hop to its connection and light client.
// The client must exist and must not be frozen. If requireOpen is set, the connection must be Open.
func resolve(reader ChannelReader, end ibc.ChannelEnd, requireOpen bool) (path, error) {
	connectionID, ok := end.FirstHop()
	if !ok {
		return path{}, errorsmod.Wrap(ibc.ErrMissingConnection, "channel has no connection hops")
	}
	connection, ok := reader.ConnectionEnd(connectionID)
	if !ok {
		return path{}, errorsmod.Wrapf(ibc.ErrMissingConnection, "connection %s", connectionID)
	}
	if requireOpen && !connection.StateMatches(ibc.ConnectionOpen) {
		return path{}, errorsmod.Wrapf(ibc.ErrInvalidConnectionState, "connection %s is %s, expected %s", connectionID, connection.State, ibc.ConnectionOpen)
	}
	client, ok := reader.ClientState(connection.ClientID)
	if !ok {
		return path{}, errorsmod.Wrapf(ibc.ErrMissingClientState, "client %s", connection.ClientID)
	}
	// A frozen client has detected misbehaviour; nothing relying on it can be proven.
	if client.IsFrozen() {
		return path{}, errorsmod.Wrapf(ibc.ErrFrozenClient, "client %s", connection.ClientID)
	}
	return path{
		channel:      end,
		connectionID: connectionID,
		connection:   connection,
		clientID:     connection.ClientID,
		client:       client,
	}, nil
}

// consensusAt returns the client's consensus state at the proof height.
func (p path) consensusAt(reader ChannelReader, height ibc.Height) (ibc.ConsensusState, error) {
	cs, ok := reader.ClientConsensusState(p.clientID, height)
	if !ok {
		return nil, errorsmod.Wrapf(ibc.ErrMissingClientConsensusState, "client %s, height %s", p.clientID, height)
	}
	return cs, nil
}

// storedCommitment checks the packet commitment on the sending chain.
// The boolean is false when the commitment is absent and the policy turns that into a no-op.
func (h *Handler) storedCommitment(reader ChannelReader, packet ibc.Packet) (bool, error) {
	commitment, ok := reader.PacketCommitment(packet.SourcePort, packet.SourceChannel, packet.Sequence)
	if !ok {
		if h.missingCommitment == MissingCommitmentNoOp {
			return false, nil
		}
		return false, errorsmod.Wrapf(ibc.ErrPacketCommitmentNotFound, "port %s, channel %s, sequence %d", packet.SourcePort, packet.SourceChannel, packet.Sequence)
	}
	if !bytes.Equal(commitment, packet.Commitment()) {
		return false, errorsmod.Wrapf(ibc.ErrInvalidPacket, "commitment for sequence %d does not match packet", packet.Sequence)
	}
	return true, nil
}

func (h *Handler) noOp(op string, packet ibc.Packet) *Output {
	reason := fmt.Sprintf("%s: no commitment for sequence %d on %s/%s, packet already processed", op, packet.Sequence, packet.SourcePort, packet.SourceChannel)
	h.log.Warn("Packet commitment not found, treating as no-op",
		zap.String("op", op),
		zap.Uint64("sequence", uint64(packet.Sequence)),
	)
	return &Output{
		Result: NoOpResult{Reason: reason},
		Logs:   []string{"no-op: " + reason},
	}
}
