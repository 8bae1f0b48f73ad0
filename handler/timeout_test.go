package handler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/ibc"
	"github.com/strangelove-ventures/packetcore/ledger"
	"github.com/strangelove-ventures/packetcore/mockclient"
)

var proofHeight = ibc.NewHeight(0, 150)

const proofTime ibc.Timestamp = 9_000

// expiredLedger is a sending chain holding the commitment of packet whose client has
// advanced past the packet's timeout height.
func expiredLedger(order ibc.Order, packet ibc.Packet) *ledger.State {
	return sourceLedger(order).
		WithClientState(ibc.DefaultClientID, mockclient.NewClientState(proofHeight)).
		WithConsensusState(ibc.DefaultClientID, proofHeight, mockclient.NewConsensusState(proofTime)).
		WithPacketCommitment(packet.SourcePort, packet.SourceChannel, packet.Sequence, packet.Commitment())
}

func TestTimeoutPacket_Unordered(t *testing.T) {
	t.Parallel()

	packet := testPacket(1)
	s := expiredLedger(ibc.Unordered, packet)
	h := newHandler(t)

	out, err := h.TimeoutPacket(s, unorderedTimeoutMsg(packet, proofHeight))
	require.NoError(t, err)
	require.Equal(t, handler.TimeoutPacketResult{PortID: srcPort, ChannelID: srcChannel, Sequence: 1}, out.Result)
	require.Len(t, out.Events, 1)
	require.Equal(t, "timeout_packet", out.Events[0].Type())
	require.Equal(t, []string{"success: packet timeout"}, out.Logs)

	require.NoError(t, s.Apply(out.Result))
	end, _ := s.ChannelEnd(srcPort, srcChannel)
	require.Equal(t, ibc.ChannelOpen, end.State)

	_, err = h.TimeoutPacket(s, unorderedTimeoutMsg(packet, proofHeight))
	require.ErrorIs(t, err, ibc.ErrPacketCommitmentNotFound)
}

func TestTimeoutPacket_TimestampElapsed(t *testing.T) {
	t.Parallel()

	packet := testPacket(1)
	packet.TimeoutHeight = ibc.Height{}
	packet.TimeoutTimestamp = uint64(proofTime)

	_, err := newHandler(t).TimeoutPacket(expiredLedger(ibc.Unordered, packet), unorderedTimeoutMsg(packet, proofHeight))
	require.NoError(t, err)

	packet.TimeoutTimestamp = uint64(proofTime) + 1
	_, err = newHandler(t).TimeoutPacket(expiredLedger(ibc.Unordered, packet), unorderedTimeoutMsg(packet, proofHeight))
	require.ErrorIs(t, err, ibc.ErrPacketTimeoutNotReached)
}

func TestTimeoutPacket_OrderedClosesChannel(t *testing.T) {
	t.Parallel()

	packet := testPacket(1)
	s := expiredLedger(ibc.Ordered, packet)
	h := newHandler(t)

	out, err := h.TimeoutPacket(s, orderedTimeoutMsg(packet, proofHeight, 1))
	require.NoError(t, err)

	res := out.Result.(handler.TimeoutPacketResult)
	require.NotNil(t, res.Channel)
	require.Equal(t, ibc.ChannelClosed, res.Channel.State)

	require.Len(t, out.Events, 2)
	closed, ok := out.Events[1].(ibc.CloseChannel)
	require.True(t, ok)
	require.Equal(t, srcChannel, closed.ChannelID)

	require.NoError(t, s.Apply(res))
	end, _ := s.ChannelEnd(srcPort, srcChannel)
	require.Equal(t, ibc.ChannelClosed, end.State)

	_, err = h.SendPacket(s, testPacket(1))
	require.ErrorIs(t, err, ibc.ErrChannelClosed)
}

func TestTimeoutPacket_NoOpPolicy(t *testing.T) {
	t.Parallel()

	packet := testPacket(1)
	s := sourceLedger(ibc.Unordered).
		WithClientState(ibc.DefaultClientID, mockclient.NewClientState(proofHeight)).
		WithConsensusState(ibc.DefaultClientID, proofHeight, mockclient.NewConsensusState(proofTime))

	h := newHandler(t, handler.WithMissingCommitmentPolicy(handler.MissingCommitmentNoOp))
	out, err := h.TimeoutPacket(s, unorderedTimeoutMsg(packet, proofHeight))
	require.NoError(t, err)
	require.IsType(t, handler.NoOpResult{}, out.Result)
	require.Empty(t, out.Events)
}

func TestTimeoutPacket_ConnectionNotOpen(t *testing.T) {
	t.Parallel()

	packet := testPacket(1)
	conn := openConnection()
	conn.State = ibc.ConnectionTryOpen
	s := expiredLedger(ibc.Unordered, packet).WithConnection(ibc.DefaultConnectionID, conn)

	_, err := newHandler(t).TimeoutPacket(s, unorderedTimeoutMsg(packet, proofHeight))
	require.NoError(t, err)
}

func TestTimeoutPacket_Rejections(t *testing.T) {
	t.Parallel()

	packet := testPacket(1)

	tests := []struct {
		name  string
		order ibc.Order
		state func(*ledger.State) *ledger.State
		msg   handler.MsgTimeout
		want  error
	}{
		{
			name:  "zero sequence",
			order: ibc.Unordered,
			msg:   unorderedTimeoutMsg(testPacket(0), proofHeight),
			want:  ibc.ErrZeroPacketSequence,
		},
		{
			name:  "empty data",
			order: ibc.Unordered,
			msg: func() handler.MsgTimeout {
				p := testPacket(1)
				p.Data = nil
				return unorderedTimeoutMsg(p, proofHeight)
			}(),
			want: ibc.ErrZeroPacketData,
		},
		{
			name:  "timeout not reached",
			order: ibc.Unordered,
			msg:   unorderedTimeoutMsg(packet, clientHeight),
			want:  ibc.ErrPacketTimeoutNotReached,
		},
		{
			name:  "missing consensus state at proof height",
			order: ibc.Unordered,
			msg:   unorderedTimeoutMsg(packet, ibc.NewHeight(0, 149)),
			want:  ibc.ErrMissingClientConsensusState,
		},
		{
			name:  "invalid non-membership proof",
			order: ibc.Unordered,
			msg: func() handler.MsgTimeout {
				msg := unorderedTimeoutMsg(packet, proofHeight)
				msg.ProofUnreceived = []byte("forged")
				return msg
			}(),
			want: ibc.ErrInvalidProof,
		},
		{
			name:  "ordered packet already received",
			order: ibc.Ordered,
			msg:   orderedTimeoutMsg(packet, proofHeight, 2),
			want:  ibc.ErrPacketAlreadyReceived,
		},
		{
			name:  "ordered invalid next sequence proof",
			order: ibc.Ordered,
			msg: func() handler.MsgTimeout {
				msg := orderedTimeoutMsg(packet, proofHeight, 1)
				msg.ProofUnreceived = mockclient.MembershipProof(proofHeight, "nextSequenceRecv/ports/x/channels/channel-5", ibc.SequenceBytes(1))
				return msg
			}(),
			want: ibc.ErrInvalidProof,
		},
		{
			name:  "frozen client",
			order: ibc.Unordered,
			state: func(s *ledger.State) *ledger.State {
				return s.WithClientState(ibc.DefaultClientID, mockclient.NewClientState(proofHeight).Freeze())
			},
			msg:  unorderedTimeoutMsg(packet, proofHeight),
			want: ibc.ErrFrozenClient,
		},
		{
			name:  "missing connection",
			order: ibc.Unordered,
			state: func(s *ledger.State) *ledger.State {
				end := openChannel(ibc.Unordered, dstPort, dstChannel)
				end.ConnectionHops = []ibc.ConnectionID{"connection-3"}
				return s.WithChannel(srcPort, srcChannel, end)
			},
			msg:  unorderedTimeoutMsg(packet, proofHeight),
			want: ibc.ErrMissingConnection,
		},
		{
			name:  "commitment does not match",
			order: ibc.Unordered,
			state: func(s *ledger.State) *ledger.State {
				return s.WithPacketCommitment(srcPort, srcChannel, 1, []byte("stale"))
			},
			msg:  unorderedTimeoutMsg(packet, proofHeight),
			want: ibc.ErrInvalidPacket,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			state := expiredLedger(tt.order, packet)
			if tt.state != nil {
				state = tt.state(state)
			}
			_, err := newHandler(t).TimeoutPacket(state, tt.msg)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
