package handler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/ibc"
	"github.com/strangelove-ventures/packetcore/ledger"
	"github.com/strangelove-ventures/packetcore/mockclient"
)

func defaultChannelLedger() *ledger.State {
	return ledger.New().
		WithChannel(ibc.DefaultPortID, ibc.DefaultChannelID, ibc.NewChannelEnd(ibc.ChannelOpen, ibc.Unordered,
			ibc.NewCounterparty(ibc.DefaultPortID, ptr(ibc.DefaultChannelID)),
			[]ibc.ConnectionID{ibc.DefaultConnectionID}, "")).
		WithPortCapability(ibc.DefaultPortID).
		WithConnection(ibc.DefaultConnectionID, openConnection()).
		WithClient(ibc.DefaultClientID, ibc.Height{}).
		WithSendSequence(ibc.DefaultPortID, ibc.DefaultChannelID, 1)
}

func defaultPacket() ibc.Packet {
	return ibc.Packet{
		Sequence:           1,
		SourcePort:         ibc.DefaultPortID,
		SourceChannel:      ibc.DefaultChannelID,
		DestinationPort:    ibc.DefaultPortID,
		DestinationChannel: ibc.DefaultChannelID,
		Data:               []byte{0},
		TimeoutTimestamp:   6,
	}
}

func ptr[T any](v T) *T { return &v }

func TestSendPacket_Scenarios(t *testing.T) {
	t.Parallel()

	t.Run("channel not found", func(t *testing.T) {
		_, err := newHandler(t).SendPacket(ledger.New(), defaultPacket())
		require.ErrorIs(t, err, ibc.ErrChannelNotFound)
	})

	t.Run("no port capability", func(t *testing.T) {
		s := ledger.New().WithChannel(ibc.DefaultPortID, ibc.DefaultChannelID,
			ibc.NewChannelEnd(ibc.ChannelOpen, ibc.Unordered, ibc.NewCounterparty(ibc.DefaultPortID, nil), nil, ""))
		_, err := newHandler(t).SendPacket(s, defaultPacket())
		require.ErrorIs(t, err, ibc.ErrUnauthorized)
	})

	t.Run("success", func(t *testing.T) {
		packet := defaultPacket()
		out, err := newHandler(t).SendPacket(defaultChannelLedger(), packet)
		require.NoError(t, err)

		res, ok := out.Result.(handler.SendPacketResult)
		require.True(t, ok)
		require.EqualValues(t, 2, res.SendSeqNumber)
		require.Equal(t, packet.Commitment(), res.Commitment)
		require.Equal(t, packet.Data, res.Data)
		require.EqualValues(t, 6, res.TimeoutTimestamp)

		require.Len(t, out.Events, 1)
		ev, ok := out.Events[0].(ibc.SendPacket)
		require.True(t, ok)
		require.True(t, ev.Packet.Equal(packet))
		require.Equal(t, "send_packet", ev.Type())
		require.Equal(t, []string{"success: packet send"}, out.Logs)
	})

	t.Run("empty data and no timeout", func(t *testing.T) {
		packet := defaultPacket()
		packet.Data = nil
		packet.TimeoutTimestamp = 0
		_, err := newHandler(t).SendPacket(defaultChannelLedger(), packet)
		require.ErrorIs(t, err, ibc.ErrZeroPacketTimeout)
		require.NotErrorIs(t, err, ibc.ErrZeroPacketData)
	})
}

func TestSendPacket_StatelessChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*ibc.Packet)
		want   error
	}{
		{"zero sequence", func(p *ibc.Packet) { p.Sequence = 0 }, ibc.ErrZeroPacketSequence},
		{"zero sequence wins over everything", func(p *ibc.Packet) {
			p.Sequence = 0
			p.Data = nil
			p.TimeoutTimestamp = 0
			p.SourceChannel = "channel-99"
		}, ibc.ErrZeroPacketSequence},
		{"zero timeout", func(p *ibc.Packet) { p.TimeoutTimestamp = 0 }, ibc.ErrZeroPacketTimeout},
		{"zero data", func(p *ibc.Packet) { p.Data = []byte{} }, ibc.ErrZeroPacketData},
		{"zero data on unknown channel", func(p *ibc.Packet) {
			p.Data = nil
			p.SourceChannel = "channel-99"
		}, ibc.ErrZeroPacketData},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			packet := defaultPacket()
			tt.mutate(&packet)
			_, err := newHandler(t).SendPacket(defaultChannelLedger(), packet)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSendPacket_IdempotentRejection(t *testing.T) {
	t.Parallel()

	s := defaultChannelLedger()
	before := s.Commitments()
	h := newHandler(t)

	packet := defaultPacket()
	packet.Sequence = 3

	_, err1 := h.SendPacket(s, packet)
	_, err2 := h.SendPacket(s, packet)
	require.ErrorIs(t, err1, ibc.ErrInvalidPacketSequence)
	require.ErrorIs(t, err2, ibc.ErrInvalidPacketSequence)
	require.Equal(t, err1.Error(), err2.Error())
	require.Equal(t, before, s.Commitments())
}

func TestSendPacket_Sequencing(t *testing.T) {
	t.Parallel()

	s := sourceLedger(ibc.Unordered).WithSendSequence(srcPort, srcChannel, 5)
	h := newHandler(t)

	for _, seq := range []ibc.Sequence{4, 6} {
		_, err := h.SendPacket(s, testPacket(seq))
		require.ErrorIs(t, err, ibc.ErrInvalidPacketSequence, "sequence %d", seq)
	}

	out, err := h.SendPacket(s, testPacket(5))
	require.NoError(t, err)
	require.EqualValues(t, 6, out.Result.(handler.SendPacketResult).SendSeqNumber)

	require.NoError(t, s.Apply(out.Result))
	_, err = h.SendPacket(s, testPacket(5))
	require.ErrorIs(t, err, ibc.ErrInvalidPacketSequence)
	_, err = h.SendPacket(s, testPacket(6))
	require.NoError(t, err)
}

func TestSendPacket_EventHeight(t *testing.T) {
	t.Parallel()

	out, err := newHandler(t).SendPacket(sourceLedger(ibc.Ordered), testPacket(1))
	require.NoError(t, err)

	ev := out.Events[0].(ibc.SendPacket)
	require.Equal(t, ibc.NewHeight(0, 120), ev.EventHeight())
	require.Equal(t, ibc.Ordered, ev.Ordering)
	require.Equal(t, ibc.DefaultConnectionID, ev.Connection)
}

func TestSendPacket_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		state  func() *ledger.State
		packet func() ibc.Packet
		want   error
	}{
		{
			name: "closed channel",
			state: func() *ledger.State {
				return sourceLedger(ibc.Unordered).WithChannel(srcPort, srcChannel,
					openChannel(ibc.Unordered, dstPort, dstChannel).WithState(ibc.ChannelClosed))
			},
			want: ibc.ErrChannelClosed,
		},
		{
			name: "missing connection",
			state: func() *ledger.State {
				end := openChannel(ibc.Unordered, dstPort, dstChannel)
				end.ConnectionHops = []ibc.ConnectionID{"connection-7"}
				return sourceLedger(ibc.Unordered).WithChannel(srcPort, srcChannel, end)
			},
			want: ibc.ErrMissingConnection,
		},
		{
			name: "no connection hops",
			state: func() *ledger.State {
				end := openChannel(ibc.Unordered, dstPort, dstChannel)
				end.ConnectionHops = nil
				return sourceLedger(ibc.Unordered).WithChannel(srcPort, srcChannel, end)
			},
			want: ibc.ErrMissingConnection,
		},
		{
			name: "missing client state",
			state: func() *ledger.State {
				conn := openConnection()
				conn.ClientID = "07-tendermint-5"
				return sourceLedger(ibc.Unordered).WithConnection(ibc.DefaultConnectionID, conn)
			},
			want: ibc.ErrMissingClientState,
		},
		{
			name: "frozen client",
			state: func() *ledger.State {
				return sourceLedger(ibc.Unordered).WithClientState(ibc.DefaultClientID, mockclient.NewClientState(clientHeight).Freeze())
			},
			want: ibc.ErrFrozenClient,
		},
		{
			name: "low packet height",
			state: func() *ledger.State {
				return sourceLedger(ibc.Unordered).WithHost(ibc.NewHeight(0, 2), hostTime)
			},
			packet: func() ibc.Packet {
				p := testPacket(1)
				p.TimeoutHeight = ibc.NewHeight(0, 3)
				return p
			},
			want: ibc.ErrLowPacketHeight,
		},
		{
			// The revision number of a relative timeout height is not consulted.
			name: "timeout revision number ignored",
			state: func() *ledger.State {
				return sourceLedger(ibc.Unordered).WithHost(ibc.NewHeight(0, 2), hostTime)
			},
			packet: func() ibc.Packet {
				p := testPacket(1)
				p.TimeoutHeight = ibc.NewHeight(5, 3)
				return p
			},
			want: ibc.ErrLowPacketHeight,
		},
		{
			name: "missing client consensus state",
			state: func() *ledger.State {
				return sourceLedger(ibc.Unordered).WithClientState(ibc.DefaultClientID, mockclient.NewClientState(ibc.NewHeight(0, 11)))
			},
			want: ibc.ErrMissingClientConsensusState,
		},
		{
			name: "missing host consensus state",
			state: func() *ledger.State {
				return sourceLedger(ibc.Unordered).WithoutHostConsensusState()
			},
			want: ibc.ErrMissingHostConsensusState,
		},
		{
			name: "low packet timestamp",
			state: func() *ledger.State {
				return sourceLedger(ibc.Unordered).WithConsensusState(ibc.DefaultClientID, clientHeight, mockclient.NewConsensusState(10_000))
			},
			packet: func() ibc.Packet {
				p := testPacket(1)
				p.TimeoutHeight = ibc.Height{}
				p.TimeoutTimestamp = 10
				return p
			},
			want: ibc.ErrLowPacketTimestamp,
		},
		{
			name: "missing next send sequence",
			state: func() *ledger.State {
				return baseLedger(ibc.Unordered, srcPort, srcChannel, dstPort, dstChannel)
			},
			want: ibc.ErrMissingNextSendSeq,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			packet := testPacket(1)
			if tt.packet != nil {
				packet = tt.packet()
			}
			out, err := newHandler(t).SendPacket(tt.state(), packet)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, out)
		})
	}
}

func TestSendPacket_ConnectionNotOpen(t *testing.T) {
	t.Parallel()

	conn := openConnection()
	conn.State = ibc.ConnectionInit
	s := sourceLedger(ibc.Unordered).WithConnection(ibc.DefaultConnectionID, conn)

	_, err := newHandler(t).SendPacket(s, testPacket(1))
	require.NoError(t, err)
}
