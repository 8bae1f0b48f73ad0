package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/ibc"
)

func TestState_Apply(t *testing.T) {
	t.Parallel()

	port, channel := ibc.DefaultPortID, ibc.DefaultChannelID

	t.Run("send", func(t *testing.T) {
		s := New()
		err := s.Apply(handler.SendPacketResult{PortID: port, ChannelID: channel, Sequence: 1, SendSeqNumber: 2, Commitment: []byte{1}})
		require.NoError(t, err)

		c, ok := s.PacketCommitment(port, channel, 1)
		require.True(t, ok)
		require.Equal(t, []byte{1}, c)
		seq, ok := s.NextSequenceSend(port, channel)
		require.True(t, ok)
		require.EqualValues(t, 2, seq)
	})

	t.Run("recv ordered", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Apply(handler.RecvPacketResult{PortID: port, ChannelID: channel, Sequence: 1, Ordering: ibc.Ordered, NextSeqRecv: 2}))

		seq, ok := s.NextSequenceRecv(port, channel)
		require.True(t, ok)
		require.EqualValues(t, 2, seq)
		require.False(t, s.PacketReceipt(port, channel, 1))
	})

	t.Run("recv unordered", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Apply(handler.RecvPacketResult{PortID: port, ChannelID: channel, Sequence: 7, Ordering: ibc.Unordered}))

		require.True(t, s.PacketReceipt(port, channel, 7))
		_, ok := s.NextSequenceRecv(port, channel)
		require.False(t, ok)
	})

	t.Run("write ack", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Apply(handler.WriteAckResult{PortID: port, ChannelID: channel, Sequence: 3, AckCommitment: []byte{9}}))

		ack, ok := s.PacketAcknowledgement(port, channel, 3)
		require.True(t, ok)
		require.Equal(t, []byte{9}, ack)
	})

	t.Run("ack", func(t *testing.T) {
		s := New().WithPacketCommitment(port, channel, 1, []byte{1})
		next := ibc.Sequence(2)
		require.NoError(t, s.Apply(handler.AckPacketResult{PortID: port, ChannelID: channel, Sequence: 1, NextSeqAck: &next}))

		_, ok := s.PacketCommitment(port, channel, 1)
		require.False(t, ok)
		seq, ok := s.NextSequenceAck(port, channel)
		require.True(t, ok)
		require.EqualValues(t, 2, seq)
	})

	t.Run("timeout closes channel", func(t *testing.T) {
		end := ibc.NewChannelEnd(ibc.ChannelOpen, ibc.Ordered, ibc.NewCounterparty(port, &channel), []ibc.ConnectionID{ibc.DefaultConnectionID}, "")
		s := New().WithChannel(port, channel, end).WithPacketCommitment(port, channel, 1, []byte{1})
		closed := end.WithState(ibc.ChannelClosed)
		require.NoError(t, s.Apply(handler.TimeoutPacketResult{PortID: port, ChannelID: channel, Sequence: 1, Channel: &closed}))

		_, ok := s.PacketCommitment(port, channel, 1)
		require.False(t, ok)
		got, ok := s.ChannelEnd(port, channel)
		require.True(t, ok)
		require.Equal(t, ibc.ChannelClosed, got.State)
	})

	t.Run("noop", func(t *testing.T) {
		s := New().WithPacketCommitment(port, channel, 1, []byte{1})
		require.NoError(t, s.Apply(handler.NoOpResult{Reason: "already acknowledged"}))
		require.Len(t, s.Commitments(), 1)
	})
}

func TestState_Clone(t *testing.T) {
	t.Parallel()

	port, channel := ibc.DefaultPortID, ibc.DefaultChannelID
	s := New().
		WithClient(ibc.DefaultClientID, ibc.NewHeight(0, 5)).
		WithPacketCommitment(port, channel, 1, []byte{1, 2, 3}).
		WithSendSequence(port, channel, 2)

	clone := s.Clone()
	require.NoError(t, clone.Apply(handler.SendPacketResult{PortID: port, ChannelID: channel, Sequence: 2, SendSeqNumber: 3, Commitment: []byte{4}}))

	seq, _ := s.NextSequenceSend(port, channel)
	require.EqualValues(t, 2, seq)
	require.Len(t, s.Commitments(), 1)
	require.Len(t, clone.Commitments(), 2)

	c, _ := clone.PacketCommitment(port, channel, 1)
	c[0] = 0xff
	orig, _ := s.PacketCommitment(port, channel, 1)
	require.Equal(t, byte(1), orig[0])
}

func TestState_AuthenticatedCapability(t *testing.T) {
	t.Parallel()

	s := New().WithPortCapability("transfer").WithPortCapability("oracle").WithPortCapability("transfer")

	c, err := s.AuthenticatedCapability("transfer")
	require.NoError(t, err)
	require.Equal(t, ibc.Capability{Index: 1, Port: "transfer"}, c)

	c, err = s.AuthenticatedCapability("oracle")
	require.NoError(t, err)
	require.EqualValues(t, 2, c.Index)

	_, err = s.AuthenticatedCapability("unknown")
	require.Error(t, err)
}

func TestState_Host(t *testing.T) {
	t.Parallel()

	s := New()
	require.Equal(t, DefaultHostHeight, s.HostCurrentHeight())
	_, ok := s.HostConsensusState()
	require.True(t, ok)

	s.WithHost(ibc.NewHeight(1, 20), 500)
	cs, ok := s.HostConsensusState()
	require.True(t, ok)
	require.EqualValues(t, 500, cs.Timestamp())
	require.Equal(t, ibc.NewHeight(1, 20), s.HostCurrentHeight())

	s.WithoutHostConsensusState()
	_, ok = s.HostConsensusState()
	require.False(t, ok)
}

func TestState_Records(t *testing.T) {
	t.Parallel()

	s := New().
		WithSendSequence("b", "channel-1", 4).
		WithSendSequence("a", "channel-1", 2).
		WithRecvSequence("a", "channel-1", 3).
		WithPacketReceipt("a", "channel-1", 9).
		WithPacketReceipt("a", "channel-1", 2)

	require.Equal(t, []SequenceRecord{
		{Port: "a", Channel: "channel-1", Kind: SequenceRecv, Value: 3},
		{Port: "a", Channel: "channel-1", Kind: SequenceSend, Value: 2},
		{Port: "b", Channel: "channel-1", Kind: SequenceSend, Value: 4},
	}, s.Sequences())

	require.Equal(t, []PacketRecord{
		{Port: "a", Channel: "channel-1", Sequence: 2},
		{Port: "a", Channel: "channel-1", Sequence: 9},
	}, s.Receipts())

	require.Equal(t, "nextSequenceRecv/ports/a/channels/channel-1", SequenceRecv.Path("a", "channel-1"))
}
