package blockdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/ibc"
)

func TestQuery_CurrentSchemaVersion(t *testing.T) {
	db := emptyDB()
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, "first-sha"))
	require.NoError(t, Migrate(ctx, db, "second-sha"))

	res, err := NewQuery(db).CurrentSchemaVersion(ctx)

	require.NoError(t, err)
	require.Equal(t, "second-sha", res.GitSha)
	require.WithinDuration(t, res.CreatedAt, time.Now(), 10*time.Second)
}

func TestQuery_PacketEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		store, db := newStore(t)
		require.NoError(t, store.SaveState(ctx, loopbackLedger(ibc.Ordered)))

		packet := ibc.Packet{
			Sequence:           7,
			SourcePort:         port,
			SourceChannel:      channelA,
			DestinationPort:    port,
			DestinationChannel: channelB,
			Data:               []byte{1},
			TimeoutHeight:      ibc.NewHeight(0, 100),
		}
		closed := loopbackLedger(ibc.Ordered)
		end, _ := closed.ChannelEnd(port, channelA)
		require.NoError(t, store.Commit(ctx, &handler.Output{
			Result: handler.TimeoutPacketResult{PortID: port, ChannelID: channelA, Sequence: 7},
			Events: []ibc.Event{
				ibc.TimeoutPacket{Height: hostHeight, Packet: packet, Ordering: ibc.Ordered},
				ibc.CloseChannel{Height: hostHeight, PortID: port, ChannelID: channelA, Channel: end.WithState(ibc.ChannelClosed), Connection: ibc.DefaultConnectionID},
			},
		}))

		q := NewQuery(db)
		results, err := q.PacketEvents(ctx, "", "")
		require.NoError(t, err)
		require.Len(t, results, 2)

		timeout := results[0]
		require.Equal(t, "timeout_packet", timeout.Type)
		require.EqualValues(t, 20, timeout.RevisionHeight)
		require.EqualValues(t, 20, timeout.HostHeight.Int64)
		require.EqualValues(t, 7, timeout.Sequence.Int64)
		require.Equal(t, "transfer", timeout.SrcPort.String)
		require.Equal(t, "channel-0", timeout.SrcChannel.String)
		require.Equal(t, "channel-1", timeout.DstChannel.String)
		require.NotEmpty(t, timeout.CreatedAt)

		closeEvent := results[1]
		require.False(t, closeEvent.Sequence.Valid)
		require.Equal(t, "channel-0", closeEvent.SrcChannel.String)
		require.Equal(t, "connection-0", closeEvent.ConnectionID.String)

		results, err = q.PacketEvents(ctx, "transfer", "channel-1")
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, timeout.ID, results[0].ID)

		results, err = q.PacketEvents(ctx, "other", "")
		require.NoError(t, err)
		require.Empty(t, results)

		attrs, err := q.EventAttributes(ctx, timeout.ID)
		require.NoError(t, err)
		require.Contains(t, attrs, EventAttributeResult{Key: "packet_sequence", Value: "7"})
		require.Contains(t, attrs, EventAttributeResult{Key: "packet_src_channel", Value: "channel-0"})
	})

	t.Run("no events", func(t *testing.T) {
		db := migratedDB()
		defer db.Close()

		results, err := NewQuery(db).PacketEvents(ctx, "", "")
		require.NoError(t, err)
		require.Empty(t, results)
	})
}

func TestQuery_ChannelSummaries(t *testing.T) {
	ctx := context.Background()
	store, db := newStore(t)

	require.NoError(t, store.SaveState(ctx, loopbackLedger(ibc.Unordered).
		WithPacketCommitment(port, channelA, 1, []byte{1}).
		WithPacketCommitment(port, channelA, 2, []byte{2}).
		WithPacketReceipt(port, channelB, 1).
		WithPacketAcknowledgement(port, channelB, 1, []byte{3}).
		WithSendSequence(port, channelA, 3)))

	results, err := NewQuery(db).ChannelSummaries(ctx)
	require.NoError(t, err)
	require.Equal(t, []ChannelSummaryResult{
		{PortID: "transfer", ChannelID: "channel-0", State: "Open", Ordering: "unordered", Commitments: 2, NextSequenceSend: nullInt(3)},
		{PortID: "transfer", ChannelID: "channel-1", State: "Open", Ordering: "unordered", Receipts: 1, Acks: 1, NextSequenceSend: nullInt(1)},
	}, results)
}

func nullInt(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }
