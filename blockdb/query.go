package blockdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Query is a service that queries the database.
type Query struct {
	db *sql.DB
}

func NewQuery(db *sql.DB) *Query {
	return &Query{db: db}
}

func timeToLocal(timeStr string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("time.Parse RFC3339: %w", err)
	}
	return t.In(time.Local), nil
}

type SchemaVersionResult struct {
	GitSha string
	// Always set to user's local time zone.
	CreatedAt time.Time
}

// CurrentSchemaVersion returns the latest git sha and time that produced the sqlite schema.
func (q *Query) CurrentSchemaVersion(ctx context.Context) (SchemaVersionResult, error) {
	row := q.db.QueryRowContext(ctx, `SELECT git_sha, created_at FROM schema_version ORDER BY id DESC limit 1`)
	var (
		res      SchemaVersionResult
		createAt string
	)
	if err := row.Scan(&res.GitSha, &createAt); err != nil {
		return res, err
	}
	t, err := timeToLocal(createAt)
	if err != nil {
		return res, fmt.Errorf("parse createdAt: %w", err)
	}
	res.CreatedAt = t
	return res, nil
}

// PacketEventResult is one committed event as seen through v_packet_events.
type PacketEventResult struct {
	ID             int64
	Type           string // E.g. send_packet, channel_close
	RevisionNumber int64
	RevisionHeight int64
	CreatedAt      time.Time
	HostHeight     sql.NullInt64 // Revision height of the host block the event was committed in.
	Sequence       sql.NullInt64 // Null for channel_close.
	SrcPort        sql.NullString
	SrcChannel     sql.NullString
	DstPort        sql.NullString
	DstChannel     sql.NullString
	ConnectionID   sql.NullString
	Raw            string // JSON encoded event.
}

// PacketEvents returns committed events in commit order.
// An empty port matches every port and an empty channel matches every channel; otherwise
// an event matches if either packet end is the given port and channel.
func (q *Query) PacketEvents(ctx context.Context, port, channel string) ([]PacketEventResult, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT
        event_id, type, revision_number, revision_height, created_at, host_height, sequence
        , src_port, src_channel, dst_port, dst_channel, connection_id, raw
    FROM v_packet_events
    WHERE (?1 = '' OR src_port = ?1 OR dst_port = ?1)
      AND (?2 = '' OR src_channel = ?2 OR dst_channel = ?2)
    ORDER BY event_id ASC`, port, channel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []PacketEventResult
	for rows.Next() {
		var (
			res       PacketEventResult
			createdAt string
		)
		if err := rows.Scan(
			&res.ID,
			&res.Type,
			&res.RevisionNumber,
			&res.RevisionHeight,
			&createdAt,
			&res.HostHeight,
			&res.Sequence,
			&res.SrcPort,
			&res.SrcChannel,
			&res.DstPort,
			&res.DstChannel,
			&res.ConnectionID,
			&res.Raw,
		); err != nil {
			return nil, err
		}
		t, err := timeToLocal(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse createdAt: %w", err)
		}
		res.CreatedAt = t
		results = append(results, res)
	}
	return results, rows.Err()
}

type EventAttributeResult struct {
	Key   string
	Value string
}

// EventAttributes returns the ABCI attributes of the event with primary key eventID, in emission order.
func (q *Query) EventAttributes(ctx context.Context, eventID int64) ([]EventAttributeResult, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT key, value FROM event_attr WHERE fk_event_id = ? ORDER BY id ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []EventAttributeResult
	for rows.Next() {
		var res EventAttributeResult
		if err := rows.Scan(&res.Key, &res.Value); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ChannelSummaryResult aggregates the packet records of one channel end.
type ChannelSummaryResult struct {
	PortID           string
	ChannelID        string
	State            string
	Ordering         string
	Commitments      int64
	Receipts         int64
	Acks             int64
	NextSequenceSend sql.NullInt64
}

// ChannelSummaries returns a summary of every channel end ordered by port then channel.
func (q *Query) ChannelSummaries(ctx context.Context) ([]ChannelSummaryResult, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT
        port_id, channel_id, state, ordering, commitments, receipts, acks, next_sequence_send
    FROM v_channel_agg
    ORDER BY port_id ASC, channel_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []ChannelSummaryResult
	for rows.Next() {
		var res ChannelSummaryResult
		if err := rows.Scan(
			&res.PortID,
			&res.ChannelID,
			&res.State,
			&res.Ordering,
			&res.Commitments,
			&res.Receipts,
			&res.Acks,
			&res.NextSequenceSend,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
