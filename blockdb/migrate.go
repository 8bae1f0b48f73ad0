package blockdb

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate migrates db in an idempotent manner.
// If an error is returned, it's acceptable to delete the database and start over.
//
// Every ledger record table carries the ICS-24 path the record is proven under. Packet events
// hang off the host block they were committed in:
//
//	┌────────────────────┐          ┌────────────────────┐          ┌────────────────────┐
//	│                    │          │                    │          │                    │
//	│                    │         ╱│                    │         ╱│                    │
//	│     Host Block     │───────○─│       Event        │────────○─│   Event Attribute  │
//	│                    │         ╲│                    │         ╲│                    │
//	│                    │          │                    │          │                    │
//	└────────────────────┘          └────────────────────┘          └────────────────────┘
//
// The gitSha ensures we can trace back to the version of the codebase that produced the schema.
func Migrate(ctx context.Context, db *sql.DB, gitSha string) error {
	// If a timeout is encountered, sleep and try again,
	// up until the provided number of milliseconds.
	//
	// https://www.sqlite.org/pragma.html#pragma_busy_timeout
	_, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 4000`)
	if err != nil {
		return fmt.Errorf("pragma busy_timeout: %w", err)
	}

	// "WAL provides more concurrency as readers do not block writers and a writer does not block readers."
	//
	// https://www.sqlite.org/pragma.html#pragma_journal_mode
	_, err = db.ExecContext(ctx, `PRAGMA journal_mode = WAL`)
	if err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}

	_, err = db.ExecContext(ctx, `PRAGMA foreign_keys = ON`)
	if err != nil {
		return fmt.Errorf("pragma foreign_keys: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		// If commit succeeded, rollback will return nil;
		// if a step failed, the returned error is more meaningful.
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version(
    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL CHECK (length(created_at) > 0),
    git_sha TEXT NOT NULL CHECK (length(git_sha) > 0),
    UNIQUE(git_sha)
)`)
	if err != nil {
		return fmt.Errorf("create table schema_version: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO schema_version(created_at, git_sha) VALUES (?, ?)
ON CONFLICT(git_sha) DO UPDATE SET git_sha=git_sha`, nowRFC3339(), gitSha)
	if err != nil {
		return fmt.Errorf("upsert schema_version with git sha %s: %w", gitSha, err)
	}

	for _, step := range []struct {
		table, ddl string
	}{
		{"host_block", `CREATE TABLE IF NOT EXISTS host_block (
    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    revision_number INTEGER NOT NULL,
    revision_height INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    has_consensus INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL CHECK (length(created_at) > 0),
    UNIQUE(revision_number, revision_height)
)`},
		{"client", `CREATE TABLE IF NOT EXISTS client (
    client_id TEXT NOT NULL PRIMARY KEY CHECK (length(client_id) > 0),
    client_type TEXT NOT NULL CHECK (length(client_type) > 0),
    state TEXT NOT NULL,
    path TEXT NOT NULL
)`},
		{"consensus_state", `CREATE TABLE IF NOT EXISTS consensus_state (
    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    fk_client_id TEXT NOT NULL,
    revision_number INTEGER NOT NULL,
    revision_height INTEGER NOT NULL,
    state TEXT NOT NULL,
    path TEXT NOT NULL,
    FOREIGN KEY(fk_client_id) REFERENCES client(client_id) ON DELETE CASCADE,
    UNIQUE(fk_client_id, revision_number, revision_height)
)`},
		{"connection", `CREATE TABLE IF NOT EXISTS connection (
    connection_id TEXT NOT NULL PRIMARY KEY CHECK (length(connection_id) > 0),
    state TEXT NOT NULL,
    path TEXT NOT NULL
)`},
		{"channel", `CREATE TABLE IF NOT EXISTS channel (
    port_id TEXT NOT NULL CHECK (length(port_id) > 0),
    channel_id TEXT NOT NULL CHECK (length(channel_id) > 0),
    state TEXT NOT NULL,
    ordering TEXT NOT NULL,
    channel_end TEXT NOT NULL,
    path TEXT NOT NULL,
    PRIMARY KEY(port_id, channel_id)
)`},
		{"sequence", `CREATE TABLE IF NOT EXISTS sequence (
    port_id TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('send', 'recv', 'ack')),
    value INTEGER NOT NULL CHECK (value > 0),
    path TEXT NOT NULL,
    PRIMARY KEY(port_id, channel_id, kind)
)`},
		{"packet_commitment", `CREATE TABLE IF NOT EXISTS packet_commitment (
    port_id TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    sequence INTEGER NOT NULL CHECK (sequence > 0),
    commitment BLOB NOT NULL,
    path TEXT NOT NULL,
    PRIMARY KEY(port_id, channel_id, sequence)
)`},
		{"packet_receipt", `CREATE TABLE IF NOT EXISTS packet_receipt (
    port_id TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    sequence INTEGER NOT NULL CHECK (sequence > 0),
    path TEXT NOT NULL,
    PRIMARY KEY(port_id, channel_id, sequence)
)`},
		{"packet_ack", `CREATE TABLE IF NOT EXISTS packet_ack (
    port_id TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    sequence INTEGER NOT NULL CHECK (sequence > 0),
    commitment BLOB NOT NULL,
    path TEXT NOT NULL,
    PRIMARY KEY(port_id, channel_id, sequence)
)`},
		{"capability", `CREATE TABLE IF NOT EXISTS capability (
    port_id TEXT NOT NULL PRIMARY KEY CHECK (length(port_id) > 0),
    idx INTEGER NOT NULL
)`},
		{"event", `CREATE TABLE IF NOT EXISTS event (
    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL CHECK (length(type) > 0),
    revision_number INTEGER NOT NULL,
    revision_height INTEGER NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL CHECK (length(created_at) > 0),
    fk_host_block_id INTEGER,
    FOREIGN KEY(fk_host_block_id) REFERENCES host_block(id) ON DELETE CASCADE
)`},
		{"event_attr", `CREATE TABLE IF NOT EXISTS event_attr (
    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    key TEXT NOT NULL CHECK (length(key) > 0),
    value TEXT NOT NULL,
    fk_event_id INTEGER,
    FOREIGN KEY(fk_event_id) REFERENCES event(id) ON DELETE CASCADE
)`},
	} {
		if _, err := tx.ExecContext(ctx, step.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", step.table, err)
		}
	}

	// Creating views should be last migration step.
	if err := upsertViews(ctx, tx); err != nil {
		// Error already wrapped.
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migrations: %w", err)
	}

	return nil
}

// upsertViews should be idempotent by dropping/re-creating the view. The drop/re-create makes view authoring simpler
// in case table columns are altered, added, or dropped.
func upsertViews(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP VIEW IF EXISTS v_packet_events`)
	if err != nil {
		return fmt.Errorf("drop old v_packet_events view: %w", err)
	}

	_, err = tx.ExecContext(ctx, `CREATE VIEW v_packet_events AS
SELECT
  event.id as event_id
  , event.type as type
  , event.revision_number as revision_number
  , event.revision_height as revision_height
  , event.created_at as created_at
  , host_block.revision_height as host_height
  , json_extract(event.data, '$.packet.sequence') as sequence
  , COALESCE(
      json_extract(event.data, '$.packet.source_port'),
      json_extract(event.data, '$.port_id') -- channel_close
    ) as src_port
  , COALESCE(
      json_extract(event.data, '$.packet.source_channel'),
      json_extract(event.data, '$.channel_id') -- channel_close
    ) as src_channel
  , json_extract(event.data, '$.packet.destination_port') as dst_port
  , json_extract(event.data, '$.packet.destination_channel') as dst_channel
  , json_extract(event.data, '$.connection') as connection_id
  , event.data as raw
FROM event
LEFT JOIN host_block ON event.fk_host_block_id = host_block.id
`)
	if err != nil {
		return fmt.Errorf("create v_packet_events view: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DROP VIEW IF EXISTS v_channel_agg`)
	if err != nil {
		return fmt.Errorf("drop old v_channel_agg view: %w", err)
	}

	_, err = tx.ExecContext(ctx, `CREATE VIEW v_channel_agg AS
    SELECT
       channel.port_id AS port_id
     , channel.channel_id AS channel_id
     , channel.state AS state
     , channel.ordering AS ordering
     , (SELECT COUNT(*) FROM packet_commitment c WHERE c.port_id = channel.port_id AND c.channel_id = channel.channel_id) AS commitments
     , (SELECT COUNT(*) FROM packet_receipt r WHERE r.port_id = channel.port_id AND r.channel_id = channel.channel_id) AS receipts
     , (SELECT COUNT(*) FROM packet_ack a WHERE a.port_id = channel.port_id AND a.channel_id = channel.channel_id) AS acks
     , (SELECT value FROM sequence s WHERE s.port_id = channel.port_id AND s.channel_id = channel.channel_id AND s.kind = 'send') AS next_sequence_send
    FROM channel
`)
	if err != nil {
		return fmt.Errorf("create v_channel_agg view: %w", err)
	}

	return nil
}
