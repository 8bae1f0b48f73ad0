package blockdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/singleflight"

	"github.com/strangelove-ventures/packetcore/handler"
	"github.com/strangelove-ventures/packetcore/ibc"
	"github.com/strangelove-ventures/packetcore/ledger"
)

// Store persists a ledger and the events emitted against it.
// Light client records are stored as JSON and decoded with the codec registered for their client type.
type Store struct {
	db     *sql.DB
	codecs map[string]ibc.ClientCodec
	single singleflight.Group
}

// NewStore returns a store over a migrated database.
func NewStore(db *sql.DB, codecs ...ibc.ClientCodec) *Store {
	s := &Store{db: db, codecs: make(map[string]ibc.ClientCodec, len(codecs))}
	for _, c := range codecs {
		s.codecs[c.ClientType] = c
	}
	return s
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Stored integers are uint64 on the ledger side; sqlite integers are signed.
// Values are stored bit-for-bit so the round trip is lossless.
func i64(v uint64) int64 { return int64(v) }

// checkHostBlock rejects host blocks sqlite would order incorrectly.
// host_block rows are sorted by height, which only holds while the stored int64 is non-negative.
func checkHostBlock(height ibc.Height, ts ibc.Timestamp) error {
	if height.RevisionNumber > math.MaxInt64 || height.RevisionHeight > math.MaxInt64 {
		return fmt.Errorf("host height %s exceeds the storable range", height)
	}
	if uint64(ts) > math.MaxInt64 {
		return fmt.Errorf("host timestamp %d exceeds the storable range", uint64(ts))
	}
	return nil
}

var replacedTables = []string{
	"event_attr", "event", "host_block",
	"consensus_state", "client", "connection", "channel", "sequence",
	"packet_commitment", "packet_receipt", "packet_ack", "capability",
}

// SaveState replaces the database contents with state, as a genesis import.
// Previously committed events and host blocks are dropped.
func (s *Store) SaveState(ctx context.Context, state *ledger.State) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback() }()

	for _, table := range replacedTables {
		if _, err := dbTx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	height, hostConsensus, ok := state.Host()
	var ts ibc.Timestamp
	if ok {
		ts = hostConsensus.Timestamp()
	}
	if err := checkHostBlock(height, ts); err != nil {
		return err
	}
	if _, err := upsertHostBlock(ctx, dbTx, height, ts, ok); err != nil {
		return err
	}

	for _, c := range state.Clients() {
		bz, err := json.Marshal(c.State)
		if err != nil {
			return fmt.Errorf("marshal client state %s: %w", c.ID, err)
		}
		_, err = dbTx.ExecContext(ctx, `INSERT INTO client(client_id, client_type, state, path) VALUES (?, ?, ?, ?)`,
			c.ID, c.State.ClientType(), string(bz), ibc.ClientStatePath(c.ID))
		if err != nil {
			return fmt.Errorf("insert into client: %w", err)
		}
	}
	for _, c := range state.ConsensusStates() {
		bz, err := json.Marshal(c.State)
		if err != nil {
			return fmt.Errorf("marshal consensus state %s/%s: %w", c.Client, c.Height, err)
		}
		_, err = dbTx.ExecContext(ctx, `INSERT INTO consensus_state(fk_client_id, revision_number, revision_height, state, path) VALUES (?, ?, ?, ?, ?)`,
			c.Client, i64(c.Height.RevisionNumber), i64(c.Height.RevisionHeight), string(bz), ibc.ConsensusStatePath(c.Client, c.Height))
		if err != nil {
			return fmt.Errorf("insert into consensus_state: %w", err)
		}
	}
	for _, c := range state.Connections() {
		bz, err := json.Marshal(c.End)
		if err != nil {
			return fmt.Errorf("marshal connection %s: %w", c.ID, err)
		}
		_, err = dbTx.ExecContext(ctx, `INSERT INTO connection(connection_id, state, path) VALUES (?, ?, ?)`,
			c.ID, string(bz), ibc.ConnectionPath(c.ID))
		if err != nil {
			return fmt.Errorf("insert into connection: %w", err)
		}
	}
	for _, c := range state.Channels() {
		if err := upsertChannel(ctx, dbTx, c.Port, c.Channel, c.End); err != nil {
			return err
		}
	}
	for _, seq := range state.Sequences() {
		if err := upsertSequence(ctx, dbTx, seq.Port, seq.Channel, seq.Kind, seq.Value); err != nil {
			return err
		}
	}
	for _, p := range state.Commitments() {
		if err := insertCommitment(ctx, dbTx, p.Port, p.Channel, p.Sequence, p.Value); err != nil {
			return err
		}
	}
	for _, p := range state.Receipts() {
		if err := insertReceipt(ctx, dbTx, p.Port, p.Channel, p.Sequence); err != nil {
			return err
		}
	}
	for _, p := range state.Acknowledgements() {
		if err := insertAck(ctx, dbTx, p.Port, p.Channel, p.Sequence, p.Value); err != nil {
			return err
		}
	}
	for _, c := range state.Capabilities() {
		_, err := dbTx.ExecContext(ctx, `INSERT INTO capability(port_id, idx) VALUES (?, ?)`, c.Port, i64(c.Index))
		if err != nil {
			return fmt.Errorf("insert into capability: %w", err)
		}
	}

	return dbTx.Commit()
}

// LoadState reads the ledger. The host is the highest saved host block.
func (s *Store) LoadState(ctx context.Context) (*ledger.State, error) {
	state := ledger.New()
	if err := s.loadHost(ctx, state); err != nil {
		return nil, err
	}
	for _, load := range []func(context.Context, *ledger.State) error{
		s.loadClients,
		s.loadConsensusStates,
		s.loadConnections,
		s.loadChannels,
		s.loadSequences,
		s.loadPackets,
		s.loadCapabilities,
	} {
		if err := load(ctx, state); err != nil {
			return nil, err
		}
	}
	return state, nil
}

func (s *Store) loadHost(ctx context.Context, state *ledger.State) error {
	row := s.db.QueryRowContext(ctx, `SELECT revision_number, revision_height, timestamp, has_consensus
FROM host_block ORDER BY revision_number DESC, revision_height DESC LIMIT 1`)
	var (
		number, height, ts int64
		hasConsensus       bool
	)
	err := row.Scan(&number, &height, &ts, &hasConsensus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select host_block: %w", err)
	}
	state.WithHost(ibc.NewHeight(uint64(number), uint64(height)), ibc.Timestamp(ts))
	if !hasConsensus {
		state.WithoutHostConsensusState()
	}
	return nil
}

func (s *Store) codec(clientType string) (ibc.ClientCodec, error) {
	c, ok := s.codecs[clientType]
	if !ok {
		return ibc.ClientCodec{}, fmt.Errorf("no codec registered for client type %q", clientType)
	}
	return c, nil
}

func (s *Store) loadClients(ctx context.Context, state *ledger.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT client_id, client_type, state FROM client ORDER BY client_id`)
	if err != nil {
		return fmt.Errorf("select client: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, clientType, raw string
		if err := rows.Scan(&id, &clientType, &raw); err != nil {
			return err
		}
		codec, err := s.codec(clientType)
		if err != nil {
			return fmt.Errorf("client %s: %w", id, err)
		}
		cs, err := codec.DecodeClientState(json.RawMessage(raw))
		if err != nil {
			return fmt.Errorf("client %s: %w", id, err)
		}
		state.WithClientState(ibc.ClientID(id), cs)
	}
	return rows.Err()
}

func (s *Store) loadConsensusStates(ctx context.Context, state *ledger.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT consensus_state.fk_client_id, client.client_type,
  consensus_state.revision_number, consensus_state.revision_height, consensus_state.state
FROM consensus_state JOIN client ON consensus_state.fk_client_id = client.client_id`)
	if err != nil {
		return fmt.Errorf("select consensus_state: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, clientType, raw string
			number, height      int64
		)
		if err := rows.Scan(&id, &clientType, &number, &height, &raw); err != nil {
			return err
		}
		codec, err := s.codec(clientType)
		if err != nil {
			return fmt.Errorf("consensus state of client %s: %w", id, err)
		}
		cs, err := codec.DecodeConsensusState(json.RawMessage(raw))
		if err != nil {
			return fmt.Errorf("consensus state of client %s: %w", id, err)
		}
		state.WithConsensusState(ibc.ClientID(id), ibc.NewHeight(uint64(number), uint64(height)), cs)
	}
	return rows.Err()
}

func (s *Store) loadConnections(ctx context.Context, state *ledger.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT connection_id, state FROM connection`)
	if err != nil {
		return fmt.Errorf("select connection: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, raw string
			end     ibc.ConnectionEnd
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(raw), &end); err != nil {
			return fmt.Errorf("decode connection %s: %w", id, err)
		}
		state.WithConnection(ibc.ConnectionID(id), end)
	}
	return rows.Err()
}

func (s *Store) loadChannels(ctx context.Context, state *ledger.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT port_id, channel_id, channel_end FROM channel`)
	if err != nil {
		return fmt.Errorf("select channel: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			port, channel, raw string
			end                ibc.ChannelEnd
		)
		if err := rows.Scan(&port, &channel, &raw); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(raw), &end); err != nil {
			return fmt.Errorf("decode channel %s/%s: %w", port, channel, err)
		}
		state.WithChannel(ibc.PortID(port), ibc.ChannelID(channel), end)
	}
	return rows.Err()
}

func (s *Store) loadSequences(ctx context.Context, state *ledger.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT port_id, channel_id, kind, value FROM sequence`)
	if err != nil {
		return fmt.Errorf("select sequence: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			port, channel, kind string
			value               int64
		)
		if err := rows.Scan(&port, &channel, &kind, &value); err != nil {
			return err
		}
		p, c, seq := ibc.PortID(port), ibc.ChannelID(channel), ibc.Sequence(value)
		switch ledger.SequenceKind(kind) {
		case ledger.SequenceSend:
			state.WithSendSequence(p, c, seq)
		case ledger.SequenceRecv:
			state.WithRecvSequence(p, c, seq)
		case ledger.SequenceAck:
			state.WithAckSequence(p, c, seq)
		default:
			return fmt.Errorf("unknown sequence kind %q", kind)
		}
	}
	return rows.Err()
}

func (s *Store) loadPackets(ctx context.Context, state *ledger.State) error {
	for _, q := range []struct {
		query string
		apply func(ibc.PortID, ibc.ChannelID, ibc.Sequence, []byte)
	}{
		{`SELECT port_id, channel_id, sequence, commitment FROM packet_commitment`, func(p ibc.PortID, c ibc.ChannelID, seq ibc.Sequence, v []byte) {
			state.WithPacketCommitment(p, c, seq, v)
		}},
		{`SELECT port_id, channel_id, sequence, X'' FROM packet_receipt`, func(p ibc.PortID, c ibc.ChannelID, seq ibc.Sequence, _ []byte) {
			state.WithPacketReceipt(p, c, seq)
		}},
		{`SELECT port_id, channel_id, sequence, commitment FROM packet_ack`, func(p ibc.PortID, c ibc.ChannelID, seq ibc.Sequence, v []byte) {
			state.WithPacketAcknowledgement(p, c, seq, v)
		}},
	} {
		if err := func() error {
			rows, err := s.db.QueryContext(ctx, q.query)
			if err != nil {
				return fmt.Errorf("select packets: %w", err)
			}
			defer rows.Close()
			for rows.Next() {
				var (
					port, channel string
					seq           int64
					value         []byte
				)
				if err := rows.Scan(&port, &channel, &seq, &value); err != nil {
					return err
				}
				q.apply(ibc.PortID(port), ibc.ChannelID(channel), ibc.Sequence(seq), value)
			}
			return rows.Err()
		}(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadCapabilities(ctx context.Context, state *ledger.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT port_id, idx FROM capability`)
	if err != nil {
		return fmt.Errorf("select capability: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			port string
			idx  int64
		)
		if err := rows.Scan(&port, &idx); err != nil {
			return err
		}
		state.WithCapability(ibc.Capability{Index: uint64(idx), Port: ibc.PortID(port)})
	}
	return rows.Err()
}

// SaveHostBlock records the host advancing to height at time ts.
// Neither height nor timestamp may go backwards, and a recorded block keeps its timestamp.
// Saving the same block again is a no-op, and concurrent saves of the same block are
// collapsed into one write.
func (s *Store) SaveHostBlock(ctx context.Context, height ibc.Height, ts ibc.Timestamp) error {
	if err := checkHostBlock(height, ts); err != nil {
		return err
	}
	k := fmt.Sprintf("%s-%d", height, ts)
	_, err, _ := s.single.Do(k, func() (interface{}, error) {
		return nil, s.saveHostBlock(ctx, height, ts)
	})
	return err
}

func (s *Store) saveHostBlock(ctx context.Context, height ibc.Height, ts ibc.Timestamp) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback() }()

	var (
		number, current, latestTS int64
		hasConsensus              bool
	)
	err = dbTx.QueryRowContext(ctx, `SELECT revision_number, revision_height, timestamp, has_consensus FROM host_block
ORDER BY revision_number DESC, revision_height DESC LIMIT 1`).Scan(&number, &current, &latestTS, &hasConsensus)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("select host_block: %w", err)
	default:
		latest := ibc.NewHeight(uint64(number), uint64(current))
		latestTime := ibc.Timestamp(latestTS)
		switch {
		case height.LT(latest):
			return fmt.Errorf("host height %s is below current host height %s", height, latest)
		case height == latest && hasConsensus && ts != latestTime:
			return fmt.Errorf("host block %s already recorded at timestamp %d", height, uint64(latestTime))
		case height != latest && ts < latestTime:
			return fmt.Errorf("host timestamp %d is below current host timestamp %d", uint64(ts), uint64(latestTime))
		}
	}

	if _, err := upsertHostBlock(ctx, dbTx, height, ts, true); err != nil {
		return err
	}
	return dbTx.Commit()
}

func upsertHostBlock(ctx context.Context, tx *sql.Tx, height ibc.Height, ts ibc.Timestamp, hasConsensus bool) (int64, error) {
	_, err := tx.ExecContext(ctx, `INSERT INTO host_block(revision_number, revision_height, timestamp, has_consensus, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(revision_number, revision_height) DO UPDATE SET timestamp=excluded.timestamp, has_consensus=excluded.has_consensus`,
		i64(height.RevisionNumber), i64(height.RevisionHeight), i64(uint64(ts)), hasConsensus, nowRFC3339())
	if err != nil {
		return 0, fmt.Errorf("upsert host_block: %w", err)
	}
	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM host_block WHERE revision_number = ? AND revision_height = ?`,
		i64(height.RevisionNumber), i64(height.RevisionHeight)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select host_block id: %w", err)
	}
	return id, nil
}

// Commit writes a handler output: the result's ledger writes and every event, in one transaction.
// Either all of it is stored or none of it.
func (s *Store) Commit(ctx context.Context, out *handler.Output) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback() }()

	if err := applyResult(ctx, dbTx, out.Result); err != nil {
		return err
	}

	var blockID sql.NullInt64
	err = dbTx.QueryRowContext(ctx, `SELECT id FROM host_block ORDER BY revision_number DESC, revision_height DESC LIMIT 1`).Scan(&blockID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("select host_block: %w", err)
	}
	for _, ev := range out.Events {
		if err := insertEvent(ctx, dbTx, blockID, ev); err != nil {
			return err
		}
	}

	return dbTx.Commit()
}

func applyResult(ctx context.Context, tx *sql.Tx, result handler.PacketResult) error {
	switch r := result.(type) {
	case handler.SendPacketResult:
		if err := insertCommitment(ctx, tx, r.PortID, r.ChannelID, r.Sequence, r.Commitment); err != nil {
			return err
		}
		return upsertSequence(ctx, tx, r.PortID, r.ChannelID, ledger.SequenceSend, r.SendSeqNumber)
	case handler.RecvPacketResult:
		if r.Ordering == ibc.Ordered {
			return upsertSequence(ctx, tx, r.PortID, r.ChannelID, ledger.SequenceRecv, r.NextSeqRecv)
		}
		return insertReceipt(ctx, tx, r.PortID, r.ChannelID, r.Sequence)
	case handler.WriteAckResult:
		return insertAck(ctx, tx, r.PortID, r.ChannelID, r.Sequence, r.AckCommitment)
	case handler.AckPacketResult:
		if err := deleteCommitment(ctx, tx, r.PortID, r.ChannelID, r.Sequence); err != nil {
			return err
		}
		if r.NextSeqAck != nil {
			return upsertSequence(ctx, tx, r.PortID, r.ChannelID, ledger.SequenceAck, *r.NextSeqAck)
		}
		return nil
	case handler.TimeoutPacketResult:
		if err := deleteCommitment(ctx, tx, r.PortID, r.ChannelID, r.Sequence); err != nil {
			return err
		}
		if r.Channel != nil {
			return upsertChannel(ctx, tx, r.PortID, r.ChannelID, *r.Channel)
		}
		return nil
	case handler.NoOpResult:
		return nil
	default:
		return fmt.Errorf("unknown packet result %T", result)
	}
}

func upsertChannel(ctx context.Context, tx execer, port ibc.PortID, channel ibc.ChannelID, end ibc.ChannelEnd) error {
	bz, err := json.Marshal(end)
	if err != nil {
		return fmt.Errorf("marshal channel %s/%s: %w", port, channel, err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO channel(port_id, channel_id, state, ordering, channel_end, path) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(port_id, channel_id) DO UPDATE SET state=excluded.state, ordering=excluded.ordering, channel_end=excluded.channel_end`,
		port, channel, end.State.String(), end.Ordering.String(), string(bz), ibc.ChannelPath(port, channel))
	if err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	return nil
}

func upsertSequence(ctx context.Context, tx execer, port ibc.PortID, channel ibc.ChannelID, kind ledger.SequenceKind, value ibc.Sequence) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO sequence(port_id, channel_id, kind, value, path) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(port_id, channel_id, kind) DO UPDATE SET value=excluded.value`,
		port, channel, string(kind), i64(uint64(value)), kind.Path(port, channel))
	if err != nil {
		return fmt.Errorf("upsert %s sequence: %w", kind, err)
	}
	return nil
}

func insertCommitment(ctx context.Context, tx execer, port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence, commitment []byte) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO packet_commitment(port_id, channel_id, sequence, commitment, path) VALUES (?, ?, ?, ?, ?)`,
		port, channel, i64(uint64(seq)), commitment, ibc.PacketCommitmentPath(port, channel, seq))
	if err != nil {
		return fmt.Errorf("insert into packet_commitment: %w", err)
	}
	return nil
}

func deleteCommitment(ctx context.Context, tx execer, port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM packet_commitment WHERE port_id = ? AND channel_id = ? AND sequence = ?`,
		port, channel, i64(uint64(seq)))
	if err != nil {
		return fmt.Errorf("delete from packet_commitment: %w", err)
	}
	return nil
}

func insertReceipt(ctx context.Context, tx execer, port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO packet_receipt(port_id, channel_id, sequence, path) VALUES (?, ?, ?, ?)`,
		port, channel, i64(uint64(seq)), ibc.PacketReceiptPath(port, channel, seq))
	if err != nil {
		return fmt.Errorf("insert into packet_receipt: %w", err)
	}
	return nil
}

func insertAck(ctx context.Context, tx execer, port ibc.PortID, channel ibc.ChannelID, seq ibc.Sequence, commitment []byte) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO packet_ack(port_id, channel_id, sequence, commitment, path) VALUES (?, ?, ?, ?, ?)`,
		port, channel, i64(uint64(seq)), commitment, ibc.PacketAcknowledgementPath(port, channel, seq))
	if err != nil {
		return fmt.Errorf("insert into packet_ack: %w", err)
	}
	return nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, blockID sql.NullInt64, ev ibc.Event) error {
	bz, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type(), err)
	}
	h := ev.EventHeight()
	res, err := tx.ExecContext(ctx, `INSERT INTO event(type, revision_number, revision_height, data, created_at, fk_host_block_id) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Type(), i64(h.RevisionNumber), i64(h.RevisionHeight), string(bz), nowRFC3339(), blockID)
	if err != nil {
		return fmt.Errorf("insert into event: %w", err)
	}
	eventID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, attr := range ev.ToABCI().Attributes {
		_, err := tx.ExecContext(ctx, `INSERT INTO event_attr(key, value, fk_event_id) VALUES (?, ?, ?)`, attr.Key, attr.Value, eventID)
		if err != nil {
			return fmt.Errorf("insert into event_attr: %w", err)
		}
	}
	return nil
}
