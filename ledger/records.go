package ledger

import (
	"cmp"
	"slices"

	"github.com/strangelove-ventures/packetcore/ibc"
)

// SequenceKind names one of the three per-channel sequence counters.
type SequenceKind string

const (
	SequenceSend SequenceKind = "send"
	SequenceRecv SequenceKind = "recv"
	SequenceAck  SequenceKind = "ack"
)

// Path returns the ICS-24 path of the counter.
func (k SequenceKind) Path(port ibc.PortID, channel ibc.ChannelID) string {
	switch k {
	case SequenceRecv:
		return ibc.NextSequenceRecvPath(port, channel)
	case SequenceAck:
		return ibc.NextSequenceAckPath(port, channel)
	default:
		return ibc.NextSequenceSendPath(port, channel)
	}
}

// Records are flat views of the ledger, sorted by key, for persistence and inspection.

type ClientRecord struct {
	ID    ibc.ClientID
	State ibc.ClientState
}

type ConsensusRecord struct {
	Client ibc.ClientID
	Height ibc.Height
	State  ibc.ConsensusState
}

type ConnectionRecord struct {
	ID  ibc.ConnectionID
	End ibc.ConnectionEnd
}

type ChannelRecord struct {
	Port    ibc.PortID
	Channel ibc.ChannelID
	End     ibc.ChannelEnd
}

type SequenceRecord struct {
	Port    ibc.PortID
	Channel ibc.ChannelID
	Kind    SequenceKind
	Value   ibc.Sequence
}

// PacketRecord is a commitment, receipt or acknowledgement. Receipts have no value.
type PacketRecord struct {
	Port     ibc.PortID
	Channel  ibc.ChannelID
	Sequence ibc.Sequence
	Value    []byte
}

// Host returns the host height and consensus state.
func (s *State) Host() (ibc.Height, ibc.ConsensusState, bool) {
	return s.hostHeight, s.hostConsensus, s.hostConsensus != nil
}

func (s *State) Clients() []ClientRecord {
	out := make([]ClientRecord, 0, len(s.clients))
	for id, cs := range s.clients {
		out = append(out, ClientRecord{ID: id, State: cs})
	}
	slices.SortFunc(out, func(a, b ClientRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *State) ConsensusStates() []ConsensusRecord {
	out := make([]ConsensusRecord, 0, len(s.consensus))
	for k, cs := range s.consensus {
		out = append(out, ConsensusRecord{Client: k.Client, Height: k.Height, State: cs})
	}
	slices.SortFunc(out, func(a, b ConsensusRecord) int {
		return cmp.Or(cmp.Compare(a.Client, b.Client), a.Height.Compare(b.Height))
	})
	return out
}

func (s *State) Connections() []ConnectionRecord {
	out := make([]ConnectionRecord, 0, len(s.connections))
	for id, end := range s.connections {
		out = append(out, ConnectionRecord{ID: id, End: end})
	}
	slices.SortFunc(out, func(a, b ConnectionRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *State) Channels() []ChannelRecord {
	out := make([]ChannelRecord, 0, len(s.channels))
	for k, end := range s.channels {
		out = append(out, ChannelRecord{Port: k.Port, Channel: k.Channel, End: end})
	}
	slices.SortFunc(out, func(a, b ChannelRecord) int {
		return cmp.Or(cmp.Compare(a.Port, b.Port), cmp.Compare(a.Channel, b.Channel))
	})
	return out
}

func (s *State) Sequences() []SequenceRecord {
	var out []SequenceRecord
	for kind, m := range map[SequenceKind]map[channelKey]ibc.Sequence{
		SequenceSend: s.nextSend,
		SequenceRecv: s.nextRecv,
		SequenceAck:  s.nextAck,
	} {
		for k, seq := range m {
			out = append(out, SequenceRecord{Port: k.Port, Channel: k.Channel, Kind: kind, Value: seq})
		}
	}
	slices.SortFunc(out, func(a, b SequenceRecord) int {
		return cmp.Or(cmp.Compare(a.Port, b.Port), cmp.Compare(a.Channel, b.Channel), cmp.Compare(a.Kind, b.Kind))
	})
	return out
}

func (s *State) Commitments() []PacketRecord { return packetRecords(s.commitments) }

func (s *State) Acknowledgements() []PacketRecord { return packetRecords(s.acks) }

func (s *State) Receipts() []PacketRecord {
	out := make([]PacketRecord, 0, len(s.receipts))
	for k := range s.receipts {
		out = append(out, PacketRecord{Port: k.Port, Channel: k.Channel, Sequence: k.Sequence})
	}
	sortPacketRecords(out)
	return out
}

func (s *State) Capabilities() []ibc.Capability {
	out := make([]ibc.Capability, 0, len(s.capabilities))
	for _, c := range s.capabilities {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b ibc.Capability) int { return cmp.Compare(a.Port, b.Port) })
	return out
}

func packetRecords(m map[packetKey][]byte) []PacketRecord {
	out := make([]PacketRecord, 0, len(m))
	for k, v := range m {
		out = append(out, PacketRecord{Port: k.Port, Channel: k.Channel, Sequence: k.Sequence, Value: slices.Clone(v)})
	}
	sortPacketRecords(out)
	return out
}

func sortPacketRecords(records []PacketRecord) {
	slices.SortFunc(records, func(a, b PacketRecord) int {
		return cmp.Or(cmp.Compare(a.Port, b.Port), cmp.Compare(a.Channel, b.Channel), cmp.Compare(a.Sequence, b.Sequence))
	})
}
