package ibc

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Timestamp is a unix time in nanoseconds as recorded in consensus states and packet timeouts.
// Zero means unset.
type Timestamp uint64

// TimestampFromTime converts t. Times before the unix epoch map to zero.
func TimestampFromTime(t time.Time) Timestamp {
	ns := t.UnixNano()
	if ns < 0 {
		return 0
	}
	return Timestamp(ns)
}

// IsZero returns true if the timestamp is unset.
func (ts Timestamp) IsZero() bool { return ts == 0 }

// Add returns ts shifted by d, saturating at zero and at the maximum uint64.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	if d < 0 {
		sub := uint64(-d)
		if sub > uint64(ts) {
			return 0
		}
		return ts - Timestamp(sub)
	}
	if uint64(d) > math.MaxUint64-uint64(ts) {
		return Timestamp(math.MaxUint64)
	}
	return ts + Timestamp(d)
}

// AddNanos returns ts shifted forward by n nanoseconds, saturating at the maximum uint64.
// Unlike Add it accepts the full uint64 range carried by packet timeouts.
func (ts Timestamp) AddNanos(n uint64) Timestamp {
	if n > math.MaxUint64-uint64(ts) {
		return Timestamp(math.MaxUint64)
	}
	return ts + Timestamp(n)
}

// Time returns ts as a UTC time. Values beyond the int64 range are clamped.
func (ts Timestamp) Time() time.Time {
	if uint64(ts) > math.MaxInt64 {
		return time.Unix(0, math.MaxInt64).UTC()
	}
	return time.Unix(0, int64(ts)).UTC()
}

// ParseTimestamp parses a decimal count of unix nanoseconds.
func ParseTimestamp(s string) (Timestamp, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return Timestamp(n), nil
}

func (ts Timestamp) String() string {
	return strconv.FormatUint(uint64(ts), 10)
}
