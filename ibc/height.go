package ibc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	clienttypes "github.com/cosmos/ibc-go/v9/modules/core/02-client/types"
)

// Height is a two-part block height. Heights are ordered by revision number first,
// then by revision height.
// The zero Height is a sentinel meaning "no height", e.g. no timeout height requested.
type Height struct {
	RevisionNumber uint64 `json:"revision_number" yaml:"revision_number"`
	RevisionHeight uint64 `json:"revision_height" yaml:"revision_height"`
}

// NewHeight returns a Height with the given revision number and height.
func NewHeight(revisionNumber, revisionHeight uint64) Height {
	return Height{RevisionNumber: revisionNumber, RevisionHeight: revisionHeight}
}

// ParseHeight parses the "{revision number}-{revision height}" form produced by String.
func ParseHeight(s string) (Height, error) {
	number, height, ok := strings.Cut(s, "-")
	if !ok {
		return Height{}, fmt.Errorf("height %q must be of the form {revision number}-{revision height}", s)
	}
	n, err := strconv.ParseUint(number, 10, 64)
	if err != nil {
		return Height{}, fmt.Errorf("parse revision number of %q: %w", s, err)
	}
	h, err := strconv.ParseUint(height, 10, 64)
	if err != nil {
		return Height{}, fmt.Errorf("parse revision height of %q: %w", s, err)
	}
	return NewHeight(n, h), nil
}

// HeightFromProto converts an ibc-go client height.
func HeightFromProto(h clienttypes.Height) Height {
	return NewHeight(h.RevisionNumber, h.RevisionHeight)
}

// ToProto converts h to an ibc-go client height.
func (h Height) ToProto() clienttypes.Height {
	return clienttypes.NewHeight(h.RevisionNumber, h.RevisionHeight)
}

// IsZero returns true if both revision number and revision height are zero.
func (h Height) IsZero() bool {
	return h.RevisionNumber == 0 && h.RevisionHeight == 0
}

// Compare returns -1, 0 or 1 if h is less than, equal to or greater than other.
func (h Height) Compare(other Height) int {
	switch {
	case h.RevisionNumber < other.RevisionNumber:
		return -1
	case h.RevisionNumber > other.RevisionNumber:
		return 1
	case h.RevisionHeight < other.RevisionHeight:
		return -1
	case h.RevisionHeight > other.RevisionHeight:
		return 1
	}
	return 0
}

func (h Height) LT(other Height) bool  { return h.Compare(other) < 0 }
func (h Height) LTE(other Height) bool { return h.Compare(other) <= 0 }
func (h Height) GT(other Height) bool  { return h.Compare(other) > 0 }
func (h Height) GTE(other Height) bool { return h.Compare(other) >= 0 }
func (h Height) EQ(other Height) bool  { return h.Compare(other) == 0 }

// Add returns h with delta added to the revision height, saturating at the maximum uint64.
// The revision number is unchanged.
func (h Height) Add(delta uint64) Height {
	if delta > math.MaxUint64-h.RevisionHeight {
		return NewHeight(h.RevisionNumber, math.MaxUint64)
	}
	return NewHeight(h.RevisionNumber, h.RevisionHeight+delta)
}

// Sub returns h with delta subtracted from the revision height, saturating at zero.
func (h Height) Sub(delta uint64) Height {
	if delta > h.RevisionHeight {
		return NewHeight(h.RevisionNumber, 0)
	}
	return NewHeight(h.RevisionNumber, h.RevisionHeight-delta)
}

// Increment returns the next height within the same revision.
func (h Height) Increment() Height {
	return h.Add(1)
}

// Decrement returns the previous height within the same revision.
// The boolean is false if the revision height is already zero.
func (h Height) Decrement() (Height, bool) {
	if h.RevisionHeight == 0 {
		return h, false
	}
	return h.Sub(1), true
}

func (h Height) String() string {
	return fmt.Sprintf("%d-%d", h.RevisionNumber, h.RevisionHeight)
}
