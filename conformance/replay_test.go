package conformance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
)

// modelChain is a toy chain tracking clients by their latest height and connections by the
// client they use.
type modelChain struct {
	height      uint64
	clients     []uint64
	connections []uint64
}

// modelExecutor follows the ICS-02/03 rules the traces are generated from closely enough to
// replay testTrace. Every successful action advances the chain by one block.
type modelExecutor struct {
	chains map[string]*modelChain
	// skew is added to every reported height, to provoke height mismatches.
	skew uint64
}

func (e *modelExecutor) Initialize(chains map[string]Chain) error {
	e.chains = make(map[string]*modelChain, len(chains))
	for name, c := range chains {
		e.chains[name] = &modelChain{height: c.Height}
	}
	return nil
}

func (e *modelExecutor) chain(id string) (*modelChain, error) {
	c, ok := e.chains[id]
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", id)
	}
	return c, nil
}

func (e *modelExecutor) Apply(action Action) (ActionOutcome, error) {
	switch a := action.(type) {
	case CreateClient:
		c, err := e.chain(a.ChainID)
		if err != nil {
			return OutcomeNone, err
		}
		c.clients = append(c.clients, a.ClientState)
		c.height++
		return ICS02CreateOK, nil
	case UpdateClient:
		c, err := e.chain(a.ChainID)
		if err != nil {
			return OutcomeNone, err
		}
		if a.ClientID >= uint64(len(c.clients)) {
			return ICS02ClientNotFound, nil
		}
		if a.Header <= c.clients[a.ClientID] {
			return ICS02HeaderVerificationFailure, nil
		}
		c.clients[a.ClientID] = a.Header
		c.height++
		return ICS02UpdateOK, nil
	case ConnectionOpenInit:
		c, err := e.chain(a.ChainID)
		if err != nil {
			return OutcomeNone, err
		}
		if a.ClientID >= uint64(len(c.clients)) {
			return ICS03MissingClient, nil
		}
		c.connections = append(c.connections, a.ClientID)
		c.height++
		return ICS03ConnectionOpenInitOK, nil
	case ConnectionOpenTry:
		c, err := e.chain(a.ChainID)
		if err != nil {
			return OutcomeNone, err
		}
		if a.ClientID >= uint64(len(c.clients)) {
			return ICS03MissingClient, nil
		}
		if a.ClientState > c.height {
			return ICS03InvalidConsensusHeight, nil
		}
		if a.PreviousConnectionID != nil {
			if *a.PreviousConnectionID >= uint64(len(c.connections)) {
				return ICS03ConnectionNotFound, nil
			}
			if c.connections[*a.PreviousConnectionID] != a.ClientID {
				return ICS03ConnectionMismatch, nil
			}
		} else {
			c.connections = append(c.connections, a.ClientID)
		}
		c.height++
		return ICS03ConnectionOpenTryOK, nil
	default:
		return OutcomeNone, fmt.Errorf("unsupported action %s", action.Type())
	}
}

func (e *modelExecutor) ChainHeight(chain string) (uint64, bool) {
	c, ok := e.chains[chain]
	if !ok {
		return 0, false
	}
	return c.height + e.skew, true
}

func mustParseTrace(t *testing.T, raw string) []Step {
	t.Helper()
	steps, err := ParseTrace([]byte(raw))
	require.NoError(t, err)
	return steps
}

func TestReplay(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		err := Replay(zaptest.NewLogger(t), mustParseTrace(t, testTrace), new(modelExecutor))
		require.NoError(t, err)
	})

	t.Run("outcome mismatch", func(t *testing.T) {
		steps := mustParseTrace(t, testTrace)
		steps[2].ActionOutcome = ICS02HeaderVerificationFailure
		steps[4].ActionOutcome = ICS03ConnectionOpenTryOK

		err := Replay(zaptest.NewLogger(t), steps, new(modelExecutor))
		require.Error(t, err)

		mismatches := Mismatches(err)
		require.Len(t, mismatches, 2)
		require.Equal(t, 2, mismatches[0].Step)
		require.Equal(t, "step 2 (ICS02UpdateClient): outcome ICS02UpdateOK, model expects ICS02HeaderVerificationFailure", mismatches[0].Error())
		require.Equal(t, 4, mismatches[1].Step)
		require.Contains(t, mismatches[1].Dump(), "PreviousConnectionID")
	})

	t.Run("height mismatch", func(t *testing.T) {
		err := Replay(zaptest.NewLogger(t), mustParseTrace(t, testTrace), &modelExecutor{skew: 1})

		// Two chains checked after each of four steps.
		require.Len(t, multierr.Errors(err), 8)
		require.ErrorContains(t, err, "chain chainA at height 3, model expects 2")
	})

	t.Run("missing chain", func(t *testing.T) {
		steps := mustParseTrace(t, testTrace)
		steps[1].Chains["chainC"] = Chain{Height: 1}

		err := Replay(zaptest.NewLogger(t), steps, new(modelExecutor))
		require.ErrorContains(t, err, "chain chainC does not exist")
		require.Len(t, Mismatches(err), 1)
	})

	t.Run("executor error aborts", func(t *testing.T) {
		steps := mustParseTrace(t, testTrace)
		steps[1].Action = CreateClient{ChainID: "chainZ"}

		err := Replay(zaptest.NewLogger(t), steps, new(modelExecutor))
		require.ErrorContains(t, err, "step 1 (ICS02CreateClient): unknown chain chainZ")
		require.Empty(t, Mismatches(err))
	})

	t.Run("first step must initialize", func(t *testing.T) {
		steps := mustParseTrace(t, testTrace)

		err := Replay(zaptest.NewLogger(t), steps[1:], new(modelExecutor))
		require.ErrorContains(t, err, "first step must be a None action")

		err = Replay(zaptest.NewLogger(t), nil, new(modelExecutor))
		require.ErrorContains(t, err, "empty trace")
	})
}

func TestReplayAll(t *testing.T) {
	t.Parallel()

	good := mustParseTrace(t, testTrace)
	bad := mustParseTrace(t, testTrace)
	bad[1].ActionOutcome = ICS02ClientNotFound

	err := ReplayAll(context.Background(), zaptest.NewLogger(t), map[string][]Step{
		"good":  good,
		"bad":   bad,
		"good2": good,
	}, func(string) Executor { return new(modelExecutor) }, 2)

	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	require.ErrorContains(t, errs[0], "trace bad: step 1 (ICS02CreateClient)")

	var m *Mismatch
	require.True(t, errors.As(err, &m))
	require.Equal(t, 1, m.Step)
}
