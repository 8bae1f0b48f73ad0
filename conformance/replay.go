package conformance

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor is the implementation under test.
type Executor interface {
	// Initialize creates the chains of the first step.
	Initialize(chains map[string]Chain) error
	// Apply executes action and reports its outcome. An error means the action could not be
	// executed at all, not that it failed; failures are outcomes.
	Apply(action Action) (ActionOutcome, error)
	// ChainHeight returns the current height of chain.
	ChainHeight(chain string) (uint64, bool)
}

// Mismatch is a step where the executor disagreed with the model.
type Mismatch struct {
	Step   int
	Action Action
	Reason string
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("step %d (%s): %s", m.Step, m.Action.Type(), m.Reason)
}

// Dump returns a multi-line rendering of the mismatch including every action field.
func (m *Mismatch) Dump() string {
	return fmt.Sprintf("step %d: %s\n%s", m.Step, m.Reason, spew.Sdump(m.Action))
}

// Mismatches returns the mismatches aggregated in err.
func Mismatches(err error) []*Mismatch {
	var out []*Mismatch
	for _, e := range multierr.Errors(err) {
		var m *Mismatch
		if errors.As(e, &m) {
			out = append(out, m)
		}
	}
	return out
}

// Replay runs a trace through exec. The first step must be a None action and initializes the
// chains. Every later mismatch in outcome or chain height is collected; the returned error
// aggregates them with multierr. Errors from the executor itself abort the replay.
func Replay(log *zap.Logger, steps []Step, exec Executor) error {
	if len(steps) == 0 {
		return errors.New("empty trace")
	}
	if _, ok := steps[0].Action.(NoneAction); !ok {
		return fmt.Errorf("first step must be a %s action, got %s", TypeNone, steps[0].Action.Type())
	}
	if err := exec.Initialize(steps[0].Chains); err != nil {
		return fmt.Errorf("initialize chains: %w", err)
	}

	var merr error
	for i, step := range steps[1:] {
		n := i + 1
		outcome, err := exec.Apply(step.Action)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", n, step.Action.Type(), err)
		}
		if outcome != step.ActionOutcome {
			merr = multierr.Append(merr, &Mismatch{
				Step:   n,
				Action: step.Action,
				Reason: fmt.Sprintf("outcome %s, model expects %s", outcome, step.ActionOutcome),
			})
		}
		for _, name := range slices.Sorted(maps.Keys(step.Chains)) {
			want := step.Chains[name].Height
			got, ok := exec.ChainHeight(name)
			switch {
			case !ok:
				merr = multierr.Append(merr, &Mismatch{Step: n, Action: step.Action, Reason: fmt.Sprintf("chain %s does not exist", name)})
			case got != want:
				merr = multierr.Append(merr, &Mismatch{
					Step:   n,
					Action: step.Action,
					Reason: fmt.Sprintf("chain %s at height %d, model expects %d", name, got, want),
				})
			}
		}
		log.Debug("Replayed step",
			zap.Int("step", n),
			zap.String("action", step.Action.Type()),
			zap.Stringer("outcome", outcome),
		)
	}
	return merr
}

// ReplayAll replays every named trace concurrently, each against its own executor, and
// aggregates the results. At most limit traces run at once; limit <= 0 means no limit.
func ReplayAll(ctx context.Context, log *zap.Logger, traces map[string][]Step, newExecutor func(name string) Executor, limit int) error {
	var (
		mu   sync.Mutex
		merr error
	)
	eg, egCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for _, name := range slices.Sorted(maps.Keys(traces)) {
		steps := traces[name]
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			err := Replay(log.With(zap.String("trace", name)), steps, newExecutor(name))
			if err != nil {
				mu.Lock()
				merr = multierr.Append(merr, fmt.Errorf("trace %s: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return merr
}
