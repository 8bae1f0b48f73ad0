package conformance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Chain is the model's view of one chain after a step.
type Chain struct {
	Height uint64 `json:"height"`
}

// Step is one transition of a trace: an action, the outcome the model expects, and the
// expected chains afterwards keyed by chain name.
type Step struct {
	Action        Action
	ActionOutcome ActionOutcome
	Chains        map[string]Chain
}

func (s *Step) UnmarshalJSON(bz []byte) error {
	obj := gjson.ParseBytes(bz)
	if !obj.IsObject() {
		return fmt.Errorf("step must be an object, got %s", obj.Type)
	}
	f := fields{obj: obj}

	action, ok := f.lookup("action", "action")
	if !ok {
		return errors.New("missing field action")
	}
	a, err := ParseAction([]byte(action.Raw))
	if err != nil {
		return err
	}

	outcome, ok := f.lookup("action_outcome", "actionOutcome")
	if !ok {
		return errors.New("missing field action_outcome")
	}
	if outcome.Type != gjson.String {
		return fmt.Errorf("field action_outcome must be a string, got %s", outcome.Type)
	}
	var o ActionOutcome
	if err := o.UnmarshalText([]byte(outcome.Str)); err != nil {
		return err
	}

	chains, ok := f.lookup("chains", "chains")
	if !ok {
		return errors.New("missing field chains")
	}
	c := make(map[string]Chain)
	if err := json.Unmarshal([]byte(chains.Raw), &c); err != nil {
		return fmt.Errorf("decode chains: %w", err)
	}

	*s = Step{Action: a, ActionOutcome: o, Chains: c}
	return nil
}

// ParseTrace decodes a JSON array of steps.
func ParseTrace(bz []byte) ([]Step, error) {
	var steps []Step
	if err := json.Unmarshal(bz, &steps); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return steps, nil
}

// LoadTrace reads and decodes the trace file at path.
func LoadTrace(path string) ([]Step, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	steps, err := ParseTrace(bz)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return steps, nil
}
