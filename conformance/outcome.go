package conformance

import "fmt"

// ActionOutcome is the result the model expects an action to have.
type ActionOutcome int

const (
	OutcomeNone ActionOutcome = iota
	ICS02CreateOK
	ICS02UpdateOK
	ICS02ClientNotFound
	ICS02HeaderVerificationFailure
	ICS03ConnectionOpenInitOK
	ICS03MissingClient
	ICS03ConnectionOpenTryOK
	ICS03InvalidConsensusHeight
	ICS03ConnectionNotFound
	ICS03ConnectionMismatch
)

var outcomeNames = map[ActionOutcome]string{
	OutcomeNone:                    "None",
	ICS02CreateOK:                  "ICS02CreateOK",
	ICS02UpdateOK:                  "ICS02UpdateOK",
	ICS02ClientNotFound:            "ICS02ClientNotFound",
	ICS02HeaderVerificationFailure: "ICS02HeaderVerificationFailure",
	ICS03ConnectionOpenInitOK:      "ICS03ConnectionOpenInitOK",
	ICS03MissingClient:             "ICS03MissingClient",
	ICS03ConnectionOpenTryOK:       "ICS03ConnectionOpenTryOK",
	ICS03InvalidConsensusHeight:    "ICS03InvalidConsensusHeight",
	ICS03ConnectionNotFound:        "ICS03ConnectionNotFound",
	ICS03ConnectionMismatch:        "ICS03ConnectionMismatch",
}

func (o ActionOutcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("ActionOutcome(%d)", int(o))
}

func (o ActionOutcome) MarshalText() ([]byte, error) {
	if _, ok := outcomeNames[o]; !ok {
		return nil, fmt.Errorf("unknown action outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *ActionOutcome) UnmarshalText(text []byte) error {
	for outcome, name := range outcomeNames {
		if name == string(text) {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown action outcome %q", text)
}
