// Package conformance replays model-generated traces against an implementation and
// reports where the implementation disagrees with the model.
//
// A trace is a JSON array of steps. The first step carries no action and describes the
// initial chains; every later step carries one action, the outcome the model expects, and
// the height the model expects every chain to be at afterwards:
//
//	[
//	  {"action": {"type": "None"}, "actionOutcome": "None", "chains": {"chainA": {"height": 1}}},
//	  {"action": {"type": "ICS02CreateClient", "chainId": "chainA", "clientState": 10, "consensusState": 10},
//	   "actionOutcome": "ICS02CreateOK", "chains": {"chainA": {"height": 2}}}
//	]
//
// Field names are accepted in both camelCase and snake_case.
package conformance
