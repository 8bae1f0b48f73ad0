package conformance

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Action is one protocol setup operation of a trace.
// Implementations are NoneAction, CreateClient, UpdateClient, ConnectionOpenInit and ConnectionOpenTry.
type Action interface {
	// Type is the tag selecting the action in a trace.
	Type() string
	isAction()
}

// Action tags.
const (
	TypeNone               = "None"
	TypeCreateClient       = "ICS02CreateClient"
	TypeUpdateClient       = "ICS02UpdateClient"
	TypeConnectionOpenInit = "ICS03ConnectionOpenInit"
	TypeConnectionOpenTry  = "ICS03ConnectionOpenTry"
)

var (
	_ Action = NoneAction{}
	_ Action = CreateClient{}
	_ Action = UpdateClient{}
	_ Action = ConnectionOpenInit{}
	_ Action = ConnectionOpenTry{}
)

// NoneAction marks the initial step of a trace.
type NoneAction struct{}

// CreateClient creates a client on ChainID. Client and consensus states are modelled by their height.
type CreateClient struct {
	ChainID        string `json:"chain_id"`
	ClientState    uint64 `json:"client_state"`
	ConsensusState uint64 `json:"consensus_state"`
}

// UpdateClient updates client ClientID on ChainID with a header at height Header.
type UpdateClient struct {
	ChainID  string `json:"chain_id"`
	ClientID uint64 `json:"client_id"`
	Header   uint64 `json:"header"`
}

type ConnectionOpenInit struct {
	ChainID              string `json:"chain_id"`
	ClientID             uint64 `json:"client_id"`
	CounterpartyClientID uint64 `json:"counterparty_client_id"`
}

// ConnectionOpenTry opens a connection on ChainID in response to an init on the counterparty.
// PreviousConnectionID is nil unless the try continues an existing connection.
type ConnectionOpenTry struct {
	ChainID                  string  `json:"chain_id"`
	PreviousConnectionID     *uint64 `json:"previous_connection_id"`
	ClientID                 uint64  `json:"client_id"`
	ClientState              uint64  `json:"client_state"`
	CounterpartyClientID     uint64  `json:"counterparty_client_id"`
	CounterpartyConnectionID uint64  `json:"counterparty_connection_id"`
}

func (NoneAction) Type() string         { return TypeNone }
func (CreateClient) Type() string       { return TypeCreateClient }
func (UpdateClient) Type() string       { return TypeUpdateClient }
func (ConnectionOpenInit) Type() string { return TypeConnectionOpenInit }
func (ConnectionOpenTry) Type() string  { return TypeConnectionOpenTry }

func (NoneAction) isAction()         {}
func (CreateClient) isAction()       {}
func (UpdateClient) isAction()       {}
func (ConnectionOpenInit) isAction() {}
func (ConnectionOpenTry) isAction()  {}

// noConnection is how the model writes an absent connection identifier.
const noConnection = -1

// ParseAction decodes one action object, selecting the variant by its "type" field.
func ParseAction(raw []byte) (Action, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("action is not valid json")
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return nil, fmt.Errorf("action must be an object, got %s", obj.Type)
	}
	f := fields{obj: obj}

	tag := obj.Get("type")
	if tag.Type != gjson.String {
		return nil, errors.New(`action is missing its "type" tag`)
	}

	var action Action
	switch tag.Str {
	case TypeNone:
		action = NoneAction{}
	case TypeCreateClient:
		action = CreateClient{
			ChainID:        f.string("chain_id", "chainId"),
			ClientState:    f.uint("client_state", "clientState"),
			ConsensusState: f.uint("consensus_state", "consensusState"),
		}
	case TypeUpdateClient:
		action = UpdateClient{
			ChainID:  f.string("chain_id", "chainId"),
			ClientID: f.uint("client_id", "clientId"),
			Header:   f.uint("header", "header"),
		}
	case TypeConnectionOpenInit:
		action = ConnectionOpenInit{
			ChainID:              f.string("chain_id", "chainId"),
			ClientID:             f.uint("client_id", "clientId"),
			CounterpartyClientID: f.uint("counterparty_client_id", "counterpartyClientId"),
		}
	case TypeConnectionOpenTry:
		action = ConnectionOpenTry{
			ChainID:                  f.string("chain_id", "chainId"),
			PreviousConnectionID:     f.optionalConnection("previous_connection_id", "previousConnectionId"),
			ClientID:                 f.uint("client_id", "clientId"),
			ClientState:              f.uint("client_state", "clientState"),
			CounterpartyClientID:     f.uint("counterparty_client_id", "counterpartyClientId"),
			CounterpartyConnectionID: f.uint("counterparty_connection_id", "counterpartyConnectionId"),
		}
	default:
		return nil, fmt.Errorf("unknown action type %q", tag.Str)
	}

	if f.err != nil {
		return nil, fmt.Errorf("%s: %w", tag.Str, f.err)
	}
	return action, nil
}

// fields reads aliased fields of one object, keeping the first error.
type fields struct {
	obj gjson.Result
	err error
}

func (f *fields) lookup(snake, camel string) (gjson.Result, bool) {
	if r := f.obj.Get(gjson.Escape(snake)); r.Exists() {
		return r, true
	}
	if r := f.obj.Get(gjson.Escape(camel)); r.Exists() {
		return r, true
	}
	return gjson.Result{}, false
}

func (f *fields) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *fields) string(snake, camel string) string {
	r, ok := f.lookup(snake, camel)
	if !ok {
		f.fail(fmt.Errorf("missing field %s", snake))
		return ""
	}
	if r.Type != gjson.String {
		f.fail(fmt.Errorf("field %s must be a string, got %s", snake, r.Type))
		return ""
	}
	return r.Str
}

func (f *fields) uint(snake, camel string) uint64 {
	r, ok := f.lookup(snake, camel)
	if !ok {
		f.fail(fmt.Errorf("missing field %s", snake))
		return 0
	}
	v, err := unsigned(r)
	if err != nil {
		f.fail(fmt.Errorf("field %s: %w", snake, err))
	}
	return v
}

// optionalConnection decodes a connection identifier that the model may leave out, set to
// null, or set to -1, all meaning absent.
func (f *fields) optionalConnection(snake, camel string) *uint64 {
	r, ok := f.lookup(snake, camel)
	if !ok || r.Type == gjson.Null {
		return nil
	}
	if r.Type == gjson.Number && r.Raw == strconv.Itoa(noConnection) {
		return nil
	}
	v, err := unsigned(r)
	if err != nil {
		f.fail(fmt.Errorf("field %s: %w", snake, err))
		return nil
	}
	return &v
}

func unsigned(r gjson.Result) (uint64, error) {
	if r.Type != gjson.Number {
		return 0, fmt.Errorf("must be a number, got %s", r.Type)
	}
	v, err := strconv.ParseUint(r.Raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not an unsigned integer", r.Raw)
	}
	return v, nil
}
