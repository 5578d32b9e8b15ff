// internal/chain/types.go
package chain

import (
	"context"
	"encoding/json"
	"fmt"
)

// FunctionID builds the fully-qualified view/entry function identifier
// <moduleAddress>::<moduleName>::<functionName>.
func FunctionID(moduleAddress, moduleName, functionName string) string {
	return fmt.Sprintf("%s::%s::%s", moduleAddress, moduleName, functionName)
}

// ViewRequest is the wire form of a read-only view call.
type ViewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// EntryFunctionPayload is the wire form of a state-mutating entry call.
// It is handed to the wallet boundary for signing and never submitted raw.
type EntryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// NewEntryFunctionPayload builds an entry function payload.
func NewEntryFunctionPayload(function string, typeArgs []string, args []any) EntryFunctionPayload {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []any{}
	}
	return EntryFunctionPayload{
		Type:          "entry_function_payload",
		Function:      function,
		TypeArguments: typeArgs,
		Arguments:     args,
	}
}

// SignedTransaction is an opaque signed transaction blob produced by the
// wallet boundary. The gateway forwards it without inspecting it.
type SignedTransaction json.RawMessage

// TxHandle identifies a submitted transaction awaiting confirmation.
type TxHandle struct {
	Hash string `json:"hash"`
}

// Viewer is the read boundary consumed by the scan layers. *Client
// implements it; tests substitute a fake ledger.
type Viewer interface {
	View(ctx context.Context, function string, typeArgs []string, args []any) ([]json.RawMessage, error)
}

// Submitter is the write boundary consumed by the action layers.
type Submitter interface {
	Submit(ctx context.Context, signed SignedTransaction) (TxHandle, error)
	WaitForConfirmation(ctx context.Context, handle TxHandle) error
}
