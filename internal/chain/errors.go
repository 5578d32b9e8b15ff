// internal/chain/errors.go
package chain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind separates ledger-side rejections from transport problems. The
// fullnode exposes no structured error codes, so absence ("not listed",
// "no such token") and genuine failures both surface as errors; callers
// must be able to tell which is which.
type ErrorKind int

const (
	// KindTransport covers network errors, timeouts and 5xx responses.
	// The call may be retried.
	KindTransport ErrorKind = iota
	// KindAbort covers ledger-side rejections (4xx, aborted view
	// functions). Retrying cannot help; for probes this encodes absence.
	KindAbort
)

// RPCError is a classified fullnode error.
type RPCError struct {
	Kind       ErrorKind
	Function   string
	StatusCode int
	Message    string
}

func (e *RPCError) Error() string {
	kind := "transport"
	if e.Kind == KindAbort {
		kind = "abort"
	}
	return fmt.Sprintf("rpc %s error calling %s (status %d): %s", kind, e.Function, e.StatusCode, e.Message)
}

// IsAbort reports whether err is a ledger-side rejection.
func IsAbort(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Kind == KindAbort
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Kind == KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsNotFoundError checks the error text for the usual absence markers.
// Message inspection is all the boundary offers.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found")
}

func classifyStatus(status int) ErrorKind {
	if status >= 400 && status < 500 {
		return KindAbort
	}
	return KindTransport
}
