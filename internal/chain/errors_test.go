// internal/chain/errors_test.go
package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	abort := &RPCError{Kind: KindAbort, Function: "f", StatusCode: 404, Message: "not found"}
	transport := &RPCError{Kind: KindTransport, Function: "f", StatusCode: 503, Message: "unavailable"}

	assert.True(t, IsAbort(abort))
	assert.False(t, IsAbort(transport))
	assert.False(t, IsAbort(nil))

	assert.True(t, IsTransport(transport))
	assert.False(t, IsTransport(abort))
	assert.False(t, IsTransport(nil))

	// Classification survives wrapping.
	wrapped := fmt.Errorf("fetch supply: %w", abort)
	assert.True(t, IsAbort(wrapped))
	assert.False(t, IsTransport(wrapped))
}

func TestIsTransportContextDeadline(t *testing.T) {
	assert.True(t, IsTransport(context.DeadlineExceeded))
	assert.False(t, IsTransport(errors.New("something else")))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, KindAbort, classifyStatus(400))
	assert.Equal(t, KindAbort, classifyStatus(404))
	assert.Equal(t, KindTransport, classifyStatus(500))
	assert.Equal(t, KindTransport, classifyStatus(503))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(errors.New("resource not found by address")))
	assert.True(t, IsNotFoundError(errors.New("RESOURCE_NOT_FOUND")))
	assert.False(t, IsNotFoundError(errors.New("connection refused")))
	assert.False(t, IsNotFoundError(nil))
}
