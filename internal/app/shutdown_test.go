// internal/app/shutdown_test.go
package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestShutdownClosesNewestFirst(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), time.Second)

	var order []string
	sh.Add("first", CloseFunc(func() error {
		order = append(order, "first")
		return nil
	}))
	sh.Add("second", CloseFunc(func() error {
		order = append(order, "second")
		return nil
	}))

	sh.Shutdown()
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestShutdownContinuesPastErrors(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), time.Second)

	var closed bool
	sh.Add("healthy", CloseFunc(func() error {
		closed = true
		return nil
	}))
	sh.Add("broken", CloseFunc(func() error {
		return errors.New("close failed")
	}))

	sh.Shutdown()
	assert.True(t, closed, "one failing closer must not block the rest")
}

func TestShutdownTimeout(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), 50*time.Millisecond)

	release := make(chan struct{})
	sh.Add("stuck", CloseFunc(func() error {
		<-release
		return nil
	}))

	done := make(chan struct{})
	go func() {
		sh.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not respect its timeout")
	}
	close(release)
}
