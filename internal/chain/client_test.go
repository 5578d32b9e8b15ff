// internal/chain/client_test.go
package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Options) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, zap.NewNop(), opts...), server
}

func TestViewSuccess(t *testing.T) {
	var gotReq ViewRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/view", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`["0xabc", "7"]`))
	})

	out, err := client.View(context.Background(), "0xcafe::gallery::supply", nil, []any{"0x1"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	supply, err := DecodeU64(out[1])
	require.NoError(t, err)
	assert.Equal(t, uint64(7), supply)

	assert.Equal(t, "0xcafe::gallery::supply", gotReq.Function)
	assert.Equal(t, []string{}, gotReq.TypeArguments)
	require.Len(t, gotReq.Arguments, 1)
}

func TestViewAbortNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "Move abort in 0xcafe::marketplace: ELISTING_NOT_FOUND", http.StatusBadRequest)
	})

	_, err := client.View(context.Background(), "0xcafe::marketplace::listing", nil, []any{"0x2"})
	require.Error(t, err)
	assert.True(t, IsAbort(err))
	assert.False(t, IsTransport(err))
	assert.Equal(t, int32(1), calls.Load(), "aborts must not be retried")
}

func TestViewTransportErrorRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream timeout", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`["5"]`))
	})

	out, err := client.View(context.Background(), "0xcafe::gallery::supply", nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestViewTransportErrorExhaustsTries(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.View(context.Background(), "0xcafe::gallery::supply", nil, nil)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transactions", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"hash":"0xdeadbeef"}`))
	})

	handle, err := client.Submit(context.Background(), SignedTransaction(`{"signed":true}`))
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", handle.Hash)
}

func TestSubmitMissingHash(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Submit(context.Background(), SignedTransaction(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing transaction hash")
}

func TestSubmitFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "mempool full", http.StatusServiceUnavailable)
	})

	_, err := client.Submit(context.Background(), SignedTransaction(`{}`))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a duplicate broadcast is worse than a surfaced failure")
}

func TestWaitForConfirmation(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transactions/by_hash/0xabc", r.URL.Path)
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"type":"pending_transaction"}`))
			return
		}
		_, _ = w.Write([]byte(`{"type":"user_transaction","success":true,"vm_status":"Executed successfully"}`))
	}, Options{ConfirmTimeout: 10 * time.Second})

	err := client.WaitForConfirmation(context.Background(), TxHandle{Hash: "0xabc"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestWaitForConfirmationFailedTransaction(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"user_transaction","success":false,"vm_status":"Move abort: EINSUFFICIENT_BALANCE"}`))
	}, Options{ConfirmTimeout: 10 * time.Second})

	err := client.WaitForConfirmation(context.Background(), TxHandle{Hash: "0xdef"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EINSUFFICIENT_BALANCE")
}

func TestWaitForConfirmationTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"pending_transaction"}`))
	}, Options{ConfirmTimeout: 1200 * time.Millisecond})

	err := client.WaitForConfirmation(context.Background(), TxHandle{Hash: "0x1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmation timeout")
}

func TestWithEndpoint(t *testing.T) {
	client := NewClient("http://one.example.com/", zap.NewNop())
	clone := client.WithEndpoint("http://two.example.com")

	assert.Equal(t, "http://one.example.com", client.endpoint)
	assert.Equal(t, "http://two.example.com", clone.endpoint)
}
