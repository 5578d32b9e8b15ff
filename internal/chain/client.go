// internal/chain/client.go
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/floorlab/floorbot/internal/metrics"
)

// Client is a thin adapter over the fullnode REST API. It is constructed
// once per process and injected into every consumer; a network switch
// produces a rebuilt client via WithEndpoint instead of mutating shared
// state.
type Client struct {
	endpoint       string
	httpClient     *http.Client
	logger         *zap.Logger
	collector      *metrics.Collector
	callTimeout    time.Duration
	confirmTimeout time.Duration
	viewTries      uint
}

// Options configures a Client.
type Options struct {
	CallTimeout    time.Duration
	ConfirmTimeout time.Duration
	// ViewTries bounds transport-level retries per view call. Ledger-side
	// aborts are never retried.
	ViewTries uint
	Collector *metrics.Collector
}

// DefaultOptions returns the default client options.
func DefaultOptions() Options {
	return Options{
		CallTimeout:    5 * time.Second,
		ConfirmTimeout: 30 * time.Second,
		ViewTries:      3,
	}
}

// NewClient creates a new fullnode client.
func NewClient(endpoint string, logger *zap.Logger, opts ...Options) *Client {
	options := DefaultOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	if options.CallTimeout <= 0 {
		options.CallTimeout = 5 * time.Second
	}
	if options.ConfirmTimeout <= 0 {
		options.ConfirmTimeout = 30 * time.Second
	}
	if options.ViewTries == 0 {
		options.ViewTries = 3
	}

	return &Client{
		endpoint:       strings.TrimRight(endpoint, "/"),
		httpClient:     &http.Client{Timeout: options.CallTimeout},
		logger:         logger.Named("chain_client"),
		collector:      options.Collector,
		callTimeout:    options.CallTimeout,
		confirmTimeout: options.ConfirmTimeout,
		viewTries:      options.ViewTries,
	}
}

// WithEndpoint returns a client identical to c but targeting a different
// fullnode endpoint. Used when the network identity changes.
func (c *Client) WithEndpoint(endpoint string) *Client {
	clone := *c
	clone.endpoint = strings.TrimRight(endpoint, "/")
	return &clone
}

// View executes a read-only view function and returns the raw result
// tuple. Transport failures are retried with exponential backoff;
// ledger-side aborts are returned immediately.
func (c *Client) View(ctx context.Context, function string, typeArgs []string, args []any) ([]json.RawMessage, error) {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []any{}
	}
	req := ViewRequest{Function: function, TypeArguments: typeArgs, Arguments: args}

	operation := func() ([]json.RawMessage, error) {
		out, err := c.viewOnce(ctx, req)
		if err != nil && !IsTransport(err) {
			return nil, backoff.Permanent(err)
		}
		return out, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	notify := func(err error, duration time.Duration) {
		c.logger.Debug("Retrying view call after transport error",
			zap.String("function", function),
			zap.Duration("backoff", duration),
			zap.Error(err))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.viewTries),
		backoff.WithNotify(notify))
}

func (c *Client) viewOnce(ctx context.Context, req ViewRequest) ([]json.RawMessage, error) {
	start := time.Now()
	defer c.recordLatency("view", req.Function, start)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal view request: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	respBody, status, err := c.post(cctx, "/v1/view", body)
	if err != nil {
		return nil, &RPCError{Kind: KindTransport, Function: req.Function, Message: err.Error()}
	}
	if status != http.StatusOK {
		return nil, &RPCError{
			Kind:       classifyStatus(status),
			Function:   req.Function,
			StatusCode: status,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	var out []json.RawMessage
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &RPCError{Kind: KindTransport, Function: req.Function, Message: fmt.Sprintf("decode view response: %v", err)}
	}
	return out, nil
}

// Submit broadcasts a signed transaction and returns its handle. No
// retries: a duplicate broadcast is worse than a surfaced failure.
func (c *Client) Submit(ctx context.Context, signed SignedTransaction) (TxHandle, error) {
	start := time.Now()
	defer c.recordLatency("submit", "", start)

	cctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	respBody, status, err := c.post(cctx, "/v1/transactions", signed)
	if err != nil {
		return TxHandle{}, &RPCError{Kind: KindTransport, Function: "submit", Message: err.Error()}
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return TxHandle{}, &RPCError{
			Kind:       classifyStatus(status),
			Function:   "submit",
			StatusCode: status,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	var handle TxHandle
	if err := json.Unmarshal(respBody, &handle); err != nil {
		return TxHandle{}, fmt.Errorf("decode submit response: %w", err)
	}
	if handle.Hash == "" {
		return TxHandle{}, fmt.Errorf("submit response missing transaction hash")
	}

	c.logger.Debug("Transaction submitted", zap.String("tx_hash", handle.Hash))
	return handle, nil
}

// txStatus is the confirmation-relevant slice of the transaction resource.
type txStatus struct {
	Type     string `json:"type"`
	Success  *bool  `json:"success"`
	VMStatus string `json:"vm_status"`
}

// WaitForConfirmation polls the transaction by hash until it reaches
// finality, fails, or the confirmation timeout elapses.
func (c *Client) WaitForConfirmation(ctx context.Context, handle TxHandle) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(c.confirmTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("confirmation timeout for %s", handle.Hash)
		case <-ticker.C:
			status, err := c.transactionStatus(ctx, handle.Hash)
			if err != nil {
				// Not-yet-indexed and transient errors both mean "keep polling".
				c.logger.Debug("Error polling transaction status",
					zap.String("tx_hash", handle.Hash),
					zap.Error(err))
				continue
			}
			if status.Type == "pending_transaction" || status.Success == nil {
				continue
			}
			if !*status.Success {
				return fmt.Errorf("transaction %s failed: %s", handle.Hash, status.VMStatus)
			}
			return nil
		}
	}
}

func (c *Client) transactionStatus(ctx context.Context, hash string) (*txStatus, error) {
	start := time.Now()
	defer c.recordLatency("tx_status", "", start)

	cctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, c.endpoint+"/v1/transactions/by_hash/"+hash, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RPCError{
			Kind:       classifyStatus(resp.StatusCode),
			Function:   "tx_status",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var status txStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode transaction status: %w", err)
	}
	return &status, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return respBody, resp.StatusCode, nil
}

func (c *Client) recordLatency(method, function string, start time.Time) {
	if c.collector == nil {
		return
	}
	name := function
	if i := strings.LastIndex(function, "::"); i >= 0 {
		name = function[i+2:]
	}
	c.collector.RecordRPCLatency(method, name, time.Since(start))
}

var _ Viewer = (*Client)(nil)
var _ Submitter = (*Client)(nil)
