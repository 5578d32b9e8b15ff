// internal/wallet/bridge.go
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/floorlab/floorbot/internal/addr"
	"github.com/floorlab/floorbot/internal/chain"
)

// BridgeSigner signs through an external wallet bridge process. The
// payload goes out, a signed transaction blob comes back; keys never
// enter this process.
type BridgeSigner struct {
	url        string
	address    string
	httpClient *http.Client
}

// NewBridgeSigner creates a signer talking to the wallet bridge at url on
// behalf of the given account address.
func NewBridgeSigner(url, address string) *BridgeSigner {
	return &BridgeSigner{
		url:        strings.TrimRight(url, "/"),
		address:    addr.Normalize(address),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Address returns the canonical account address of the signer.
func (s *BridgeSigner) Address() string {
	return s.address
}

type signRequest struct {
	Sender  string                     `json:"sender"`
	Payload chain.EntryFunctionPayload `json:"payload"`
}

// Sign forwards the payload to the bridge and returns the signed blob.
func (s *BridgeSigner) Sign(ctx context.Context, payload chain.EntryFunctionPayload) (chain.SignedTransaction, error) {
	body, err := json.Marshal(signRequest{Sender: s.address, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/sign", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallet bridge rejected signing request (status %d): %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return chain.SignedTransaction(respBody), nil
}

var _ Signer = (*BridgeSigner)(nil)
