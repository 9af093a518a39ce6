// Package peerclient is the dealer's outbound call to a peer's
// co-commit-random operation. It is the only outbound RPC the core makes;
// retries, if wanted, belong to the transport layer, not here.
package peerclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"randbeacon/core/curve"
)

// ErrPeerUnavailable wraps any transport failure, timeout, or non-success
// response from a peer.
var ErrPeerUnavailable = errors.New("peerclient: peer unavailable")

// Client is the outbound capability used to reach other nodes. It has the
// same method set as coordinator.PeerClient, the interface the coordinator
// itself depends on, so an HTTPClient satisfies both.
type Client interface {
	CoCommit(ctx context.Context, peerURL, commitmentID string, dealerCommitment curve.GroupElement) (curve.GroupElement, error)
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	httpClient *http.Client
}

// New returns an HTTPClient with the given per-call timeout.
func New(timeout time.Duration) *HTTPClient {
	return &HTTPClient{httpClient: &http.Client{Timeout: timeout}}
}

type coCommitRequest struct {
	CommitmentID string `json:"commitment_id"`
	Commitment   string `json:"commitment"`
}

type coCommitResponse struct {
	Commitment string `json:"commitment"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CoCommit invokes co-commit-random on peerURL and returns the combined
// commitment it replies with.
func (c *HTTPClient) CoCommit(ctx context.Context, peerURL, commitmentID string, dealerCommitment curve.GroupElement) (curve.GroupElement, error) {
	dcBytes := dealerCommitment.Bytes()
	reqBody, err := json.Marshal(coCommitRequest{
		CommitmentID: commitmentID,
		Commitment:   hex.EncodeToString(dcBytes[:]),
	})
	if err != nil {
		return curve.GroupElement{}, fmt.Errorf("%w: encoding request: %v", ErrPeerUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peerURL+"/co-commit-random", bytes.NewReader(reqBody))
	if err != nil {
		return curve.GroupElement{}, fmt.Errorf("%w: building request: %v", ErrPeerUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return curve.GroupElement{}, fmt.Errorf("%w: %v", ErrPeerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return curve.GroupElement{}, fmt.Errorf("%w: reading response: %v", ErrPeerUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		return curve.GroupElement{}, fmt.Errorf("%w: peer %s responded %d: %s", ErrPeerUnavailable, peerURL, resp.StatusCode, errResp.Error)
	}

	var out coCommitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return curve.GroupElement{}, fmt.Errorf("%w: decoding response: %v", ErrPeerUnavailable, err)
	}

	raw, err := hex.DecodeString(out.Commitment)
	if err != nil {
		return curve.GroupElement{}, fmt.Errorf("%w: malformed commitment hex: %v", ErrPeerUnavailable, err)
	}
	combined, err := curve.GroupElementFromBytes(raw)
	if err != nil {
		return curve.GroupElement{}, fmt.Errorf("%w: malformed commitment point: %v", ErrPeerUnavailable, err)
	}
	return combined, nil
}
