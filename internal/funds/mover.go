package funds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrMissingAddress = errors.New("missing_address")
)

// TransferRequest is an unsigned transfer of an integer lamport amount
// between custodied addresses. Reference pins it to a recent chain state
// for operator review; the request never carries instruction bytes.
type TransferRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Lamports  int64  `json:"lamports"`
	Reference string `json:"reference,omitempty"`
}

// Mover builds and submits custodied transfers. Submit is only ever called
// while the caller holds the relevant single-flight lock.
type Mover interface {
	BuildTransfer(ctx context.Context, from, to string, lamports int64) (TransferRequest, error)
	Submit(ctx context.Context, req TransferRequest) (string, error)
}

// CustodyMover hands transfers to an external custody service that signs
// and submits them. The service owns the keys; this is a thin client.
type CustodyMover struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

func NewCustodyMover(url, apiKey string) *CustodyMover {
	return &CustodyMover{
		URL:        url,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (m *CustodyMover) BuildTransfer(ctx context.Context, from, to string, lamports int64) (TransferRequest, error) {
	if from == "" || to == "" {
		return TransferRequest{}, ErrMissingAddress
	}
	if lamports <= 0 {
		return TransferRequest{}, ErrInvalidAmount
	}
	return TransferRequest{From: from, To: to, Lamports: lamports}, nil
}

func (m *CustodyMover) Submit(ctx context.Context, req TransferRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if m.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.APIKey)
	}
	resp, err := m.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("custody request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("custody status %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		TxRef string `json:"tx_ref"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode custody response: %w", err)
	}
	if out.TxRef == "" {
		return "", errors.New("custody returned empty tx_ref")
	}
	return out.TxRef, nil
}
