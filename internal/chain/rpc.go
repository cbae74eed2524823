package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const tokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// RPCReader implements Reader against a Solana JSON-RPC endpoint.
type RPCReader struct {
	Endpoint   string
	HTTPClient *http.Client
}

func NewRPCReader(endpoint string) *RPCReader {
	return &RPCReader{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *RPCReader) call(ctx context.Context, method string, params []any, result any) error {
	payload := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("rpc status %d: %s", resp.StatusCode, string(body))
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	return json.Unmarshal(envelope.Result, result)
}

// CurrentTime reads the chain clock: the block time of the latest
// confirmed slot.
func (c *RPCReader) CurrentTime(ctx context.Context) (int64, error) {
	var slot uint64
	if err := c.call(ctx, "getSlot", []any{map[string]string{"commitment": "confirmed"}}, &slot); err != nil {
		return 0, err
	}
	var blockTime int64
	if err := c.call(ctx, "getBlockTime", []any{slot}, &blockTime); err != nil {
		return 0, err
	}
	return blockTime, nil
}

// ListTokenAccounts fetches every token account of the mint via
// getProgramAccounts with jsonParsed encoding and decodes each into
// (owner, raw balance). Instruction-level byte layouts never surface here.
func (c *RPCReader) ListTokenAccounts(ctx context.Context, mint string) ([]TokenAccount, error) {
	params := []any{
		tokenProgramID,
		map[string]any{
			"encoding":   "jsonParsed",
			"commitment": "confirmed",
			"filters": []any{
				map[string]any{"dataSize": 165},
				map[string]any{"memcmp": map[string]any{"offset": 0, "bytes": mint}},
			},
		},
	}
	var raw []struct {
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Owner       string `json:"owner"`
						TokenAmount struct {
							Amount string `json:"amount"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	}
	if err := c.call(ctx, "getProgramAccounts", params, &raw); err != nil {
		return nil, err
	}
	out := make([]TokenAccount, 0, len(raw))
	for _, entry := range raw {
		info := entry.Account.Data.Parsed.Info
		if info.Owner == "" {
			continue
		}
		amount, err := decimal.NewFromString(info.TokenAmount.Amount)
		if err != nil {
			return nil, fmt.Errorf("decode token amount %q: %w", info.TokenAmount.Amount, err)
		}
		out = append(out, TokenAccount{Owner: info.Owner, RawBalance: amount})
	}
	return out, nil
}

func (c *RPCReader) GetBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	params := []any{address, map[string]string{"commitment": "confirmed"}}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

func (c *RPCReader) RecentReference(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	params := []any{map[string]string{"commitment": "confirmed"}}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return "", err
	}
	return result.Value.Blockhash, nil
}
