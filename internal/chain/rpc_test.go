package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rpcServer(t *testing.T, handlers map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			return
		}
		result, ok := handlers[req.Method]
		if !ok {
			t.Errorf("unexpected rpc method %q", req.Method)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
}

func TestCurrentTime(t *testing.T) {
	srv := rpcServer(t, map[string]any{
		"getSlot":      uint64(12345),
		"getBlockTime": int64(1700000000),
	})
	defer srv.Close()

	c := NewRPCReader(srv.URL)
	got, err := c.CurrentTime(context.Background())
	if err != nil {
		t.Fatalf("CurrentTime: %v", err)
	}
	if got != 1700000000 {
		t.Fatalf("CurrentTime = %d, want 1700000000", got)
	}
}

func TestListTokenAccounts(t *testing.T) {
	accounts := []map[string]any{
		{"account": map[string]any{"data": map[string]any{"parsed": map[string]any{"info": map[string]any{
			"owner":       "ownerA",
			"tokenAmount": map[string]any{"amount": "1000000000000000"},
		}}}}},
		{"account": map[string]any{"data": map[string]any{"parsed": map[string]any{"info": map[string]any{
			"owner":       "ownerB",
			"tokenAmount": map[string]any{"amount": "5"},
		}}}}},
	}
	srv := rpcServer(t, map[string]any{"getProgramAccounts": accounts})
	defer srv.Close()

	c := NewRPCReader(srv.URL)
	got, err := c.ListTokenAccounts(context.Background(), "mint111")
	if err != nil {
		t.Fatalf("ListTokenAccounts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(got))
	}
	if got[0].Owner != "ownerA" || got[0].RawBalance.String() != "1000000000000000" {
		t.Fatalf("unexpected first account: %+v", got[0])
	}
}

func TestGetBalanceAndReference(t *testing.T) {
	srv := rpcServer(t, map[string]any{
		"getBalance":         map[string]any{"value": uint64(42)},
		"getLatestBlockhash": map[string]any{"value": map[string]any{"blockhash": "hash123"}},
	})
	defer srv.Close()

	c := NewRPCReader(srv.URL)
	bal, err := c.GetBalance(context.Background(), "addr")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if bal != 42 {
		t.Fatalf("GetBalance = %d, want 42", bal)
	}
	ref, err := c.RecentReference(context.Background())
	if err != nil {
		t.Fatalf("RecentReference: %v", err)
	}
	if ref != "hash123" {
		t.Fatalf("RecentReference = %q, want hash123", ref)
	}
}

func TestRPCErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]any{"code": -32005, "message": "node is behind"},
		})
	}))
	defer srv.Close()

	c := NewRPCReader(srv.URL)
	if _, err := c.GetBalance(context.Background(), "addr"); err == nil {
		t.Fatal("expected rpc error")
	}
}
