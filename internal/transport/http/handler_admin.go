package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"holder-rewards/internal/pipeline"
	"holder-rewards/internal/store"
)

type AdminHandlers struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
}

func NewAdminHandlers(st *store.Store, pl *pipeline.Pipeline) *AdminHandlers {
	return &AdminHandlers{store: st, pipeline: pl}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

// writeResult renders a stage outcome. Skips are 200s with a reason so a
// scheduler polling the endpoint can tell "already done" from "broken".
func writeResult(w http.ResponseWriter, res pipeline.Result) {
	body := map[string]any{"status": string(res.Status)}
	if res.EpochID != "" {
		body["epoch_id"] = res.EpochID
		body["epoch_seq"] = res.EpochSeq
	}
	if res.Rows > 0 {
		body["rows"] = res.Rows
	}
	status := http.StatusOK
	switch res.Status {
	case pipeline.StatusSkipped:
		body["reason"] = res.Reason
	case pipeline.StatusFailed:
		status = http.StatusInternalServerError
		body["error"] = res.Err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// seqFromBody reads an optional {"seq": N} request body. A missing body or
// missing field means "latest eligible epoch".
func seqFromBody(r *http.Request) (*int64, error) {
	var body struct {
		Seq *int64 `json:"seq"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return body.Seq, nil
}

func (h *AdminHandlers) Snapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, h.pipeline.RunSnapshot(r.Context()))
	}
}

func (h *AdminHandlers) Ranking() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, err := seqFromBody(r)
		if err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		writeResult(w, h.pipeline.RunRanking(r.Context(), seq))
	}
}

func (h *AdminHandlers) Distribution() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, err := seqFromBody(r)
		if err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		writeResult(w, h.pipeline.RunDistribution(r.Context(), seq))
	}
}

func (h *AdminHandlers) PayoutDryRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Seq              *int64 `json:"seq"`
			IncludeTemplates bool   `json:"include_templates"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, templates := h.pipeline.RunPayoutDryRun(r.Context(), body.Seq, body.IncludeTemplates)
		out := map[string]any{"status": string(res.Status)}
		if res.EpochID != "" {
			out["epoch_id"] = res.EpochID
			out["epoch_seq"] = res.EpochSeq
		}
		if res.Rows > 0 {
			out["rows"] = res.Rows
		}
		status := http.StatusOK
		switch res.Status {
		case pipeline.StatusSkipped:
			out["reason"] = res.Reason
		case pipeline.StatusFailed:
			status = http.StatusInternalServerError
			out["error"] = res.Err.Error()
		}
		if body.IncludeTemplates && res.Status == pipeline.StatusApplied {
			out["transfers"] = templates
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(out)
	}
}

func (h *AdminHandlers) lifecycle(run func(r *http.Request, seq int64) pipeline.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, err := seqFromBody(r)
		if err != nil || seq == nil {
			WriteHTTPError(w, http.StatusBadRequest, "seq_required")
			return
		}
		writeResult(w, run(r, *seq))
	}
}

func (h *AdminHandlers) OpenClaims() http.HandlerFunc {
	return h.lifecycle(func(r *http.Request, seq int64) pipeline.Result {
		return h.pipeline.OpenClaims(r.Context(), seq)
	})
}

func (h *AdminHandlers) CloseClaims() http.HandlerFunc {
	return h.lifecycle(func(r *http.Request, seq int64) pipeline.Result {
		return h.pipeline.CloseClaims(r.Context(), seq)
	})
}

func (h *AdminHandlers) Settle() http.HandlerFunc {
	return h.lifecycle(func(r *http.Request, seq int64) pipeline.Result {
		return h.pipeline.Settle(r.Context(), seq)
	})
}

func (h *AdminHandlers) Sweep() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Wallet string `json:"wallet"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.Wallet == "" {
			WriteHTTPError(w, http.StatusBadRequest, "wallet_required")
			return
		}
		writeResult(w, h.pipeline.RunSweep(r.Context(), body.Wallet))
	}
}

func (h *AdminHandlers) ReapClaims() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Wallet        string `json:"wallet"`
			OlderThanSecs int64  `json:"older_than_secs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.Wallet == "" {
			WriteHTTPError(w, http.StatusBadRequest, "wallet_required")
			return
		}
		reaped, err := h.pipeline.ReapStaleClaims(r.Context(), body.Wallet, time.Duration(body.OlderThanSecs)*time.Second)
		if err != nil {
			if errors.Is(err, store.ErrLockHeld) {
				WriteHTTPError(w, http.StatusConflict, "locked")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "reaped": reaped})
	}
}
