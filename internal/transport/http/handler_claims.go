package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"holder-rewards/internal/pipeline"
	"holder-rewards/internal/store"
)

type ClaimHandlers struct {
	pipeline *pipeline.Pipeline
}

func NewClaimHandlers(pl *pipeline.Pipeline) *ClaimHandlers {
	return &ClaimHandlers{pipeline: pl}
}

func (h *ClaimHandlers) Reserve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Seq            *int64 `json:"seq"`
			Wallet         string `json:"wallet"`
			AmountLamports int64  `json:"amount_lamports"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.Seq == nil || body.Wallet == "" || body.AmountLamports <= 0 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		txRef, err := h.pipeline.ReserveClaim(r.Context(), *body.Seq, body.Wallet, body.AmountLamports)
		if err != nil {
			writeClaimError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "tx_ref": txRef})
	}
}

func (h *ClaimHandlers) Confirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Seq    *int64 `json:"seq"`
			Wallet string `json:"wallet"`
			TxRef  string `json:"tx_ref"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.Seq == nil || body.Wallet == "" || body.TxRef == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err := h.pipeline.ConfirmClaim(r.Context(), *body.Seq, body.Wallet, body.TxRef); err != nil {
			writeClaimError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

// writeClaimError maps claim flow errors to statuses a wallet client can
// act on: conflicts are retriable-later, not-found is permanent.
func writeClaimError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrClaimPending):
		WriteHTTPError(w, http.StatusConflict, "claim_pending")
	case errors.Is(err, store.ErrAlreadyClaimed):
		WriteHTTPError(w, http.StatusConflict, "already_claimed")
	case errors.Is(err, store.ErrLockHeld):
		WriteHTTPError(w, http.StatusConflict, "locked")
	case errors.Is(err, pipeline.ErrClaimNotOpen):
		WriteHTTPError(w, http.StatusConflict, "claims_not_open")
	case errors.Is(err, pipeline.ErrNoDistribution), errors.Is(err, store.ErrNotFound):
		WriteHTTPError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, pipeline.ErrAmountMismatch):
		WriteHTTPError(w, http.StatusBadRequest, "amount_mismatch")
	case errors.Is(err, pipeline.ErrSourceNotSet):
		WriteHTTPError(w, http.StatusServiceUnavailable, "source_not_configured")
	case errors.Is(err, pipeline.ErrTransferFailed):
		WriteHTTPError(w, http.StatusBadGateway, "transfer_failed")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
