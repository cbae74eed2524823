package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"holder-rewards/internal/store"

	"github.com/go-chi/chi/v5"
)

type PublicHandlers struct {
	store *store.Store
}

func NewPublicHandlers(st *store.Store) *PublicHandlers {
	return &PublicHandlers{store: st}
}

type epochView struct {
	Seq         int64  `json:"seq"`
	StartsAt    int64  `json:"starts_at"`
	EndsAt      int64  `json:"ends_at"`
	Status      string `json:"status"`
	FinalizedAt *int64 `json:"finalized_at,omitempty"`
}

type rankingView struct {
	Rank        int     `json:"rank"`
	Wallet      string  `json:"wallet"`
	HoldingDays float64 `json:"holding_days"`
	Balance     string  `json:"balance"`
	Weight      float64 `json:"weight"`
	ShareBps    int     `json:"share_bps"`
}

type distributionView struct {
	Wallet         string `json:"wallet"`
	AmountLamports int64  `json:"amount_lamports"`
}

func (h *PublicHandlers) Epochs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		epochs, err := h.store.ListEpochs(r.Context(), limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		items := make([]epochView, 0, len(epochs))
		for _, ep := range epochs {
			items = append(items, epochView{
				Seq:         ep.Seq,
				StartsAt:    ep.StartsAt,
				EndsAt:      ep.EndsAt,
				Status:      ep.Status,
				FinalizedAt: ep.FinalizedAt,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

func (h *PublicHandlers) epochFromPath(r *http.Request) (*store.Epoch, error) {
	seq, err := strconv.ParseInt(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		return nil, err
	}
	return h.store.GetEpochBySeq(r.Context(), seq)
}

func (h *PublicHandlers) Rankings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ep, err := h.epochFromPath(r)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "epoch_not_found")
			} else {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_seq")
			}
			return
		}
		ranks, err := h.store.ListRankings(r.Context(), ep.ID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		items := make([]rankingView, 0, len(ranks))
		for _, rk := range ranks {
			items = append(items, rankingView{
				Rank:        rk.Rank,
				Wallet:      rk.Wallet,
				HoldingDays: rk.HoldingDays,
				Balance:     rk.Balance.String(),
				Weight:      rk.Weight,
				ShareBps:    rk.ShareBps,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"epoch_seq": ep.Seq, "items": items})
	}
}

func (h *PublicHandlers) Distributions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ep, err := h.epochFromPath(r)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "epoch_not_found")
			} else {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_seq")
			}
			return
		}
		dists, err := h.store.ListDistributions(r.Context(), ep.ID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		items := make([]distributionView, 0, len(dists))
		var total int64
		for _, d := range dists {
			items = append(items, distributionView{Wallet: d.Wallet, AmountLamports: d.AmountLamports})
			total += d.AmountLamports
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"epoch_seq": ep.Seq, "items": items, "total_lamports": total})
	}
}
