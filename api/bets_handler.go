package api

import (
	"net/http"

	"betpool/models"
)

// ListBets handles GET /api/bets
func (h *Handler) ListBets(w http.ResponseWriter, r *http.Request) {
	var status *models.BetStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.BetStatus(raw)
		if !s.Valid() {
			writeServiceError(w, r, newParamError("status", "must be one of: open active in-progress resolved"))
			return
		}
		status = &s
	}

	bets, err := h.svc.Lifecycle.ListBets(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}

// CreateBet handles POST /api/bets
func (h *Handler) CreateBet(w http.ResponseWriter, r *http.Request) {
	var req createBetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	detail, err := h.svc.Lifecycle.CreateBet(r.Context(), principalFrom(r.Context()), req.params())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// GetBet handles GET /api/bets/{betID}
func (h *Handler) GetBet(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	detail, err := h.svc.Lifecycle.GetBet(r.Context(), betID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// EditBet handles PATCH /api/bets/{betID}
func (h *Handler) EditBet(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req editBetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	detail, err := h.svc.Lifecycle.EditBet(r.Context(), principalFrom(r.Context()), betID, req.params())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ChangeStatus handles PUT /api/bets/{betID}/status
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req changeStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	bet, err := h.svc.Lifecycle.ChangeStatus(r.Context(), principalFrom(r.Context()), betID, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

// ResolveBet handles POST /api/bets/{betID}/resolve
func (h *Handler) ResolveBet(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.svc.Settlement.ResolveBet(r.Context(), principalFrom(r.Context()), betID, string(req.WinningOption))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"settled":        true,
		"bet":            result.Bet,
		"winning_option": result.WinningOption,
		"pool":           result.Pool,
		"winners":        len(result.Winners),
		"losers":         len(result.Losers),
		"payouts":        result.Payouts,
	})
}

// RevertBet handles POST /api/bets/{betID}/revert
func (h *Handler) RevertBet(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	bet, err := h.svc.Settlement.RevertBet(r.Context(), principalFrom(r.Context()), betID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reverted": true, "bet": bet})
}

// DeleteBet handles DELETE /api/bets/{betID}
func (h *Handler) DeleteBet(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.svc.Settlement.DeleteBet(r.Context(), principalFrom(r.Context()), betID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Participate handles POST /api/bets/{betID}/participations
func (h *Handler) Participate(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req participateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	participation, err := h.svc.Participation.Participate(r.Context(), principalFrom(r.Context()), betID, string(req.Option), req.Stake)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, participation)
}

// RemoveParticipation handles DELETE /api/bets/{betID}/participations/{participationID}
func (h *Handler) RemoveParticipation(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	participationID, err := parseIDParam(r, "participationID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.svc.Participation.RemoveParticipation(r.Context(), principalFrom(r.Context()), betID, participationID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// ChangeParticipantOption handles PUT /api/bets/{betID}/participations/option
func (h *Handler) ChangeParticipantOption(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req changeOptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	participation, err := h.svc.Participation.ChangeOption(r.Context(), principalFrom(r.Context()), betID, req.UserID, string(req.Option))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participation)
}
