package api

import (
	"net/http"
	"strconv"

	"betpool/models"
	"betpool/service"
)

// CurrentUser handles GET /api/users/me
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	actor := principalFrom(r.Context())
	if actor.UserID == 0 {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}

	user, err := h.svc.Ledger.GetUser(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Ledger.ListUsers(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// RegisterUser handles POST /api/users
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := h.svc.Ledger.RegisterUser(r.Context(), principalFrom(r.Context()), req.DisplayName, req.Email, role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// SetCredits handles PUT /api/users/{userID}/credits
func (h *Handler) SetCredits(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req setCreditsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.svc.Ledger.SetCredits(r.Context(), principalFrom(r.Context()), userID, *req.Credits)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ResetCredits handles POST /api/users/reset-credits
func (h *Handler) ResetCredits(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Ledger.ResetCredits(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reset": count})
}

// BalanceHistory handles GET /api/users/{userID}/history
func (h *Handler) BalanceHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeServiceError(w, r, newParamError("limit", "must be a positive integer"))
			return
		}
	}

	history, err := h.svc.Ledger.GetBalanceHistory(r.Context(), principalFrom(r.Context()), userID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}
