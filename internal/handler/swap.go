package handler

import (
	"net/http"
	"strconv"

	"github.com/roosterd/roosterd/internal/orchestrator"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
)

// SwapHandler serves take-over recommendations for applied shifts.
type SwapHandler struct {
	svc *orchestrator.Service
}

// NewSwapHandler creates a swap handler.
func NewSwapHandler(svc *orchestrator.Service) *SwapHandler {
	return &SwapHandler{svc: svc}
}

// Candidates handles GET /api/v1/shifts/{id}/swap-candidates?limit=.
func (h *SwapHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	shiftID, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, apperrors.New(apperrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	recs, err := h.svc.SwapCandidates(r.Context(), shiftID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"shift_id":   shiftID,
		"candidates": recs,
	})
}
