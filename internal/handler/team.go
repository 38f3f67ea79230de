package handler

import (
	"encoding/json"
	"net/http"

	"github.com/roosterd/roosterd/internal/orchestrator"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// TeamHandler serves the team scheduling toggles.
type TeamHandler struct {
	svc *orchestrator.Service
}

// NewTeamHandler creates a team handler.
func NewTeamHandler(svc *orchestrator.Service) *TeamHandler {
	return &TeamHandler{svc: svc}
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAutoScheduling handles PUT /api/v1/teams/{id}/auto-scheduling.
func (h *TeamHandler) SetAutoScheduling(w http.ResponseWriter, r *http.Request) {
	teamID, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "malformed request body"))
		return
	}

	if err := h.svc.SetAutoScheduling(r.Context(), teamID, req.Enabled); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"team_id":                 teamID,
		"auto_scheduling_enabled": req.Enabled,
	})
}

// SetProductEnabled handles PUT /api/v1/teams/{id}/products/{product}.
func (h *TeamHandler) SetProductEnabled(w http.ResponseWriter, r *http.Request) {
	teamID, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	product, ok := model.ParseProduct(r.PathValue("product"))
	if !ok {
		respondError(w, apperrors.UnknownProduct(r.PathValue("product")))
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "malformed request body"))
		return
	}

	if err := h.svc.SetProductEnabled(r.Context(), teamID, product, req.Enabled); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"team_id": teamID,
		"product": product,
		"enabled": req.Enabled,
	})
}
