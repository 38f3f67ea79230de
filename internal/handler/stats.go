package handler

import (
	"net/http"
	"time"

	"github.com/roosterd/roosterd/internal/orchestrator"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// StatsHandler serves the read-side coverage and availability endpoints.
type StatsHandler struct {
	svc *orchestrator.Service
	loc *time.Location
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(svc *orchestrator.Service, loc *time.Location) *StatsHandler {
	return &StatsHandler{svc: svc, loc: loc}
}

// defaultStatsDays is the horizon used when the query gives no range.
const defaultStatsDays = 28

// Coverage handles GET /api/v1/teams/{id}/coverage?from=&to=&product=.
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	teamID, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	today := model.CivilDate(time.Now(), h.loc)
	from, appErr := queryDate(r, "from", h.loc, today)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	to, appErr := queryDate(r, "to", h.loc, from.AddDate(0, 0, defaultStatsDays))
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if to.Before(from) {
		respondError(w, apperrors.InvalidHorizon(model.DateKey(from), model.DateKey(to)))
		return
	}
	product, appErr := queryProduct(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	// The range is inclusive of the final civil date.
	metrics, err := h.svc.Coverage(r.Context(), teamID, from, to.AddDate(0, 0, 1), product)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// Availability handles GET /api/v1/teams/{id}/availability?from=&to=&product=.
func (h *StatsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	teamID, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	today := model.CivilDate(time.Now(), h.loc)
	from, appErr := queryDate(r, "from", h.loc, today)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	to, appErr := queryDate(r, "to", h.loc, from.AddDate(0, 0, defaultStatsDays))
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if to.Before(from) {
		respondError(w, apperrors.InvalidHorizon(model.DateKey(from), model.DateKey(to)))
		return
	}

	product, appErr := queryProduct(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	reports, err := h.svc.Availability(r.Context(), teamID, from, to, product)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := map[string]interface{}{
		"from":      model.DateKey(from),
		"to":        model.DateKey(to),
		"employees": reports,
	}
	if product != "" {
		resp["product"] = product
	}
	respondJSON(w, http.StatusOK, resp)
}
