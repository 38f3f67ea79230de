package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/internal/orchestrator"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// RunHandler serves the orchestration run endpoints.
type RunHandler struct {
	svc *orchestrator.Service
	loc *time.Location
}

// NewRunHandler creates a run handler.
func NewRunHandler(svc *orchestrator.Service, loc *time.Location) *RunHandler {
	return &RunHandler{svc: svc, loc: loc}
}

// CreateRunRequest is the wire form of a run request. Dates are civil
// YYYY-MM-DD dates, both inclusive.
type CreateRunRequest struct {
	TeamID       string   `json:"team_id"`
	HorizonStart string   `json:"horizon_start"`
	HorizonEnd   string   `json:"horizon_end"`
	Mode         string   `json:"mode,omitempty"`     // preview/apply, default preview
	Products     []string `json:"products,omitempty"` // default: all enabled
}

// Create handles POST /api/v1/orchestrator/runs.
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "malformed request body"))
		return
	}

	input, err := h.parseInput(&req)
	if err != nil {
		respondError(w, err)
		return
	}

	result, runErr := h.svc.CreateRun(r.Context(), *input)
	if runErr != nil {
		respondError(w, runErr)
		return
	}

	status := http.StatusOK
	if input.Mode == model.ModeApply {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

func (h *RunHandler) parseInput(req *CreateRunRequest) (*orchestrator.CreateRunInput, *apperrors.AppError) {
	teamID, err := parseUUIDField(req.TeamID, "team_id")
	if err != nil {
		return nil, err
	}

	start, perr := time.ParseInLocation(dateFormat, req.HorizonStart, h.loc)
	if perr != nil {
		return nil, apperrors.Wrap(perr, apperrors.CodeInvalidInput, "horizon_start must be a YYYY-MM-DD date")
	}
	end, perr := time.ParseInLocation(dateFormat, req.HorizonEnd, h.loc)
	if perr != nil {
		return nil, apperrors.Wrap(perr, apperrors.CodeInvalidInput, "horizon_end must be a YYYY-MM-DD date")
	}

	mode := model.ModePreview
	switch req.Mode {
	case "", string(model.ModePreview):
	case string(model.ModeApply):
		mode = model.ModeApply
	default:
		return nil, apperrors.New(apperrors.CodeInvalidInput, "mode must be preview or apply")
	}

	var products []model.Product
	for _, raw := range req.Products {
		p, ok := model.ParseProduct(raw)
		if !ok {
			return nil, apperrors.UnknownProduct(raw)
		}
		products = append(products, p)
	}

	return &orchestrator.CreateRunInput{
		TeamID:       teamID,
		HorizonStart: start,
		HorizonEnd:   end,
		Mode:         mode,
		Products:     products,
	}, nil
}

// Get handles GET /api/v1/orchestrator/runs/{id}.
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	detail, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// ListByTeam handles GET /api/v1/teams/{id}/runs.
func (h *RunHandler) ListByTeam(w http.ResponseWriter, r *http.Request) {
	teamID, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	runs, err := h.svc.ListRuns(r.Context(), teamID, 0)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func parseUUIDField(raw, name string) (uuid.UUID, *apperrors.AppError) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "invalid "+name)
	}
	return id, nil
}
