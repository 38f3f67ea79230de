package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diffShift(p model.Product, start time.Time, empID *uuid.UUID) *model.Shift {
	return &model.Shift{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Product:    p,
		EmployeeID: empID,
		Start:      start,
		End:        start.Add(9 * time.Hour),
		Status:     model.ShiftApplied,
	}
}

func TestComputeDiff_IdenticalPlanIsNoop(t *testing.T) {
	emp := uuid.New()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	existing := []*model.Shift{
		diffShift(model.ProductIncidents, start, &emp),
		diffShift(model.ProductIncidents, start.AddDate(0, 0, 1), &emp),
	}
	planned := []*model.Shift{
		diffShift(model.ProductIncidents, start, &emp),
		diffShift(model.ProductIncidents, start.AddDate(0, 0, 1), &emp),
	}

	diff := ComputeDiff(existing, planned)
	assert.Empty(t, diff.Inserts)
	assert.Empty(t, diff.SupersedeIDs)
	assert.Equal(t, 2, diff.Kept)
}

func TestComputeDiff_ChangedAssigneeSupersedes(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	existing := []*model.Shift{diffShift(model.ProductIncidents, start, &a)}
	planned := []*model.Shift{diffShift(model.ProductIncidents, start, &b)}

	diff := ComputeDiff(existing, planned)
	require.Len(t, diff.Inserts, 1)
	require.Len(t, diff.SupersedeIDs, 1)
	assert.Equal(t, existing[0].ID, diff.SupersedeIDs[0])
	assert.Equal(t, b, *diff.Inserts[0].EmployeeID)
}

func TestComputeDiff_NewWindowInserts(t *testing.T) {
	emp := uuid.New()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	planned := []*model.Shift{diffShift(model.ProductIncidents, start, &emp)}

	diff := ComputeDiff(nil, planned)
	assert.Len(t, diff.Inserts, 1)
	assert.Empty(t, diff.SupersedeIDs)
}

func TestComputeDiff_StaleRowSuperseded(t *testing.T) {
	emp := uuid.New()
	start := time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC)

	// A holiday added after the prior apply removes the wednesday window.
	existing := []*model.Shift{diffShift(model.ProductIncidents, start, &emp)}

	diff := ComputeDiff(existing, nil)
	require.Len(t, diff.SupersedeIDs, 1)
	assert.Equal(t, existing[0].ID, diff.SupersedeIDs[0])
}

func TestComputeDiff_PlaceholderMatchesPlaceholder(t *testing.T) {
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	existing := []*model.Shift{diffShift(model.ProductIncidents, start, nil)}
	planned := []*model.Shift{diffShift(model.ProductIncidents, start, nil)}

	diff := ComputeDiff(existing, planned)
	assert.Equal(t, 1, diff.Kept)
	assert.Empty(t, diff.Inserts)
	assert.Empty(t, diff.SupersedeIDs)
}

func TestComputeDiff_GapFilledSupersedes(t *testing.T) {
	emp := uuid.New()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	existing := []*model.Shift{diffShift(model.ProductIncidents, start, nil)}
	planned := []*model.Shift{diffShift(model.ProductIncidents, start, &emp)}

	diff := ComputeDiff(existing, planned)
	require.Len(t, diff.Inserts, 1)
	assert.Len(t, diff.SupersedeIDs, 1)
}

func TestComputeDiff_ProductsDoNotCollide(t *testing.T) {
	emp := uuid.New()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	// Incidents and standby share the same start; the key includes the
	// product so they never supersede each other.
	existing := []*model.Shift{diffShift(model.ProductIncidents, start, &emp)}
	planned := []*model.Shift{
		diffShift(model.ProductIncidents, start, &emp),
		diffShift(model.ProductIncidentsStandby, start, &emp),
	}

	diff := ComputeDiff(existing, planned)
	assert.Equal(t, 1, diff.Kept)
	assert.Len(t, diff.Inserts, 1)
	assert.Empty(t, diff.SupersedeIDs)
}
