// Package model defines the core data model of the orchestration engine.
package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel carries the fields shared by all persisted entities.
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel returns a BaseModel with a fresh id and timestamps.
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the range.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Hours returns the length of the range in hours.
func (tr TimeRange) Hours() float64 {
	return tr.Duration().Hours()
}

// Overlaps reports whether two half-open ranges intersect.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Intersection returns the overlapping part of two ranges.
// The second return value is false when the ranges do not intersect.
func (tr TimeRange) Intersection(other TimeRange) (TimeRange, bool) {
	if !tr.Overlaps(other) {
		return TimeRange{}, false
	}
	start := tr.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := tr.End
	if other.End.Before(end) {
		end = other.End
	}
	return TimeRange{Start: start, End: end}, true
}

// Contains reports whether t falls inside the range.
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// CivilDate truncates t to midnight in the given zone.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	tl := t.In(loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, loc)
}

// DateKey formats a civil date as YYYY-MM-DD for map keys and wire payloads.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
