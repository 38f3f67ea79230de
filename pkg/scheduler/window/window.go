// Package window generates the canonical shift windows per product.
// Generation is deterministic and pure: the same horizon always yields the
// same windows, independent of any employee.
package window

import (
	"time"

	"github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// ZoneName is the canonical zone of all civil dates and shift boundaries.
const ZoneName = "Europe/Amsterdam"

const (
	businessStartHour = 8  // 08:00 local
	businessEndHour   = 17 // 17:00 local
	eveningStartHour  = 17 // weeknight waakdienst block start
	morningEndHour    = 8  // weeknight waakdienst block end (next day)
)

// Zone loads the canonical zone. The host zone is never used implicitly.
func Zone() (*time.Location, error) {
	return time.LoadLocation(ZoneName)
}

// Window is one canonical shift window of a product.
type Window struct {
	Product model.Product `json:"product"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`

	// UnitKey is the canonical anchor date of the planning unit the window
	// belongs to: the ISO Monday for business weeks, the Wednesday for
	// waakdienst weeks. Partial weeks keep their canonical key so a unit
	// keeps a single intended assignee.
	UnitKey time.Time `json:"unit_key"`
}

// Range returns the window interval.
func (w Window) Range() model.TimeRange {
	return model.TimeRange{Start: w.Start, End: w.End}
}

// Duration returns the window length as produced by the zone. DST transition
// nights are shorter or longer than the canonical pattern; the duration is
// reported, never hardcoded.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Hours returns the window length in hours.
func (w Window) Hours() float64 {
	return w.Duration().Hours()
}

// Unit is one planning unit: the atomic assignment granularity of a product.
// A business week holds up to 5 day windows, a waakdienst week 7 blocks.
type Unit struct {
	Product model.Product `json:"product"`
	Key     time.Time     `json:"key"`
	Windows []Window      `json:"windows"`
}

// TotalHours sums the window durations of the unit.
func (u *Unit) TotalHours() float64 {
	var h float64
	for _, w := range u.Windows {
		h += w.Hours()
	}
	return h
}

// Generator produces canonical windows in a fixed zone.
type Generator struct {
	loc *time.Location
}

// NewGenerator creates a generator for the given zone.
func NewGenerator(loc *time.Location) *Generator {
	return &Generator{loc: loc}
}

// Location returns the generator's zone.
func (g *Generator) Location() *time.Location {
	return g.loc
}

// Generate produces the planning units of a product over a civil-date
// horizon [start, end], both inclusive. Holidays suppress business-hours
// windows unless scheduleOnHolidays is set; waakdienst continues on holidays.
func (g *Generator) Generate(p model.Product, horizonStart, horizonEnd time.Time, holidays map[string]bool, scheduleOnHolidays bool) ([]Unit, error) {
	start := model.CivilDate(horizonStart, g.loc)
	end := model.CivilDate(horizonEnd, g.loc)
	if end.Before(start) {
		return nil, errors.InvalidHorizon(model.DateKey(start), model.DateKey(end))
	}

	switch {
	case p.BusinessHours():
		return g.businessUnits(p, start, end, holidays, scheduleOnHolidays), nil
	case p == model.ProductWaakdienst:
		return g.waakdienstUnits(start, end), nil
	default:
		return nil, errors.UnknownProduct(string(p))
	}
}

// businessUnits emits one unit per business week (Mon-Fri), five daily
// windows 08:00-17:00 local, holidays omitted.
func (g *Generator) businessUnits(p model.Product, start, end time.Time, holidays map[string]bool, scheduleOnHolidays bool) []Unit {
	var units []Unit
	var current *Unit

	// Horizon bound is exclusive of the day after end.
	bound := end.AddDate(0, 0, 1)

	for day := start; day.Before(bound); day = day.AddDate(0, 0, 1) {
		wd := day.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if holidays[model.DateKey(day)] && !scheduleOnHolidays {
			continue
		}

		key := isoMonday(day)
		if current == nil || !current.Key.Equal(key) {
			units = append(units, Unit{Product: p, Key: key})
			current = &units[len(units)-1]
		}
		current.Windows = append(current.Windows, Window{
			Product: p,
			Start:   g.at(day, businessStartHour),
			End:     g.at(day, businessEndHour),
			UnitKey: key,
		})
	}

	return compactUnits(units)
}

// waakdienstUnits emits one unit per on-call week, anchored on its canonical
// Wednesday. A complete week holds seven blocks: Wed, Thu and Fri evening
// 17:00 to next-day 08:00, Saturday and Sunday full blocks 08:00 to 08:00,
// then Monday and Tuesday evening. Outside DST weeks the durations are
// exactly [15, 15, 15, 24, 24, 15, 15] hours.
func (g *Generator) waakdienstUnits(start, end time.Time) []Unit {
	var units []Unit

	bound := end.AddDate(0, 0, 1)

	// Start one week early so a unit whose tail intersects the horizon is
	// still considered.
	for wed := anchorWednesday(start).AddDate(0, 0, -7); wed.Before(bound); wed = wed.AddDate(0, 0, 7) {
		unit := Unit{Product: model.ProductWaakdienst, Key: wed}
		for _, b := range waakdienstBlocks(wed) {
			w := Window{
				Product: model.ProductWaakdienst,
				Start:   g.at(wed.AddDate(0, 0, b.startDay), b.startHour),
				End:     g.at(wed.AddDate(0, 0, b.endDay), b.endHour),
				UnitKey: wed,
			}
			// Partial horizons keep only the windows starting inside.
			if w.Start.Before(g.at(start, 0)) || !w.Start.Before(g.at(bound, 0)) {
				continue
			}
			unit.Windows = append(unit.Windows, w)
		}
		if len(unit.Windows) > 0 {
			units = append(units, unit)
		}
	}

	return units
}

// block positions a waakdienst window relative to the anchor Wednesday.
type block struct {
	startDay, startHour int
	endDay, endHour     int
}

func waakdienstBlocks(wed time.Time) []block {
	return []block{
		{0, eveningStartHour, 1, morningEndHour}, // Wed evening
		{1, eveningStartHour, 2, morningEndHour}, // Thu evening
		{2, eveningStartHour, 3, morningEndHour}, // Fri evening
		{3, morningEndHour, 4, morningEndHour},   // Saturday
		{4, morningEndHour, 5, morningEndHour},   // Sunday
		{5, eveningStartHour, 6, morningEndHour}, // Mon evening
		{6, eveningStartHour, 7, morningEndHour}, // Tue evening
	}
}

// at places a local wall-clock hour on a civil date.
func (g *Generator) at(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, g.loc)
}

// isoMonday returns the Monday of the ISO week containing the civil date.
func isoMonday(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// anchorWednesday returns the Wednesday on or before the civil date.
func anchorWednesday(date time.Time) time.Time {
	offset := (int(date.Weekday()) - int(time.Wednesday) + 7) % 7
	return date.AddDate(0, 0, -offset)
}

// compactUnits drops empty units left by all-holiday weeks.
func compactUnits(units []Unit) []Unit {
	out := units[:0]
	for _, u := range units {
		if len(u.Windows) > 0 {
			out = append(out, u)
		}
	}
	return out
}

// UnitKeyFor returns the canonical unit key of the window starting at
// start: the ISO Monday for business products, the anchor Wednesday for
// waakdienst. Applied rows mapped through this key land on the same unit
// the generator would emit for them.
func UnitKeyFor(p model.Product, start time.Time, loc *time.Location) time.Time {
	day := model.CivilDate(start.In(loc), loc)
	if p == model.ProductWaakdienst {
		return anchorWednesday(day)
	}
	return isoMonday(day)
}

// NextPlanDate returns the first civil date none of whose windows have
// started by t. Every window starts at 08:00 local or later, so applied
// coverage ending later in the day means that day is fully planned and
// generation resumes on the next date; a waakdienst handover ending at
// 08:00 sharp keeps the same date.
func NextPlanDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	day := model.CivilDate(local, loc)
	if local.After(time.Date(day.Year(), day.Month(), day.Day(), businessStartHour, 0, 0, 0, loc)) {
		return day.AddDate(0, 0, 1)
	}
	return day
}

// HandoverCorridor returns the Wednesday 08:00-17:00 interval of the civil
// date if the date is a Wednesday. During the corridor an Incidents shift may
// overlap the outgoing or incoming Waakdienst without conflict.
func HandoverCorridor(date time.Time, loc *time.Location) (model.TimeRange, bool) {
	d := model.CivilDate(date, loc)
	if d.Weekday() != time.Wednesday {
		return model.TimeRange{}, false
	}
	return model.TimeRange{
		Start: time.Date(d.Year(), d.Month(), d.Day(), businessStartHour, 0, 0, 0, loc),
		End:   time.Date(d.Year(), d.Month(), d.Day(), businessEndHour, 0, 0, 0, loc),
	}, true
}

// InHandoverCorridor reports whether the whole interval lies inside a
// Wednesday handover corridor.
func InHandoverCorridor(r model.TimeRange, loc *time.Location) bool {
	corridor, ok := HandoverCorridor(r.Start, loc)
	if !ok {
		return false
	}
	return !r.Start.Before(corridor.Start) && !r.End.After(corridor.End)
}
