// Package selection decides which catalog scenes satisfy the user's
// criteria.
package selection

import (
	"slices"

	"github.com/franz/scenelist/internal/exclude"
	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/scene"
)

// Reason names the first criterion a record failed.
type Reason string

const (
	Accepted         Reason = ""
	ReasonExcluded   Reason = "excluded acquisition"
	ReasonHeld       Reason = "locally held"
	ReasonCloud      Reason = "cloud cover"
	ReasonSunElev    Reason = "sun elevation"
	ReasonLevel      Reason = "processing level"
	ReasonFamily     Reason = "sensor family"
	ReasonMission    Reason = "mission"
	ReasonInstrument Reason = "sensor"
	ReasonPath       Reason = "path"
	ReasonRow        Reason = "row"
	ReasonYear       Reason = "year"
	ReasonDOY        Reason = "day of year"
	ReasonDate       Reason = "acquisition date"
)

// Filter applies Criteria together with the run's shared exclusion and
// holdings policy.
type Filter struct {
	criteria   Criteria
	exclusions *exclude.Rules
	holdings   *holdings.Index
}

// New validates criteria and builds a filter. Either policy may be nil.
func New(criteria Criteria, exclusions *exclude.Rules, held *holdings.Index) (*Filter, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	return &Filter{criteria: criteria, exclusions: exclusions, holdings: held}, nil
}

// Criteria returns the validated criteria.
func (f *Filter) Criteria() Criteria {
	return f.criteria
}

// Accepts reports whether rec passes every active criterion.
func (f *Filter) Accepts(rec *scene.Record) bool {
	return f.Check(rec) == Accepted
}

// Check returns the first criterion rec fails, or Accepted.
func (f *Filter) Check(rec *scene.Record) Reason {
	c := &f.criteria
	id := rec.ID

	if f.exclusions.ExcludesRecord(rec) {
		return ReasonExcluded
	}
	if !c.IgnoreLocal && f.holdings.Covers(id.String()) {
		return ReasonHeld
	}

	if c.MaxCloud != nil {
		cc := rec.CloudCover
		if c.UseLandCloud {
			cc = rec.CloudLand
		}
		if cc == nil || *cc > *c.MaxCloud {
			return ReasonCloud
		}
	}
	if c.MinSunElevation != nil && (rec.SunElev == nil || *rec.SunElev < *c.MinSunElevation) {
		return ReasonSunElev
	}
	if len(c.Levels) > 0 && !slices.Contains(c.Levels, rec.Level) {
		return ReasonLevel
	}
	if len(c.Families) > 0 && !slices.Contains(c.Families, rec.Family()) {
		return ReasonFamily
	}
	if c.Mission != 0 && id.Mission() != c.Mission {
		return ReasonMission
	}
	if c.Instrument != "" && rec.Instrument != c.Instrument {
		return ReasonInstrument
	}
	if c.Path != 0 && rec.Path != c.Path {
		return ReasonPath
	}
	if c.Row != 0 && rec.Row != c.Row {
		return ReasonRow
	}

	if (c.StartYear != 0 && id.Year < c.StartYear) || (c.EndYear != 0 && id.Year > c.EndYear) {
		return ReasonYear
	}
	if !c.doyAllowed(id.Year, id.DOY) {
		return ReasonDOY
	}

	acquired := rec.Acquired
	if acquired.IsZero() {
		acquired = id.DateKey().Time()
	}
	if (!c.AcquiredFrom.IsZero() && acquired.Before(c.AcquiredFrom)) ||
		(!c.AcquiredTo.IsZero() && acquired.After(c.AcquiredTo)) {
		return ReasonDate
	}

	return Accepted
}
