package selection

import (
	"fmt"
	"strings"
	"time"

	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

// Criteria are the user's selection constraints. Zero values impose no
// constraint.
type Criteria struct {
	MaxCloud        *float64 // percent ceiling
	UseLandCloud    bool     // compare land-only rather than full-scene cover
	MinSunElevation *float64 // degrees
	Levels          []scene.Level
	Families        []scene.Family
	Mission         int    // e.g. 7 or 8
	Instrument      string // e.g. OLI_TIRS, LANDSAT_ETM_SLC_OFF
	Path            int
	Row             int
	StartYear       int
	EndYear         int
	StartDOY        int
	EndDOY          int // may be below StartDOY to span the new year
	AcquiredFrom    time.Time
	AcquiredTo      time.Time
	IgnoreLocal     bool // select scenes even if they are held locally
}

// Validate checks the criteria and normalises reversed year ranges.
func (c *Criteria) Validate() error {
	if (c.StartDOY == 0) != (c.EndDOY == 0) {
		return util.NewConfigError("doy", "start and end day of year must be given together")
	}
	if c.StartDOY < 0 || c.StartDOY > 366 {
		return util.NewConfigError("startdoy", "%d is not in 1-366", c.StartDOY)
	}
	if c.EndDOY < 0 || c.EndDOY > 366 {
		return util.NewConfigError("enddoy", "%d is not in 1-366", c.EndDOY)
	}
	if c.Row != 0 && c.Path == 0 {
		return util.NewConfigError("row", "a row requires a path")
	}
	if c.Path < 0 || c.Row < 0 {
		return util.NewConfigError("path", "path and row must be positive")
	}
	if c.MaxCloud != nil && (*c.MaxCloud < 0 || *c.MaxCloud > 100) {
		return util.NewConfigError("maxcc", "%v is not a percentage", *c.MaxCloud)
	}
	if c.Mission < 0 || c.Mission > 9 {
		return util.NewConfigError("landsat", "unknown mission %d", c.Mission)
	}
	if c.StartYear != 0 && c.EndYear != 0 && c.StartYear > c.EndYear {
		c.StartYear, c.EndYear = c.EndYear, c.StartYear
	}
	if !c.AcquiredFrom.IsZero() && !c.AcquiredTo.IsZero() && c.AcquiredTo.Before(c.AcquiredFrom) {
		return util.NewConfigError("enddate", "%s is before the start date %s",
			c.AcquiredTo.Format("2006/01/02"), c.AcquiredFrom.Format("2006/01/02"))
	}
	return nil
}

// WrapsYear reports whether the day-of-year range spans the new year.
func (c *Criteria) WrapsYear() bool {
	return c.StartDOY != 0 && c.EndDOY < c.StartDOY
}

// doyAllowed applies the day-of-year range. A wrapping range accepts
// [start, 366] and [1, end]. Combined with a year range, only the first
// year's lower bound and the last year's upper bound apply; the years in
// between accept every day.
func (c *Criteria) doyAllowed(year, doy int) bool {
	if c.StartDOY == 0 {
		return true
	}
	if !c.WrapsYear() {
		return doy >= c.StartDOY && doy <= c.EndDOY
	}
	if c.StartYear == 0 && c.EndYear == 0 {
		return doy >= c.StartDOY || doy <= c.EndDOY
	}
	if c.StartYear != 0 && year == c.StartYear && doy < c.StartDOY {
		return false
	}
	if c.EndYear != 0 && year == c.EndYear && doy > c.EndDOY {
		return false
	}
	return true
}

// LevelsFor maps a processing level switch to the accepted levels: L1TP
// alone, L1TP and L1GT, or everything (L1GS / ALL).
func LevelsFor(mode string) ([]scene.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(mode)) {
	case "", "L1TP", "L1T":
		return []scene.Level{scene.LevelL1TP}, nil
	case "L1GT":
		return []scene.Level{scene.LevelL1TP, scene.LevelL1GT}, nil
	case "L1GS", "ALL":
		return []scene.Level{scene.LevelL1TP, scene.LevelL1GT, scene.LevelL1GS}, nil
	}
	return nil, util.NewConfigError("levels", "unknown processing level switch %q", mode)
}

// ParseInstrument normalises a sensor name given on the command line to the
// value carried by the feed.
func ParseInstrument(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "":
		return "", nil
	case "TM", "ETM", "ETM_SLC_OFF":
		return "LANDSAT_" + s, nil
	case "OLI", "TIRS", "OLI_TIRS":
		return s, nil
	}
	return "", util.NewConfigError("sensor", "%q is not one of TM, ETM, ETM_SLC_OFF, OLI, OLI_TIRS, TIRS", s)
}

func (c *Criteria) String() string {
	var parts []string
	if c.MaxCloud != nil {
		kind := "full"
		if c.UseLandCloud {
			kind = "land"
		}
		parts = append(parts, fmt.Sprintf("cloud(%s)<=%g%%", kind, *c.MaxCloud))
	}
	if c.MinSunElevation != nil {
		parts = append(parts, fmt.Sprintf("sunel>=%g", *c.MinSunElevation))
	}
	if len(c.Levels) > 0 {
		parts = append(parts, fmt.Sprintf("levels=%v", c.Levels))
	}
	if c.Path != 0 {
		parts = append(parts, fmt.Sprintf("path=%d", c.Path))
	}
	if c.Row != 0 {
		parts = append(parts, fmt.Sprintf("row=%d", c.Row))
	}
	if c.StartYear != 0 || c.EndYear != 0 {
		parts = append(parts, fmt.Sprintf("years=%d-%d", c.StartYear, c.EndYear))
	}
	if c.StartDOY != 0 {
		parts = append(parts, fmt.Sprintf("doy=%d-%d", c.StartDOY, c.EndDOY))
	}
	if len(parts) == 0 {
		return "no criteria"
	}
	return strings.Join(parts, " ")
}
