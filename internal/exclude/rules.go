// Package exclude holds the denylist of known-bad acquisition windows.
//
// A single Rules value is built per run and shared by selection, neighbor
// completion and missing-scene recovery, so all three apply the same policy.
package exclude

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

// TableVersion identifies the compiled-in table.
const TableVersion = "2017.1"

// Entry marks one family/date pair as excluded.
type Entry struct {
	Family scene.Family
	Date   scene.DateKey
}

// Rules answers exclusion queries. It is read-only after construction.
type Rules struct {
	version    string
	dates      map[Entry]struct{}
	instrument map[scene.Family]string
}

// Window is an inclusive range of excluded days for one family.
type Window struct {
	Family scene.Family
	Start  scene.DateKey
	End    scene.DateKey
	Note   string
}

var defaultWindows = []Window{
	{scene.FamilyL8, scene.DateKey{Year: 2015, DOY: 30}, scene.DateKey{Year: 2015, DOY: 50}, "OLI/TIRS safehold"},
	{scene.FamilyL8, scene.DateKey{Year: 2016, DOY: 50}, scene.DateKey{Year: 2016, DOY: 58}, "TIRS anomaly"},
	{scene.FamilyL47, scene.DateKey{Year: 2016, DOY: 151}, scene.DateKey{Year: 2016, DOY: 165}, "ETM+ safehold"},
	{scene.FamilyL47, scene.DateKey{Year: 2017, DOY: 74}, scene.DateKey{Year: 2017, DOY: 76}, "ETM+ anomaly"},
}

// Default returns the compiled-in table. L8 family acquisitions must also
// carry both OLI and TIRS data.
func Default() *Rules {
	r, err := New(TableVersion, defaultWindows)
	if err != nil {
		panic(err)
	}
	r.instrument[scene.FamilyL8] = "OLI_TIRS"
	return r
}

// New builds rules from windows.
func New(version string, windows []Window) (*Rules, error) {
	r := &Rules{
		version:    version,
		dates:      make(map[Entry]struct{}),
		instrument: make(map[scene.Family]string),
	}
	for _, w := range windows {
		if err := r.addWindow(w); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Rules) addWindow(w Window) error {
	if w.Family == scene.FamilyUnknown {
		return util.NewConfigError("exclusions", "window %v-%v has no family", w.Start, w.End)
	}
	if w.End.Less(w.Start) {
		return util.NewConfigError("exclusions", "window %v-%v ends before it starts", w.Start, w.End)
	}
	for d := w.Start.Time(); !w.End.Time().Before(d); d = d.AddDate(0, 0, 1) {
		r.dates[Entry{Family: w.Family, Date: scene.DateKeyOf(d)}] = struct{}{}
	}
	return nil
}

// Version returns the table version.
func (r *Rules) Version() string {
	return r.version
}

// Len returns the number of excluded family/date pairs.
func (r *Rules) Len() int {
	return len(r.dates)
}

// IsExcluded reports whether acquisitions of family on date are excluded.
func (r *Rules) IsExcluded(family scene.Family, date scene.DateKey) bool {
	if r == nil {
		return false
	}
	_, ok := r.dates[Entry{Family: family, Date: date}]
	return ok
}

// ExcludesRecord applies the date denylist and the per-family instrument
// requirement to a catalog record.
func (r *Rules) ExcludesRecord(rec *scene.Record) bool {
	if r == nil {
		return false
	}
	family := rec.Family()
	if r.IsExcluded(family, rec.ID.DateKey()) {
		return true
	}
	if want, ok := r.instrument[family]; ok && rec.Instrument != "" && rec.Instrument != want {
		return true
	}
	return false
}

// Entries returns all excluded pairs ordered by family then date.
func (r *Rules) Entries() []Entry {
	out := make([]Entry, 0, len(r.dates))
	for e := range r.dates {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		return out[i].Date.Less(out[j].Date)
	})
	return out
}

type tomlTable struct {
	Version    string            `toml:"version"`
	Replace    bool              `toml:"replace"`
	Instrument map[string]string `toml:"instrument"`
	Windows    []struct {
		Family string `toml:"family"`
		Start  string `toml:"start"`
		End    string `toml:"end"`
		Note   string `toml:"note"`
	} `toml:"window"`
}

// LoadTOML extends the compiled-in table with windows from a file. With
// replace = true the file's windows stand alone.
//
//	version = "2024.1"
//	[[window]]
//	family = "L8"
//	start = "2015030"
//	end = "2015050"
func LoadTOML(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exclusion table load failed (%s): %w", path, err)
	}
	return DecodeTOML(data)
}

// DecodeTOML is LoadTOML over an in-memory document.
func DecodeTOML(data []byte) (*Rules, error) {
	var t tomlTable
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, util.NewConfigError("exclusions", "parse failed: %v", err)
	}

	r := Default()
	if t.Replace {
		r = &Rules{dates: make(map[Entry]struct{}), instrument: make(map[scene.Family]string)}
	}
	if t.Version != "" {
		r.version = t.Version
	}

	for name, instrument := range t.Instrument {
		family, err := scene.ParseFamily(name)
		if err != nil {
			return nil, util.NewConfigError("exclusions", "%v", err)
		}
		r.instrument[family] = instrument
	}

	for i, w := range t.Windows {
		family, err := scene.ParseFamily(w.Family)
		if err != nil {
			return nil, util.NewConfigError("exclusions", "window %d: %v", i+1, err)
		}
		start, err := scene.ParseDateKey(w.Start)
		if err != nil {
			return nil, util.NewConfigError("exclusions", "window %d: %v", i+1, err)
		}
		end := start
		if w.End != "" {
			if end, err = scene.ParseDateKey(w.End); err != nil {
				return nil, util.NewConfigError("exclusions", "window %d: %v", i+1, err)
			}
		}
		if err := r.addWindow(Window{Family: family, Start: start, End: end, Note: w.Note}); err != nil {
			return nil, err
		}
	}
	return r, nil
}
