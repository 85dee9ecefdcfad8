// Package scene defines scene identifiers, acquisition dates and catalog
// records shared by every stage of list building.
//
// Scene identifiers follow a fixed grammar:
//
//	SceneID := Prefix [Suffix]
//	Prefix  := Sensor Path Row Year DOY   (16 characters)
//	Sensor  := 'L' Instrument Mission     e.g. LC8, LE7, LT5
//	Path    := 3 digits, 001-251
//	Row     := 3 digits, 001-248
//	Year    := 4 digits
//	DOY     := 3 digits, 001-365 (366 in leap years)
//	Suffix  := Station Version            5 characters, e.g. LGN00
//
// Parse never truncates or realigns its input; anything outside the grammar
// is reported as a *ParseError.
package scene

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// PrefixLen is the length of the path/row/date prefix shared by all
	// reprocessed versions of one acquisition.
	PrefixLen = 16
	// SuffixLen is the length of the optional station/version suffix.
	SuffixLen = 5

	maxPath = 251
	maxRow  = 248
)

// ID is a parsed scene identifier.
type ID struct {
	Sensor string // e.g. "LC8"
	Path   int
	Row    int
	Year   int
	DOY    int
	Suffix string // station + version, may be empty
}

// ParseError reports an identifier that does not follow the grammar.
type ParseError struct {
	Input  string
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid scene id %q: %s: %s", e.Input, e.Field, e.Reason)
}

// Parse decodes a scene identifier.
func Parse(s string) (ID, error) {
	fail := func(field, format string, args ...interface{}) (ID, error) {
		return ID{}, &ParseError{Input: s, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	switch len(s) {
	case PrefixLen, PrefixLen + SuffixLen:
	default:
		return fail("length", "want %d or %d characters, got %d", PrefixLen, PrefixLen+SuffixLen, len(s))
	}

	sensor := s[0:3]
	if err := validateSensor(sensor); err != "" {
		return fail("sensor", "%s", err)
	}

	path, err := digits(s[3:6])
	if err != nil || path < 1 || path > maxPath {
		return fail("path", "%q is not in 001-%03d", s[3:6], maxPath)
	}
	row, err := digits(s[6:9])
	if err != nil || row < 1 || row > maxRow {
		return fail("row", "%q is not in 001-%03d", s[6:9], maxRow)
	}
	year, err := digits(s[9:13])
	if err != nil {
		return fail("year", "%q is not a 4 digit year", s[9:13])
	}
	doy, err := digits(s[13:16])
	if err != nil || doy < 1 || doy > DaysIn(year) {
		return fail("doy", "%q is not a day of %d", s[13:16], year)
	}

	suffix := s[PrefixLen:]
	for _, c := range suffix {
		if !isUpperAlnum(c) {
			return fail("suffix", "%q contains %q", suffix, c)
		}
	}

	return ID{Sensor: sensor, Path: path, Row: row, Year: year, DOY: doy, Suffix: suffix}, nil
}

// MustParse is Parse for identifiers known to be valid, such as test fixtures.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func validateSensor(sensor string) string {
	if sensor[0] != 'L' {
		return fmt.Sprintf("%q must start with L", sensor)
	}
	if !strings.ContainsRune("COTEM", rune(sensor[1])) {
		return fmt.Sprintf("%q has unknown instrument code %q", sensor, sensor[1])
	}
	if sensor[2] < '1' || sensor[2] > '9' {
		return fmt.Sprintf("%q has no mission number", sensor)
	}
	return ""
}

func digits(s string) (int, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit %q", c)
		}
	}
	return strconv.Atoi(s)
}

func isUpperAlnum(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// String composes the canonical identifier.
func (id ID) String() string {
	return id.Prefix() + id.Suffix
}

// Prefix returns the 16 character sensor/path/row/date prefix.
func (id ID) Prefix() string {
	return fmt.Sprintf("%s%03d%03d%04d%03d", id.Sensor, id.Path, id.Row, id.Year, id.DOY)
}

// WithRow returns the prefix of the same acquisition on another row.
func (id ID) WithRow(row int) string {
	return fmt.Sprintf("%s%03d%03d%04d%03d", id.Sensor, id.Path, row, id.Year, id.DOY)
}

// Mission returns the mission number encoded in the sensor code.
func (id ID) Mission() int {
	if len(id.Sensor) != 3 {
		return 0
	}
	return int(id.Sensor[2] - '0')
}

// Family returns the processing family the scene belongs to.
func (id ID) Family() Family {
	return FamilyForMission(id.Mission())
}

// DateKey returns the acquisition date of the scene.
func (id ID) DateKey() DateKey {
	return DateKey{Year: id.Year, DOY: id.DOY}
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.Sensor == ""
}
