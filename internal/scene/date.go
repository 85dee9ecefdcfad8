package scene

import (
	"fmt"
	"time"
)

// DateKey identifies an acquisition date at day granularity.
type DateKey struct {
	Year int
	DOY  int
}

// DateKeyOf converts a calendar date to a DateKey.
func DateKeyOf(t time.Time) DateKey {
	return DateKey{Year: t.Year(), DOY: t.YearDay()}
}

// ParseDateKey decodes the YYYYDDD form used in scene identifiers.
func ParseDateKey(s string) (DateKey, error) {
	if len(s) != 7 {
		return DateKey{}, fmt.Errorf("date key %q: want YYYYDDD", s)
	}
	year, err := digits(s[:4])
	if err != nil {
		return DateKey{}, fmt.Errorf("date key %q: bad year", s)
	}
	doy, err := digits(s[4:])
	if err != nil || doy < 1 || doy > DaysIn(year) {
		return DateKey{}, fmt.Errorf("date key %q: bad day of year", s)
	}
	return DateKey{Year: year, DOY: doy}, nil
}

// String returns the YYYYDDD form.
func (d DateKey) String() string {
	return fmt.Sprintf("%04d%03d", d.Year, d.DOY)
}

// Time returns midnight UTC of the date.
func (d DateKey) Time() time.Time {
	return time.Date(d.Year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d.DOY-1)
}

// Less orders by year, then day of year.
func (d DateKey) Less(o DateKey) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	return d.DOY < o.DOY
}

// DaysIn returns the number of days in year.
func DaysIn(year int) int {
	if time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366 {
		return 366
	}
	return 365
}
