package scene

import (
	"maps"
	"time"
)

// Record is one catalog entry. Records are immutable once ingested.
type Record struct {
	ID          ID
	ProductID   string
	Instrument  string // e.g. OLI_TIRS, LANDSAT_ETM_SLC_OFF
	Acquired    time.Time
	Path        int
	Row         int
	CloudCover  *float64 // full scene, percent
	CloudLand   *float64 // land only, percent
	SunElev     *float64 // degrees
	Level       Level
	DownloadURL string
	Extra       map[string]string // unrecognised feed columns
}

// Family returns the family of the record's identifier.
func (r *Record) Family() Family {
	return r.ID.Family()
}

// DateKey returns the acquisition date key encoded in the identifier.
func (r *Record) DateKey() DateKey {
	return r.ID.DateKey()
}

// OutputID is the identifier written to processing lists. The product
// identifier is preferred; older feeds only carry the scene identifier.
func (r *Record) OutputID() string {
	if r.ProductID != "" {
		return r.ProductID
	}
	return r.ID.String()
}

// Equal reports whether two records carry the same payload.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.ID == o.ID &&
		r.ProductID == o.ProductID &&
		r.Instrument == o.Instrument &&
		r.Acquired.Equal(o.Acquired) &&
		r.Path == o.Path &&
		r.Row == o.Row &&
		floatPtrEqual(r.CloudCover, o.CloudCover) &&
		floatPtrEqual(r.CloudLand, o.CloudLand) &&
		floatPtrEqual(r.SunElev, o.SunElev) &&
		r.Level == o.Level &&
		r.DownloadURL == o.DownloadURL &&
		maps.Equal(r.Extra, o.Extra)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Float returns a pointer to v, for populating optional measurements.
func Float(v float64) *float64 {
	return &v
}
