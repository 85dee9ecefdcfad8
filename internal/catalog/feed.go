package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

// MalformedRecordError describes a feed row that was skipped.
type MalformedRecordError struct {
	Line int
	ID   string
	Err  error
}

func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.ID, e.Err)
}

func (e *MalformedRecordError) Unwrap() []error {
	return []error{util.ErrMalformed, e.Err}
}

type field int

const (
	fieldNone field = iota
	fieldID
	fieldProduct
	fieldInstrument
	fieldDate
	fieldPath
	fieldRow
	fieldCloud
	fieldCloudLand
	fieldSunElev
	fieldLevel
	fieldURL
)

// columnAliases maps lower-cased feed headers to record fields. Headers
// not listed here end up in Record.Extra.
var columnAliases = map[string]field{
	"sceneid":            fieldID,
	"scene_id":           fieldID,
	"entityid":           fieldID,
	"landsatpid":         fieldProduct,
	"productid":          fieldProduct,
	"product_id":         fieldProduct,
	"landsat_product_id": fieldProduct,
	"sensorid":           fieldInstrument,
	"sensor":             fieldInstrument,
	"acqdate":            fieldDate,
	"date":               fieldDate,
	"acquisitiondate":    fieldDate,
	"path":               fieldPath,
	"row":                fieldRow,
	"ccfull":             fieldCloud,
	"cc":                 fieldCloud,
	"cloudcoverfull":     fieldCloud,
	"ccland":             fieldCloudLand,
	"cloudcoverland":     fieldCloudLand,
	"sunel":              fieldSunElev,
	"sunelevation":       fieldSunElev,
	"dt_l1":              fieldLevel,
	"proclevel":          fieldLevel,
	"level":              fieldLevel,
	"download_url":       fieldURL,
	"carturl":            fieldURL,
	"downloadurl":        fieldURL,
}

var dateLayouts = []string{"2006/01/02", "2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00"}

// ReadCSV decodes a scene-metadata feed with a header row. Rows that cannot
// be decoded are skipped and returned as *MalformedRecordError; an error in
// the header or the CSV framing itself aborts the read.
func ReadCSV(r io.Reader) ([]*scene.Record, []error, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, util.NewConfigError("scene feed", "cannot read header: %v", err)
	}
	cols := make([]field, len(header))
	names := make([]string, len(header))
	hasID := false
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
		cols[i] = columnAliases[strings.ToLower(names[i])]
		hasID = hasID || cols[i] == fieldID
	}
	if !hasID {
		return nil, nil, util.NewConfigError("scene feed", "no scene id column in header %v", header)
	}

	var records []*scene.Record
	var skipped []error
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, skipped, fmt.Errorf("scene feed: %w", err)
			}
			util.WarnLog("Skipping feed record: line %d: %v", line, err)
			skipped = append(skipped, &MalformedRecordError{Line: line, Err: err})
			continue
		}

		rec, err := decodeRow(cols, names, row)
		if err != nil {
			merr := &MalformedRecordError{Line: line, Err: err}
			if rec != nil {
				merr.ID = rec.ID.String()
			}
			util.WarnLog("Skipping feed record: %v", merr)
			skipped = append(skipped, merr)
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

func decodeRow(cols []field, names, row []string) (*scene.Record, error) {
	rec := &scene.Record{}
	values := make(map[field]string)
	for i, v := range row {
		if i >= len(cols) {
			break
		}
		v = strings.TrimSpace(v)
		if cols[i] == fieldNone {
			if v != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[names[i]] = v
			}
			continue
		}
		if _, dup := values[cols[i]]; !dup || v != "" {
			values[cols[i]] = v
		}
	}

	idText := values[fieldID]
	if idText == "" {
		return nil, errors.New("missing scene id")
	}
	id, err := scene.Parse(idText)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	rec.ProductID = values[fieldProduct]
	rec.Instrument = values[fieldInstrument]
	rec.DownloadURL = values[fieldURL]

	if rec.Path, err = optionalInt(values[fieldPath], id.Path); err != nil {
		return rec, fmt.Errorf("path: %w", err)
	}
	if rec.Row, err = optionalInt(values[fieldRow], id.Row); err != nil {
		return rec, fmt.Errorf("row: %w", err)
	}
	if rec.Path != id.Path || rec.Row != id.Row {
		return rec, fmt.Errorf("path/row %d/%d disagrees with scene id", rec.Path, rec.Row)
	}

	if rec.CloudCover, err = optionalFloat(values[fieldCloud]); err != nil {
		return rec, fmt.Errorf("cloud cover: %w", err)
	}
	if rec.CloudLand, err = optionalFloat(values[fieldCloudLand]); err != nil {
		return rec, fmt.Errorf("land cloud cover: %w", err)
	}
	if rec.SunElev, err = optionalFloat(values[fieldSunElev]); err != nil {
		return rec, fmt.Errorf("sun elevation: %w", err)
	}

	if lvl := values[fieldLevel]; lvl != "" {
		if rec.Level, err = scene.ParseLevel(lvl); err != nil {
			return rec, err
		}
	}

	if d := values[fieldDate]; d != "" {
		rec.Acquired, err = parseDate(d)
		if err != nil {
			return rec, err
		}
	} else {
		util.WarnLog("Scene %s has no acquisition date, using the date in its id", id)
		rec.Acquired = id.DateKey().Time()
	}

	return rec, nil
}

func optionalInt(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return &v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised acquisition date %q", s)
}
