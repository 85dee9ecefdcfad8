package tilegrid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/franz/scenelist/internal/util"
)

// ReadCSV reads "path,row" pairs. A header line is optional.
func ReadCSV(r io.Reader) ([]Cell, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var cells []Cell
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, util.NewConfigError("tile grid", "line %d: %v", line, err)
		}
		if len(rec) < 2 {
			return nil, util.NewConfigError("tile grid", "line %d: want path,row", line)
		}
		if line == 1 && strings.EqualFold(rec[0], "path") {
			continue
		}
		path, perr := strconv.Atoi(strings.TrimSpace(rec[0]))
		row, rerr := strconv.Atoi(strings.TrimSpace(rec[1]))
		if perr != nil || rerr != nil {
			return nil, util.NewConfigError("tile grid", "line %d: %q,%q is not a path,row pair", line, rec[0], rec[1])
		}
		cells = append(cells, Cell{Path: path, Row: row})
	}
	return cells, nil
}

// tomlGrid is the on-disk TOML layout. Either form may be used:
//
//	[paths]
//	207 = [22, 23, 24]
//
//	[[cell]]
//	path = 205
//	row = 21
type tomlGrid struct {
	Paths map[string][]int `toml:"paths"`
	Cells []Cell           `toml:"cell"`
}

// DecodeTOML parses a grid definition.
func DecodeTOML(data []byte) ([]Cell, error) {
	var g tomlGrid
	if err := toml.Unmarshal(data, &g); err != nil {
		return nil, util.NewConfigError("tile grid", "parse failed: %v", err)
	}
	cells := append([]Cell(nil), g.Cells...)
	for key, rows := range g.Paths {
		path, err := strconv.Atoi(key)
		if err != nil {
			return nil, util.NewConfigError("tile grid", "path key %q is not a number", key)
		}
		for _, row := range rows {
			cells = append(cells, Cell{Path: path, Row: row})
		}
	}
	return cells, nil
}

// LoadCells reads a grid file, choosing the decoder from the extension.
func LoadCells(path string) ([]Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grid load failed (%s): %w", path, err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".toml") {
		return DecodeTOML(data)
	}
	return ReadCSV(strings.NewReader(string(data)))
}

// Load reads and builds a grid file.
func Load(path string) (*Grid, error) {
	cells, err := LoadCells(path)
	if err != nil {
		return nil, err
	}
	return Build(cells)
}
