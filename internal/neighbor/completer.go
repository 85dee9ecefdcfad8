// Package neighbor completes path coverage: when one tile of a path is
// selected for a date, the remaining tiles of that path and date are added
// too, so the path can be mosaicked.
package neighbor

import (
	"errors"

	"github.com/franz/scenelist/internal/catalog"
	"github.com/franz/scenelist/internal/exclude"
	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/tilegrid"
	"github.com/franz/scenelist/internal/util"
)

// Accumulator is the read side of the output list.
type Accumulator interface {
	Contains(id scene.ID) bool
}

// Completer finds sibling tiles of accepted scenes. It only reads immutable
// snapshots, so Complete may run concurrently.
type Completer struct {
	grid       *tilegrid.Grid
	catalog    *catalog.Catalog
	exclusions *exclude.Rules
	holdings   *holdings.Index
}

// Config holds completer dependencies
type Config struct {
	Grid       *tilegrid.Grid
	Catalog    *catalog.Catalog
	Exclusions *exclude.Rules
	Holdings   *holdings.Index
}

// New creates a new Completer
func New(cfg *Config) *Completer {
	return &Completer{
		grid:       cfg.Grid,
		catalog:    cfg.Catalog,
		exclusions: cfg.Exclusions,
		holdings:   cfg.Holdings,
	}
}

// Result is the outcome of completing one accepted scene
type Result struct {
	Source scene.ID
	IDs    []scene.ID // scenes to add, in row order
	Gaps   []int      // rows with no catalog scene for the date
}

// Complete returns the sibling scenes to add for rec.
func (c *Completer) Complete(rec *scene.Record, acc Accumulator) []scene.ID {
	return c.CompleteWithGaps(rec, acc).IDs
}

// CompleteWithGaps is Complete, also reporting rows the catalog has no
// scene for. A path missing from the grid yields an empty result.
func (c *Completer) CompleteWithGaps(rec *scene.Record, acc Accumulator) Result {
	res := Result{Source: rec.ID}

	rows, err := c.grid.RowsFor(rec.ID.Path)
	if err != nil {
		var unknown *tilegrid.UnknownPathError
		if errors.As(err, &unknown) {
			util.DebugLog("Path %d of %s is outside the tile grid", unknown.Path, rec.ID)
		}
		return res
	}

	for _, row := range rows {
		if row == rec.ID.Row {
			continue
		}

		matches := c.catalog.KeysMatchingPrefix(rec.ID.WithRow(row))
		if len(matches) == 0 {
			res.Gaps = append(res.Gaps, row)
			continue
		}
		// Reprocessed acquisitions differ only in suffix; take the latest.
		candidate := matches[len(matches)-1]

		if c.holdings.Covers(candidate.String()) {
			continue
		}
		if cand, ok := c.catalog.Lookup(candidate); ok && c.exclusions.ExcludesRecord(cand) {
			continue
		}
		if acc != nil && acc.Contains(candidate) {
			continue
		}
		res.IDs = append(res.IDs, candidate)
	}

	return res
}
