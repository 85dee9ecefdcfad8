// Package tilegrid holds the path/row layout of the tiling scheme covering
// the area of interest.
package tilegrid

import (
	"fmt"
	"sort"

	"github.com/franz/scenelist/internal/util"
)

// Cell is one (path, row) tile.
type Cell struct {
	Path int `toml:"path"`
	Row  int `toml:"row"`
}

// Grid maps each path to its strictly increasing set of rows. A Grid is
// read-only after Build and safe for concurrent use.
type Grid struct {
	rows map[int][]int
}

// UnknownPathError is returned for paths outside the grid.
type UnknownPathError struct {
	Path int
}

func (e *UnknownPathError) Error() string {
	return fmt.Sprintf("path %d is not in the tile grid", e.Path)
}

func (e *UnknownPathError) Unwrap() error { return util.ErrNotFound }

// Build constructs a grid from (path, row) pairs. Repeated pairs collapse.
func Build(cells []Cell) (*Grid, error) {
	if len(cells) == 0 {
		return nil, util.NewConfigError("tile grid", "no cells")
	}

	seen := make(map[Cell]bool, len(cells))
	rows := make(map[int][]int)
	for _, c := range cells {
		if c.Path <= 0 || c.Row <= 0 {
			return nil, util.NewConfigError("tile grid", "invalid cell path=%d row=%d", c.Path, c.Row)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		rows[c.Path] = append(rows[c.Path], c.Row)
	}
	for _, r := range rows {
		sort.Ints(r)
	}

	return &Grid{rows: rows}, nil
}

// RowsFor returns the rows of path in increasing order.
func (g *Grid) RowsFor(path int) ([]int, error) {
	r, ok := g.rows[path]
	if !ok {
		return nil, &UnknownPathError{Path: path}
	}
	out := make([]int, len(r))
	copy(out, r)
	return out, nil
}

// MinRow returns the lowest row of path.
func (g *Grid) MinRow(path int) (int, error) {
	r, ok := g.rows[path]
	if !ok {
		return 0, &UnknownPathError{Path: path}
	}
	return r[0], nil
}

// MaxRow returns the highest row of path.
func (g *Grid) MaxRow(path int) (int, error) {
	r, ok := g.rows[path]
	if !ok {
		return 0, &UnknownPathError{Path: path}
	}
	return r[len(r)-1], nil
}

// Contains reports whether the cell is part of the grid.
func (g *Grid) Contains(path, row int) bool {
	r := g.rows[path]
	i := sort.SearchInts(r, row)
	return i < len(r) && r[i] == row
}

// Paths returns all paths in increasing order.
func (g *Grid) Paths() []int {
	paths := make([]int, 0, len(g.rows))
	for p := range g.rows {
		paths = append(paths, p)
	}
	sort.Ints(paths)
	return paths
}

// Cells returns every cell ordered by path, then row.
func (g *Grid) Cells() []Cell {
	var cells []Cell
	for _, p := range g.Paths() {
		for _, r := range g.rows[p] {
			cells = append(cells, Cell{Path: p, Row: r})
		}
	}
	return cells
}
