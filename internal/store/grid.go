package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/scenelist/internal/tilegrid"
)

// ReplaceGrid stores cells as the only tile grid.
func (s *Store) ReplaceGrid(cells []tilegrid.Cell) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM tile_grid"); err != nil {
			return fmt.Errorf("failed to clear tile grid: %w", err)
		}
		stmt, err := tx.Prepare("INSERT OR IGNORE INTO tile_grid (path, row) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare grid insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range cells {
			if _, err := stmt.Exec(c.Path, c.Row); err != nil {
				return fmt.Errorf("failed to store cell %d/%d: %w", c.Path, c.Row, err)
			}
		}
		return nil
	})
}

// LoadGrid builds the stored tile grid. An empty table is a configuration
// error, as is any invalid cell.
func (s *Store) LoadGrid() (*tilegrid.Grid, error) {
	rows, err := s.db.Query("SELECT path, row FROM tile_grid ORDER BY path, row")
	if err != nil {
		return nil, fmt.Errorf("failed to query tile grid: %w", err)
	}
	defer rows.Close()

	var cells []tilegrid.Cell
	for rows.Next() {
		var c tilegrid.Cell
		if err := rows.Scan(&c.Path, &c.Row); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tile grid: %w", err)
	}

	return tilegrid.Build(cells)
}
