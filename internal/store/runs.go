package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Run is one recorded list-building pass.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Criteria    string
	AllInPath   bool
	Accepted    int
	Neighbors   int
	Missing     int
	Gaps        int
	L47Count    int
	L8Count     int
	OutputFiles []string
}

// RunItem is one emitted scene of a run.
type RunItem struct {
	Position  int
	SceneID   string
	OutputID  string
	Family    string
	DateKey   string
	Mechanism string
}

// RunFilter narrows ListRuns. Zero fields impose no constraint.
type RunFilter struct {
	Since   time.Time
	SceneID string // runs that emitted this scene
	Limit   uint64
}

var runColumns = []string{
	"id", "started_unix", "COALESCE(finished_unix, 0)", "COALESCE(criteria, '')", "all_in_path",
	"accepted", "neighbors", "missing", "gaps", "l47_count", "l8_count", "COALESCE(output_files, '')",
}

// InsertRun records a run and its emitted items in one transaction.
func (s *Store) InsertRun(run *Run, items []RunItem) error {
	return s.Transaction(func(tx *sql.Tx) error {
		_, err := sq.Insert("runs").
			Columns("id", "started_unix", "finished_unix", "criteria", "all_in_path",
				"accepted", "neighbors", "missing", "gaps", "l47_count", "l8_count", "output_files").
			Values(run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Criteria, run.AllInPath,
				run.Accepted, run.Neighbors, run.Missing, run.Gaps, run.L47Count, run.L8Count,
				strings.Join(run.OutputFiles, "\n")).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
		}

		if len(items) == 0 {
			return nil
		}

		stmt, err := tx.Prepare(`
			INSERT INTO run_items (run_id, position, scene_id, output_id, family, date_key, mechanism)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare run item insert: %w", err)
		}
		defer stmt.Close()

		for _, it := range items {
			if _, err := stmt.Exec(run.ID, it.Position, it.SceneID, it.OutputID, it.Family, it.DateKey, it.Mechanism); err != nil {
				return fmt.Errorf("failed to insert run item %s: %w", it.SceneID, err)
			}
		}
		return nil
	})
}

// ListRuns returns matching runs, newest first.
func (s *Store) ListRuns(filter RunFilter) ([]*Run, error) {
	query := sq.Select(runColumns...).From("runs").OrderBy("started_unix DESC", "id")
	if !filter.Since.IsZero() {
		query = query.Where(sq.GtOrEq{"started_unix": filter.Since.Unix()})
	}
	if filter.SceneID != "" {
		query = query.Where(sq.Expr("id IN (SELECT run_id FROM run_items WHERE scene_id = ?)", filter.SceneID))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	sqlStr, args, err := query.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run query: %w", err)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			outputs           string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Criteria, &r.AllInPath,
			&r.Accepted, &r.Neighbors, &r.Missing, &r.Gaps, &r.L47Count, &r.L8Count, &outputs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		if finished > 0 {
			r.FinishedAt = time.Unix(finished, 0).UTC()
		}
		if outputs != "" {
			r.OutputFiles = strings.Split(outputs, "\n")
		}
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// RunItems returns the emitted scenes of one run in list order.
func (s *Store) RunItems(runID string) ([]RunItem, error) {
	sqlStr, args, err := sq.Select("position", "scene_id", "output_id", "family", "date_key", "mechanism").
		From("run_items").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run item query: %w", err)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	var items []RunItem
	for rows.Next() {
		var it RunItem
		if err := rows.Scan(&it.Position, &it.SceneID, &it.OutputID, &it.Family, &it.DateKey, &it.Mechanism); err != nil {
			return nil, fmt.Errorf("failed to scan run item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
