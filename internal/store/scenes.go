package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

// UpsertScenes stores records in one transaction. A record whose scene id
// is already stored replaces it.
func (s *Store) UpsertScenes(records []*scene.Record) error {
	return s.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO scenes (scene_id, product_id, instrument, acquired_unix, path, row,
				cloud_cover, cloud_land, sun_elev, level, download_url, extra_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(scene_id) DO UPDATE SET
				product_id = excluded.product_id,
				instrument = excluded.instrument,
				acquired_unix = excluded.acquired_unix,
				path = excluded.path,
				row = excluded.row,
				cloud_cover = excluded.cloud_cover,
				cloud_land = excluded.cloud_land,
				sun_elev = excluded.sun_elev,
				level = excluded.level,
				download_url = excluded.download_url,
				extra_json = excluded.extra_json,
				updated_at = CURRENT_TIMESTAMP
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare scene insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			var acquired sql.NullInt64
			if !rec.Acquired.IsZero() {
				acquired = sql.NullInt64{Int64: rec.Acquired.Unix(), Valid: true}
			}
			extra := ""
			if len(rec.Extra) > 0 {
				b, err := json.Marshal(rec.Extra)
				if err != nil {
					return fmt.Errorf("failed to encode extra fields of %s: %w", rec.ID, err)
				}
				extra = string(b)
			}

			if _, err := stmt.Exec(
				rec.ID.String(), rec.ProductID, rec.Instrument, acquired, rec.Path, rec.Row,
				nullFloat(rec.CloudCover), nullFloat(rec.CloudLand), nullFloat(rec.SunElev),
				rec.Level.String(), rec.DownloadURL, extra,
			); err != nil {
				return fmt.Errorf("failed to store scene %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// LoadScenes returns every stored scene ordered by identifier. Rows whose
// identifier no longer parses are returned as skip errors.
func (s *Store) LoadScenes() ([]*scene.Record, []error, error) {
	rows, err := s.db.Query(`
		SELECT scene_id, COALESCE(product_id, ''), COALESCE(instrument, ''), acquired_unix,
		       path, row, cloud_cover, cloud_land, sun_elev,
		       COALESCE(level, ''), COALESCE(download_url, ''), COALESCE(extra_json, '')
		FROM scenes ORDER BY scene_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query scenes: %w", err)
	}
	defer rows.Close()

	var records []*scene.Record
	var skipped []error
	for rows.Next() {
		var (
			id, level, extra          string
			acquired                  sql.NullInt64
			cloud, cloudLand, sunElev sql.NullFloat64
		)
		rec := &scene.Record{}
		if err := rows.Scan(&id, &rec.ProductID, &rec.Instrument, &acquired,
			&rec.Path, &rec.Row, &cloud, &cloudLand, &sunElev,
			&level, &rec.DownloadURL, &extra); err != nil {
			return nil, nil, fmt.Errorf("failed to scan scene: %w", err)
		}

		rec.ID, err = scene.Parse(id)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%w: %w", util.ErrMalformed, err))
			continue
		}
		if acquired.Valid {
			rec.Acquired = time.Unix(acquired.Int64, 0).UTC()
		}
		rec.CloudCover = floatPtr(cloud)
		rec.CloudLand = floatPtr(cloudLand)
		rec.SunElev = floatPtr(sunElev)
		if level != "" {
			if rec.Level, err = scene.ParseLevel(level); err != nil {
				skipped = append(skipped, fmt.Errorf("%w: %s: %w", util.ErrMalformed, id, err))
				continue
			}
		}
		if extra != "" {
			if err := json.Unmarshal([]byte(extra), &rec.Extra); err != nil {
				skipped = append(skipped, fmt.Errorf("%w: %s: extra fields: %w", util.ErrMalformed, id, err))
				continue
			}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating scenes: %w", err)
	}
	return records, skipped, nil
}

// CountScenes returns the number of stored scenes.
func (s *Store) CountScenes() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM scenes").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scenes: %w", err)
	}
	return n, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
