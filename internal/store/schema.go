package store

// Schema v1 - catalog snapshot, tile grid and run history
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Scene metadata feed, one row per scene identifier (last import wins)
CREATE TABLE IF NOT EXISTS scenes (
  scene_id TEXT PRIMARY KEY,
  product_id TEXT,
  instrument TEXT,
  acquired_unix INTEGER,
  path INTEGER NOT NULL,
  row INTEGER NOT NULL,
  cloud_cover REAL,
  cloud_land REAL,
  sun_elev REAL,
  level TEXT,
  download_url TEXT,
  extra_json TEXT,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Valid path/row cells
CREATE TABLE IF NOT EXISTS tile_grid (
  path INTEGER NOT NULL,
  row INTEGER NOT NULL,
  PRIMARY KEY (path, row)
);

-- One row per list-building run
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  started_unix INTEGER NOT NULL,
  finished_unix INTEGER,
  criteria TEXT,
  all_in_path INTEGER DEFAULT 0,
  accepted INTEGER DEFAULT 0,
  neighbors INTEGER DEFAULT 0,
  missing INTEGER DEFAULT 0,
  gaps INTEGER DEFAULT 0,
  l47_count INTEGER DEFAULT 0,
  l8_count INTEGER DEFAULT 0,
  output_files TEXT
);

-- Emitted scenes per run, in list order
CREATE TABLE IF NOT EXISTS run_items (
  run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  scene_id TEXT NOT NULL,
  output_id TEXT NOT NULL,
  family TEXT NOT NULL,
  date_key TEXT NOT NULL,
  mechanism TEXT NOT NULL,
  PRIMARY KEY (run_id, position)
);
`

// Schema v2 - lookup indexes
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_scenes_path_row ON scenes(path, row);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_unix);
CREATE INDEX IF NOT EXISTS idx_run_items_scene ON run_items(scene_id);
`
