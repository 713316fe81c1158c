package store

const schemaVersionV1 = 1

const schemaV1 = `
CREATE TABLE schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	evaluation_id TEXT NOT NULL,
	corpus        TEXT NOT NULL,
	config        TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE stat_rows (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id                 INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	doc_name               TEXT NOT NULL,
	annotation_type        TEXT NOT NULL,
	targets                INTEGER NOT NULL,
	responses              INTEGER NOT NULL,
	correct_strict         INTEGER NOT NULL,
	correct_partial        INTEGER NOT NULL,
	incorrect_strict       INTEGER NOT NULL,
	incorrect_partial      INTEGER NOT NULL,
	single_correct_strict  INTEGER NOT NULL,
	single_correct_partial INTEGER NOT NULL
);

CREATE INDEX idx_stat_rows_run ON stat_rows(run_id);

CREATE TABLE curve_points (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id                 INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	annotation_type        TEXT NOT NULL,
	kind                   TEXT NOT NULL,
	cutoff                 REAL NOT NULL,
	targets                INTEGER NOT NULL,
	responses              INTEGER NOT NULL,
	correct_strict         INTEGER NOT NULL,
	correct_partial        INTEGER NOT NULL,
	incorrect_strict       INTEGER NOT NULL,
	incorrect_partial      INTEGER NOT NULL,
	single_correct_strict  INTEGER NOT NULL,
	single_correct_partial INTEGER NOT NULL
);

CREATE INDEX idx_curve_points_run ON curve_points(run_id);
`
