// Package store persists evaluation runs in SQLite so results can be listed,
// re-rendered and compared across invocations.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tageval/internal/evaluate"
	"tageval/internal/stats"
)

// Curve point kinds.
const (
	CurveThreshold = "threshold"
	CurveRank      = "rank"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// Store wraps the SQLite database holding persisted runs.
type Store struct {
	db *sql.DB
}

// Run is one persisted evaluation run.
type Run struct {
	ID           int64
	EvaluationID string
	Corpus       string
	Config       evaluate.Config
	CreatedAt    string
}

// StatRow is one persisted (document, type) counter set. Aggregate rows use
// the evaluate sentinels for DocName and AnnotationType.
type StatRow struct {
	DocName        string
	AnnotationType string
	Stats          stats.EvalStats
}

// CurvePoint is one persisted curve bucket. Cutoff is the threshold for
// CurveThreshold points and the rank for CurveRank points.
type CurvePoint struct {
	AnnotationType string
	Kind           string
	Cutoff         float64
	Stats          stats.EvalStats
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersionV1 {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a completed evaluation: the run record, every stat row
// including the aggregate sentinel rows, and all curve points. Everything is
// written in one transaction.
func (s *Store) SaveRun(corpusPath string, res *evaluate.Result) (int64, error) {
	cfgJSON, err := json.Marshal(res.Config)
	if err != nil {
		return 0, fmt.Errorf("marshal config: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r, err := tx.Exec(
		"INSERT INTO runs(evaluation_id, corpus, config, created_at) VALUES(?, ?, ?, ?)",
		res.Config.EvaluationID, corpusPath, string(cfgJSON), nowUTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, row := range res.Rows {
		if err := insertStatRow(tx, runID, row.Doc, row.Type, row.Stats); err != nil {
			return 0, err
		}
	}
	for _, t := range res.Types {
		if err := insertStatRow(tx, runID, evaluate.AllDocs, t, res.TypeTotals[t]); err != nil {
			return 0, err
		}
	}
	if err := insertStatRow(tx, runID, evaluate.AllDocs, evaluate.AllTypes, res.Total); err != nil {
		return 0, err
	}

	for t, curve := range res.Curves {
		for _, th := range curve.Thresholds() {
			b, _ := curve.Get(th)
			if err := insertCurvePoint(tx, runID, t, CurveThreshold, th, b); err != nil {
				return 0, err
			}
		}
	}
	for t, curve := range res.RankCurves {
		for _, k := range curve.Ranks() {
			b, _ := curve.Get(k)
			if err := insertCurvePoint(tx, runID, t, CurveRank, float64(k), b); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

func insertStatRow(tx *sql.Tx, runID int64, doc, typ string, s stats.EvalStats) error {
	_, err := tx.Exec(
		`INSERT INTO stat_rows(run_id, doc_name, annotation_type,
		        targets, responses, correct_strict, correct_partial,
		        incorrect_strict, incorrect_partial,
		        single_correct_strict, single_correct_partial)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, doc, typ,
		s.Targets, s.Responses, s.CorrectStrict, s.CorrectPartial,
		s.IncorrectStrict, s.IncorrectPartial,
		s.SingleCorrectStrict, s.SingleCorrectPartial,
	)
	if err != nil {
		return fmt.Errorf("insert stat row %s/%s: %w", doc, typ, err)
	}
	return nil
}

func insertCurvePoint(tx *sql.Tx, runID int64, typ, kind string, cutoff float64, s stats.EvalStats) error {
	_, err := tx.Exec(
		`INSERT INTO curve_points(run_id, annotation_type, kind, cutoff,
		        targets, responses, correct_strict, correct_partial,
		        incorrect_strict, incorrect_partial,
		        single_correct_strict, single_correct_partial)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, typ, kind, cutoff,
		s.Targets, s.Responses, s.CorrectStrict, s.CorrectPartial,
		s.IncorrectStrict, s.IncorrectPartial,
		s.SingleCorrectStrict, s.SingleCorrectPartial,
	)
	if err != nil {
		return fmt.Errorf("insert curve point %s/%s@%v: %w", typ, kind, cutoff, err)
	}
	return nil
}

// ListRuns returns all persisted runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		"SELECT id, evaluation_id, corpus, config, created_at FROM runs ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one run by id, or nil when it does not exist.
func (s *Store) GetRun(id int64) (*Run, error) {
	row := s.db.QueryRow(
		"SELECT id, evaluation_id, corpus, config, created_at FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (Run, error) {
	var r Run
	var cfgJSON string
	if err := sc.Scan(&r.ID, &r.EvaluationID, &r.Corpus, &cfgJSON, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(cfgJSON), &r.Config); err != nil {
		return Run{}, fmt.Errorf("unmarshal run %d config: %w", r.ID, err)
	}
	return r, nil
}

// RunStats returns every stat row of a run in insertion order.
func (s *Store) RunStats(runID int64) ([]StatRow, error) {
	rows, err := s.db.Query(
		`SELECT doc_name, annotation_type,
		        targets, responses, correct_strict, correct_partial,
		        incorrect_strict, incorrect_partial,
		        single_correct_strict, single_correct_partial
		 FROM stat_rows WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("run %d stats: %w", runID, err)
	}
	defer rows.Close()

	var out []StatRow
	for rows.Next() {
		var sr StatRow
		if err := rows.Scan(&sr.DocName, &sr.AnnotationType,
			&sr.Stats.Targets, &sr.Stats.Responses,
			&sr.Stats.CorrectStrict, &sr.Stats.CorrectPartial,
			&sr.Stats.IncorrectStrict, &sr.Stats.IncorrectPartial,
			&sr.Stats.SingleCorrectStrict, &sr.Stats.SingleCorrectPartial); err != nil {
			return nil, fmt.Errorf("scan stat row: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// RunCurve returns the persisted curve points of one run, type and kind,
// ordered by cutoff.
func (s *Store) RunCurve(runID int64, annotationType, kind string) ([]CurvePoint, error) {
	rows, err := s.db.Query(
		`SELECT annotation_type, kind, cutoff,
		        targets, responses, correct_strict, correct_partial,
		        incorrect_strict, incorrect_partial,
		        single_correct_strict, single_correct_partial
		 FROM curve_points
		 WHERE run_id = ? AND annotation_type = ? AND kind = ?
		 ORDER BY cutoff`, runID, annotationType, kind)
	if err != nil {
		return nil, fmt.Errorf("run %d curve: %w", runID, err)
	}
	defer rows.Close()

	var out []CurvePoint
	for rows.Next() {
		var cp CurvePoint
		if err := rows.Scan(&cp.AnnotationType, &cp.Kind, &cp.Cutoff,
			&cp.Stats.Targets, &cp.Stats.Responses,
			&cp.Stats.CorrectStrict, &cp.Stats.CorrectPartial,
			&cp.Stats.IncorrectStrict, &cp.Stats.IncorrectPartial,
			&cp.Stats.SingleCorrectStrict, &cp.Stats.SingleCorrectPartial); err != nil {
			return nil, fmt.Errorf("scan curve point: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}
