package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/san-kum/bugsim/internal/dynamo"
)

const sqliteFile = "runs.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	metadata BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	step INTEGER NOT NULL,
	time REAL NOT NULL,
	state BLOB NOT NULL,
	PRIMARY KEY (run_id, step)
);`

// SQLiteStore keeps runs in <dir>/runs.db. Metadata and states are stored as
// JSON blobs, which round-trip float64 values exactly.
type SQLiteStore struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

func NewSQLiteStore(dir string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)
	if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	path := filepath.Join(dir, sqliteFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db, path: path, log: o.logger}, nil
}

func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) exists(id string) bool {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM runs WHERE id = ?`, id).Scan(&n)
	return err == nil && n > 0
}

func (s *SQLiteStore) Save(info RunInfo, result *dynamo.Result) (retID string, retErr error) {
	runID := newRunID(info.Model, time.Now(), s.exists)
	meta := newMetadata(runID, info, result)

	payload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(`INSERT INTO runs(id, created_at, metadata) VALUES(?, ?, ?)`,
		runID, meta.Timestamp.Format(time.RFC3339Nano), payload); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO samples(run_id, step, time, state) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() { _ = stmt.Close() }()

	for i, state := range result.States {
		blob, err := json.Marshal([]float64(state))
		if err != nil {
			return "", err
		}
		if _, err := stmt.Exec(runID, i, result.Times[i], blob); err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.log.Debug("run saved",
		zap.String("run_id", runID),
		zap.String("db", s.path),
		zap.Int("samples", len(result.States)),
	)
	return runID, nil
}

func (s *SQLiteStore) List() ([]RunMetadata, error) {
	rows, err := s.db.Query(`SELECT id, metadata FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			s.log.Warn("skipping run", zap.String("run_id", id), zap.Error(err))
			continue
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(runID string) (*RunMetadata, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT metadata FROM runs WHERE id = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadStates(runID string) ([][]float64, []float64, error) {
	if !s.exists(runID) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}

	rows, err := s.db.Query(`SELECT time, state FROM samples WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("select samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	states := [][]float64{}
	times := []float64{}
	for rows.Next() {
		var (
			t    float64
			blob []byte
		)
		if err := rows.Scan(&t, &blob); err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		var state []float64
		if err := json.Unmarshal(blob, &state); err != nil {
			return nil, nil, fmt.Errorf("decode state: %w", err)
		}
		times = append(times, t)
		states = append(states, state)
	}
	return states, times, rows.Err()
}
