package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout keeps a fixed width so started_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned by GetRun for an unknown run id
var ErrRunNotFound = errors.New("run not found")

type Store struct {
	db *sql.DB
}

type RunRecord struct {
	RunID           string    `json:"runId"`
	Status          string    `json:"status"`
	Architecture    string    `json:"architecture"`
	CatalogSource   string    `json:"catalogSource"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt,omitempty"`
	FailedComponent string    `json:"failedComponent,omitempty"`
	FailedCommand   string    `json:"failedCommand,omitempty"`
	ExitCode        *int      `json:"exitCode,omitempty"`
	AdviceSource    string    `json:"adviceSource,omitempty"`
	LastError       string    `json:"lastError,omitempty"`
}

type StepRecord struct {
	RunID       string `json:"runId"`
	Position    int    `json:"position"`
	ComponentID string `json:"componentId"`
	Status      string `json:"status"`
	Output      string `json:"output,omitempty"`
}

// Completion is the terminal outcome written by CompleteRun
type Completion struct {
	Status          string
	FailedComponent string
	FailedCommand   string
	ExitCode        *int
	AdviceSource    string
	LastError       string
}

// Open opens (creating when needed) state.db under stateDir
func Open(stateDir string) (*Store, error) {
	if stateDir == "" {
		stateDir = ".devsetup"
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(stateDir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			architecture TEXT NOT NULL,
			catalog_source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			failed_component TEXT,
			failed_command TEXT,
			exit_code INTEGER,
			advice_source TEXT,
			last_error TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			component_id TEXT NOT NULL,
			status TEXT NOT NULL,
			output TEXT,
			PRIMARY KEY (run_id, position),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) InsertRun(r RunRecord) error {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, status, architecture, catalog_source, started_at, ended_at, failed_component, failed_command, exit_code, advice_source, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Status, r.Architecture, r.CatalogSource, formatTime(r.StartedAt), nullableTime(r.EndedAt),
		nullableString(r.FailedComponent), nullableString(r.FailedCommand), nullableInt(r.ExitCode),
		nullableString(r.AdviceSource), nullableString(r.LastError),
	)
	return err
}

// UpsertStep records the latest state of one plan entry
func (s *Store) UpsertStep(st StepRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO steps (run_id, position, component_id, status, output)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, position) DO UPDATE SET
		   component_id = excluded.component_id,
		   status = excluded.status,
		   output = excluded.output`,
		st.RunID, st.Position, st.ComponentID, st.Status, nullableString(st.Output),
	)
	return err
}

func (s *Store) CompleteRun(runID string, c Completion) error {
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, ended_at = ?, failed_component = ?, failed_command = ?, exit_code = ?, advice_source = ?, last_error = ? WHERE run_id = ?`,
		c.Status, formatTime(time.Now()), nullableString(c.FailedComponent), nullableString(c.FailedCommand),
		nullableInt(c.ExitCode), nullableString(c.AdviceSource), nullableString(c.LastError), runID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `run_id, status, architecture, catalog_source, started_at, COALESCE(ended_at,''), COALESCE(failed_component,''), COALESCE(failed_command,''), exit_code, COALESCE(advice_source,''), COALESCE(last_error,'')`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var r RunRecord
	var started, ended string
	var exit sql.NullInt64
	if err := row.Scan(&r.RunID, &r.Status, &r.Architecture, &r.CatalogSource, &started, &ended,
		&r.FailedComponent, &r.FailedCommand, &exit, &r.AdviceSource, &r.LastError); err != nil {
		return RunRecord{}, err
	}
	r.StartedAt = parseTime(started)
	r.EndedAt = parseTime(ended)
	if exit.Valid {
		v := int(exit.Int64)
		r.ExitCode = &v
	}
	return r, nil
}

func (s *Store) GetRun(runID string) (RunRecord, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return RunRecord{}, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RunRecord, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSteps returns the steps of a run in plan order
func (s *Store) GetSteps(runID string) ([]StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, position, component_id, status, COALESCE(output,'') FROM steps WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StepRecord, 0)
	for rows.Next() {
		var st StepRecord
		if err := rows.Scan(&st.RunID, &st.Position, &st.ComponentID, &st.Status, &st.Output); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
