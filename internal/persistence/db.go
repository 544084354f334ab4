// Package persistence provides SQLite-based run archival. A run is one
// tracking or grid invocation; its growth records stay queryable long
// after the solver round trips are gone.
// See design doc Section 6.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/bknight1/gtpath/internal/engine"
	"github.com/bknight1/gtpath/internal/garnet"
)

// Run kinds.
const (
	KindPoint = "point"
	KindPath  = "path"
	KindGrid  = "grid"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("persistence: not found")

// Run is the archived identity of one invocation: what was tracked, over
// which inputs, and how many points it covered.
type Run struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	Phase       string    `json:"phase"`
	Basis       string    `json:"basis"`
	Fractionate bool      `json:"fractionate"`
	Points      int       `json:"points"`
	Oxides      []string  `json:"oxides"`
	Bulk        []float64 `json:"bulk"` // starting bulk on the run's basis
}

// NewRun stamps a run of the given kind with a fresh id and creation time.
// The caller fills in the rest before saving.
func NewRun(kind string) Run {
	return Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

// DB wraps a SQLite connection for run archival.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL,
		phase TEXT NOT NULL,
		basis TEXT NOT NULL,
		fractionate INTEGER NOT NULL,
		points INTEGER NOT NULL,
		oxides_json TEXT NOT NULL,
		bulk_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		p REAL NOT NULL,
		t REAL NOT NULL,
		mol_frac REAL NOT NULL,
		wt_frac REAL NOT NULL,
		vol_frac REAL NOT NULL,
		growth_mol REAL NOT NULL,
		growth_wt REAL NOT NULL,
		growth_vol REAL NOT NULL,
		delta_mol REAL NOT NULL,
		delta_wt REAL NOT NULL,
		end_members_json TEXT NOT NULL,
		mg REAL NOT NULL,
		mn REAL NOT NULL,
		fe REAL NOT NULL,
		ca REAL NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type runRow struct {
	ID          string `db:"id"`
	Kind        string `db:"kind"`
	CreatedAt   string `db:"created_at"`
	Phase       string `db:"phase"`
	Basis       string `db:"basis"`
	Fractionate int    `db:"fractionate"`
	Points      int    `db:"points"`
	OxidesJSON  string `db:"oxides_json"`
	BulkJSON    string `db:"bulk_json"`
}

type recordRow struct {
	RunID          string  `db:"run_id"`
	Step           int     `db:"step"`
	P              float64 `db:"p"`
	T              float64 `db:"t"`
	MolFrac        float64 `db:"mol_frac"`
	WtFrac         float64 `db:"wt_frac"`
	VolFrac        float64 `db:"vol_frac"`
	GrowthMol      float64 `db:"growth_mol"`
	GrowthWt       float64 `db:"growth_wt"`
	GrowthVol      float64 `db:"growth_vol"`
	DeltaMol       float64 `db:"delta_mol"`
	DeltaWt        float64 `db:"delta_wt"`
	EndMembersJSON string  `db:"end_members_json"`
	Mg             float64 `db:"mg"`
	Mn             float64 `db:"mn"`
	Fe             float64 `db:"fe"`
	Ca             float64 `db:"ca"`
}

// SaveRun writes a run and all its records in one transaction.
func (db *DB) SaveRun(run Run, records []engine.GrowthRecord) error {
	slog.Info("archiving run", "id", run.ID, "kind", run.Kind, "records", len(records))

	oxidesJSON, _ := json.Marshal(run.Oxides)
	bulkJSON, _ := json.Marshal(run.Bulk)
	frac := 0
	if run.Fractionate {
		frac = 1
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, kind, created_at, phase, basis, fractionate, points, oxides_json, bulk_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Phase, run.Basis, frac, run.Points, string(oxidesJSON), string(bulkJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO records
		(run_id, step, p, t, mol_frac, wt_frac, vol_frac,
		 growth_mol, growth_wt, growth_vol, delta_mol, delta_wt,
		 end_members_json, mg, mn, fe, ca)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		emJSON, _ := json.Marshal(rec.EndMembers)

		_, err := stmt.Exec(
			run.ID, rec.Step, rec.P, rec.T,
			rec.MolFrac, rec.WtFrac, rec.VolFrac,
			rec.GrowthMol, rec.GrowthWt, rec.GrowthVol,
			rec.DeltaMol, rec.DeltaWt,
			string(emJSON), rec.Elements.Mg, rec.Elements.Mn, rec.Elements.Fe, rec.Elements.Ca,
		)
		if err != nil {
			return fmt.Errorf("insert step %d: %w", rec.Step, err)
		}
	}

	return tx.Commit()
}

// SaveGridRun stores independent grid evaluations under one run. Grid
// points carry no step coupling, so the growth and delta columns stay zero
// and step simply numbers the points in evaluation order.
func (db *DB) SaveGridRun(run Run, results []engine.PointResult) error {
	records := make([]engine.GrowthRecord, len(results))
	for i, pr := range results {
		records[i] = engine.GrowthRecord{
			Step:       i,
			P:          pr.P,
			T:          pr.T,
			MolFrac:    pr.MolFrac,
			WtFrac:     pr.WtFrac,
			VolFrac:    pr.VolFrac,
			EndMembers: pr.EndMembers,
			Elements:   pr.Elements,
		}
	}
	return db.SaveRun(run, records)
}

// GetRun loads a single run by id.
func (db *DB) GetRun(id string) (*Run, error) {
	var row runRow
	err := db.conn.Get(&row,
		`SELECT id, kind, created_at, phase, basis, fractionate, points, oxides_json, bulk_json
		 FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return rowToRun(row)
}

// RecentRuns returns the most recent N runs, newest first. A non-positive
// limit loads up to 50.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := db.conn.Select(&rows,
		`SELECT id, kind, created_at, phase, basis, fractionate, points, oxides_json, bulk_json
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := rowToRun(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

// RunCount reports how many runs the archive holds.
func (db *DB) RunCount() (int, error) {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM runs"); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// Records loads the growth records of a run in step order.
func (db *DB) Records(runID string) ([]engine.GrowthRecord, error) {
	var rows []recordRow
	err := db.conn.Select(&rows,
		`SELECT run_id, step, p, t, mol_frac, wt_frac, vol_frac,
		        growth_mol, growth_wt, growth_vol, delta_mol, delta_wt,
		        end_members_json, mg, mn, fe, ca
		 FROM records WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("load records for %s: %w", runID, err)
	}

	records := make([]engine.GrowthRecord, 0, len(rows))
	for _, row := range rows {
		var em garnet.EndMemberSet
		if err := json.Unmarshal([]byte(row.EndMembersJSON), &em); err != nil {
			return nil, fmt.Errorf("decode end-members at step %d: %w", row.Step, err)
		}
		records = append(records, engine.GrowthRecord{
			Step:       row.Step,
			P:          row.P,
			T:          row.T,
			MolFrac:    row.MolFrac,
			WtFrac:     row.WtFrac,
			VolFrac:    row.VolFrac,
			GrowthMol:  row.GrowthMol,
			GrowthWt:   row.GrowthWt,
			GrowthVol:  row.GrowthVol,
			DeltaMol:   row.DeltaMol,
			DeltaWt:    row.DeltaWt,
			EndMembers: em,
			Elements:   garnet.Elements{Mg: row.Mg, Mn: row.Mn, Fe: row.Fe, Ca: row.Ca},
		})
	}
	return records, nil
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

func rowToRun(row runRow) (*Run, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for run %s: %w", row.ID, err)
	}
	var oxides []string
	if err := json.Unmarshal([]byte(row.OxidesJSON), &oxides); err != nil {
		return nil, fmt.Errorf("decode oxides for run %s: %w", row.ID, err)
	}
	var bulk []float64
	if err := json.Unmarshal([]byte(row.BulkJSON), &bulk); err != nil {
		return nil, fmt.Errorf("decode bulk for run %s: %w", row.ID, err)
	}
	return &Run{
		ID:          row.ID,
		Kind:        row.Kind,
		CreatedAt:   createdAt,
		Phase:       row.Phase,
		Basis:       row.Basis,
		Fractionate: row.Fractionate != 0,
		Points:      row.Points,
		Oxides:      oxides,
		Bulk:        bulk,
	}, nil
}
