// Package store records simulation frames to an sqlite database.
//
// Every recording gets a run id, so one database file can hold many runs.
// Each frame is one transaction with one row per body.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/quillaja/nbody2d/physics"
)

/*
only one writer is useful: sqlite allows a single writer at a time, so the
recorder should be fed by one goroutine.
journal and sync are off, trading crash safety for insert speed.
*/

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id 		TEXT PRIMARY KEY, -- uuid
	created TEXT,
	radius 	REAL,
	bodies 	INTEGER);

CREATE TABLE IF NOT EXISTS bodies (
	run 	TEXT,
	step 	INTEGER,
	idx 	INTEGER, -- body index
	label 	TEXT,
	x 		REAL,
	y 		REAL,
	vx 		REAL,
	vy 		REAL,
	mass 	REAL);
`

const indices = `
CREATE INDEX IF NOT EXISTS idx_frame ON bodies (run, step, idx);
CREATE INDEX IF NOT EXISTS idx_label ON bodies (run, label);
`

const (
	insertRun  = `INSERT INTO runs VALUES (?, ?, ?, ?);`
	insertBody = `INSERT INTO bodies VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`
	queryRun   = `SELECT radius FROM runs WHERE id = ?;`
	queryFrame = `SELECT label, x, y, vx, vy, mass FROM bodies WHERE run = ? AND step = ? ORDER BY idx ASC;`
	queryRuns  = `
SELECT r.id, r.created, r.radius, r.bodies,
	(SELECT COUNT(DISTINCT step) FROM bodies b WHERE b.run = r.id)
FROM runs r ORDER BY r.created ASC, r.rowid ASC;`
)

// fixed width, so created sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNoFrame is returned when a requested frame was never recorded.
var ErrNoFrame = errors.New("store: no such frame")

// DB is an open frame database.
type DB struct {
	db *sql.DB
}

// Run describes one recording.
type Run struct {
	ID      uuid.UUID
	Created time.Time
	Radius  float64
	Bodies  int
	Frames  int
}

// Open opens (creating if needed) the database in filename.
func Open(filename string) (*DB, error) {
	db, err := sql.Open("sqlite3", "file:"+filename+"?_journal_mode=OFF&_synchronous=OFF")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}
	return &DB{db: db}, nil
}

// Close builds the query indices and closes the database. Indices are left
// until the end so inserts stay fast.
func (d *DB) Close() error {
	if _, err := d.db.Exec(indices); err != nil {
		d.db.Close()
		return fmt.Errorf("store: create indices: %w", err)
	}
	return d.db.Close()
}

// Recorder writes every frame it observes under a fresh run id.
type Recorder struct {
	Run  uuid.UUID
	stmt *sql.Stmt
	db   *sql.DB
}

// NewRecorder registers a run of n bodies in a universe of the given radius.
func (d *DB) NewRecorder(radius float64, n int) (*Recorder, error) {
	id := uuid.New()
	if _, err := d.db.Exec(insertRun, id.String(), time.Now().UTC().Format(timeFormat), radius, n); err != nil {
		return nil, fmt.Errorf("store: register run: %w", err)
	}
	stmt, err := d.db.Prepare(insertBody)
	if err != nil {
		return nil, err
	}
	return &Recorder{Run: id, stmt: stmt, db: d.db}, nil
}

// Observe stores f, all bodies or none.
func (r *Recorder) Observe(f physics.Frame) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(r.stmt)
	run := r.Run.String()
	for i, b := range f.Universe.Bodies {
		_, err = stmt.Exec(run, f.Step, i, b.Label, b.Pos[0], b.Pos[1], b.Vel[0], b.Vel[1], b.Mass)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("store: step %d body %d: %w", f.Step, i, err)
		}
	}
	return tx.Commit()
}

// Close releases the recorder's prepared statement.
func (r *Recorder) Close() error { return r.stmt.Close() }

// Frame reads back the universe recorded for run at step.
func (d *DB) Frame(run uuid.UUID, step int) (physics.Universe, error) {
	var u physics.Universe
	if err := d.db.QueryRow(queryRun, run.String()).Scan(&u.Radius); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, fmt.Errorf("%w: unknown run %s", ErrNoFrame, run)
		}
		return u, err
	}

	rows, err := d.db.Query(queryFrame, run.String(), step)
	if err != nil {
		return u, err
	}
	defer rows.Close()

	for rows.Next() {
		var b physics.Body
		var x, y, vx, vy, m sql.NullFloat64
		if err := rows.Scan(&b.Label, &x, &y, &vx, &vy, &m); err != nil {
			return u, err
		}
		b.Pos = mgl64.Vec2{orNaN(x), orNaN(y)}
		b.Vel = mgl64.Vec2{orNaN(vx), orNaN(vy)}
		b.Mass = orNaN(m)
		u.Bodies = append(u.Bodies, b)
	}
	if err := rows.Err(); err != nil {
		return u, err
	}
	if len(u.Bodies) == 0 {
		return u, fmt.Errorf("%w: run %s step %d", ErrNoFrame, run, step)
	}
	return u, nil
}

// sqlite stores NaN as NULL.
func orNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

// Runs lists every recording, oldest first.
func (d *DB) Runs() ([]Run, error) {
	rows, err := d.db.Query(queryRuns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var id, created string
		if err := rows.Scan(&id, &created, &r.Radius, &r.Bodies, &r.Frames); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: run id %q: %w", id, err)
		}
		if r.Created, err = time.Parse(timeFormat, created); err != nil {
			return nil, fmt.Errorf("store: run %s: %w", id, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
