package main

import (
	"bytes"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/quillaja/nbody2d/physics"
	"github.com/quillaja/nbody2d/render"
	"github.com/quillaja/nbody2d/snapshot"
	"github.com/quillaja/nbody2d/store"
	"github.com/quillaja/nbody2d/textio"
)

func defaults(dir string) options {
	return options{
		total:    10 * 25000,
		dt:       25000,
		scenario: "planets",
		n:        10,
		seed:     1,
		width:    48,
		height:   48,
		every:    1,
		workers:  2,
		saveDir:  dir,
		quiet:    true,
	}
}

func TestRunRecordsEverything(t *testing.T) {
	dir := t.TempDir()
	opt := defaults(dir)
	opt.imgDir = filepath.Join(dir, "img")
	opt.dbFile = filepath.Join(dir, "bodies.sqlite")
	opt.save = true
	opt.every = 2

	var stdout, stderr bytes.Buffer
	if err := run(opt, strings.NewReader(""), &stdout, &stderr); err != nil {
		t.Fatal(err)
	}

	out, err := textio.Read(&stdout)
	if err != nil {
		t.Fatalf("final state: %v", err)
	}
	if out.N != 5 {
		t.Errorf("N = %d", out.N)
	}

	for step := 1; step <= 10; step++ {
		_, err := os.Stat(filepath.Join(opt.imgDir, render.Filename(step)))
		if step%2 == 0 && err != nil {
			t.Errorf("missing frame %d: %v", step, err)
		}
		if step%2 == 1 && err == nil {
			t.Errorf("frame %d rendered despite -every 2", step)
		}
	}

	db, err := store.Open(opt.dbFile)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	runs, err := db.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Frames != 5 || runs[0].Bodies != 5 {
		t.Fatalf("runs = %+v", runs)
	}
	last, err := db.Frame(runs[0].ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := range last.Bodies {
		got, printed := last.Bodies[i].Pos[0], out.Bodies[i].Pos[0]
		if math.Abs(got-printed) > 1e-4*math.Abs(printed) {
			t.Errorf("recorded body %d at x=%g, printed %g", i, got, printed)
		}
	}

	saved, err := snapshot.LoadFile(filepath.Join(dir, snapshot.Filename(10)))
	if err != nil {
		t.Fatal(err)
	}
	if saved.Step != 10 || saved.Clock != 250000 {
		t.Errorf("saved step %d clock %g", saved.Step, saved.Clock)
	}
	if !strings.Contains(stderr.String(), "Done.") {
		t.Errorf("stderr missing summary: %s", stderr.String())
	}
}

func TestResumeMatchesUninterruptedRun(t *testing.T) {
	dir := t.TempDir()

	whole := defaults(dir)
	whole.total = 8 * 25000
	var want bytes.Buffer
	if err := run(whole, nil, &want, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	first := defaults(dir)
	first.total = 5 * 25000
	first.save = true
	if err := run(first, nil, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	second := defaults(dir)
	second.total = 3 * 25000
	second.stateFile = filepath.Join(dir, snapshot.Filename(5))
	var got bytes.Buffer
	if err := run(second, nil, &got, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if got.String() != want.String() {
		t.Errorf("resumed run differs:\n%s\nwant:\n%s", got.String(), want.String())
	}
}

func TestRunFromStdinAndScenarios(t *testing.T) {
	input := "2 1e3 -10 0 0 0 1e10 a 10 0 0 0 1e10 b"
	opt := defaults(t.TempDir())
	opt.scenario = "stdin"
	opt.total, opt.dt = 10, 1
	var stdout bytes.Buffer
	if err := run(opt, strings.NewReader(input), &stdout, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout.String(), "2\n1.00e+03\n") {
		t.Errorf("output = %q", stdout.String())
	}

	for _, name := range []string{"solar", "disk"} {
		opt := defaults(t.TempDir())
		opt.scenario = name
		opt.total, opt.dt = 60, 1
		if err := run(opt, nil, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*options)
		input  string
		want   error
	}{
		{"unknown scenario", func(o *options) { o.scenario = "galaxy" }, "", physics.ErrInvalidArgument},
		{"every zero", func(o *options) { o.every = 0 }, "", physics.ErrInvalidArgument},
		{"bad step", func(o *options) { o.dt = 0 }, "", physics.ErrInvalidArgument},
		{"bad mass", func(o *options) { o.scenario = "stdin" }, "1 1 0 0 0 0 0 x", physics.ErrInvalidInput},
		{"missing state", func(o *options) { o.stateFile = "nope.data" }, "", os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := defaults(t.TempDir())
			tt.mutate(&opt)
			err := run(opt, strings.NewReader(tt.input), &bytes.Buffer{}, &bytes.Buffer{})
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	var pe *textio.ParseError
	opt := defaults(t.TempDir())
	opt.scenario = "stdin"
	if err := run(opt, strings.NewReader("3 1"), &bytes.Buffer{}, &bytes.Buffer{}); !errors.As(err, &pe) {
		t.Errorf("short input: got %v", err)
	}
}

func TestRunReportsIndexFailure(t *testing.T) {
	opt := defaults(t.TempDir())
	opt.dbFile = filepath.Join(t.TempDir(), "bodies.sqlite")

	// a table squatting on an index name makes the index build on close fail.
	raw, err := sql.Open("sqlite3", opt.dbFile)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec("CREATE TABLE idx_frame (x INTEGER);"); err != nil {
		t.Fatal(err)
	}
	raw.Close()

	err = run(opt, nil, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "create indices") {
		t.Errorf("got %v, want index error", err)
	}
}

func TestPoolStopsRunOnSinkError(t *testing.T) {
	boom := errors.New("disk full")
	var seen int32
	p := start(physics.ObserverFunc(func(f physics.Frame) error {
		atomic.AddInt32(&seen, 1)
		return boom
	}), 1, 0)

	e := physics.New(physics.WithObserver(p))
	if err := e.Initialize(1, 1, []physics.Body{{Mass: 1}}); err != nil {
		t.Fatal(err)
	}
	err := e.Run(1000, 1)
	if !errors.Is(err, boom) {
		t.Errorf("run error = %v", err)
	}
	if e.Steps() >= 1000 {
		t.Error("run was not stopped")
	}
	if err := p.close(); !errors.Is(err, boom) {
		t.Errorf("close error = %v", err)
	}
	if atomic.LoadInt32(&seen) != 1 {
		t.Errorf("sink saw %d frames after failing", seen)
	}
}

func TestPoolCopiesFrames(t *testing.T) {
	got := make(chan physics.Frame, 1)
	p := start(physics.ObserverFunc(func(f physics.Frame) error {
		got <- f
		return nil
	}), 1, 1)

	u := physics.Universe{Radius: 1, Bodies: []physics.Body{{Label: "a", Mass: 1}}}
	if err := p.Observe(physics.Frame{Step: 1, Universe: u}); err != nil {
		t.Fatal(err)
	}
	u.Bodies[0].Label = "changed"
	if err := p.close(); err != nil {
		t.Fatal(err)
	}
	if f := <-got; f.Universe.Bodies[0].Label != "a" {
		t.Errorf("worker saw caller's later write: %v", f.Universe.Bodies[0])
	}
}
