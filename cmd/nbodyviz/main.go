// Command nbodyviz runs an n-body simulation and records it: PNG frames,
// an sqlite database of every body at every step, and a snapshot of the
// final state that a later run can resume from.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/nbody2d/physics"
	"github.com/quillaja/nbody2d/render"
	"github.com/quillaja/nbody2d/scenario"
	"github.com/quillaja/nbody2d/snapshot"
	"github.com/quillaja/nbody2d/store"
	"github.com/quillaja/nbody2d/textio"
)

var (
	heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	bad     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

type options struct {
	total, dt     float64
	scenario      string
	n             int
	seed          int64
	imgDir        string
	width, height int
	tail          float64
	dbFile        string
	save          bool
	saveDir       string
	stateFile     string
	every         int
	workers       int
	quiet         bool
}

func main() {
	var opt options
	flag.Float64Var(&opt.total, "t", 157788000, "seconds to simulate")
	flag.Float64Var(&opt.dt, "dt", 25000, "seconds per step")
	flag.StringVar(&opt.scenario, "scenario", "stdin", "initial conditions: stdin, planets, solar or disk")
	flag.IntVar(&opt.n, "n", 100, "number of bodies for the disk scenario")
	flag.Int64Var(&opt.seed, "seed", 1, "random seed for the disk scenario")
	flag.StringVar(&opt.imgDir, "img", "", "directory to render png frames into")
	flag.IntVar(&opt.width, "width", 1080, "image width")
	flag.IntVar(&opt.height, "height", 1080, "image height")
	flag.Float64Var(&opt.tail, "tail", 0, "seconds of motion drawn behind each body")
	flag.StringVar(&opt.dbFile, "db", "", "sqlite file to record frames into")
	flag.BoolVar(&opt.save, "save", false, "set to save the final simulation state")
	flag.StringVar(&opt.saveDir, "savedir", ".", "directory for -save")
	flag.StringVar(&opt.stateFile, "state", "", "simulation state to resume from")
	flag.IntVar(&opt.every, "every", 1, "record every n-th step")
	flag.IntVar(&opt.workers, "workers", 2, "image output workers")
	flag.BoolVar(&opt.quiet, "q", false, "no progress output")
	flag.Parse()

	if err := run(opt, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, bad.Render(err.Error()))
		os.Exit(1)
	}
}

func run(opt options, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	if opt.every < 1 || opt.workers < 1 {
		return fmt.Errorf("%w: -every and -workers must be at least 1", physics.ErrInvalidArgument)
	}

	e := physics.New()
	if err := initialize(e, opt, stdin); err != nil {
		return err
	}
	startStep, startClock := e.Steps(), e.Clock()
	steps, err := physics.StepCount(opt.total, opt.dt)
	if err != nil {
		return err
	}

	// setup frame outputs
	var sinks []physics.Observer
	var workers []int
	if opt.imgDir != "" {
		r, err := render.New(opt.imgDir, opt.width, opt.height)
		if err != nil {
			return err
		}
		r.Tail = opt.tail
		sinks = append(sinks, r)
		workers = append(workers, opt.workers)
	}
	if opt.dbFile != "" {
		var db *store.DB
		if db, err = store.Open(opt.dbFile); err != nil {
			return err
		}
		defer func() {
			// indices are built on close
			if cerr := db.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		u := e.FinalState()
		var rec *store.Recorder
		if rec, err = db.NewRecorder(u.Radius, u.Len()); err != nil {
			return err
		}
		defer rec.Close()
		fmt.Fprintf(stderr, "%s %s\n", dim.Render("run id:"), rec.Run)
		sinks = append(sinks, rec)
		workers = append(workers, 1) // sqlite allows only one writer
	}
	pools := make([]*pool, len(sinks))
	for i := range sinks {
		pools[i] = start(sinks[i], workers[i], 32)
		e.Observe(every(opt.every, pools[i]))
	}

	// print parameters
	u0 := e.FinalState()
	fmt.Fprintln(stderr, heading.Render("nbody"))
	fmt.Fprintf(stderr, "bodies: %d\nradius: %.2e m\nstep: %g sec\nsteps: %d\nsimulation time: %.1f days\nimages: %t\ndatabase: %t\n",
		u0.Len(), u0.Radius, opt.dt, steps,
		float64(steps)*opt.dt/(60*60*24),
		opt.imgDir != "", opt.dbFile != "")

	began := time.Now()
	if !opt.quiet {
		e.Observe(progress(stderr, began, startStep, steps))
	}
	runErr := e.Run(opt.total, opt.dt)
	for _, p := range pools {
		if err := p.close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(stderr, "\nDone. Took %s\n", time.Since(began).Truncate(time.Millisecond))

	final := e.FinalState()
	report(stderr, u0, final, e.Clock()-startClock)

	// export final state of simulation
	if opt.save {
		name := filepath.Join(opt.saveDir, snapshot.Filename(e.Steps()))
		err := snapshot.SaveFile(name, physics.Frame{Step: e.Steps(), Clock: e.Clock(), Universe: final})
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "%s %s\n", dim.Render("saved:"), name)
	}

	return textio.Write(stdout, final)
}

// load the starting universe from a snapshot, a scenario or stdin.
func initialize(e *physics.Engine, opt options, stdin io.Reader) error {
	if opt.stateFile != "" {
		f, err := snapshot.LoadFile(opt.stateFile)
		if err != nil {
			return err
		}
		return e.Restore(f)
	}

	var u physics.Universe
	switch opt.scenario {
	case "stdin", "":
		in, err := textio.Read(stdin)
		if err != nil {
			return err
		}
		return e.Initialize(in.N, in.Radius, in.Bodies)
	case "planets":
		u = scenario.Planets()
	case "solar":
		u = scenario.SolarSystem()
	case "disk":
		// two heavy cores circling each other, each with its own swarm.
		const coreMass = 1e26
		sep := 2e8
		v := math.Sqrt(physics.G * coreMass / (2 * sep))
		d := scenario.Disk{
			Cores: []physics.Body{
				{Label: "core0", Mass: coreMass, Pos: mgl64.Vec2{-sep / 2, 0}, Vel: mgl64.Vec2{0, -v}},
				{Label: "core1", Mass: coreMass, Pos: mgl64.Vec2{sep / 2, 0}, Vel: mgl64.Vec2{0, v}},
			},
			N:        opt.n,
			Spread:   sep / 4,
			MeanMass: 1e18,
			MassDev:  1e17,
		}
		u = d.Generate(rand.New(rand.NewSource(opt.seed)))
	default:
		return fmt.Errorf("%w: unknown scenario %q", physics.ErrInvalidArgument, opt.scenario)
	}
	return e.Initialize(u.Len(), u.Radius, u.Bodies)
}

// progress prints a status line, at most every 100ms.
func progress(w io.Writer, start time.Time, startStep, steps int) physics.Observer {
	var last time.Time
	return physics.ObserverFunc(func(f physics.Frame) error {
		done := f.Step - startStep
		if time.Since(last) < 100*time.Millisecond && done != steps {
			return nil
		}
		last = time.Now()

		perStep := time.Since(start) / time.Duration(done)
		left := perStep * time.Duration(steps-done)
		fmt.Fprintf(w, "%.1f%%, %s/step, %s remaining, %s elapsed                    \r",
			100*float64(done)/float64(steps),
			perStep,
			left.Truncate(time.Second),
			time.Since(start).Truncate(time.Second))
		return nil
	})
}

// report energy and momentum drift over the run.
func report(w io.Writer, before, after physics.Universe, elapsed float64) {
	e0, e1 := physics.TotalEnergy(before), physics.TotalEnergy(after)
	px0, py0 := physics.Momentum(before)
	px1, py1 := physics.Momentum(after)

	fmt.Fprintln(w, heading.Render("energy"))
	fmt.Fprintf(w, "simulated: %.1f days\n", elapsed/(60*60*24))
	fmt.Fprintf(w, "total energy: %.6e J -> %.6e J (drift %.3e)\n", e0, e1, math.Abs((e1-e0)/e0))
	fmt.Fprintf(w, "momentum: (%.4e, %.4e) -> (%.4e, %.4e) kg·m/s\n", px0, py0, px1, py1)
}
