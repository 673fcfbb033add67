package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

/*

brute force O(n^2) gravity with semi-implicit euler integration.

*/

// Frame is the state of the universe right after a completed step.
// Universe is the engine's live state and is only valid for the duration of
// an Observe call; call Clone to keep it.
type Frame struct {
	Step     int     // number of steps taken so far
	Clock    float64 // simulated seconds elapsed
	Universe Universe
}

// Observer is notified by Run after every completed step. A non-nil error
// stops the run.
type Observer interface {
	Observe(f Frame) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(f Frame) error

func (fn ObserverFunc) Observe(f Frame) error { return fn(f) }

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers observers at construction.
func WithObserver(obs ...Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs...) }
}

// Engine owns a universe and advances it through time.
//
// An Engine starts uninitialized; Step and Run fail with ErrNotInitialized
// until Initialize succeeds. Engines share no state with each other, but a
// single Engine must not be used from multiple goroutines at once.
type Engine struct {
	universe  Universe
	ready     bool
	steps     int
	clock     float64
	observers []Observer
}

// New creates an uninitialized engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observe registers observers to be notified after each step of Run.
func (e *Engine) Observe(obs ...Observer) {
	e.observers = append(e.observers, obs...)
}

// Initialize sets up the universe from bodyCount bodies inside radius.
// bodies is copied. On error the engine is left as it was.
func (e *Engine) Initialize(bodyCount int, radius float64, bodies []Body) error {
	if bodyCount <= 0 {
		return fmt.Errorf("%w: body count %d must be positive", ErrInvalidInput, bodyCount)
	}
	if len(bodies) != bodyCount {
		return fmt.Errorf("%w: expected %d bodies, got %d", ErrInvalidInput, bodyCount, len(bodies))
	}
	for i := range bodies {
		if !(bodies[i].Mass > 0) { // also catches NaN
			return fmt.Errorf("%w: body %d (%s) has mass %g", ErrInvalidInput, i, bodies[i].Label, bodies[i].Mass)
		}
	}

	u := Universe{Radius: radius, Bodies: make([]Body, bodyCount)}
	copy(u.Bodies, bodies)
	for i := range u.Bodies {
		u.Bodies[i].force = mgl64.Vec2{}
	}

	e.universe = u
	e.ready = true
	e.steps = 0
	e.clock = 0
	return nil
}

// Restore initializes the engine from a previously captured frame,
// continuing its step count and clock.
func (e *Engine) Restore(f Frame) error {
	if f.Step < 0 || math.IsNaN(f.Clock) || math.IsInf(f.Clock, 0) {
		return fmt.Errorf("%w: cannot restore step %d at clock %g", ErrInvalidInput, f.Step, f.Clock)
	}
	if err := e.Initialize(f.Universe.Len(), f.Universe.Radius, f.Universe.Bodies); err != nil {
		return err
	}
	e.steps = f.Step
	e.clock = f.Clock
	return nil
}

// Ready reports whether the engine has been initialized.
func (e *Engine) Ready() bool { return e.ready }

// Steps is the number of steps taken since initialization.
func (e *Engine) Steps() int { return e.steps }

// Clock is the simulated time elapsed since initialization.
func (e *Engine) Clock() float64 { return e.clock }

// Force returns the net force on body i from the last step.
func (e *Engine) Force(i int) mgl64.Vec2 { return e.universe.Bodies[i].force }

// FinalState returns a copy of the current universe. Before initialization
// it is the zero Universe.
func (e *Engine) FinalState() Universe { return e.universe.Clone() }

// Step advances the universe by exactly dt seconds. Observers are not
// notified; that is Run's job.
//
// Two bodies at the same position are not guarded against: the force
// between them is 0/0 and their velocities and positions become NaN for the
// rest of the run.
func (e *Engine) Step(dt float64) error {
	if !e.ready {
		return ErrNotInitialized
	}
	e.step(dt)
	e.steps++
	e.clock += dt
	return nil
}

// Run advances the universe while the run clock, starting at 0, is below
// totalTime, notifying observers after every step. Only whole steps are
// taken: Run(10, 3) takes 3 steps.
func (e *Engine) Run(totalTime, dt float64) error {
	if !e.ready {
		return ErrNotInitialized
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: time step %g must be positive and finite", ErrInvalidArgument, dt)
	}
	if math.IsNaN(totalTime) || math.IsInf(totalTime, 0) {
		return fmt.Errorf("%w: total time %g must be finite", ErrInvalidArgument, totalTime)
	}

	n, err := StepCount(totalTime, dt)
	if err != nil {
		return err
	}
	base := e.clock
	for k := 0; k < n; k++ {
		e.step(dt)
		e.steps++
		e.clock = base + float64(k+1)*dt // not accumulated, so no drift in the step count

		if err := e.notify(); err != nil {
			return fmt.Errorf("step %d: %w", e.steps, err)
		}
	}
	return nil
}

// maxSteps is the largest step count a run may take. Past 2^53 a float64
// ratio no longer holds whole numbers.
const maxSteps = 1 << 53

// StepCount is the number of whole steps of size dt that fit in totalTime.
// A ratio within a few ulps below an integer counts as that integer, since
// an exact multiple such as 0.3/0.1 divides to 2.9999999999999996.
func StepCount(totalTime, dt float64) (int, error) {
	if !(totalTime > 0) || !(dt > 0) {
		return 0, nil
	}
	q := totalTime / dt
	if q > maxSteps {
		return 0, fmt.Errorf("%w: %g steps of %g sec is too many", ErrInvalidArgument, q, dt)
	}
	n := math.Floor(q)
	if up := n + 1; up-q <= 4*(math.Nextafter(q, math.Inf(1))-q) {
		n = up
	}
	return int(n), nil
}

func (e *Engine) notify() error {
	if len(e.observers) == 0 {
		return nil
	}
	f := Frame{Step: e.steps, Clock: e.clock, Universe: e.universe}
	for _, obs := range e.observers {
		if err := obs.Observe(f); err != nil {
			return err
		}
	}
	return nil
}

// one step: every force is computed from the old state before any body moves.
func (e *Engine) step(dt float64) {
	bodies := e.universe.Bodies
	for i := range bodies {
		accumulate(bodies, i)
	}
	for i := range bodies {
		bodies[i].update(dt)
	}
}

// sets the force on bodies[i] to the sum of the pull of every other body.
func accumulate(bodies []Body, i int) {
	a := &bodies[i]
	a.force = mgl64.Vec2{}
	for j := range bodies {
		if i == j {
			continue
		}
		b := &bodies[j]

		dx := b.Pos[0] - a.Pos[0]
		dy := b.Pos[1] - a.Pos[1]
		r := Distance(a.Pos, b.Pos)
		f := Force(a.Mass, b.Mass, r)

		a.force[0] += f * dx / r
		a.force[1] += f * dy / r
	}
}

// update body velocity, then position using the new velocity.
func (b *Body) update(dt float64) {
	// a = F/m
	ax := b.force[0] / b.Mass
	ay := b.force[1] / b.Mass

	// dv = a*dt
	b.Vel[0] += dt * ax
	b.Vel[1] += dt * ay

	// dp = v*dt
	b.Pos[0] += dt * b.Vel[0]
	b.Pos[1] += dt * b.Vel[1]
}
