package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Body is a single point mass.
type Body struct {
	Label string     // opaque display identifier, never interpreted
	Pos   mgl64.Vec2 // m
	Vel   mgl64.Vec2 // m/s
	Mass  float64    // kg

	force mgl64.Vec2 // accumulated force, recomputed every step
}

// Force returns the net force accumulated on b during the last step.
func (b Body) Force() mgl64.Vec2 { return b.force }

func (b Body) String() string {
	return fmt.Sprintf("%s m: %.4e p: [%.4e, %.4e] v: [%.4e, %.4e]",
		b.Label, b.Mass, b.Pos[0], b.Pos[1], b.Vel[0], b.Vel[1])
}

// Universe is the ordered set of bodies being simulated plus the radius of
// the region the renderer draws. Radius plays no part in the physics.
type Universe struct {
	Radius float64
	Bodies []Body
}

// Len is the number of bodies.
func (u Universe) Len() int { return len(u.Bodies) }

// Clone returns a deep copy of u.
func (u Universe) Clone() Universe {
	c := Universe{Radius: u.Radius}
	if u.Bodies != nil {
		c.Bodies = make([]Body, len(u.Bodies))
		copy(c.Bodies, u.Bodies)
	}
	return c
}
