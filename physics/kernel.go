package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// G = 6.67 × 10-11 N·m²/kg²
//   = 6.67e-11 m³/(kg·s²)
const G = 6.67e-11

// Distance between two points. Returns 0 when p1 == p2.
func Distance(p1, p2 mgl64.Vec2) float64 {
	dx := p1[0] - p2[0]
	dy := p1[1] - p2[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// Force is the magnitude of the gravitational force between masses m1 and m2
// that are r apart.
//
// r == 0 is not guarded: the result is +Inf, and callers dividing by r
// afterwards get NaN.
func Force(m1, m2, r float64) float64 {
	return (G * m1 * m2) / (r * r)
}
