// Package scenario builds initial conditions without an input file.
package scenario

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/quillaja/nbody2d/physics"
)

// Disk scatters N bodies uniformly over disks around one or more cores,
// each on a circular orbit around its core. With no cores the bodies start
// at rest around the origin.
type Disk struct {
	Cores    []physics.Body
	N        int
	Spread   float64 // disk radius around each core, m
	MeanMass float64 // kg
	MassDev  float64 // standard deviation of the mass, kg
}

// Generate creates the universe. Cores come first, keeping their labels;
// the rest are labelled body<i>.
func (d Disk) Generate(rng *rand.Rand) physics.Universe {
	nc := len(d.Cores)
	bodies := make([]physics.Body, nc, nc+d.N)
	copy(bodies, d.Cores)

	for i := nc; i < nc+d.N; i++ {
		core := physics.Body{}
		if nc > 0 {
			core = d.Cores[rng.Intn(nc)]
		}

		m := math.Abs(rng.NormFloat64()*d.MassDev + d.MeanMass)
		if m == 0 {
			m = d.MeanMass
		}

		// never on top of the core, which would make the force undefined.
		var offset mgl64.Vec2
		for offset.Len() == 0 {
			x, y := uniformSampleDisk(rng, d.Spread)
			offset = mgl64.Vec2{x, y}
		}

		b := physics.Body{
			Label: fmt.Sprintf("body%d", i),
			Pos:   core.Pos.Add(offset),
			Vel:   core.Vel,
			Mass:  m,
		}
		if nc > 0 {
			// circular orbit, counter-clockwise around the core
			r := offset.Len()
			v := math.Sqrt(physics.G * core.Mass / r)
			b.Vel = b.Vel.Add(mgl64.Vec2{-offset[1], offset[0]}.Mul(v / r))
		}
		bodies = append(bodies, b)
	}

	return physics.Universe{Radius: extent(bodies), Bodies: bodies}
}

// uniformly (no bias towards center) sample a disk with the given radius.
func uniformSampleDisk(rng *rand.Rand, radius float64) (x, y float64) {
	r := radius * math.Sqrt(rng.Float64())
	theta := 2 * math.Pi * rng.Float64()
	sin, cos := math.Sincos(theta)
	return r * cos, r * sin
}

// radius that frames every body with a little margin.
func extent(bodies []physics.Body) float64 {
	r := 0.0
	for _, b := range bodies {
		r = math.Max(r, math.Max(math.Abs(b.Pos[0]), math.Abs(b.Pos[1])))
	}
	if r == 0 {
		return 1
	}
	return r * 1.1
}

// Planets is the sun and the four inner planets, all on the x axis.
func Planets() physics.Universe {
	return physics.Universe{
		Radius: 2.50e11,
		Bodies: []physics.Body{
			{Label: "earth.gif", Pos: mgl64.Vec2{1.4960e11, 0}, Vel: mgl64.Vec2{0, 2.9800e4}, Mass: 5.9740e24},
			{Label: "mars.gif", Pos: mgl64.Vec2{2.2790e11, 0}, Vel: mgl64.Vec2{0, 2.4100e4}, Mass: 6.4190e23},
			{Label: "mercury.gif", Pos: mgl64.Vec2{5.7900e10, 0}, Vel: mgl64.Vec2{0, 4.7900e4}, Mass: 3.3020e23},
			{Label: "sun.gif", Mass: 1.9890e30},
			{Label: "venus.gif", Pos: mgl64.Vec2{1.0820e11, 0}, Vel: mgl64.Vec2{0, 3.5000e4}, Mass: 4.8690e24},
		},
	}
}

// use physically realistic data to simulate sun and planets of solar system.
// planets alternate sides of the sun at their mean orbital distance.
func SolarSystem() physics.Universe {
	bodies := []physics.Body{
		{Label: "sun", Mass: 1.9885e30},
		{Label: "mercury", Mass: 3.3011e23,
			Pos: mgl64.Vec2{(69816900*1e3 + 46001200*1e3) / 2, 0}, Vel: mgl64.Vec2{0, 47.362 * 1e3}},
		{Label: "venus", Mass: 4.8675e24,
			Pos: mgl64.Vec2{-(108939000*1e3 + 107477000*1e3) / 2, 0}, Vel: mgl64.Vec2{0, -35.02 * 1e3}},
		{Label: "earth", Mass: 5.97237e24,
			Pos: mgl64.Vec2{(152100000*1e3 + 147095000*1e3) / 2, 0}, Vel: mgl64.Vec2{0, 29.78 * 1e3}},
		{Label: "mars", Mass: 6.4171e23,
			Pos: mgl64.Vec2{-(249200000*1e3 + 206700000*1e3) / 2, 0}, Vel: mgl64.Vec2{0, -24.007 * 1e3}},
		{Label: "jupiter", Mass: 1.8982e27,
			Pos: mgl64.Vec2{(816.2*1e6*1e3 + 740.52*1e6*1e3) / 2, 0}, Vel: mgl64.Vec2{0, 13.07 * 1e3}},
		{Label: "saturn", Mass: 5.6834e26,
			Pos: mgl64.Vec2{-(1514.5*1e6*1e3 + 1352.55*1e6*1e3) / 2, 0}, Vel: mgl64.Vec2{0, -9.68 * 1e3}},
		{Label: "uranus", Mass: 8.681e25,
			Pos: mgl64.Vec2{(3.008*1e9*1e3 + 2.742*1e9*1e3) / 2, 0}, Vel: mgl64.Vec2{0, 6.8 * 1e3}},
		{Label: "neptune", Mass: 1.02413e26,
			Pos: mgl64.Vec2{-(4.54e9*1e3 + 4.46e9*1e3) / 2, 0}, Vel: mgl64.Vec2{0, -5.43 * 1e3}},
	}
	return physics.Universe{Radius: extent(bodies), Bodies: bodies}
}
