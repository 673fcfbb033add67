package physics

// KineticEnergy is the sum of ½mv² over all bodies, in joules.
func KineticEnergy(u Universe) float64 {
	e := 0.0
	for _, b := range u.Bodies {
		e += 0.5 * b.Mass * b.Vel.Dot(b.Vel)
	}
	return e
}

// PotentialEnergy is the gravitational potential energy of every distinct
// pair, in joules. Always <= 0.
func PotentialEnergy(u Universe) float64 {
	e := 0.0
	for i := 0; i < len(u.Bodies); i++ {
		for j := i + 1; j < len(u.Bodies); j++ {
			r := Distance(u.Bodies[i].Pos, u.Bodies[j].Pos)
			e -= G * u.Bodies[i].Mass * u.Bodies[j].Mass / r
		}
	}
	return e
}

// TotalEnergy is kinetic plus potential energy.
func TotalEnergy(u Universe) float64 {
	return KineticEnergy(u) + PotentialEnergy(u)
}

// Momentum is the total linear momentum of the universe.
func Momentum(u Universe) (px, py float64) {
	for _, b := range u.Bodies {
		px += b.Mass * b.Vel[0]
		py += b.Mass * b.Vel[1]
	}
	return
}
