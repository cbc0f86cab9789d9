package fluid

import "math"

// forceChunk accumulates pressure, viscosity and gravity forces for
// particles [start, end). Static particles get a zero force.
func (s *Solver) forceChunk(start, end int) int {
	for i := start; i < end; i++ {
		if !s.forceAt(i) {
			return i
		}
	}
	return -1
}

func (s *Solver) forceAt(i int) bool {
	prev := s.prev
	self := &prev[i]
	if !self.IsDynamic() {
		s.live[i].Force = Vec2{}
		return true
	}

	k := &s.kernels
	cfg := &s.cfg
	strict := cfg.Strict

	var fPress, fVisc Vec2
	for j := range prev {
		if j == i {
			continue
		}
		other := &prev[j]
		d := other.Position.Sub(self.Position)
		r2 := d.LenSq()
		if r2 >= k.H2 {
			continue
		}
		if !(other.Density > 0) {
			s.faults.set(i, j, "neighbor density", other.Density)
			return false
		}
		r := float32(math.Sqrt(float64(r2)))

		// Coincident particles have no pressure direction; viscosity still applies.
		if r > 0 {
			mag := cfg.Mass * (self.Pressure + other.Pressure) / (2 * other.Density) * k.SpikyGrad(r)
			fp := d.Scale(-mag / r)
			if strict && !fp.finite() {
				s.faults.set(i, j, "pressure force", fp.Len())
				return false
			}
			fPress = fPress.Add(fp)
		}

		visc := cfg.Viscosity * cfg.Mass / other.Density * k.ViscosityLaplacian(r)
		fv := other.Velocity.Sub(self.Velocity).Scale(visc)
		if strict && !fv.finite() {
			s.faults.set(i, j, "viscosity force", fv.Len())
			return false
		}
		fVisc = fVisc.Add(fv)
	}

	fGrav := cfg.Gravity.Scale(self.Density)
	f := fPress.Add(fVisc).Add(fGrav)
	s.live[i].Force = f

	if !f.finite() {
		s.faults.set(i, -1, "force", f.Len())
		return false
	}
	return true
}
