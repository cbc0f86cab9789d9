package fluid

// densityChunk computes density and pressure for particles [start, end),
// dynamic and static alike. It returns the first failing index or -1.
func (s *Solver) densityChunk(start, end int) int {
	for i := start; i < end; i++ {
		if !s.densityAt(i) {
			return i
		}
	}
	return -1
}

func (s *Solver) densityAt(i int) bool {
	prev := s.prev
	k := &s.kernels
	mass := s.cfg.Mass
	pi := prev[i].Position

	// Index order keeps the sum bitwise identical for any partitioning.
	var rho float32
	for j := range prev {
		r2 := prev[j].Position.Sub(pi).LenSq()
		if r2 >= k.H2 {
			continue
		}
		w := mass * k.DensitySq(r2)
		if s.cfg.Strict && (!finite32(w) || w < 0) {
			s.faults.set(i, j, "density", w)
			return false
		}
		rho += w
	}

	p := &s.live[i]
	p.Density = rho
	p.Pressure = s.cfg.GasConst * (rho - s.cfg.RestDensity)

	switch {
	case !finite32(rho) || rho < 0:
		s.faults.set(i, -1, "density", rho)
		return false
	case rho == 0 && p.IsDynamic():
		s.faults.set(i, -1, "density", rho)
		return false
	case !finite32(p.Pressure):
		s.faults.set(i, -1, "pressure", p.Pressure)
		return false
	}
	return true
}
