package fluid

// integrateChunk advances velocity and position of dynamic particles in
// [start, end) with semi-implicit Euler. Each particle reads only its own
// fields, so this pass works on the live array directly.
func (s *Solver) integrateChunk(start, end int) int {
	for i := start; i < end; i++ {
		if !s.integrateAt(i) {
			return i
		}
	}
	return -1
}

func (s *Solver) integrateAt(i int) bool {
	p := &s.live[i]
	if !p.IsDynamic() {
		return true
	}
	if !(p.Density > 0) {
		s.faults.set(i, -1, "density", p.Density)
		return false
	}

	dt := s.cfg.DT
	v := p.Velocity.addScaled(p.Force, dt/p.Density)
	if !v.finite() {
		s.faults.set(i, -1, "velocity", v.Len())
		return false
	}
	x := p.Position.addScaled(v, dt)

	if s.cfg.Boundary == BoundaryClampDamped {
		x, v = s.clamp(x, v)
	}
	if !x.finite() {
		s.faults.set(i, -1, "position", x.Len())
		return false
	}

	p.Velocity = v
	p.Position = x
	return true
}

// clamp keeps x inside [H, extent-H] on both axes, scaling the velocity
// component that hit a wall by the damping coefficient.
func (s *Solver) clamp(x, v Vec2) (Vec2, Vec2) {
	h := s.cfg.H
	damp := s.cfg.Damping
	maxX := s.cfg.Width - h
	maxY := s.cfg.Height - h

	if x.X < h {
		x.X = h
		v.X *= damp
	} else if x.X > maxX {
		x.X = maxX
		v.X *= damp
	}
	if x.Y < h {
		x.Y = h
		v.Y *= damp
	} else if x.Y > maxY {
		x.Y = maxY
		v.Y *= damp
	}
	return x, v
}
