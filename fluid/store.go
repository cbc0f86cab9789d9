package fluid

import "fmt"

// Store is the ordered particle array owned by a solver. Order is stable:
// particles are appended by the emitter and never removed.
type Store struct {
	live []Particle
	prev []Particle // read-only copy for the running pass
}

// NewStore takes ownership of ps after checking for duplicate positions.
func NewStore(ps []Particle) (*Store, error) {
	if err := checkDuplicates(ps); err != nil {
		return nil, err
	}
	return &Store{live: ps}, nil
}

// Len returns the number of particles.
func (s *Store) Len() int { return len(s.live) }

// At returns a copy of particle i.
func (s *Store) At(i int) Particle { return s.live[i] }

// Append adds p at the end of the store.
func (s *Store) Append(p Particle) { s.live = append(s.live, p) }

// CopyInto copies the particles into dst, growing it if needed.
func (s *Store) CopyInto(dst []Particle) []Particle {
	if cap(dst) < len(s.live) {
		dst = make([]Particle, len(s.live))
	}
	dst = dst[:len(s.live)]
	copy(dst, s.live)
	return dst
}

// freeze copies the live array into the pass snapshot and returns both.
func (s *Store) freeze() (live, prev []Particle) {
	s.prev = s.CopyInto(s.prev)
	return s.live, s.prev
}

// checkDuplicates rejects exact position collisions and non-finite positions.
func checkDuplicates(ps []Particle) error {
	seen := make(map[Vec2]int, len(ps))
	for i := range ps {
		pos := ps[i].Position
		if !pos.finite() {
			return fmt.Errorf("%w: particle %d position (%v, %v) is not finite", ErrLayout, i, pos.X, pos.Y)
		}
		if j, ok := seen[pos]; ok {
			return fmt.Errorf("%w: particles %d and %d at (%v, %v)", ErrDuplicatePosition, j, i, pos.X, pos.Y)
		}
		seen[pos] = i
	}
	return nil
}
