package fluid

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrLayout is returned when the scene cannot be placed in the domain.
	ErrLayout = errors.New("scene layout does not fit domain")
	// ErrDuplicatePosition is returned when two particles share a position.
	ErrDuplicatePosition = errors.New("duplicate particle position")
	// ErrInstability is matched by every *InstabilityError.
	ErrInstability = errors.New("numerical instability")
)

// Pass names used in faults and perf phases.
const (
	PassDensity   = "density"
	PassForces    = "forces"
	PassIntegrate = "integrate"
	PassEmit      = "emit"
)

// InstabilityError describes a non-finite or non-positive value found while
// advancing. Once returned, the solver stays faulted.
type InstabilityError struct {
	Tick     uint64
	Pass     string
	Index    int
	Neighbor int // -1 when the fault is not tied to a pair
	Field    string
	Value    float32
}

func (e *InstabilityError) Error() string {
	if e.Neighbor >= 0 {
		return fmt.Sprintf("tick %d %s pass: particle %d %s = %v (pair with %d)",
			e.Tick, e.Pass, e.Index, e.Field, e.Value, e.Neighbor)
	}
	return fmt.Sprintf("tick %d %s pass: particle %d %s = %v",
		e.Tick, e.Pass, e.Index, e.Field, e.Value)
}

// Is makes errors.Is(err, ErrInstability) true.
func (e *InstabilityError) Is(target error) bool { return target == ErrInstability }

// LogValue implements slog.LogValuer.
func (e *InstabilityError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("tick", e.Tick),
		slog.String("pass", e.Pass),
		slog.Int("index", e.Index),
		slog.Int("neighbor", e.Neighbor),
		slog.String("field", e.Field),
		slog.Float64("value", float64(e.Value)),
	)
}

// fault is the diagnostic a pass records for a failing particle. Slots are
// only read for the index the pool reports as failed.
type fault struct {
	neighbor int
	field    string
	value    float32
}

// faults holds one slot per particle. Each pass worker writes only the
// slots of particles it owns.
type faults struct {
	slots []fault
}

func (f *faults) reset(n int) {
	if cap(f.slots) < n {
		f.slots = make([]fault, n)
	}
	f.slots = f.slots[:n]
}

func (f *faults) set(i, neighbor int, field string, value float32) {
	f.slots[i] = fault{neighbor: neighbor, field: field, value: value}
}

func (f *faults) toError(tick uint64, pass string, i int) *InstabilityError {
	s := f.slots[i]
	return &InstabilityError{
		Tick:     tick,
		Pass:     pass,
		Index:    i,
		Neighbor: s.neighbor,
		Field:    s.field,
		Value:    s.value,
	}
}
