package fluid

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
)

// Source is the emitter component holding where and how particles appear.
type Source struct {
	X, Y   float32
	Jitter float32
	VelX   float32
	VelY   float32
}

// Cadence is the emitter component counting ticks between emissions.
type Cadence struct {
	Interval  int
	Countdown int
}

// Emitter appends dynamic particles at its sources at the end of a tick.
// Sources are entities in an ECS world; emission stops once the store holds
// Limit particles.
type Emitter struct {
	world  *ecs.World
	mapper *ecs.Map2[Source, Cadence]
	filter *ecs.Filter2[Source, Cadence]
	rng    *rand.Rand

	limit   int
	sources int
	emitted int
}

// NewEmitter creates an emitter with no sources.
func NewEmitter(limit int, seed int64) *Emitter {
	world := ecs.NewWorld()
	return &Emitter{
		world:  world,
		mapper: ecs.NewMap2[Source, Cadence](world),
		filter: ecs.NewFilter2[Source, Cadence](world),
		rng:    rand.New(rand.NewSource(seed)),
		limit:  limit,
	}
}

// AddSource registers a source from its configuration.
func (e *Emitter) AddSource(cfg EmitterSource) ecs.Entity {
	src := Source{X: cfg.X, Y: cfg.Y, Jitter: cfg.Jitter, VelX: cfg.VelX, VelY: cfg.VelY}
	interval := max(cfg.Interval, 1)
	cad := Cadence{Interval: interval, Countdown: interval}
	e.sources++
	return e.mapper.NewEntity(&src, &cad)
}

// Limit returns the store size at which emission stops.
func (e *Emitter) Limit() int { return e.limit }

// Sources returns the number of registered sources.
func (e *Emitter) Sources() int { return e.sources }

// Emitted returns the total number of particles appended so far.
func (e *Emitter) Emitted() int { return e.emitted }

// Emit ticks every source and appends particles for those that fire.
// It returns the number of particles added.
func (e *Emitter) Emit(store *Store) int {
	added := 0
	query := e.filter.Query()
	for query.Next() {
		src, cad := query.Get()

		cad.Countdown--
		if cad.Countdown > 0 {
			continue
		}
		cad.Countdown = cad.Interval

		if store.Len() >= e.limit {
			continue
		}

		x, y := src.X, src.Y
		if src.Jitter > 0 {
			x += (e.rng.Float32()*2 - 1) * src.Jitter
			y += (e.rng.Float32()*2 - 1) * src.Jitter
		}
		if occupied(store, Vec2{x, y}) {
			continue
		}

		p := NewDynamic(x, y)
		p.Velocity = Vec2{src.VelX, src.VelY}
		store.Append(p)
		added++
	}
	e.emitted += added
	return added
}

// occupied reports whether a particle already sits exactly at pos.
func occupied(store *Store, pos Vec2) bool {
	for i := range store.live {
		if store.live[i].Position == pos {
			return true
		}
	}
	return false
}
