package fluid

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/sphfluid/parallel"
)

// PhaseRecorder receives pass timings. telemetry.PerfCollector implements it.
type PhaseRecorder interface {
	StartTick()
	StartPhase(name string)
	EndTick()
}

type nopRecorder struct{}

func (nopRecorder) StartTick()        {}
func (nopRecorder) StartPhase(string) {}
func (nopRecorder) EndTick()          {}

// Solver advances a particle store by one fixed timestep per call.
type Solver struct {
	cfg     Config
	kernels Kernels
	store   *Store
	pool    *parallel.Pool
	emitter *Emitter
	perf    PhaseRecorder

	// live and prev are valid for the duration of a pass.
	live []Particle
	prev []Particle

	densityFn   parallel.ChunkFunc
	forceFn     parallel.ChunkFunc
	integrateFn parallel.ChunkFunc

	faults      faults
	tick        uint64
	lastEmitted int
	err         error
}

// New validates cfg, builds the initial scene and returns a solver.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ps, err := BuildScene(cfg)
	if err != nil {
		return nil, err
	}
	return newSolver(cfg, ps)
}

// NewFromParticles returns a solver resuming from ps, which is copied.
func NewFromParticles(cfg Config, ps []Particle) (*Solver, error) {
	return NewFromParticlesAt(cfg, ps, 0)
}

// NewFromParticlesAt is NewFromParticles with the tick counter starting at
// tick, so a resumed run keeps counting from where its snapshot was taken.
func NewFromParticlesAt(cfg Config, ps []Particle, tick uint64) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	own := make([]Particle, len(ps))
	copy(own, ps)
	s, err := newSolver(cfg, own)
	if err != nil {
		return nil, err
	}
	s.tick = tick
	return s, nil
}

func newSolver(cfg Config, ps []Particle) (*Solver, error) {
	store, err := NewStore(ps)
	if err != nil {
		return nil, err
	}
	if cfg.Emitter.Enabled && store.Len() > cfg.Emitter.MaxParticles {
		return nil, fmt.Errorf("%w: %d particles exceed emitter cap %d",
			ErrInvalidConfig, store.Len(), cfg.Emitter.MaxParticles)
	}

	s := &Solver{
		cfg:     cfg,
		kernels: NewKernels(cfg.H),
		store:   store,
		pool:    parallel.NewPool(cfg.Workers, cfg.ParallelThreshold),
		perf:    nopRecorder{},
	}
	s.densityFn = s.densityChunk
	s.forceFn = s.forceChunk
	s.integrateFn = s.integrateChunk

	if cfg.Emitter.Enabled {
		s.emitter = NewEmitter(cfg.Emitter.MaxParticles, cfg.Seed+1)
		for _, src := range cfg.Emitter.Sources {
			s.emitter.AddSource(src)
		}
	}

	slog.Debug("fluid solver ready",
		"particles", store.Len(),
		"boundary", cfg.Boundary.String(),
		"workers", s.pool.Workers(),
		"strict", cfg.Strict,
	)
	return s, nil
}

// SetPerf installs a recorder for pass timings. nil disables recording.
func (s *Solver) SetPerf(r PhaseRecorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.perf = r
}

// Advance runs density/pressure, forces, integration and emission once.
// A detected fault is returned as *InstabilityError and the solver stays
// faulted: every later call returns the same error.
func (s *Solver) Advance() error {
	if s.err != nil {
		return s.err
	}
	s.perf.StartTick()
	defer s.perf.EndTick()

	s.live, s.prev = s.store.freeze()
	n := len(s.live)
	s.faults.reset(n)

	s.perf.StartPhase(PassDensity)
	if i := s.pool.Run(n, s.densityFn); i >= 0 {
		return s.fail(PassDensity, i)
	}

	// Forces read the densities and pressures written above.
	s.perf.StartPhase(PassForces)
	s.live, s.prev = s.store.freeze()
	if i := s.pool.Run(n, s.forceFn); i >= 0 {
		return s.fail(PassForces, i)
	}

	s.perf.StartPhase(PassIntegrate)
	if i := s.pool.Run(n, s.integrateFn); i >= 0 {
		return s.fail(PassIntegrate, i)
	}

	s.lastEmitted = 0
	if s.emitter != nil {
		s.perf.StartPhase(PassEmit)
		s.lastEmitted = s.emitter.Emit(s.store)
	}

	s.live, s.prev = nil, nil
	s.tick++
	return nil
}

func (s *Solver) fail(pass string, i int) error {
	s.err = s.faults.toError(s.tick, pass, i)
	s.live, s.prev = nil, nil
	return s.err
}

// Err returns the fault that stopped the solver, if any.
func (s *Solver) Err() error { return s.err }

// Tick returns the number of completed ticks.
func (s *Solver) Tick() uint64 { return s.tick }

// Len returns the current particle count.
func (s *Solver) Len() int { return s.store.Len() }

// LastEmitted returns how many particles the last tick appended.
func (s *Solver) LastEmitted() int { return s.lastEmitted }

// Config returns the solver configuration.
func (s *Solver) Config() Config { return s.cfg }

// Kernels returns the precomputed kernels.
func (s *Solver) Kernels() Kernels { return s.kernels }

// Emitter returns the emitter, or nil when emission is disabled.
func (s *Solver) Emitter() *Emitter { return s.emitter }

// Snapshot returns a copy of the particle array.
func (s *Solver) Snapshot() []Particle {
	return s.store.CopyInto(nil)
}

// SnapshotInto copies the particle array into dst, reusing its capacity.
func (s *Solver) SnapshotInto(dst []Particle) []Particle {
	return s.store.CopyInto(dst)
}

// VertexData copies the particle array as raw ParticleStride-byte records
// into dst, reusing its capacity.
func (s *Solver) VertexData(dst []byte) []byte {
	src := VertexBytes(s.store.live)
	if cap(dst) < len(src) {
		dst = make([]byte, len(src))
	}
	dst = dst[:len(src)]
	copy(dst, src)
	return dst
}

// Close stops the worker goroutines.
func (s *Solver) Close() {
	s.pool.Close()
}
