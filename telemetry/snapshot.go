package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/sphfluid/fluid"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete particle state for resuming a run.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    int64  `json:"seed"`
	Tick    uint64 `json:"tick"`

	DomainWidth  float32 `json:"domain_width"`
	DomainHeight float32 `json:"domain_height"`
	H            float32 `json:"h"`
	Boundary     string  `json:"boundary"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one particle's state.
type ParticleState struct {
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	VelX     float32 `json:"vel_x"`
	VelY     float32 `json:"vel_y"`
	Density  float32 `json:"density"`
	Pressure float32 `json:"pressure"`
	Static   bool    `json:"static,omitempty"`
}

// NewSnapshot captures the solver state.
func NewSnapshot(s *fluid.Solver) *Snapshot {
	cfg := s.Config()
	ps := s.Snapshot()
	states := make([]ParticleState, len(ps))
	for i, p := range ps {
		states[i] = ParticleState{
			X:        p.Position.X,
			Y:        p.Position.Y,
			VelX:     p.Velocity.X,
			VelY:     p.Velocity.Y,
			Density:  p.Density,
			Pressure: p.Pressure,
			Static:   !p.IsDynamic(),
		}
	}
	return &Snapshot{
		Version:      SnapshotVersion,
		Seed:         cfg.Seed,
		Tick:         s.Tick(),
		DomainWidth:  cfg.Width,
		DomainHeight: cfg.Height,
		H:            cfg.H,
		Boundary:     cfg.Boundary.String(),
		Particles:    states,
	}
}

// FluidParticles converts the stored states back to solver particles.
// Forces are recomputed on the next tick and start at zero.
func (s *Snapshot) FluidParticles() []fluid.Particle {
	ps := make([]fluid.Particle, len(s.Particles))
	for i, st := range s.Particles {
		p := fluid.NewDynamic(st.X, st.Y)
		if st.Static {
			p = fluid.NewStatic(st.X, st.Y)
		}
		p.Velocity = fluid.Vec2{X: st.VelX, Y: st.VelY}
		p.Density = st.Density
		p.Pressure = st.Pressure
		ps[i] = p
	}
	return ps
}

// Compatible reports whether the snapshot was taken with a domain, smoothing
// length and boundary matching cfg. Stored densities and pressures only make
// sense under the H they were computed with.
func (s *Snapshot) Compatible(cfg fluid.Config) error {
	switch {
	case s.Version != SnapshotVersion:
		return fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	case s.DomainWidth != cfg.Width || s.DomainHeight != cfg.Height:
		return fmt.Errorf("snapshot domain %vx%v, config %vx%v", s.DomainWidth, s.DomainHeight, cfg.Width, cfg.Height)
	case s.H != cfg.H:
		return fmt.Errorf("snapshot smoothing length %v, config %v", s.H, cfg.H)
	case s.Boundary != cfg.Boundary.String():
		return fmt.Errorf("snapshot boundary %s, config %s", s.Boundary, cfg.Boundary)
	}
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
