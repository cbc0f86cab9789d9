package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/sphfluid/fluid"
)

func newTestSolver(t *testing.T, mutate func(*fluid.Config)) *fluid.Solver {
	t.Helper()
	cfg := fluid.DefaultConfig()
	cfg.ParticleCount = 60
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := fluid.New(cfg)
	if err != nil {
		t.Fatalf("fluid.New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestSolver(t, func(c *fluid.Config) {
		c.Boundary = fluid.BoundaryStaticWall
	})
	for i := 0; i < 3; i++ {
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	snapshot := NewSnapshot(s)
	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Tick != 3 || loaded.Version != SnapshotVersion {
		t.Errorf("header = tick %d version %d", loaded.Tick, loaded.Version)
	}
	if err := loaded.Compatible(s.Config()); err != nil {
		t.Errorf("Compatible: %v", err)
	}

	want := s.Snapshot()
	got := loaded.FluidParticles()
	if len(got) != len(want) {
		t.Fatalf("particles = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Position != want[i].Position || got[i].Velocity != want[i].Velocity ||
			got[i].Dynamic != want[i].Dynamic || got[i].Density != want[i].Density {
			t.Fatalf("particle %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSnapshotResume(t *testing.T) {
	s := newTestSolver(t, nil)
	if err := s.Advance(); err != nil {
		t.Fatal(err)
	}

	snap := NewSnapshot(s)
	resumed, err := fluid.NewFromParticlesAt(s.Config(), snap.FluidParticles(), snap.Tick)
	if err != nil {
		t.Fatalf("NewFromParticlesAt: %v", err)
	}
	defer resumed.Close()
	if resumed.Tick() != snap.Tick {
		t.Errorf("resumed tick = %d, want %d", resumed.Tick(), snap.Tick)
	}

	// Forces are recomputed from positions, velocities and densities, so one
	// more tick matches exactly.
	if err := s.Advance(); err != nil {
		t.Fatal(err)
	}
	if err := resumed.Advance(); err != nil {
		t.Fatal(err)
	}
	if resumed.Tick() != s.Tick() {
		t.Errorf("resumed tick = %d, original %d", resumed.Tick(), s.Tick())
	}
	a, b := s.Snapshot(), resumed.Snapshot()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("particle %d diverged after resume", i)
		}
	}
}

func TestSnapshotIncompatible(t *testing.T) {
	s := newTestSolver(t, nil)
	snap := NewSnapshot(s)

	cfg := s.Config()
	cfg.Width = 1024
	if err := snap.Compatible(cfg); err == nil {
		t.Error("expected domain mismatch")
	}

	cfg = s.Config()
	cfg.Boundary = fluid.BoundaryStaticWall
	if err := snap.Compatible(cfg); err == nil {
		t.Error("expected boundary mismatch")
	}

	cfg = s.Config()
	cfg.H *= 2
	if err := snap.Compatible(cfg); err == nil {
		t.Error("expected smoothing length mismatch")
	}

	if err := snap.Compatible(s.Config()); err != nil {
		t.Errorf("same config: %v", err)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()
	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	expected := filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := LoadSnapshot(bad); err == nil {
		t.Error("expected error for bad json")
	}
}
