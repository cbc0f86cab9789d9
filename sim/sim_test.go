package sim

import (
	"errors"
	"fmt"
	"math"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/gorilla/websocket"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/fluid"
	"github.com/pthm-cable/sphfluid/stream"
	"github.com/pthm-cable/sphfluid/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Screen.Width, cfg.Screen.Height = 240, 200
	cfg.Fluid.ParticleCount = 40
	cfg.Solver.Workers = 1
	cfg.Solver.StepsPerUpdate = 3
	cfg.Telemetry.StatsWindow = 5
	cfg.Stream.Every = 1
	if err := cfg.Recompute(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newHeadless(t *testing.T, opts Options) *Sim {
	t.Helper()
	opts.Headless = true
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestHeadlessWritesTelemetry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	var windows []telemetry.WindowStats
	s := newHeadless(t, Options{
		Config:        testConfig(t),
		OutputDir:     dir,
		StatsCallback: func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})

	for i := 0; i < 4; i++ {
		if err := s.UpdateHeadless(); err != nil {
			t.Fatalf("UpdateHeadless: %v", err)
		}
	}
	if s.Tick() != 12 {
		t.Fatalf("Tick() = %d, want 12", s.Tick())
	}
	if len(windows) != 2 || windows[0].WindowEndTick != 5 || windows[1].WindowEndTick != 10 {
		t.Fatalf("windows = %+v, want ends at 5 and 10", windows)
	}
	if windows[0].Particles != 40 || windows[0].Dynamic != 40 {
		t.Errorf("window particles = %d/%d, want 40/40", windows[0].Particles, windows[0].Dynamic)
	}

	s.Close()
	var rows []telemetry.WindowStats
	f, err := os.Open(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatalf("read telemetry.csv: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("telemetry.csv has %d rows, want 2", len(rows))
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml missing: %v", err)
	}
	for _, name := range []string{"perf.csv", "bookmarks.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestSeedOverride(t *testing.T) {
	cfg := testConfig(t)
	a := newHeadless(t, Options{Config: cfg, Seed: 7})
	b := newHeadless(t, Options{Config: cfg, Seed: 7})
	c := newHeadless(t, Options{Config: cfg, Seed: 8})

	if a.Solver().Config().Seed != 7 {
		t.Errorf("seed = %d, want 7", a.Solver().Config().Seed)
	}
	if !samePositions(a.Particles(), b.Particles()) {
		t.Error("same seed gave different scenes")
	}
	if samePositions(a.Particles(), c.Particles()) {
		t.Error("different seeds gave identical jittered scenes")
	}
}

func samePositions(a, b []fluid.Particle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Position != b[i].Position || a[i].Velocity != b[i].Velocity {
			return false
		}
	}
	return true
}

func TestSnapshotResume(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	a := newHeadless(t, Options{Config: cfg, SnapshotDir: dir})
	for i := 0; i < 3; i++ {
		if err := a.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
	}

	path, err := a.SaveSnapshot()
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("snapshot written to %s, want dir %s", path, dir)
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	b := newHeadless(t, Options{Config: cfg, Resume: snap})
	if !samePositions(a.Particles(), b.Particles()) {
		t.Fatal("resumed state differs from saved state")
	}
	if b.Tick() != a.Tick() || b.Tick() != snap.Tick {
		t.Errorf("resumed Tick() = %d, want %d", b.Tick(), snap.Tick)
	}
	if !strings.HasSuffix(path, fmt.Sprintf("snapshot_%d.json", snap.Tick)) {
		t.Errorf("snapshot path %s does not carry tick %d", path, snap.Tick)
	}

	// Density and forces are rebuilt from positions and velocities, so
	// both runs continue identically.
	for i := 0; i < 5; i++ {
		if err := a.Step(); err != nil {
			t.Fatal(err)
		}
		if err := b.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if !samePositions(a.Particles(), b.Particles()) {
		t.Error("resumed run diverged")
	}
	if b.Tick() != a.Tick() {
		t.Errorf("resumed run at tick %d, original at %d", b.Tick(), a.Tick())
	}
}

func TestResumeIncompatible(t *testing.T) {
	cfg := testConfig(t)
	a := newHeadless(t, Options{Config: cfg})
	snap := telemetry.NewSnapshot(a.Solver())
	snap.DomainWidth++

	if _, err := New(Options{Config: cfg, Headless: true, Resume: snap}); err == nil {
		t.Fatal("expected error resuming into a different domain")
	}
}

func TestFaultIsRecorded(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	healthy := newHeadless(t, Options{Config: cfg})
	snap := telemetry.NewSnapshot(healthy.Solver())
	snap.Particles[0].VelX = float32(math.Inf(1))

	s := newHeadless(t, Options{Config: cfg, Resume: snap, OutputDir: dir})
	err := s.Step()
	if !errors.Is(err, fluid.ErrInstability) {
		t.Fatalf("Step() = %v, want ErrInstability", err)
	}
	if again := s.UpdateHeadless(); again != err {
		t.Errorf("later call returned %v, want the original fault", again)
	}
	if s.Tick() != 0 {
		t.Errorf("Tick() = %d after fault, want 0", s.Tick())
	}

	data, rerr := os.ReadFile(filepath.Join(dir, "fault.txt"))
	if rerr != nil {
		t.Fatalf("fault.txt: %v", rerr)
	}
	if !strings.Contains(string(data), err.Error()) {
		t.Errorf("fault.txt = %q, want %q", data, err.Error())
	}
}

func TestFaultPausesViewer(t *testing.T) {
	cfg := testConfig(t)
	healthy := newHeadless(t, Options{Config: cfg})

	if err := healthy.stepOrPause(); err != nil {
		t.Fatalf("healthy step: %v", err)
	}
	if healthy.Paused() {
		t.Error("healthy step paused the viewer")
	}

	snap := telemetry.NewSnapshot(healthy.Solver())
	snap.Particles[0].VelX = float32(math.Inf(1))
	s := newHeadless(t, Options{Config: cfg, Resume: snap})
	if s.Paused() {
		t.Fatal("new sim started paused")
	}
	err := s.stepOrPause()
	if !errors.Is(err, fluid.ErrInstability) {
		t.Fatalf("stepOrPause() = %v, want ErrInstability", err)
	}
	if !s.Paused() {
		t.Error("fault did not pause the viewer")
	}
	if s.Tick() != snap.Tick {
		t.Errorf("Tick() = %d after fault, want %d", s.Tick(), snap.Tick)
	}
}

func TestReset(t *testing.T) {
	s := newHeadless(t, Options{Config: testConfig(t)})
	initial := append([]fluid.Particle(nil), s.Particles()...)
	for i := 0; i < 2; i++ {
		if err := s.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Tick() != 0 {
		t.Errorf("Tick() = %d after reset, want 0", s.Tick())
	}
	if !samePositions(initial, s.Particles()) {
		t.Error("reset did not restore the initial scene")
	}
}

func TestStepPublishesFrames(t *testing.T) {
	cfg := testConfig(t)
	hub := stream.NewHub(stream.NewLayout(cfg.FluidConfig()))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var layout stream.Layout
	if err := conn.ReadJSON(&layout); err != nil {
		t.Fatalf("read layout: %v", err)
	}

	s := newHeadless(t, Options{Config: cfg, Hub: hub})
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	h, payload, err := stream.DecodeFrame(msg)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if h.Tick != 1 || int(h.Count) != len(s.Particles()) {
		t.Errorf("header = %+v, want tick 1 count %d", h, len(s.Particles()))
	}
	if string(payload) != string(fluid.VertexBytes(s.Particles())) {
		t.Error("frame payload differs from the particle state")
	}
}
