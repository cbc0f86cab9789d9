package sim

import (
	"errors"
	"log/slog"

	"github.com/pthm-cable/sphfluid/fluid"
	"github.com/pthm-cable/sphfluid/stream"
	"github.com/pthm-cable/sphfluid/telemetry"
)

// Step advances the solver one tick and runs the per-tick observers.
func (s *Sim) Step() error {
	s.perf.StartTick()
	defer s.perf.EndTick()

	if err := s.solver.Advance(); err != nil {
		s.reportFault(err)
		return err
	}
	s.collector.RecordEmitted(s.solver.LastEmitted())

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.particles = s.solver.SnapshotInto(s.particles)
	s.flushTelemetry()

	s.perf.StartPhase(telemetry.PhaseStream)
	s.publishFrame()
	return nil
}

// stepOrPause runs Step for the interactive viewer and pauses it on a fault,
// leaving the faulted frame on screen.
func (s *Sim) stepOrPause() error {
	err := s.Step()
	if err != nil {
		s.paused = true
	}
	return err
}

// UpdateHeadless runs one batch of steps without input or drawing.
func (s *Sim) UpdateHeadless() error {
	for i := 0; i < s.stepsPerUpdate; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// flushTelemetry writes a stats window when one is due.
func (s *Sim) flushTelemetry() {
	tick := s.solver.Tick()
	if !s.collector.ShouldFlush(tick) {
		return
	}

	stats := s.collector.Flush(tick, s.particles)
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if s.outputManager != nil {
		if err := s.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.outputManager.WritePerf(perfStats, stats.WindowEndTick, stats.Particles); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if s.snapshotDir != "" {
			if _, err := s.SaveSnapshot(); err != nil {
				slog.Error("failed to save bookmark snapshot", "error", err)
			}
		}
		s.lastBookmark = &bm
	}
}

// publishFrame broadcasts the vertex data every streamEvery ticks.
func (s *Sim) publishFrame() {
	if s.hub == nil || s.solver.Tick()%s.streamEvery != 0 || s.hub.Clients() == 0 {
		return
	}
	s.vertexBuf = s.solver.VertexData(s.vertexBuf)
	s.frameBuf = stream.EncodeFrame(s.frameBuf[:0], s.solver.Tick(), s.vertexBuf)
	s.hub.Broadcast(s.frameBuf)
}

// reportFault logs and records the first fault of a run.
func (s *Sim) reportFault(err error) {
	if s.faultReported {
		return
	}
	s.faultReported = true

	var ie *fluid.InstabilityError
	if errors.As(err, &ie) {
		slog.Error("simulation fault", "fault", ie)
	} else {
		slog.Error("simulation fault", "error", err)
	}

	if err := s.outputManager.WriteFault(err); err != nil {
		slog.Error("failed to write fault", "error", err)
	}
}
