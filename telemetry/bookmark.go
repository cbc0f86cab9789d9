// Package telemetry provides run statistics, milestone bookmarks, perf
// sampling and snapshots for the fluid simulation.
package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkImpact           BookmarkType = "impact"
	BookmarkCompressionSpike BookmarkType = "compression_spike"
	BookmarkInflowStopped    BookmarkType = "inflow_stopped"
	BookmarkSettled          BookmarkType = "settled"
)

// Detection thresholds.
const (
	impactFactor      = 2.0  // peak speed over rolling average
	spikeCompression  = 1.5  // peak density over rest density
	settleFraction    = 0.05 // mean speed over the highest mean speed seen
	settleWindows     = 5    // consecutive quiet windows before settled fires
	minHistoryWindows = 3
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        uint64       `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in a run from its window stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	peakSpeedMean float64
	quietWindows  int
	settled       bool
	spiking       bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < minHistoryWindows {
		historySize = minHistoryWindows
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkImpact(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkInflowStopped(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkCompressionSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// previous returns the most recently recorded window.
func (bd *BookmarkDetector) previous() WindowStats {
	i := bd.historyIdx - 1
	if i < 0 {
		i = bd.historySize - 1
	}
	return bd.history[i]
}

func (bd *BookmarkDetector) checkImpact(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < minHistoryWindows {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.SpeedMax
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.SpeedMax > avg*impactFactor {
		return &Bookmark{
			Type:        BookmarkImpact,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Peak speed %.1f is %.1fx average (%.1f)", stats.SpeedMax, stats.SpeedMax/avg, avg),
		}
	}
	return nil
}

// checkCompressionSpike fires when compression crosses the threshold upward.
func (bd *BookmarkDetector) checkCompressionSpike(stats WindowStats) *Bookmark {
	above := stats.Compression >= spikeCompression
	defer func() { bd.spiking = above }()
	if !above || bd.spiking {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkCompressionSpike,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Peak density reached %.2fx rest density", stats.Compression),
	}
}

func (bd *BookmarkDetector) checkInflowStopped(stats WindowStats) *Bookmark {
	if bd.previous().Emitted == 0 || stats.Emitted != 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkInflowStopped,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Inflow stopped with %d particles", stats.Particles),
	}
}

// checkSettled fires once, after the mean speed stays small relative to its
// peak for settleWindows consecutive windows.
func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.SpeedMean > bd.peakSpeedMean {
		bd.peakSpeedMean = stats.SpeedMean
	}
	if bd.settled || bd.peakSpeedMean == 0 {
		return nil
	}

	if stats.SpeedMean < bd.peakSpeedMean*settleFraction {
		bd.quietWindows++
	} else {
		bd.quietWindows = 0
	}

	if bd.quietWindows == settleWindows {
		bd.settled = true
		return &Bookmark{
			Type:        BookmarkSettled,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Mean speed %.2f below %.0f%% of peak %.1f for %d windows", stats.SpeedMean, settleFraction*100, bd.peakSpeedMean, settleWindows),
		}
	}
	return nil
}
