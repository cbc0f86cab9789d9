package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sphfluid/config"
)

// OutputManager handles structured experiment output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir           string
	telemetryFile *os.File
	perfFile      *os.File
	bookmarkFile  *os.File

	// Track if headers have been written
	telemetryHeaderWritten bool
	perfHeaderWritten      bool
	bookmarkHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	om.telemetryFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.telemetryFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	f, err = os.Create(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		om.telemetryFile.Close()
		om.perfFile.Close()
		return nil, fmt.Errorf("creating bookmarks.csv: %w", err)
	}
	om.bookmarkFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// writeRecords appends records to f, writing the header on first use.
func writeRecords[T any](f *os.File, headerWritten *bool, records []T) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.telemetryFile, &om.telemetryHeaderWritten, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd uint64, particles int) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(windowEnd, particles)}
	if err := writeRecords(om.perfFile, &om.perfHeaderWritten, records); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.bookmarkFile, &om.bookmarkHeaderWritten, []Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteFault records the fault that stopped the run in fault.txt.
func (om *OutputManager) WriteFault(err error) error {
	if om == nil || err == nil {
		return nil
	}
	path := filepath.Join(om.dir, "fault.txt")
	if werr := os.WriteFile(path, []byte(err.Error()+"\n"), 0644); werr != nil {
		return fmt.Errorf("writing fault.txt: %w", werr)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.telemetryFile, om.perfFile, om.bookmarkFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
