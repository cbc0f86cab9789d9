package terminal

import (
	"context"
	"fmt"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/pthm-cable/sphfluid/fluid"
)

// Source is what the viewer drives and draws.
type Source interface {
	Step() error
	Particles() []fluid.Particle
	Tick() uint64
}

// Viewer runs a termbox loop that steps a Source and draws it.
type Viewer struct {
	raster *Rasterizer
	frame  time.Duration
	grid   Grid
	paused bool
}

// NewViewer creates a viewer redrawing every frame interval.
func NewViewer(raster *Rasterizer, frame time.Duration) *Viewer {
	if frame <= 0 {
		frame = 33 * time.Millisecond
	}
	return &Viewer{raster: raster, frame: frame}
}

// Run owns the terminal until Esc, q or Ctrl-C, ctx cancellation, or a
// Step error. Space toggles pause.
func (v *Viewer) Run(ctx context.Context, src Source) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc)

	events := make(chan termbox.Event)
	done := make(chan struct{})
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()
	defer func() {
		close(done)
		termbox.Interrupt()
	}()

	ticker := time.NewTicker(v.frame)
	defer ticker.Stop()

	var stepErr error
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev.Type {
			case termbox.EventKey:
				switch {
				case ev.Key == termbox.KeyEsc, ev.Key == termbox.KeyCtrlC, ev.Ch == 'q':
					return stepErr
				case ev.Key == termbox.KeySpace:
					v.paused = !v.paused
				}
			case termbox.EventError:
				return ev.Err
			}
		case <-ticker.C:
			// A fault freezes the last frame until the user quits.
			if !v.paused && stepErr == nil {
				stepErr = src.Step()
			}
			v.draw(src, stepErr)
		}
	}
}

func (v *Viewer) draw(src Source, stepErr error) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	cols, rows := termbox.Size()
	if rows < 2 || cols < 1 {
		termbox.Flush()
		return
	}

	ps := src.Particles()
	v.raster.Rasterize(&v.grid, ps, cols, rows-1)
	for row := 0; row < v.grid.Rows; row++ {
		for col := 0; col < v.grid.Cols; col++ {
			ch := v.grid.At(col, row)
			fg := termbox.ColorCyan
			if ch == WallGlyph {
				fg = termbox.ColorWhite
			}
			termbox.SetCell(col, row, ch, fg, termbox.ColorDefault)
		}
	}

	status := fmt.Sprintf(" tick %d | %d particles | space pause | q quit", src.Tick(), len(ps))
	fg := termbox.ColorYellow
	switch {
	case stepErr != nil:
		status = " FAULT: " + stepErr.Error()
		fg = termbox.ColorRed
	case v.paused:
		status += " | PAUSED"
	}
	drawText(0, rows-1, status, fg, cols)
	termbox.Flush()
}

func drawText(x, y int, s string, fg termbox.Attribute, limit int) {
	for _, ch := range s {
		if x >= limit {
			return
		}
		termbox.SetCell(x, y, ch, fg, termbox.ColorDefault)
		x++
	}
}
