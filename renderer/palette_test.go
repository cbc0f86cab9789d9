package renderer

import (
	"math"
	"testing"

	"github.com/pthm-cable/sphfluid/fluid"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorMode
		wantErr bool
	}{
		{"", ColorByDensity, false},
		{"density", ColorByDensity, false},
		{"pressure", ColorByPressure, false},
		{"speed", ColorBySpeed, false},
		{"vorticity", ColorByDensity, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColorMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColorMode(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColorMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && tt.in != "" && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestColorModeNextCycles(t *testing.T) {
	m := ColorByDensity
	for i := 0; i < 3; i++ {
		m = m.Next()
	}
	if m != ColorByDensity {
		t.Errorf("three Next() calls gave %v, want density", m)
	}
}

func TestRampEnds(t *testing.T) {
	if got := Ramp(-1); got != ramp[0] {
		t.Errorf("Ramp(-1) = %v, want %v", got, ramp[0])
	}
	if got := Ramp(2); got != ramp[len(ramp)-1] {
		t.Errorf("Ramp(2) = %v, want %v", got, ramp[len(ramp)-1])
	}
	if got := Ramp(float32(math.NaN())); got != ramp[0] {
		t.Errorf("Ramp(NaN) = %v, want %v", got, ramp[0])
	}
	// Stop positions land exactly on the palette entries.
	if got := Ramp(0.5); got != ramp[2] {
		t.Errorf("Ramp(0.5) = %v, want %v", got, ramp[2])
	}
}

func TestScaleValue(t *testing.T) {
	cfg := fluid.DefaultConfig()
	p := fluid.NewDynamic(100, 100)

	p.Density = cfg.RestDensity
	s := NewScale(ColorByDensity, cfg)
	if got := s.Value(&p); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("density at rest = %v, want 0.5", got)
	}

	p.Pressure = -10
	s.Mode = ColorByPressure
	if got := s.Value(&p); got >= 0 {
		t.Errorf("suction pressure mapped to %v, want negative (clamped by Ramp)", got)
	}

	p.Velocity = fluid.Vec2{X: s.MaxSpeed}
	s.Mode = ColorBySpeed
	if got := s.Value(&p); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("max speed mapped to %v, want 1", got)
	}
}

func TestScaleColorStaticIsWall(t *testing.T) {
	cfg := fluid.DefaultConfig()
	w := fluid.NewStatic(1, 1)
	for _, mode := range []ColorMode{ColorByDensity, ColorByPressure, ColorBySpeed} {
		if got := NewScale(mode, cfg).Color(&w); got != WallColor {
			t.Errorf("%v: static particle colour = %v, want WallColor", mode, got)
		}
	}
}
