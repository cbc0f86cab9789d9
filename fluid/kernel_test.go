package fluid

import (
	"math"
	"testing"
)

func TestKernelSupport(t *testing.T) {
	k := NewKernels(16)

	kernels := []struct {
		name string
		fn   func(float32) float32
	}{
		{"density", k.Density},
		{"spiky gradient", k.SpikyGrad},
		{"viscosity laplacian", k.ViscosityLaplacian},
	}

	for _, kn := range kernels {
		t.Run(kn.name, func(t *testing.T) {
			for _, r := range []float32{16, 16.0001, 20, 1000} {
				if got := kn.fn(r); got != 0 {
					t.Errorf("%s(%v) = %v, want 0", kn.name, r, got)
				}
			}
			// Continuity at H: values just inside approach zero.
			if got := kn.fn(16 - 1e-3); got < 0 || got > 1e-6 {
				t.Errorf("%s(H-eps) = %v, want ~0", kn.name, got)
			}
		})
	}
}

func TestKernelNonNegativeAndFinite(t *testing.T) {
	for _, h := range []float32{0.5, 1, 16, 64} {
		k := NewKernels(h)
		for i := 0; i <= 100; i++ {
			r := h * float32(i) / 100
			for _, v := range []float32{k.Density(r), k.SpikyGrad(r), k.ViscosityLaplacian(r)} {
				if v < 0 || math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
					t.Fatalf("H=%v r=%v: kernel value %v", h, r, v)
				}
			}
		}
	}
}

func TestSpikyGradStrictlyDecreasing(t *testing.T) {
	k := NewKernels(16)
	prev := k.SpikyGrad(0)
	for i := 1; i <= 160; i++ {
		r := float32(i) * 0.1
		cur := k.SpikyGrad(r)
		if cur >= prev {
			t.Fatalf("SpikyGrad(%v) = %v, not below %v", r, cur, prev)
		}
		prev = cur
	}
}

func TestDensitySqMatchesDensity(t *testing.T) {
	k := NewKernels(16)
	for _, r := range []float32{0, 1, 5.5, 10, 15.9} {
		a := k.Density(r)
		b := k.DensitySq(r * r)
		if math.Abs(float64(a-b)) > 1e-9 {
			t.Errorf("Density(%v)=%v, DensitySq=%v", r, a, b)
		}
	}
}

func TestPoly6Normalized(t *testing.T) {
	// The 2D poly6 kernel integrates to 1 over its support disc.
	k := NewKernels(2)
	const steps = 2000
	dr := float64(k.H) / steps
	sum := 0.0
	for i := 0; i < steps; i++ {
		r := (float64(i) + 0.5) * dr
		sum += float64(k.Density(float32(r))) * 2 * math.Pi * r * dr
	}
	if math.Abs(sum-1) > 1e-3 {
		t.Errorf("integral of poly6 = %v, want 1", sum)
	}
}

func BenchmarkDensitySq(b *testing.B) {
	k := NewKernels(16)
	var sink float32
	for i := 0; i < b.N; i++ {
		sink += k.DensitySq(float32(i % 256))
	}
	_ = sink
}
