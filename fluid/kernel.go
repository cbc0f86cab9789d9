package fluid

import "math"

// Kernels holds the smoothing kernels for a fixed support radius H.
// Normalization constants are computed once by NewKernels.
type Kernels struct {
	H  float32
	H2 float32

	poly6     float32 // 4 / (pi H^8)
	spikyGrad float32 // 30 / (pi H^5)
	viscLap   float32 // 40 / (pi H^5)
}

// NewKernels precomputes the 2D kernel constants for support radius h.
func NewKernels(h float32) Kernels {
	hh := float64(h)
	return Kernels{
		H:         h,
		H2:        h * h,
		poly6:     float32(4.0 / (math.Pi * math.Pow(hh, 8))),
		spikyGrad: float32(30.0 / (math.Pi * math.Pow(hh, 5))),
		viscLap:   float32(40.0 / (math.Pi * math.Pow(hh, 5))),
	}
}

// Density is the poly6 weight at distance r. Density(0) is the self term.
func (k Kernels) Density(r float32) float32 {
	if r < 0 || r >= k.H {
		return 0
	}
	return k.DensitySq(r * r)
}

// DensitySq is Density evaluated on a squared distance.
func (k Kernels) DensitySq(r2 float32) float32 {
	if r2 >= k.H2 {
		return 0
	}
	d := k.H2 - r2
	return k.poly6 * d * d * d
}

// SpikyGrad is the magnitude of the spiky kernel gradient at distance r.
// It decreases strictly to zero at H.
func (k Kernels) SpikyGrad(r float32) float32 {
	if r < 0 || r >= k.H {
		return 0
	}
	d := k.H - r
	return k.spikyGrad * d * d
}

// ViscosityLaplacian is the viscosity kernel laplacian at distance r.
func (k Kernels) ViscosityLaplacian(r float32) float32 {
	if r < 0 || r >= k.H {
		return 0
	}
	return k.viscLap * (k.H - r)
}
