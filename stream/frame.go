// Package stream publishes solver frames to websocket clients.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pthm-cable/sphfluid/fluid"
)

// FrameMagic opens every binary frame.
const FrameMagic = "SPH1"

// HeaderSize is the byte length of the frame header.
const HeaderSize = 16

// ErrFrame is returned when a frame cannot be decoded.
var ErrFrame = errors.New("malformed frame")

// FrameHeader describes one binary frame. The header is little-endian; the
// payload is Count particle records of fluid.ParticleStride bytes each in
// the host byte order.
type FrameHeader struct {
	Count uint32
	Tick  uint64
}

// EncodeFrame appends a frame for the given vertex payload to dst.
func EncodeFrame(dst []byte, tick uint64, vertex []byte) []byte {
	count := len(vertex) / fluid.ParticleStride
	dst = append(dst, FrameMagic...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(count))
	dst = binary.LittleEndian.AppendUint64(dst, tick)
	return append(dst, vertex[:count*fluid.ParticleStride]...)
}

// DecodeFrame splits a frame into its header and payload.
func DecodeFrame(b []byte) (FrameHeader, []byte, error) {
	if len(b) < HeaderSize || string(b[:4]) != FrameMagic {
		return FrameHeader{}, nil, fmt.Errorf("%w: bad header", ErrFrame)
	}
	h := FrameHeader{
		Count: binary.LittleEndian.Uint32(b[4:8]),
		Tick:  binary.LittleEndian.Uint64(b[8:16]),
	}
	payload := b[HeaderSize:]
	if len(payload) != int(h.Count)*fluid.ParticleStride {
		return h, nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrFrame, len(payload), int(h.Count)*fluid.ParticleStride)
	}
	return h, payload, nil
}

// Layout is sent as JSON to each client on connect so it can read frames.
type Layout struct {
	Stride         int     `json:"stride"`
	PositionOffset int     `json:"position_offset"`
	VelocityOffset int     `json:"velocity_offset"`
	ForceOffset    int     `json:"force_offset"`
	DensityOffset  int     `json:"density_offset"`
	PressureOffset int     `json:"pressure_offset"`
	DynamicOffset  int     `json:"dynamic_offset"`
	Width          float32 `json:"width"`
	Height         float32 `json:"height"`
	H              float32 `json:"h"`
	RestDensity    float32 `json:"rest_density"`
}

// NewLayout describes the frames produced for cfg.
func NewLayout(cfg fluid.Config) Layout {
	return Layout{
		Stride:         fluid.ParticleStride,
		PositionOffset: fluid.PositionOffset,
		VelocityOffset: fluid.VelocityOffset,
		ForceOffset:    fluid.ForceOffset,
		DensityOffset:  fluid.DensityOffset,
		PressureOffset: fluid.PressureOffset,
		DynamicOffset:  fluid.DynamicOffset,
		Width:          cfg.Width,
		Height:         cfg.Height,
		H:              cfg.H,
		RestDensity:    cfg.RestDensity,
	}
}
