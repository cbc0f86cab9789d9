package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayWalls    OverlayID = "walls"
	OverlayVelocity OverlayID = "velocity"
	OverlayBounds   OverlayID = "bounds"
	OverlayStats    OverlayID = "stats"
	OverlayPerf     OverlayID = "perf"
	OverlayInspect  OverlayID = "inspect"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display
	Category    string      // "visual" or "panels"
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayWalls,
		Name:        "Walls",
		Description: "Draw static boundary particles",
		Key:         rl.KeyW,
		KeyLabel:    "W",
		Category:    "visual",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayVelocity,
		Name:        "Velocity",
		Description: "Draw a velocity segment per particle",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "visual",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayBounds,
		Name:        "Domain",
		Description: "Draw the domain frame and clamp region",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "visual",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Fluid Stats",
		Description: "Show density, pressure and speed summary",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "panels",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Show per-pass timings",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "panels",
		Exclusive:   []OverlayID{OverlayInspect},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayInspect,
		Name:        "Inspector",
		Description: "Show the particle nearest the cursor",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "panels",
		Exclusive:   []OverlayID{OverlayPerf},
	})
}

// Register adds an overlay to the registry, initially disabled.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and returns the new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state. Enabling an overlay
// disables the overlays it excludes.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in registration order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}

// PollKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) PollKeys() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
