// Package event defines the change-event model shared by the stream client,
// the map engine, and the feed tools, together with the visual configuration
// keyed by event type and severity.
package event

import (
	"image/color"
	"time"
)

// Event is a single detected change event as it arrives on the wire.
// The descriptive fields (Region, TileID, Satellite, Description) are
// opaque pass-throughs; only the typed fields drive behavior.
type Event struct {
	ID          string  `json:"event_id"`
	Type        Type    `json:"event_type"`
	Severity    Severity `json:"severity"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Confidence  float64 `json:"confidence"`
	Region      string  `json:"region"`
	TileID      string  `json:"tile_id"`
	Satellite   string  `json:"satellite"`
	Timestamp   int64   `json:"timestamp"` // epoch milliseconds, producer clock
	AreaHa      float64 `json:"area_hectares,omitempty"`
	NDVIDelta   float64 `json:"ndvi_delta,omitempty"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Color       string  `json:"color,omitempty"`
}

// Detected returns the producer timestamp as a time.Time.
func (e Event) Detected() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Age reports how long ago the event was detected relative to now.
func (e Event) Age(now time.Time) time.Duration {
	return now.Sub(e.Detected())
}

// DisplayType resolves the type used for visual encoding. A recognized
// type wins; an unrecognized one falls back to keyword inference over the
// description, and finally to TypeUnknown.
func (e Event) DisplayType() Type {
	if e.Type.Known() {
		return e.Type
	}
	if t, ok := InferType(e.Description); ok {
		return t
	}
	return TypeUnknown
}

// Type is the change-event category. Unrecognized upstream values are
// preserved as-is and degrade to the default visual config.
type Type string

const (
	TypeDeforestation Type = "deforestation"
	TypeFlood         Type = "flood"
	TypeCropStress    Type = "crop_stress"
	TypeConstruction  Type = "construction"
	TypeFire          Type = "fire"
	TypeDrought       Type = "drought"
	TypeUnknown       Type = ""
)

// Types lists the recognized categories in legend order.
var Types = []Type{
	TypeDeforestation,
	TypeFlood,
	TypeCropStress,
	TypeConstruction,
	TypeFire,
	TypeDrought,
}

// Known reports whether t is one of the recognized categories.
func (t Type) Known() bool {
	switch t {
	case TypeDeforestation, TypeFlood, TypeCropStress, TypeConstruction, TypeFire, TypeDrought:
		return true
	}
	return false
}

// TypeConfig is the visual treatment for one event category.
type TypeConfig struct {
	Label string
	Color color.RGBA
}

var typeConfigs = map[Type]TypeConfig{
	TypeDeforestation: {Label: "Deforestation", Color: color.RGBA{34, 197, 94, 255}},
	TypeFlood:         {Label: "Flood", Color: color.RGBA{59, 130, 246, 255}},
	TypeCropStress:    {Label: "Crop Stress", Color: color.RGBA{234, 179, 8, 255}},
	TypeConstruction:  {Label: "Construction", Color: color.RGBA{168, 85, 247, 255}},
	TypeFire:          {Label: "Fire", Color: color.RGBA{239, 68, 68, 255}},
	TypeDrought:       {Label: "Drought", Color: color.RGBA{249, 115, 22, 255}},
}

// defaultTypeConfig is the treatment for anything upstream sends that we
// do not recognize. Rendering never fails on a novel category.
var defaultTypeConfig = TypeConfig{Label: "Anomaly", Color: color.RGBA{148, 163, 184, 255}}

// Config returns the visual config for t, falling back to the default
// entry for unrecognized values.
func (t Type) Config() TypeConfig {
	if c, ok := typeConfigs[t]; ok {
		return c
	}
	return defaultTypeConfig
}

// Severity is the ordered impact level of an event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the position of s in the severity order; critical > high >
// medium > low. Unrecognized values rank below low so they never outrank
// a real severity.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Critical reports whether s gets the halo treatment on the map.
func (s Severity) Critical() bool { return s == SeverityCritical }

// Label returns a display string for s.
func (s Severity) Label() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	}
	return "UNKNOWN"
}
