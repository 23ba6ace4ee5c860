// Package synthetic generates plausible change events for the feed
// simulator and for the viewer's disconnected fallback mode. Severity and
// confidence follow the same delta-threshold formulas the detection
// pipeline uses, so synthetic traffic exercises every visual path.
package synthetic

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sentinelwatch/terra-stream/pkg/baseline"
	"github.com/sentinelwatch/terra-stream/pkg/event"
)

// Region is a monitored area with a home coordinate and the event kinds
// that plausibly occur there.
type Region struct {
	Name        string
	CountryCode string // ISO 3166-1 alpha-2, for display labels
	Lat, Lon    float64
	Kinds       []event.Type
}

// Regions is the monitored-region catalog.
var Regions = []Region{
	{"Amazon Basin", "BR", -3.4653, -62.2159, []event.Type{event.TypeDeforestation, event.TypeFire, event.TypeDrought}},
	{"Congo Basin", "CD", -0.7264, 23.6558, []event.Type{event.TypeDeforestation, event.TypeFire}},
	{"Siberia Boreal", "RU", 60.05, 105.32, []event.Type{event.TypeDeforestation, event.TypeFire}},
	{"Jakarta Suburbs", "ID", -6.3021, 106.8956, []event.Type{event.TypeConstruction, event.TypeFlood, event.TypeDeforestation}},
	{"Punjab Farmlands", "IN", 30.9010, 75.8573, []event.Type{event.TypeCropStress, event.TypeDrought, event.TypeFlood}},
	{"Sahel Region", "NE", 14.4974, 0.1479, []event.Type{event.TypeDrought, event.TypeCropStress}},
	{"Bangladesh Delta", "BD", 23.0103, 90.4125, []event.Type{event.TypeFlood, event.TypeCropStress}},
	{"Ukraine Steppe", "UA", 48.4647, 35.0462, []event.Type{event.TypeCropStress, event.TypeConstruction}},
}

// RegionByName returns the catalog entry for name.
func RegionByName(name string) (Region, bool) {
	for _, r := range Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

var satellites = []string{"Sentinel-2", "Landsat-8"}

var typeIcons = map[event.Type]string{
	event.TypeDeforestation: "🌳",
	event.TypeFlood:         "🌊",
	event.TypeCropStress:    "🌾",
	event.TypeConstruction:  "🏗️",
	event.TypeFire:          "🔥",
	event.TypeDrought:       "☀️",
}

// Generator produces synthetic events. When a baseline store is attached,
// generated deltas are measured against (and slowly drift) the persisted
// per-region baselines.
type Generator struct {
	rng   *rand.Rand
	store *baseline.Store
	now   func() time.Time
}

// NewGenerator builds a generator from the given seed. A nil store is
// fine; deltas are then drawn without reference baselines.
func NewGenerator(seed int64, store *baseline.Store) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		store: store,
		now:   time.Now,
	}
}

// Next produces one event at a jittered position inside a random region.
func (g *Generator) Next() event.Event {
	region := Regions[g.rng.Intn(len(Regions))]
	kind := region.Kinds[g.rng.Intn(len(region.Kinds))]
	return g.emit(region, kind)
}

func (g *Generator) emit(region Region, kind event.Type) event.Event {
	// Spread events around the region's home coordinate.
	lat := region.Lat + (g.rng.Float64()-0.5)*6.0
	lon := region.Lon + (g.rng.Float64()-0.5)*6.0
	if lat > 90 {
		lat = 90
	}
	if lat < -90 {
		lat = -90
	}

	// Delta magnitude drives severity; thresholds mirror the detectors.
	delta := 0.25 + g.rng.Float64()*0.30
	severity, confidence := grade(delta)
	area := delta * (80 + g.rng.Float64()*820)
	sat := satellites[g.rng.Intn(len(satellites))]
	ts := g.now().UnixMilli()

	ev := event.Event{
		ID:          fmt.Sprintf("EVT_%08X", g.rng.Uint32()),
		Type:        kind,
		Severity:    severity,
		Lat:         lat,
		Lon:         lon,
		Confidence:  confidence,
		Region:      region.Name,
		TileID:      fmt.Sprintf("T%02d%s", g.rng.Intn(60), string(rune('A'+g.rng.Intn(26)))+string(rune('A'+g.rng.Intn(26)))),
		Satellite:   sat,
		Timestamp:   ts,
		AreaHa:      round1(area),
		Icon:        typeIcons[kind],
		Color:       hexColor(kind),
	}

	switch kind {
	case event.TypeDeforestation, event.TypeCropStress:
		ev.NDVIDelta = -round4(delta)
	}
	ev.Description = describe(kind, region.Name, delta, area)

	g.driftBaseline(region, delta, ts)
	return ev
}

// grade maps a spectral delta magnitude to severity and a confidence in
// [0,1], using the pipeline's threshold ladder.
func grade(delta float64) (event.Severity, float64) {
	switch {
	case delta > 0.40:
		return event.SeverityCritical, clamp01(0.75 + delta*0.40)
	case delta > 0.35:
		return event.SeverityHigh, clamp01(0.70 + delta*0.35)
	case delta > 0.28:
		return event.SeverityMedium, clamp01(0.60 + delta*0.30)
	}
	return event.SeverityLow, clamp01(0.50 + delta*0.30)
}

func describe(kind event.Type, region string, delta, area float64) string {
	switch kind {
	case event.TypeDeforestation:
		return fmt.Sprintf("Vegetation loss detected in %s. NDVI dropped %.2f below seasonal baseline. Estimated cleared area: %.0f ha.", region, delta, area)
	case event.TypeFlood:
		return fmt.Sprintf("Surface water expansion in %s. NDWI rose %.2f above baseline. Inundated area: %.0f ha.", region, delta, area)
	case event.TypeCropStress:
		return fmt.Sprintf("Crop stress developing in %s. NDVI declined %.2f against seasonal baseline across farmland tiles.", region, delta)
	case event.TypeConstruction:
		return fmt.Sprintf("New built-up surface in %s. Impervious surface gain of %.0f ha against baseline composite.", region, area)
	case event.TypeFire:
		return fmt.Sprintf("Burn scar signature in %s. SWIR reflectance %.2f above baseline with thermal anomaly. Affected area: %.0f ha.", region, delta, area)
	case event.TypeDrought:
		return fmt.Sprintf("Rainfall deficit conditions in %s. Soil moisture proxy down %.2f from baseline.", region, delta)
	}
	return fmt.Sprintf("Unclassified surface change in %s (delta %.2f).", region, delta)
}

// driftBaseline nudges the persisted region baseline toward the observed
// value so repeated events in one region gradually become the new normal.
func (g *Generator) driftBaseline(region Region, delta float64, ts int64) {
	if g.store == nil {
		return
	}
	b, ok, err := g.store.Get(region.Name)
	if err != nil || !ok {
		b = baseline.Baseline{Region: region.Name, NDVI: 0.65, NDWI: 0.10, SWIR: 0.20}
	}
	b.NDVI = b.NDVI*0.98 - delta*0.02
	b.UpdatedAt = ts
	if err := g.store.Put(b); err != nil {
		// Baseline drift is best-effort; generation continues regardless.
		return
	}
}

func hexColor(kind event.Type) string {
	c := kind.Config().Color
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
func round4(v float64) float64 { return float64(int(v*10000+0.5)) / 10000 }

// Fallback returns a deterministic batch of n events, newest-first, used
// when the viewer has never reached the feed. Timestamps are spread over
// the preceding hour so relative ages look natural.
func Fallback(n int) []event.Event {
	g := NewGenerator(1, nil)
	base := time.Now()
	out := make([]event.Event, 0, n)
	for i := 0; i < n; i++ {
		g.now = func() time.Time { return base.Add(-time.Duration(i) * 90 * time.Second) }
		out = append(out, g.Next())
	}
	return out
}
