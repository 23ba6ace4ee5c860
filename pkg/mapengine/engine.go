// Package mapengine renders the live operational picture: an
// immediate-mode world map of change events with pointer-driven selection
// and hover, a live feed ticker, and a pipeline stats HUD.
//
// The engine is a plain ebiten.Game. Every frame redraws the static
// background (grid + landmass) and then encodes the current event set,
// selection, and hover on top; there is no retained scene graph.
package mapengine

import (
	"bytes"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/sentinelwatch/terra-stream/pkg/event"
	"github.com/sentinelwatch/terra-stream/pkg/geo"
	"github.com/sentinelwatch/terra-stream/pkg/stats"
)

// EventSource is the stream-client surface the engine consumes. It is
// satisfied by *stream.Client.
type EventSource interface {
	Window() []event.Event
	Feed() []event.Event
	Latest() *event.Event
	Connected() bool
}

// StatsSource supplies the pipeline counters for the HUD panel. It is
// satisfied by *stats.Poller.
type StatsSource interface {
	Latest() (stats.Stats, bool)
}

// Point radii for the three interaction states.
const (
	radiusDefault  = 4.0
	radiusHovered  = 6.0
	radiusSelected = 8.0
)

// Default pick tolerances in pixels. Click wants precision; hover wants to
// light up before the user is exactly on top of a point.
const (
	DefaultClickRadius = 12.0
	DefaultHoverRadius = 18.0
)

// Engine is the map renderer plus the thin view-controller state: which
// event is selected, which is hovered, and which type filter is active.
type Engine struct {
	Width, Height int

	ClickRadius float64
	HoverRadius float64

	// CaptureDir enables the screenshot key when non-empty.
	CaptureDir string

	source   EventSource
	stats    StatsSource
	fallback []event.Event

	selectedID string
	hoveredID  string
	filter     event.Type // TypeUnknown means "all"
	showFeed   bool

	bgImage    *ebiten.Image
	fontSource *text.GoTextFaceSource
	monoSource *text.GoTextFaceSource

	chime          *Chime
	lastChimeID    string
	capturePending bool

	now func() time.Time
}

// New builds an engine over the given sources. fallback is shown whenever
// the stream has never delivered anything and is currently disconnected.
func New(width, height int, source EventSource, statsSource StatsSource, fallback []event.Event) *Engine {
	s, _ := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	m, _ := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	return &Engine{
		Width:       width,
		Height:      height,
		ClickRadius: DefaultClickRadius,
		HoverRadius: DefaultHoverRadius,
		source:      source,
		stats:       statsSource,
		fallback:    fallback,
		showFeed:    true,
		fontSource:  s,
		monoSource:  m,
		now:         time.Now,
	}
}

// EnableChime turns on the audible ping for critical events.
func (e *Engine) EnableChime() {
	e.chime = NewChime()
}

// Layout implements ebiten.Game; the engine renders at a fixed internal
// resolution regardless of the window size.
func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	return e.Width, e.Height
}

// visibleEvents derives the event list the renderer and hit-tester see:
// the stream window, or the synthetic fallback while the stream has never
// produced anything and is down, filtered by the active type filter.
func (e *Engine) visibleEvents() []event.Event {
	events := e.source.Window()
	if len(events) == 0 && !e.source.Connected() {
		events = e.fallback
	}
	if e.filter == event.TypeUnknown {
		return events
	}
	filtered := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if ev.DisplayType() == e.filter {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

// eventByID resolves a selection/hover reference against the visible set.
// A stale id (the event fell out of the window) resolves to nil.
func (e *Engine) eventByID(id string) *event.Event {
	if id == "" {
		return nil
	}
	events := e.visibleEvents()
	for i := range events {
		if events[i].ID == id {
			return &events[i]
		}
	}
	return nil
}

// handleClick resolves a press at pixel (x, y) with the tight tolerance
// and updates the selection. A miss clears it.
func (e *Engine) handleClick(x, y float64) {
	hit := geo.Nearest(x, y, e.visibleEvents(), float64(e.Width), float64(e.Height), e.ClickRadius)
	if hit == nil {
		e.selectedID = ""
		return
	}
	e.selectedID = hit.ID
}

// handleMove resolves the cursor position with the loose tolerance and
// updates the hover highlight.
func (e *Engine) handleMove(x, y float64) {
	hit := geo.Nearest(x, y, e.visibleEvents(), float64(e.Width), float64(e.Height), e.HoverRadius)
	if hit == nil {
		e.hoveredID = ""
		return
	}
	e.hoveredID = hit.ID
}

// handleLeave clears the hover when the pointer leaves the canvas.
func (e *Engine) handleLeave() {
	e.hoveredID = ""
}

// cycleFilter steps through: all -> each known type -> all.
func (e *Engine) cycleFilter() {
	if e.filter == event.TypeUnknown {
		e.filter = event.Types[0]
		return
	}
	for i, t := range event.Types {
		if t == e.filter {
			if i+1 < len(event.Types) {
				e.filter = event.Types[i+1]
			} else {
				e.filter = event.TypeUnknown
			}
			return
		}
	}
	e.filter = event.TypeUnknown
}

// Update implements ebiten.Game: read input, update view state, trigger
// the chime on fresh critical events. All drawing state is derived in
// Draw from what this sets.
func (e *Engine) Update() error {
	e.readPointer()
	e.readKeys()

	if e.chime != nil {
		if latest := e.source.Latest(); latest != nil &&
			latest.Severity.Critical() && latest.ID != e.lastChimeID {
			e.lastChimeID = latest.ID
			e.chime.Play()
		}
	}
	return nil
}
