package mapengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelwatch/terra-stream/pkg/event"
)

// fakeSource is a canned EventSource; the 360x180 canvas used below makes
// the projection arithmetic trivial: x = lon+180, y = 90-lat.
type fakeSource struct {
	window    []event.Event
	feed      []event.Event
	latest    *event.Event
	connected bool
}

func (f *fakeSource) Window() []event.Event { return f.window }
func (f *fakeSource) Feed() []event.Event   { return f.feed }
func (f *fakeSource) Latest() *event.Event  { return f.latest }
func (f *fakeSource) Connected() bool       { return f.connected }

func eventAt(id string, typ event.Type, lat, lon float64) event.Event {
	return event.Event{
		ID:        id,
		Type:      typ,
		Severity:  event.SeverityMedium,
		Lat:       lat,
		Lon:       lon,
		Region:    "Amazon Basin",
		Timestamp: time.Now().UnixMilli(),
	}
}

func newTestEngine(src *fakeSource) *Engine {
	e := New(360, 180, src, nil, nil)
	return e
}

func TestClickSelectsWithinTightTolerance(t *testing.T) {
	// Pixel (100, 100) on the 360x180 canvas is lat -10, lon -80.
	src := &fakeSource{
		window:    []event.Event{eventAt("EVT_00000001", event.TypeFire, -10, -80)},
		connected: true,
	}
	e := newTestEngine(src)

	e.handleClick(100, 100)
	assert.Equal(t, "EVT_00000001", e.selectedID)

	// One pixel off still lands well inside the 12px click radius.
	e.handleClick(101, 100)
	assert.Equal(t, "EVT_00000001", e.selectedID)

	// 30px away misses, and a miss clears the selection.
	e.handleClick(130, 100)
	assert.Empty(t, e.selectedID)
}

func TestHoverUsesLooseTolerance(t *testing.T) {
	src := &fakeSource{
		window:    []event.Event{eventAt("EVT_00000001", event.TypeFlood, -10, -80)},
		connected: true,
	}
	e := newTestEngine(src)

	// 15px away: outside the click radius but inside the hover radius.
	e.handleClick(115, 100)
	assert.Empty(t, e.selectedID)
	e.handleMove(115, 100)
	assert.Equal(t, "EVT_00000001", e.hoveredID)

	// Exactly at the hover radius does not count; the bound is strict.
	e.handleMove(118, 100)
	assert.Empty(t, e.hoveredID)
}

func TestHoverClearedOnLeave(t *testing.T) {
	src := &fakeSource{
		window:    []event.Event{eventAt("EVT_00000001", event.TypeDrought, -10, -80)},
		connected: true,
	}
	e := newTestEngine(src)

	e.handleMove(100, 100)
	require.Equal(t, "EVT_00000001", e.hoveredID)
	e.handleLeave()
	assert.Empty(t, e.hoveredID)
}

func TestVisibleEventsFallsBackWhenDisconnected(t *testing.T) {
	fallback := []event.Event{eventAt("EVT_000000AA", event.TypeFire, 10, 10)}

	src := &fakeSource{connected: false}
	e := New(360, 180, src, nil, fallback)
	assert.Equal(t, fallback, e.visibleEvents())

	// A live but momentarily empty stream must not show synthetic data.
	src.connected = true
	assert.Empty(t, e.visibleEvents())

	// Once real events exist, they win even if the stream later drops.
	src.window = []event.Event{eventAt("EVT_000000BB", event.TypeFlood, 20, 20)}
	src.connected = false
	got := e.visibleEvents()
	require.Len(t, got, 1)
	assert.Equal(t, "EVT_000000BB", got[0].ID)
}

func TestFilterNarrowsVisibleEvents(t *testing.T) {
	src := &fakeSource{
		window: []event.Event{
			eventAt("EVT_00000001", event.TypeFire, 0, 0),
			eventAt("EVT_00000002", event.TypeFlood, 10, 10),
			eventAt("EVT_00000003", event.TypeFire, 20, 20),
		},
		connected: true,
	}
	e := newTestEngine(src)

	e.filter = event.TypeFire
	got := e.visibleEvents()
	require.Len(t, got, 2)
	assert.Equal(t, "EVT_00000001", got[0].ID)
	assert.Equal(t, "EVT_00000003", got[1].ID)
}

func TestFilteredOutEventCannotBeClicked(t *testing.T) {
	src := &fakeSource{
		window:    []event.Event{eventAt("EVT_00000001", event.TypeFlood, -10, -80)},
		connected: true,
	}
	e := newTestEngine(src)
	e.filter = event.TypeFire

	e.handleClick(100, 100)
	assert.Empty(t, e.selectedID)
}

func TestCycleFilterVisitsEveryTypeThenClears(t *testing.T) {
	e := newTestEngine(&fakeSource{connected: true})

	require.Equal(t, event.TypeUnknown, e.filter)
	for _, want := range event.Types {
		e.cycleFilter()
		assert.Equal(t, want, e.filter)
	}
	e.cycleFilter()
	assert.Equal(t, event.TypeUnknown, e.filter)
}

func TestEventByIDStaleSelection(t *testing.T) {
	src := &fakeSource{
		window:    []event.Event{eventAt("EVT_00000001", event.TypeFire, 0, 0)},
		connected: true,
	}
	e := newTestEngine(src)

	e.handleClick(180, 90)
	require.Equal(t, "EVT_00000001", e.selectedID)

	// The event rolls out of the window; the selection id goes stale and
	// must resolve to nothing rather than a dangling pointer.
	src.window = []event.Event{eventAt("EVT_00000002", event.TypeFlood, 40, 40)}
	assert.Nil(t, e.eventByID(e.selectedID))
}

func TestRelAge(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "now"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m"},
		{2 * time.Hour, "2h"},
		{49 * time.Hour, "2d"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, relAge(tc.d))
	}
}

func TestRegionLabel(t *testing.T) {
	assert.Equal(t, "Amazon Basin, Brazil", regionLabel("Amazon Basin"))
	assert.Equal(t, "Atlantis", regionLabel("Atlantis"))
}
