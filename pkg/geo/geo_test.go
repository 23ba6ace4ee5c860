package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelwatch/terra-stream/pkg/event"
)

func TestProject(t *testing.T) {
	tests := []struct {
		lat, lon     float64
		wantX, wantY float64
	}{
		{0, 0, 640, 360},
		{90, -180, 0, 0},
		{-90, 180, 1280, 720},
		{45, -90, 320, 180},
		{-10, -80, 355.56, 400},
		{95, 0, 640, -20}, // out-of-range latitude is not clamped
	}

	for _, tt := range tests {
		x, y := Project(tt.lat, tt.lon, 1280, 720)
		if math.Abs(x-tt.wantX) > 0.01 || math.Abs(y-tt.wantY) > 0.01 {
			t.Errorf("Project(%f, %f) = (%f, %f); want (%f, %f)", tt.lat, tt.lon, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestUnprojectInvertsProject(t *testing.T) {
	for lat := -90.0; lat <= 90.0; lat += 7.5 {
		for lon := -180.0; lon <= 180.0; lon += 15.0 {
			x, y := Project(lat, lon, 1280, 720)
			gotLat, gotLon := Unproject(x, y, 1280, 720)
			assert.InDelta(t, lat, gotLat, 1e-9)
			assert.InDelta(t, lon, gotLon, 1e-9)
		}
	}
}

func TestNearest(t *testing.T) {
	// On a 360x180 canvas the projection is x = lon+180, y = 90-lat.
	events := []event.Event{
		{ID: "a", Lat: -10, Lon: -80}, // pixel (100, 100)
		{ID: "b", Lat: -10, Lon: -60}, // pixel (120, 100)
	}

	hit := Nearest(100, 100, events, 360, 180, 12)
	require.NotNil(t, hit)
	assert.Equal(t, "a", hit.ID)

	// (111, 100) is 11px from a and 9px from b; the closer one wins.
	hit = Nearest(111, 100, events, 360, 180, 12)
	require.NotNil(t, hit)
	assert.Equal(t, "b", hit.ID)

	// Exactly at the tolerance is a miss; the bound is strict.
	assert.Nil(t, Nearest(112, 100, events[:1], 360, 180, 12))
	assert.NotNil(t, Nearest(111.99, 100, events[:1], 360, 180, 12))
}

func TestNearestEmptyAndFar(t *testing.T) {
	assert.Nil(t, Nearest(100, 100, nil, 360, 180, 12))

	events := []event.Event{{ID: "a", Lat: 0, Lon: 0}}
	assert.Nil(t, Nearest(0, 0, events, 360, 180, 12))
}
