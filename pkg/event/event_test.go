package event

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrameHistory(t *testing.T) {
	raw := []byte(`{"type":"history","events":[
		{"event_id":"EVT_00000001","event_type":"fire","severity":"critical","lat":-3.5,"lon":-62.1,"confidence":0.91,"region":"Amazon Basin","timestamp":1756500000000},
		{"event_id":"EVT_00000002","event_type":"flood","severity":"high","lat":-6.2,"lon":106.8,"timestamp":1756500001000}
	]}`)

	f, ok := DecodeFrame(raw)
	require.True(t, ok)
	assert.Equal(t, FrameHistory, f.Type)
	require.Len(t, f.Events, 2)
	assert.Equal(t, "EVT_00000001", f.Events[0].ID)
	assert.Equal(t, TypeFire, f.Events[0].Type)
	assert.Equal(t, SeverityCritical, f.Events[0].Severity)
	assert.InDelta(t, -62.1, f.Events[0].Lon, 1e-9)
}

func TestDecodeFrameNewEvents(t *testing.T) {
	raw := []byte(`{"type":"new_events","events":[{"event_id":"EVT_00000003","event_type":"drought","severity":"medium","lat":14.5,"lon":14.5,"timestamp":1756500002000}]}`)

	f, ok := DecodeFrame(raw)
	require.True(t, ok)
	assert.Equal(t, FrameNewEvents, f.Type)
	require.Len(t, f.Events, 1)
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"empty", ``},
		{"unknown type", `{"type":"heartbeat","events":[]}`},
		{"missing type", `{"events":[]}`},
		{"missing events", `{"type":"history"}`},
		{"events not array", `{"type":"history","events":42}`},
		{"json scalar", `"history"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := DecodeFrame([]byte(tc.raw))
			assert.False(t, ok)
		})
	}
}

func TestDecodeFrameEmptyEventsIsValid(t *testing.T) {
	f, ok := DecodeFrame([]byte(`{"type":"new_events","events":[]}`))
	require.True(t, ok)
	assert.Empty(t, f.Events)
}

func TestDisplayTypeFallsBackToInference(t *testing.T) {
	known := Event{Type: TypeFlood, Description: "Fire radiative power spike"}
	assert.Equal(t, TypeFlood, known.DisplayType())

	inferred := Event{Type: "thermal_anomaly", Description: "Active fire front detected, burn scar expanding"}
	assert.Equal(t, TypeFire, inferred.DisplayType())

	opaque := Event{Type: "gravity_wave", Description: "no matching vocabulary here"}
	assert.Equal(t, TypeUnknown, opaque.DisplayType())
}

func TestTypeConfigUnknownGetsDefault(t *testing.T) {
	cfg := Type("volcanic_plume").Config()
	assert.Equal(t, "Anomaly", cfg.Label)
	assert.Equal(t, color.RGBA{148, 163, 184, 255}, cfg.Color)

	// Every recognized type has its own color, distinct from the default.
	for _, typ := range Types {
		assert.NotEqual(t, cfg.Color, typ.Config().Color, "type %q", typ)
	}
}

func TestSeverityOrdering(t *testing.T) {
	order := []Severity{"", "bogus", SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		assert.LessOrEqual(t, order[i-1].Rank(), order[i].Rank())
	}
	assert.True(t, SeverityCritical.Critical())
	assert.False(t, SeverityHigh.Critical())
}

func TestEventAge(t *testing.T) {
	now := time.UnixMilli(1756500060000)
	ev := Event{Timestamp: 1756500000000}
	assert.Equal(t, time.Minute, ev.Age(now))
}

func TestInferType(t *testing.T) {
	cases := []struct {
		desc string
		want Type
		ok   bool
	}{
		{"Vegetation loss detected in Amazon Basin. NDVI dropped 0.31 below seasonal baseline", TypeDeforestation, true},
		{"Standing water signature spreading across delta floodplain", TypeFlood, true},
		{"Crop stress developing, irrigation shortfall suspected", TypeCropStress, true},
		{"New impervious surface detected at urban fringe", TypeConstruction, true},
		{"Burn scar expanding along the ridge", TypeFire, true},
		{"Soil moisture anomaly, prolonged precipitation deficit", TypeDrought, true},
		{"", TypeUnknown, false},
		{"routine telemetry checkpoint", TypeUnknown, false},
	}
	for _, tc := range cases {
		got, ok := InferType(tc.desc)
		assert.Equal(t, tc.ok, ok, "desc %q", tc.desc)
		assert.Equal(t, tc.want, got, "desc %q", tc.desc)
	}
}
