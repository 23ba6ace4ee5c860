// Package geo provides the equirectangular lat/lon to canvas-pixel
// transforms and pixel-space nearest-event hit-testing. Everything here is
// pure and stateless.
package geo

import (
	"math"

	"github.com/sentinelwatch/terra-stream/pkg/event"
)

// Project maps geographic coordinates onto a width x height pixel surface
// with a linear equirectangular projection. Coordinates outside the valid
// lat/lon ranges simply land outside the canvas; no clamping is done.
func Project(lat, lon, width, height float64) (x, y float64) {
	x = (lon + 180) / 360 * width
	y = (90 - lat) / 180 * height
	return x, y
}

// Unproject is the exact algebraic inverse of Project.
func Unproject(x, y, width, height float64) (lat, lon float64) {
	lon = x/width*360 - 180
	lat = 90 - y/height*180
	return lat, lon
}

// Nearest returns the event whose projected position is closest to the
// pointer, provided that distance is strictly under tolerancePx, or nil
// when the set is empty or nothing is close enough. When two events are
// equidistant either may be returned.
func Nearest(px, py float64, events []event.Event, width, height, tolerancePx float64) *event.Event {
	var best *event.Event
	bestDist := math.Inf(1)
	for i := range events {
		x, y := Project(events[i].Lat, events[i].Lon, width, height)
		dx, dy := x-px, y-py
		d := math.Hypot(dx, dy)
		if d < bestDist {
			bestDist = d
			best = &events[i]
		}
	}
	if best == nil || bestDist >= tolerancePx {
		return nil
	}
	return best
}
