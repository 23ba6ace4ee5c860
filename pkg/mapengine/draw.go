package mapengine

import (
	"fmt"
	"image/color"
	"time"

	"github.com/biter777/countries"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sentinelwatch/terra-stream/pkg/event"
	"github.com/sentinelwatch/terra-stream/pkg/geo"
	"github.com/sentinelwatch/terra-stream/pkg/synthetic"
)

var (
	colorPanelBG     = color.RGBA{0, 0, 0, 100}
	colorPanelBorder = color.RGBA{36, 42, 53, 255}
	colorSelected    = color.RGBA{235, 240, 245, 255}
	colorLive        = color.RGBA{34, 197, 94, 255}
	colorDown        = color.RGBA{239, 68, 68, 255}
)

// Draw implements ebiten.Game. The frame is a pure function of the
// visible event set, the selection and hover ids, and the canvas size;
// the surface is cleared (by the background image) and fully redrawn.
func (e *Engine) Draw(screen *ebiten.Image) {
	if e.bgImage == nil {
		// Basemap not loaded yet; still paint something deterministic.
		screen.Fill(colorOcean)
	} else {
		screen.DrawImage(e.bgImage, nil)
	}

	events := e.visibleEvents()
	w, h := float64(e.Width), float64(e.Height)

	// Oldest first so the newest arrivals land on top.
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		x, y := geo.Project(ev.Lat, ev.Lon, w, h)
		e.drawPoint(screen, ev, float32(x), float32(y))
	}

	e.drawConnection(screen)
	e.drawLegend(screen)
	e.drawStats(screen)
	if e.showFeed {
		e.drawFeed(screen)
	}
	if sel := e.eventByID(e.selectedID); sel != nil {
		e.drawDetail(screen, sel)
	}

	e.captureIfRequested(screen)
}

func (e *Engine) drawPoint(screen *ebiten.Image, ev event.Event, x, y float32) {
	cfg := ev.DisplayType().Config()
	r := float32(radiusDefault)
	switch ev.ID {
	case e.selectedID:
		r = radiusSelected
	case e.hoveredID:
		r = radiusHovered
	}

	if ev.Severity.Critical() {
		// RGBA is premultiplied, so the translucent halo scales RGB too.
		halo := color.RGBA{cfg.Color.R / 4, cfg.Color.G / 4, cfg.Color.B / 4, 64}
		vector.DrawFilledCircle(screen, x, y, r*3, halo, true)
	}

	fill := cfg.Color
	if ev.ID == e.selectedID {
		// Neutral highlight so selection reads even when two types share
		// a hue; the ring makes it unambiguous.
		fill = colorSelected
		vector.StrokeCircle(screen, x, y, r+4, 1.5, colorSelected, true)
	}
	vector.DrawFilledCircle(screen, x, y, r, fill, true)
}

func (e *Engine) drawConnection(screen *ebiten.Image) {
	label := "RECONNECTING"
	c := colorDown
	if e.source.Connected() {
		label = "LIVE"
		c = colorLive
	}
	vector.DrawFilledCircle(screen, 24, 24, 5, c, true)
	e.drawText(screen, label, 36, 16, 14, c, false)
}

func (e *Engine) drawLegend(screen *ebiten.Image) {
	fontSize := 13.0
	rowH := fontSize + 8
	x := 20.0
	boxH := rowH*float64(len(event.Types)) + 30
	y := float64(e.Height) - boxH - 20

	e.panel(screen, x-10, y-10, 190, boxH)
	title := "EVENT TYPES"
	if e.filter != event.TypeUnknown {
		title = "FILTER: " + e.filter.Config().Label
	}
	e.drawText(screen, title, x, y, fontSize*0.9, color.RGBA{255, 255, 255, 128}, false)

	for i, t := range event.Types {
		cfg := t.Config()
		ty := y + 20 + float64(i)*rowH
		sw := cfg.Color
		if e.filter != event.TypeUnknown && e.filter != t {
			sw = color.RGBA{sw.R / 4, sw.G / 4, sw.B / 4, 255}
		}
		vector.DrawFilledCircle(screen, float32(x+6), float32(ty+fontSize/2), 5, sw, true)
		e.drawText(screen, cfg.Label, x+20, ty, fontSize, color.RGBA{255, 255, 255, 200}, false)
	}
}

func (e *Engine) drawStats(screen *ebiten.Image) {
	if e.stats == nil {
		return
	}
	s, healthy := e.stats.Latest()
	fontSize := 13.0
	boxW, boxH := 250.0, 110.0
	x := float64(e.Width) - boxW - 20
	y := float64(e.Height) - boxH - 20
	e.panel(screen, x-10, y-10, boxW, boxH)

	alpha := uint8(200)
	if !healthy {
		alpha = 90
	}
	c := color.RGBA{255, 255, 255, alpha}
	e.drawText(screen, "PIPELINE", x, y, fontSize*0.9, color.RGBA{255, 255, 255, 128}, false)
	rows := []string{
		fmt.Sprintf("tiles processed  %d", s.TilesProcessed),
		fmt.Sprintf("events detected  %d", s.EventsDetected),
		fmt.Sprintf("tiles/sec        %.2f", s.TilesPerSecond),
		fmt.Sprintf("latency          %d ms", s.PipelineLatencyMS),
	}
	for i, row := range rows {
		e.drawText(screen, row, x, y+20+float64(i)*(fontSize+6), fontSize, c, true)
	}
}

func (e *Engine) drawFeed(screen *ebiten.Image) {
	feed := e.source.Feed()
	if len(feed) == 0 && !e.source.Connected() {
		feed = e.fallback
		if len(feed) > 10 {
			feed = feed[:10]
		}
	}
	if len(feed) == 0 {
		return
	}
	if len(feed) > 10 {
		feed = feed[:10]
	}

	fontSize := 12.0
	rowH := fontSize + 8
	boxW := 330.0
	boxH := rowH*float64(len(feed)) + 30
	x := float64(e.Width) - boxW - 20
	y := 20.0
	e.panel(screen, x-10, y-10, boxW, boxH)
	e.drawText(screen, "LIVE FEED", x, y, fontSize*0.9, color.RGBA{255, 255, 255, 128}, false)

	now := e.now()
	for i, ev := range feed {
		cfg := ev.DisplayType().Config()
		ty := y + 20 + float64(i)*rowH
		vector.DrawFilledCircle(screen, float32(x+5), float32(ty+fontSize/2), 4, cfg.Color, true)
		line := fmt.Sprintf("%-4s %-14s %s", relAge(ev.Age(now)), cfg.Label, ev.Region)
		alpha := uint8(210)
		if ev.Severity.Critical() {
			alpha = 255
		}
		e.drawText(screen, line, x+16, ty, fontSize, color.RGBA{255, 255, 255, alpha}, true)
	}
}

func (e *Engine) drawDetail(screen *ebiten.Image, ev *event.Event) {
	fontSize := 13.0
	boxW := 430.0
	boxH := 120.0
	x := (float64(e.Width) - boxW) / 2
	y := float64(e.Height) - boxH - 20
	e.panel(screen, x-10, y-10, boxW, boxH)

	cfg := ev.DisplayType().Config()
	header := fmt.Sprintf("%s  [%s]  %.0f%%", cfg.Label, ev.Severity.Label(), ev.Confidence*100)
	e.drawText(screen, header, x, y, fontSize, cfg.Color, false)
	e.drawText(screen, regionLabel(ev.Region), x, y+20, fontSize, color.RGBA{255, 255, 255, 220}, false)
	meta := fmt.Sprintf("%s · %s · %.3f, %.3f", ev.Satellite, ev.TileID, ev.Lat, ev.Lon)
	e.drawText(screen, meta, x, y+40, fontSize*0.9, color.RGBA{255, 255, 255, 150}, true)
	if ev.Description != "" {
		e.drawText(screen, truncate(ev.Description, 64), x, y+62, fontSize*0.9, color.RGBA{255, 255, 255, 180}, false)
	}
	e.drawText(screen, ev.ID, x, y+84, fontSize*0.85, color.RGBA{255, 255, 255, 110}, true)
}

// regionLabel appends the country name when the region is in the
// monitored catalog; anything else passes through unchanged.
func regionLabel(region string) string {
	r, ok := synthetic.RegionByName(region)
	if !ok {
		return region
	}
	country := countries.ByName(r.CountryCode)
	if country == countries.Unknown {
		return region
	}
	return region + ", " + country.String()
}

func (e *Engine) panel(screen *ebiten.Image, x, y, w, h float64) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), colorPanelBG, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, colorPanelBorder, false)
}

func (e *Engine) drawText(screen *ebiten.Image, s string, x, y, size float64, c color.RGBA, mono bool) {
	src := e.fontSource
	if mono {
		src = e.monoSource
	}
	if src == nil {
		return
	}
	face := &text.GoTextFace{Source: src, Size: size}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	a := float32(c.A) / 255
	op.ColorScale.Scale(float32(c.R)/255*a, float32(c.G)/255*a, float32(c.B)/255*a, a)
	text.Draw(screen, s, face, op)
}

// relAge renders a duration as a compact age: 45s, 12m, 3h, 2d.
func relAge(d time.Duration) string {
	switch {
	case d < 0:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
