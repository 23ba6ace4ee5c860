package mapengine

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"log"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	geojson "github.com/paulmach/go.geojson"

	"github.com/sentinelwatch/terra-stream/pkg/geo"
	"github.com/sentinelwatch/terra-stream/pkg/utils"
)

var (
	colorOcean    = color.RGBA{8, 10, 15, 255}
	colorLand     = color.RGBA{26, 29, 35, 255}
	colorOutline  = color.RGBA{36, 42, 53, 255}
	colorGrid     = color.RGBA{30, 36, 48, 255}
	colorEquator  = color.RGBA{52, 62, 80, 255}
	colorTropic   = color.RGBA{40, 48, 62, 255}
)

const tropicLat = 23.43693

// LoadBasemap rasterizes the static background once: ocean fill, landmass
// polygons from the cached world geojson, then the graticule. The result
// is drawn first on every frame. A missing or unreachable basemap is not
// fatal; the map degrades to grid-on-ocean.
func (e *Engine) LoadBasemap(basemapURL, cacheDir string) {
	cpuImg := image.NewRGBA(image.Rect(0, 0, e.Width, e.Height))
	draw.Draw(cpuImg, cpuImg.Bounds(), &image.Uniform{colorOcean}, image.Point{}, draw.Src)

	if basemapURL != "" {
		if err := e.rasterizeLandmass(cpuImg, basemapURL, cacheDir); err != nil {
			log.Printf("[map] basemap unavailable, rendering grid only: %v", err)
		}
	}
	e.drawGraticule(cpuImg)
	e.bgImage = ebiten.NewImageFromImage(cpuImg)
}

func (e *Engine) rasterizeLandmass(img *image.RGBA, url, cacheDir string) error {
	r, err := utils.CachedReader(url, cacheDir, "[map]")
	if err != nil {
		return err
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return err
	}
	for _, f := range fc.Features {
		if f.Geometry.IsPolygon() {
			e.fillPolygon(img, f.Geometry.Polygon, colorLand)
			for _, ring := range f.Geometry.Polygon {
				e.drawRing(img, ring, colorOutline)
			}
		} else if f.Geometry.IsMultiPolygon() {
			for _, poly := range f.Geometry.MultiPolygon {
				e.fillPolygon(img, poly, colorLand)
				for _, ring := range poly {
					e.drawRing(img, ring, colorOutline)
				}
			}
		}
	}
	return nil
}

// drawGraticule paints parallels and meridians every 30°, with the
// equator emphasized and the tropics dashed.
func (e *Engine) drawGraticule(img *image.RGBA) {
	w, h := float64(e.Width), float64(e.Height)

	for lon := -180.0; lon <= 180.0; lon += 30 {
		x, _ := geo.Project(0, lon, w, h)
		e.vline(img, int(x), colorGrid)
	}
	for lat := -90.0; lat <= 90.0; lat += 30 {
		_, y := geo.Project(lat, 0, w, h)
		c := colorGrid
		if lat == 0 {
			c = colorEquator
		}
		e.hline(img, int(y), c, false)
	}
	for _, lat := range []float64{tropicLat, -tropicLat} {
		_, y := geo.Project(lat, 0, w, h)
		e.hline(img, int(y), colorTropic, true)
	}
}

func (e *Engine) hline(img *image.RGBA, y int, c color.RGBA, dashed bool) {
	if y < 0 || y >= e.Height {
		return
	}
	for x := 0; x < e.Width; x++ {
		if dashed && (x/6)%2 == 1 {
			continue
		}
		setPix(img, x, y, c)
	}
}

func (e *Engine) vline(img *image.RGBA, x int, c color.RGBA) {
	if x < 0 || x >= e.Width {
		return
	}
	for y := 0; y < e.Height; y++ {
		setPix(img, x, y, c)
	}
}

func setPix(img *image.RGBA, x, y int, c color.RGBA) {
	off := y*img.Stride + x*4
	img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, 255
}

// fillPolygon scanline-fills one geojson polygon (outer ring plus holes)
// in projected pixel space.
func (e *Engine) fillPolygon(img *image.RGBA, rings [][][]float64, c color.RGBA) {
	if len(rings) == 0 {
		return
	}
	type point struct{ x, y float64 }
	w, h := float64(e.Width), float64(e.Height)
	projected := make([][]point, len(rings))
	minY, maxY := float64(e.Height), 0.0
	for i, ring := range rings {
		projected[i] = make([]point, len(ring))
		for j, p := range ring {
			// geojson order is [lon, lat]
			x, y := geo.Project(p[1], p[0], w, h)
			projected[i][j] = point{x, y}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	for y := int(minY); y <= int(maxY); y++ {
		if y < 0 || y >= e.Height {
			continue
		}
		var nodes []int
		fy := float64(y)
		for _, ring := range projected {
			for i := 0; i < len(ring); i++ {
				j := (i + 1) % len(ring)
				if (ring[i].y < fy && ring[j].y >= fy) || (ring[j].y < fy && ring[i].y >= fy) {
					nodeX := ring[i].x + (fy-ring[i].y)/(ring[j].y-ring[i].y)*(ring[j].x-ring[i].x)
					nodes = append(nodes, int(nodeX))
				}
			}
		}
		sort.Ints(nodes)
		for i := 0; i < len(nodes)-1; i += 2 {
			xs, xe := nodes[i], nodes[i+1]
			if xs < 0 {
				xs = 0
			}
			if xe >= e.Width {
				xe = e.Width - 1
			}
			for x := xs; x < xe; x++ {
				setPix(img, x, y, c)
			}
		}
	}
}

func (e *Engine) drawRing(img *image.RGBA, coords [][]float64, c color.RGBA) {
	w, h := float64(e.Width), float64(e.Height)
	for i := 0; i < len(coords)-1; i++ {
		x1, y1 := geo.Project(coords[i][1], coords[i][0], w, h)
		x2, y2 := geo.Project(coords[i+1][1], coords[i+1][0], w, h)
		e.drawLine(img, int(x1), int(y1), int(x2), int(y2), c)
	}
}

// drawLine is a plain Bresenham segment clipped to the canvas.
func (e *Engine) drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx, dy := math.Abs(float64(x2-x1)), math.Abs(float64(y2-y1))
	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}
	err := dx - dy
	for {
		if x1 >= 0 && x1 < e.Width && y1 >= 0 && y1 < e.Height {
			setPix(img, x1, y1, c)
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
