// Package config handles loading, defaulting, and validation of the
// terra-stream TOML configuration file shared by the viewer and the feed
// tool.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Viewer ViewerConfig `toml:"viewer" json:"viewer"`
	Feed   FeedConfig   `toml:"feed"   json:"feed"`
	Data   DataConfig   `toml:"data"   json:"data"`
}

type ViewerConfig struct {
	Width       int     `toml:"width"        json:"width"`
	Height      int     `toml:"height"       json:"height"`
	FeedURL     string  `toml:"feed_url"     json:"feed_url"`
	StatsURL    string  `toml:"stats_url"    json:"stats_url"`
	ClickRadius float64 `toml:"click_radius" json:"click_radius"`
	HoverRadius float64 `toml:"hover_radius" json:"hover_radius"`
	Chime       bool    `toml:"chime"        json:"chime"`
	CaptureDir  string  `toml:"capture_dir"  json:"capture_dir"`
}

type FeedConfig struct {
	Bind       string `toml:"bind"        json:"bind"`
	IntervalMS int    `toml:"interval_ms" json:"interval_ms"`
	BurstMax   int    `toml:"burst_max"   json:"burst_max"`
	Seed       int64  `toml:"seed"        json:"seed"`
}

type DataConfig struct {
	CacheDir   string `toml:"cache_dir"   json:"cache_dir"`
	BasemapURL string `toml:"basemap_url" json:"basemap_url"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Viewer: ViewerConfig{
			Width:       1280,
			Height:      720,
			FeedURL:     "ws://localhost:8766/ws",
			StatsURL:    "http://localhost:8766/api/stats",
			ClickRadius: 12,
			HoverRadius: 18,
			Chime:       true,
			CaptureDir:  "",
		},
		Feed: FeedConfig{
			Bind:       "0.0.0.0:8766",
			IntervalMS: 2000,
			BurstMax:   3,
			Seed:       0,
		},
		Data: DataConfig{
			CacheDir:   "data/cache",
			BasemapURL: "https://raw.githubusercontent.com/johan/world.geo.json/master/countries.geo.json",
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Viewer.Width <= 0 || cfg.Viewer.Height <= 0 {
		return errors.New("viewer: width and height must be positive")
	}
	if cfg.Viewer.ClickRadius <= 0 || cfg.Viewer.HoverRadius <= 0 {
		return errors.New("viewer: pick radii must be positive")
	}
	if cfg.Viewer.ClickRadius > cfg.Viewer.HoverRadius {
		return errors.New("viewer: click_radius must not exceed hover_radius")
	}
	if cfg.Feed.IntervalMS <= 0 {
		return errors.New("feed: interval_ms must be positive")
	}
	if cfg.Feed.BurstMax <= 0 {
		return errors.New("feed: burst_max must be positive")
	}
	if cfg.Feed.Bind == "" {
		return errors.New("feed: bind must be set")
	}
	return nil
}
