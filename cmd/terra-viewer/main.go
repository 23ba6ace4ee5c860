package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"

	"github.com/sentinelwatch/terra-stream/pkg/config"
	"github.com/sentinelwatch/terra-stream/pkg/mapengine"
	"github.com/sentinelwatch/terra-stream/pkg/stats"
	"github.com/sentinelwatch/terra-stream/pkg/stream"
	"github.com/sentinelwatch/terra-stream/pkg/synthetic"
)

var (
	configPath = flag.String("config", "terra-stream.toml", "Path to the TOML config file")
	feedURL    = flag.String("feed", "", "Websocket feed URL (overrides config)")
	statsURL   = flag.String("stats", "", "Stats endpoint URL (overrides config)")
	captureDir = flag.String("capture-dir", "", "Directory for screenshot captures (overrides config)")
	tpsFlag    = flag.Int("tps", 30, "Ticks per second (engine updates)")
	muteFlag   = flag.Bool("mute", false, "Disable the critical-event chime")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *feedURL != "" {
		cfg.Viewer.FeedURL = *feedURL
	}
	if *statsURL != "" {
		cfg.Viewer.StatsURL = *statsURL
	}
	if *captureDir != "" {
		cfg.Viewer.CaptureDir = *captureDir
	}

	client := stream.NewClient(cfg.Viewer.FeedURL)
	client.Start()
	defer client.Close()

	poller := stats.NewPoller(cfg.Viewer.StatsURL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	engine := mapengine.New(
		cfg.Viewer.Width, cfg.Viewer.Height,
		client, poller,
		synthetic.Fallback(40),
	)
	engine.ClickRadius = cfg.Viewer.ClickRadius
	engine.HoverRadius = cfg.Viewer.HoverRadius
	engine.CaptureDir = cfg.Viewer.CaptureDir
	if cfg.Viewer.Chime && !*muteFlag {
		engine.EnableChime()
	}
	engine.LoadBasemap(cfg.Data.BasemapURL, cfg.Data.CacheDir)

	ebiten.SetTPS(*tpsFlag)
	ebiten.SetWindowSize(cfg.Viewer.Width, cfg.Viewer.Height)
	ebiten.SetWindowTitle("Terra Stream")
	if err := ebiten.RunGame(engine); err != nil {
		log.Fatal(err)
	}
}
