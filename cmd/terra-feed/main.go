package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/sentinelwatch/terra-stream/pkg/baseline"
	"github.com/sentinelwatch/terra-stream/pkg/config"
	"github.com/sentinelwatch/terra-stream/pkg/event"
	"github.com/sentinelwatch/terra-stream/pkg/feedserver"
	"github.com/sentinelwatch/terra-stream/pkg/synthetic"
)

var cli struct {
	Config      string `help:"Path to the TOML config file." default:"terra-stream.toml"`
	Bind        string `help:"Listen address (overrides config)."`
	IntervalMS  int    `help:"Milliseconds between event bursts (overrides config)." name:"interval-ms"`
	BurstMax    int    `help:"Maximum events per burst (overrides config)." name:"burst-max"`
	Seed        int64  `help:"Generator seed; 0 means time-based (overrides config)."`
	BaselineDir string `help:"Badger directory for region baselines." default:"data/baselines"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("terra-feed"),
		kong.Description("Synthetic change-event feed: websocket push plus REST."),
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cli.Bind != "" {
		cfg.Feed.Bind = cli.Bind
	}
	if cli.IntervalMS > 0 {
		cfg.Feed.IntervalMS = cli.IntervalMS
	}
	if cli.BurstMax > 0 {
		cfg.Feed.BurstMax = cli.BurstMax
	}
	if cli.Seed != 0 {
		cfg.Feed.Seed = cli.Seed
	}

	store, err := baseline.Open(cli.BaselineDir)
	if err != nil {
		log.Fatalf("Failed to open baseline store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing baseline store: %v", err)
		}
	}()

	seed := cfg.Feed.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := synthetic.NewGenerator(seed, store)

	srv := feedserver.New(feedserver.NewMetrics())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go srv.Hub.Run(ctx)
	go produce(ctx, srv, gen, cfg.Feed)

	httpSrv := &http.Server{Addr: cfg.Feed.Bind, Handler: srv.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Feed listening on %s (ws at /ws, seed %d)", cfg.Feed.Bind, seed)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server: %v", err)
	}
}

// produce emits bursts of synthetic events on the configured cadence and
// keeps the pipeline counters moving so the stats panel has something to
// show.
func produce(ctx context.Context, srv *feedserver.Server, gen *synthetic.Generator, cfg config.FeedConfig) {
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Publish wants newest-first, so fill the batch backwards.
			n := 1 + rng.Intn(cfg.BurstMax)
			batch := make([]event.Event, n)
			for i := n - 1; i >= 0; i-- {
				batch[i] = gen.Next()
			}
			srv.Publish(batch)

			// Each burst stands in for a strip of processed tiles.
			tiles := 40 + rng.Intn(25)
			rate := float64(tiles) / interval.Seconds()
			latency := time.Duration(80+rng.Intn(140)) * time.Millisecond
			srv.RecordTiles(tiles, rate, latency)
		}
	}
}
