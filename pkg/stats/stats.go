// Package stats polls the pipeline's aggregate-counter endpoint and keeps
// the last good snapshot available for the HUD. Polling failures are
// tolerated silently; the stale snapshot stays readable and a Healthy flag
// tells the view to dim the panel.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Stats mirrors the shape of the /api/stats response.
type Stats struct {
	TilesProcessed    int64   `json:"tiles_processed"`
	EventsDetected    int64   `json:"events_detected"`
	TilesPerSecond    float64 `json:"tiles_per_second"`
	PipelineLatencyMS int64   `json:"pipeline_latency_ms"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
}

// DefaultInterval is how often the poller refreshes.
const DefaultInterval = 5 * time.Second

// Poller periodically fetches Stats from a URL.
type Poller struct {
	URL      string
	Interval time.Duration
	Client   *http.Client
	Clock    clockwork.Clock

	mu      sync.Mutex
	latest  Stats
	healthy bool
	polled  bool
}

// NewPoller builds a poller with default interval, HTTP client, and clock.
func NewPoller(url string) *Poller {
	return &Poller{
		URL:      url,
		Interval: DefaultInterval,
		Client:   &http.Client{Timeout: 4 * time.Second},
		Clock:    clockwork.NewRealClock(),
	}
}

// Run polls immediately and then on every interval tick until ctx is
// cancelled. It is meant to be run as a goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)
	t := p.Clock.NewTicker(p.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	s, err := p.fetch(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if p.healthy || !p.polled {
			log.Printf("[stats] poll %s: %v", p.URL, err)
		}
		p.healthy = false
		p.polled = true
		return
	}
	p.latest = s
	p.healthy = true
	p.polled = true
}

func (p *Poller) fetch(ctx context.Context) (Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return Stats{}, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return Stats{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Stats{}, fmt.Errorf("bad status: %s", resp.Status)
	}
	var s Stats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// Latest returns the last good snapshot and whether the most recent poll
// succeeded.
func (p *Poller) Latest() (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.healthy
}
