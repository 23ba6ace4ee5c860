package feedserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sentinelwatch/terra-stream/pkg/event"
	"github.com/sentinelwatch/terra-stream/pkg/stats"
)

// HistorySize caps the in-memory recent-event buffer served to newly
// connected clients and to /api/events.
const HistorySize = 200

// Server owns the recent-event buffer, the aggregate counters, and the
// HTTP surface (websocket feed, REST, Prometheus).
type Server struct {
	Hub     *Hub
	Metrics *Metrics

	mu      sync.Mutex
	recent  []event.Event // newest-first
	stats   stats.Stats
	started time.Time
}

// New builds a server with its hub wired for history-on-connect.
func New(m *Metrics) *Server {
	s := &Server{
		Metrics: m,
		started: time.Now(),
	}
	s.Hub = NewHub(m, s.historyFrame)
	return s
}

// Publish records a batch of newly detected events (newest-first) and
// broadcasts it to all connected clients as a "new_events" frame.
func (s *Server) Publish(events []event.Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	merged := make([]event.Event, 0, len(events)+len(s.recent))
	merged = append(merged, events...)
	merged = append(merged, s.recent...)
	if len(merged) > HistorySize {
		merged = merged[:HistorySize]
	}
	s.recent = merged
	s.stats.EventsDetected += int64(len(events))
	s.mu.Unlock()

	for _, ev := range events {
		s.Metrics.EventsGenerated.WithLabelValues(string(ev.DisplayType())).Inc()
	}
	s.Hub.BroadcastJSON(event.Frame{Type: event.FrameNewEvents, Events: events})
}

// RecordTiles bumps the tile counters that feed /api/stats.
func (s *Server) RecordTiles(n int, rate float64, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TilesProcessed += int64(n)
	s.stats.TilesPerSecond = rate
	s.stats.PipelineLatencyMS = latency.Milliseconds()
}

// historyFrame is the snapshot sent to every client on connect.
func (s *Server) historyFrame() []byte {
	s.mu.Lock()
	recent := s.recent
	s.mu.Unlock()
	if len(recent) == 0 {
		return nil
	}
	b, err := json.Marshal(event.Frame{Type: event.FrameHistory, Events: recent})
	if err != nil {
		return nil
	}
	return b
}

func (s *Server) snapshotStats() stats.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.UptimeSeconds = int64(time.Since(s.started).Seconds())
	return st
}

// Routes returns the full HTTP mux: /ws, /api/events, /api/stats,
// /api/health, /metrics.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Hub.Handler())
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}
	typeFilter := event.Type(r.URL.Query().Get("type"))

	s.mu.Lock()
	recent := s.recent
	s.mu.Unlock()

	out := make([]event.Event, 0, limit)
	for _, ev := range recent {
		if typeFilter != "" && ev.Type != typeFilter {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshotStats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.snapshotStats()
	writeJSON(w, map[string]any{
		"status": "ok",
		"uptime": st.UptimeSeconds,
		"events": st.EventsDetected,
		"tiles":  st.TilesProcessed,
	})
}

