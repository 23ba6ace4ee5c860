package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerKeepsLastGoodSnapshot(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tiles_processed":42,"events_detected":7,"tiles_per_second":1.5,"pipeline_latency_ms":120,"uptime_seconds":300}`))
	}))
	defer srv.Close()

	p := NewPoller(srv.URL)
	p.poll(context.Background())

	s, healthy := p.Latest()
	require.True(t, healthy)
	assert.Equal(t, int64(42), s.TilesProcessed)
	assert.Equal(t, int64(7), s.EventsDetected)
	assert.InDelta(t, 1.5, s.TilesPerSecond, 1e-9)

	// A failing poll flips the health flag but the snapshot stays readable.
	fail.Store(true)
	p.poll(context.Background())
	s, healthy = p.Latest()
	assert.False(t, healthy)
	assert.Equal(t, int64(42), s.TilesProcessed)

	fail.Store(false)
	p.poll(context.Background())
	_, healthy = p.Latest()
	assert.True(t, healthy)
}

func TestPollerUnreachable(t *testing.T) {
	p := NewPoller("http://127.0.0.1:1/api/stats")
	p.Client.Timeout = 200 * time.Millisecond
	p.poll(context.Background())

	_, healthy := p.Latest()
	assert.False(t, healthy)
}
