// Package stream maintains the push connection to the event feed and
// exposes capped, newest-first views over the events seen so far.
//
// The client owns the whole connection lifecycle: it dials, reads frames,
// and on any transport failure closes the socket and retries on a fixed
// delay, forever, until torn down. Readers always observe fully-formed
// window slices; the windows are replaced wholesale on every batch, never
// mutated element-wise.
package stream

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/sentinelwatch/terra-stream/pkg/event"
)

// State is the connection lifecycle position.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

const (
	// DefaultMaxEvents caps the full window.
	DefaultMaxEvents = 200
	// FeedSize caps the recent feed used by the live ticker.
	FeedSize = 20
	// RetryDelay is the fixed delay between reconnect attempts. No
	// exponential growth; the viewer keeps knocking every 3s.
	RetryDelay = 3 * time.Second
)

// Conn is the minimal transport surface the client needs. It is satisfied
// by *websocket.Conn and by the in-memory fakes used in tests.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens a transport connection to the feed URL.
type Dialer func(url string) (Conn, error)

func gorillaDialer(url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithDialer swaps the transport; tests inject an in-memory pipe.
func WithDialer(d Dialer) Option { return func(c *Client) { c.dial = d } }

// WithClock swaps the reconnect-timer clock; tests inject a fake.
func WithClock(clk clockwork.Clock) Option { return func(c *Client) { c.clock = clk } }

// WithMaxEvents overrides the full-window cap.
func WithMaxEvents(n int) Option { return func(c *Client) { c.maxEvents = n } }

// WithOnUpdate registers a callback fired after every state or window
// change. The view layer uses it to trigger a redraw.
func WithOnUpdate(fn func()) Option { return func(c *Client) { c.onUpdate = fn } }

// Client is the stream client. Create with NewClient, activate with Start,
// release with Close. Activation while already running is a no-op.
type Client struct {
	url       string
	dial      Dialer
	clock     clockwork.Clock
	maxEvents int
	onUpdate  func()

	mu        sync.Mutex
	state     State
	conn      Conn
	window    []event.Event
	feed      []event.Event
	latest    *event.Event
	malformed int
	active    bool
	done      chan struct{}
}

// NewClient builds a client for the given websocket URL. The client is
// Idle until Start is called.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:       url,
		dial:      gorillaDialer,
		clock:     clockwork.NewRealClock(),
		maxEvents: DefaultMaxEvents,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start activates the client. It returns immediately; dialing, reading,
// and reconnecting happen on a background goroutine. Calling Start on an
// already-active client does nothing.
func (c *Client) Start() {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return
	}
	c.active = true
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()
	go c.run(done)
}

// Close tears the client down: the pending reconnect timer is abandoned,
// any open socket is closed, and no further connection attempts are made.
// The last-known windows remain readable.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.state = StateClosed
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	c.notify()
}

func (c *Client) run(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		c.setState(StateConnecting)
		conn, err := c.dial(c.url)
		if err != nil {
			log.Printf("[stream] dial %s: %v (retrying in %v)", c.url, err, RetryDelay)
			c.setState(StateClosed)
			select {
			case <-done:
				return
			case <-c.clock.After(RetryDelay):
			}
			continue
		}

		c.mu.Lock()
		select {
		case <-done:
			// Torn down while the dial was in flight.
			c.mu.Unlock()
			conn.Close()
			return
		default:
		}
		c.conn = conn
		c.state = StateOpen
		c.mu.Unlock()
		c.notify()
		log.Printf("[stream] connected to %s", c.url)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Printf("[stream] read: %v", err)
				break
			}
			c.handleFrame(data)
		}

		// A read error forces a full close; a half-open socket would
		// never deliver another frame.
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.state = StateClosed
		c.mu.Unlock()
		c.notify()

		select {
		case <-done:
			return
		case <-c.clock.After(RetryDelay):
		}
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.notify()
}

func (c *Client) notify() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}

// handleFrame applies one inbound payload. Malformed payloads are counted
// and dropped without touching the windows or the connection.
func (c *Client) handleFrame(data []byte) {
	f, ok := event.DecodeFrame(data)
	if !ok {
		c.mu.Lock()
		c.malformed++
		n := c.malformed
		c.mu.Unlock()
		log.Printf("[stream] dropped malformed frame (%d bytes, %d total)", len(data), n)
		return
	}

	c.mu.Lock()
	switch f.Type {
	case event.FrameHistory:
		// Snapshot: replaces both views outright.
		c.window = capDedupe(f.Events, nil, c.maxEvents)
		c.feed = capDedupe(f.Events, nil, FeedSize)
	case event.FrameNewEvents:
		// Delta: prepend newest-first, then truncate.
		c.window = capDedupe(f.Events, c.window, c.maxEvents)
		c.feed = capDedupe(f.Events, c.feed, FeedSize)
	}
	if len(f.Events) > 0 {
		ev := f.Events[0]
		c.latest = &ev
	}
	c.mu.Unlock()
	c.notify()
}

// capDedupe builds a fresh window from batch followed by tail, keeping the
// first (newest) instance of every event id and truncating at max. The
// inputs are never modified.
func capDedupe(batch, tail []event.Event, max int) []event.Event {
	out := make([]event.Event, 0, min(len(batch)+len(tail), max))
	seen := make(map[string]struct{}, len(batch)+len(tail))
	for _, src := range [2][]event.Event{batch, tail} {
		for _, ev := range src {
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			seen[ev.ID] = struct{}{}
			out = append(out, ev)
			if len(out) == max {
				return out
			}
		}
	}
	return out
}

// Window returns the full capped window, newest arrival first. The slice
// is replaced, never mutated, so callers may iterate it freely.
func (c *Client) Window() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// Feed returns the recent-feed view (at most FeedSize entries).
func (c *Client) Feed() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feed
}

// Latest returns a copy of the most recently arrived event, or nil before
// the first one.
func (c *Client) Latest() *event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return nil
	}
	ev := *c.latest
	return &ev
}

// Connected reports whether the transport is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateOpen
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Malformed returns how many inbound frames were dropped as unparseable.
func (c *Client) Malformed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.malformed
}
