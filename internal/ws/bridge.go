// Package ws streams telemetry to connected web observers and serves the
// control surface's HTTP API.
package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livelab/backend/internal/telemetry"
)

type client struct {
	conn *websocket.Conn
	b    *Bridge
	send chan []byte
	done chan struct{}
}

// writePump drains the client's send buffer onto the wire. A write error
// deregisters the client so the bridge stops fanning out to it.
func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.b.RemoveClient(c)
				return
			}
		}
	}
}

// close signals writePump to exit. The send channel stays open: fanout
// may still hold a registry snapshot containing this client, and a send
// to the abandoned buffer must stay safe.
func (c *client) close() {
	close(c.done)
}

// DefaultQueueSize bounds the telemetry hand-off queue. At the 20 Hz
// telemetry cadence this is several seconds of slack.
const DefaultQueueSize = 256

// Bridge moves telemetry events from the control-loop goroutine to the
// connected observers. The producer side never blocks: Publish performs a
// non-blocking enqueue and drops on saturation. A single delivery
// goroutine drains the queue and fans events out; it starts lazily when
// the first observer connects and stops when the last one leaves.
type Bridge struct {
	mu      sync.Mutex
	clients map[*client]bool
	queue   chan telemetry.Event
	stop    chan struct{}
	running bool

	dropMu      sync.Mutex
	dropped     int64
	lastDropLog time.Time
}

func NewBridge(queueSize int) *Bridge {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bridge{
		clients: make(map[*client]bool),
		queue:   make(chan telemetry.Event, queueSize),
	}
}

// Publish enqueues an event for delivery. With no observers connected the
// event is dropped outright; with a saturated queue it is dropped with a
// rate-limited warning. Never blocks the caller.
func (b *Bridge) Publish(ev telemetry.Event) {
	b.mu.Lock()
	running := b.running
	b.mu.Unlock()
	if !running {
		return
	}

	select {
	case b.queue <- ev:
	default:
		b.noteDrop()
	}
}

func (b *Bridge) noteDrop() {
	b.dropMu.Lock()
	defer b.dropMu.Unlock()
	b.dropped++
	if time.Since(b.lastDropLog) >= 5*time.Second {
		log.Printf("warning: telemetry queue full, %d events dropped", b.dropped)
		b.lastDropLog = time.Now()
	}
}

// AddClient registers an observer and starts the delivery goroutine if it
// is the first one.
func (b *Bridge) AddClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go c.writePump()

	b.mu.Lock()
	b.clients[c] = true
	if !b.running {
		b.startDeliveryLocked()
	}
	b.mu.Unlock()

	return c
}

// RemoveClient deregisters an observer. The last removal stops delivery.
func (b *Bridge) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	if len(b.clients) == 0 {
		b.stopDeliveryLocked()
	}
	b.mu.Unlock()
}

// Shutdown stops delivery and disconnects all observers. Idempotent.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.stopDeliveryLocked()
	b.mu.Unlock()
}

func (b *Bridge) startDeliveryLocked() {
	// Events published between runs are stale; drop them.
	for {
		select {
		case <-b.queue:
		default:
			b.stop = make(chan struct{})
			b.running = true
			go b.deliver(b.stop)
			return
		}
	}
}

// stopDeliveryLocked is a no-op when delivery is already stopped.
func (b *Bridge) stopDeliveryLocked() {
	if !b.running {
		return
	}
	b.running = false
	close(b.stop)
}

func (b *Bridge) deliver(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev := <-b.queue:
			b.fanout(ev)
		}
	}
}

// fanout sends one event to every registered observer in turn. A slow or
// failed observer is disconnected; the rest still receive the event.
func (b *Bridge) fanout(ev telemetry.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("telemetry marshal error: %v", err)
		return
	}

	b.mu.Lock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			log.Printf("ws observer too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Dropped reports how many events have been dropped on queue saturation.
func (b *Bridge) Dropped() int64 {
	b.dropMu.Lock()
	defer b.dropMu.Unlock()
	return b.dropped
}
