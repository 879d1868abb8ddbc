// Package sse implements a Server-Sent Events broker for genome change
// notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type genomeEventReq struct {
	kind    string
	owner   string
	version int
}

type driftReq struct {
	owner string
	drift float64
}

// GenomeEventData is the payload of genome.* events.
type GenomeEventData struct {
	OwnerID string `json:"userId"`
	Version int    `json:"version,omitempty"`
}

// DriftEventData is the payload of drift.detected events.
type DriftEventData struct {
	OwnerID string  `json:"userId"`
	Drift   float64 `json:"drift"`
}

// InboxEventData is the payload of inbox.* events.
type InboxEventData struct {
	Path string `json:"path"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the per-owner drift
// throttle. Public methods talk to it over channels.
type Broker struct {
	driftMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	genomeEventCh chan genomeEventReq
	driftCh       chan driftReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one drift.detected event per
// owner within driftThrottle.
func NewBroker(driftThrottle time.Duration) *Broker {
	if driftThrottle <= 0 {
		driftThrottle = 2 * time.Second
	}

	b := &Broker{
		driftMin:      driftThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		genomeEventCh: make(chan genomeEventReq, 256),
		driftCh:       make(chan driftReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	lastDrift := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.genomeEventCh:
			switch req.kind {
			case "created", "updated", "evolved", "revealed", "deleted", "stage_completed":
				broadcast(Event{
					Type: "genome." + req.kind,
					Data: GenomeEventData{OwnerID: req.owner, Version: req.version},
				})
			}
			if req.kind == "deleted" {
				delete(lastDrift, req.owner)
			}

		case req := <-b.driftCh:
			now := time.Now()
			if now.Sub(lastDrift[req.owner]) >= b.driftMin {
				lastDrift[req.owner] = now
				broadcast(Event{Type: "drift.detected", Data: DriftEventData{OwnerID: req.owner, Drift: req.drift}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishGenomeEvent broadcasts genome.<kind> for owner. Unknown kinds are
// dropped.
func (b *Broker) PublishGenomeEvent(kind, owner string, version int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.genomeEventCh <- genomeEventReq{kind: kind, owner: owner, version: version}:
	case <-b.stopped:
	}
}

// PublishDrift broadcasts drift.detected, throttled per owner.
func (b *Broker) PublishDrift(owner string, drift float64) {
	if b.closed.Load() {
		return
	}
	select {
	case b.driftCh <- driftReq{owner: owner, drift: drift}:
	case <-b.stopped:
	}
}

// PublishInboxEvent broadcasts inbox.<result> for a processed batch file.
func (b *Broker) PublishInboxEvent(result, path string) {
	b.Publish(Event{Type: "inbox." + result, Data: InboxEventData{Path: path}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
