package inspect

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weft-dev/weft/pkg/weft"
)

// EventType identifies a graph event on the wire.
type EventType string

const (
	EventSignalWrite     EventType = "signal.write"
	EventMemoRecompute   EventType = "memo.recompute"
	EventEffectRun       EventType = "effect.run"
	EventOwnerDispose    EventType = "owner.dispose"
	EventResourceLoad    EventType = "resource.load"
	EventSuspensePending EventType = "suspense.pending"
)

// Event is a graph event sent to WebSocket clients.
type Event struct {
	Type      EventType `json:"type"`
	NodeID    uint64    `json:"node_id,omitempty"`
	Changed   *bool     `json:"changed,omitempty"`
	ElapsedUS int64     `json:"elapsed_us,omitempty"`
	Error     string    `json:"error,omitempty"`
	Pending   int64     `json:"pending,omitempty"`
	At        time.Time `json:"at"`
}

// EventBroadcaster fans graph events out to connected WebSocket
// clients. It implements weft.Observer. With no clients connected
// every event is a cheap read of an empty map.
type EventBroadcaster struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewEventBroadcaster creates an empty broadcaster.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Debug endpoint, not exposed publicly.
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the connection and holds it until the
// client disconnects.
func (b *EventBroadcaster) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := b.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (b *EventBroadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// CloseAll disconnects every client.
func (b *EventBroadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		conn.Close()
	}
	b.clients = make(map[*websocket.Conn]bool)
}

func (b *EventBroadcaster) broadcast(ev Event) {
	b.mu.RLock()
	if len(b.clients) == 0 {
		b.mu.RUnlock()
		return
	}
	clients := make([]*websocket.Conn, 0, len(b.clients))
	for conn := range b.clients {
		clients = append(clients, conn)
	}
	b.mu.RUnlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	for _, conn := range clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			b.mu.Lock()
			delete(b.clients, conn)
			b.mu.Unlock()
			conn.Close()
		}
	}
}

func (b *EventBroadcaster) SignalWrite(id uint64) {
	b.broadcast(Event{Type: EventSignalWrite, NodeID: id, At: time.Now()})
}

func (b *EventBroadcaster) MemoRecompute(id uint64, changed bool, elapsed time.Duration) {
	b.broadcast(Event{
		Type:      EventMemoRecompute,
		NodeID:    id,
		Changed:   &changed,
		ElapsedUS: elapsed.Microseconds(),
		At:        time.Now(),
	})
}

func (b *EventBroadcaster) EffectRun(id uint64, elapsed time.Duration) {
	b.broadcast(Event{
		Type:      EventEffectRun,
		NodeID:    id,
		ElapsedUS: elapsed.Microseconds(),
		At:        time.Now(),
	})
}

func (b *EventBroadcaster) OwnerDispose(id uint64) {
	b.broadcast(Event{Type: EventOwnerDispose, NodeID: id, At: time.Now()})
}

func (b *EventBroadcaster) ResourceLoad(id uint64, elapsed time.Duration, err error) {
	ev := Event{
		Type:      EventResourceLoad,
		NodeID:    id,
		ElapsedUS: elapsed.Microseconds(),
		At:        time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	b.broadcast(ev)
}

func (b *EventBroadcaster) SuspensePending(count int64) {
	b.broadcast(Event{Type: EventSuspensePending, Pending: count, At: time.Now()})
}

var _ weft.Observer = (*EventBroadcaster)(nil)
