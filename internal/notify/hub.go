// README: Realtime notifier; one websocket per connected rider, best-effort
// delivery, no queueing. Matching and status flow never depend on it.
package notify

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

const writeWait = 5 * time.Second

// client wraps a connection with its own write lock, so one stalled rider
// cannot hold up publishes to everyone else. Gorilla connections require
// serialized writers.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

type Hub struct {
	mu    sync.Mutex
	conns map[types.ID]*client
}

func NewHub() *Hub {
	return &Hub{conns: make(map[types.ID]*client)}
}

// Register attaches a rider's connection, displacing any previous one.
func (h *Hub) Register(riderID types.ID, conn *websocket.Conn) {
	h.mu.Lock()
	prev := h.conns[riderID]
	h.conns[riderID] = &client{conn: conn}
	h.mu.Unlock()
	if prev != nil {
		_ = prev.conn.Close()
	}
}

// Unregister detaches conn if it is still the rider's current connection.
func (h *Hub) Unregister(riderID types.ID, conn *websocket.Conn) {
	h.mu.Lock()
	if cl := h.conns[riderID]; cl != nil && cl.conn == conn {
		delete(h.conns, riderID)
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// Publish pushes an event to the rider's connection if one exists. At most
// once; a write failure drops the connection and the event. Only the target's
// own write lock is held during the write.
func (h *Hub) Publish(riderID types.ID, event any) {
	h.mu.Lock()
	cl := h.conns[riderID]
	h.mu.Unlock()
	if cl == nil {
		return
	}

	cl.mu.Lock()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := cl.conn.WriteJSON(event)
	cl.mu.Unlock()
	if err != nil {
		log.Printf("notify rider %s: %v", riderID, err)
		h.mu.Lock()
		if h.conns[riderID] == cl {
			delete(h.conns, riderID)
		}
		h.mu.Unlock()
		_ = cl.conn.Close()
	}
}

// Connected reports whether the rider currently has a live channel.
func (h *Hub) Connected(riderID types.ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conns[riderID] != nil
}
