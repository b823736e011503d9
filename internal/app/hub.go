// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gaze_selector/internal/ui"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	clientSendBuf = 32
	broadcastBuf  = 128
)

// envelope is the websocket wire format: {type, ts, data}.
type envelope struct {
	Type string    `json:"type"`
	Ts   time.Time `json:"ts"`
	Data any       `json:"data,omitempty"`
}

// Hub fans board events out to connected browsers. Slow clients are
// disconnected when their send buffer fills.
type Hub struct {
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{} // closed when Run returns

	mu      sync.Mutex
	clients map[*wsClient]struct{}

	// snapshot is sent to every client right after it connects.
	snapshot func() any
}

var _ ui.EventSink = (*Hub)(nil)

func NewHub(snapshot func() any) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuf),
		register:   make(chan *wsClient, 64),
		unregister: make(chan *wsClient, 64),
		done:       make(chan struct{}),
		clients:    make(map[*wsClient]struct{}),
		snapshot:   snapshot,
	}
}

// Run processes hub events until ctx is canceled, then drops all clients.
func (h *Hub) Run(ctx context.Context) {
	log.Println("ws: hub starting")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			log.Println("ws: hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("ws: client %s registered (%s), %d connected", c.id, c.remoteAddr, n)

		case c := <-h.unregister:
			h.remove(c, "unregister")

		case msg := <-h.broadcast:
			var slow []*wsClient
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.remove(c, "slow client")
			}
		}
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish implements ui.EventSink. It never blocks; when the queue is full
// the event is dropped.
func (h *Hub) Publish(ev ui.Event) {
	msg, err := json.Marshal(envelope{Type: string(ev.Type), Ts: ev.Time, Data: ev})
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("ws: broadcast queue full, dropping %s", ev.Type)
	}
}

// join queues c for registration. It reports false once the hub has stopped.
func (h *Hub) join(c *wsClient) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave queues c for removal; after Run returns there is nothing to leave.
func (h *Hub) leave(c *wsClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			c.conn.Close()
		}
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *wsClient, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	if c.conn != nil {
		c.conn.Close()
	}
	close(c.send)
	log.Printf("ws: client %s disconnected (%s), %d connected", c.id, reason, n)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	c := &wsClient{
		id:         uuid.New(),
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, clientSendBuf),
		remoteAddr: r.RemoteAddr,
	}

	// queue the snapshot before registering so it is the first frame
	if h.snapshot != nil {
		msg, err := json.Marshal(envelope{Type: "state_init", Ts: time.Now().UTC(), Data: h.snapshot()})
		if err == nil {
			c.send <- msg
		}
	}
	if !h.join(c) {
		conn.Close()
		return
	}

	// the request context ends when this handler returns
	go c.writePump()
	go c.readPump()
}

type wsClient struct {
	id         uuid.UUID
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					log.Printf("ws: client %s write error: %v", c.id, err)
				}
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards incoming frames; it exists to notice disconnects.
func (c *wsClient) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: client %s read error: %v", c.id, err)
			}
			c.hub.leave(c)
			return
		}
	}
}
