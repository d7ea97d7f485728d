package streamers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matflow/matflow/internal/flow"
)

// clientReg pairs a connection with the world it subscribed to.
type clientReg struct {
	conn  *websocket.Conn
	world flow.WorldID
}

// WebSocketStreamer fans frame events out to connected websocket clients.
// It runs a single hub goroutine that owns registration, unregistration and
// broadcast, so client map access never races with writes. Each client
// carries a world filter: it only receives frames for the world it
// subscribed to (an empty filter receives everything).
type WebSocketStreamer struct {
	id         string
	mu         sync.RWMutex
	clients    map[*websocket.Conn]flow.WorldID
	upgrader   websocket.Upgrader
	broadcast  chan flow.FrameEvent
	register   chan clientReg
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewWebSocketStreamer creates a websocket streamer and starts its hub.
func NewWebSocketStreamer(id string) *WebSocketStreamer {
	s := &WebSocketStreamer{
		id:         id,
		clients:    make(map[*websocket.Conn]flow.WorldID),
		broadcast:  make(chan flow.FrameEvent, 256),
		register:   make(chan clientReg),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// ID returns the streamer ID
func (s *WebSocketStreamer) ID() string {
	return s.id
}

// Type returns the streamer type
func (s *WebSocketStreamer) Type() string {
	return "websocket"
}

// RegisterClient registers a new websocket client connection subscribed to
// the given world. An empty world ID subscribes to every world's frames.
func (s *WebSocketStreamer) RegisterClient(conn *websocket.Conn, world flow.WorldID) {
	select {
	case s.register <- clientReg{conn: conn, world: world}:
	case <-s.done:
		// Streamer is closing, ignore
	}
}

// UnregisterClient unregisters a websocket client connection.
func (s *WebSocketStreamer) UnregisterClient(conn *websocket.Conn) {
	select {
	case s.unregister <- conn:
	case <-s.done:
		// Streamer is closing, ignore
	}
}

// Send queues a frame event for broadcast to all connected clients.
func (s *WebSocketStreamer) Send(ctx context.Context, event flow.FrameEvent) error {
	select {
	case s.broadcast <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Second):
		return fmt.Errorf("broadcast queue full")
	}
}

// run is the hub loop: registration, unregistration and broadcast.
func (s *WebSocketStreamer) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return

		case reg := <-s.register:
			if reg.conn == nil {
				continue
			}
			s.mu.Lock()
			s.clients[reg.conn] = reg.world
			s.mu.Unlock()

		case conn := <-s.unregister:
			if conn == nil {
				continue
			}
			s.mu.Lock()
			if _, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				conn.Close()
			}
			s.mu.Unlock()

		case event, ok := <-s.broadcast:
			if !ok {
				return
			}
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent writes one frame to every client, evicting dead ones.
func (s *WebSocketStreamer) broadcastEvent(event flow.FrameEvent) {
	jsonData, err := event.JSON()
	if err != nil {
		return
	}

	// Snapshot the matching clients so writes happen outside the lock.
	// A client only gets frames for the world it subscribed to.
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn, world := range s.clients {
		if world == "" || world == event.WorldID {
			conns = append(conns, conn)
		}
	}
	s.mu.RUnlock()

	var toRemove []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			toRemove = append(toRemove, conn)
			conn.Close()
		}
	}

	if len(toRemove) > 0 {
		s.mu.Lock()
		for _, conn := range toRemove {
			delete(s.clients, conn)
		}
		s.mu.Unlock()
	}
}

// Close closes all client connections and stops the hub.
func (s *WebSocketStreamer) Close() error {
	close(s.done)

	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Upgrader returns the websocket upgrader for HTTP handlers.
func (s *WebSocketStreamer) Upgrader() websocket.Upgrader {
	return s.upgrader
}
