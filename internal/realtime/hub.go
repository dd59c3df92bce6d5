package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/heatmap/pkg/logger"
)

// ErrHubStopped is returned by Broadcast after Stop
var ErrHubStopped = errors.New("realtime: hub stopped")

// Hub tracks connected clients and fans events out to them
// ⭐ SSOT: 클라이언트 등록/해제와 브로드캐스트는 Run 루프에서만
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}

	mu       sync.RWMutex
	running  bool
	count    int
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewHub creates a hub; call Start before serving clients
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 프론트엔드가 다른 포트에서 접속
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.WithComponent("realtime"),
	}
}

// Start runs the hub loop in the background; calling it twice is a no-op
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and closes every client
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Broadcast queues an event for every connected client
func (h *Hub) Broadcast(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-h.quit:
		return ErrHubStopped
	}
}

// ServeWS upgrades the request and registers the connection
// GET /ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade가 이미 에러 응답을 작성함
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := newClient(h, conn)
	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.setCount(0)
			h.logger.Info("Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))

			h.logger.WithFields(map[string]interface{}{
				"client_id":   client.id,
				"remote_addr": client.remoteAddr,
				"clients":     len(h.clients),
			}).Info("Client registered")

			if msg, err := json.Marshal(NewEvent(EventConnected, map[string]string{"client_id": client.id})); err == nil {
				select {
				case client.send <- msg:
				default:
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.setCount(len(h.clients))

				h.logger.WithFields(map[string]interface{}{
					"client_id": client.id,
					"duration":  time.Since(client.connectedAt),
				}).Info("Client unregistered")
			}

		case message := <-h.broadcast:
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 버퍼가 가득 찬 클라이언트는 끊음
					close(client.send)
					delete(h.clients, client)
					dropped++
				}
			}
			if dropped > 0 {
				h.setCount(len(h.clients))
				h.logger.WithField("dropped", dropped).Warn("Slow clients disconnected")
			}
			h.logger.WithField("clients", len(h.clients)).Debug("Event broadcast")
		}
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}
