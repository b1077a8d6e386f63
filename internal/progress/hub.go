// Package progress fans pipeline ProgressEvents out to websocket clients.
package progress

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/logger"
)

const clientSendBuffer = 256

// wireMessage is the frame the frontend consumes. The field names match the
// existing frontend handler and must not change.
type wireMessage struct {
	Event string   `json:"event"`
	Data  wireData `json:"data"`
}

type wireData struct {
	AgentType string `json:"agent_type"`
	Message   string `json:"message"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Hub broadcasts ProgressEvents to every connected websocket client
// ⭐ SSOT: 预测进度推送只经过这个 Hub
type Hub struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader

	clients  map[*client]bool
	clientMu sync.Mutex
}

type client struct {
	conn   *websocket.Conn
	sendCh chan []byte
}

// NewHub creates a hub with no connected clients
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The frontend dev server runs on a different origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// ServeWS upgrades an HTTP request and keeps the connection registered until
// the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, sendCh: make(chan []byte, clientSendBuffer)}

	h.clientMu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.clientMu.Unlock()
	h.logger.WithField("clients", count).Info("websocket client connected")

	go h.writePump(c)
	go h.readPump(c)
}

// Emit implements contracts.ProgressSink. A client whose send buffer is full
// loses the event rather than stalling the pipeline; the ProgressSink
// contract allows dropping partial-text frames.
func (h *Hub) Emit(ev contracts.ProgressEvent) {
	frame, err := json.Marshal(wireMessage{
		Event: "analysis_progress",
		Data: wireData{
			AgentType: string(ev.Stage),
			Message:   ev.Message,
			Reasoning: ev.PartialText,
		},
	})
	if err != nil {
		h.logger.WithError(err).Error("marshaling progress event")
		return
	}

	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	for c := range h.clients {
		select {
		case c.sendCh <- frame:
		default:
		}
	}
}

// ClientCount reports the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	for c := range h.clients {
		close(c.sendCh)
		delete(h.clients, c)
	}
}

func (h *Hub) writePump(c *client) {
	for frame := range c.sendCh {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.Close()
}

// readPump drains inbound frames so close handshakes and pings are handled.
// Clients never send application data.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.clientMu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.sendCh)
	}
	count := len(h.clients)
	h.clientMu.Unlock()
	c.conn.Close()
	h.logger.WithField("clients", count).Info("websocket client disconnected")
}
