package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CreativeUnicorns/addonprefs"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is one broadcast forwarded to websocket clients.
type wsEvent struct {
	Topic string `json:"topic"`
	Data  string `json:"data"`
}

type client struct {
	send chan wsEvent
}

// hub fans control button broadcasts out to websocket clients.
// A client whose buffer is full misses the event.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	logger  addonprefs.Logger
}

func newHub(logger addonprefs.Logger) *hub {
	return &hub{clients: make(map[*client]struct{}), logger: logger}
}

// observe is subscribed to every bus topic and keeps command broadcasts.
func (h *hub) observe(topic string, subject any, data string) {
	if subject != nil || !strings.HasSuffix(topic, "-cmdPressed") {
		return
	}
	h.publish(wsEvent{Topic: topic, Data: data})
}

func (h *hub) publish(ev wsEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("Dropping event for slow websocket client", "topic", ev.Topic)
		}
	}
}

func (h *hub) register() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{send: make(chan wsEvent, sendBuffer)}
	h.clients[c] = struct{}{}
	return c, true
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// handleWS streams {topic, data} for every control button press.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, ok := s.hub.register()
	if !ok {
		s.respondWithError(w, r, http.StatusServiceUnavailable, "Server is shutting down", nil)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.unregister(c)
		s.logger.Warn("WS upgrade error", "error", err)
		return
	}
	defer conn.Close()

	// Reader: only control frames are expected; any read error ends the stream.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.hub.unregister(c)

	for {
		select {
		case ev, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}
