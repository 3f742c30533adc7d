package engine

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is one progress event forwarded to WebSocket subscribers.
type Frame struct {
	Agent   string `json:"agent"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Hub fans conversion progress out to WebSocket subscribers keyed by
// session id. Publishing never blocks: frames to slow subscribers are
// dropped.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Frame]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Frame]struct{})}
}

// Subscribe registers a subscriber for a session. The returned cancel
// function unregisters it and closes the channel; calling it more than
// once is safe.
func (h *Hub) Subscribe(sessionID string) (<-chan Frame, func()) {
	ch := make(chan Frame, 32)
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan Frame]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], ch)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish sends a frame to every subscriber of the session.
func (h *Hub) Publish(sessionID string, f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[sessionID] {
		select {
		case ch <- f:
		default:
		}
	}
}

// Progress adapts the hub into the engine's progress callback for one
// session.
func (h *Hub) Progress(sessionID string) ProgressFunc {
	return func(agent, status, message string) {
		h.Publish(sessionID, Frame{Agent: agent, Status: status, Message: message})
	}
}

func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			http.Error(w, "session_id is required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("engine: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		frames, cancel := hub.Subscribe(sessionID)
		defer cancel()

		// Progress frames and pong replies share the connection, and
		// gorilla allows only one concurrent writer.
		var wmu sync.Mutex
		send := func(v any) error {
			wmu.Lock()
			defer wmu.Unlock()
			return conn.WriteJSON(v)
		}

		go func() {
			for f := range frames {
				if err := send(f); err != nil {
					return
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("engine: websocket read: %v", err)
				}
				return
			}
			if string(msg) == "ping" {
				if err := send(map[string]string{"type": "pong"}); err != nil {
					return
				}
			}
		}
	}
}
