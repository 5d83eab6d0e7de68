package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"

	"github.com/talgya/drowned-chart/internal/engine"
)

const (
	maxStreamConns = 8
	writeWait      = 5 * time.Second
	pingPeriod     = 30 * time.Second
	sendBuffer     = 32
)

// hub fans advance results out to websocket subscribers. Slow subscribers
// miss messages rather than stall the engine.
type hub struct {
	mu     deadlock.Mutex
	subs   map[uint64]chan []byte
	nextID atomic.Uint64
}

func newHub() *hub {
	return &hub{subs: make(map[uint64]chan []byte)}
}

func (h *hub) subscribe() (uint64, <-chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) >= maxStreamConns {
		return 0, nil, false
	}
	id := h.nextID.Add(1)
	ch := make(chan []byte, sendBuffer)
	h.subs[id] = ch
	return id, ch, true
}

func (h *hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// streamMessage is one frame on the stream.
type streamMessage struct {
	Type   string        `json:"type"`
	Day    int           `json:"day"`
	Hour   int           `json:"hour"`
	Mode   engine.Mode   `json:"mode"`
	Result engine.Result `json:"result"`
}

func (h *hub) broadcast(msg streamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("stream marshal failed", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- data:
		default:
			slog.Debug("stream subscriber lagging, dropping frame", "sub_id", id)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream upgrades to a websocket and forwards every advance result.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, ch, ok := s.hub.subscribe()
	if !ok {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.hub.unsubscribe(id)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	slog.Info("stream client connected", "sub_id", id)

	// Reader: discard client frames, notice the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case data, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			slog.Info("stream client disconnected", "sub_id", id)
			return
		}
	}
}
