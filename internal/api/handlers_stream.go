package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler pushes every lab update to websocket clients.
type StreamHandler struct {
	labs   *labs.Store
	logger *slog.Logger
}

func NewStreamHandler(st *labs.Store, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{labs: st, logger: logger}
}

// Stream handles GET /stream. The first message is a "snapshot" event per
// lab; each later change arrives as a "lab" event.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates := h.labs.Subscribe()
	defer h.labs.Unsubscribe(updates)

	h.logger.Info("stream client connected", "remote", r.RemoteAddr, "request_id", GetRequestID(r))

	// Reader: answers pongs and notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, lab := range h.labs.All() {
		lab := lab
		if err := h.send(conn, models.StreamEvent{Type: "snapshot", Lab: &lab}); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case lab, ok := <-updates:
			if !ok {
				return
			}
			if err := h.send(conn, models.StreamEvent{Type: "lab", Lab: &lab}); err != nil {
				h.logger.Debug("stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			h.logger.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *StreamHandler) send(conn *websocket.Conn, ev models.StreamEvent) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
