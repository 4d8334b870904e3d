// Package ws exposes the live notification channel: a WebSocket endpoint
// where clients receive broadcast notifications and may push additional
// reminder rules for the lifetime of the process.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/NanamiChiaki-7/Notiobsidian/internal/hub"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/reminder"
	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

// Handler upgrades inbound connections and runs one receive loop per client.
type Handler struct {
	log logx.Logger
	hub *hub.Hub
	rem *reminder.Service

	upgrader websocket.Upgrader
}

func NewHandler(h *hub.Hub, rem *reminder.Service, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{
		log: log,
		hub: h,
		rem: rem,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The notes UI is same-origin in production; local tooling
			// connects from file:// and CLI clients send no Origin at all.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade failed", logx.Err(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}
	h.hub.Add(c)
	// Every exit path unregisters; the hub may have dropped the client
	// already after a failed broadcast, Remove tolerates that.
	defer func() {
		h.hub.Remove(c.id)
		_ = c.Close()
	}()

	ack, _ := json.Marshal(connectedMsg{
		Type:      "connected",
		Message:   "connection established",
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err := c.Send(ack); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleMessage(r, c, data)
	}
}

func (h *Handler) handleMessage(r *http.Request, c *client, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		// Malformed input is dropped silently; the sender gets no error.
		h.log.Debug("ignoring malformed message", logx.String("client", c.id), logx.Err(err))
		return
	}

	switch msg.Type {
	case "ping":
		pong, _ := json.Marshal(pongMsg{Type: "pong"})
		_ = c.Send(pong)

	case "sync_notices", "new_notices":
		h.rem.AddNotices(msg.Notices)
		h.rem.ForceCheck(r.Context())

	case "new_notice":
		if msg.Data != nil {
			h.rem.AddNotices([]reminder.Notice{*msg.Data})
			h.rem.ForceCheck(r.Context())
		}

	case "sync_events":
		// Events carry lead-time windows; the next scheduled tick is soon
		// enough, no forced pass.
		h.rem.AddEvents(msg.Events)

	default:
		h.log.Debug("ignoring unknown message type",
			logx.String("client", c.id), logx.String("type", msg.Type))
	}
}
