package broadcast

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/makeasinger/studio/internal/model"
)

// KeepAliveInterval is how often idle connections get a ping
var KeepAliveInterval = 30 * time.Second

type controlMessage struct {
	Type string `json:"type"`
}

func connectedEvent(clientID string) []byte {
	data, _ := json.Marshal(model.Event{
		Type: model.EventConnected,
		Data: map[string]string{"client_id": clientID},
	})
	return data
}

// StreamSSE registers a client and writes its events as server-sent events
// until a write fails. Suitable for fasthttp's SetBodyStreamWriter.
func (h *Hub) StreamSSE(w *bufio.Writer) {
	client := h.Subscribe(DefaultBuffer)
	defer h.RemoveClient(client.ID)

	if err := writeSSE(w, connectedEvent(client.ID)); err != nil {
		return
	}

	ticker := time.NewTicker(KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.Messages():
			if !ok {
				return
			}
			if err := writeSSE(w, message); err != nil {
				h.logger.Debug("sse write failed", slog.String("client_id", client.ID), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func writeSSE(w *bufio.Writer, message []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", message); err != nil {
		return err
	}
	return w.Flush()
}

// wsConn is the part of a websocket connection the handler uses
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
}

// HandleWebsocket registers a websocket connection as a client and blocks
// until the peer disconnects.
func (h *Hub) HandleWebsocket(c *websocket.Conn) {
	h.serveConn(c)
}

// serveConn returns only after the writer goroutine has exited, since the
// connection is released once the handler returns.
func (h *Hub) serveConn(c wsConn) {
	client := h.Subscribe(DefaultBuffer)

	_ = client.Send(connectedEvent(client.ID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(c, client)
	}()

	h.readPump(c, client)

	// closing the client ends the writer's message loop
	h.RemoveClient(client.ID)
	<-done
}

func (h *Hub) writePump(c wsConn, client *ChannelClient) {
	ticker := time.NewTicker(KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.Messages():
			if !ok {
				_ = c.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c wsConn, client *ChannelClient) {
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", slog.String("client_id", client.ID), slog.Any("error", err))
			}
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong, _ := json.Marshal(controlMessage{Type: "pong"})
			_ = client.Send(pong)
		}
	}
}
