package broadcast

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/makeasinger/studio/internal/model"
)

// Client is the outbound write handle of one connected live client.
// A Send error means the client is gone and it is pruned.
type Client interface {
	Send(message []byte) error
}

// Hub fans events out to every connected client. The client registry is only
// reachable through AddClient, RemoveClient and Broadcast; it is empty at start.
type Hub struct {
	mu      sync.Mutex
	clients map[string]Client
	logger  *slog.Logger
}

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]Client),
		logger:  logger.With(slog.String("component", "broadcast")),
	}
}

// AddClient registers a client. An existing client with the same id is replaced.
func (h *Hub) AddClient(id string, c Client) {
	h.mu.Lock()
	h.clients[id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", slog.String("client_id", id), slog.Int("clients", n))
}

// RemoveClient deregisters a client. Unknown ids are ignored.
func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	n := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	closeClient(c)
	h.logger.Debug("client disconnected", slog.String("client_id", id), slog.Int("clients", n))
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast serializes the event once and writes it to every client.
// Clients whose write fails are removed; delivery to the rest continues.
func (h *Hub) Broadcast(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", slog.String("type", string(event.Type)), slog.Any("error", err))
		return
	}

	h.mu.Lock()
	var dead []Client
	for id, c := range h.clients {
		if err := c.Send(data); err != nil {
			delete(h.clients, id)
			dead = append(dead, c)
			h.logger.Debug("pruned client", slog.String("client_id", id), slog.Any("error", err))
		}
	}
	h.mu.Unlock()

	for _, c := range dead {
		closeClient(c)
	}
}

// BroadcastGeneration sends a generation event keyed by the generation id
func (h *Hub) BroadcastGeneration(eventType model.EventType, generationID int64, payload model.GenerationPayload) {
	h.Broadcast(model.Event{
		Type:         eventType,
		GenerationID: generationID,
		Data:         payload,
	})
}

// BroadcastStem sends a stem separation event keyed by the separation, its
// parent generation and the variant it was run against
func (h *Hub) BroadcastStem(eventType model.EventType, stem *model.StemSeparation, payload model.StemPayload) {
	h.Broadcast(model.Event{
		Type:             eventType,
		GenerationID:     stem.GenerationID,
		StemSeparationID: stem.ID,
		AudioID:          stem.AudioID,
		Data:             payload,
	})
}

// BroadcastAnnotation sends an annotation_update event
func (h *Hub) BroadcastAnnotation(a *model.Annotation) {
	h.Broadcast(model.Event{
		Type:         model.EventAnnotationUpdate,
		GenerationID: a.GenerationID,
		AudioID:      a.AudioID,
		Data: model.AnnotationPayload{
			Rating:   a.Rating,
			Favorite: a.Favorite,
			Notes:    a.Notes,
			Labels:   a.Labels,
		},
	})
}

func closeClient(c Client) {
	if closer, ok := c.(io.Closer); ok {
		_ = closer.Close()
	}
}
