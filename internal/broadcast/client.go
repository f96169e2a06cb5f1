package broadcast

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrClientClosed is returned by Send after Close
	ErrClientClosed = errors.New("client closed")
	// ErrClientSlow is returned when the client's send buffer is full
	ErrClientSlow = errors.New("client send buffer full")
)

// DefaultBuffer is the per-client outbound queue length
const DefaultBuffer = 256

// ChannelClient queues messages for a connection writer goroutine. Send never
// blocks: a client that falls a full buffer behind is treated as disconnected.
type ChannelClient struct {
	ID string

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewChannelClient creates a client with a random id
func NewChannelClient(buffer int) *ChannelClient {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &ChannelClient{
		ID:   uuid.NewString(),
		send: make(chan []byte, buffer),
	}
}

func (c *ChannelClient) Send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- message:
		return nil
	default:
		return ErrClientSlow
	}
}

// Messages is closed once the client is closed
func (c *ChannelClient) Messages() <-chan []byte {
	return c.send
}

// Close is idempotent
func (c *ChannelClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// Subscribe registers a new channel client on the hub
func (h *Hub) Subscribe(buffer int) *ChannelClient {
	c := NewChannelClient(buffer)
	h.AddClient(c.ID, c)
	return c
}
