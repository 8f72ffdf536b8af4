package feed

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Client represents a connected WebSocket dashboard client.
type Client struct {
	ID   uint64
	Conn *websocket.Conn

	mu         sync.RWMutex
	regions    map[string]bool // region id -> subscribed
	allRegions bool

	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// stats
	Dropped uint64
}

var clientIDCounter uint64

// NewClient creates a new client wrapping a WebSocket connection.
func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		ID:      atomic.AddUint64(&clientIDCounter, 1),
		Conn:    conn,
		regions: make(map[string]bool),
		sendCh:  make(chan []byte, bufferSize),
		done:    make(chan struct{}),
	}
}

// Subscribe adds regions to the client's subscription.
func (c *Client) Subscribe(regionIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range regionIDs {
		c.regions[r] = true
	}
}

// SubscribeAll subscribes the client to every region.
func (c *Client) SubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allRegions = true
}

// Unsubscribe removes regions from the client's subscription.
func (c *Client) Unsubscribe(regionIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range regionIDs {
		delete(c.regions, r)
	}
}

// IsSubscribed checks if the client is subscribed to a given region.
func (c *Client) IsSubscribed(regionID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allRegions {
		return true
	}
	return c.regions[regionID]
}

// Send enqueues data to be sent to the client.
// Returns false if the buffer is full (message dropped).
func (c *Client) Send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		atomic.AddUint64(&c.Dropped, 1)
		return false
	}
}

// SendCh returns the send channel for the write pump.
func (c *Client) SendCh() <-chan []byte {
	return c.sendCh
}

// Done returns a channel that is closed when the client is disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close terminates the client connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}
