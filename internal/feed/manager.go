package feed

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Manager handles client registration, region subscriptions, and event
// fan-out.
type Manager struct {
	mu         sync.RWMutex
	clients    map[uint64]*Client
	regionIDs  []string
	bufferSize int
}

// NewManager creates a feed manager scoped to the given region ids.
func NewManager(regionIDs []string, bufferSize int) *Manager {
	return &Manager{
		clients:    make(map[uint64]*Client),
		regionIDs:  append([]string(nil), regionIDs...),
		bufferSize: bufferSize,
	}
}

// Register adds a new client. Returns the client for further use.
func (m *Manager) Register(conn *websocket.Conn) *Client {
	c := NewClient(conn, m.bufferSize)

	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()

	log.Printf("feed client %d connected (%s)", c.ID, conn.RemoteAddr())
	return c
}

// Unregister removes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()

	c.Close()
	log.Printf("feed client %d disconnected", c.ID)
}

// ResolveRegions validates requested region ids against the known list.
// Returns nil for "*" (all regions).
func (m *Manager) ResolveRegions(regionIDs []string) (resolved []string, all bool) {
	known := make(map[string]bool, len(m.regionIDs))
	for _, r := range m.regionIDs {
		known[r] = true
	}
	for _, r := range regionIDs {
		if r == "*" {
			return nil, true
		}
		if known[r] {
			resolved = append(resolved, r)
		}
	}
	return resolved, false
}

// Broadcast sends an event to every client subscribed to its region.
func (m *Manager) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("feed: encode event: %v", err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		if !c.IsSubscribed(ev.RegionID) {
			continue
		}
		if !c.Send(data) {
			// buffer full, event dropped
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// RegionIDs returns the known region id list.
func (m *Manager) RegionIDs() []string {
	return m.regionIDs
}
