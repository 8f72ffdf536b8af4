// Package dispatch implements the time-keyed mailbox used to pass
// messages between agents. A message sent for delivery at time T is not
// visible to its recipient until the simulation clock reaches T.
package dispatch

import (
	"sync"
	"time"

	"github.com/nemsim/nemsim/internal/message"
)

// Dispatcher holds mailboxes keyed by (delivery time, recipient id).
// It is safe for concurrent use, though the simulation driver only ever
// touches it from a single goroutine.
type Dispatcher struct {
	mu        sync.Mutex
	inboxes   map[time.Time]map[string][]message.Message
}

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		inboxes: make(map[time.Time]map[string][]message.Message),
	}
}

// Send enqueues msg for recipientID, to be delivered no earlier than deliverAt.
func (d *Dispatcher) Send(msg message.Message, deliverAt time.Time, recipientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byRecipient, ok := d.inboxes[deliverAt]
	if !ok {
		byRecipient = make(map[string][]message.Message)
		d.inboxes[deliverAt] = byRecipient
	}
	byRecipient[recipientID] = append(byRecipient[recipientID], msg)
}

// DrainAt removes and returns every mailbox scheduled for delivery at t,
// keyed by recipient id. Calling it again for the same t before anything
// else has been Send-ed for t returns nil maps (nothing left to drain).
func (d *Dispatcher) DrainAt(t time.Time) map[string][]message.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	byRecipient, ok := d.inboxes[t]
	if !ok || len(byRecipient) == 0 {
		return nil
	}
	delete(d.inboxes, t)
	return byRecipient
}

// HasPending reports whether any mailbox is scheduled for delivery at t.
// Used by the driver to decide whether another drain pass is needed,
// since handlers invoked during a drain may enqueue further same-tick
// messages.
func (d *Dispatcher) HasPending(t time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	byRecipient, ok := d.inboxes[t]
	return ok && len(byRecipient) > 0
}
