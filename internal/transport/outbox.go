package transport

import (
	"fmt"
	"sync"

	"github.com/openarcade/tugofwar/internal/protocol"
)

// Outbox buffers outbound messages for one player, bridging the game
// session to the connection's writer goroutine. Send never blocks: a full
// buffer is treated as an unreachable peer.
type Outbox struct {
	id     string
	events chan protocol.Outbound
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the given player ID.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(id string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		id:     id,
		events: make(chan protocol.Outbound, bufferSize),
	}
}

// ID returns the player identifier the outbox belongs to.
func (o *Outbox) ID() string {
	return o.id
}

// Send enqueues msg for delivery.
//
// Postcondition: msg is enqueued, or an error if the outbox is closed or full.
func (o *Outbox) Send(msg protocol.Outbound) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.id)
	}
	select {
	case o.events <- msg:
		return nil
	default:
		return fmt.Errorf("outbox %s buffer full", o.id)
	}
}

// Events returns the read-only events channel. The connection's writer
// goroutine drains it onto the wire.
func (o *Outbox) Events() <-chan protocol.Outbound {
	return o.events
}

// Close marks the outbox as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Send calls return an error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
