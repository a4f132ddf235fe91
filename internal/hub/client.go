package hub

import "sync"

// Event is what subscribers receive: the topic it was published on plus the
// payload the coordinator handed over.
type Event struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// Client is one live subscriber handle.
//
// Send is never closed by the hub so concurrent publishers cannot panic;
// shutdown is signalled through done instead. Close is idempotent.
type Client struct {
	ID   string
	Send chan Event

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(id string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Client{
		ID:   id,
		Send: make(chan Event, queueSize),
		done: make(chan struct{}),
	}
}

// Done is closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close signals shutdown. It does not close Send.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
