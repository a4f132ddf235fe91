package hub

import (
	"log"
	"sync"
)

// Hub owns the live-subscriber registry: a topic-keyed set of client handles.
// Delivery is routed strictly by topic; a client only receives events for
// topics it explicitly subscribed to.
//
// Publish is best effort: no retry, no persistence, and a full client queue
// drops the event for that client. Connects and disconnects race with
// publishes, so the registry is guarded for concurrent mutation and iteration.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Client
}

func New() *Hub {
	return &Hub{topics: make(map[string]map[string]*Client)}
}

// Subscribe registers a client for a topic. Registration is explicit; there
// is no ambient global state.
func (h *Hub) Subscribe(topic string, c *Client) {
	if topic == "" || c == nil {
		return
	}
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*Client)
		h.topics[topic] = subs
	}
	subs[c.ID] = c
	h.mu.Unlock()
}

// Unsubscribe removes a client from one topic.
func (h *Hub) Unsubscribe(topic string, clientID string) {
	h.mu.Lock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, clientID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()
}

// Drop removes a client from every topic and signals its shutdown. Called on
// disconnect.
func (h *Hub) Drop(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	for topic, subs := range h.topics {
		delete(subs, c.ID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()
	c.Close()
}

// Publish delivers the payload to every current subscriber of the topic.
// Non-blocking: clients that are shutting down or have a full queue are
// skipped, and the drop is logged and swallowed.
func (h *Hub) Publish(topic string, payload interface{}) {
	ev := Event{Topic: topic, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.topics[topic] {
		select {
		case <-c.Done():
			continue
		default:
		}

		select {
		case c.Send <- ev:
		default:
			log.Printf("hub: dropped event for slow client %s on %s", c.ID, topic)
		}
	}
}
