package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topics used across the gateway.
const (
	TopicDriveSyncRefresh = "drive-sync-refresh"
	TopicGmailScanStarted = "gmail-scan-started"
)

// Event is one broadcast message.
type Event struct {
	ID      string
	Topic   string
	At      time.Time
	Payload interface{}
}

// Bus is an in-process publish/subscribe hub. Delivery is best effort: a
// subscriber that has fallen behind loses the event rather than blocking the
// publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan Event
	next int
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers interest in a topic. The returned cancel func must be
// called when the subscriber goes away.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	ch := make(chan Event, 8)
	b.subs[topic][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[topic][id]; ok {
			delete(b.subs[topic], id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish broadcasts an event to every subscriber of the topic.
func (b *Bus) Publish(topic string, payload interface{}) {
	event := Event{
		ID:      uuid.NewString(),
		Topic:   topic,
		At:      time.Now().UTC(),
		Payload: payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}
