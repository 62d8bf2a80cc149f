// broker/broker.go
package broker

import (
	"sync"

	"astrowell_go_backend/internal/models"
)

// Broker fans assistant replies out to whoever is watching a chat
// session; topics are session ids. Publishing to a topic with no
// subscribers drops the message, which is exactly the abandoned-
// session behavior: a reply that resolves after the viewer left is
// simply discarded.
type Broker struct {
	subscribers map[string][]chan models.ChatMessage
	mu          sync.RWMutex
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan models.ChatMessage),
	}
}

func (b *Broker) Subscribe(topic string) <-chan models.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan models.ChatMessage, 1)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch <-chan models.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chans, ok := b.subscribers[topic]; ok {
		for i, c := range chans {
			if c == ch {
				b.subscribers[topic] = append(chans[:i], chans[i+1:]...)
				close(c)
				break
			}
		}
	}
}

func (b *Broker) Publish(topic string, msg models.ChatMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers[topic] {
		ch <- msg
	}
}
