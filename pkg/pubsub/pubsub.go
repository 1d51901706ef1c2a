// Package pubsub implements a minimal publish/subscribe broker.
package pubsub

import (
	"log/slog"
	"sync"
)

// A Publisher sends each published item to all subscribed clients.
type Publisher[T any] struct {
	subscribers map[chan T]struct{}
	logger      *slog.Logger
	lock        sync.RWMutex
}

func New[T any](logger *slog.Logger) *Publisher[T] {
	return &Publisher[T]{
		subscribers: make(map[chan T]struct{}),
		logger:      logger,
	}
}

// Subscribe returns a channel on which the Publisher will send all published items.
func (p *Publisher[T]) Subscribe() chan T {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := make(chan T)
	p.subscribers[ch] = struct{}{}
	p.logger.Debug("subscriber added", slog.Int("subscribers", len(p.subscribers)))
	return ch
}

// Unsubscribe removes the channel from the Publisher. Items published after
// Unsubscribe returns are no longer sent to the channel.
func (p *Publisher[T]) Unsubscribe(ch chan T) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.subscribers, ch)
	p.logger.Debug("subscriber removed", slog.Int("subscribers", len(p.subscribers)))
}

// Publish sends the item to all subscribers.
func (p *Publisher[T]) Publish(item T) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for ch := range p.subscribers {
		ch <- item
	}
}

// Subscribers returns the number of subscribed clients.
func (p *Publisher[T]) Subscribers() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return len(p.subscribers)
}
