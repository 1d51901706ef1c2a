package pubsub

import (
	"github.com/stretchr/testify/assert"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestPublisher(t *testing.T) {
	p := New[int](slog.Default())

	const subscribers = 4
	var wg sync.WaitGroup
	wg.Add(subscribers)
	for range subscribers {
		ch := p.Subscribe()
		go func(ch chan int) {
			defer wg.Done()
			assert.Equal(t, 42, <-ch)
			p.Unsubscribe(ch)
		}(ch)
	}

	assert.Equal(t, subscribers, p.Subscribers())
	p.Publish(42)
	wg.Wait()

	assert.Eventually(t, func() bool { return p.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}
