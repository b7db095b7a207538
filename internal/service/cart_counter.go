package service

import "sync"

// CartCounter owns the per-user cart item count shown in the page header.
// Subscribers receive the latest count; intermediate values may be skipped.
type CartCounter struct {
	mu     sync.Mutex
	counts map[string]int
	subs   map[string]map[int]chan int
	nextID int
}

func NewCartCounter() *CartCounter {
	return &CartCounter{
		counts: make(map[string]int),
		subs:   make(map[string]map[int]chan int),
	}
}

// Publish records the count and notifies the user's subscribers
func (c *CartCounter) Publish(userID string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[userID] = count
	for _, ch := range c.subs[userID] {
		// only Publish sends, under the lock: after draining, the send cannot block
		select {
		case <-ch:
		default:
		}
		ch <- count
	}
}

// Count returns the last published count
func (c *CartCounter) Count(userID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, ok := c.counts[userID]
	return count, ok
}

// Subscribe returns a channel of count updates and a func that stops them
func (c *CartCounter) Subscribe(userID string) (<-chan int, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++

	ch := make(chan int, 1)
	if c.subs[userID] == nil {
		c.subs[userID] = make(map[int]chan int)
	}
	c.subs[userID][id] = ch
	if count, ok := c.counts[userID]; ok {
		ch <- count
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs[userID], id)
			if len(c.subs[userID]) == 0 {
				delete(c.subs, userID)
			}
		})
	}
	return ch, cancel
}
