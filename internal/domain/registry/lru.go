package registry

import (
	"container/list"
	"sync"

	"github.com/okian/cardcognition/internal/domain/scoring"
)

type lruEntry struct {
	key   string
	value scoring.Predictor
}

// lru is a bounded, thread-safe least-recently-used map of predictors.
// The front of order is the most recently used entry. gen advances on every
// removal so loads started before it can be refused.
type lru struct {
	mu       sync.Mutex
	capacity int
	gen      uint64
	items    map[string]*list.Element
	order    *list.List
}

func newLRU(capacity int) *lru {
	return &lru{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *lru) get(key string) (scoring.Predictor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

func (c *lru) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// add inserts or refreshes key when gen is still current and returns the
// number of cached entries. It reports false and leaves the cache untouched
// when a removal happened since gen was read.
func (c *lru) add(key string, p scoring.Predictor, gen uint64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return len(c.items), false
	}
	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).value = p
		c.order.MoveToFront(el)
		return len(c.items), true
	}
	c.items[key] = c.order.PushFront(&lruEntry{key: key, value: p})
	for len(c.items) > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).key)
	}
	return len(c.items), true
}

func (c *lru) remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.items, key)
	return true
}

func (c *lru) purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	n := len(c.items)
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
	return n
}

func (c *lru) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
