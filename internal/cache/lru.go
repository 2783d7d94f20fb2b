package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// LRUCache is a TTL cache bounded by entry count. Rendered workbooks are
// keyed "<project>:<version>:..." so a new snapshot never hits a stale entry.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	index   map[string]*list.Element
	order   *list.List // front is most recently used
	now     func() time.Time

	hits, misses int64
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

// NewLRUCache returns a cache holding at most maxSize entries, each valid for
// ttl after its last Set.
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		index:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if ok && c.expired(el, c.now()) {
		c.drop(el)
		ok = false
	}
	if !ok {
		c.misses++
		var zero T
		return zero, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*entry[T]).value, true
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.maxSize {
		c.drop(c.order.Back())
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

// DeletePrefix drops every entry of a project, e.g. after it is deleted.
func (c *LRUCache[T]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, el := range c.index {
		if strings.HasPrefix(key, prefix) {
			c.drop(el)
			n++
		}
	}
	return n
}

// CleanExpired drops expired entries and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el, now) {
			c.drop(el)
			n++
		}
		el = prev
	}
	return n
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Stats returns the lookup counters since creation.
func (c *LRUCache[T]) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *LRUCache[T]) expired(el *list.Element, now time.Time) bool {
	return now.After(el.Value.(*entry[T]).expires)
}

func (c *LRUCache[T]) drop(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
