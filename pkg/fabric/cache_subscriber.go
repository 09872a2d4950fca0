package fabric

// CacheSubscriber caches the latest non-owning pointer for every topic it
// has seen. It never itself subscribes a callback, so it never triggers
// downstream work; it exists purely for later synchronous lookup, e.g. by
// the risk model resolving a fair price against the freshest top of book.
type CacheSubscriber[R any] struct {
	cache map[string]*R
}

func NewCacheSubscriber[R any]() *CacheSubscriber[R] {
	return &CacheSubscriber[R]{cache: make(map[string]*R)}
}

func (c *CacheSubscriber[R]) Notify(_ Consumer[R], topic string, record *R) {
	c.cache[topic] = record
}

func (c *CacheSubscriber[R]) EndOfBatch(_ Consumer[R]) {}

// Get returns the cached record for topic, or nil if no entry for it has
// ever been announced through Notify. The returned pointer is only valid
// until topic's next update.
func (c *CacheSubscriber[R]) Get(topic string) *R {
	return c.cache[topic]
}

// ForEach visits every cached (topic, record) pair in unspecified order.
func (c *CacheSubscriber[R]) ForEach(fn func(topic string, record *R)) {
	for topic, record := range c.cache {
		fn(topic, record)
	}
}
