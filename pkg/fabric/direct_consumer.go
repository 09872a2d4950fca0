package fabric

// DirectConsumer is both a Consumer and a Publisher: it is the point where
// a producer's updates cross into the fabric. Every CreateEntry call
// notifies the wrapped Subscriber, which typically turns around and calls
// Subscribe on this same consumer to attach a downstream callback (see
// Proxy).
type DirectConsumer[R any] struct {
	subscriber      Subscriber[R]
	entries         map[string]*directEntry[R]
	updatesReceived bool
}

func NewDirectConsumer[R any](subscriber Subscriber[R]) *DirectConsumer[R] {
	return &DirectConsumer[R]{
		subscriber: subscriber,
		entries:    make(map[string]*directEntry[R]),
	}
}

type directEntry[R any] struct {
	topic    string
	data     *R
	consumer *DirectConsumer[R]
	callback Callback[R]
}

func (e *directEntry[R]) Publish() {
	if e.data == nil {
		panic("fabric: Publish called before any data was set for topic " + e.topic)
	}
	if e.callback != nil {
		e.callback(e.topic, e.data)
		e.consumer.updatesReceived = true
	}
}

func (e *directEntry[R]) setData(record *R) {
	e.data = record
}

func (e *directEntry[R]) setCallback(cb Callback[R]) {
	e.callback = cb
}

// CreateEntry binds (or rebinds) the record for topic and notifies the
// subscriber, on every call, so it can attach a callback.
func (c *DirectConsumer[R]) CreateEntry(topic string, record *R) PublisherEntry {
	e := c.getOrCreateEntry(topic)
	e.setData(record)
	c.subscriber.Notify(c, topic, record)
	return e
}

func (c *DirectConsumer[R]) getOrCreateEntry(topic string) *directEntry[R] {
	e, ok := c.entries[topic]
	if !ok {
		// A nil callback is the no-op: publishing through it neither
		// calls anything nor counts as an update for EndBatch.
		e = &directEntry[R]{topic: topic, consumer: c}
		c.entries[topic] = e
	}
	return e
}

// EndBatch fires EndOfBatch on the wrapped subscriber exactly once, and
// only if at least one entry was actually published since the last call.
func (c *DirectConsumer[R]) EndBatch() {
	if c.updatesReceived {
		c.updatesReceived = false
		c.subscriber.EndOfBatch(c)
	}
}

// Subscribe attaches cb to topic, creating the entry if it doesn't exist
// yet (with no data bound — it will be set by a later CreateEntry call).
func (c *DirectConsumer[R]) Subscribe(topic string, cb Callback[R]) {
	e, ok := c.entries[topic]
	if ok {
		e.setCallback(cb)
		return
	}
	c.entries[topic] = &directEntry[R]{topic: topic, consumer: c, callback: cb}
}
