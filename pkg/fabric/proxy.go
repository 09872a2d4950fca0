package fabric

// Proxy fans a single upstream feed out to an ordered set of downstream
// Publishers. The first time a topic is seen it creates one downstream
// entry per registered publisher, in registration order, and subscribes a
// callback on the upstream consumer that re-fires those entries in the
// same order on every later update of that topic. Because the upstream
// record pointer is stable for the life of the topic (the producer
// mutates the same storage cell in place), the downstream entries never
// need to be recreated after that first sighting.
type Proxy[R any] struct {
	entries    map[string]*proxyTopicEntry[R]
	publishers []Publisher[R]
}

func NewProxy[R any]() *Proxy[R] {
	return &Proxy[R]{entries: make(map[string]*proxyTopicEntry[R])}
}

type proxyTopicEntry[R any] struct {
	record  *R
	entries []PublisherEntry
}

func (e *proxyTopicEntry[R]) onUpdate(string, *R) {
	for _, pe := range e.entries {
		pe.Publish()
	}
}

func (p *Proxy[R]) Notify(consumer Consumer[R], topic string, record *R) {
	e, seen := p.entries[topic]
	if seen {
		return
	}
	e = &proxyTopicEntry[R]{record: record}
	for _, publisher := range p.publishers {
		e.entries = append(e.entries, publisher.CreateEntry(topic, record))
	}
	p.entries[topic] = e
	consumer.Subscribe(topic, e.onUpdate)
}

func (p *Proxy[R]) EndOfBatch(Consumer[R]) {
	for _, publisher := range p.publishers {
		publisher.EndBatch()
	}
}

type insertPosition int

const (
	front insertPosition = iota
	back
)

// AddFront registers p as a new downstream publisher ahead of all others
// that are already registered. Every topic already known to the proxy
// retroactively gets a new entry for p, inserted at the front of that
// topic's fan-out order, so subsequent updates call p before any publisher
// registered earlier.
func (pr *Proxy[R]) AddFront(p Publisher[R]) {
	pr.add(p, front)
}

// AddBack registers p as a new downstream publisher behind all others
// that are already registered, with the same retroactive backfill as
// AddFront but appended at the end of each topic's fan-out order.
func (pr *Proxy[R]) AddBack(p Publisher[R]) {
	pr.add(p, back)
}

func (pr *Proxy[R]) add(p Publisher[R], where insertPosition) {
	switch where {
	case front:
		pr.publishers = append([]Publisher[R]{p}, pr.publishers...)
	case back:
		pr.publishers = append(pr.publishers, p)
	}

	for topic, e := range pr.entries {
		entry := p.CreateEntry(topic, e.record)
		switch where {
		case front:
			e.entries = append([]PublisherEntry{entry}, e.entries...)
		case back:
			e.entries = append(e.entries, entry)
		}
	}
}
