package fabric

// PublisherEntry is a live binding between a publisher and a single topic.
// Calling Publish re-fires whatever the publisher currently holds for that
// topic through every downstream callback subscribed to it.
type PublisherEntry interface {
	Publish()
}

// Publisher creates and retains a PublisherEntry per topic, and signals the
// end of a batch of updates with EndBatch.
type Publisher[R any] interface {
	CreateEntry(topic string, record *R) PublisherEntry
	EndBatch()
}
