package messagequeue

// Publisher sends messages to a named queue.
type Publisher interface {
	Publish(queueName string, contentType string, body []byte) error
	Close() error
}
