package bus

import "time"

// Event kinds published inside imsgd.
const (
	KindMessageNew    = "message.new"
	KindStatusChanged = "session.status_changed"
	KindPollFailed    = "poll.failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	// ID is unique per published event. Publish fills it when empty.
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
