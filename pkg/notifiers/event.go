package notifiers

import (
	"time"

	"github.com/samvad-hq/featurette/internal/domain"
)

// Event is the payload delivered to notification sinks.
type Event struct {
	Record     domain.LoadRecord `json:"record"`
	NotifiedAt time.Time         `json:"notified_at"`
}

// NewEvent wraps a load record for delivery.
func NewEvent(rec domain.LoadRecord) Event {
	return Event{
		Record:     rec,
		NotifiedAt: time.Now().UTC(),
	}
}

// attributes returns the routing attributes attached by queue and topic sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"outcome": string(e.Record.Outcome),
		"source":  e.Record.Source,
	}
}
