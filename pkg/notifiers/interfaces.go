package notifiers

import "context"

// Notifier sends load events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, evt Event) error
}
