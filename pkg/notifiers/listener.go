package notifiers

import (
	"context"
	"time"

	"github.com/samvad-hq/featurette/internal/domain"
	"github.com/samvad-hq/featurette/pkg/features"
)

const defaultNotifyTimeout = 10 * time.Second

// Dispatcher delivers an event to one or more sinks.
type Dispatcher interface {
	Notify(ctx context.Context, evt Event) (int, error)
}

// listener turns feature client outcomes into notifier events.
type listener struct {
	dispatcher Dispatcher
	source     string
	timeout    time.Duration
	log        Logger
}

// NewListener adapts a Dispatcher (usually a Fanout) into a features.Listener.
// Delivery errors are logged, never returned to the client.
func NewListener(d Dispatcher, source string, timeout time.Duration, log Logger) features.Listener {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &listener{
		dispatcher: d,
		source:     source,
		timeout:    timeout,
		log:        ensureLogger(log),
	}
}

func (l *listener) FeaturesLoaded(set features.FeatureSet) {
	l.dispatch(domain.NewLoadedRecord(l.source, set.Map()))
}

func (l *listener) FeaturesLoadFailed(err error) {
	l.dispatch(domain.NewFailedRecord(l.source, err))
}

func (l *listener) dispatch(rec domain.LoadRecord) {
	if l.dispatcher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	delivered, err := l.dispatcher.Notify(ctx, NewEvent(rec))
	if err != nil {
		l.log.ErrorObj("notify load outcome failed", "notify_error", map[string]any{
			"outcome":   string(rec.Outcome),
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	l.log.DebugObj("load outcome notified", "notify_result", map[string]any{
		"outcome":   string(rec.Outcome),
		"delivered": delivered,
	})
}
