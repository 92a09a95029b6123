package notifiers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samvad-hq/featurette/internal/domain"
	"github.com/samvad-hq/featurette/pkg/features"
)

type recordingDispatcher struct {
	events []Event
	err    error
	ctxOK  bool
}

func (r *recordingDispatcher) Notify(ctx context.Context, evt Event) (int, error) {
	_, r.ctxOK = ctx.Deadline()
	r.events = append(r.events, evt)
	if r.err != nil {
		return 0, r.err
	}
	return 1, nil
}

func TestListenerTranslatesOutcomes(t *testing.T) {
	d := &recordingDispatcher{}
	l := NewListener(d, "https://flags.example.com", time.Second, nil)

	l.FeaturesLoaded(features.NewFeatureSet(map[string]bool{"a": true, "b": false}))
	l.FeaturesLoadFailed(errors.New("status 500"))

	if len(d.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(d.events))
	}
	loaded := d.events[0].Record
	if loaded.Outcome != domain.OutcomeLoaded || loaded.FlagCount != 2 || loaded.Source != "https://flags.example.com" {
		t.Fatalf("unexpected loaded record %+v", loaded)
	}
	failed := d.events[1].Record
	if failed.Outcome != domain.OutcomeFailed || failed.Error != "status 500" {
		t.Fatalf("unexpected failed record %+v", failed)
	}
	if !d.ctxOK {
		t.Fatalf("expected notify context to carry a deadline")
	}
}

func TestListenerAbsorbsDeliveryErrors(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("sink down")}
	l := NewListener(d, "src", 0, nil)

	l.FeaturesLoadFailed(errors.New("boom"))
	if len(d.events) != 1 {
		t.Fatalf("expected delivery attempt, got %d", len(d.events))
	}
}
