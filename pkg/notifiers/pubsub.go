package notifiers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubNotifier publishes events to a Google Cloud Pub/Sub topic. The
// client honours PUBSUB_EMULATOR_HOST.
type pubsubNotifier struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newPubSubNotifier(ctx context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("notifier %q missing pubsub configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}
	if cfg.PubSub.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSub.Endpoint))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubNotifier{
		id:     cfg.ID,
		client: client,
		topic:  client.Topic(cfg.PubSub.Topic),
		log:    ensureLogger(log),
	}, nil
}

func (p *pubsubNotifier) ID() string   { return p.id }
func (p *pubsubNotifier) Type() string { return TypePubSub }

func (p *pubsubNotifier) Notify(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: evt.attributes(),
	})
	msgID, err := res.Get(ctx)
	if err != nil {
		p.log.ErrorObj("pubsub notifier publish failed", "notifier_pubsub_error", map[string]any{
			"notifier_id": p.id,
			"error":       err.Error(),
		})
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	p.log.DebugObj("pubsub notifier delivered event", "notifier_pubsub_delivery", map[string]any{
		"notifier_id": p.id,
		"message_id":  msgID,
	})
	return nil
}

// Close flushes pending messages and closes the client.
func (p *pubsubNotifier) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
