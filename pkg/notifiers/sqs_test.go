package notifiers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/samvad-hq/featurette/internal/domain"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSNotifierSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	n := &sqsNotifier{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   client,
		log:      noopLogger{},
	}

	err := n.Notify(context.Background(), NewEvent(domain.NewLoadedRecord("https://flags.example.com", map[string]bool{"a": true})))
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["outcome"]
	if !ok || aws.ToString(attr.StringValue) != string(domain.OutcomeLoaded) {
		t.Fatalf("outcome attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if src := client.input.MessageAttributes["source"]; aws.ToString(src.StringValue) != "https://flags.example.com" {
		t.Fatalf("source attribute wrong: %#v", src)
	}
	if body := aws.ToString(client.input.MessageBody); !strings.Contains(body, `"outcome":"features_loaded"`) {
		t.Fatalf("MessageBody missing outcome: %s", body)
	}
}

func TestSQSNotifierSendError(t *testing.T) {
	n := &sqsNotifier{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   &fakeSQSClient{err: errors.New("boom")},
		log:      noopLogger{},
	}

	if err := n.Notify(context.Background(), NewEvent(domain.NewFailedRecord("src", errors.New("x")))); err == nil {
		t.Fatalf("expected error from Notify")
	}
}

func TestNewSQSNotifierWithStaticCredentials(t *testing.T) {
	n, err := newSQSNotifier(context.Background(), NotifierConfig{
		ID:   "queue",
		Type: TypeSQS,
		SQS: &SQSConfig{
			QueueURL: "http://localhost:4566/000000000000/flags",
			Region:   "us-east-1",
			Endpoint: "http://localhost:4566",
			Credentials: &AWSCredentials{
				AccessKeyID:     "test",
				SecretAccessKey: "test",
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newSQSNotifier: %v", err)
	}
	if n.Type() != TypeSQS || n.ID() != "queue" {
		t.Fatalf("unexpected notifier %s/%s", n.Type(), n.ID())
	}
}
