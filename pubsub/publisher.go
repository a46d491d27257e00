// Package pubsub implements the Publisher capability on Google Cloud
// Pub/Sub.
package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/pkg/errors"
)

// Publisher publishes payloads to one Pub/Sub topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPublisher returns a Publisher for project/topic.
func NewPublisher(ctx context.Context, project, topic string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, errors.Wrap(err, "getting pubsub client")
	}
	return &Publisher{client: client, topic: client.Topic(topic)}, nil
}

// Publish sends data and blocks until the server assigns a message ID,
// which it returns as the delivery identifier.
func (p *Publisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	res := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := res.Get(ctx)
	return id, errors.Wrap(err, "publishing message")
}

// Close flushes the topic and releases the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
