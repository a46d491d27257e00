// Package kafka provides the Kafka transport backends: a synchronous
// publisher and a consumer bridge feeding deliveries into the ingestion
// sink.
package kafka

import (
	"context"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

// Publisher publishes payloads to one Kafka topic, blocking until the broker
// acknowledges each message.
type Publisher struct {
	Topic string

	producer sarama.SyncProducer
}

// NewPublisher connects a synchronous producer to hosts.
func NewPublisher(hosts []string, topic string) (*Publisher, error) {
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_11_0_0
	conf.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(hosts, conf)
	if err != nil {
		return nil, errors.Wrap(err, "getting new producer")
	}
	return &Publisher{Topic: topic, producer: producer}, nil
}

// Publish sends data with the given attributes as record headers. The
// returned delivery identifier is "<partition>-<offset>", which is stable
// for the lifetime of the message on the topic.
func (p *Publisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	msg := &sarama.ProducerMessage{
		Topic: p.Topic,
		Value: sarama.ByteEncoder(data),
	}
	for k, v := range attrs {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return "", errors.Wrap(err, "sending message")
	}
	return fmt.Sprintf("%d-%d", partition, offset), nil
}

// Close shuts down the underlying producer.
func (p *Publisher) Close() error {
	return errors.Wrap(p.producer.Close(), "closing kafka producer")
}
