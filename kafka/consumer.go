package kafka

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"

	"github.com/Shopify/sarama"
	cluster "github.com/bsm/sarama-cluster"
	"github.com/pkg/errors"

	"github.com/soflow/soflow/ingest"
)

// Consumer bridges a Kafka consumer group into the ingestion sink. Each
// message's delivery identifier is synthesized as "<partition>-<offset>",
// which is stable across redeliveries of the same message so artifact naming
// stays idempotent.
type Consumer struct {
	Hosts  []string
	Topics []string
	Group  string

	consumer *cluster.Consumer
}

// NewConsumer returns an unopened Consumer with defaults.
func NewConsumer() *Consumer {
	return &Consumer{
		Hosts:  []string{"localhost:9092"},
		Topics: []string{"questions"},
		Group:  "soflow-consumer",
	}
}

// Open initializes the consumer group.
func (c *Consumer) Open() error {
	sarama.Logger = log.New(ioutil.Discard, "", 0)
	config := cluster.NewConfig()
	config.Config.Version = sarama.V0_11_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Group.Return.Notifications = true

	var err error
	c.consumer, err = cluster.NewConsumer(c.Hosts, c.Group, c.Topics, config)
	if err != nil {
		return errors.Wrap(err, "getting new consumer")
	}

	go func() {
		for err := range c.consumer.Errors() {
			log.Printf("consumer error: %v", err)
		}
	}()
	go func() {
		for ntf := range c.consumer.Notifications() {
			log.Printf("rebalanced: %+v", ntf)
		}
	}()
	return nil
}

// Run feeds messages into the sink until ctx is done or the message channel
// closes. A failed ingest is not marked processed, so the message is
// redelivered after a restart or rebalance.
func (c *Consumer) Run(ctx context.Context, sink *ingest.Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-c.consumer.Messages():
			if !ok {
				return errors.New("messages channel closed")
			}
			deliveryID := fmt.Sprintf("%d-%d", msg.Partition, msg.Offset)
			if err := sink.Ingest(ctx, deliveryID, msg.Value); err != nil {
				log.Printf("not acking delivery %s: %v", deliveryID, err)
				continue
			}
			c.consumer.MarkOffset(msg, "")
		}
	}
}

// Close closes the underlying consumer group.
func (c *Consumer) Close() error {
	return errors.Wrap(c.consumer.Close(), "closing kafka consumer")
}
