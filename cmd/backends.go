package cmd

import (
	"context"

	"github.com/pkg/errors"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/gcs"
	"github.com/soflow/soflow/kafka"
	"github.com/soflow/soflow/pubsub"
	"github.com/soflow/soflow/s3"
)

// newStore constructs the configured object store backend.
func newStore(ctx context.Context, backend, awsRegion string) (soflow.ObjectStore, error) {
	switch backend {
	case "gcs":
		return gcs.NewStore(ctx)
	case "s3":
		return s3.NewStore(awsRegion)
	}
	return nil, errors.Errorf("unknown store backend '%s' (want gcs or s3)", backend)
}

// newPublisher constructs the configured transport backend for one topic.
func newPublisher(ctx context.Context, transport, project, topic string, kafkaHosts []string) (soflow.Publisher, error) {
	switch transport {
	case "pubsub":
		return pubsub.NewPublisher(ctx, project, topic)
	case "kafka":
		return kafka.NewPublisher(kafkaHosts, topic)
	}
	return nil, errors.Errorf("unknown transport '%s' (want pubsub or kafka)", transport)
}
