package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/soflow/soflow/avro"
	"github.com/soflow/soflow/ingest"
	"github.com/soflow/soflow/kafka"
)

// KafkaConfig holds the configuration for the kafka command.
type KafkaConfig struct {
	Hosts  []string
	Topics []string
	Group  string

	RawBucket       string
	ProcessedBucket string
	Prefix          string
	TimeField       string

	Store     string
	AWSRegion string
}

// NewKafkaCommand returns the kafka subcommand: consume question messages
// from Kafka and persist artifacts, for deployments that use Kafka instead
// of push delivery.
func NewKafkaCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	conf := &KafkaConfig{}
	kafkaCommand := &cobra.Command{
		Use:   "kafka",
		Short: "kafka - consume question messages from Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			store, err := newStore(ctx, conf.Store, conf.AWSRegion)
			if err != nil {
				return errors.Wrap(err, "getting object store")
			}
			codec, err := avro.NewCodec()
			if err != nil {
				return err
			}
			sink := &ingest.Sink{
				Codec:           codec,
				Store:           store,
				RawBucket:       conf.RawBucket,
				ProcessedBucket: conf.ProcessedBucket,
				Prefix:          conf.Prefix,
				TimeField:       conf.TimeField,
			}

			consumer := kafka.NewConsumer()
			consumer.Hosts = conf.Hosts
			consumer.Topics = conf.Topics
			consumer.Group = conf.Group
			if err := consumer.Open(); err != nil {
				return err
			}
			defer consumer.Close()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt)
			go func() {
				<-signals
				cancel()
			}()
			return consumer.Run(ctx, sink)
		},
	}
	flags := kafkaCommand.Flags()
	flags.StringSliceVarP(&conf.Hosts, "kafka-hosts", "k", []string{"localhost:9092"}, "Kafka cluster.")
	flags.StringSliceVarP(&conf.Topics, "topics", "t", []string{"questions"}, "Topics to consume from Kafka.")
	flags.StringVarP(&conf.Group, "group", "g", "soflow-consumer", "Group id to use when consuming from Kafka.")
	flags.StringVar(&conf.RawBucket, "raw-bucket", "", "Bucket for raw JSON artifacts (and the loader checkpoint).")
	flags.StringVar(&conf.ProcessedBucket, "processed-bucket", "", "Bucket for parquet artifacts.")
	flags.StringVar(&conf.Prefix, "prefix", "topic", "Path prefix under which artifacts are stored.")
	flags.StringVar(&conf.TimeField, "time-field", "creation_date", "Record field whose Unix timestamp buckets artifacts into hour partitions.")
	flags.StringVar(&conf.Store, "store", "gcs", "Object store backend: gcs or s3.")
	flags.StringVar(&conf.AWSRegion, "aws-region", "us-east-1", "AWS region, for the s3 store backend.")
	return kafkaCommand
}

func init() {
	subcommandFns["kafka"] = NewKafkaCommand
}
