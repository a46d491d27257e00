package cmd

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/avro"
	"github.com/soflow/soflow/producer"
	"github.com/soflow/soflow/stackexchange"
)

// ProduceConfig holds the configuration for the produce command.
type ProduceConfig struct {
	Project         string
	Topic           string
	DeadLetterTopic string
	Transport       string
	KafkaHosts      []string

	Tag               string
	PageSize          int
	PublishBadMessage bool
}

// NewProduceCommand returns the produce subcommand: fetch one page of
// questions and publish them.
func NewProduceCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	conf := &ProduceConfig{}
	produceCommand := &cobra.Command{
		Use:   "produce",
		Short: "produce - fetch questions and publish them to the topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pub, err := newPublisher(ctx, conf.Transport, conf.Project, conf.Topic, conf.KafkaHosts)
			if err != nil {
				return errors.Wrap(err, "getting publisher")
			}
			dlq, err := newPublisher(ctx, conf.Transport, conf.Project, conf.DeadLetterTopic, conf.KafkaHosts)
			if err != nil {
				return errors.Wrap(err, "getting dead-letter publisher")
			}
			codec, err := avro.NewCodec()
			if err != nil {
				return err
			}

			p := &producer.Producer{
				Client:            stackexchange.NewClient(),
				Codec:             codec,
				Publisher:         pub,
				DeadLetters:       soflow.NewDeadLetterRouter(dlq),
				Tag:               conf.Tag,
				PageSize:          conf.PageSize,
				PublishBadMessage: conf.PublishBadMessage,
			}
			return p.Run(ctx)
		},
	}
	flags := produceCommand.Flags()
	flags.StringVar(&conf.Project, "project", "", "Cloud project to publish in.")
	flags.StringVar(&conf.Topic, "topic", "questions", "Topic to publish question records to.")
	flags.StringVar(&conf.DeadLetterTopic, "dead-letter-topic", "questions-dead-letter", "Side channel topic for records that fail validation or publishing.")
	flags.StringVar(&conf.Transport, "transport", "pubsub", "Transport backend: pubsub or kafka.")
	flags.StringSliceVar(&conf.KafkaHosts, "kafka-hosts", []string{"localhost:9092"}, "Kafka cluster, for the kafka transport.")
	flags.StringVar(&conf.Tag, "tag", "data-engineering", "StackOverflow tag to fetch questions for.")
	flags.IntVar(&conf.PageSize, "page-size", 10, "Number of questions to fetch.")
	flags.BoolVar(&conf.PublishBadMessage, "publish-bad-message", false, "Inject one deliberately invalid record to exercise the dead-letter path.")
	return produceCommand
}

func init() {
	subcommandFns["produce"] = NewProduceCommand
}
