package cmd

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/soflow/soflow/avro"
	"github.com/soflow/soflow/ingest"
)

// ServeConfig holds the configuration for the serve command.
type ServeConfig struct {
	Bind string

	RawBucket       string
	ProcessedBucket string
	Prefix          string
	TimeField       string

	Store     string
	AWSRegion string
}

// NewServeCommand returns the serve subcommand: run the push-delivery
// consumer endpoint.
func NewServeCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	conf := &ServeConfig{}
	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "serve - receive push deliveries and persist artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

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
			handler := &ingest.Handler{Sink: sink}

			log.Printf("listening on %s", conf.Bind)
			return http.ListenAndServe(conf.Bind, handler.Router())
		},
	}
	flags := serveCommand.Flags()
	flags.StringVar(&conf.Bind, "bind", ":8080", "Listen for push deliveries on this address.")
	flags.StringVar(&conf.RawBucket, "raw-bucket", "", "Bucket for raw JSON artifacts (and the loader checkpoint).")
	flags.StringVar(&conf.ProcessedBucket, "processed-bucket", "", "Bucket for parquet artifacts.")
	flags.StringVar(&conf.Prefix, "prefix", "topic", "Path prefix under which artifacts are stored.")
	flags.StringVar(&conf.TimeField, "time-field", "creation_date", "Record field whose Unix timestamp buckets artifacts into hour partitions.")
	flags.StringVar(&conf.Store, "store", "gcs", "Object store backend: gcs or s3.")
	flags.StringVar(&conf.AWSRegion, "aws-region", "us-east-1", "AWS region, for the s3 store backend.")
	return serveCommand
}

func init() {
	subcommandFns["serve"] = NewServeCommand
}
