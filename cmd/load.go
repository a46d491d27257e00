package cmd

import (
	"context"
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/soflow/soflow/bq"
	"github.com/soflow/soflow/loader"
)

// LoadConfig holds the configuration for the load command.
type LoadConfig struct {
	Project  string
	Location string

	RawBucket        string
	ProcessedBucket  string
	Prefix           string
	CheckpointObject string

	Dataset string
	Table   string

	Store     string
	AWSRegion string
}

// NewLoadCommand returns the load subcommand: run one checkpointed loader
// cycle. Schedule it without overlap; two concurrent runs would clobber each
// other's checkpoint.
func NewLoadCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	conf := &LoadConfig{}
	loadCommand := &cobra.Command{
		Use:   "load",
		Short: "load - load new parquet hour folders into the warehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := newStore(ctx, conf.Store, conf.AWSRegion)
			if err != nil {
				return errors.Wrap(err, "getting object store")
			}
			warehouse, err := bq.New(ctx, conf.Project, conf.Location)
			if err != nil {
				return errors.Wrap(err, "getting warehouse")
			}
			defer warehouse.Close()

			l := &loader.Loader{
				Store:            store,
				Warehouse:        warehouse,
				RawBucket:        conf.RawBucket,
				ProcessedBucket:  conf.ProcessedBucket,
				Prefix:           conf.Prefix,
				CheckpointObject: conf.CheckpointObject,
				Dataset:          conf.Dataset,
				Table:            conf.Table,
			}
			res, err := l.Run(ctx)
			if err != nil {
				if res != nil && res.FailedFolder != "" {
					log.Printf("run aborted at folder %s; %d folders loaded this run are NOT checkpointed and will be reloaded: %v",
						res.FailedFolder, len(res.Loaded), res.Loaded)
				}
				return err
			}
			log.Printf("discovered %d folders, loaded %d new", res.Discovered, len(res.Loaded))
			return nil
		},
	}
	flags := loadCommand.Flags()
	flags.StringVar(&conf.Project, "project", "", "Cloud project for the warehouse.")
	flags.StringVar(&conf.Location, "location", "EU", "Geographic location for dataset creation.")
	flags.StringVar(&conf.RawBucket, "raw-bucket", "", "Bucket holding the loader checkpoint.")
	flags.StringVar(&conf.ProcessedBucket, "processed-bucket", "", "Bucket holding parquet artifacts.")
	flags.StringVar(&conf.Prefix, "prefix", "topic", "Path prefix under which artifacts are stored.")
	flags.StringVar(&conf.CheckpointObject, "checkpoint-object", "", "Override for the checkpoint object path. Defaults to <prefix>/_checkpoints/bq_loader_state.json.")
	flags.StringVar(&conf.Dataset, "dataset", "", "Warehouse dataset id.")
	flags.StringVar(&conf.Table, "table", "", "Warehouse table id.")
	flags.StringVar(&conf.Store, "store", "gcs", "Object store backend: gcs or s3.")
	flags.StringVar(&conf.AWSRegion, "aws-region", "us-east-1", "AWS region, for the s3 store backend.")
	return loadCommand
}

func init() {
	subcommandFns["load"] = NewLoadCommand
}
