// Package bq implements the Warehouse capability on BigQuery.
package bq

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"

	"github.com/soflow/soflow"
)

// Warehouse is a soflow.Warehouse backed by BigQuery.
type Warehouse struct {
	client   *bigquery.Client
	location string
}

// New returns a Warehouse for project, creating datasets in location.
func New(ctx context.Context, project, location string) (*Warehouse, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, errors.Wrap(err, "getting bigquery client")
	}
	client.Location = location
	return &Warehouse{client: client, location: location}, nil
}

// EnsureDataset gets or creates the dataset. An existing dataset is accepted
// as-is, even if it lives in a different location than the configured one.
func (w *Warehouse) EnsureDataset(ctx context.Context, dataset string) error {
	ds := w.client.Dataset(dataset)
	_, err := ds.Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isCode(err, 404) {
		return soflow.FaultWrap(soflow.ProvisionFailure, err, "getting dataset "+dataset)
	}
	err = ds.Create(ctx, &bigquery.DatasetMetadata{Location: w.location})
	if err != nil && !isCode(err, 409) {
		return soflow.FaultWrap(soflow.ProvisionFailure, err, "creating dataset "+dataset)
	}
	return nil
}

// LoadFolder runs one load job over every parquet file matching
// sourceURIPattern into dataset.table, appending, creating the table with an
// inferred schema if needed. It blocks until the job finishes.
func (w *Warehouse) LoadFolder(ctx context.Context, sourceURIPattern, dataset, table string) error {
	ref := bigquery.NewGCSReference(sourceURIPattern)
	ref.SourceFormat = bigquery.Parquet

	job := w.client.Dataset(dataset).Table(table).LoaderFrom(ref)
	job.WriteDisposition = bigquery.WriteAppend
	job.CreateDisposition = bigquery.CreateIfNeeded

	run, err := job.Run(ctx)
	if err != nil {
		return soflow.FaultWrap(soflow.LoadJobFailure, err, "starting load of "+sourceURIPattern)
	}
	status, err := run.Wait(ctx)
	if err != nil {
		return soflow.FaultWrap(soflow.LoadJobFailure, err, "waiting for load of "+sourceURIPattern)
	}
	if err := status.Err(); err != nil {
		return soflow.FaultWrap(soflow.LoadJobFailure, err, "load job for "+sourceURIPattern)
	}
	return nil
}

// Close releases the underlying client.
func (w *Warehouse) Close() error {
	return w.client.Close()
}

func isCode(err error, code int) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
