// Package ingest consumes delivered messages and persists each record twice
// under the same partition: once as an append-only raw JSON artifact and once
// as a columnar parquet artifact.
package ingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/avro"
	"github.com/soflow/soflow/columnar"
)

// Sink decodes inbound payloads and writes their artifacts. It holds no
// mutable state; concurrent deliveries never conflict because artifacts are
// keyed by delivery identifier.
type Sink struct {
	Codec           *avro.Codec
	Store           soflow.ObjectStore
	RawBucket       string
	ProcessedBucket string
	Prefix          string
	TimeField       string

	// Now is the clock used for the missing-timestamp partition fallback.
	// Tests override it; nil means time.Now.
	Now func() time.Time
}

func (s *Sink) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Ingest decodes payload and writes the raw and columnar artifacts for it.
// Any returned error means no acknowledgment should be sent, so the
// transport redelivers. The two writes are independent and idempotent by
// delivery id; a raw artifact without its columnar counterpart is a
// transient state resolved by redelivery, not corruption.
func (s *Sink) Ingest(ctx context.Context, deliveryID string, payload []byte) error {
	rec, err := s.Codec.Decode(payload)
	if err != nil {
		return errors.Wrapf(err, "decoding delivery %s", deliveryID)
	}

	key := soflow.PartitionOf(rec, s.TimeField, s.now())

	if err := s.writeRaw(ctx, rec, key, deliveryID); err != nil {
		return err
	}
	if err := s.writeColumnar(ctx, rec, key, deliveryID); err != nil {
		return err
	}
	return nil
}

func (s *Sink) writeRaw(ctx context.Context, rec soflow.Record, key soflow.PartitionKey, deliveryID string) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshaling raw record")
	}
	data = append(data, '\n')

	path := soflow.PathFor(s.Prefix, soflow.KindRaw, key, soflow.ArtifactName(deliveryID, "json"))
	if err := s.Store.Put(ctx, s.RawBucket, path, data, "application/json"); err != nil {
		return soflow.FaultWrap(soflow.StorageFailure, err, "writing raw artifact "+path)
	}
	log.Printf("[RAW] %s", s.Store.URI(s.RawBucket, path))
	return nil
}

func (s *Sink) writeColumnar(ctx context.Context, rec soflow.Record, key soflow.PartitionKey, deliveryID string) error {
	row, err := columnar.RowFromRecord(rec)
	if err != nil {
		return errors.Wrap(err, "normalizing record for parquet")
	}
	data, err := columnar.Encode(row)
	if err != nil {
		return errors.Wrap(err, "encoding parquet artifact")
	}

	path := soflow.PathFor(s.Prefix, soflow.KindProcessed, key, soflow.ArtifactName(deliveryID, columnar.Ext))
	if err := s.Store.Put(ctx, s.ProcessedBucket, path, data, columnar.ContentType); err != nil {
		return soflow.FaultWrap(soflow.StorageFailure, err, "writing parquet artifact "+path)
	}
	log.Printf("[PARQUET] %s", s.Store.URI(s.ProcessedBucket, path))
	return nil
}
