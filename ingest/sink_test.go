package ingest_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/avro"
	"github.com/soflow/soflow/ingest"
	"github.com/soflow/soflow/mock"
)

func testRecord(t *testing.T) soflow.Record {
	t.Helper()
	return soflow.Record{
		"question_id":        int64(79123456),
		"title":              "How do I flatten a nested map?",
		"link":               "https://stackoverflow.com/q/79123456",
		"creation_date":      time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC).Unix(),
		"last_activity_date": int64(1741104000),
		"is_answered":        true,
		"score":              int64(5),
		"answer_count":       int64(2),
		"view_count":         int64(140),
		"content_license":    "CC BY-SA 4.0",
	}
}

func newSink(t *testing.T, store soflow.ObjectStore) *ingest.Sink {
	t.Helper()
	codec, err := avro.NewCodec()
	if err != nil {
		t.Fatalf("getting codec: %v", err)
	}
	return &ingest.Sink{
		Codec:           codec,
		Store:           store,
		RawBucket:       "raw-bucket",
		ProcessedBucket: "processed-bucket",
		Prefix:          "topic",
		TimeField:       "creation_date",
		Now:             func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func encode(t *testing.T, sink *ingest.Sink, rec soflow.Record) []byte {
	t.Helper()
	data, err := sink.Codec.Encode(rec)
	if err != nil {
		t.Fatalf("encoding record: %v", err)
	}
	return data
}

func TestIngestWritesBothArtifacts(t *testing.T) {
	store := mock.NewObjectStore()
	sink := newSink(t, store)
	payload := encode(t, sink, testRecord(t))

	if err := sink.Ingest(context.Background(), "42", payload); err != nil {
		t.Fatalf("ingesting: %v", err)
	}

	rawPath := "topic/year=2025/month=03/day=04/hour=15/raw/part-42.json"
	raw, err := store.Get(context.Background(), "raw-bucket", rawPath)
	if err != nil {
		t.Fatalf("raw artifact missing at %s: %v", rawPath, err)
	}
	if raw[len(raw)-1] != '\n' {
		t.Fatalf("raw artifact is not a JSON line")
	}
	var rec soflow.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("raw artifact is not valid JSON: %v", err)
	}
	if rec["title"] != "How do I flatten a nested map?" {
		t.Fatalf("raw artifact has wrong content: %v", rec)
	}
	if store.ContentTypes["raw-bucket/"+rawPath] != "application/json" {
		t.Fatalf("wrong raw content type")
	}

	parquetPath := "topic/year=2025/month=03/day=04/hour=15/processed/part-42.parquet"
	if _, err := store.Get(context.Background(), "processed-bucket", parquetPath); err != nil {
		t.Fatalf("parquet artifact missing at %s: %v", parquetPath, err)
	}
}

func TestIngestRedeliveryOverwrites(t *testing.T) {
	store := mock.NewObjectStore()
	sink := newSink(t, store)
	payload := encode(t, sink, testRecord(t))

	for i := 0; i < 2; i++ {
		if err := sink.Ingest(context.Background(), "42", payload); err != nil {
			t.Fatalf("ingesting (attempt %d): %v", i, err)
		}
	}
	if len(store.Objects) != 2 {
		t.Fatalf("redelivery of the same id must overwrite, got %d objects", len(store.Objects))
	}
}

func TestIngestUndecodablePayload(t *testing.T) {
	store := mock.NewObjectStore()
	sink := newSink(t, store)

	err := sink.Ingest(context.Background(), "42", []byte("not avro"))
	if soflow.KindOf(err) != soflow.MalformedPayload {
		t.Fatalf("expected malformed payload fault, got %v", err)
	}
	if len(store.Objects) != 0 {
		t.Fatalf("no artifacts should be written for an undecodable payload")
	}
}

func TestIngestStorageFailure(t *testing.T) {
	store := mock.NewObjectStore()
	store.PutErr = errors.New("bucket unavailable")
	sink := newSink(t, store)
	payload := encode(t, sink, testRecord(t))

	err := sink.Ingest(context.Background(), "42", payload)
	if soflow.KindOf(err) != soflow.StorageFailure {
		t.Fatalf("expected storage failure fault, got %v", err)
	}
}

func TestIngestFallbackPartition(t *testing.T) {
	store := mock.NewObjectStore()
	sink := newSink(t, store)
	// Bucket by a different field so the configured time field is absent
	// from the partitioning point of view.
	sink.TimeField = "no_such_field"
	payload := encode(t, sink, testRecord(t))

	if err := sink.Ingest(context.Background(), "7", payload); err != nil {
		t.Fatalf("ingesting: %v", err)
	}
	// Fallback buckets by the sink clock, 2026-01-01T00.
	rawPath := "topic/year=2026/month=01/day=01/hour=00/raw/part-7.json"
	if ok, _ := store.Exists(context.Background(), "raw-bucket", rawPath); !ok {
		t.Fatalf("fallback artifact missing at %s", rawPath)
	}
}
