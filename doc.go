// Package soflow contains the core types and capability interfaces for a
// small batch/streaming pipeline which fetches StackOverflow questions,
// publishes them as schema-validated Avro messages, persists them as
// partitioned raw and parquet artifacts in an object store, and incrementally
// loads completed partitions into a warehouse table using a durable
// checkpoint.
//
// Concrete backends live in subpackages (gcs, s3, pubsub, kafka, bq) and are
// constructed explicitly and passed in; there are no package level clients.
package soflow
