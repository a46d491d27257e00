package soflow

import (
	"fmt"
	"time"
)

// Artifact kinds under a partition folder.
const (
	KindRaw       = "raw"
	KindProcessed = "processed"
)

// PartitionKey is the temporal bucket an artifact belongs to. Identical
// timestamp-hours always yield identical keys; the key is the unit of
// checkpoint granularity for the loader.
type PartitionKey struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// KeyFor returns the partition key for t (interpreted in UTC).
func KeyFor(t time.Time) PartitionKey {
	t = t.UTC()
	return PartitionKey{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
		Hour:  t.Hour(),
	}
}

// PartitionOf derives the partition key for rec from its timeField, read as
// a Unix timestamp in UTC.
//
// When the field is absent or not numeric the record is bucketed by now
// instead, so that late or incomplete records never block ingestion. This is
// deliberately best-effort: a redelivery of such a record can land in a
// different hour folder than the first attempt, because the partition then
// depends on when the record is processed rather than when it occurred.
func PartitionOf(rec Record, timeField string, now time.Time) PartitionKey {
	if ts, ok := rec.Int64(timeField); ok {
		return KeyFor(time.Unix(ts, 0))
	}
	return KeyFor(now)
}

// Path renders the key as its canonical hierarchical path segment, with
// zero-padded month, day and hour.
func (k PartitionKey) Path() string {
	return fmt.Sprintf("year=%d/month=%02d/day=%02d/hour=%02d", k.Year, k.Month, k.Day, k.Hour)
}

// PathFor builds the full object path for one artifact:
//
//	{prefix}/year=YYYY/month=MM/day=DD/hour=HH/{kind}/{filename}
//
// It is a pure string construction, fully deterministic given its inputs.
func PathFor(prefix, kind string, key PartitionKey, filename string) string {
	return prefix + "/" + key.Path() + "/" + kind + "/" + filename
}

// ArtifactName names one artifact after its delivery identifier, so a
// redelivery of the same message deterministically overwrites its own
// artifact and nothing else.
func ArtifactName(deliveryID, ext string) string {
	return "part-" + deliveryID + "." + ext
}
