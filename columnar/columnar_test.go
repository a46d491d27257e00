package columnar_test

import (
	"bytes"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/columnar"
)

func baseRecord() soflow.Record {
	return soflow.Record{
		"question_id":        int64(79123456),
		"title":              "How do I flatten a nested map?",
		"link":               "https://stackoverflow.com/q/79123456",
		"creation_date":      int64(1741100400),
		"last_activity_date": int64(1741104000),
		"is_answered":        true,
		"score":              int64(5),
		"answer_count":       int64(2),
		"view_count":         int64(140),
	}
}

func TestRowFromRecord(t *testing.T) {
	rec := baseRecord()
	rec["content_license"] = "CC BY-SA 4.0"
	rec["owner_user_id"] = int64(424242)

	row, err := columnar.RowFromRecord(rec)
	if err != nil {
		t.Fatalf("normalizing: %v", err)
	}
	if row.QuestionID != 79123456 || row.Score != 5 || !row.IsAnswered {
		t.Fatalf("wrong row: %+v", row)
	}
	if row.ContentLicense == nil || *row.ContentLicense != "CC BY-SA 4.0" {
		t.Fatalf("wrong license: %v", row.ContentLicense)
	}
	if row.OwnerUserID == nil || *row.OwnerUserID != 424242 {
		t.Fatalf("wrong owner: %v", row.OwnerUserID)
	}
	if row.ClosedDate != nil || row.ClosedReason != nil || row.OwnerDisplayName != nil {
		t.Fatalf("absent nullables should stay nil: %+v", row)
	}
}

func TestRowFromRecordStringifiesLicense(t *testing.T) {
	// The license column is always string-or-null no matter what scalar
	// the source carried.
	rec := baseRecord()
	rec["content_license"] = int64(4)

	row, err := columnar.RowFromRecord(rec)
	if err != nil {
		t.Fatalf("normalizing: %v", err)
	}
	if row.ContentLicense == nil || *row.ContentLicense != "4" {
		t.Fatalf("license not stringified: %v", row.ContentLicense)
	}
}

func TestRowFromRecordWidensInts(t *testing.T) {
	rec := baseRecord()
	rec["score"] = float64(5)
	rec["view_count"] = int(140)

	row, err := columnar.RowFromRecord(rec)
	if err != nil {
		t.Fatalf("normalizing: %v", err)
	}
	if row.Score != 5 || row.ViewCount != 140 {
		t.Fatalf("ints not widened: %+v", row)
	}
}

func TestRowFromRecordMissingRequired(t *testing.T) {
	rec := baseRecord()
	delete(rec, "question_id")
	if _, err := columnar.RowFromRecord(rec); err == nil {
		t.Fatalf("expected error for missing question_id")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	rec := baseRecord()
	rec["content_license"] = "CC BY-SA 4.0"
	row, err := columnar.RowFromRecord(rec)
	if err != nil {
		t.Fatalf("normalizing: %v", err)
	}
	data, err := columnar.Encode(row)
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}

	rows, err := parquet.Read[columnar.QuestionRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reading parquet back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	got := rows[0]
	if got.QuestionID != row.QuestionID || got.Title != row.Title || got.CreationDate != row.CreationDate {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.ContentLicense == nil || *got.ContentLicense != "CC BY-SA 4.0" {
		t.Fatalf("license lost: %v", got.ContentLicense)
	}
	if got.ClosedDate != nil {
		t.Fatalf("nil column came back non-nil: %v", got.ClosedDate)
	}
}
