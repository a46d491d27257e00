// Package columnar renders question records as single-row parquet artifacts,
// the typed, query-optimized form the warehouse loads from.
package columnar

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/soflow/soflow"
)

// Ext is the file extension for columnar artifacts.
const Ext = "parquet"

// ContentType is the content type columnar artifacts are stored with.
const ContentType = "application/octet-stream"

// QuestionRow is the parquet row shape. Every integer field is a 64-bit
// integer and every nullable field is an optional column, regardless of how
// the value arrived, so that all artifacts in a partition share one schema
// the warehouse can infer from.
type QuestionRow struct {
	QuestionID       int64   `parquet:"question_id"`
	Title            string  `parquet:"title"`
	Link             string  `parquet:"link"`
	CreationDate     int64   `parquet:"creation_date"`
	LastActivityDate int64   `parquet:"last_activity_date"`
	IsAnswered       bool    `parquet:"is_answered"`
	Score            int64   `parquet:"score"`
	AnswerCount      int64   `parquet:"answer_count"`
	ViewCount        int64   `parquet:"view_count"`
	ContentLicense   *string `parquet:"content_license,optional"`
	ClosedDate       *int64  `parquet:"closed_date,optional"`
	ClosedReason     *string `parquet:"closed_reason,optional"`
	OwnerUserID      *int64  `parquet:"owner_user_id,optional"`
	OwnerDisplayName *string `parquet:"owner_display_name,optional"`
}

// RowFromRecord normalizes rec for columnar storage. The license field is
// always rendered as string-or-null even when the source carried another
// scalar type; integer fields are widened to int64.
func RowFromRecord(rec soflow.Record) (QuestionRow, error) {
	var row QuestionRow
	var err error
	if row.QuestionID, err = reqInt(rec, "question_id"); err != nil {
		return row, err
	}
	if row.Title, err = reqString(rec, "title"); err != nil {
		return row, err
	}
	if row.Link, err = reqString(rec, "link"); err != nil {
		return row, err
	}
	if row.CreationDate, err = reqInt(rec, "creation_date"); err != nil {
		return row, err
	}
	if row.LastActivityDate, err = reqInt(rec, "last_activity_date"); err != nil {
		return row, err
	}
	answered, ok := rec.Bool("is_answered")
	if !ok {
		return row, errors.New("record has no boolean is_answered field")
	}
	row.IsAnswered = answered
	if row.Score, err = reqInt(rec, "score"); err != nil {
		return row, err
	}
	if row.AnswerCount, err = reqInt(rec, "answer_count"); err != nil {
		return row, err
	}
	if row.ViewCount, err = reqInt(rec, "view_count"); err != nil {
		return row, err
	}

	if v, ok := rec["content_license"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		row.ContentLicense = &s
	}
	row.ClosedDate = optInt(rec, "closed_date")
	row.ClosedReason = optString(rec, "closed_reason")
	row.OwnerUserID = optInt(rec, "owner_user_id")
	row.OwnerDisplayName = optString(rec, "owner_display_name")
	return row, nil
}

// Encode writes row as a one-row snappy-compressed parquet file.
func Encode(row QuestionRow) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := parquet.NewGenericWriter[QuestionRow](buf, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write([]QuestionRow{row}); err != nil {
		return nil, errors.Wrap(err, "writing parquet row")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing parquet writer")
	}
	return buf.Bytes(), nil
}

func reqInt(rec soflow.Record, field string) (int64, error) {
	n, ok := rec.Int64(field)
	if !ok {
		return 0, errors.Errorf("record field %s is not integer-representable", field)
	}
	return n, nil
}

func reqString(rec soflow.Record, field string) (string, error) {
	s, ok := rec.String(field)
	if !ok {
		return "", errors.Errorf("record field %s is not a string", field)
	}
	return s, nil
}

func optInt(rec soflow.Record, field string) *int64 {
	if n, ok := rec.Int64(field); ok {
		return &n
	}
	return nil
}

func optString(rec soflow.Record, field string) *string {
	if s, ok := rec.String(field); ok {
		return &s
	}
	return nil
}
