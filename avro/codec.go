// Package avro implements the schemaless Avro wire codec for the
// StackOverflowQuestion record. Encoding validates required fields up front
// so that a bad record fails with a schema violation before any bytes are
// produced; decoding unwraps Avro union values back into the flat canonical
// Record form.
package avro

import (
	"math"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"

	"github.com/soflow/soflow"
)

// Schema is the declared Avro schema for one question record. It is fixed;
// schema evolution is out of scope.
const Schema = `{
  "type": "record",
  "name": "StackOverflowQuestion",
  "namespace": "soflow.pipeline",
  "fields": [
    {"name": "question_id", "type": "long"},
    {"name": "title", "type": "string"},
    {"name": "link", "type": "string"},
    {"name": "creation_date", "type": "long"},
    {"name": "last_activity_date", "type": "long"},
    {"name": "is_answered", "type": "boolean"},
    {"name": "score", "type": "int"},
    {"name": "answer_count", "type": "int"},
    {"name": "view_count", "type": "int"},
    {"name": "content_license", "type": ["null", "string"], "default": null},
    {"name": "closed_date", "type": ["null", "long"], "default": null},
    {"name": "closed_reason", "type": ["null", "string"], "default": null},
    {"name": "owner_user_id", "type": ["null", "long"], "default": null},
    {"name": "owner_display_name", "type": ["null", "string"], "default": null}
  ]
}`

type fieldType int

const (
	typeLong fieldType = iota
	typeInt
	typeString
	typeBool
)

type field struct {
	name string
	typ  fieldType
}

var requiredFields = []field{
	{"question_id", typeLong},
	{"title", typeString},
	{"link", typeString},
	{"creation_date", typeLong},
	{"last_activity_date", typeLong},
	{"is_answered", typeBool},
	{"score", typeInt},
	{"answer_count", typeInt},
	{"view_count", typeInt},
}

// nullableFields maps each nullable field to the Avro union branch name of
// its non-null member.
var nullableFields = []struct {
	name   string
	branch string
	typ    fieldType
}{
	{"content_license", "string", typeString},
	{"closed_date", "long", typeLong},
	{"closed_reason", "string", typeString},
	{"owner_user_id", "long", typeLong},
	{"owner_display_name", "string", typeString},
}

// Codec encodes and decodes question records in the schemaless Avro binary
// format. It is a pure transform and safe for concurrent use.
type Codec struct {
	codec *goavro.Codec
}

// NewCodec parses Schema and returns a ready Codec.
func NewCodec() (*Codec, error) {
	c, err := goavro.NewCodec(Schema)
	if err != nil {
		return nil, errors.Wrap(err, "parsing question schema")
	}
	return &Codec{codec: c}, nil
}

// Encode serializes rec. A missing required field, or a required field whose
// value is not coercible to its declared type, fails with a SchemaViolation
// fault and produces no bytes.
func (c *Codec) Encode(rec soflow.Record) ([]byte, error) {
	native, err := toNative(rec)
	if err != nil {
		return nil, err
	}
	data, err := c.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, soflow.FaultWrap(soflow.SchemaViolation, err, "serializing record")
	}
	return data, nil
}

// Decode deserializes data back into a Record. Byte streams that do not
// match the declared field layout fail with a MalformedPayload fault.
// Nullable fields that carry null are absent from the result.
func (c *Codec) Decode(data []byte) (soflow.Record, error) {
	native, rest, err := c.codec.NativeFromBinary(data)
	if err != nil {
		return nil, soflow.FaultWrap(soflow.MalformedPayload, err, "deserializing record")
	}
	if len(rest) > 0 {
		return nil, soflow.Faultf(soflow.MalformedPayload, "%d trailing bytes after record", len(rest))
	}
	m, ok := native.(map[string]interface{})
	if !ok {
		return nil, soflow.Faultf(soflow.MalformedPayload, "decoded value is a %T, not a record", native)
	}
	return fromNative(m), nil
}

// toNative validates rec and converts it to the form goavro expects:
// declared-width integers and union values wrapped as {branch: value}.
func toNative(rec soflow.Record) (map[string]interface{}, error) {
	native := make(map[string]interface{}, len(requiredFields)+len(nullableFields))
	for _, f := range requiredFields {
		v, ok := rec[f.name]
		if !ok || v == nil {
			return nil, soflow.Faultf(soflow.SchemaViolation, "required field %s missing", f.name)
		}
		cv, err := coerce(f.name, f.typ, v)
		if err != nil {
			return nil, err
		}
		native[f.name] = cv
	}
	for _, f := range nullableFields {
		v, ok := rec[f.name]
		if !ok || v == nil {
			native[f.name] = nil
			continue
		}
		cv, err := coerce(f.name, f.typ, v)
		if err != nil {
			return nil, err
		}
		native[f.name] = map[string]interface{}{f.branch: cv}
	}
	return native, nil
}

func coerce(name string, typ fieldType, v interface{}) (interface{}, error) {
	switch typ {
	case typeLong:
		n, ok := soflow.AsInt64(v)
		if !ok {
			return nil, soflow.Faultf(soflow.SchemaViolation, "field %s is not integer-representable: %v (%T)", name, v, v)
		}
		return n, nil
	case typeInt:
		n, ok := soflow.AsInt64(v)
		if !ok {
			return nil, soflow.Faultf(soflow.SchemaViolation, "field %s is not integer-representable: %v (%T)", name, v, v)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, soflow.Faultf(soflow.SchemaViolation, "field %s overflows its declared 32-bit width: %d", name, n)
		}
		return int32(n), nil
	case typeString:
		s, ok := v.(string)
		if !ok {
			return nil, soflow.Faultf(soflow.SchemaViolation, "field %s is not a string: %v (%T)", name, v, v)
		}
		return s, nil
	case typeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, soflow.Faultf(soflow.SchemaViolation, "field %s is not boolean-representable: %v (%T)", name, v, v)
		}
		return b, nil
	}
	return nil, soflow.Faultf(soflow.SchemaViolation, "field %s has unknown declared type", name)
}

// fromNative flattens a decoded goavro map into the canonical Record form:
// all integers widened to int64, unions unwrapped, nulls dropped.
func fromNative(m map[string]interface{}) soflow.Record {
	rec := make(soflow.Record, len(m))
	for _, f := range requiredFields {
		v := m[f.name]
		if n, ok := soflow.AsInt64(v); ok && f.typ != typeBool {
			rec[f.name] = n
			continue
		}
		rec[f.name] = v
	}
	for _, f := range nullableFields {
		v := m[f.name]
		if v == nil {
			continue
		}
		union, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		inner := union[f.branch]
		if n, ok := soflow.AsInt64(inner); ok && f.typ == typeLong {
			rec[f.name] = n
			continue
		}
		rec[f.name] = inner
	}
	return rec
}
