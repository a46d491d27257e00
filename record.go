package soflow

// Record is a flat mapping of field names to values for one StackOverflow
// question. The canonical in-memory form keeps all integer fields as int64,
// booleans as bool and strings as string; nullable fields are simply absent
// (or nil) when they carry no value.
type Record map[string]interface{}

// Int64 returns the named field as an int64. It accepts any
// integer-representable value, including float64s produced by JSON decoding
// as long as they have no fractional part.
func (r Record) Int64(field string) (int64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	return AsInt64(v)
}

// Bool returns the named field as a bool.
func (r Record) Bool(field string) (bool, bool) {
	v, ok := r[field]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// String returns the named field as a string.
func (r Record) String(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether the field is present with a non-nil value. Nullable
// fields use nil (or absence) as their explicit "no value" marker.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// AsInt64 converts any integer-representable value to int64.
func AsInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case float32:
		if float64(n) == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}
