package schema

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"
)

// CoerceValue converts v into the Go representation of the declared type
// of field name. Undeclared fields pass through unchanged. A nil value is
// kept as an explicit null regardless of type.
func (s *Schema) CoerceValue(name string, v interface{}) (interface{}, error) {
	spec, ok := s.Field(name)
	if !ok || v == nil {
		return v, nil
	}
	if spec.Collection != "" {
		return v, nil
	}
	coerced, err := coerce(spec.Type, v)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	return coerced, nil
}

func coerce(t FieldType, v interface{}) (interface{}, error) {
	switch t {
	case TypeString, TypeText:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	case TypeInteger:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case TypeFloat:
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeDate, TypeDatetime:
		switch d := v.(type) {
		case time.Time:
			return d, nil
		case string:
			if ts, err := parseTime(d); err == nil {
				return ts, nil
			}
		}
	case TypeJSON:
		return v, nil
	case TypeArray:
		switch a := v.(type) {
		case []interface{}:
			return a, nil
		case []string:
			out := make([]interface{}, len(a))
			for i, s := range a {
				out[i] = s
			}
			return out, nil
		}
	case TypeBinary:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			if decoded, err := base64.StdEncoding.DecodeString(b); err == nil {
				return decoded, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: cannot use %T as %s", ErrInvalidValue, v, t)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		if float32(int64(n)) == n {
			return int64(n), true
		}
	case float64:
		// JSON numbers always arrive as float64; only whole ones are ints.
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
