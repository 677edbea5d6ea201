package shaper

import (
	"fmt"
	"strconv"
	"time"
)

// coerce converts a raw driver or decoded-JSON value into the Go type
// callers expect for a logical field type. Decimal values are kept as
// strings: converting to float64 would silently lose precision, and
// the catalog has no fixed scale to round to.
func coerce(fieldType string, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch fieldType {
	case "Int", "BigInt":
		return coerceInt(raw)
	case "Bool":
		return coerceBool(raw)
	case "String", "Enum":
		return coerceString(raw)
	case "DateTime":
		return coerceDateTime(raw)
	case "Decimal":
		return coerceString(raw)
	case "Json":
		return raw, nil
	default:
		return raw, nil
	}
}

func coerceInt(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported integer representation %T", raw)
	}
}

func coerceBool(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []byte:
		return len(v) == 1 && (v[0] == '1' || v[0] == 't' || v[0] == 'T'), nil
	default:
		return nil, fmt.Errorf("unsupported boolean representation %T", raw)
	}
}

func coerceString(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func coerceDateTime(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	default:
		return nil, fmt.Errorf("unsupported datetime representation %T", raw)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
