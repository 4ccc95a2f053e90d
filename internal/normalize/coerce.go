package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mt-climate-office/mbxsync/internal/tables"
)

// Date layouts accepted from backends, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02", "01/02/2006"}

// Timestamp layouts accepted from backends and snapshot scans.
var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Coerce converts a raw value to the canonical Go value for the column
// kind: string, int64, float64, bool, time.Time (UTC), or a decoded JSON
// value. It returns an error on an unrecoverable type mismatch; values
// are never silently dropped to nil.
func Coerce(value any, kind tables.Kind) (any, error) {
	switch kind {
	case tables.KindText:
		return coerceText(value)
	case tables.KindInt:
		return coerceInt(value)
	case tables.KindFloat:
		return coerceFloat(value)
	case tables.KindBool:
		return coerceBool(value)
	case tables.KindDate:
		t, err := coerceTime(value, dateLayouts)
		if err != nil {
			return nil, err
		}
		return t.Truncate(24 * time.Hour), nil
	case tables.KindTime:
		return coerceTime(value, timeLayouts)
	case tables.KindJSON:
		return coerceJSON(value)
	default:
		return nil, fmt.Errorf("unsupported column kind %q", kind)
	}
}

func coerceText(value any) (any, error) {
	switch t := value.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int:
		return strconv.Itoa(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to text", value)
	}
}

func coerceInt(value any) (any, error) {
	switch t := value.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		if t != math.Trunc(t) {
			return nil, fmt.Errorf("non-integral value %v for integer column", t)
		}
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric text %q for integer column", t)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to integer", value)
	}
}

func coerceFloat(value any) (any, error) {
	switch t := value.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric text %q for float column", t)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to float", value)
	}
}

func coerceBool(value any) (any, error) {
	switch t := value.(type) {
	case bool:
		return t, nil
	case int64:
		return t != 0, nil
	case float64:
		return t != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as boolean", t)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to boolean", value)
	}
}

func coerceTime(value any, layouts []string) (time.Time, error) {
	switch t := value.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as date/timestamp", t)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to date/timestamp", value)
	}
}

// coerceJSON normalizes structured values through a decode round trip so
// backend-native and snapshot-scanned JSON compare equal.
func coerceJSON(value any) (any, error) {
	switch t := value.(type) {
	case map[string]any, []any:
		return reencode(t)
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(t), &decoded); err != nil {
			return nil, fmt.Errorf("invalid JSON text: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to JSON", value)
	}
}

func reencode(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encode JSON: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("re-decode JSON: %w", err)
	}
	return decoded, nil
}
