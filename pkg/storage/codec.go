package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// TimeLayout is the ISO-8601 form every timestamp is persisted in
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var errMalformed = errors.New("storage: malformed stored value")

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Timestamp truncates t to the precision timestamps are stored with
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// normalize converts a caller value into the canonical value of kind. A nil
// result means NULL.
func normalize(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch x := v.(type) {
	case time.Time:
		if kind != KindTime {
			return nil, errors.Errorf("storage: time value for %s column", kind)
		}
		if x.IsZero() {
			return nil, nil
		}
		return Timestamp(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return normalize(kind, *x)
	case json.RawMessage:
		if kind != KindJSON {
			return nil, errors.Errorf("storage: raw JSON for %s column", kind)
		}
		if !json.Valid(x) {
			return nil, errors.Wrap(errMalformed, "invalid JSON value")
		}
		return json.RawMessage(bytes.Clone(x)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
	}

	if kind == KindJSON {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "storage: failed to encode JSON column")
		}
		return json.RawMessage(b), nil
	}

	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	switch kind {
	case KindText:
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case KindInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint()), nil
		}
	case KindReal:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), nil
		}
	case KindBool:
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	}
	return nil, errors.Errorf("storage: cannot store %T in %s column", v, kind)
}

// encodeSQL maps a canonical value to its column representation
func encodeSQL(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindTime:
		return FormatTime(v.(time.Time))
	case KindJSON:
		return string(v.(json.RawMessage))
	case KindBool:
		if v.(bool) {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

// encodeDoc maps a canonical value to its JSON document representation
func encodeDoc(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindTime:
		return FormatTime(v.(time.Time))
	default:
		return v
	}
}

// decodeSQL converts a scanned driver value back to the canonical value
func decodeSQL(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch kind {
	case KindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case KindInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			return int64(x), nil
		case string:
			n, err := strconv.ParseInt(x, 10, 64)
			return n, errors.Wrap(err, "storage: bad integer")
		}
	case KindReal:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case string:
			f, err := strconv.ParseFloat(x, 64)
			return f, errors.Wrap(err, "storage: bad real")
		}
	case KindBool:
		switch x := v.(type) {
		case int64:
			return x != 0, nil
		case bool:
			return x, nil
		case string:
			return x == "1" || x == "true", nil
		}
	case KindTime:
		switch x := v.(type) {
		case string:
			t, err := ParseTime(x)
			if err != nil {
				return nil, errors.Wrapf(errMalformed, "bad timestamp %q", x)
			}
			return t, nil
		case time.Time:
			return Timestamp(x), nil
		}
	case KindJSON:
		if s, ok := v.(string); ok {
			if !json.Valid([]byte(s)) {
				return nil, errors.Wrap(errMalformed, "invalid JSON text")
			}
			return json.RawMessage(s), nil
		}
	}
	return nil, errors.Wrapf(errMalformed, "unexpected %T for %s column", v, kind)
}

// decodeDoc converts one field of a fallback document to the canonical value
func decodeDoc(kind Kind, raw json.RawMessage) (any, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var err error
	switch kind {
	case KindText:
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			return s, nil
		}
	case KindInt:
		var n int64
		if err = json.Unmarshal(raw, &n); err == nil {
			return n, nil
		}
	case KindReal:
		var f float64
		if err = json.Unmarshal(raw, &f); err == nil {
			return f, nil
		}
	case KindBool:
		var b bool
		if err = json.Unmarshal(raw, &b); err == nil {
			return b, nil
		}
		var n int64
		if json.Unmarshal(raw, &n) == nil {
			return n != 0, nil
		}
	case KindTime:
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			t, perr := ParseTime(s)
			if perr == nil {
				return t, nil
			}
			err = perr
		}
	case KindJSON:
		return json.RawMessage(bytes.Clone(raw)), nil
	}
	return nil, errors.Wrapf(errMalformed, "%s field: %v", kind, err)
}

// values returns the encoded non-NULL values of the row in column order, so
// absent columns take their defaults
func (c *Collection) values(row Row, encode func(Kind, any) any) ([]string, []any, error) {
	cols := make([]string, 0, len(c.Columns))
	vals := make([]any, 0, len(c.Columns))
	for name := range row {
		if _, ok := c.index[name]; !ok {
			return nil, nil, errors.Wrapf(ErrUnknownColumn, "%s.%s", c.Name, name)
		}
	}
	for _, col := range c.Columns {
		v, err := normalize(col.Kind, row[col.Name])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s.%s", c.Name, col.Name)
		}
		if v == nil {
			continue
		}
		cols = append(cols, col.Name)
		vals = append(vals, encode(col.Kind, v))
	}
	return cols, vals, nil
}

// assignments returns the encoded values of the given fields in column order
func (c *Collection) assignments(fields Row, encode func(Kind, any) any) ([]string, []any, error) {
	for name := range fields {
		if _, ok := c.index[name]; !ok {
			return nil, nil, errors.Wrapf(ErrUnknownColumn, "%s.%s", c.Name, name)
		}
	}
	var cols []string
	var vals []any
	for _, col := range c.Columns {
		raw, ok := fields[col.Name]
		if !ok || col.Name == "id" {
			continue
		}
		v, err := normalize(col.Kind, raw)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s.%s", c.Name, col.Name)
		}
		cols = append(cols, col.Name)
		vals = append(vals, encode(col.Kind, v))
	}
	return cols, vals, nil
}

// criteria returns the canonical criteria values in column order
func (c *Collection) criteria(where Criteria) ([]string, []any, error) {
	var cols []string
	var vals []any
	for name := range where {
		if _, ok := c.index[name]; !ok {
			return nil, nil, errors.Wrapf(ErrUnknownColumn, "%s.%s", c.Name, name)
		}
	}
	for _, col := range c.Columns {
		raw, ok := where[col.Name]
		if !ok {
			continue
		}
		if col.Kind == KindJSON {
			return nil, nil, errors.Errorf("storage: cannot filter on JSON column %s.%s", c.Name, col.Name)
		}
		v, err := normalize(col.Kind, raw)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s.%s", c.Name, col.Name)
		}
		cols = append(cols, col.Name)
		vals = append(vals, v)
	}
	return cols, vals, nil
}

// matches reports whether a decoded row satisfies canonical criteria
func matches(row Row, cols []string, vals []any) bool {
	for i, col := range cols {
		got := row[col]
		want := vals[i]
		if want == nil {
			if got != nil {
				return false
			}
			continue
		}
		if t, ok := want.(time.Time); ok {
			gt, ok := got.(time.Time)
			if !ok || !gt.Equal(t) {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

// createdAt returns the row creation time, zero when absent
func (r Row) createdAt() time.Time {
	t, _ := r["created_at"].(time.Time)
	return t
}
