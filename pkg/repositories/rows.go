package repositories

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
)

// helpers reading normalized storage rows

func rowString(row storage.Row, key string) string {
	v, _ := row[key].(string)
	return v
}

func rowStringPtr(row storage.Row, key string) *string {
	v, ok := row[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func rowInt(row storage.Row, key string) int64 {
	v, _ := row[key].(int64)
	return v
}

func rowFloat(row storage.Row, key string) float64 {
	v, _ := row[key].(float64)
	return v
}

func rowBool(row storage.Row, key string) bool {
	v, _ := row[key].(bool)
	return v
}

func rowTime(row storage.Row, key string) time.Time {
	v, _ := row[key].(time.Time)
	return v
}

func rowTimePtr(row storage.Row, key string) *time.Time {
	v, ok := row[key].(time.Time)
	if !ok {
		return nil
	}
	return &v
}

// rowJSON decodes a JSON column into dest; an absent column leaves dest as is
func rowJSON(row storage.Row, key string, dest any) error {
	raw, ok := row[key].(json.RawMessage)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(err, "column %s", key)
	}
	return nil
}

func timestampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := storage.Timestamp(*t)
	return &ts
}

func stringPtrValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
