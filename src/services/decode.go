package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khabaroff/apikeys-dashboard/src/models"
	"github.com/khabaroff/apikeys-dashboard/src/repositories"
)

// timeLayouts are tried in order for stores that hand back timestamps as text
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// decodeAPIKey converts a store row into an APIKey. Every column must be
// present with a usable type, otherwise the row is rejected as malformed.
func decodeAPIKey(row repositories.Row) (*models.APIKey, error) {
	var (
		k   models.APIKey
		err error
	)

	if k.ID, err = decodeUUID(row, "id"); err != nil {
		return nil, err
	}
	if k.Name, err = decodeString(row, "name"); err != nil {
		return nil, err
	}
	if k.Key, err = decodeString(row, "key"); err != nil {
		return nil, err
	}

	keyType, err := decodeString(row, "type")
	if err != nil {
		return nil, err
	}
	k.Type = models.KeyType(keyType)
	if !k.Type.Valid() {
		return nil, malformed("type", keyType)
	}

	if k.CreatedAt, err = decodeTime(row, "created_at"); err != nil {
		return nil, err
	}

	lastUsed, ok := row["last_used_at"]
	if !ok {
		return nil, fmt.Errorf("%w: missing column last_used_at", ErrMalformedRow)
	}
	if lastUsed != nil {
		t, err := decodeTime(row, "last_used_at")
		if err != nil {
			return nil, err
		}
		k.LastUsedAt = &t
	}

	if k.IsActive, err = decodeBool(row, "is_active"); err != nil {
		return nil, err
	}

	return &k, nil
}

func malformed(column string, v any) error {
	return fmt.Errorf("%w: column %s has unexpected value %v (%T)", ErrMalformedRow, column, v, v)
}

func column(row repositories.Row, name string) (any, error) {
	v, ok := row[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: missing column %s", ErrMalformedRow, name)
	}
	return v, nil
}

func decodeString(row repositories.Row, name string) (string, error) {
	v, err := column(row, name)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", malformed(name, v)
	}
}

func decodeUUID(row repositories.Row, name string) (uuid.UUID, error) {
	v, err := column(row, name)
	if err != nil {
		return uuid.Nil, err
	}
	switch id := v.(type) {
	case uuid.UUID:
		return id, nil
	case [16]byte:
		return uuid.UUID(id), nil
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return uuid.Nil, malformed(name, v)
		}
		return parsed, nil
	case []byte:
		parsed, err := uuid.ParseBytes(id)
		if err != nil {
			return uuid.Nil, malformed(name, v)
		}
		return parsed, nil
	default:
		return uuid.Nil, malformed(name, v)
	}
}

func decodeTime(row repositories.Row, name string) (time.Time, error) {
	v, err := column(row, name)
	if err != nil {
		return time.Time{}, err
	}

	var text string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		text = t
	case []byte:
		text = string(t)
	default:
		return time.Time{}, malformed(name, v)
	}

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, malformed(name, v)
}

func decodeBool(row repositories.Row, name string) (bool, error) {
	v, err := column(row, name)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	case int:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	}
	return false, malformed(name, v)
}
