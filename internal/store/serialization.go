package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// The tags and related_standards columns hold JSON-encoded string arrays.
// Every encode/decode for those columns lives here so the boundary stays
// in one place instead of being scattered across call sites.

func encodeStringList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(data), nil
}

func decodeStringList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return values, nil
}

// Timestamps are stored as Unix nanoseconds (UTC). NULL means absent.

func encodeTime(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func encodeTimePtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: encodeTime(*t), Valid: true}
}

func decodeTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func decodeTimePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := decodeTime(n.Int64)
	return &t
}
