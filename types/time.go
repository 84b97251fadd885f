package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayouts are tried in order. The API emits naive ISO timestamps
// without a zone; those are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp is a time that tolerates the zone-less ISO format of the API.
// It always marshals to RFC3339.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses any of the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("cannot parse timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot unmarshal %s into Timestamp", string(data))
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.UTC().Format(time.RFC3339))
}

// DateOnly formats the date part, or "" for nil.
func (ts *Timestamp) DateOnly() string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.Format("2006-01-02")
}

// DateTime formats date and minutes, or "" for nil.
func (ts *Timestamp) DateTime() string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.Format("2006-01-02 15:04")
}
