package storage

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// timeLayout matches the ISO strings already present in legacy databases, so text
// comparison in SQL orders rows chronologically.
const timeLayout = "2006-01-02T15:04:05.000000"

var parseLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

// Timestamp is a UTC instant stored as text.
type Timestamp struct {
	time.Time
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("storage: unrecognized timestamp %q", s)
}

func (t Timestamp) Value() (driver.Value, error) {
	return formatTime(t.Time), nil
}

func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		parsed, err := parseTime(v)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("storage: cannot scan %T into Timestamp", src)
	}
}
