package schema

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order when a date arrives as a string. The list
// covers RFC 3339 plus the layouts blog authors commonly reach for.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate coerces a front-matter value into a time. YAML decoders may hand
// back a native timestamp or a raw string; anything else is unparseable.
func ParseDate(value any) (time.Time, error) {
	switch typed := value.(type) {
	case time.Time:
		if typed.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero timestamp", ErrDateUnparseable)
		}
		return typed.UTC(), nil
	case *time.Time:
		if typed == nil {
			return time.Time{}, fmt.Errorf("%w: nil timestamp", ErrDateUnparseable)
		}
		return ParseDate(*typed)
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return time.Time{}, fmt.Errorf("%w: empty string", ErrDateUnparseable)
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateUnparseable, trimmed)
	case nil:
		return time.Time{}, fmt.Errorf("%w: value missing", ErrDateUnparseable)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrDateUnparseable, value)
	}
}
