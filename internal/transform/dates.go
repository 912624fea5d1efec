package transform

import (
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing raw snapshot date strings.
// Source systems are inconsistent: some emit full RFC 3339 timestamps, some
// bare dates, some a space-separated datetime.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate parses a raw date string defensively. Unparsable values report
// ok=false and are dropped by callers, never fatal.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dayKey formats a timestamp's calendar day as the YYYYMMDD surrogate key.
func dayKey(t time.Time) int32 {
	y, m, d := t.Date()
	return int32(y*10000 + int(m)*100 + d)
}

// dayKeyOf parses s and returns its surrogate day key, or 0 when s does not
// parse. 0 never collides with a real day key.
func dayKeyOf(s string) int32 {
	t, ok := parseDate(s)
	if !ok {
		return 0
	}
	return dayKey(t)
}
