package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/era-indexer/internal/normalize"
)

// fallbackTimestamp is spec.md §4.7's safe fallback instant for an
// unparseable or sentinel timestamp.
var fallbackTimestamp = time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)

const maxPlausibleUnixSeconds = 4_294_944_000

var minValidTimestamp = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
var maxValidTimestamp = time.Date(2106, 2, 7, 0, 0, 0, 0, time.UTC)

// toTuple converts row into a positional value slice matching dataset's
// canonical column order, applying the §4.7 coercion rule per column class.
func toTuple(dataset string, row normalize.Row) []interface{} {
	cols := schemas[dataset]
	tuple := make([]interface{}, len(cols))
	for i, c := range cols {
		v := row[c.name]
		switch c.class {
		case classNumeric:
			tuple[i] = coerceNumeric(v)
		case classTimestamp:
			tuple[i] = coerceTimestamp(v)
		default:
			tuple[i] = coerceString(v)
		}
	}
	return tuple
}

func coerceNumeric(v interface{}) int64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		if n == "" {
			return 0
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return int64(f)
	default:
		return 0
	}
}

func coerceString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// coerceTimestamp applies spec.md §4.7's timestamp coercion: null/empty/0/
// the epoch instant fall back; an integer is treated as Unix seconds if
// plausible; an ISO-8601 string is parsed, truncated to seconds, and
// clamped to the valid range.
func coerceTimestamp(v interface{}) time.Time {
	switch t := v.(type) {
	case nil:
		return fallbackTimestamp
	case time.Time:
		return clampOrFallback(t)
	case int64:
		return unixOrFallback(t)
	case int:
		return unixOrFallback(int64(t))
	case uint64:
		return unixOrFallback(int64(t))
	case string:
		if t == "" || t == "0" || t == "1970-01-01T00:00:00Z" {
			return fallbackTimestamp
		}
		if seconds, err := strconv.ParseInt(t, 10, 64); err == nil {
			return unixOrFallback(seconds)
		}
		trimmed := t
		if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
			trimmed = trimmed[:idx] + "Z"
		}
		parsed, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return fallbackTimestamp
		}
		return clampOrFallback(parsed)
	default:
		return fallbackTimestamp
	}
}

func unixOrFallback(seconds int64) time.Time {
	if seconds <= 0 || seconds >= maxPlausibleUnixSeconds {
		return fallbackTimestamp
	}
	return time.Unix(seconds, 0).UTC()
}

func clampOrFallback(t time.Time) time.Time {
	if t.Equal(minValidTimestamp) {
		return fallbackTimestamp
	}
	if t.Before(minValidTimestamp) || t.After(maxValidTimestamp) {
		return fallbackTimestamp
	}
	return t
}
