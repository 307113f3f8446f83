package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Storage-type tags. A column gets the most specific tag that every
// non-missing cell satisfies; anything else is "text". An all-missing
// column is "text".
const (
	TypeInteger   = "integer"
	TypeFloat     = "float"
	TypeBoolean   = "boolean"
	TypeDate      = "date"
	TypeTimestamp = "timestamp"
	TypeText      = "text"
)

// InferDTypes infers a coarse storage type per column.
//
// String cells go through the loose parsers below; typed cells (from JSON)
// map directly: bool → boolean, integral float64 → integer, other float64 →
// float. A column mixing strings and typed values only keeps a tag both
// representations agree on.
func InferDTypes(columns []string, rows [][]any) []string {
	out := make([]string, len(columns))
	for i := range out {
		out[i] = TypeText
	}

	for col := range columns {
		var seen bool
		allInt := true
		allFloat := true
		allBool := true
		allDate := true
		allTS := true

		for _, r := range rows {
			if col >= len(r) || r[col] == nil {
				continue
			}
			seen = true

			switch v := r[col].(type) {
			case bool:
				allInt, allFloat, allDate, allTS = false, false, false, false
			case float64:
				allBool, allDate, allTS = false, false, false
				if allInt && (v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v)) {
					allInt = false
				}
			case string:
				s := strings.TrimSpace(v)
				if s == "" {
					// Whitespace-only text cell: not evidence for anything.
					allInt, allFloat, allBool, allDate, allTS = false, false, false, false, false
					continue
				}
				if allInt {
					if _, err := strconv.ParseInt(s, 10, 64); err != nil {
						allInt = false
					}
				}
				if allFloat {
					if _, err := strconv.ParseFloat(s, 64); err != nil {
						allFloat = false
					}
				}
				if allBool {
					if _, ok := parseBoolLoose(s); !ok {
						allBool = false
					}
				}
				if allDate {
					if _, ok := parseDateLoose(s); !ok {
						allDate = false
					}
				}
				if allTS {
					if _, ok := parseTimestampLoose(s); !ok {
						allTS = false
					}
				}
			default:
				allInt, allFloat, allBool, allDate, allTS = false, false, false, false, false
			}
		}

		if !seen {
			continue
		}
		// Prefer more specific types.
		switch {
		case allInt:
			out[col] = TypeInteger
		case allBool:
			out[col] = TypeBoolean
		case allDate:
			out[col] = TypeDate
		case allTS:
			out[col] = TypeTimestamp
		case allFloat:
			out[col] = TypeFloat
		}
	}

	return out
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
}

var tsLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

func parseDateLoose(s string) (time.Time, bool) {
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimestampLoose(s string) (time.Time, bool) {
	for _, lay := range tsLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
