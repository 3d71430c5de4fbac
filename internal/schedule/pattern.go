// Package schedule fires digest runs on a "<minute> <hour>" wall-clock
// pattern and runs daily maintenance.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// wildcard matches any value of its field.
const wildcard = -1

// Pattern is a parsed "<minute> <hour>" expression. Either field may be "*".
type Pattern struct {
	Minute int
	Hour   int
}

// ParsePattern parses a two-field pattern such as "0 8" (08:00 daily),
// "30 *" (half past every hour) or "* *" (every minute).
func ParsePattern(s string) (Pattern, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Pattern{}, fmt.Errorf("pattern %q: want exactly two fields \"<minute> <hour>\"", s)
	}

	minute, err := parseField(fields[0], 59)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q minute: %w", s, err)
	}

	hour, err := parseField(fields[1], 23)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q hour: %w", s, err)
	}

	return Pattern{Minute: minute, Hour: hour}, nil
}

func parseField(field string, max int) (int, error) {
	if field == "*" {
		return wildcard, nil
	}

	v, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("not a number or \"*\": %q", field)
	}

	if v < 0 || v > max {
		return 0, fmt.Errorf("%d out of range 0..%d", v, max)
	}

	return v, nil
}

// Matches reports whether t falls on the pattern, at minute granularity.
func (p Pattern) Matches(t time.Time) bool {
	if p.Minute != wildcard && t.Minute() != p.Minute {
		return false
	}

	if p.Hour != wildcard && t.Hour() != p.Hour {
		return false
	}

	return true
}

func (p Pattern) String() string {
	return fmt.Sprintf("%s %s", fieldString(p.Minute), fieldString(p.Hour))
}

func fieldString(v int) string {
	if v == wildcard {
		return "*"
	}

	return strconv.Itoa(v)
}
