package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var clockLayouts = []string{ClockLayout, "15:04:05", "3:04PM", "3:04 PM"}

// NormalizeDate parses a YYYY-MM-DD date and returns it in canonical form.
func NormalizeDate(value string) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return d.Format(DateLayout), nil
}

// NormalizeClock parses a time of day and returns it as 24-hour HH:MM, so
// "9:05" and "09:05" land on the same slot.
func NormalizeClock(value string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", fmt.Errorf("invalid time %q, expected HH:MM", value)
}
