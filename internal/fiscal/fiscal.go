// Package fiscal provides helpers for working with April–March financial
// years labeled "YYYY-YYYY".
package fiscal

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var labelRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// Label returns the financial-year label starting in the given calendar year.
func Label(startYear int) string {
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}

// Current returns the financial-year label containing the given instant.
// The year runs April through March: April onward belongs to "Y-Y+1",
// January through March to "Y-1-Y".
func Current(now time.Time) string {
	if now.Month() >= time.April {
		return Label(now.Year())
	}
	return Label(now.Year() - 1)
}

// StartYear parses the label and returns its starting calendar year.
func StartYear(label string) (int, error) {
	m := labelRegex.FindStringSubmatch(label)
	if m == nil {
		return 0, fmt.Errorf("invalid financial year label %q", label)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end != start+1 {
		return 0, fmt.Errorf("invalid financial year label %q: end year must be start+1", label)
	}
	return start, nil
}

// Prior returns the label n financial years before the given one.
func Prior(label string, n int) (string, error) {
	start, err := StartYear(label)
	if err != nil {
		return "", err
	}
	return Label(start - n), nil
}

// Previous returns the label of the financial year immediately before
// the given one.
func Previous(label string) (string, error) {
	return Prior(label, 1)
}

// Valid reports whether the label is a well-formed financial year.
func Valid(label string) bool {
	_, err := StartYear(label)
	return err == nil
}

// Bounds returns the inclusive start and exclusive end instants of the
// financial year in the given location.
func Bounds(label string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := StartYear(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := time.Date(start, time.April, 1, 0, 0, 0, 0, loc)
	to := time.Date(start+1, time.April, 1, 0, 0, 0, 0, loc)
	return from, to, nil
}
