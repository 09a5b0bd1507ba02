// Package params converts textual request parameters into typed values.
package params

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var errEmptyDate = errors.New("empty date value")

// dateFormats are handed to jinzhu/now after the RFC 3339 layouts failed.
var dateFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"20060102",
}

var dateConfig = &now.Config{
	WeekStartDay: time.Monday,
	TimeLocation: time.UTC,
	TimeFormats:  dateFormats,
}

// DateParser parses date literals.
type DateParser func(string) (time.Time, error)

// ParseDate parses a date literal. It accepts epoch milliseconds, RFC 3339
// timestamps and the layouts in dateFormats. Values without a zone are UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errEmptyDate
	}

	if isDigits(value) && len(value) > 8 {
		millis, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(millis).UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}

	return dateConfig.Parse(value)
}

func isDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
