package validator

import (
	"regexp"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Rows created by the database use v4 ids and rows created here use v7, so any
// RFC 4122 version is accepted.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-8][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(strings.ToLower(uuid))
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// ParseDateRange validates a required "from"/"to" pair of YYYY-MM-DD dates.
func ParseDateRange(from, to string) (time.Time, time.Time, error) {
	var errs ValidationErrors

	fromDate, ok := IsValidDate(from)
	if !ok {
		errs = append(errs, ValidationError{Field: "from", Message: "is required in YYYY-MM-DD format"})
	}
	toDate, ok := IsValidDate(to)
	if !ok {
		errs = append(errs, ValidationError{Field: "to", Message: "is required in YYYY-MM-DD format"})
	}
	if len(errs) == 0 && toDate.Before(fromDate) {
		errs = append(errs, ValidationError{Field: "to", Message: "must not be before from"})
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return fromDate, toDate, nil
}
