package core

import (
	"fmt"
	"strings"
)

// Status is the verdict taxonomy for an example. Error and fail are distinct:
// fail means the database answered differently, error means no trustworthy
// answer was obtained.
type Status string

// Status values.
const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status value.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return StatusPass, nil
	case "fail":
		return StatusFail, nil
	case "error":
		return StatusError, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}
