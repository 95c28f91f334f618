package waste

import "fmt"

// Status is the fill state reported by a bin sensor.
type Status string

const (
	StatusFull    Status = "FULL"
	StatusNotFull Status = "NOT_FULL"
)

// ParseStatus validates a reported status value.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusFull:
		return StatusFull, nil
	case StatusNotFull:
		return StatusNotFull, nil
	}
	return "", fmt.Errorf("waste: invalid status %q", value)
}

// Valid reports whether the status is one of the enumerated values.
func (s Status) Valid() bool {
	return s == StatusFull || s == StatusNotFull
}
