package cabrillo

import (
	"errors"
	"fmt"
)

const DefaultCategoryOperator = "SINGLE-OP"

var ErrMissingField = errors.New("missing required cabrillo field")

// ParseError reports a log that cannot become a submission.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("missing %s field in cabrillo file", e.Field)
}

func (e *ParseError) Unwrap() error {
	return ErrMissingField
}

// Log is the normalized header of a Cabrillo submission.
type Log struct {
	ContestKey          string
	Callsign            string
	ClaimedScore        int64
	ScoreEstimated      bool
	CategoryOperator    string
	CategoryAssisted    string
	CategoryTransmitter string
	CategoryBand        string
	CategoryMode        string
	Mode                string
	Operators           []string
	Club                string
	ContestYear         int
	QSOCount            int
}
