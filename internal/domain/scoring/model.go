package scoring

import (
	"fmt"
	"strings"
	"time"
)

type Method string

const (
	MethodFixed           Method = "fixed"
	MethodParticipantBase Method = "participant-based"

	// DefaultMethod applies while no method is stored.
	DefaultMethod = MethodFixed

	ConfigKeyMethod = "scoring_method"
)

func ParseMethod(raw string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodFixed:
		return MethodFixed, nil
	case MethodParticipantBase:
		return MethodParticipantBase, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, raw)
	}
}

// Baseline is the normalization reference of one (year, contest).
// HighestSingleClaimed is kept unrounded.
type Baseline struct {
	SeasonYear           int
	ContestKey           string
	HighestSingleClaimed float64
	MaxPoints            float64
	Method               Method
	CalculatedAt         time.Time
}

// OperatorPoints is one member's share of one submission.
type OperatorPoints struct {
	SubmissionID      string
	SeasonYear        int
	ContestKey        string
	MemberCallsign    string
	IndividualClaimed int64
	NormalizedPoints  float64
}
