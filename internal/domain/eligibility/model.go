package eligibility

import (
	"errors"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
)

const ClubName = "Yankee Clipper Contest Club"

var (
	ErrWrongClub         = errors.New("wrong club affiliation")
	ErrAllDuesExpired    = errors.New("all member operators have expired dues")
	ErrNoMemberOperators = errors.New("no member operators found")
)

// Roster maps a primary callsign or alias to its member.
type Roster map[string]member.Member

// Input is the part of a parsed log the validator looks at.
type Input struct {
	Callsign         string
	Operators        []string
	Club             string
	CategoryOperator string
	ContestYear      int
}

// Result carries either a rejection (Err, Reason) or the eligible operator set.
type Result struct {
	Valid              bool
	Err                error
	Reason             string
	MemberOperators    []string
	ExcludedOperators  []string
	ExclusionWarning   string
	EffectiveOperators int
	TotalOperators     int
}
