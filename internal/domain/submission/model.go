package submission

import (
	"errors"
	"strconv"
	"time"
)

var (
	// ErrActiveExists is returned when a second active row would share a natural key.
	ErrActiveExists = errors.New("active submission already exists")
	// ErrNotActive is returned when the row a replace expected to retire is
	// no longer the active one.
	ErrNotActive = errors.New("submission is no longer active")
)

type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Source string

const (
	SourceUpload Source = "upload"
	SourceImport Source = "import"
)

// Submission is one stored log. Among active rows the natural key
// (SeasonYear, ContestKey, Callsign) is unique.
type Submission struct {
	ID                 string
	SeasonYear         int
	ContestYear        int
	ContestKey         string
	Mode               string
	Callsign           string
	CategoryOperator   string
	ClaimedScore       int64
	Operators          []string
	MemberOperators    []string
	ExcludedOperators  []string
	EffectiveOperators int
	TotalOperators     int
	Club               string
	Status             Status
	RejectReason       string
	Source             Source
	SubmittedAt        time.Time
	IsActive           bool
}

// ContestKey identifies one baseline group.
type ContestKey struct {
	Year    int
	Contest string
}

func (k ContestKey) String() string {
	return strconv.Itoa(k.Year) + ":" + k.Contest
}

func (s Submission) Key() ContestKey {
	return ContestKey{Year: s.SeasonYear, Contest: s.ContestKey}
}

// Rate is the per-operator claimed score used as the normalization input.
func (s Submission) Rate() float64 {
	total := s.TotalOperators
	if total < 1 {
		total = 1
	}
	return float64(s.ClaimedScore) / float64(total)
}
