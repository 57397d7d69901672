package scoring

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/submission"
)

const (
	FixedMaxPoints       = 1_000_000
	PointsPerParticipant = 50_000
)

var ErrUnknownMethod = errors.New("unknown scoring method")

// CalculateMaxPoints is the cap a contest's best operator receives.
func CalculateMaxPoints(method Method, activeSubmissions int) float64 {
	if method != MethodParticipantBase {
		return FixedMaxPoints
	}
	if activeSubmissions < 0 {
		activeSubmissions = 0
	}
	return math.Min(float64(activeSubmissions)*PointsPerParticipant, FixedMaxPoints)
}

// ReferenceScore is the best per-operator rate across the given submissions.
func ReferenceScore(items []submission.Submission) float64 {
	best := 0.0
	for _, item := range items {
		if rate := item.Rate(); rate > best {
			best = rate
		}
	}
	return best
}

// NormalizePoints scales rate against reference, clamps to [0, maxPoints]
// and rounds to a whole point.
func NormalizePoints(rate, reference, maxPoints float64) float64 {
	if reference <= 0 || maxPoints <= 0 {
		return 0
	}
	value := rate / reference * maxPoints
	value = math.Max(0, math.Min(value, maxPoints))
	return math.Round(value)
}

// BuildContestScores computes the full baseline and point set of one
// contest from its active submissions. The result is deterministic for a
// given input set.
func BuildContestScores(key submission.ContestKey, active []submission.Submission, method Method, now time.Time) (Baseline, []OperatorPoints) {
	maxPoints := CalculateMaxPoints(method, len(active))
	reference := ReferenceScore(active)

	baseline := Baseline{
		SeasonYear:   key.Year,
		ContestKey:   key.Contest,
		MaxPoints:    maxPoints,
		Method:       method,
		CalculatedAt: now,
	}
	if reference > 0 {
		baseline.HighestSingleClaimed = reference
	}

	rows := make([]OperatorPoints, 0, len(active))
	for _, item := range active {
		if !item.IsActive || item.Status != submission.StatusAccepted {
			continue
		}

		var individual int64
		var points float64
		if reference > 0 {
			rate := item.Rate()
			individual = int64(math.Round(rate))
			points = NormalizePoints(rate, reference, maxPoints)
		}

		for _, call := range item.MemberOperators {
			rows = append(rows, OperatorPoints{
				SubmissionID:      item.ID,
				SeasonYear:        key.Year,
				ContestKey:        key.Contest,
				MemberCallsign:    call,
				IndividualClaimed: individual,
				NormalizedPoints:  points,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SubmissionID != rows[j].SubmissionID {
			return rows[i].SubmissionID < rows[j].SubmissionID
		}
		return rows[i].MemberCallsign < rows[j].MemberCallsign
	})

	return baseline, rows
}
