package postgres

import (
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
)

type baselineTableModel struct {
	SeasonYear           int       `db:"season_year"`
	ContestKey           string    `db:"contest_key"`
	HighestSingleClaimed float64   `db:"highest_single_claimed"`
	MaxPoints            float64   `db:"max_points"`
	Method               string    `db:"method"`
	CalculatedAt         time.Time `db:"calculated_at"`
}

type operatorPointsTableModel struct {
	ID                int64     `db:"id"`
	SubmissionID      string    `db:"submission_id"`
	SeasonYear        int       `db:"season_year"`
	ContestKey        string    `db:"contest_key"`
	MemberCallsign    string    `db:"member_callsign"`
	IndividualClaimed int64     `db:"individual_claimed"`
	NormalizedPoints  float64   `db:"normalized_points"`
	CreatedAt         time.Time `db:"created_at"`
}

type operatorPointsInsertModel struct {
	SubmissionID      string  `db:"submission_id"`
	SeasonYear        int     `db:"season_year"`
	ContestKey        string  `db:"contest_key"`
	MemberCallsign    string  `db:"member_callsign"`
	IndividualClaimed int64   `db:"individual_claimed"`
	NormalizedPoints  float64 `db:"normalized_points"`
}

type scoringConfigInsertModel struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m baselineTableModel) toDomain() scoring.Baseline {
	return scoring.Baseline{
		SeasonYear:           m.SeasonYear,
		ContestKey:           m.ContestKey,
		HighestSingleClaimed: m.HighestSingleClaimed,
		MaxPoints:            m.MaxPoints,
		Method:               scoring.Method(m.Method),
		CalculatedAt:         m.CalculatedAt,
	}
}

func (m operatorPointsTableModel) toDomain() scoring.OperatorPoints {
	return scoring.OperatorPoints{
		SubmissionID:      m.SubmissionID,
		SeasonYear:        m.SeasonYear,
		ContestKey:        m.ContestKey,
		MemberCallsign:    m.MemberCallsign,
		IndividualClaimed: m.IndividualClaimed,
		NormalizedPoints:  m.NormalizedPoints,
	}
}

func operatorPointsInsertFromDomain(row scoring.OperatorPoints) operatorPointsInsertModel {
	return operatorPointsInsertModel{
		SubmissionID:      row.SubmissionID,
		SeasonYear:        row.SeasonYear,
		ContestKey:        row.ContestKey,
		MemberCallsign:    normalizeCallsign(row.MemberCallsign),
		IndividualClaimed: row.IndividualClaimed,
		NormalizedPoints:  row.NormalizedPoints,
	}
}
