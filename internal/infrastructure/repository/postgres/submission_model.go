package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
)

type submissionTableModel struct {
	ID                 string         `db:"id"`
	SeasonYear         int            `db:"season_year"`
	ContestYear        int            `db:"contest_year"`
	ContestKey         string         `db:"contest_key"`
	Mode               string         `db:"mode"`
	Callsign           string         `db:"callsign"`
	CategoryOperator   string         `db:"category_operator"`
	ClaimedScore       int64          `db:"claimed_score"`
	Operators          pq.StringArray `db:"operators"`
	MemberOperators    pq.StringArray `db:"member_operators"`
	ExcludedOperators  pq.StringArray `db:"excluded_operators"`
	EffectiveOperators int            `db:"effective_operators"`
	TotalOperators     int            `db:"total_operators"`
	Club               sql.NullString `db:"club"`
	Status             string         `db:"status"`
	RejectReason       sql.NullString `db:"reject_reason"`
	Source             string         `db:"source"`
	SubmittedAt        time.Time      `db:"submitted_at"`
	IsActive           bool           `db:"is_active"`
	CreatedAt          time.Time      `db:"created_at"`
}

type submissionInsertModel struct {
	ID                 string         `db:"id"`
	SeasonYear         int            `db:"season_year"`
	ContestYear        int            `db:"contest_year"`
	ContestKey         string         `db:"contest_key"`
	Mode               string         `db:"mode"`
	Callsign           string         `db:"callsign"`
	CategoryOperator   string         `db:"category_operator"`
	ClaimedScore       int64          `db:"claimed_score"`
	Operators          pq.StringArray `db:"operators"`
	MemberOperators    pq.StringArray `db:"member_operators"`
	ExcludedOperators  pq.StringArray `db:"excluded_operators"`
	EffectiveOperators int            `db:"effective_operators"`
	TotalOperators     int            `db:"total_operators"`
	Club               sql.NullString `db:"club"`
	Status             string         `db:"status"`
	RejectReason       sql.NullString `db:"reject_reason"`
	Source             string         `db:"source"`
	SubmittedAt        time.Time      `db:"submitted_at"`
	IsActive           bool           `db:"is_active"`
}

type contestKeyRow struct {
	SeasonYear int    `db:"season_year"`
	ContestKey string `db:"contest_key"`
}

func (m submissionTableModel) toDomain() submission.Submission {
	return submission.Submission{
		ID:                 m.ID,
		SeasonYear:         m.SeasonYear,
		ContestYear:        m.ContestYear,
		ContestKey:         m.ContestKey,
		Mode:               m.Mode,
		Callsign:           m.Callsign,
		CategoryOperator:   m.CategoryOperator,
		ClaimedScore:       m.ClaimedScore,
		Operators:          []string(m.Operators),
		MemberOperators:    []string(m.MemberOperators),
		ExcludedOperators:  []string(m.ExcludedOperators),
		EffectiveOperators: m.EffectiveOperators,
		TotalOperators:     m.TotalOperators,
		Club:               m.Club.String,
		Status:             submission.Status(m.Status),
		RejectReason:       m.RejectReason.String,
		Source:             submission.Source(m.Source),
		SubmittedAt:        m.SubmittedAt,
		IsActive:           m.IsActive,
	}
}

func submissionInsertFromDomain(item submission.Submission) submissionInsertModel {
	return submissionInsertModel{
		ID:                 item.ID,
		SeasonYear:         item.SeasonYear,
		ContestYear:        item.ContestYear,
		ContestKey:         item.ContestKey,
		Mode:               item.Mode,
		Callsign:           normalizeCallsign(item.Callsign),
		CategoryOperator:   item.CategoryOperator,
		ClaimedScore:       item.ClaimedScore,
		Operators:          stringArray(item.Operators),
		MemberOperators:    stringArray(item.MemberOperators),
		ExcludedOperators:  stringArray(item.ExcludedOperators),
		EffectiveOperators: item.EffectiveOperators,
		TotalOperators:     item.TotalOperators,
		Club:               nullString(item.Club),
		Status:             string(item.Status),
		RejectReason:       nullString(item.RejectReason),
		Source:             string(item.Source),
		SubmittedAt:        item.SubmittedAt,
		IsActive:           item.IsActive,
	}
}
