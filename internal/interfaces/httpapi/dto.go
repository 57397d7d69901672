package httpapi

import (
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/cabrillo"
	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/usecase"
)

type recomputeRequest struct {
	Year    int    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	Contest string `json:"contest" validate:"omitempty,max=64"`
}

type scoringMethodRequest struct {
	Method string `json:"method" validate:"required,oneof=fixed participant-based"`
}

type upsertMembersRequest struct {
	Members []memberRecord `json:"members" validate:"required,min=1,dive"`
}

type memberRecord struct {
	Callsign       string `json:"callsign" validate:"required,max=20"`
	FirstName      string `json:"first_name" validate:"max=100"`
	LastName       string `json:"last_name" validate:"max=100"`
	Aliases        string `json:"aliases" validate:"max=200"`
	DuesExpiration string `json:"dues_expiration" validate:"max=10"`
	Active         *bool  `json:"active"`
}

type memberDTO struct {
	Callsign       string   `json:"callsign"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Aliases        []string `json:"aliases,omitempty"`
	DuesExpiration string   `json:"duesExpiration,omitempty"`
	Active         bool     `json:"active"`
}

type submissionDTO struct {
	ID                 string   `json:"id"`
	SeasonYear         int      `json:"seasonYear"`
	ContestYear        int      `json:"contestYear"`
	ContestKey         string   `json:"contestKey"`
	Mode               string   `json:"mode"`
	Callsign           string   `json:"callsign"`
	CategoryOperator   string   `json:"categoryOperator"`
	ClaimedScore       int64    `json:"claimedScore"`
	Operators          []string `json:"operators"`
	MemberOperators    []string `json:"memberOperators"`
	ExcludedOperators  []string `json:"excludedOperators,omitempty"`
	EffectiveOperators int      `json:"effectiveOperators"`
	TotalOperators     int      `json:"totalOperators"`
	Club               string   `json:"club"`
	Status             string   `json:"status"`
	RejectReason       string   `json:"rejectReason,omitempty"`
	Source             string   `json:"source"`
	SubmittedAt        string   `json:"submittedAt"`
	IsActive           bool     `json:"isActive"`
}

type operatorPointsDTO struct {
	SubmissionID      string  `json:"submissionId"`
	Year              int     `json:"year"`
	ContestKey        string  `json:"contestKey"`
	MemberCallsign    string  `json:"memberCallsign"`
	IndividualClaimed int64   `json:"individualClaimed"`
	NormalizedPoints  float64 `json:"normalizedPoints"`
}

type baselineDTO struct {
	Year                 int     `json:"year"`
	ContestKey           string  `json:"contestKey"`
	HighestSingleClaimed float64 `json:"highestSingleClaimed"`
	MaxPoints            float64 `json:"maxPoints"`
	Method               string  `json:"method"`
	CalculatedAt         string  `json:"calculatedAt,omitempty"`
}

type recomputeResultDTO struct {
	Year                 int     `json:"year"`
	ContestKey           string  `json:"contestKey"`
	Method               string  `json:"method"`
	Submissions          int     `json:"submissions"`
	Rows                 int     `json:"rows"`
	HighestSingleClaimed float64 `json:"highestSingleClaimed"`
	MaxPoints            float64 `json:"maxPoints"`
	Skipped              bool    `json:"skipped,omitempty"`
	Error                string  `json:"error,omitempty"`
}

type recomputeSummaryDTO struct {
	Method     string               `json:"method"`
	KeyCount   int                  `json:"keyCount"`
	Recomputed int                  `json:"recomputed"`
	Skipped    int                  `json:"skipped"`
	Failed     int                  `json:"failed"`
	Results    []recomputeResultDTO `json:"results"`
}

type parsedLogDTO struct {
	Contest             string   `json:"contest"`
	Callsign            string   `json:"callsign"`
	ClaimedScore        int64    `json:"claimedScore"`
	ScoreEstimated      bool     `json:"scoreEstimated,omitempty"`
	CategoryOperator    string   `json:"categoryOperator"`
	CategoryAssisted    string   `json:"categoryAssisted,omitempty"`
	CategoryTransmitter string   `json:"categoryTransmitter,omitempty"`
	CategoryBand        string   `json:"categoryBand,omitempty"`
	Mode                string   `json:"mode"`
	Operators           []string `json:"operators"`
	Club                string   `json:"club"`
	Year                int      `json:"year"`
	QSOCount            int      `json:"qsoCount"`
}

type uploadResponseDTO struct {
	Submission       submissionDTO       `json:"submission"`
	Replaced         *submissionDTO      `json:"replaced,omitempty"`
	Log              parsedLogDTO        `json:"log"`
	Points           []operatorPointsDTO `json:"points"`
	NormalizedPoints float64             `json:"normalizedPoints"`
	Baseline         recomputeResultDTO  `json:"baseline"`
	ExclusionWarning string              `json:"exclusionWarning,omitempty"`
}

type previewResponseDTO struct {
	Log              parsedLogDTO `json:"log"`
	MemberOperators  []string     `json:"memberOperators"`
	ExclusionWarning string       `json:"exclusionWarning,omitempty"`
	NormalizedPoints float64      `json:"normalizedPoints"`
	CurrentMaxPoints float64      `json:"currentMaxPoints"`
	Replaces         bool         `json:"replaces"`
}

type contestResultsDTO struct {
	Baseline    baselineDTO         `json:"baseline"`
	Points      []operatorPointsDTO `json:"points"`
	Submissions []submissionDTO     `json:"submissions"`
}

type scoringMethodDTO struct {
	Method string `json:"method"`
}

func memberToDTO(item member.Member) memberDTO {
	return memberDTO{
		Callsign:       item.Callsign,
		FirstName:      item.FirstName,
		LastName:       item.LastName,
		Aliases:        item.AliasList(),
		DuesExpiration: item.DuesExpiration,
		Active:         item.Active,
	}
}

func memberFromRecord(record memberRecord) member.Member {
	active := true
	if record.Active != nil {
		active = *record.Active
	}
	return member.Member{
		Callsign:       record.Callsign,
		FirstName:      record.FirstName,
		LastName:       record.LastName,
		Aliases:        record.Aliases,
		DuesExpiration: record.DuesExpiration,
		Active:         active,
	}
}

func submissionToDTO(item submission.Submission) submissionDTO {
	return submissionDTO{
		ID:                 item.ID,
		SeasonYear:         item.SeasonYear,
		ContestYear:        item.ContestYear,
		ContestKey:         item.ContestKey,
		Mode:               item.Mode,
		Callsign:           item.Callsign,
		CategoryOperator:   item.CategoryOperator,
		ClaimedScore:       item.ClaimedScore,
		Operators:          nonNilStrings(item.Operators),
		MemberOperators:    nonNilStrings(item.MemberOperators),
		ExcludedOperators:  item.ExcludedOperators,
		EffectiveOperators: item.EffectiveOperators,
		TotalOperators:     item.TotalOperators,
		Club:               item.Club,
		Status:             string(item.Status),
		RejectReason:       item.RejectReason,
		Source:             string(item.Source),
		SubmittedAt:        formatTime(item.SubmittedAt),
		IsActive:           item.IsActive,
	}
}

func submissionsToDTO(items []submission.Submission) []submissionDTO {
	out := make([]submissionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, submissionToDTO(item))
	}
	return out
}

func operatorPointsToDTO(rows []scoring.OperatorPoints) []operatorPointsDTO {
	out := make([]operatorPointsDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, operatorPointsDTO{
			SubmissionID:      row.SubmissionID,
			Year:              row.SeasonYear,
			ContestKey:        row.ContestKey,
			MemberCallsign:    row.MemberCallsign,
			IndividualClaimed: row.IndividualClaimed,
			NormalizedPoints:  row.NormalizedPoints,
		})
	}
	return out
}

func baselineToDTO(item scoring.Baseline) baselineDTO {
	return baselineDTO{
		Year:                 item.SeasonYear,
		ContestKey:           item.ContestKey,
		HighestSingleClaimed: item.HighestSingleClaimed,
		MaxPoints:            item.MaxPoints,
		Method:               string(item.Method),
		CalculatedAt:         formatTime(item.CalculatedAt),
	}
}

func recomputeResultToDTO(item usecase.RecomputeResult) recomputeResultDTO {
	return recomputeResultDTO{
		Year:                 item.Year,
		ContestKey:           item.ContestKey,
		Method:               string(item.Method),
		Submissions:          item.Submissions,
		Rows:                 item.Rows,
		HighestSingleClaimed: item.HighestSingleClaimed,
		MaxPoints:            item.MaxPoints,
		Skipped:              item.Skipped,
		Error:                item.Error,
	}
}

func recomputeSummaryToDTO(item usecase.RecomputeSummary) recomputeSummaryDTO {
	results := make([]recomputeResultDTO, 0, len(item.Results))
	for _, result := range item.Results {
		results = append(results, recomputeResultToDTO(result))
	}
	return recomputeSummaryDTO{
		Method:     string(item.Method),
		KeyCount:   item.KeyCount,
		Recomputed: item.Recomputed,
		Skipped:    item.Skipped,
		Failed:     item.Failed,
		Results:    results,
	}
}

func parsedLogToDTO(log cabrillo.Log) parsedLogDTO {
	return parsedLogDTO{
		Contest:             log.ContestKey,
		Callsign:            log.Callsign,
		ClaimedScore:        log.ClaimedScore,
		ScoreEstimated:      log.ScoreEstimated,
		CategoryOperator:    log.CategoryOperator,
		CategoryAssisted:    log.CategoryAssisted,
		CategoryTransmitter: log.CategoryTransmitter,
		CategoryBand:        log.CategoryBand,
		Mode:                log.Mode,
		Operators:           nonNilStrings(log.Operators),
		Club:                log.Club,
		Year:                log.ContestYear,
		QSOCount:            log.QSOCount,
	}
}

func uploadResultToDTO(result usecase.UploadResult) uploadResponseDTO {
	out := uploadResponseDTO{
		Submission:       submissionToDTO(result.Submission),
		Log:              parsedLogToDTO(result.Log),
		Points:           operatorPointsToDTO(result.Points),
		NormalizedPoints: result.NormalizedPoints(),
		Baseline:         recomputeResultToDTO(result.Baseline),
		ExclusionWarning: result.ExclusionWarning,
	}
	if result.Replaced != nil {
		replaced := submissionToDTO(*result.Replaced)
		out.Replaced = &replaced
	}
	return out
}

func previewResultToDTO(result usecase.PreviewResult) previewResponseDTO {
	return previewResponseDTO{
		Log:              parsedLogToDTO(result.Log),
		MemberOperators:  nonNilStrings(result.MemberOperators),
		ExclusionWarning: result.ExclusionWarning,
		NormalizedPoints: result.NormalizedPoints,
		CurrentMaxPoints: result.CurrentMaxPoints,
		Replaces:         result.Replaces,
	}
}

func contestResultsToDTO(item usecase.ContestResults) contestResultsDTO {
	return contestResultsDTO{
		Baseline:    baselineToDTO(item.Baseline),
		Points:      operatorPointsToDTO(item.Points),
		Submissions: submissionsToDTO(item.Submissions),
	}
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
