package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/cabrillo"
	"github.com/riskibarqy/contest-awards/internal/domain/eligibility"
	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"github.com/riskibarqy/contest-awards/internal/platform/metrics"
)

const importSampleSize = 10

const (
	importOutcomeImported = "imported"
	importOutcomeWarned   = "imported_with_warning"
	importOutcomeSkipped  = "skipped"
)

var importColumns = []string{"year", "contest", "mode", "callsign", "category_operator", "claimed_score", "operators", "club"}

type ImportRowResult struct {
	Line         int    `json:"line"`
	Callsign     string `json:"callsign,omitempty"`
	Contest      string `json:"contest,omitempty"`
	Year         int    `json:"year,omitempty"`
	Outcome      string `json:"outcome"`
	SubmissionID string `json:"submissionId,omitempty"`
	Message      string `json:"message,omitempty"`
}

type ImportResult struct {
	Imported  int               `json:"imported"`
	Warned    int               `json:"warned"`
	Skipped   int               `json:"skipped"`
	Replaced  int               `json:"replaced"`
	Sample    []ImportRowResult `json:"sample"`
	Errors    []ImportRowResult `json:"errors"`
	Recompute RecomputeSummary  `json:"recompute"`
	// RecomputeError is set when rebuilding the imported contests failed.
	RecomputeError string `json:"recomputeError,omitempty"`
}

// ImportService loads historical results. Failing rows never abort the batch.
type ImportService struct {
	memberRepo     member.Repository
	submissionRepo submission.Repository
	submissions    *SubmissionService
	scoring        *ScoringService
	metrics        *metrics.Manager
	logger         *logging.Logger
	now            func() time.Time
}

func NewImportService(
	memberRepo member.Repository,
	submissionRepo submission.Repository,
	submissions *SubmissionService,
	scoringSvc *ScoringService,
	metricsManager *metrics.Manager,
	logger *logging.Logger,
) *ImportService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ImportService{
		memberRepo:     memberRepo,
		submissionRepo: submissionRepo,
		submissions:    submissions,
		scoring:        scoringSvc,
		metrics:        metricsManager,
		logger:         logger.Named("import"),
		now:            time.Now,
	}
}

type activeIndexKey struct {
	contest  submission.ContestKey
	callsign string
}

// ImportCSV stores every row as a submission. Rows failing validation are
// kept as accepted with their reject reason. The roster and the active
// submission index are loaded once, and each touched contest is recomputed
// once after the loop.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportCSV")
	defer span.End()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, fmt.Errorf("%w: csv is empty", ErrInvalidInput)
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: read csv header: %v", ErrInvalidInput, err)
	}
	columns, err := indexImportColumns(header)
	if err != nil {
		return ImportResult{}, err
	}

	members, err := s.memberRepo.ListActive(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: list members: %v", ErrDependencyUnavailable, err)
	}
	roster := eligibility.BuildRoster(members)

	activeRows, err := s.submissionRepo.ListActive(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("list active submissions: %w", err)
	}
	active := make(map[activeIndexKey]submission.Submission, len(activeRows))
	for _, item := range activeRows {
		active[activeIndexKey{contest: item.Key(), callsign: item.Callsign}] = item
	}

	result := ImportResult{}
	touched := make([]submission.ContestKey, 0)
	line := 1
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		line++
		if readErr != nil {
			s.recordRow(&result, ImportRowResult{Line: line, Outcome: importOutcomeSkipped, Message: readErr.Error()})
			continue
		}

		row := s.importRow(ctx, line, record, columns, roster, active, &result)
		if row.Outcome != importOutcomeSkipped {
			touched = append(touched, submission.ContestKey{Year: row.Year, Contest: row.Contest})
		}
		s.recordRow(&result, row)
	}

	// Stored rows stay stored when the rebuild fails; the counts are still
	// reported and the failure is carried in the result.
	summary, err := s.scoring.RecomputeKeys(ctx, touched)
	result.Recompute = summary
	if err != nil {
		result.RecomputeError = err.Error()
		s.logger.WarnContext(ctx, "csv import recompute failed", "contests", len(touched), "error", err)
	}

	s.logger.InfoContext(ctx, "csv import finished",
		"imported", result.Imported,
		"warned", result.Warned,
		"skipped", result.Skipped,
		"replaced", result.Replaced,
		"contests", summary.KeyCount,
	)
	return result, nil
}

func (s *ImportService) importRow(
	ctx context.Context,
	line int,
	record []string,
	columns map[string]int,
	roster eligibility.Roster,
	active map[activeIndexKey]submission.Submission,
	result *ImportResult,
) ImportRowResult {
	log, err := s.logFromRecord(record, columns)
	if err != nil {
		return ImportRowResult{Line: line, Outcome: importOutcomeSkipped, Message: err.Error()}
	}
	row := ImportRowResult{Line: line, Callsign: log.Callsign, Contest: log.ContestKey, Year: log.ContestYear}

	validation := eligibility.Validate(validationInput(log), roster)
	item, err := s.submissions.newSubmission(log, validation, submission.SourceImport)
	if err != nil {
		row.Outcome, row.Message = importOutcomeSkipped, err.Error()
		return row
	}

	// Replace swaps the rows in one transaction, so a failed row leaves the
	// previous submission active and its contest needs no rebuild.
	indexKey := activeIndexKey{contest: item.Key(), callsign: item.Callsign}
	unlock := s.scoring.lockContest(item.Key())
	previous, found := active[indexKey]
	err = s.submissionRepo.Replace(ctx, previous.ID, item)
	unlock()
	if err != nil {
		row.Outcome, row.Message = importOutcomeSkipped, err.Error()
		return row
	}

	active[indexKey] = item
	if found {
		result.Replaced++
	}
	row.SubmissionID = item.ID
	row.Outcome = importOutcomeImported
	switch {
	case !validation.Valid:
		row.Outcome, row.Message = importOutcomeWarned, validation.Reason
	case validation.ExclusionWarning != "":
		row.Message = validation.ExclusionWarning
	}
	return row
}

func (s *ImportService) recordRow(result *ImportResult, row ImportRowResult) {
	switch row.Outcome {
	case importOutcomeSkipped:
		result.Skipped++
		result.Errors = append(result.Errors, row)
	case importOutcomeWarned:
		result.Warned++
		result.Imported++
	default:
		result.Imported++
	}
	if len(result.Sample) < importSampleSize {
		result.Sample = append(result.Sample, row)
	}
	s.metrics.ObserveImportRow(row.Outcome)
}

func (s *ImportService) logFromRecord(record []string, columns map[string]int) (cabrillo.Log, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	contest := cabrillo.NormalizeContestKey(field("contest"))
	if contest == "" {
		return cabrillo.Log{}, &cabrillo.ParseError{Field: "CONTEST"}
	}
	callsign := strings.ToUpper(field("callsign"))
	if callsign == "" {
		return cabrillo.Log{}, &cabrillo.ParseError{Field: "CALLSIGN"}
	}

	year := s.now().Year()
	if raw := field("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > 2100 {
			return cabrillo.Log{}, fmt.Errorf("invalid year %q", raw)
		}
		year = parsed
	}

	var claimed int64
	if raw := strings.ReplaceAll(field("claimed_score"), ",", ""); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return cabrillo.Log{}, fmt.Errorf("invalid claimed_score %q", field("claimed_score"))
		}
		claimed = int64(parsed)
	}

	category := strings.ToUpper(field("category_operator"))
	if category == "" {
		category = cabrillo.DefaultCategoryOperator
	}

	operators := cabrillo.ParseOperators(field("operators"))
	if len(operators) == 0 {
		operators = []string{callsign}
	}

	return cabrillo.Log{
		ContestKey:       contest,
		Callsign:         callsign,
		ClaimedScore:     claimed,
		CategoryOperator: category,
		Mode:             cabrillo.ResolveMode(field("mode"), contest),
		Operators:        operators,
		Club:             field("club"),
		ContestYear:      year,
	}, nil
}

func indexImportColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		name = strings.ReplaceAll(name, " ", "_")
		columns[name] = i
	}
	for _, required := range []string{"contest", "callsign"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: csv header must include %s (known columns: %s)", ErrInvalidInput, required, strings.Join(importColumns, ", "))
		}
	}
	return columns, nil
}
