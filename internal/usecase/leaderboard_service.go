package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
)

type LeaderboardEntry struct {
	Rank              int     `json:"rank"`
	Callsign          string  `json:"callsign"`
	Name              string  `json:"name,omitempty"`
	TotalPoints       float64 `json:"totalPoints"`
	ContestCount      int     `json:"contestCount"`
	SeasonCount       int     `json:"seasonCount,omitempty"`
	IndividualClaimed int64   `json:"individualClaimed"`
}

type MemberContestResult struct {
	Year              int     `json:"year"`
	ContestKey        string  `json:"contestKey"`
	SubmissionID      string  `json:"submissionId"`
	IndividualClaimed int64   `json:"individualClaimed"`
	NormalizedPoints  float64 `json:"normalizedPoints"`
}

type MemberHistory struct {
	Callsign    string                `json:"callsign"`
	Name        string                `json:"name,omitempty"`
	Year        int                   `json:"year,omitempty"`
	TotalPoints float64               `json:"totalPoints"`
	Contests    []MemberContestResult `json:"contests"`
}

type ContestResults struct {
	Baseline    scoring.Baseline         `json:"baseline"`
	Points      []scoring.OperatorPoints `json:"points"`
	Submissions []submission.Submission  `json:"submissions"`
}

type SeasonStats struct {
	Year                 int `json:"year"`
	ActiveMembers        int `json:"activeMembers"`
	EligibleMembers      int `json:"eligibleMembers"`
	ParticipatingMembers int `json:"participatingMembers"`
	Contests             int `json:"contests"`
	Submissions          int `json:"submissions"`
}

// DefaultHighlightLimit is how many places the home page highlights keep.
const DefaultHighlightLimit = 5

type SubmissionFilter struct {
	Year   int
	Member string
}

// SubmissionListing is one member operator's line of an accepted active
// submission.
type SubmissionListing struct {
	SubmissionID      string    `json:"submissionId"`
	Year              int       `json:"year"`
	ContestKey        string    `json:"contestKey"`
	Mode              string    `json:"mode,omitempty"`
	Callsign          string    `json:"callsign"`
	MemberCallsign    string    `json:"memberCallsign"`
	ClaimedScore      int64     `json:"claimedScore"`
	IndividualClaimed int64     `json:"individualClaimed"`
	NormalizedPoints  float64   `json:"normalizedPoints"`
	SubmittedAt       time.Time `json:"submittedAt"`
	Status            string    `json:"status"`
}

type ContestSummary struct {
	Year            int    `json:"year"`
	ContestKey      string `json:"contestKey"`
	SubmissionCount int    `json:"submissionCount"`
}

type CompetitiveContest struct {
	ContestKey      string `json:"contestKey"`
	SubmissionCount int    `json:"submissionCount"`
	OperatorCount   int    `json:"operatorCount"`
}

type ActiveOperator struct {
	Callsign   string  `json:"callsign"`
	TotalScore float64 `json:"totalScore"`
	EntryCount int     `json:"entryCount"`
}

type Highlights struct {
	CompetitiveContests []CompetitiveContest `json:"competitiveContests"`
	ActiveOperators     []ActiveOperator     `json:"activeOperators"`
}

// LeaderboardService answers read queries over the materialized points.
type LeaderboardService struct {
	memberRepo     member.Repository
	submissionRepo submission.Repository
	scoringRepo    scoring.Repository
}

func NewLeaderboardService(memberRepo member.Repository, submissionRepo submission.Repository, scoringRepo scoring.Repository) *LeaderboardService {
	return &LeaderboardService{
		memberRepo:     memberRepo,
		submissionRepo: submissionRepo,
		scoringRepo:    scoringRepo,
	}
}

func (s *LeaderboardService) Season(ctx context.Context, year int) ([]LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Season")
	defer span.End()

	if year <= 0 {
		return nil, fmt.Errorf("%w: year is required", ErrInvalidInput)
	}
	rows, err := s.scoringRepo.ListOperatorPointsBySeason(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list season points: %w", err)
	}
	return s.rank(ctx, rows)
}

func (s *LeaderboardService) AllTime(ctx context.Context) ([]LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.AllTime")
	defer span.End()

	rows, err := s.scoringRepo.ListAllOperatorPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all points: %w", err)
	}
	return s.rank(ctx, rows)
}

// MemberHistory lists a member's contest results, optionally for one year.
func (s *LeaderboardService) MemberHistory(ctx context.Context, callsign string, year int) (MemberHistory, error) {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))
	if callsign == "" {
		return MemberHistory{}, fmt.Errorf("%w: callsign is required", ErrInvalidInput)
	}

	item, exists, err := s.memberRepo.GetByCallsign(ctx, callsign)
	if err != nil {
		return MemberHistory{}, fmt.Errorf("get member: %w", err)
	}
	rows, err := s.scoringRepo.ListOperatorPointsByMember(ctx, callsign)
	if err != nil {
		return MemberHistory{}, fmt.Errorf("list member points: %w", err)
	}
	if !exists && len(rows) == 0 {
		return MemberHistory{}, fmt.Errorf("%w: member=%s", ErrNotFound, callsign)
	}

	out := MemberHistory{Callsign: callsign, Year: year, Contests: make([]MemberContestResult, 0, len(rows))}
	if exists {
		out.Name = fullName(item)
	}
	for _, row := range rows {
		if year > 0 && row.SeasonYear != year {
			continue
		}
		out.TotalPoints += row.NormalizedPoints
		out.Contests = append(out.Contests, MemberContestResult{
			Year:              row.SeasonYear,
			ContestKey:        row.ContestKey,
			SubmissionID:      row.SubmissionID,
			IndividualClaimed: row.IndividualClaimed,
			NormalizedPoints:  row.NormalizedPoints,
		})
	}
	sort.SliceStable(out.Contests, func(i, j int) bool {
		if out.Contests[i].Year != out.Contests[j].Year {
			return out.Contests[i].Year > out.Contests[j].Year
		}
		return out.Contests[i].ContestKey < out.Contests[j].ContestKey
	})
	return out, nil
}

func (s *LeaderboardService) ContestResults(ctx context.Context, key submission.ContestKey) (ContestResults, error) {
	key.Contest = strings.ToUpper(strings.TrimSpace(key.Contest))
	if err := validateContestKey(key); err != nil {
		return ContestResults{}, err
	}

	baseline, exists, err := s.scoringRepo.GetBaseline(ctx, key)
	if err != nil {
		return ContestResults{}, fmt.Errorf("get baseline: %w", err)
	}
	if !exists {
		return ContestResults{}, fmt.Errorf("%w: contest=%s", ErrNotFound, key)
	}

	points, err := s.scoringRepo.ListOperatorPointsByContest(ctx, key)
	if err != nil {
		return ContestResults{}, fmt.Errorf("list contest points: %w", err)
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].NormalizedPoints != points[j].NormalizedPoints {
			return points[i].NormalizedPoints > points[j].NormalizedPoints
		}
		return points[i].MemberCallsign < points[j].MemberCallsign
	})

	items, err := s.submissionRepo.ListActiveByContest(ctx, key)
	if err != nil {
		return ContestResults{}, fmt.Errorf("list contest submissions: %w", err)
	}

	return ContestResults{Baseline: baseline, Points: points, Submissions: items}, nil
}

// Years returns the seasons with at least one active submission, newest first.
func (s *LeaderboardService) Years(ctx context.Context) ([]int, error) {
	keys, err := s.submissionRepo.ListContestKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contest keys: %w", err)
	}
	seen := make(map[int]struct{}, len(keys))
	years := make([]int, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key.Year]; ok {
			continue
		}
		seen[key.Year] = struct{}{}
		years = append(years, key.Year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (s *LeaderboardService) Stats(ctx context.Context, year int) (SeasonStats, error) {
	if year <= 0 {
		return SeasonStats{}, fmt.Errorf("%w: year is required", ErrInvalidInput)
	}

	members, err := s.memberRepo.ListActive(ctx)
	if err != nil {
		return SeasonStats{}, fmt.Errorf("list members: %w", err)
	}
	keys, err := s.submissionRepo.ListContestKeys(ctx)
	if err != nil {
		return SeasonStats{}, fmt.Errorf("list contest keys: %w", err)
	}
	rows, err := s.scoringRepo.ListOperatorPointsBySeason(ctx, year)
	if err != nil {
		return SeasonStats{}, fmt.Errorf("list season points: %w", err)
	}

	stats := SeasonStats{Year: year, ActiveMembers: len(members)}
	for _, item := range members {
		if member.IsDuesValidForYear(item.DuesExpiration, year) {
			stats.EligibleMembers++
		}
	}
	for _, key := range keys {
		if key.Year != year {
			continue
		}
		stats.Contests++
		count, err := s.submissionRepo.CountActiveByContest(ctx, key)
		if err != nil {
			return SeasonStats{}, fmt.Errorf("count submissions key=%s: %w", key, err)
		}
		stats.Submissions += count
	}
	participants := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		participants[row.MemberCallsign] = struct{}{}
	}
	stats.ParticipatingMembers = len(participants)
	return stats, nil
}

// ListSubmissions lists accepted active submissions with one line per scored
// member operator, newest first. Year and Member are optional filters.
func (s *LeaderboardService) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]SubmissionListing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.ListSubmissions")
	defer span.End()

	if filter.Year < 0 {
		return nil, fmt.Errorf("%w: year must be positive", ErrInvalidInput)
	}
	filter.Member = strings.ToUpper(strings.TrimSpace(filter.Member))

	accepted, err := s.acceptedActive(ctx)
	if err != nil {
		return nil, err
	}

	var rows []scoring.OperatorPoints
	switch {
	case filter.Member != "":
		rows, err = s.scoringRepo.ListOperatorPointsByMember(ctx, filter.Member)
	case filter.Year > 0:
		rows, err = s.scoringRepo.ListOperatorPointsBySeason(ctx, filter.Year)
	default:
		rows, err = s.scoringRepo.ListAllOperatorPoints(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list operator points: %w", err)
	}

	out := make([]SubmissionListing, 0, len(rows))
	for _, row := range rows {
		item, ok := accepted[row.SubmissionID]
		if !ok {
			continue
		}
		if filter.Year > 0 && item.SeasonYear != filter.Year {
			continue
		}
		out = append(out, SubmissionListing{
			SubmissionID:      item.ID,
			Year:              item.ContestYear,
			ContestKey:        item.ContestKey,
			Mode:              item.Mode,
			Callsign:          item.Callsign,
			MemberCallsign:    row.MemberCallsign,
			ClaimedScore:      item.ClaimedScore,
			IndividualClaimed: row.IndividualClaimed,
			NormalizedPoints:  math.Round(row.NormalizedPoints),
			SubmittedAt:       item.SubmittedAt,
			Status:            string(item.Status),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		if out[i].SubmissionID != out[j].SubmissionID {
			return out[i].SubmissionID < out[j].SubmissionID
		}
		return out[i].MemberCallsign < out[j].MemberCallsign
	})
	return out, nil
}

// Contests lists every (year, contest) with its active submission count,
// newest season first.
func (s *LeaderboardService) Contests(ctx context.Context) ([]ContestSummary, error) {
	items, err := s.submissionRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active submissions: %w", err)
	}

	counts := make(map[submission.ContestKey]int)
	for _, item := range items {
		counts[submission.ContestKey{Year: item.ContestYear, Contest: item.ContestKey}]++
	}
	out := make([]ContestSummary, 0, len(counts))
	for key, count := range counts {
		out = append(out, ContestSummary{Year: key.Year, ContestKey: key.Contest, SubmissionCount: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].ContestKey < out[j].ContestKey
	})
	return out, nil
}

// Highlights returns the most competitive contests and the most active
// operators across all seasons. Each list keeps every entry tied with the
// last place inside limit.
func (s *LeaderboardService) Highlights(ctx context.Context, limit int) (Highlights, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Highlights")
	defer span.End()

	if limit < 0 {
		return Highlights{}, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	if limit == 0 {
		limit = DefaultHighlightLimit
	}

	accepted, err := s.acceptedActive(ctx)
	if err != nil {
		return Highlights{}, err
	}
	rows, err := s.scoringRepo.ListAllOperatorPoints(ctx)
	if err != nil {
		return Highlights{}, fmt.Errorf("list all points: %w", err)
	}

	type contestAcc struct {
		submissions map[string]struct{}
		operators   map[string]struct{}
	}
	type operatorAcc struct {
		total   float64
		entries map[string]struct{}
	}
	contests := make(map[string]*contestAcc)
	operators := make(map[string]*operatorAcc)
	for _, row := range rows {
		if _, ok := accepted[row.SubmissionID]; !ok {
			continue
		}
		c, ok := contests[row.ContestKey]
		if !ok {
			c = &contestAcc{submissions: make(map[string]struct{}), operators: make(map[string]struct{})}
			contests[row.ContestKey] = c
		}
		c.submissions[row.SubmissionID] = struct{}{}
		c.operators[row.MemberCallsign] = struct{}{}

		o, ok := operators[row.MemberCallsign]
		if !ok {
			o = &operatorAcc{entries: make(map[string]struct{})}
			operators[row.MemberCallsign] = o
		}
		o.total += row.NormalizedPoints
		o.entries[row.SubmissionID] = struct{}{}
	}

	out := Highlights{
		CompetitiveContests: make([]CompetitiveContest, 0, len(contests)),
		ActiveOperators:     make([]ActiveOperator, 0, len(operators)),
	}
	for key, c := range contests {
		out.CompetitiveContests = append(out.CompetitiveContests, CompetitiveContest{
			ContestKey:      key,
			SubmissionCount: len(c.submissions),
			OperatorCount:   len(c.operators),
		})
	}
	sort.Slice(out.CompetitiveContests, func(i, j int) bool {
		a, b := out.CompetitiveContests[i], out.CompetitiveContests[j]
		if a.SubmissionCount != b.SubmissionCount {
			return a.SubmissionCount > b.SubmissionCount
		}
		return a.ContestKey < b.ContestKey
	})
	out.CompetitiveContests = keepTies(out.CompetitiveContests, limit, func(c CompetitiveContest) float64 {
		return float64(c.SubmissionCount)
	})

	for call, o := range operators {
		out.ActiveOperators = append(out.ActiveOperators, ActiveOperator{
			Callsign:   call,
			TotalScore: math.Round(o.total),
			EntryCount: len(o.entries),
		})
	}
	sort.Slice(out.ActiveOperators, func(i, j int) bool {
		a, b := out.ActiveOperators[i], out.ActiveOperators[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		return a.Callsign < b.Callsign
	})
	out.ActiveOperators = keepTies(out.ActiveOperators, limit, func(o ActiveOperator) float64 {
		return o.TotalScore
	})
	return out, nil
}

// keepTies cuts a descending list after limit entries, keeping every entry
// equal to the last kept one.
func keepTies[T any](items []T, limit int, value func(T) float64) []T {
	if len(items) <= limit {
		return items
	}
	cutoff := value(items[limit-1])
	end := limit
	for end < len(items) && value(items[end]) >= cutoff {
		end++
	}
	return items[:end]
}

func (s *LeaderboardService) acceptedActive(ctx context.Context) (map[string]submission.Submission, error) {
	items, err := s.submissionRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active submissions: %w", err)
	}
	out := make(map[string]submission.Submission, len(items))
	for _, item := range items {
		if item.Status == submission.StatusAccepted {
			out[item.ID] = item
		}
	}
	return out, nil
}

type leaderboardAccumulator struct {
	entry    LeaderboardEntry
	contests map[submission.ContestKey]struct{}
	seasons  map[int]struct{}
}

// rank sums points per member and assigns dense ranks by total points.
func (s *LeaderboardService) rank(ctx context.Context, rows []scoring.OperatorPoints) ([]LeaderboardEntry, error) {
	members, err := s.memberRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	names := make(map[string]string, len(members))
	for _, item := range members {
		names[strings.ToUpper(item.Callsign)] = fullName(item)
	}

	byMember := make(map[string]*leaderboardAccumulator)
	for _, row := range rows {
		acc, ok := byMember[row.MemberCallsign]
		if !ok {
			acc = &leaderboardAccumulator{
				entry:    LeaderboardEntry{Callsign: row.MemberCallsign, Name: names[row.MemberCallsign]},
				contests: make(map[submission.ContestKey]struct{}),
				seasons:  make(map[int]struct{}),
			}
			byMember[row.MemberCallsign] = acc
		}
		acc.entry.TotalPoints += row.NormalizedPoints
		acc.entry.IndividualClaimed += row.IndividualClaimed
		acc.contests[submission.ContestKey{Year: row.SeasonYear, Contest: row.ContestKey}] = struct{}{}
		acc.seasons[row.SeasonYear] = struct{}{}
	}

	out := make([]LeaderboardEntry, 0, len(byMember))
	for _, acc := range byMember {
		acc.entry.ContestCount = len(acc.contests)
		acc.entry.SeasonCount = len(acc.seasons)
		out = append(out, acc.entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].Callsign < out[j].Callsign
	})

	rank := 0
	for i := range out {
		if i == 0 || out[i].TotalPoints != out[i-1].TotalPoints {
			rank++
		}
		out[i].Rank = rank
	}
	return out, nil
}

func fullName(item member.Member) string {
	return strings.TrimSpace(item.FirstName + " " + item.LastName)
}
