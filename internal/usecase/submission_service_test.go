package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/riskibarqy/contest-awards/internal/domain/eligibility"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/infrastructure/repository/memory"
	membermock "github.com/riskibarqy/contest-awards/internal/mocks/domain/member"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestSubmissionService_Upload_StoresAndScores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 5_420_000, testClub)})
	if err != nil {
		t.Fatalf("upload first: %v", err)
	}
	if first.Submission.Status != submission.StatusAccepted || !first.Submission.IsActive {
		t.Fatalf("unexpected stored submission: %+v", first.Submission)
	}
	if first.Submission.SeasonYear != 2024 || first.Submission.ContestKey != "CQ-WW-CW" {
		t.Fatalf("unexpected natural key: year=%d contest=%s", first.Submission.SeasonYear, first.Submission.ContestKey)
	}
	if got := first.NormalizedPoints(); got != 1_000_000 {
		t.Fatalf("unexpected first points got=%v want=1000000", got)
	}

	second, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "W1WEF", "SINGLE-OP", 2_710_000, testClub)})
	if err != nil {
		t.Fatalf("upload second: %v", err)
	}
	if got := second.NormalizedPoints(); got != 500_000 {
		t.Fatalf("unexpected second points got=%v want=500000", got)
	}

	notices := env.notifier.collect(t, 2)
	calls := []string{notices[0].OperatorCallsign, notices[1].OperatorCallsign}
	sort.Strings(calls)
	if calls[0] != "K1AR" || calls[1] != "W1WEF" {
		t.Fatalf("unexpected notified operators: %v", calls)
	}
}

func TestSubmissionService_Upload_ReplacesPreviousActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1_000_000, testClub)})
	if err != nil {
		t.Fatalf("upload first: %v", err)
	}
	if _, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "W1WEF", "SINGLE-OP", 2_000_000, testClub)}); err != nil {
		t.Fatalf("upload competitor: %v", err)
	}
	second, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 4_000_000, testClub)})
	if err != nil {
		t.Fatalf("upload replacement: %v", err)
	}

	if second.Replaced == nil || second.Replaced.ID != first.Submission.ID || second.Replaced.IsActive {
		t.Fatalf("expected first submission to be replaced, got=%+v", second.Replaced)
	}
	old, found, _ := env.submissions.GetByID(ctx, first.Submission.ID)
	if !found || old.IsActive {
		t.Fatalf("expected old submission to stay stored inactive, found=%v active=%v", found, old.IsActive)
	}

	key := second.Submission.Key()
	count, _ := env.submissions.CountActiveByContest(ctx, key)
	if count != 2 {
		t.Fatalf("unexpected active count got=%d want=2", count)
	}
	rows, _ := env.scores.ListOperatorPointsByContest(ctx, key)
	got := pointsByMember(rows)
	if len(rows) != 2 || got["K1AR"] != 1_000_000 || got["W1WEF"] != 500_000 {
		t.Fatalf("unexpected points after replacement: %+v", rows)
	}
	for _, row := range rows {
		if row.SubmissionID == first.Submission.ID {
			t.Fatalf("points of replaced submission must be dropped: %+v", row)
		}
	}
}

// failingRebuildRepo fails every write once armed, the way a rolled back
// transaction leaves storage untouched.
type failingRebuildRepo struct {
	*memory.ScoringRepository
	fail bool
}

func (r *failingRebuildRepo) RebuildContest(ctx context.Context, key submission.ContestKey, change scoring.ContestChange, build scoring.ContestBuilder) (scoring.ContestRebuild, error) {
	if r.fail {
		return scoring.ContestRebuild{}, errors.New("insert submission: connection reset")
	}
	return r.ScoringRepository.RebuildContest(ctx, key, change, build)
}

func TestSubmissionService_Upload_FailedResubmitKeepsPrevious(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	scores := &failingRebuildRepo{ScoringRepository: env.scores}
	env.scoring = NewScoringService(env.submissions, scores, ScoringServiceConfig{}, nil, logging.NewNop())
	env.submission = NewSubmissionService(env.members, env.submissions, scores, env.scoring, nil, nil, nil, logging.NewNop())

	first, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1_000, testClub)})
	if err != nil {
		t.Fatalf("upload first: %v", err)
	}
	key := first.Submission.Key()

	scores.fail = true
	if _, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 2_000, testClub)}); err == nil {
		t.Fatalf("expected resubmit to fail")
	}

	active, _ := env.submissions.ListActiveByContest(ctx, key)
	if len(active) != 1 || active[0].ID != first.Submission.ID {
		t.Fatalf("expected previous submission to stay active, got=%+v", active)
	}
	rows, _ := env.scores.ListOperatorPointsByContest(ctx, key)
	if len(rows) != 1 || rows[0].SubmissionID != first.Submission.ID || rows[0].NormalizedPoints != scoring.FixedMaxPoints {
		t.Fatalf("expected previous points to stay, got=%+v", rows)
	}
	if _, exists, _ := env.scores.GetBaseline(ctx, key); !exists {
		t.Fatalf("expected baseline to stay")
	}
}

func TestSubmissionService_Submit_ConflictingInsertKeepsPrevious(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	first, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1_000, testClub)})
	if err != nil {
		t.Fatalf("upload first: %v", err)
	}

	// A duplicate id makes the insert fail after the previous row was found.
	env.submission.idGen = fixedID(first.Submission.ID)
	if _, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 2_000, testClub)}); err == nil {
		t.Fatalf("expected conflicting insert to fail")
	}

	active, _ := env.submissions.ListActiveByContest(ctx, first.Submission.Key())
	if len(active) != 1 || active[0].ID != first.Submission.ID || active[0].ClaimedScore != 1_000 {
		t.Fatalf("expected previous submission to stay active, got=%+v", active)
	}
	rows, _ := env.scores.ListOperatorPointsByContest(ctx, first.Submission.Key())
	if len(rows) != 1 || rows[0].SubmissionID != first.Submission.ID {
		t.Fatalf("expected previous points to stay, got=%+v", rows)
	}
}

type fixedID string

func (f fixedID) NewID() (string, error) { return string(f), nil }

func TestSubmissionService_Upload_RejectionStoresNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		wantReason string
	}{
		{
			name:       "wrong club",
			content:    cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1000, "Frankford Radio Club"),
			wantReason: "CLUB must be 'Yankee Clipper Contest Club' (found: 'Frankford Radio Club')",
		},
		{
			name:       "no member operators",
			content:    cabrilloLog("CQ-WW-CW", "DL1ABC", "SINGLE-OP", 1000, testClub),
			wantReason: "No YCCC member operators found in submission.",
		},
		{
			name:       "all dues expired",
			content:    cabrilloLog("CQ-WW-CW", "KC1XX", "SINGLE-OP", 1000, testClub),
			wantReason: "All operators have expired dues for 2024: KC1XX.",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			env := newTestEnv(t)
			_, err := env.submission.Upload(ctx, UploadInput{Content: tc.content})
			if !errors.Is(err, ErrRejected) {
				t.Fatalf("expected ErrRejected, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantReason) {
				t.Fatalf("unexpected reason: %v", err)
			}
			active, _ := env.submissions.ListActive(ctx)
			if len(active) != 0 {
				t.Fatalf("rejected upload must not be stored, got=%d", len(active))
			}
		})
	}
}

func TestSubmissionService_Upload_ExcludesExpiredOperators(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	content := cabrilloLog("CQ-WW-CW", "K1AR", "MULTI-ONE", 4_000_000, testClub, "K1AR", "KC1XX", "K1VR", "DL1ABC")
	got, err := env.submission.Upload(ctx, UploadInput{Content: content})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(got.ExclusionWarning, "KC1XX") {
		t.Fatalf("expected exclusion warning naming KC1XX, got=%q", got.ExclusionWarning)
	}
	if want := []string{"K1AR", "W1WEF"}; strings.Join(got.Submission.MemberOperators, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected member operators got=%v want=%v", got.Submission.MemberOperators, want)
	}
	if got.Submission.TotalOperators != 4 || got.Submission.EffectiveOperators != 2 {
		t.Fatalf("unexpected operator counts total=%d effective=%d", got.Submission.TotalOperators, got.Submission.EffectiveOperators)
	}
	if len(got.Points) != 2 {
		t.Fatalf("expected one points row per eligible member, got=%d", len(got.Points))
	}
	for _, row := range got.Points {
		if row.IndividualClaimed != 1_000_000 || row.NormalizedPoints != 1_000_000 {
			t.Fatalf("unexpected points row: %+v", row)
		}
	}
	env.notifier.collect(t, 2)
}

func TestSubmissionService_Upload_InvalidInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for _, content := range []string{"", "   ", "START-OF-LOG: 3.0\nCALLSIGN: K1AR\n"} {
		_, err := env.submission.Upload(context.Background(), UploadInput{Content: content})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", content, err)
		}
	}
}

func TestSubmissionService_Upload_RosterUnavailableUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memberRepo := membermock.NewRepository(t)
	submissions := memory.NewSubmissionRepository()
	scores := memory.NewScoringRepository(submissions)
	scoringSvc := NewScoringService(submissions, scores, ScoringServiceConfig{}, nil, logging.NewNop())
	service := NewSubmissionService(memberRepo, submissions, scores, scoringSvc, nil, nil, nil, logging.NewNop())

	memberRepo.
		On("ListActive", mock.MatchedBy(func(v context.Context) bool { return v != nil })).
		Return(nil, errors.New("roster provider timeout")).
		Once()

	_, err := service.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1000, testClub)})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestSubmissionService_Submit_StoresInvalidWithReason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	if _, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1_000_000, testClub)}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	log, err := env.submission.parser.Parse(cabrilloLog("CQ-WW-CW", "N1XYZ", "SINGLE-OP", 4_000_000, "Other Club"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	roster, _ := env.submission.loadRoster(ctx)
	result, err := env.submission.Submit(ctx, log, eligibility.Validate(validationInput(log), roster), submission.SourceImport)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Submission.RejectReason == "" || len(result.Submission.MemberOperators) != 0 {
		t.Fatalf("expected stored reject reason without members, got=%+v", result.Submission)
	}
	if len(result.Points) != 0 {
		t.Fatalf("invalid submission must not earn points, got=%+v", result.Points)
	}

	// The invalid row still sets the contest reference.
	rows, _ := env.scores.ListOperatorPointsByContest(ctx, result.Submission.Key())
	if got := pointsByMember(rows)["K1AR"]; got != 250_000 {
		t.Fatalf("unexpected member points with invalid leader got=%v want=250000", got)
	}
}

func TestSubmissionService_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	uploaded, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1000, testClub)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, err := env.submission.Get(ctx, uploaded.Submission.ID)
	if err != nil || got.Callsign != "K1AR" {
		t.Fatalf("unexpected get result=%+v err=%v", got, err)
	}
	if _, err := env.submission.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.submission.Get(ctx, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSubmissionService_ClearAll_KeepsMethodAndMembers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	if _, err := env.scoring.SetScoringMethod(ctx, "participant-based"); err != nil {
		t.Fatalf("set method: %v", err)
	}
	if _, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1000, testClub)}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := env.submission.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if active, _ := env.submissions.ListActive(ctx); len(active) != 0 {
		t.Fatalf("expected no submissions, got=%d", len(active))
	}
	if rows, _ := env.scores.ListAllOperatorPoints(ctx); len(rows) != 0 {
		t.Fatalf("expected no points, got=%d", len(rows))
	}
	if method, _ := env.scoring.CurrentMethod(ctx); method != "participant-based" {
		t.Fatalf("expected method to survive clear, got=%s", method)
	}
	if members, _ := env.members.ListActive(ctx); len(members) != len(testMembers()) {
		t.Fatalf("expected members to survive clear, got=%d", len(members))
	}
}

func TestSubmissionService_Preview_MatchesStoredPoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	if _, err := env.submission.Upload(ctx, UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 4_000_000, testClub)}); err != nil {
		t.Fatalf("upload leader: %v", err)
	}

	content := cabrilloLog("CQ-WW-CW", "W1WEF", "SINGLE-OP", 1_000_000, testClub)
	preview, err := env.submission.Preview(ctx, UploadInput{Content: content})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.NormalizedPoints != 250_000 || preview.CurrentMaxPoints != 1_000_000 || preview.Replaces {
		t.Fatalf("unexpected preview: %+v", preview)
	}
	if count, _ := env.submissions.CountActiveByContest(ctx, submission.ContestKey{Year: 2024, Contest: "CQ-WW-CW"}); count != 1 {
		t.Fatalf("preview must not store, active=%d", count)
	}

	stored, err := env.submission.Upload(ctx, UploadInput{Content: content})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if stored.NormalizedPoints() != preview.NormalizedPoints {
		t.Fatalf("preview differs from stored points preview=%v stored=%v", preview.NormalizedPoints, stored.NormalizedPoints())
	}

	again, err := env.submission.Preview(ctx, UploadInput{Content: content})
	if err != nil || !again.Replaces {
		t.Fatalf("expected preview of a resubmit to report replacement, got=%+v err=%v", again, err)
	}
	env.notifier.collect(t, 2)
}

func TestSubmissionService_Preview_Rejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.submission.Preview(context.Background(), UploadInput{Content: cabrilloLog("CQ-WW-CW", "K1AR", "SINGLE-OP", 1000, "Other Club")})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if _, err := env.submission.Preview(context.Background(), UploadInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
