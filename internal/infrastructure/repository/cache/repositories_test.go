package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/contest-awards/internal/platform/cache"
)

func newCountingScoringRepo() *countingScoringRepo {
	return &countingScoringRepo{ScoringRepository: memory.NewScoringRepository(memory.NewSubmissionRepository())}
}

type countingScoringRepo struct {
	*memory.ScoringRepository
	seasonReads atomic.Int32
	methodReads atomic.Int32
}

func (r *countingScoringRepo) ListOperatorPointsBySeason(ctx context.Context, year int) ([]scoring.OperatorPoints, error) {
	r.seasonReads.Add(1)
	return r.ScoringRepository.ListOperatorPointsBySeason(ctx, year)
}

func (r *countingScoringRepo) GetScoringMethod(ctx context.Context) (scoring.Method, bool, error) {
	r.methodReads.Add(1)
	return r.ScoringRepository.GetScoringMethod(ctx)
}

type countingMemberRepo struct {
	*memory.MemberRepository
	listReads atomic.Int32
}

func (r *countingMemberRepo) ListActive(ctx context.Context) ([]member.Member, error) {
	r.listReads.Add(1)
	return r.MemberRepository.ListActive(ctx)
}

func TestScoringRepository_CachesReadsUntilWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := newCountingScoringRepo()
	repo := NewScoringRepository(next, basecache.NewStore(time.Minute))
	key := submission.ContestKey{Year: 2024, Contest: "CQWW"}

	for i := 0; i < 3; i++ {
		if _, err := repo.ListOperatorPointsBySeason(ctx, 2024); err != nil {
			t.Fatalf("list season: %v", err)
		}
	}
	if got := next.seasonReads.Load(); got != 1 {
		t.Fatalf("unexpected backend reads before write got=%d want=1", got)
	}

	item := submission.Submission{
		ID: "s1", SeasonYear: 2024, ContestKey: "CQWW", Callsign: "K1AR", ClaimedScore: 100,
		TotalOperators: 1, MemberOperators: []string{"K1AR"}, Status: submission.StatusAccepted, IsActive: true,
	}
	build := func(active []submission.Submission, method scoring.Method) (scoring.Baseline, []scoring.OperatorPoints) {
		return scoring.BuildContestScores(key, active, method, time.Now())
	}
	if _, err := repo.RebuildContest(ctx, key, scoring.ContestChange{Insert: &item}, build); err != nil {
		t.Fatalf("rebuild contest: %v", err)
	}

	got, err := repo.ListOperatorPointsBySeason(ctx, 2024)
	if err != nil {
		t.Fatalf("list season after write: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected fresh rows after write, got=%d", len(got))
	}
	if reads := next.seasonReads.Load(); reads != 2 {
		t.Fatalf("unexpected backend reads after write got=%d want=2", reads)
	}

	stored, exists, err := repo.GetBaseline(ctx, key)
	if err != nil || !exists || stored.MaxPoints != 1_000_000 {
		t.Fatalf("unexpected baseline exists=%v max=%v err=%v", exists, stored.MaxPoints, err)
	}
}

func TestScoringRepository_MethodReadsPassThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := newCountingScoringRepo()
	repo := NewScoringRepository(next, basecache.NewStore(time.Minute))

	if _, ok, err := repo.GetScoringMethod(ctx); err != nil || ok {
		t.Fatalf("expected no stored method, ok=%v err=%v", ok, err)
	}

	// A write that bypasses this decorator stands in for another replica.
	if err := next.SetScoringMethod(ctx, scoring.MethodParticipantBase); err != nil {
		t.Fatalf("set method: %v", err)
	}
	method, ok, err := repo.GetScoringMethod(ctx)
	if err != nil || !ok || method != scoring.MethodParticipantBase {
		t.Fatalf("unexpected method=%s ok=%v err=%v", method, ok, err)
	}
	if got := next.methodReads.Load(); got != 2 {
		t.Fatalf("unexpected method reads got=%d want=2", got)
	}
}

func TestMemberRepository_UpsertInvalidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := &countingMemberRepo{MemberRepository: memory.NewMemberRepository(nil)}
	repo := NewMemberRepository(next, basecache.NewStore(time.Minute))

	items, err := repo.ListActive(ctx)
	if err != nil || len(items) != 0 {
		t.Fatalf("unexpected initial members len=%d err=%v", len(items), err)
	}
	if _, found, _ := repo.GetByCallsign(ctx, "k1ar"); found {
		t.Fatalf("expected missing member")
	}

	err = repo.UpsertMany(ctx, []member.Member{{Callsign: "K1AR", FirstName: "Demo", Active: true, DuesExpiration: "12/31/2030"}})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	items, err = repo.ListActive(ctx)
	if err != nil || len(items) != 1 {
		t.Fatalf("unexpected members after upsert len=%d err=%v", len(items), err)
	}
	if got := next.listReads.Load(); got != 2 {
		t.Fatalf("unexpected list reads got=%d want=2", got)
	}
	if _, found, _ := repo.GetByCallsign(ctx, "K1AR"); !found {
		t.Fatalf("expected cached miss to be dropped after upsert")
	}
}
