package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	basecache "github.com/riskibarqy/contest-awards/internal/platform/cache"
)

const (
	memberPrefix   = "member:"
	baselinePrefix = "baseline:"
	pointsPrefix   = "points:"
)

type MemberRepository struct {
	next  member.Repository
	cache *basecache.Store
}

func NewMemberRepository(next member.Repository, cache *basecache.Store) *MemberRepository {
	return &MemberRepository{next: next, cache: cache}
}

func (r *MemberRepository) ListActive(ctx context.Context) ([]member.Member, error) {
	items, err := basecache.Load(ctx, r.cache, memberPrefix+"active", func(ctx context.Context) ([]member.Member, error) {
		items, err := r.next.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		return append([]member.Member(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]member.Member(nil), items...), nil
}

func (r *MemberRepository) GetByCallsign(ctx context.Context, callsign string) (member.Member, bool, error) {
	key := memberPrefix + "call:" + strings.ToUpper(strings.TrimSpace(callsign))
	cached, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) (cachedMember, error) {
		item, exists, err := r.next.GetByCallsign(ctx, callsign)
		if err != nil {
			return cachedMember{}, err
		}
		return cachedMember{value: item, exists: exists}, nil
	})
	if err != nil {
		return member.Member{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *MemberRepository) UpsertMany(ctx context.Context, members []member.Member) error {
	if err := r.next.UpsertMany(ctx, members); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, memberPrefix)
	return nil
}

func (r *MemberRepository) ReplaceAll(ctx context.Context, members []member.Member) (int, error) {
	deactivated, err := r.next.ReplaceAll(ctx, members)
	if err != nil {
		return 0, err
	}
	r.cache.DeletePrefix(ctx, memberPrefix)
	return deactivated, nil
}

type cachedMember struct {
	value  member.Member
	exists bool
}

// ScoringRepository caches leaderboard reads. Every write drops the whole
// points and baseline namespace, since one recompute can touch any season or
// member listing. The scoring method is never cached: another replica may
// change it and a rebuild must see the stored value.
type ScoringRepository struct {
	next  scoring.Repository
	cache *basecache.Store
}

func NewScoringRepository(next scoring.Repository, cache *basecache.Store) *ScoringRepository {
	return &ScoringRepository{next: next, cache: cache}
}

func (r *ScoringRepository) GetBaseline(ctx context.Context, key submission.ContestKey) (scoring.Baseline, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, baselinePrefix+key.String(), func(ctx context.Context) (cachedBaseline, error) {
		item, exists, err := r.next.GetBaseline(ctx, key)
		if err != nil {
			return cachedBaseline{}, err
		}
		return cachedBaseline{value: item, exists: exists}, nil
	})
	if err != nil {
		return scoring.Baseline{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *ScoringRepository) RebuildContest(ctx context.Context, key submission.ContestKey, change scoring.ContestChange, build scoring.ContestBuilder) (scoring.ContestRebuild, error) {
	result, err := r.next.RebuildContest(ctx, key, change, build)
	r.invalidateScores(ctx)
	return result, err
}

func (r *ScoringRepository) ListOperatorPointsByContest(ctx context.Context, key submission.ContestKey) ([]scoring.OperatorPoints, error) {
	return r.loadPoints(ctx, pointsPrefix+"contest:"+key.String(), func(ctx context.Context) ([]scoring.OperatorPoints, error) {
		return r.next.ListOperatorPointsByContest(ctx, key)
	})
}

func (r *ScoringRepository) ListOperatorPointsBySeason(ctx context.Context, year int) ([]scoring.OperatorPoints, error) {
	return r.loadPoints(ctx, pointsPrefix+"season:"+strconv.Itoa(year), func(ctx context.Context) ([]scoring.OperatorPoints, error) {
		return r.next.ListOperatorPointsBySeason(ctx, year)
	})
}

func (r *ScoringRepository) ListOperatorPointsByMember(ctx context.Context, callsign string) ([]scoring.OperatorPoints, error) {
	key := pointsPrefix + "member:" + strings.ToUpper(strings.TrimSpace(callsign))
	return r.loadPoints(ctx, key, func(ctx context.Context) ([]scoring.OperatorPoints, error) {
		return r.next.ListOperatorPointsByMember(ctx, callsign)
	})
}

func (r *ScoringRepository) ListAllOperatorPoints(ctx context.Context) ([]scoring.OperatorPoints, error) {
	return r.loadPoints(ctx, pointsPrefix+"all", r.next.ListAllOperatorPoints)
}

func (r *ScoringRepository) GetScoringMethod(ctx context.Context) (scoring.Method, bool, error) {
	return r.next.GetScoringMethod(ctx)
}

func (r *ScoringRepository) SetScoringMethod(ctx context.Context, method scoring.Method) error {
	return r.next.SetScoringMethod(ctx, method)
}

func (r *ScoringRepository) ClearAll(ctx context.Context) error {
	err := r.next.ClearAll(ctx)
	r.invalidateScores(ctx)
	return err
}

func (r *ScoringRepository) invalidateScores(ctx context.Context) {
	r.cache.DeletePrefix(ctx, pointsPrefix)
	r.cache.DeletePrefix(ctx, baselinePrefix)
}

func (r *ScoringRepository) loadPoints(ctx context.Context, key string, loader func(context.Context) ([]scoring.OperatorPoints, error)) ([]scoring.OperatorPoints, error) {
	items, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) ([]scoring.OperatorPoints, error) {
		items, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return append([]scoring.OperatorPoints(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]scoring.OperatorPoints(nil), items...), nil
}

type cachedBaseline struct {
	value  scoring.Baseline
	exists bool
}
