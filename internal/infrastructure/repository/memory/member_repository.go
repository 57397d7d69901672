package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
)

type MemberRepository struct {
	mu    sync.RWMutex
	items map[string]member.Member
}

func NewMemberRepository(members []member.Member) *MemberRepository {
	items := make(map[string]member.Member, len(members))
	for _, m := range members {
		items[strings.ToUpper(m.Callsign)] = m
	}
	return &MemberRepository{items: items}
}

func (r *MemberRepository) ListActive(_ context.Context) ([]member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]member.Member, 0, len(r.items))
	for _, m := range r.items {
		if m.Active {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Callsign < out[j].Callsign })
	return out, nil
}

func (r *MemberRepository) GetByCallsign(_ context.Context, callsign string) (member.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[strings.ToUpper(strings.TrimSpace(callsign))]
	return m, ok, nil
}

func (r *MemberRepository) UpsertMany(_ context.Context, members []member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range members {
		r.items[strings.ToUpper(m.Callsign)] = m
	}
	return nil
}

func (r *MemberRepository) ReplaceAll(_ context.Context, members []member.Member) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep := make(map[string]member.Member, len(members))
	for _, m := range members {
		keep[strings.ToUpper(m.Callsign)] = m
	}
	deactivated := 0
	for call, m := range r.items {
		if _, ok := keep[call]; ok || !m.Active {
			continue
		}
		m.Active = false
		r.items[call] = m
		deactivated++
	}
	for call, m := range keep {
		r.items[call] = m
	}
	return deactivated, nil
}
