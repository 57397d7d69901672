package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
)

const testClub = "Yankee Clipper Contest Club"

func testMembers() []member.Member {
	return []member.Member{
		{Callsign: "K1AR", FirstName: "Demo", LastName: "One", DuesExpiration: "12/31/2030", Active: true},
		{Callsign: "W1WEF", FirstName: "Demo", LastName: "Two", Aliases: "K1VR", DuesExpiration: "12/31/2030", Active: true},
		{Callsign: "N1ABC", FirstName: "Demo", LastName: "Three", DuesExpiration: "12/31/2030", Active: true},
		{Callsign: "KC1XX", FirstName: "Demo", LastName: "Expired", DuesExpiration: "12/31/2023", Active: true},
	}
}

type testEnv struct {
	members     *memory.MemberRepository
	submissions *memory.SubmissionRepository
	scores      *memory.ScoringRepository
	notifier    *recordingNotifier

	scoring     *ScoringService
	submission  *SubmissionService
	imports     *ImportService
	leaderboard *LeaderboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logging.NewNop()
	submissions := memory.NewSubmissionRepository()
	env := &testEnv{
		members:     memory.NewMemberRepository(testMembers()),
		submissions: submissions,
		scores:      memory.NewScoringRepository(submissions),
		notifier:    newRecordingNotifier(),
	}
	env.scoring = NewScoringService(env.submissions, env.scores, ScoringServiceConfig{MaxWorkers: 2}, nil, logger)
	env.submission = NewSubmissionService(env.members, env.submissions, env.scores, env.scoring, env.notifier, nil, nil, logger)
	env.imports = NewImportService(env.members, env.submissions, env.submission, env.scoring, nil, logger)
	env.leaderboard = NewLeaderboardService(env.members, env.submissions, env.scores)
	return env
}

// cabrilloLog renders a minimal log dated in 2024.
func cabrilloLog(contest, callsign, category string, claimed int64, club string, operators ...string) string {
	var b strings.Builder
	b.WriteString("START-OF-LOG: 3.0\n")
	fmt.Fprintf(&b, "CONTEST: %s\n", contest)
	fmt.Fprintf(&b, "CALLSIGN: %s\n", callsign)
	fmt.Fprintf(&b, "CATEGORY-OPERATOR: %s\n", category)
	fmt.Fprintf(&b, "CLAIMED-SCORE: %d\n", claimed)
	fmt.Fprintf(&b, "CLUB: %s\n", club)
	if len(operators) > 0 {
		fmt.Fprintf(&b, "OPERATORS: %s\n", strings.Join(operators, " "))
	}
	fmt.Fprintf(&b, "QSO: 14025 CW 2024-11-23 0000 %s 599 05 DL1ABC 599 14\n", callsign)
	b.WriteString("END-OF-LOG:\n")
	return b.String()
}

type recordingNotifier struct {
	notices chan SubmissionNotice
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{notices: make(chan SubmissionNotice, 32)}
}

func (n *recordingNotifier) NotifySubmission(_ context.Context, notice SubmissionNotice) error {
	n.notices <- notice
	return nil
}

func (n *recordingNotifier) collect(t *testing.T, want int) []SubmissionNotice {
	t.Helper()

	out := make([]SubmissionNotice, 0, want)
	timeout := time.After(2 * time.Second)
	for len(out) < want {
		select {
		case notice := <-n.notices:
			out = append(out, notice)
		case <-timeout:
			t.Fatalf("timed out waiting for notices got=%d want=%d", len(out), want)
		}
	}
	return out
}
