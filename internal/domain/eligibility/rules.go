package eligibility

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
)

// BuildRoster indexes members under their primary callsign and every alias.
func BuildRoster(members []member.Member) Roster {
	out := make(Roster, len(members))
	for _, m := range members {
		call := strings.ToUpper(strings.TrimSpace(m.Callsign))
		if call == "" {
			continue
		}
		m.Callsign = call
		out[call] = m
		for _, alias := range m.AliasList() {
			out[alias] = m
		}
	}
	return out
}

// Lookup resolves a logged callsign to a member.
func (r Roster) Lookup(callsign string) (member.Member, bool) {
	m, ok := r[strings.ToUpper(strings.TrimSpace(callsign))]
	return m, ok
}

// Validate applies the club gate and the dues rule. Unknown operators are
// dropped silently; the log is rejected only when no eligible member remains.
func Validate(in Input, roster Roster) Result {
	if strings.ToUpper(strings.TrimSpace(in.Club)) != strings.ToUpper(ClubName) {
		return reject(ErrWrongClub, fmt.Sprintf("CLUB must be '%s' (found: '%s')", ClubName, in.Club))
	}

	operators := in.Operators
	if len(operators) == 0 {
		operators = []string{in.Callsign}
	}

	eligible := make([]string, 0, len(operators))
	expired := make([]string, 0)
	seen := make(map[string]struct{}, len(operators))
	for _, op := range operators {
		m, ok := roster.Lookup(op)
		if !ok {
			continue
		}
		if _, dup := seen[m.Callsign]; dup {
			continue
		}
		seen[m.Callsign] = struct{}{}

		if member.IsDuesValidForYear(m.DuesExpiration, in.ContestYear) {
			eligible = append(eligible, m.Callsign)
		} else {
			expired = append(expired, m.Callsign)
		}
	}

	if len(eligible) == 0 {
		if len(expired) > 0 {
			return reject(ErrAllDuesExpired, fmt.Sprintf(
				"All operators have expired dues for %d: %s. At least one operator must have current dues through 12/31/%d.",
				in.ContestYear, strings.Join(expired, ", "), in.ContestYear,
			))
		}
		return reject(ErrNoMemberOperators, "No YCCC member operators found in submission.")
	}

	out := Result{
		Valid:              true,
		MemberOperators:    eligible,
		EffectiveOperators: 1,
		TotalOperators:     TotalOperators(in.Operators),
	}
	if IsMultiOperator(in.CategoryOperator) {
		out.EffectiveOperators = len(eligible)
	}
	if len(expired) > 0 {
		out.ExcludedOperators = expired
		out.ExclusionWarning = fmt.Sprintf(
			"The following operators were excluded due to expired dues for %d: %s. They must have current dues through 12/31/%d.",
			in.ContestYear, strings.Join(expired, ", "), in.ContestYear,
		)
	}
	return out
}

// IsMultiOperator reports categories whose effective operator count is the
// eligible member count.
func IsMultiOperator(category string) bool {
	value := strings.ToUpper(strings.TrimSpace(category))
	return strings.Contains(value, "MULTI") || strings.Contains(value, "M/") || value == "CHECKLOG"
}

// TotalOperators is the scoring divisor: everyone listed, at least one.
func TotalOperators(operators []string) int {
	if len(operators) < 1 {
		return 1
	}
	return len(operators)
}

func reject(err error, reason string) Result {
	return Result{Err: fmt.Errorf("%w: %s", err, reason), Reason: reason}
}
