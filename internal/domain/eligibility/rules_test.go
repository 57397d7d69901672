package eligibility

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
)

func testRoster() Roster {
	return BuildRoster([]member.Member{
		{Callsign: "K1AR", Aliases: "KC1AR", DuesExpiration: "12/31/2025", Active: true},
		{Callsign: "w1wef", DuesExpiration: "12/31/2024", Active: true},
		{Callsign: "N1XX", DuesExpiration: "12/31/2022", Active: true},
		{Callsign: "K1ZZ", DuesExpiration: "", Active: true},
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	roster := testRoster()
	tests := []struct {
		name          string
		input         Input
		wantErr       error
		wantMembers   []string
		wantExcluded  []string
		wantEffective int
		wantTotal     int
	}{
		{
			name:    "club with kelvin sign rejected",
			input:   Input{Callsign: "K1AR", Operators: []string{"K1AR"}, Club: "Yan\u212Aee Clipper Contest Club", ContestYear: 2024},
			wantErr: ErrWrongClub,
		},
		{
			name:    "wrong club rejected regardless of roster",
			input:   Input{Callsign: "K1AR", Operators: []string{"K1AR"}, Club: "ARRL", ContestYear: 2024},
			wantErr: ErrWrongClub,
		},
		{
			name:    "no roster match rejected",
			input:   Input{Callsign: "DL1ABC", Operators: []string{"DL1ABC"}, Club: ClubName, ContestYear: 2024},
			wantErr: ErrNoMemberOperators,
		},
		{
			name:    "only expired members rejected",
			input:   Input{Callsign: "N1XX", Operators: []string{"N1XX", "K1ZZ"}, Club: ClubName, ContestYear: 2024},
			wantErr: ErrAllDuesExpired,
		},
		{
			name:          "single op accepted",
			input:         Input{Callsign: "K1AR", Operators: []string{"K1AR"}, Club: "  yankee clipper contest club ", CategoryOperator: "SINGLE-OP", ContestYear: 2024},
			wantMembers:   []string{"K1AR"},
			wantEffective: 1,
			wantTotal:     1,
		},
		{
			name:          "alias resolves to primary callsign",
			input:         Input{Callsign: "KC1AR", Club: ClubName, ContestYear: 2025},
			wantMembers:   []string{"K1AR"},
			wantEffective: 1,
			wantTotal:     1,
		},
		{
			name:          "partial exclusion accepted with warning",
			input:         Input{Callsign: "K1AR", Operators: []string{"K1AR", "N1XX", "DL1ABC"}, Club: ClubName, CategoryOperator: "MULTI-ONE", ContestYear: 2024},
			wantMembers:   []string{"K1AR"},
			wantExcluded:  []string{"N1XX"},
			wantEffective: 1,
			wantTotal:     3,
		},
		{
			name:          "multi op counts eligible members once",
			input:         Input{Callsign: "K1AR", Operators: []string{"K1AR", "KC1AR", "W1WEF"}, Club: ClubName, CategoryOperator: "M/S", ContestYear: 2024},
			wantMembers:   []string{"K1AR", "W1WEF"},
			wantEffective: 2,
			wantTotal:     3,
		},
		{
			name:          "dues checked against contest year",
			input:         Input{Callsign: "W1WEF", Operators: []string{"W1WEF", "K1AR"}, Club: ClubName, CategoryOperator: "CHECKLOG", ContestYear: 2025},
			wantMembers:   []string{"K1AR"},
			wantExcluded:  []string{"W1WEF"},
			wantEffective: 1,
			wantTotal:     2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Validate(tc.input, roster)
			if tc.wantErr != nil {
				if got.Valid || !errors.Is(got.Err, tc.wantErr) {
					t.Fatalf("expected rejection %v, got valid=%t err=%v", tc.wantErr, got.Valid, got.Err)
				}
				if got.Reason == "" {
					t.Fatalf("expected rejection reason")
				}
				return
			}

			if !got.Valid || got.Err != nil {
				t.Fatalf("expected accepted result, got err=%v", got.Err)
			}
			if !reflect.DeepEqual(got.MemberOperators, tc.wantMembers) {
				t.Fatalf("unexpected member operators: got=%v want=%v", got.MemberOperators, tc.wantMembers)
			}
			if !reflect.DeepEqual(got.ExcludedOperators, tc.wantExcluded) {
				t.Fatalf("unexpected excluded operators: got=%v want=%v", got.ExcludedOperators, tc.wantExcluded)
			}
			if (len(tc.wantExcluded) > 0) != (got.ExclusionWarning != "") {
				t.Fatalf("unexpected exclusion warning: %q", got.ExclusionWarning)
			}
			if got.EffectiveOperators != tc.wantEffective {
				t.Fatalf("unexpected effective operators: got=%d want=%d", got.EffectiveOperators, tc.wantEffective)
			}
			if got.TotalOperators != tc.wantTotal {
				t.Fatalf("unexpected total operators: got=%d want=%d", got.TotalOperators, tc.wantTotal)
			}
		})
	}
}

func TestValidate_WrongClubEchoesClubName(t *testing.T) {
	t.Parallel()

	got := Validate(Input{Callsign: "K1AR", Club: "Frankford Radio Club", ContestYear: 2024}, testRoster())
	if !strings.Contains(got.Reason, "found: 'Frankford Radio Club'") {
		t.Fatalf("expected club echoed in reason, got %q", got.Reason)
	}
}

func TestBuildRoster_IndexesAliases(t *testing.T) {
	t.Parallel()

	roster := testRoster()
	m, ok := roster.Lookup("kc1ar")
	if !ok || m.Callsign != "K1AR" {
		t.Fatalf("expected alias lookup to resolve K1AR, got %+v ok=%t", m, ok)
	}
	if _, ok := roster.Lookup("W1WEF"); !ok {
		t.Fatalf("expected primary callsign to be upper-cased in roster")
	}
}
