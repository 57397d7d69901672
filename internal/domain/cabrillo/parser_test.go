package cabrillo

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

const sampleLog = `START-OF-LOG: 3.0
CONTEST: cq-ww-cw
CALLSIGN: k1ar
CATEGORY-OPERATOR: MULTI-ONE
CATEGORY-ASSISTED: non-assisted
CATEGORY-BAND: ALL
CLAIMED-SCORE: 5420000
CLUB: Yankee Clipper Contest Club
OPERATORS: K1AR, w1wef  @K1AR KB1/W1XX k1ar
# comment: ignored
QSO:  14025 CW 2024-11-23 0000 K1AR 599 05 DL1ABC 599 14
QSO:  14025 CW 2024-11-23 0001 K1AR 599 05 G4XYZ 599 14
END-OF-LOG:
`

func TestParse_HeaderFields(t *testing.T) {
	t.Parallel()

	got, err := Parse(sampleLog)
	if err != nil {
		t.Fatalf("parse sample log: %v", err)
	}

	if got.ContestKey != "CQ-WW-CW" {
		t.Fatalf("unexpected contest key: %q", got.ContestKey)
	}
	if got.Callsign != "K1AR" {
		t.Fatalf("unexpected callsign: %q", got.Callsign)
	}
	if got.ClaimedScore != 5420000 || got.ScoreEstimated {
		t.Fatalf("unexpected claimed score: got=%d estimated=%t", got.ClaimedScore, got.ScoreEstimated)
	}
	if got.CategoryOperator != "MULTI-ONE" || got.CategoryAssisted != "NON-ASSISTED" || got.CategoryBand != "ALL" {
		t.Fatalf("unexpected categories: %+v", got)
	}
	if got.Mode != "CW" {
		t.Fatalf("unexpected mode from contest name: %q", got.Mode)
	}
	if want := []string{"K1AR", "W1WEF"}; !reflect.DeepEqual(got.Operators, want) {
		t.Fatalf("unexpected operators: got=%v want=%v", got.Operators, want)
	}
	if got.Club != "Yankee Clipper Contest Club" {
		t.Fatalf("unexpected club: %q", got.Club)
	}
	if got.ContestYear != 2024 || got.QSOCount != 2 {
		t.Fatalf("unexpected year/qso count: year=%d qsos=%d", got.ContestYear, got.QSOCount)
	}
}

func TestParse_MissingRequiredFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		field string
	}{
		{name: "missing contest", input: "CALLSIGN: K1AR\nCLAIMED-SCORE: 10\n", field: "CONTEST"},
		{name: "blank contest", input: "CONTEST:   \nCALLSIGN: K1AR\n", field: "CONTEST"},
		{name: "missing callsign", input: "CONTEST: ARRL-DX-CW\n", field: "CALLSIGN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tc.input)
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField, got %v", err)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) || parseErr.Field != tc.field {
				t.Fatalf("unexpected parse error: %v", err)
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	p := &Parser{Now: func() time.Time { return time.Date(2031, 1, 2, 0, 0, 0, 0, time.UTC) }}
	got, err := p.Parse("CONTEST: NAQP\r\nCALLSIGN: w1wef\r\nQSO: 7000 PH 20xx-01-01 0000 W1WEF\r\nQSO: 7000 PH 1899-01-01 0000 W1WEF\r\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got.ClaimedScore != 4 || !got.ScoreEstimated {
		t.Fatalf("expected qso fallback score 4, got=%d estimated=%t", got.ClaimedScore, got.ScoreEstimated)
	}
	if got.CategoryOperator != DefaultCategoryOperator {
		t.Fatalf("unexpected default category operator: %q", got.CategoryOperator)
	}
	if !reflect.DeepEqual(got.Operators, []string{"W1WEF"}) {
		t.Fatalf("expected operators to default to callsign, got %v", got.Operators)
	}
	if got.ContestYear != 2031 {
		t.Fatalf("expected clock year fallback, got %d", got.ContestYear)
	}
	if got.Mode != "MIXED" {
		t.Fatalf("unexpected fallback mode: %q", got.Mode)
	}
}

func TestParse_ClaimedScoreVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw       string
		want      int64
		estimated bool
	}{
		{raw: "1234", want: 1234},
		{raw: "1,234,000", want: 1234000},
		{raw: "987pts", want: 987},
		{raw: "0", want: 2, estimated: true},
		{raw: "abc", want: 2, estimated: true},
		{raw: "-50", want: 2, estimated: true},
	}

	for _, tc := range tests {
		got, err := Parse("CONTEST: X\nCALLSIGN: K1AR\nCLAIMED-SCORE: " + tc.raw + "\nQSO: 1 CW 2024-01-01 0000 K1AR\n")
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if got.ClaimedScore != tc.want || got.ScoreEstimated != tc.estimated {
			t.Fatalf("claimed score %q: got=%d estimated=%t want=%d estimated=%t", tc.raw, got.ClaimedScore, got.ScoreEstimated, tc.want, tc.estimated)
		}
	}
}

func TestResolveMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		declared string
		contest  string
		want     string
	}{
		{declared: "cw", contest: "ANY", want: "CW"},
		{declared: "PHONE", contest: "ANY", want: "SSB"},
		{declared: "SSB", contest: "ANY", want: "SSB"},
		{declared: "DIGITAL", contest: "ANY", want: "RTTY"},
		{declared: "MIXED", contest: "ANY", want: "MIXED"},
		{declared: "FM", contest: "ANY", want: "FM"},
		{declared: "", contest: "ARRL-DX-SSB", want: "SSB"},
		{declared: "", contest: "CQ-WW-RTTY", want: "RTTY"},
		{declared: "", contest: "NAQP", want: "MIXED"},
	}

	for _, tc := range tests {
		if got := ResolveMode(tc.declared, tc.contest); got != tc.want {
			t.Fatalf("ResolveMode(%q, %q): got=%q want=%q", tc.declared, tc.contest, got, tc.want)
		}
	}
}

func TestNormalizeContestKey_KeepsVariantsDistinct(t *testing.T) {
	t.Parallel()

	if NormalizeContestKey("  cq-ww-dx ") != "CQ-WW-DX" {
		t.Fatalf("unexpected normalization")
	}
	if NormalizeContestKey("CQ-WW-DX") == NormalizeContestKey("CQWW") {
		t.Fatalf("contest variants must not be canonicalized")
	}
}
