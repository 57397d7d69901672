package cabrillo

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minContestYear = 1900
	maxContestYear = 2100
)

var (
	headerSeparator = regexp.MustCompile(`:\s*`)
	operatorSplit   = regexp.MustCompile(`[,\s]+`)
	operatorToken   = regexp.MustCompile(`^[A-Z0-9]+$`)
	qsoDateToken    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Parser turns raw Cabrillo text into a Log. Now supplies the fallback
// contest year when no QSO line carries a date.
type Parser struct {
	Now func() time.Time
}

func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

// Parse uses the wall clock for the year fallback.
func Parse(content string) (Log, error) {
	return NewParser().Parse(content)
}

func (p *Parser) Parse(content string) (Log, error) {
	var (
		contest, callsign, club  string
		categoryOperator         string
		assisted, transmitter    string
		band, categoryMode, mode string
		operators                []string
		claimed                  int64
		qsoCount                 int
		contestYear              int
	)

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := headerSeparator.Split(line, -1)
		key := strings.ToUpper(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(strings.Join(parts[1:], ":"))

		switch key {
		case "CONTEST":
			contest = value
		case "CALLSIGN":
			callsign = strings.ToUpper(value)
		case "CLAIMED-SCORE":
			claimed = leadingInt(value)
		case "CATEGORY-OPERATOR":
			categoryOperator = strings.ToUpper(value)
		case "CATEGORY-ASSISTED":
			assisted = strings.ToUpper(value)
		case "CATEGORY-TRANSMITTER":
			transmitter = strings.ToUpper(value)
		case "CATEGORY-BAND":
			band = strings.ToUpper(value)
		case "CATEGORY-MODE":
			categoryMode = strings.ToUpper(value)
		case "MODE":
			mode = strings.ToUpper(value)
		case "OPERATORS":
			operators = ParseOperators(value)
		case "CLUB":
			club = value
		case "QSO":
			qsoCount++
			if contestYear == 0 {
				contestYear = yearFromQSO(line)
			}
		}
	}

	if strings.TrimSpace(contest) == "" {
		return Log{}, &ParseError{Field: "CONTEST"}
	}
	if strings.TrimSpace(callsign) == "" {
		return Log{}, &ParseError{Field: "CALLSIGN"}
	}

	out := Log{
		ContestKey:          NormalizeContestKey(contest),
		Callsign:            callsign,
		ClaimedScore:        claimed,
		CategoryOperator:    categoryOperator,
		CategoryAssisted:    assisted,
		CategoryTransmitter: transmitter,
		CategoryBand:        band,
		CategoryMode:        categoryMode,
		Operators:           operators,
		Club:                club,
		ContestYear:         contestYear,
		QSOCount:            qsoCount,
	}
	if out.ClaimedScore <= 0 {
		out.ClaimedScore = int64(qsoCount) * 2
		out.ScoreEstimated = true
	}
	if out.CategoryOperator == "" {
		out.CategoryOperator = DefaultCategoryOperator
	}
	if len(out.Operators) == 0 {
		out.Operators = []string{callsign}
	}
	if out.ContestYear == 0 {
		out.ContestYear = p.now().Year()
	}

	declaredMode := categoryMode
	if declaredMode == "" {
		declaredMode = mode
	}
	out.Mode = ResolveMode(declaredMode, contest)

	return out, nil
}

func (p *Parser) now() time.Time {
	if p == nil || p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// NormalizeContestKey upper-cases and trims. CQ-WW-DX and CQWW stay distinct.
func NormalizeContestKey(contest string) string {
	return strings.ToUpper(strings.TrimSpace(contest))
}

// ResolveMode maps a declared mode to CW, SSB, RTTY or MIXED, falling back to
// keywords in the contest name when nothing was declared.
func ResolveMode(declared, contest string) string {
	if value := strings.ToUpper(strings.TrimSpace(declared)); value != "" {
		switch {
		case strings.Contains(value, "CW"):
			return "CW"
		case strings.Contains(value, "SSB"), strings.Contains(value, "PHONE"):
			return "SSB"
		case strings.Contains(value, "RTTY"), strings.Contains(value, "DIGITAL"):
			return "RTTY"
		case strings.Contains(value, "MIXED"):
			return "MIXED"
		default:
			return value
		}
	}

	name := strings.ToUpper(contest)
	switch {
	case strings.Contains(name, "CW"):
		return "CW"
	case strings.Contains(name, "SSB"), strings.Contains(name, "PHONE"):
		return "SSB"
	case strings.Contains(name, "RTTY"):
		return "RTTY"
	default:
		return "MIXED"
	}
}

// ParseOperators splits on commas and whitespace and keeps plain
// alphanumeric calls only, so host markers like @K1AR are dropped.
func ParseOperators(raw string) []string {
	tokens := operatorSplit.Split(raw, -1)
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		op := strings.ToUpper(strings.TrimSpace(token))
		if op == "" || !operatorToken.MatchString(op) {
			continue
		}
		if _, ok := seen[op]; ok {
			continue
		}
		seen[op] = struct{}{}
		out = append(out, op)
	}
	return out
}

func yearFromQSO(line string) int {
	for _, field := range strings.Fields(line) {
		if !qsoDateToken.MatchString(field) {
			continue
		}
		year, err := strconv.Atoi(field[:4])
		if err != nil {
			continue
		}
		if year >= minContestYear && year <= maxContestYear {
			return year
		}
	}
	return 0
}

// leadingInt reads the digits at the start of value, ignoring thousands
// separators. Anything unreadable yields zero.
func leadingInt(value string) int64 {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	out, err := strconv.ParseInt(value[:end], 10, 64)
	if err != nil {
		return 0
	}
	return out
}
