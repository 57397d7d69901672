package member

import (
	"strings"
	"time"
)

const duesDateLayout = "1/2/2006"

// Member is one roster entry. DuesExpiration is MM/DD/YYYY or empty.
type Member struct {
	Callsign       string
	FirstName      string
	LastName       string
	Aliases        string
	DuesExpiration string
	Active         bool
	UpdatedAt      time.Time
}

// AliasList returns the comma separated aliases upper-cased.
func (m Member) AliasList() []string {
	if strings.TrimSpace(m.Aliases) == "" {
		return nil
	}
	parts := strings.Split(m.Aliases, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		alias := strings.ToUpper(strings.TrimSpace(part))
		if alias == "" {
			continue
		}
		out = append(out, alias)
	}
	return out
}

// IsDuesValidForYear reports whether dues run through 12/31 of year.
// Empty or malformed dates are never valid.
func IsDuesValidForYear(expiration string, year int) bool {
	value := strings.TrimSpace(expiration)
	if value == "" {
		return false
	}
	expires, err := time.Parse(duesDateLayout, value)
	if err != nil {
		return false
	}
	required := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return !expires.Before(required)
}

// IsValidDuesDate reports whether value parses as MM/DD/YYYY.
func IsValidDuesDate(value string) bool {
	_, err := time.Parse(duesDateLayout, strings.TrimSpace(value))
	return err == nil
}
