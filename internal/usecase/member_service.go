package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
)

// MemberService accepts roster snapshots produced by the external roster
// provider. It never derives membership on its own.
type MemberService struct {
	memberRepo member.Repository
	logger     *logging.Logger
	now        func() time.Time
}

func NewMemberService(memberRepo member.Repository, logger *logging.Logger) *MemberService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemberService{
		memberRepo: memberRepo,
		logger:     logger.Named("member"),
		now:        time.Now,
	}
}

func (s *MemberService) ListActive(ctx context.Context) ([]member.Member, error) {
	items, err := s.memberRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return items, nil
}

// UpsertMany normalizes callsigns and stores the batch. Dues dates must be
// MM/DD/YYYY or empty.
func (s *MemberService) UpsertMany(ctx context.Context, items []member.Member) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.UpsertMany")
	defer span.End()

	out, err := s.normalize(items)
	if err != nil {
		return 0, err
	}
	if err := s.memberRepo.UpsertMany(ctx, out); err != nil {
		return 0, fmt.Errorf("upsert members: %w", err)
	}
	s.logger.InfoContext(ctx, "roster updated", "members", len(out))
	return len(out), nil
}

type RosterImportResult struct {
	Count       int `json:"count"`
	Deactivated int `json:"deactivated"`
	Skipped     int `json:"skipped"`
}

// ImportRosterCSV replaces the roster with a CSV export. CALLSIGN is
// required; ACTIVE_YN, ALIAS_CALLS, DUES_EXPIRATION, FIRST_NAME and LAST_NAME
// are read when present. Members missing from the file are deactivated, never
// deleted, so their history keeps its names.
func (s *MemberService) ImportRosterCSV(ctx context.Context, r io.Reader) (RosterImportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.ImportRosterCSV")
	defer span.End()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return RosterImportResult{}, fmt.Errorf("%w: roster csv is empty", ErrInvalidInput)
	}
	if err != nil {
		return RosterImportResult{}, fmt.Errorf("%w: read roster header: %v", ErrInvalidInput, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := columns["CALLSIGN"]; !ok {
		return RosterImportResult{}, fmt.Errorf("%w: roster csv needs a CALLSIGN column", ErrInvalidInput)
	}

	result := RosterImportResult{}
	byCall := make(map[string]int)
	items := make([]member.Member, 0)
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return RosterImportResult{}, fmt.Errorf("%w: read roster row: %v", ErrInvalidInput, readErr)
		}
		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		item := member.Member{
			Callsign:       strings.ToUpper(field("CALLSIGN")),
			FirstName:      field("FIRST_NAME"),
			LastName:       field("LAST_NAME"),
			Aliases:        field("ALIAS_CALLS"),
			DuesExpiration: field("DUES_EXPIRATION"),
			Active:         true,
		}
		if item.Callsign == "" {
			result.Skipped++
			continue
		}
		if _, ok := columns["ACTIVE_YN"]; ok {
			active := strings.ToUpper(field("ACTIVE_YN"))
			item.Active = active == "Y" || active == "1"
		}
		// A repeated callsign keeps the last row.
		if idx, dup := byCall[item.Callsign]; dup {
			items[idx] = item
			result.Skipped++
			continue
		}
		byCall[item.Callsign] = len(items)
		items = append(items, item)
	}

	out, err := s.normalize(items)
	if err != nil {
		return RosterImportResult{}, err
	}
	deactivated, err := s.memberRepo.ReplaceAll(ctx, out)
	if err != nil {
		return RosterImportResult{}, fmt.Errorf("replace members: %w", err)
	}
	result.Count = len(out)
	result.Deactivated = deactivated

	s.logger.InfoContext(ctx, "roster replaced",
		"members", result.Count,
		"deactivated", result.Deactivated,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *MemberService) normalize(items []member.Member) ([]member.Member, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one member is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	seen := make(map[string]struct{}, len(items))
	out := make([]member.Member, 0, len(items))
	for i, item := range items {
		item.Callsign = strings.ToUpper(strings.TrimSpace(item.Callsign))
		if item.Callsign == "" {
			return nil, fmt.Errorf("%w: member %d has no callsign", ErrInvalidInput, i)
		}
		if _, dup := seen[item.Callsign]; dup {
			return nil, fmt.Errorf("%w: duplicate callsign %s", ErrInvalidInput, item.Callsign)
		}
		seen[item.Callsign] = struct{}{}

		item.DuesExpiration = strings.TrimSpace(item.DuesExpiration)
		if item.DuesExpiration != "" && !member.IsValidDuesDate(item.DuesExpiration) {
			return nil, fmt.Errorf("%w: invalid dues expiration %q for %s", ErrInvalidInput, item.DuesExpiration, item.Callsign)
		}
		item.Aliases = strings.Join(item.AliasList(), ",")
		item.UpdatedAt = now
		out = append(out, item)
	}
	return out, nil
}
