package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/contest-awards/internal/domain/member"
	qb "github.com/riskibarqy/contest-awards/internal/platform/querybuilder"
)

type MemberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) ListActive(ctx context.Context) ([]member.Member, error) {
	query, args, err := qb.Select("*").From("members").
		Where(qb.IsTrue("active")).
		OrderBy("callsign").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select members query: %w", err)
	}

	var rows []memberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}

	out := make([]member.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MemberRepository) GetByCallsign(ctx context.Context, callsign string) (member.Member, bool, error) {
	query, args, err := qb.Select("*").From("members").
		Where(qb.Eq("callsign", normalizeCallsign(callsign))).
		ToSQL()
	if err != nil {
		return member.Member{}, false, fmt.Errorf("build get member query: %w", err)
	}

	var row memberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return member.Member{}, false, nil
		}
		return member.Member{}, false, fmt.Errorf("get member callsign=%s: %w", callsign, err)
	}
	return row.toDomain(), true, nil
}

// UpsertMany writes the batch in one statement keyed by callsign.
func (r *MemberRepository) UpsertMany(ctx context.Context, members []member.Member) error {
	return upsertMembers(ctx, r.db, members)
}

func (r *MemberRepository) ReplaceAll(ctx context.Context, members []member.Member) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx replace members: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	callsigns := make([]string, 0, len(members))
	for _, item := range members {
		callsigns = append(callsigns, normalizeCallsign(item.Callsign))
	}
	query, args, err := qb.Update("members").
		Set("active", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.IsTrue("active"), qb.Expr("NOT (callsign = ANY(?))", stringArray(callsigns))).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build deactivate members query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivate members: %w", err)
	}
	deactivated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate members rows affected: %w", err)
	}

	if err := upsertMembers(ctx, tx, members); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace members: %w", err)
	}
	return int(deactivated), nil
}

func upsertMembers(ctx context.Context, exec sqlx.ExecerContext, members []member.Member) error {
	if len(members) == 0 {
		return nil
	}

	models := make([]any, 0, len(members))
	for _, item := range members {
		models = append(models, memberInsertFromDomain(item))
	}
	query, args, err := qb.InsertModels("members", models, `ON CONFLICT (callsign)
DO UPDATE SET
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    aliases = EXCLUDED.aliases,
    dues_expiration = EXCLUDED.dues_expiration,
    active = EXCLUDED.active,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert members query: %w", err)
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert members: %w", err)
	}
	return nil
}
