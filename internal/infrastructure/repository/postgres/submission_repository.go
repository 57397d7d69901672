package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	qb "github.com/riskibarqy/contest-awards/internal/platform/querybuilder"
)

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Replace runs under the contest advisory lock, so it never interleaves with
// a rebuild of the same contest on another replica.
func (r *SubmissionRepository) Replace(ctx context.Context, previousID string, item submission.Submission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace submission: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockContest(ctx, tx, item.Key()); err != nil {
		return err
	}
	if err := replaceSubmission(ctx, tx, previousID, item); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (submission.Submission, bool, error) {
	query, args, err := qb.Select("*").From("submissions").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return submission.Submission{}, false, fmt.Errorf("build get submission query: %w", err)
	}

	var row submissionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return submission.Submission{}, false, nil
		}
		return submission.Submission{}, false, fmt.Errorf("get submission id=%s: %w", id, err)
	}
	return row.toDomain(), true, nil
}

func (r *SubmissionRepository) GetActiveByNaturalKey(ctx context.Context, key submission.ContestKey, callsign string) (submission.Submission, bool, error) {
	query, args, err := qb.Select("*").From("submissions").
		Where(
			qb.Eq("season_year", key.Year),
			qb.Eq("contest_key", key.Contest),
			qb.Eq("callsign", normalizeCallsign(callsign)),
			qb.IsTrue("is_active"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return submission.Submission{}, false, fmt.Errorf("build get active submission query: %w", err)
	}

	var row submissionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return submission.Submission{}, false, nil
		}
		return submission.Submission{}, false, fmt.Errorf("get active submission key=%s callsign=%s: %w", key, callsign, err)
	}
	return row.toDomain(), true, nil
}

func (r *SubmissionRepository) ListActiveByContest(ctx context.Context, key submission.ContestKey) ([]submission.Submission, error) {
	return selectActiveByContest(ctx, r.db, key)
}

func (r *SubmissionRepository) ListActive(ctx context.Context) ([]submission.Submission, error) {
	query, args, err := qb.Select("*").From("submissions").
		Where(qb.IsTrue("is_active")).
		OrderBy("season_year DESC", "contest_key", "submitted_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active submissions query: %w", err)
	}
	return r.selectSubmissions(ctx, query, args)
}

func (r *SubmissionRepository) CountActiveByContest(ctx context.Context, key submission.ContestKey) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("submissions").
		Where(
			qb.Eq("season_year", key.Year),
			qb.Eq("contest_key", key.Contest),
			qb.IsTrue("is_active"),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count contest submissions query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count contest submissions key=%s: %w", key, err)
	}
	return count, nil
}

// ListContestKeys returns every (season, contest) with an active row, newest
// season first.
func (r *SubmissionRepository) ListContestKeys(ctx context.Context) ([]submission.ContestKey, error) {
	query, args, err := qb.SelectDistinct("season_year", "contest_key").From("submissions").
		Where(qb.IsTrue("is_active")).
		OrderBy("season_year DESC", "contest_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contest keys query: %w", err)
	}

	var rows []contestKeyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select contest keys: %w", err)
	}

	out := make([]submission.ContestKey, 0, len(rows))
	for _, row := range rows {
		out = append(out, submission.ContestKey{Year: row.SeasonYear, Contest: row.ContestKey})
	}
	return out, nil
}

func (r *SubmissionRepository) ClearAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE submissions CASCADE"); err != nil {
		return fmt.Errorf("truncate submissions: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) selectSubmissions(ctx context.Context, query string, args []any) ([]submission.Submission, error) {
	return selectSubmissions(ctx, r.db, query, args)
}

func lockContest(ctx context.Context, tx *sqlx.Tx, key submission.ContestKey) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "contest:"+key.String()); err != nil {
		return fmt.Errorf("lock contest key=%s: %w", key, err)
	}
	return nil
}

// replaceSubmission expects tx to hold the contest lock of item.
func replaceSubmission(ctx context.Context, tx *sqlx.Tx, previousID string, item submission.Submission) error {
	if previousID != "" {
		query, args, err := qb.Update("submissions").
			Set("is_active", false).
			Where(qb.Eq("id", previousID), qb.IsTrue("is_active")).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build deactivate submission query: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("deactivate submission id=%s: %w", previousID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deactivate submission rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: id=%s", submission.ErrNotActive, previousID)
		}
	}

	query, args, err := qb.InsertModel("submissions", submissionInsertFromDomain(item), "")
	if err != nil {
		return fmt.Errorf("build insert submission query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", submission.ErrActiveExists, item.Key(), item.Callsign)
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func selectActiveByContest(ctx context.Context, q sqlx.QueryerContext, key submission.ContestKey) ([]submission.Submission, error) {
	query, args, err := qb.Select("*").From("submissions").
		Where(
			qb.Eq("season_year", key.Year),
			qb.Eq("contest_key", key.Contest),
			qb.IsTrue("is_active"),
		).
		OrderBy("submitted_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contest submissions query: %w", err)
	}
	return selectSubmissions(ctx, q, query, args)
}

func selectSubmissions(ctx context.Context, q sqlx.QueryerContext, query string, args []any) ([]submission.Submission, error) {
	var rows []submissionTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}

	out := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
