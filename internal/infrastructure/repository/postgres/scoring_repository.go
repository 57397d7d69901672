package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	qb "github.com/riskibarqy/contest-awards/internal/platform/querybuilder"
)

// operatorPointsBatchSize keeps one insert below the postgres bind limit.
const operatorPointsBatchSize = 500

type ScoringRepository struct {
	db *sqlx.DB
}

func NewScoringRepository(db *sqlx.DB) *ScoringRepository {
	return &ScoringRepository{db: db}
}

func (r *ScoringRepository) GetBaseline(ctx context.Context, key submission.ContestKey) (scoring.Baseline, bool, error) {
	query, args, err := qb.Select("*").From("contest_baselines").
		Where(
			qb.Eq("season_year", key.Year),
			qb.Eq("contest_key", key.Contest),
		).
		ToSQL()
	if err != nil {
		return scoring.Baseline{}, false, fmt.Errorf("build get baseline query: %w", err)
	}

	var row baselineTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return scoring.Baseline{}, false, nil
		}
		return scoring.Baseline{}, false, fmt.Errorf("get baseline key=%s: %w", key, err)
	}
	return row.toDomain(), true, nil
}

// RebuildContest holds a transaction scoped advisory lock on key from the
// submission write to the last inserted point row, so replicas rebuilding the
// same contest see each other's committed submissions.
func (r *ScoringRepository) RebuildContest(ctx context.Context, key submission.ContestKey, change scoring.ContestChange, build scoring.ContestBuilder) (scoring.ContestRebuild, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return scoring.ContestRebuild{}, fmt.Errorf("begin tx rebuild contest: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockContest(ctx, tx, key); err != nil {
		return scoring.ContestRebuild{}, err
	}
	if change.Insert != nil {
		if err := replaceSubmission(ctx, tx, change.PreviousID, *change.Insert); err != nil {
			return scoring.ContestRebuild{}, err
		}
	}

	method, ok, err := loadScoringMethod(ctx, tx)
	if err != nil {
		return scoring.ContestRebuild{}, err
	}
	if !ok {
		method = scoring.DefaultMethod
	}
	active, err := selectActiveByContest(ctx, tx, key)
	if err != nil {
		return scoring.ContestRebuild{}, err
	}

	result := scoring.ContestRebuild{Method: method, Active: len(active)}
	if len(active) == 0 {
		result.Skipped = true
	} else {
		baseline, rows := build(active, method)
		if err := writeContestScores(ctx, tx, key, baseline, rows); err != nil {
			return scoring.ContestRebuild{}, err
		}
		result.Baseline = baseline
		result.Rows = rows
	}

	if err := tx.Commit(); err != nil {
		return scoring.ContestRebuild{}, fmt.Errorf("commit rebuild contest: %w", err)
	}
	return result, nil
}

func writeContestScores(ctx context.Context, tx *sqlx.Tx, key submission.ContestKey, baseline scoring.Baseline, rows []scoring.OperatorPoints) error {
	baselineModel := baselineTableModel{
		SeasonYear:           key.Year,
		ContestKey:           key.Contest,
		HighestSingleClaimed: baseline.HighestSingleClaimed,
		MaxPoints:            baseline.MaxPoints,
		Method:               string(baseline.Method),
		CalculatedAt:         baseline.CalculatedAt,
	}
	query, args, err := qb.InsertModel("contest_baselines", baselineModel, `ON CONFLICT (season_year, contest_key)
DO UPDATE SET
    highest_single_claimed = EXCLUDED.highest_single_claimed,
    max_points = EXCLUDED.max_points,
    method = EXCLUDED.method,
    calculated_at = EXCLUDED.calculated_at`)
	if err != nil {
		return fmt.Errorf("build upsert baseline query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert baseline key=%s: %w", key, err)
	}

	clearQuery, clearArgs, err := qb.DeleteFrom("operator_points").
		Where(
			qb.Eq("season_year", key.Year),
			qb.Eq("contest_key", key.Contest),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear operator points query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear operator points key=%s: %w", key, err)
	}

	for start := 0; start < len(rows); start += operatorPointsBatchSize {
		end := start + operatorPointsBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		models := make([]any, 0, end-start)
		for _, row := range rows[start:end] {
			models = append(models, operatorPointsInsertFromDomain(row))
		}
		insertQuery, insertArgs, err := qb.InsertModels("operator_points", models, "")
		if err != nil {
			return fmt.Errorf("build insert operator points query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert operator points key=%s: %w", key, err)
		}
	}
	return nil
}

func (r *ScoringRepository) ListOperatorPointsByContest(ctx context.Context, key submission.ContestKey) ([]scoring.OperatorPoints, error) {
	query, args, err := qb.Select("*").From("operator_points").
		Where(
			qb.Eq("season_year", key.Year),
			qb.Eq("contest_key", key.Contest),
		).
		OrderBy("normalized_points DESC", "member_callsign").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contest points query: %w", err)
	}
	return r.selectPoints(ctx, query, args)
}

func (r *ScoringRepository) ListOperatorPointsBySeason(ctx context.Context, year int) ([]scoring.OperatorPoints, error) {
	query, args, err := qb.Select("*").From("operator_points").
		Where(qb.Eq("season_year", year)).
		OrderBy("contest_key", "member_callsign").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season points query: %w", err)
	}
	return r.selectPoints(ctx, query, args)
}

func (r *ScoringRepository) ListOperatorPointsByMember(ctx context.Context, callsign string) ([]scoring.OperatorPoints, error) {
	query, args, err := qb.Select("*").From("operator_points").
		Where(qb.Eq("member_callsign", normalizeCallsign(callsign))).
		OrderBy("season_year DESC", "contest_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list member points query: %w", err)
	}
	return r.selectPoints(ctx, query, args)
}

func (r *ScoringRepository) ListAllOperatorPoints(ctx context.Context) ([]scoring.OperatorPoints, error) {
	query, args, err := qb.Select("*").From("operator_points").
		OrderBy("season_year DESC", "contest_key", "member_callsign").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list all points query: %w", err)
	}
	return r.selectPoints(ctx, query, args)
}

func (r *ScoringRepository) GetScoringMethod(ctx context.Context) (scoring.Method, bool, error) {
	return loadScoringMethod(ctx, r.db)
}

func loadScoringMethod(ctx context.Context, q sqlx.QueryerContext) (scoring.Method, bool, error) {
	query, args, err := qb.Select("value").From("scoring_config").
		Where(qb.Eq("key", scoring.ConfigKeyMethod)).
		ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build get scoring method query: %w", err)
	}

	var raw string
	if err := sqlx.GetContext(ctx, q, &raw, query, args...); err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get scoring method: %w", err)
	}
	method, err := scoring.ParseMethod(raw)
	if err != nil {
		return "", false, fmt.Errorf("stored scoring method: %w", err)
	}
	return method, true, nil
}

func (r *ScoringRepository) SetScoringMethod(ctx context.Context, method scoring.Method) error {
	model := scoringConfigInsertModel{
		Key:       scoring.ConfigKeyMethod,
		Value:     string(method),
		UpdatedAt: time.Now().UTC(),
	}
	query, args, err := qb.InsertModel("scoring_config", model, `ON CONFLICT (key)
DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build set scoring method query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set scoring method: %w", err)
	}
	return nil
}

// ClearAll empties baselines and points. The scoring method survives.
func (r *ScoringRepository) ClearAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE operator_points, contest_baselines"); err != nil {
		return fmt.Errorf("truncate scores: %w", err)
	}
	return nil
}

func (r *ScoringRepository) selectPoints(ctx context.Context, query string, args []any) ([]scoring.OperatorPoints, error) {
	var rows []operatorPointsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select operator points: %w", err)
	}

	out := make([]scoring.OperatorPoints, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
