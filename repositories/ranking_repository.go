package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mhamdane/knockout-tour/models"
)

var ErrRankingWeekNotFound = errors.New("no ranking published for this week")

type RankingFilter struct {
	AgeCategoryID *int
	Sex           *models.Sex
}

type RankingRepository interface {
	ReplaceWeek(ctx context.Context, exec SQLExecutor, year, week int, entries []*models.WeeklyRankingEntry) error
	ListWeek(ctx context.Context, year, week int, filter RankingFilter) ([]models.WeeklyRankingEntry, error)
	LatestWeek(ctx context.Context) (year, week int, err error)
	PlayerPoints(ctx context.Context, year, week, playerID int) (int, error)
}

type postgresRankingRepository struct {
	db *sql.DB
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{db: db}
}

func (r *postgresRankingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// ReplaceWeek makes republication idempotent: the week's previous rows are
// dropped and the fresh set inserted in one transaction-shared executor.
func (r *postgresRankingRepository) ReplaceWeek(ctx context.Context, exec SQLExecutor, year, week int, entries []*models.WeeklyRankingEntry) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx,
		`DELETE FROM weekly_rankings WHERE year = $1 AND week = $2`, year, week); err != nil {
		return err
	}

	query := `
		INSERT INTO weekly_rankings (player_id, age_category_id, sex, year, week, total_points, rank_position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	for _, e := range entries {
		err := executor.QueryRowContext(ctx, query,
			e.PlayerID, e.AgeCategoryID, e.Sex, year, week, e.TotalPoints, e.RankPosition,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRankingRepository) ListWeek(ctx context.Context, year, week int, filter RankingFilter) ([]models.WeeklyRankingEntry, error) {
	query := `
		SELECT id, player_id, age_category_id, sex, year, week, total_points, rank_position, created_at
		FROM weekly_rankings
		WHERE year = $1 AND week = $2`

	args := []interface{}{year, week}
	argID := 3

	if filter.AgeCategoryID != nil {
		query += fmt.Sprintf(" AND age_category_id = $%d", argID)
		args = append(args, *filter.AgeCategoryID)
		argID++
	}
	if filter.Sex != nil {
		query += fmt.Sprintf(" AND sex = $%d", argID)
		args = append(args, *filter.Sex)
	}

	query += ` ORDER BY age_category_id, sex, rank_position`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.WeeklyRankingEntry, 0)
	for rows.Next() {
		var e models.WeeklyRankingEntry
		if scanErr := rows.Scan(
			&e.ID, &e.PlayerID, &e.AgeCategoryID, &e.Sex, &e.Year, &e.Week,
			&e.TotalPoints, &e.RankPosition, &e.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LatestWeek returns the most recently published (year, week).
func (r *postgresRankingRepository) LatestWeek(ctx context.Context) (int, int, error) {
	var year, week int
	err := r.db.QueryRowContext(ctx, `
		SELECT year, week FROM weekly_rankings
		ORDER BY year DESC, week DESC
		LIMIT 1`).Scan(&year, &week)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrRankingWeekNotFound
		}
		return 0, 0, err
	}
	return year, week, nil
}

// PlayerPoints returns a player's published total for a week, 0 when the
// player is unranked.
func (r *postgresRankingRepository) PlayerPoints(ctx context.Context, year, week, playerID int) (int, error) {
	var points int
	err := r.db.QueryRowContext(ctx, `
		SELECT total_points FROM weekly_rankings
		WHERE year = $1 AND week = $2 AND player_id = $3`,
		year, week, playerID).Scan(&points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return points, nil
}
