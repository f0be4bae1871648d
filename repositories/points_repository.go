package repositories

import (
	"context"
	"database/sql"

	"github.com/mhamdane/knockout-tour/models"
)

// PointsWindowRow is one tournament result inside a ranking window, joined
// with the player's sex for partitioning.
type PointsWindowRow struct {
	PlayerID      int
	Sex           models.Sex
	AgeCategoryID int
	TournamentID  int
	PointsEarned  int
}

type PointsRepository interface {
	UpsertBatch(ctx context.Context, exec SQLExecutor, records []*models.PointsRecord) error
	ListByPlayer(ctx context.Context, playerID int) ([]models.PointsRecord, error)
	ListWindow(ctx context.Context, startYear, startWeek, endYear, endWeek int) ([]PointsWindowRow, error)
}

type postgresPointsRepository struct {
	db *sql.DB
}

func NewPostgresPointsRepository(db *sql.DB) PointsRepository {
	return &postgresPointsRepository{db: db}
}

func (r *postgresPointsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch writes one row per (player, tournament). Re-running the award
// for a draw overwrites the previous stage and amount instead of duplicating.
func (r *postgresPointsRepository) UpsertBatch(ctx context.Context, exec SQLExecutor, records []*models.PointsRecord) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO points_records (player_id, tournament_id, age_category_id, stage, points_earned)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id, tournament_id)
		DO UPDATE SET stage = EXCLUDED.stage, points_earned = EXCLUDED.points_earned
		RETURNING id, created_at`

	for _, rec := range records {
		err := executor.QueryRowContext(ctx, query,
			rec.PlayerID, rec.TournamentID, rec.AgeCategoryID, rec.Stage, rec.PointsEarned,
		).Scan(&rec.ID, &rec.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresPointsRepository) ListByPlayer(ctx context.Context, playerID int) ([]models.PointsRecord, error) {
	query := `
		SELECT id, player_id, tournament_id, age_category_id, stage, points_earned, created_at
		FROM points_records
		WHERE player_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.PointsRecord, 0)
	for rows.Next() {
		var rec models.PointsRecord
		if scanErr := rows.Scan(
			&rec.ID, &rec.PlayerID, &rec.TournamentID, &rec.AgeCategoryID,
			&rec.Stage, &rec.PointsEarned, &rec.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListWindow returns every result from tournaments whose ISO (year, week)
// falls in the closed range [start, end]. The range may cross a year
// boundary.
func (r *postgresPointsRepository) ListWindow(ctx context.Context, startYear, startWeek, endYear, endWeek int) ([]PointsWindowRow, error) {
	query := `
		SELECT pr.player_id, p.sex, pr.age_category_id, pr.tournament_id, pr.points_earned
		FROM points_records pr
		JOIN tournaments t ON t.id = pr.tournament_id
		JOIN players p ON p.id = pr.player_id
		WHERE (t.year > $1 OR (t.year = $1 AND t.week >= $2))
		  AND (t.year < $3 OR (t.year = $3 AND t.week <= $4))`

	rows, err := r.db.QueryContext(ctx, query, startYear, startWeek, endYear, endWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]PointsWindowRow, 0)
	for rows.Next() {
		var row PointsWindowRow
		if scanErr := rows.Scan(&row.PlayerID, &row.Sex, &row.AgeCategoryID, &row.TournamentID, &row.PointsEarned); scanErr != nil {
			return nil, scanErr
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
