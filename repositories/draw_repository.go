package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/mhamdane/knockout-tour/models"
)

var (
	ErrDrawNotFound  = errors.New("draw not found")
	ErrDrawDuplicate = errors.New("draw already exists for this tournament, age category and sex")
)

type DrawRepository interface {
	Create(ctx context.Context, draw *models.Draw) error
	GetByID(ctx context.Context, id int) (*models.Draw, error)
	GetForTournament(ctx context.Context, tournamentID, ageCategoryID int, sex models.Sex) (*models.Draw, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Draw, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.DrawStatus) error
	MarkGenerated(ctx context.Context, exec SQLExecutor, id int, playerCount int, at time.Time) error
	InsertDrawPlayers(ctx context.Context, exec SQLExecutor, players []models.DrawPlayer) error
	ListDrawPlayers(ctx context.Context, drawID int) ([]models.DrawPlayer, error)
	InsertSeeds(ctx context.Context, exec SQLExecutor, seeds []models.Seed) error
	ListSeeds(ctx context.Context, drawID int, actualOnly bool) ([]models.Seed, error)
	RetireSeeds(ctx context.Context, exec SQLExecutor, drawID int) error
}

type postgresDrawRepository struct {
	db *sql.DB
}

func NewPostgresDrawRepository(db *sql.DB) DrawRepository {
	return &postgresDrawRepository{db: db}
}

func (r *postgresDrawRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresDrawRepository) Create(ctx context.Context, d *models.Draw) error {
	query := `
		INSERT INTO draws (tournament_id, age_category_id, sex, status, player_count, has_supertiebreak)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		d.TournamentID, d.AgeCategoryID, d.Sex, d.Status, d.PlayerCount, d.HasSuperTiebreak,
	).Scan(&d.ID, &d.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "draws_tournament_id_age_category_id_sex_key" {
			return ErrDrawDuplicate
		}
	}
	return err
}

func (r *postgresDrawRepository) GetByID(ctx context.Context, id int) (*models.Draw, error) {
	query := `
		SELECT id, tournament_id, age_category_id, sex, status, player_count,
		       has_supertiebreak, generated_at, created_at
		FROM draws
		WHERE id = $1`

	d := &models.Draw{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.TournamentID, &d.AgeCategoryID, &d.Sex, &d.Status, &d.PlayerCount,
		&d.HasSuperTiebreak, &d.GeneratedAt, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDrawNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *postgresDrawRepository) GetForTournament(ctx context.Context, tournamentID, ageCategoryID int, sex models.Sex) (*models.Draw, error) {
	query := `
		SELECT id, tournament_id, age_category_id, sex, status, player_count,
		       has_supertiebreak, generated_at, created_at
		FROM draws
		WHERE tournament_id = $1 AND age_category_id = $2 AND sex = $3`

	d := &models.Draw{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, ageCategoryID, sex).Scan(
		&d.ID, &d.TournamentID, &d.AgeCategoryID, &d.Sex, &d.Status, &d.PlayerCount,
		&d.HasSuperTiebreak, &d.GeneratedAt, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDrawNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *postgresDrawRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Draw, error) {
	query := `
		SELECT id, tournament_id, age_category_id, sex, status, player_count,
		       has_supertiebreak, generated_at, created_at
		FROM draws
		WHERE tournament_id = $1
		ORDER BY age_category_id, sex`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	draws := make([]models.Draw, 0)
	for rows.Next() {
		var d models.Draw
		if scanErr := rows.Scan(
			&d.ID, &d.TournamentID, &d.AgeCategoryID, &d.Sex, &d.Status, &d.PlayerCount,
			&d.HasSuperTiebreak, &d.GeneratedAt, &d.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		draws = append(draws, d)
	}
	return draws, rows.Err()
}

func (r *postgresDrawRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.DrawStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE draws SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrDrawNotFound)
}

func (r *postgresDrawRepository) MarkGenerated(ctx context.Context, exec SQLExecutor, id int, playerCount int, at time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE draws
		SET status = $1, player_count = $2, generated_at = $3
		WHERE id = $4`,
		models.DrawStatusGenerated, playerCount, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrDrawNotFound)
}

func (r *postgresDrawRepository) InsertDrawPlayers(ctx context.Context, exec SQLExecutor, players []models.DrawPlayer) error {
	executor := r.getExecutor(exec)
	for i := range players {
		err := executor.QueryRowContext(ctx, `
			INSERT INTO draw_players (draw_id, player_id, position, has_bye)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at`,
			players[i].DrawID, players[i].PlayerID, players[i].Position, players[i].HasBye,
		).Scan(&players[i].CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresDrawRepository) ListDrawPlayers(ctx context.Context, drawID int) ([]models.DrawPlayer, error) {
	query := `
		SELECT draw_id, player_id, position, has_bye, created_at
		FROM draw_players
		WHERE draw_id = $1
		ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, drawID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.DrawPlayer, 0)
	for rows.Next() {
		var dp models.DrawPlayer
		if scanErr := rows.Scan(&dp.DrawID, &dp.PlayerID, &dp.Position, &dp.HasBye, &dp.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, dp)
	}
	return players, rows.Err()
}

func (r *postgresDrawRepository) InsertSeeds(ctx context.Context, exec SQLExecutor, seeds []models.Seed) error {
	executor := r.getExecutor(exec)
	for i := range seeds {
		err := executor.QueryRowContext(ctx, `
			INSERT INTO seeds (draw_id, player_id, seed_number, seeding_points, is_actual)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`,
			seeds[i].DrawID, seeds[i].PlayerID, seeds[i].SeedNumber, seeds[i].SeedingPoints, seeds[i].IsActual,
		).Scan(&seeds[i].CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresDrawRepository) ListSeeds(ctx context.Context, drawID int, actualOnly bool) ([]models.Seed, error) {
	query := `
		SELECT draw_id, player_id, seed_number, seeding_points, is_actual, created_at
		FROM seeds
		WHERE draw_id = $1`
	if actualOnly {
		query += ` AND is_actual = TRUE`
	}
	query += ` ORDER BY is_actual DESC, seed_number`

	rows, err := r.db.QueryContext(ctx, query, drawID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seeds := make([]models.Seed, 0)
	for rows.Next() {
		var s models.Seed
		if scanErr := rows.Scan(&s.DrawID, &s.PlayerID, &s.SeedNumber, &s.SeedingPoints, &s.IsActual, &s.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		seeds = append(seeds, s)
	}
	return seeds, rows.Err()
}

// RetireSeeds flips the current actual snapshot off before a recomputed one
// is inserted. The planned rows stay as the audit trail.
func (r *postgresDrawRepository) RetireSeeds(ctx context.Context, exec SQLExecutor, drawID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`UPDATE seeds SET is_actual = FALSE WHERE draw_id = $1 AND is_actual = TRUE`, drawID)
	return err
}
