package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/mhamdane/knockout-tour/models"
)

var ErrSuspensionDuplicate = errors.New("suspension already recorded for this player, tournament and reason")

type SuspensionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, suspension *models.Suspension) error
	ListActiveAt(ctx context.Context, playerID int, at time.Time) ([]models.Suspension, error)
	ListByPlayer(ctx context.Context, playerID int) ([]models.Suspension, error)
	SanctionedPlayers(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]bool, error)
	HasActiveBeyond(ctx context.Context, exec SQLExecutor, playerID int, at time.Time) (bool, error)
}

type postgresSuspensionRepository struct {
	db *sql.DB
}

func NewPostgresSuspensionRepository(db *sql.DB) SuspensionRepository {
	return &postgresSuspensionRepository{db: db}
}

func (r *postgresSuspensionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts exactly one ledger row per (player, tournament, reason).
// A replayed sanction maps the unique violation to ErrSuspensionDuplicate so
// callers can treat it as already done.
func (r *postgresSuspensionRepository) Create(ctx context.Context, exec SQLExecutor, s *models.Suspension) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO suspensions (player_id, tournament_id, reason, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		s.PlayerID, s.TournamentID, s.Reason, s.Start, s.End,
	).Scan(&s.ID, &s.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "suspensions_player_id_tournament_id_reason_key" {
			return ErrSuspensionDuplicate
		}
	}
	return err
}

func (r *postgresSuspensionRepository) ListActiveAt(ctx context.Context, playerID int, at time.Time) ([]models.Suspension, error) {
	query := `
		SELECT id, player_id, tournament_id, reason, start_date, end_date, created_at
		FROM suspensions
		WHERE player_id = $1 AND start_date <= $2 AND end_date > $2
		ORDER BY end_date DESC`

	return r.scanList(ctx, query, playerID, at)
}

func (r *postgresSuspensionRepository) ListByPlayer(ctx context.Context, playerID int) ([]models.Suspension, error) {
	query := `
		SELECT id, player_id, tournament_id, reason, start_date, end_date, created_at
		FROM suspensions
		WHERE player_id = $1
		ORDER BY start_date DESC`

	return r.scanList(ctx, query, playerID)
}

// SanctionedPlayers returns the set of players holding any suspension that
// originated in the given tournament. The points engine zeroes their result.
func (r *postgresSuspensionRepository) SanctionedPlayers(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]bool, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT player_id FROM suspensions WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make(map[int]bool)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		players[id] = true
	}
	return players, rows.Err()
}

// HasActiveBeyond reports whether the player still has a suspension covering
// the given instant. Used when a ban from one tournament lapses to decide if
// the player status can go back to active.
func (r *postgresSuspensionRepository) HasActiveBeyond(ctx context.Context, exec SQLExecutor, playerID int, at time.Time) (bool, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM suspensions WHERE player_id = $1 AND start_date <= $2 AND end_date > $2`,
		playerID, at).Scan(&count)
	return count > 0, err
}

func (r *postgresSuspensionRepository) scanList(ctx context.Context, query string, args ...interface{}) ([]models.Suspension, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suspensions := make([]models.Suspension, 0)
	for rows.Next() {
		var s models.Suspension
		if scanErr := rows.Scan(&s.ID, &s.PlayerID, &s.TournamentID, &s.Reason, &s.Start, &s.End, &s.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		suspensions = append(suspensions, s)
	}
	return suspensions, rows.Err()
}
