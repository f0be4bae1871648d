package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mhamdane/knockout-tour/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByNumber(ctx context.Context, exec SQLExecutor, drawID, round, number int) (*models.Match, error)
	ListByDraw(ctx context.Context, drawID int) ([]models.Match, error)
	SetPlayerSlot(ctx context.Context, exec SQLExecutor, drawID, round, number, slot int, playerID *int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, winnerID *int, score *string) error
	CountUnfinished(ctx context.Context, exec SQLExecutor, drawID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, draw_id, round, match_number, player1_id, player2_id, status, winner_id, is_bye, score, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.DrawID, &m.Round, &m.MatchNumber, &m.Player1ID, &m.Player2ID,
		&m.Status, &m.WinnerID, &m.IsBye, &m.ScoreJSON, &m.CreatedAt,
	)
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (draw_id, round, match_number, player1_id, player2_id, status, winner_id, is_bye, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	for _, m := range matches {
		err := executor.QueryRowContext(ctx, query,
			m.DrawID, m.Round, m.MatchNumber, m.Player1ID, m.Player2ID,
			m.Status, m.WinnerID, m.IsBye, m.ScoreJSON,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByNumber(ctx context.Context, exec SQLExecutor, drawID, round, number int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	m := &models.Match{}
	err := scanMatch(executor.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE draw_id = $1 AND round = $2 AND match_number = $3`,
		drawID, round, number), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByDraw(ctx context.Context, drawID int) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE draw_id = $1 ORDER BY round, match_number`, drawID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SetPlayerSlot writes one participant slot of a downstream match. A nil
// playerID clears the slot, which happens when a result is overridden.
func (r *postgresMatchRepository) SetPlayerSlot(ctx context.Context, exec SQLExecutor, drawID, round, number, slot int, playerID *int) error {
	executor := r.getExecutor(exec)
	column := "player1_id"
	if slot == 2 {
		column = "player2_id"
	}
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET `+column+` = $1 WHERE draw_id = $2 AND round = $3 AND match_number = $4`,
		playerID, drawID, round, number)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, winnerID *int, score *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET status = $1, winner_id = $2, score = $3 WHERE id = $4`,
		status, winnerID, score, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// CountUnfinished counts matches still waiting for a result. Byes never
// count; they are resolved at generation time.
func (r *postgresMatchRepository) CountUnfinished(ctx context.Context, exec SQLExecutor, drawID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM matches
		WHERE draw_id = $1
		  AND is_bye = FALSE
		  AND status NOT IN ($2, $3, $4, $5, $6)`,
		drawID,
		models.MatchStatusCompleted, models.MatchStatusWalkover, models.MatchStatusRetired,
		models.MatchStatusDisqualified, models.MatchStatusCancelled,
	).Scan(&count)
	return count, err
}
