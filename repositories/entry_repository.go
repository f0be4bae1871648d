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
	ErrEntryNotFound          = errors.New("entry not found")
	ErrEntryDuplicate         = errors.New("player already entered this tournament")
	ErrEntryInvalidTournament = errors.New("entry references unknown tournament")
	ErrEntryInvalidPlayer     = errors.New("entry references unknown player")
)

type EntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	GetByID(ctx context.Context, id int) (*models.Entry, error)
	ListActive(ctx context.Context, tournamentID, ageCategoryID int, sex models.Sex) ([]models.Entry, error)
	MarkWithdrawn(ctx context.Context, exec SQLExecutor, id int, kind models.WithdrawalKind, at time.Time) error
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

func (r *postgresEntryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEntryRepository) Create(ctx context.Context, e *models.Entry) error {
	query := `
		INSERT INTO entries (tournament_id, player_id, age_category_id, sex, entry_points, entry_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		e.TournamentID, e.PlayerID, e.AgeCategoryID, e.Sex, e.EntryPoints, e.EntryTime,
	).Scan(&e.ID)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "entries_tournament_id_player_id_key" {
				return ErrEntryDuplicate
			}
		case "23503":
			switch pqErr.Constraint {
			case "entries_tournament_id_fkey":
				return ErrEntryInvalidTournament
			case "entries_player_id_fkey":
				return ErrEntryInvalidPlayer
			}
		}
	}
	return err
}

func (r *postgresEntryRepository) GetByID(ctx context.Context, id int) (*models.Entry, error) {
	query := `
		SELECT id, tournament_id, player_id, age_category_id, sex,
		       entry_points, entry_time, withdrawal, withdrawn_at
		FROM entries
		WHERE id = $1`

	e := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.TournamentID, &e.PlayerID, &e.AgeCategoryID, &e.Sex,
		&e.EntryPoints, &e.EntryTime, &e.Withdrawal, &e.WithdrawnAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListActive returns the non-withdrawn entries of one draw context, oldest
// entry first.
func (r *postgresEntryRepository) ListActive(ctx context.Context, tournamentID, ageCategoryID int, sex models.Sex) ([]models.Entry, error) {
	query := `
		SELECT id, tournament_id, player_id, age_category_id, sex,
		       entry_points, entry_time, withdrawal, withdrawn_at
		FROM entries
		WHERE tournament_id = $1 AND age_category_id = $2 AND sex = $3 AND withdrawal IS NULL
		ORDER BY entry_time, id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, ageCategoryID, sex)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		var e models.Entry
		if scanErr := rows.Scan(
			&e.ID, &e.TournamentID, &e.PlayerID, &e.AgeCategoryID, &e.Sex,
			&e.EntryPoints, &e.EntryTime, &e.Withdrawal, &e.WithdrawnAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkWithdrawn is a no-op guarded update: a second withdrawal of the same
// entry affects zero rows and reports not found.
func (r *postgresEntryRepository) MarkWithdrawn(ctx context.Context, exec SQLExecutor, id int, kind models.WithdrawalKind, at time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE entries
		SET withdrawal = $1, withdrawn_at = $2
		WHERE id = $3 AND withdrawal IS NULL`,
		kind, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEntryNotFound)
}
