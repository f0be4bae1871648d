package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mhamdane/knockout-tour/models"
)

var ErrAgeCategoryNotFound = errors.New("age category not found")

type AgeCategoryRepository interface {
	List(ctx context.Context) ([]models.AgeCategory, error)
	GetByID(ctx context.Context, id int) (*models.AgeCategory, error)
}

type postgresAgeCategoryRepository struct {
	db *sql.DB
}

func NewPostgresAgeCategoryRepository(db *sql.DB) AgeCategoryRepository {
	return &postgresAgeCategoryRepository{db: db}
}

func (r *postgresAgeCategoryRepository) List(ctx context.Context) ([]models.AgeCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, label, min_age, max_age FROM age_categories ORDER BY min_age`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.AgeCategory, 0)
	for rows.Next() {
		var c models.AgeCategory
		if scanErr := rows.Scan(&c.ID, &c.Label, &c.MinAge, &c.MaxAge); scanErr != nil {
			return nil, scanErr
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresAgeCategoryRepository) GetByID(ctx context.Context, id int) (*models.AgeCategory, error) {
	c := &models.AgeCategory{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, label, min_age, max_age FROM age_categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Label, &c.MinAge, &c.MaxAge)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAgeCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}
