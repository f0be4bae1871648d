package models

import "time"

// TournamentCategory decides the points scale for a tournament.
type TournamentCategory string

const (
	CategoryMT100  TournamentCategory = "MT100"
	CategoryMT200  TournamentCategory = "MT200"
	CategoryMT400  TournamentCategory = "MT400"
	CategoryMT700  TournamentCategory = "MT700"
	CategoryMT1000 TournamentCategory = "MT1000"
)

func (c TournamentCategory) Valid() bool {
	switch c {
	case CategoryMT100, CategoryMT200, CategoryMT400, CategoryMT700, CategoryMT1000:
		return true
	}
	return false
}

// Tournament runs Monday..Sunday of one ISO week. Year and Week are the ISO
// year/week of that range and drive the entry deadline, draw publication and
// the ranking window.
type Tournament struct {
	ID        int                `json:"id" db:"id"`
	Name      string             `json:"name" db:"name"`
	Category  TournamentCategory `json:"category" db:"category"`
	Surface   string             `json:"surface" db:"surface"`
	StartDate time.Time          `json:"start_date" db:"start_date"`
	EndDate   time.Time          `json:"end_date" db:"end_date"`
	Year      int                `json:"year" db:"year"`
	Week      int                `json:"week" db:"week"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}
