package models

import "time"

// WeeklyRankingEntry is one row of a published weekly ranking. Each
// publication produces a fresh set of rows for its (year, week); rank
// positions within a (age category, sex, year, week) partition are contiguous
// from 1, ordered by total points descending with player id ascending as the
// deterministic tie-break.
type WeeklyRankingEntry struct {
	ID            int       `json:"id" db:"id"`
	PlayerID      int       `json:"player_id" db:"player_id"`
	AgeCategoryID int       `json:"age_category_id" db:"age_category_id"`
	Sex           Sex       `json:"sex" db:"sex"`
	Year          int       `json:"year" db:"year"`
	Week          int       `json:"week" db:"week"`
	TotalPoints   int       `json:"total_points" db:"total_points"`
	RankPosition  int       `json:"rank_position" db:"rank_position"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Player *Player `json:"player,omitempty" db:"-"`
}

// RollingWeeks and BestResultsCounted define the ranking window: the best 4
// tournament results from the trailing 52 ISO weeks.
const (
	RollingWeeks       = 52
	BestResultsCounted = 4
)
