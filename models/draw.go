package models

import "time"

// DrawStatus mirrors the ENUM in the draws table.
type DrawStatus string

const (
	DrawStatusOpen      DrawStatus = "open"
	DrawStatusClosed    DrawStatus = "closed"
	DrawStatusGenerated DrawStatus = "generated"
	DrawStatusCompleted DrawStatus = "completed"
	DrawStatusCancelled DrawStatus = "cancelled"
)

// Draw is the bracket for one (tournament, age category, sex) combination.
// HasSuperTiebreak is fixed at draw creation and decides whether a split
// match ends with a super tie-break or a full third set. It is configuration,
// never inferred from submitted scores.
type Draw struct {
	ID               int        `json:"id" db:"id"`
	TournamentID     int        `json:"tournament_id" db:"tournament_id"`
	AgeCategoryID    int        `json:"age_category_id" db:"age_category_id"`
	Sex              Sex        `json:"sex" db:"sex"`
	Status           DrawStatus `json:"status" db:"status"`
	PlayerCount      int        `json:"player_count" db:"player_count"`
	HasSuperTiebreak bool       `json:"has_supertiebreak" db:"has_supertiebreak"`
	GeneratedAt      *time.Time `json:"generated_at,omitempty" db:"generated_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`

	// Optional linked data, populated by services, not mapped directly.
	Tournament  *Tournament  `json:"tournament,omitempty" db:"-"`
	DrawPlayers []DrawPlayer `json:"draw_players,omitempty" db:"-"`
	Seeds       []Seed       `json:"seeds,omitempty" db:"-"`
	Matches     []Match      `json:"matches,omitempty" db:"-"`
}

// DrawPlayer pins a player to a bracket position. Rows are written exactly
// once at draw generation; positions are never renumbered afterwards, even
// when a player withdraws.
type DrawPlayer struct {
	DrawID    int       `json:"draw_id" db:"draw_id"`
	PlayerID  int       `json:"player_id" db:"player_id"`
	Position  int       `json:"position" db:"position"`
	HasBye    bool      `json:"has_bye" db:"has_bye"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Seed records a seed assignment. IsActual marks a recomputed snapshot after
// a pre-draw withdrawal of a seeded player; the planned snapshot stays in
// place as the audit trail. Immutable once the draw is generated.
type Seed struct {
	DrawID        int       `json:"draw_id" db:"draw_id"`
	PlayerID      int       `json:"player_id" db:"player_id"`
	SeedNumber    int       `json:"seed_number" db:"seed_number"`
	SeedingPoints int       `json:"seeding_points" db:"seeding_points"`
	IsActual      bool      `json:"is_actual" db:"is_actual"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ValidDrawSizes are the only bracket sizes the seeding engine produces.
var ValidDrawSizes = []int{8, 16, 32, 64}

func IsValidDrawSize(n int) bool {
	for _, s := range ValidDrawSizes {
		if n == s {
			return true
		}
	}
	return false
}
