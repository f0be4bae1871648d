package models

import "time"

type WithdrawalKind string

const (
	WithdrawalBeforeDraw WithdrawalKind = "before_draw"
	WithdrawalAfterDraw  WithdrawalKind = "after_draw"
)

// Entry is a player's registration for one draw context. EntryPoints is a
// snapshot of the player's latest published ranking points at entry time
// (0 when no ranking exists yet); it is what seeding sorts on, so it must
// never be re-read from a later ranking publication.
type Entry struct {
	ID            int             `json:"id" db:"id"`
	TournamentID  int             `json:"tournament_id" db:"tournament_id"`
	PlayerID      int             `json:"player_id" db:"player_id"`
	AgeCategoryID int             `json:"age_category_id" db:"age_category_id"`
	Sex           Sex             `json:"sex" db:"sex"`
	EntryPoints   int             `json:"entry_points" db:"entry_points"`
	EntryTime     time.Time       `json:"entry_time" db:"entry_time"`
	Withdrawal    *WithdrawalKind `json:"withdrawal,omitempty" db:"withdrawal"`
	WithdrawnAt   *time.Time      `json:"withdrawn_at,omitempty" db:"withdrawn_at"`
}

func (e *Entry) Withdrawn() bool {
	return e.Withdrawal != nil
}
