package models

import "time"

// SuspensionReason is the triggering match status. Retirements never
// suspend.
type SuspensionReason string

const (
	SuspensionReasonWalkover     SuspensionReason = "walkover"
	SuspensionReasonDisqualified SuspensionReason = "disqualified"
)

// SuspensionMonths is the ban duration per reason: 2 months for a no-show or
// post-draw withdrawal, 6 for a disqualification.
func SuspensionMonths(reason SuspensionReason) int {
	if reason == SuspensionReasonDisqualified {
		return 6
	}
	return 2
}

// Suspension bans a player from entering draws while the current date falls
// in [Start, End). Created exactly once per (player, tournament, reason).
type Suspension struct {
	ID           int              `json:"id" db:"id"`
	PlayerID     int              `json:"player_id" db:"player_id"`
	TournamentID int              `json:"tournament_id" db:"tournament_id"`
	Reason       SuspensionReason `json:"reason" db:"reason"`
	Start        time.Time        `json:"start" db:"start"`
	End          time.Time        `json:"end" db:"end"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// Covers reports whether the suspension is in force at the given date.
func (s *Suspension) Covers(at time.Time) bool {
	return !at.Before(s.Start) && at.Before(s.End)
}
