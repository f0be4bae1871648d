package models

import (
	"encoding/json"
	"time"

	"github.com/mhamdane/knockout-tour/scoring"
)

// MatchStatus mirrors the ENUM in the matches table. Pending matches wait on
// a prior round's winner; scheduled matches have both slots filled; the rest
// are terminal.
type MatchStatus string

const (
	MatchStatusPending      MatchStatus = "pending"
	MatchStatusScheduled    MatchStatus = "scheduled"
	MatchStatusCompleted    MatchStatus = "completed"
	MatchStatusWalkover     MatchStatus = "walkover"
	MatchStatusRetired      MatchStatus = "retired"
	MatchStatusDisqualified MatchStatus = "disqualified"
	MatchStatusCancelled    MatchStatus = "cancelled"
)

func (s MatchStatus) Terminal() bool {
	switch s {
	case MatchStatusCompleted, MatchStatusWalkover, MatchStatusRetired,
		MatchStatusDisqualified, MatchStatusCancelled:
		return true
	}
	return false
}

// StatusForOutcome maps a validated result outcome to the match status.
func StatusForOutcome(o scoring.Outcome) MatchStatus {
	switch o {
	case scoring.OutcomeCompleted:
		return MatchStatusCompleted
	case scoring.OutcomeWalkover:
		return MatchStatusWalkover
	case scoring.OutcomeRetired:
		return MatchStatusRetired
	case scoring.OutcomeDisqualified:
		return MatchStatusDisqualified
	case scoring.OutcomeCancelled:
		return MatchStatusCancelled
	}
	return MatchStatusScheduled
}

// Match is one bracket slot pair. Round is 1-based from the first round,
// MatchNumber is 1-based within the round; match N of round R feeds slot
// (N odd -> 1, N even -> 2) of match ceil(N/2) in round R+1.
//
// The score lives in one JSON column as a scoring.Score value rather than a
// row of nullable per-set columns, so an illegal shape (tiebreak without a
// 7-6 set, both deciding formats at once) cannot be half-persisted.
type Match struct {
	ID          int         `json:"id" db:"id"`
	DrawID      int         `json:"draw_id" db:"draw_id"`
	Round       int         `json:"round" db:"round"`
	MatchNumber int         `json:"match_number" db:"match_number"`
	Player1ID   *int        `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID   *int        `json:"player2_id,omitempty" db:"player2_id"`
	Status      MatchStatus `json:"status" db:"status"`
	WinnerID    *int        `json:"winner_id,omitempty" db:"winner_id"`
	IsBye       bool        `json:"is_bye" db:"is_bye"`
	ScoreJSON   *string     `json:"-" db:"score"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`

	// Parsed score, populated from ScoreJSON by Score(), serialized back by
	// SetScore. Not mapped directly.
	ParsedScore *scoring.Score `json:"score,omitempty" db:"-"`
}

// Score unmarshals the stored score, if any.
func (m *Match) Score() (*scoring.Score, error) {
	if m.ScoreJSON == nil || *m.ScoreJSON == "" {
		return nil, nil
	}
	var s scoring.Score
	if err := json.Unmarshal([]byte(*m.ScoreJSON), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetScore serializes a score into the stored column and the parsed field.
func (m *Match) SetScore(s scoring.Score) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	encoded := string(raw)
	m.ScoreJSON = &encoded
	m.ParsedScore = &s
	return nil
}

// HasParticipant reports whether playerID occupies one of the two slots.
func (m *Match) HasParticipant(playerID int) bool {
	return (m.Player1ID != nil && *m.Player1ID == playerID) ||
		(m.Player2ID != nil && *m.Player2ID == playerID)
}

// Opponent returns the other participant, when both slots are filled.
func (m *Match) Opponent(playerID int) *int {
	switch {
	case m.Player1ID != nil && *m.Player1ID == playerID:
		return m.Player2ID
	case m.Player2ID != nil && *m.Player2ID == playerID:
		return m.Player1ID
	}
	return nil
}
