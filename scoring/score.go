// Package scoring holds the tennis score grammar: the tagged score/result
// types and the pure validator that decides whether a proposed result is
// legal for a match. Nothing in this package touches storage or state.
package scoring

import "fmt"

// Outcome tags how a match ended. It mirrors the terminal half of the match
// status ENUM; a live match has no Result at all.
type Outcome string

const (
	OutcomeCompleted    Outcome = "completed"
	OutcomeWalkover     Outcome = "walkover"
	OutcomeRetired      Outcome = "retired"
	OutcomeDisqualified Outcome = "disqualified"
	OutcomeCancelled    Outcome = "cancelled"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCompleted, OutcomeWalkover, OutcomeRetired, OutcomeDisqualified, OutcomeCancelled:
		return true
	}
	return false
}

// Played reports whether the outcome implies the match was at least started,
// i.e. score fields may legally be present.
func (o Outcome) Played() bool {
	switch o {
	case OutcomeCompleted, OutcomeRetired, OutcomeDisqualified:
		return true
	}
	return false
}

// TiebreakScore is a points pair, used both for set tiebreaks (first to 7)
// and the deciding super tiebreak (first to 10).
type TiebreakScore struct {
	Points1 int `json:"p1"`
	Points2 int `json:"p2"`
}

// SetScore is one set. Tiebreak must be present iff the games read 7-6 or
// 6-7; a retired match may additionally carry 6-6 plus a partial tiebreak.
type SetScore struct {
	Games1   int            `json:"g1"`
	Games2   int            `json:"g2"`
	Tiebreak *TiebreakScore `json:"tb,omitempty"`
}

// WonBy returns 1 or 2 for a decided set, 0 otherwise.
func (s SetScore) WonBy() int {
	switch {
	case s.Games1 > s.Games2:
		return 1
	case s.Games2 > s.Games1:
		return 2
	}
	return 0
}

// Score is the full score of a match as a tagged value: regular sets plus at
// most one of {third regular set, super tiebreak}. The deciding-set format is
// a property of the draw, not of the score, so Score never decides it.
type Score struct {
	Sets          []SetScore     `json:"sets,omitempty"`
	SuperTiebreak *TiebreakScore `json:"super_tb,omitempty"`
}

// Empty reports whether no score fields are populated at all.
func (s Score) Empty() bool {
	return len(s.Sets) == 0 && s.SuperTiebreak == nil
}

// SetsWon counts decided regular sets and the super tiebreak (which counts
// as the deciding set) per player.
func (s Score) SetsWon() (p1, p2 int) {
	for _, set := range s.Sets {
		switch set.WonBy() {
		case 1:
			p1++
		case 2:
			p2++
		}
	}
	if stb := s.SuperTiebreak; stb != nil {
		switch {
		case stb.Points1 > stb.Points2:
			p1++
		case stb.Points2 > stb.Points1:
			p2++
		}
	}
	return p1, p2
}

// Result is a proposed terminal state for a match: the outcome tag, the
// score, and the declared winner. Winner is declared independently of the
// score and the two must agree; the validator never infers the winner.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	Score    Score   `json:"score"`
	WinnerID int     `json:"winner_id"`
}

func (r Result) String() string {
	return fmt.Sprintf("%s winner=%d sets=%d", r.Outcome, r.WinnerID, len(r.Score.Sets))
}
