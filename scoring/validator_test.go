package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	p1 = 101
	p2 = 202
)

func set(g1, g2 int) SetScore {
	return SetScore{Games1: g1, Games2: g2}
}

func setTB(g1, g2, t1, t2 int) SetScore {
	return SetScore{Games1: g1, Games2: g2, Tiebreak: &TiebreakScore{Points1: t1, Points2: t2}}
}

func TestValidateCompleted(t *testing.T) {
	tests := []struct {
		name      string
		result    Result
		superTB   bool
		violation Violation
	}{
		{
			name: "straight sets",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 4), set(7, 5)}},
			},
		},
		{
			name: "split sets with third set",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p2,
				Score:    Score{Sets: []SetScore{set(6, 3), set(4, 6), set(2, 6)}},
			},
		},
		{
			name:    "third set and super tiebreak together",
			superTB: true,
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score: Score{
					Sets:          []SetScore{set(6, 2), set(3, 6), set(6, 3)},
					SuperTiebreak: &TiebreakScore{Points1: 10, Points2: 8},
				},
			},
			violation: ViolationDecidingSetFormat,
		},
		{
			name:    "super tiebreak deciding",
			superTB: true,
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score: Score{
					Sets:          []SetScore{set(6, 2), setTB(6, 7, 4, 7)},
					SuperTiebreak: &TiebreakScore{Points1: 10, Points2: 8},
				},
			},
		},
		{
			name: "seven six without tiebreak",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(7, 6), set(6, 4)}},
			},
			violation: ViolationMissingTiebreak,
		},
		{
			name: "tiebreak attached to six four",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{setTB(6, 4, 7, 3), set(6, 4)}},
			},
			violation: ViolationUnexpectedTiebreak,
		},
		{
			name: "six five is not a set",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 5), set(6, 4)}},
			},
			violation: ViolationInvalidSetScore,
		},
		{
			name: "tiebreak must be won by two",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{setTB(7, 6, 7, 6), set(6, 1)}},
			},
			violation: ViolationInvalidTiebreak,
		},
		{
			name: "extended tiebreak",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{setTB(7, 6, 15, 13), set(6, 1)}},
			},
		},
		{
			name: "split without deciding set",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 4), set(4, 6)}},
			},
			violation: ViolationThirdSetRequired,
		},
		{
			name: "third set after straight sets",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 4), set(6, 4), set(6, 4)}},
			},
			violation: ViolationThirdSetNotAllowed,
		},
		{
			name: "third set in super tiebreak draw",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 4), set(4, 6), set(6, 4)}},
			},
			superTB:   true,
			violation: ViolationDecidingSetFormat,
		},
		{
			name: "super tiebreak in third set draw",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score: Score{
					Sets:          []SetScore{set(6, 4), set(4, 6)},
					SuperTiebreak: &TiebreakScore{Points1: 10, Points2: 7},
				},
			},
			violation: ViolationDecidingSetFormat,
		},
		{
			name:    "short super tiebreak",
			superTB: true,
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score: Score{
					Sets:          []SetScore{set(6, 4), set(4, 6)},
					SuperTiebreak: &TiebreakScore{Points1: 10, Points2: 9},
				},
			},
			violation: ViolationInvalidSuperTiebreak,
		},
		{
			name: "winner lost the score",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p2,
				Score:    Score{Sets: []SetScore{set(6, 4), set(6, 2)}},
			},
			violation: ViolationWinnerScoreMismatch,
		},
		{
			name: "winner not in match",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: 999,
				Score:    Score{Sets: []SetScore{set(6, 4), set(6, 2)}},
			},
			violation: ViolationWinnerNotParticipant,
		},
		{
			name: "single set only",
			result: Result{
				Outcome:  OutcomeCompleted,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 4)}},
			},
			violation: ViolationIncompleteMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.result, p1, p2, tt.superTB)
			if tt.violation == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.violation, vErr.Violation)
		})
	}
}

func TestValidateCurtailed(t *testing.T) {
	tests := []struct {
		name      string
		result    Result
		superTB   bool
		violation Violation
	}{
		{
			name: "retired mid second set",
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 4), set(3, 1)}},
			},
		},
		{
			name: "retired during tiebreak",
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p2,
				Score:    Score{Sets: []SetScore{set(4, 6), setTB(6, 6, 3, 5)}},
			},
		},
		{
			name: "disqualified after one full set",
			result: Result{
				Outcome:  OutcomeDisqualified,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 0)}},
			},
		},
		{
			name: "no sets at all",
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score:    Score{},
			},
			violation: ViolationMissingFirstSet,
		},
		{
			name: "play recorded after incomplete set",
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(3, 1), set(6, 4)}},
			},
			violation: ViolationPlayAfterRetirement,
		},
		{
			name: "looks like a completed match",
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 4), set(6, 2)}},
			},
			violation: ViolationNotARetirement,
		},
		{
			name: "completed deciding set on a retirement",
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(6, 4), set(4, 6), set(6, 3)}},
			},
			violation: ViolationNotARetirement,
		},
		{
			name:    "retired during super tiebreak",
			superTB: true,
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score: Score{
					Sets:          []SetScore{set(6, 4), set(4, 6)},
					SuperTiebreak: &TiebreakScore{Points1: 5, Points2: 3},
				},
			},
		},
		{
			name:    "completed super tiebreak on a retirement",
			superTB: true,
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score: Score{
					Sets:          []SetScore{set(6, 4), set(4, 6)},
					SuperTiebreak: &TiebreakScore{Points1: 10, Points2: 5},
				},
			},
			violation: ViolationNotARetirement,
		},
		{
			name: "super tiebreak without split",
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score: Score{
					Sets:          []SetScore{set(6, 4)},
					SuperTiebreak: &TiebreakScore{Points1: 3, Points2: 1},
				},
			},
			superTB:   true,
			violation: ViolationThirdSetNotAllowed,
		},
		{
			name: "equal partial games are impossible",
			result: Result{
				Outcome:  OutcomeRetired,
				WinnerID: p1,
				Score:    Score{Sets: []SetScore{set(3, 3)}},
			},
			violation: ViolationInvalidSetScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.result, p1, p2, tt.superTB)
			if tt.violation == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.violation, vErr.Violation)
		})
	}
}

func TestValidateScoreFreeOutcomes(t *testing.T) {
	t.Run("walkover carries no score", func(t *testing.T) {
		err := Validate(Result{Outcome: OutcomeWalkover, WinnerID: p2}, p1, p2, false)
		assert.NoError(t, err)
	})

	t.Run("walkover with score is rejected", func(t *testing.T) {
		res := Result{
			Outcome:  OutcomeWalkover,
			WinnerID: p2,
			Score:    Score{Sets: []SetScore{set(6, 0)}},
		}
		var vErr *ValidationError
		require.ErrorAs(t, Validate(res, p1, p2, false), &vErr)
		assert.Equal(t, ViolationScoreNotAllowed, vErr.Violation)
	})

	t.Run("cancelled has neither score nor winner", func(t *testing.T) {
		assert.NoError(t, Validate(Result{Outcome: OutcomeCancelled}, p1, p2, false))

		var vErr *ValidationError
		require.ErrorAs(t, Validate(Result{Outcome: OutcomeCancelled, WinnerID: p1}, p1, p2, false), &vErr)
		assert.Equal(t, ViolationWinnerScoreMismatch, vErr.Violation)
	})

	t.Run("unknown outcome", func(t *testing.T) {
		var vErr *ValidationError
		require.ErrorAs(t, Validate(Result{Outcome: "abandoned", WinnerID: p1}, p1, p2, false), &vErr)
		assert.Equal(t, ViolationUnknownOutcome, vErr.Violation)
	})
}
