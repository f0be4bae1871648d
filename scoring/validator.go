package scoring

import "fmt"

// Violation names the specific grammar rule a proposed result breaks. It is
// surfaced verbatim to the submitter.
type Violation string

const (
	ViolationUnknownOutcome       Violation = "unknown outcome"
	ViolationScoreNotAllowed      Violation = "score not allowed for outcome"
	ViolationMissingFirstSet      Violation = "missing first set"
	ViolationIncompleteMatch      Violation = "completed match requires two won sets"
	ViolationInvalidSetScore      Violation = "invalid set score"
	ViolationMissingTiebreak      Violation = "missing tiebreak"
	ViolationUnexpectedTiebreak   Violation = "unexpected tiebreak"
	ViolationInvalidTiebreak      Violation = "invalid tiebreak score"
	ViolationThirdSetRequired     Violation = "third set required"
	ViolationThirdSetNotAllowed   Violation = "third set not allowed"
	ViolationDecidingSetFormat    Violation = "wrong deciding set format"
	ViolationInvalidSuperTiebreak Violation = "invalid super tiebreak score"
	ViolationPlayAfterRetirement  Violation = "set recorded after retirement"
	ViolationNotARetirement       Violation = "retired match looks completed"
	ViolationWinnerNotParticipant Violation = "winner is not a participant"
	ViolationWinnerScoreMismatch  Violation = "winner does not match score"
)

// ValidationError reports a single grammar violation. Validation stops at the
// first violation found; the caller refreshes and resubmits.
type ValidationError struct {
	Violation Violation
	Detail    string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Violation)
	}
	return fmt.Sprintf("%s: %s", e.Violation, e.Detail)
}

func violationf(v Violation, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Violation: v, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks a proposed result against the scoring grammar for a match
// between player1ID and player2ID. hasSuperTiebreak is the draw's fixed
// deciding-set format; the validator looks it up, never infers it from the
// score shape. Returns nil or a *ValidationError.
func Validate(res Result, player1ID, player2ID int, hasSuperTiebreak bool) error {
	if !res.Outcome.Valid() {
		return violationf(ViolationUnknownOutcome, "%q", res.Outcome)
	}

	switch res.Outcome {
	case OutcomeWalkover:
		if !res.Score.Empty() {
			return violationf(ViolationScoreNotAllowed, "walkover must carry no score")
		}
		return validateWinner(res, player1ID, player2ID)
	case OutcomeCancelled:
		if !res.Score.Empty() {
			return violationf(ViolationScoreNotAllowed, "cancelled match must carry no score")
		}
		if res.WinnerID != 0 {
			return violationf(ViolationWinnerScoreMismatch, "cancelled match cannot have a winner")
		}
		return nil
	case OutcomeCompleted:
		if err := validateWinner(res, player1ID, player2ID); err != nil {
			return err
		}
		return validateCompleted(res, player1ID, hasSuperTiebreak)
	case OutcomeRetired, OutcomeDisqualified:
		if err := validateWinner(res, player1ID, player2ID); err != nil {
			return err
		}
		return validateCurtailed(res, hasSuperTiebreak)
	}
	return violationf(ViolationUnknownOutcome, "%q", res.Outcome)
}

// validateWinner checks the declared winner against the two participant
// identifiers. This runs before anything else is inspected: winner and score
// arrive as independent fields, and a winner that is not a participant is
// never coerced from the score.
func validateWinner(res Result, player1ID, player2ID int) error {
	if res.WinnerID != player1ID && res.WinnerID != player2ID {
		return violationf(ViolationWinnerNotParticipant, "winner %d not in {%d, %d}", res.WinnerID, player1ID, player2ID)
	}
	return nil
}

func validateCompleted(res Result, player1ID int, hasSuperTiebreak bool) error {
	sets := res.Score.Sets
	if len(sets) < 2 {
		return violationf(ViolationIncompleteMatch, "got %d sets", len(sets))
	}
	if len(sets) > 3 {
		return violationf(ViolationInvalidSetScore, "more than three sets")
	}
	for i, set := range sets {
		if err := validateCompletedSet(i+1, set); err != nil {
			return err
		}
	}

	split := setsAreSplit(sets[0], sets[1])
	hasThirdSet := len(sets) == 3
	hasSuperTB := res.Score.SuperTiebreak != nil

	if hasThirdSet && hasSuperTB {
		return violationf(ViolationDecidingSetFormat, "both third set and super tiebreak present")
	}
	if !split && (hasThirdSet || hasSuperTB) {
		return violationf(ViolationThirdSetNotAllowed, "first two sets were not split")
	}
	if split {
		if !hasThirdSet && !hasSuperTB {
			if hasSuperTiebreak {
				return violationf(ViolationThirdSetRequired, "super tiebreak required after split sets")
			}
			return violationf(ViolationThirdSetRequired, "third set required after split sets")
		}
		if hasSuperTiebreak && hasThirdSet {
			return violationf(ViolationDecidingSetFormat, "draw plays a super tiebreak, not a third set")
		}
		if !hasSuperTiebreak && hasSuperTB {
			return violationf(ViolationDecidingSetFormat, "draw plays a full third set, not a super tiebreak")
		}
	}
	if hasSuperTB {
		if !validSuperTiebreak(*res.Score.SuperTiebreak) {
			stb := res.Score.SuperTiebreak
			return violationf(ViolationInvalidSuperTiebreak, "%d-%d", stb.Points1, stb.Points2)
		}
	}

	// Declared winner must have won exactly two sets.
	won1, won2 := res.Score.SetsWon()
	winnerSets := won1
	if res.WinnerID != player1ID {
		winnerSets = won2
	}
	if winnerSets != 2 {
		return violationf(ViolationWinnerScoreMismatch, "declared winner won %d sets", winnerSets)
	}
	return nil
}

// validateCurtailed covers retirements and disqualifications: partial scores
// are legal, but any set that was completed must still satisfy the full
// grammar, and nothing may follow an incomplete set.
func validateCurtailed(res Result, hasSuperTiebreak bool) error {
	sets := res.Score.Sets
	if len(sets) == 0 {
		return violationf(ViolationMissingFirstSet, "match must have started")
	}
	if len(sets) > 3 {
		return violationf(ViolationInvalidSetScore, "more than three sets")
	}
	hasSuperTB := res.Score.SuperTiebreak != nil
	if len(sets) == 3 && hasSuperTB {
		return violationf(ViolationDecidingSetFormat, "both third set and super tiebreak present")
	}
	if hasSuperTB && !hasSuperTiebreak {
		return violationf(ViolationDecidingSetFormat, "draw plays a full third set, not a super tiebreak")
	}
	if len(sets) == 3 && hasSuperTiebreak {
		return violationf(ViolationDecidingSetFormat, "draw plays a super tiebreak, not a third set")
	}

	sawIncomplete := false
	completeCount := 0
	for i, set := range sets {
		if sawIncomplete {
			return violationf(ViolationPlayAfterRetirement, "set %d follows an incomplete set", i+1)
		}
		complete, err := validateCurtailedSet(i+1, set)
		if err != nil {
			return err
		}
		if complete {
			completeCount++
		} else {
			sawIncomplete = true
		}
	}

	if hasSuperTB {
		if sawIncomplete {
			return violationf(ViolationPlayAfterRetirement, "super tiebreak follows an incomplete set")
		}
		if len(sets) < 2 || !setsAreSplit(sets[0], sets[1]) {
			return violationf(ViolationThirdSetNotAllowed, "super tiebreak without split sets")
		}
		stb := *res.Score.SuperTiebreak
		if !validSuperTiebreak(stb) && !partialSuperTiebreak(stb) {
			return violationf(ViolationInvalidSuperTiebreak, "%d-%d", stb.Points1, stb.Points2)
		}
		if validSuperTiebreak(stb) {
			return violationf(ViolationNotARetirement, "deciding super tiebreak was completed")
		}
		return nil
	}

	// A curtailed match must actually be curtailed: two complete sets won by
	// the same player, or a complete deciding set, would be a completed match.
	if !sawIncomplete {
		if len(sets) == 2 && !setsAreSplit(sets[0], sets[1]) {
			return violationf(ViolationNotARetirement, "two complete sets won by the same player")
		}
		if len(sets) == 3 {
			return violationf(ViolationNotARetirement, "deciding set was completed")
		}
	}
	return nil
}

// validateCompletedSet enforces the full set grammar: games whitelist and
// tiebreak presence iff the set reads 7-6 or 6-7.
func validateCompletedSet(n int, set SetScore) error {
	if !validSetScore(set.Games1, set.Games2) {
		return violationf(ViolationInvalidSetScore, "set %d: %d-%d", n, set.Games1, set.Games2)
	}
	if requiresTiebreak(set.Games1, set.Games2) {
		if set.Tiebreak == nil {
			return violationf(ViolationMissingTiebreak, "set %d reads %d-%d", n, set.Games1, set.Games2)
		}
		if !validTiebreak(*set.Tiebreak) {
			return violationf(ViolationInvalidTiebreak, "set %d: %d-%d", n, set.Tiebreak.Points1, set.Tiebreak.Points2)
		}
		return nil
	}
	if set.Tiebreak != nil {
		return violationf(ViolationUnexpectedTiebreak, "set %d reads %d-%d", n, set.Games1, set.Games2)
	}
	return nil
}

// validateCurtailedSet accepts a complete set, a partial set, or a 6-6 set
// abandoned during the tiebreak. Reports whether the set was complete.
func validateCurtailedSet(n int, set SetScore) (bool, error) {
	if validSetScore(set.Games1, set.Games2) {
		if err := validateCompletedSet(n, set); err != nil {
			return false, err
		}
		return true, nil
	}
	if partialSetScore(set.Games1, set.Games2) {
		if set.Tiebreak != nil {
			return false, violationf(ViolationUnexpectedTiebreak, "set %d partial score %d-%d", n, set.Games1, set.Games2)
		}
		return false, nil
	}
	if set.Games1 == 6 && set.Games2 == 6 {
		// Retired during the tiebreak.
		if set.Tiebreak == nil {
			return false, violationf(ViolationMissingTiebreak, "set %d reads 6-6", n)
		}
		tb := *set.Tiebreak
		if !validTiebreak(tb) && !partialTiebreak(tb) {
			return false, violationf(ViolationInvalidTiebreak, "set %d: %d-%d", n, tb.Points1, tb.Points2)
		}
		return false, nil
	}
	return false, violationf(ViolationInvalidSetScore, "set %d: %d-%d", n, set.Games1, set.Games2)
}

// validSetScore whitelists the complete set scores: 6-0..6-4, 7-5, 7-6 and
// their mirrors.
func validSetScore(g1, g2 int) bool {
	hi, lo := g1, g2
	if hi < lo {
		hi, lo = lo, hi
	}
	switch hi {
	case 6:
		return lo >= 0 && lo <= 4
	case 7:
		return lo == 5 || lo == 6
	}
	return false
}

func requiresTiebreak(g1, g2 int) bool {
	return (g1 == 7 && g2 == 6) || (g1 == 6 && g2 == 7)
}

// validTiebreak: first to 7, win by 2, extendable indefinitely past 7-7.
func validTiebreak(tb TiebreakScore) bool {
	hi, lo := tb.Points1, tb.Points2
	if hi < lo {
		hi, lo = lo, hi
	}
	return hi >= 7 && hi-lo >= 2 && lo >= 0
}

// validSuperTiebreak: first to 10, win by 2.
func validSuperTiebreak(tb TiebreakScore) bool {
	hi, lo := tb.Points1, tb.Points2
	if hi < lo {
		hi, lo = lo, hi
	}
	return hi >= 10 && hi-lo >= 2 && lo >= 0
}

// partialSetScore is a set abandoned mid-play: games 0..6, unequal, and not
// a complete score (6-6 is handled separately via the tiebreak path).
func partialSetScore(g1, g2 int) bool {
	if g1 < 0 || g2 < 0 || g1 > 6 || g2 > 6 {
		return false
	}
	if g1 == g2 {
		return false
	}
	return !validSetScore(g1, g2)
}

func partialTiebreak(tb TiebreakScore) bool {
	if tb.Points1 < 0 || tb.Points2 < 0 || tb.Points1 == tb.Points2 {
		return false
	}
	return !validTiebreak(tb)
}

func partialSuperTiebreak(tb TiebreakScore) bool {
	if tb.Points1 < 0 || tb.Points2 < 0 || tb.Points1 == tb.Points2 {
		return false
	}
	return !validSuperTiebreak(tb)
}

func setsAreSplit(s1, s2 SetScore) bool {
	w1, w2 := s1.WonBy(), s2.WonBy()
	return w1 != 0 && w2 != 0 && w1 != w2
}
