package brackets

// SkeletonMatch is one slot of the generated bracket. Round and Number are
// round-local and 1-based. A first-round pair with a single occupant is a
// bye: it is resolved at generation time and its winner is already advanced.
type SkeletonMatch struct {
	Round    int
	Number   int
	Player1  *int
	Player2  *int
	IsBye    bool
	WinnerID *int
}

// NextSlot returns the match number and player slot (1 or 2) the winner of
// the given match advances to. Winners of odd-numbered matches take slot 1.
func NextSlot(matchNumber int) (next int, slot int) {
	next = (matchNumber + 1) / 2
	slot = 2
	if matchNumber%2 == 1 {
		slot = 1
	}
	return next, slot
}

// BuildSkeleton turns a seeding plan into the complete match list for every
// round. First-round byes are resolved immediately and their winners
// propagated into round two.
func BuildSkeleton(plan *Plan) []SkeletonMatch {
	totalRounds := Rounds(plan.DrawSize)

	slot := make([]*int, plan.DrawSize+1) // bracket position -> player
	for playerID, pos := range plan.Positions {
		id := playerID
		slot[pos] = &id
	}

	var matches []SkeletonMatch

	// Round 1 straight from bracket positions.
	firstRound := make([]SkeletonMatch, 0, plan.DrawSize/2)
	for i := 0; i < plan.DrawSize/2; i++ {
		m := SkeletonMatch{
			Round:   1,
			Number:  i + 1,
			Player1: slot[2*i+1],
			Player2: slot[2*i+2],
		}
		if m.Player1 == nil || m.Player2 == nil {
			m.IsBye = true
			if m.Player1 != nil {
				m.WinnerID = m.Player1
			} else {
				m.WinnerID = m.Player2
			}
		}
		firstRound = append(firstRound, m)
	}
	matches = append(matches, firstRound...)

	// Later rounds start empty and receive bye winners.
	byRound := map[int][]SkeletonMatch{1: firstRound}
	for r := 2; r <= totalRounds; r++ {
		count := plan.DrawSize >> uint(r)
		round := make([]SkeletonMatch, count)
		for i := range round {
			round[i] = SkeletonMatch{Round: r, Number: i + 1}
		}
		byRound[r] = round
	}

	for _, m := range firstRound {
		if !m.IsBye {
			continue
		}
		next, s := NextSlot(m.Number)
		target := &byRound[2][next-1]
		if s == 1 {
			target.Player1 = m.WinnerID
		} else {
			target.Player2 = m.WinnerID
		}
	}

	for r := 2; r <= totalRounds; r++ {
		matches = append(matches, byRound[r]...)
	}
	return matches
}
