package brackets

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSlot(t *testing.T) {
	tests := []struct{ match, next, slot int }{
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 1},
		{4, 2, 2},
		{7, 4, 1},
		{8, 4, 2},
	}
	for _, tt := range tests {
		next, slot := NextSlot(tt.match)
		assert.Equal(t, tt.next, next, "match %d", tt.match)
		assert.Equal(t, tt.slot, slot, "match %d", tt.match)
	}
}

func TestBuildSkeletonShape(t *testing.T) {
	entrants := makeEntrants(13, func(i int) int { return 500 - i*5 })
	plan, err := BuildPlan(entrants, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	require.Equal(t, 16, plan.DrawSize)

	matches := BuildSkeleton(plan)
	require.Len(t, matches, 15)

	perRound := make(map[int]int)
	for _, m := range matches {
		perRound[m.Round]++
	}
	assert.Equal(t, map[int]int{1: 8, 2: 4, 3: 2, 4: 1}, perRound)
}

func TestBuildSkeletonByesResolveAndPropagate(t *testing.T) {
	entrants := makeEntrants(13, func(i int) int { return 500 - i*5 })
	plan, err := BuildPlan(entrants, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	matches := BuildSkeleton(plan)

	byRound := make(map[int][]SkeletonMatch)
	for _, m := range matches {
		byRound[m.Round] = append(byRound[m.Round], m)
	}

	byeCount := 0
	for _, m := range byRound[1] {
		if !m.IsBye {
			require.NotNil(t, m.Player1)
			require.NotNil(t, m.Player2)
			assert.Nil(t, m.WinnerID)
			continue
		}
		byeCount++
		require.NotNil(t, m.WinnerID)

		// The sole occupant is the winner, and that winner already sits
		// in the right slot of the next round.
		occupant := m.Player1
		if occupant == nil {
			occupant = m.Player2
		}
		require.NotNil(t, occupant)
		assert.Equal(t, *occupant, *m.WinnerID)

		next, slot := NextSlot(m.Number)
		target := byRound[2][next-1]
		if slot == 1 {
			require.NotNil(t, target.Player1)
			assert.Equal(t, *m.WinnerID, *target.Player1)
		} else {
			require.NotNil(t, target.Player2)
			assert.Equal(t, *m.WinnerID, *target.Player2)
		}
	}
	assert.Equal(t, 3, byeCount)

	// Rounds past the second start empty.
	for r := 3; r <= 4; r++ {
		for _, m := range byRound[r] {
			assert.Nil(t, m.Player1, "round %d match %d", r, m.Number)
			assert.Nil(t, m.Player2, "round %d match %d", r, m.Number)
			assert.False(t, m.IsBye)
		}
	}
}

func TestBuildSkeletonEveryEntrantAppearsOnce(t *testing.T) {
	entrants := makeEntrants(24, func(i int) int { return 1000 - i*10 })
	plan, err := BuildPlan(entrants, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	matches := BuildSkeleton(plan)

	seen := make(map[int]int)
	for _, m := range matches {
		if m.Round != 1 {
			continue
		}
		if m.Player1 != nil {
			seen[*m.Player1]++
		}
		if m.Player2 != nil {
			seen[*m.Player2]++
		}
	}
	require.Len(t, seen, 24)
	for playerID, count := range seen {
		assert.Equal(t, 1, count, "player %d", playerID)
	}
}
