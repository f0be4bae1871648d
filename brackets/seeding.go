// Package brackets builds seeded single-elimination structures: the seeding
// plan (draw size, seed placement, byes) and the match skeleton derived from
// it. All randomness comes from an injected *rand.Rand so generation is
// reproducible in tests.
package brackets

import (
	"errors"
	"math/rand"
	"sort"
	"time"
)

var (
	ErrInsufficientPlayers = errors.New("not enough entrants for a draw (minimum 6)")
	ErrDrawSizeExceeded    = errors.New("too many entrants for a draw (maximum 64)")
)

const (
	MinEntrants = 6
	MaxEntrants = 64
)

// Entrant is one non-withdrawn entry annotated with its ranking-points
// snapshot. Points 0 means no published ranking exists for the player.
type Entrant struct {
	PlayerID  int
	Points    int
	EnteredAt time.Time
}

type SeedAssignment struct {
	PlayerID   int
	SeedNumber int
	Points     int
}

// Plan is the full output of the seeding engine: bracket size, seed list,
// position of every entrant, and who receives a first-round bye.
type Plan struct {
	DrawSize  int
	Seeds     []SeedAssignment
	Positions map[int]int // player id -> bracket position 1..DrawSize
	Byes      map[int]bool
}

// DrawSizeFor returns the smallest power of two holding n entrants, clamped
// to [8, 64].
func DrawSizeFor(n int) (int, error) {
	if n < MinEntrants {
		return 0, ErrInsufficientPlayers
	}
	if n > MaxEntrants {
		return 0, ErrDrawSizeExceeded
	}
	size := 8
	for size < n {
		size *= 2
	}
	return size, nil
}

// SeedCountFor is the step function over entrant count: 2 seeds for 6-8
// entrants, 4 for 9-16, 8 for 17-32, 16 for 33-64.
func SeedCountFor(n int) int {
	switch {
	case n < MinEntrants:
		return 0
	case n <= 8:
		return 2
	case n <= 16:
		return 4
	case n <= 32:
		return 8
	}
	return 16
}

// Rounds returns the number of rounds for a bracket size.
func Rounds(drawSize int) int {
	r := 0
	for s := drawSize; s > 1; s /= 2 {
		r++
	}
	return r
}

// BuildPlan computes seeds, positions and byes for a set of entrants.
//
// When no entrant carries any ranking points the draw is unseeded: placement
// and byes are fully random. Otherwise the top-N entrants by points become
// seeds 1..N, placed by recursive halving: seed 1 at position 1, seed 2 at
// the bottom, and each further tier distributed one per free sub-bracket of
// the tier's size, with the sub-bracket choice randomized. Byes go to seeds
// in ascending seed order first, then to random unseeded entrants.
func BuildPlan(entrants []Entrant, rng *rand.Rand) (*Plan, error) {
	n := len(entrants)
	drawSize, err := DrawSizeFor(n)
	if err != nil {
		return nil, err
	}

	sorted := make([]Entrant, n)
	copy(sorted, entrants)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		if !sorted[i].EnteredAt.Equal(sorted[j].EnteredAt) {
			return sorted[i].EnteredAt.Before(sorted[j].EnteredAt)
		}
		return sorted[i].PlayerID < sorted[j].PlayerID
	})

	seedCount := SeedCountFor(n)
	if !hasRankingData(sorted) {
		seedCount = 0
	}

	plan := &Plan{
		DrawSize:  drawSize,
		Positions: make(map[int]int, n),
		Byes:      make(map[int]bool),
	}

	for i := 0; i < seedCount; i++ {
		plan.Seeds = append(plan.Seeds, SeedAssignment{
			PlayerID:   sorted[i].PlayerID,
			SeedNumber: i + 1,
			Points:     sorted[i].Points,
		})
	}

	anchors := seedAnchors(drawSize, seedCount, rng)
	for i, seed := range plan.Seeds {
		plan.Positions[seed.PlayerID] = anchors[i]
	}

	// Byes: seeds first in seed order, then random unseeded entrants.
	byeCount := drawSize - n
	seededByes := byeCount
	if seededByes > seedCount {
		seededByes = seedCount
	}
	for i := 0; i < seededByes; i++ {
		plan.Byes[plan.Seeds[i].PlayerID] = true
	}

	unseeded := make([]Entrant, 0, n-seedCount)
	unseeded = append(unseeded, sorted[seedCount:]...)
	rng.Shuffle(len(unseeded), func(i, j int) {
		unseeded[i], unseeded[j] = unseeded[j], unseeded[i]
	})

	unseededByes := byeCount - seededByes
	for i := 0; i < unseededByes; i++ {
		plan.Byes[unseeded[i].PlayerID] = true
	}

	placeUnseeded(plan, unseeded, unseededByes, rng)
	return plan, nil
}

func hasRankingData(entrants []Entrant) bool {
	for _, e := range entrants {
		if e.Points > 0 {
			return true
		}
	}
	return false
}

// seedAnchors returns the bracket position for each seed number 1..seedCount.
//
// The bracket is halved tier by tier. A sub-bracket's anchor slot is its
// first position in the top half of the draw and its last position in the
// bottom half, which reproduces the canonical placements (1, D, 1+D/4,
// D-D/4, 1+D/8, ...). Within a tier the assignment of seeds to free
// sub-brackets is uniformly random.
func seedAnchors(drawSize, seedCount int, rng *rand.Rand) []int {
	if seedCount == 0 {
		return nil
	}
	anchors := make([]int, seedCount)
	anchors[0] = 1
	if seedCount >= 2 {
		anchors[1] = drawSize
	}

	nextSeed := 3
	for numBlocks := 4; nextSeed <= seedCount; numBlocks *= 2 {
		blockSize := drawSize / numBlocks
		occupied := make(map[int]bool, numBlocks)
		for s := 0; s < nextSeed-1; s++ {
			occupied[(anchors[s]-1)/blockSize] = true
		}
		var free []int
		for b := 0; b < numBlocks; b++ {
			if !occupied[b] {
				free = append(free, b)
			}
		}
		rng.Shuffle(len(free), func(i, j int) {
			free[i], free[j] = free[j], free[i]
		})
		for i := 0; nextSeed <= seedCount && nextSeed <= numBlocks; i++ {
			b := free[i]
			if b < numBlocks/2 {
				anchors[nextSeed-1] = b*blockSize + 1
			} else {
				anchors[nextSeed-1] = (b + 1) * blockSize
			}
			nextSeed++
		}
	}
	return anchors
}

// placeUnseeded fills the remaining bracket positions. A bye is an empty
// partner slot in a first-round pair: seeds with byes keep their partner slot
// empty, unseeded bye recipients each take a whole free pair, everyone else
// is shuffled over what is left.
func placeUnseeded(plan *Plan, unseeded []Entrant, unseededByes int, rng *rand.Rand) {
	pairCount := plan.DrawSize / 2
	pairTaken := make([]bool, pairCount) // pair has at least one occupant
	var partnerSlots []int               // open slots next to a no-bye seed

	for _, seed := range plan.Seeds {
		pos := plan.Positions[seed.PlayerID]
		pairIdx := (pos - 1) / 2
		pairTaken[pairIdx] = true
		if !plan.Byes[seed.PlayerID] {
			partner := pos + 1
			if pos%2 == 0 {
				partner = pos - 1
			}
			partnerSlots = append(partnerSlots, partner)
		}
	}

	var freePairs []int
	for i := 0; i < pairCount; i++ {
		if !pairTaken[i] {
			freePairs = append(freePairs, i)
		}
	}
	rng.Shuffle(len(freePairs), func(i, j int) {
		freePairs[i], freePairs[j] = freePairs[j], freePairs[i]
	})

	// Unseeded bye recipients were shuffled to the front by the caller.
	for i := 0; i < unseededByes; i++ {
		pairIdx := freePairs[0]
		freePairs = freePairs[1:]
		plan.Positions[unseeded[i].PlayerID] = pairIdx*2 + 1
	}

	slots := append([]int{}, partnerSlots...)
	for _, pairIdx := range freePairs {
		slots = append(slots, pairIdx*2+1, pairIdx*2+2)
	}
	rng.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})

	rest := unseeded[unseededByes:]
	for i, e := range rest {
		plan.Positions[e.PlayerID] = slots[i]
	}
}
