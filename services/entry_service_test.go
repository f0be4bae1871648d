package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhamdane/knockout-tour/models"
)

type entryServiceFixture struct {
	service     *entryService
	entryRepo   *fakeEntryRepo
	drawRepo    *fakeDrawRepo
	suspensions *fakeSuspensionRepo
	rankingRepo *fakeRankingRepo
	walkovers   *fakeWalkoverApplier
	now         time.Time
}

// Tournament 1 runs in week 10 of 2026, so entries close Tuesday February 24
// at 10:00 UTC. The fixture clock sits a few days before that.
func newEntryFixture(t *testing.T) *entryServiceFixture {
	t.Helper()

	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

	tournamentRepo := &fakeTournamentRepo{tournaments: map[int]*models.Tournament{
		1: {ID: 1, Name: "Spring Open", Category: models.CategoryMT400, Year: 2026, Week: 10},
	}}
	playerRepo := &fakePlayerRepo{players: map[int]*models.Player{
		1: {ID: 1, Sex: models.SexMale, BirthYear: 1961, Status: models.PlayerStatusActive},
		2: {ID: 2, Sex: models.SexMale, BirthYear: 1958, Status: models.PlayerStatusActive},
		3: {ID: 3, Sex: models.SexMale, BirthYear: 2000, Status: models.PlayerStatusActive},
	}}
	ageCategoryRepo := &fakeAgeCategoryRepo{categories: []models.AgeCategory{
		{ID: 3, Label: "+60", MinAge: 60, MaxAge: 64},
		{ID: 4, Label: "+65", MinAge: 65, MaxAge: 120},
	}}

	entryRepo := newFakeEntryRepo()
	drawRepo := newFakeDrawRepo()
	suspensions := &fakeSuspensionRepo{}
	rankingRepo := &fakeRankingRepo{latestYear: 2026, latestWeek: 8, points: map[int]int{1: 150}}
	walkovers := &fakeWalkoverApplier{}

	svc := NewEntryService(
		entryRepo, tournamentRepo, playerRepo, ageCategoryRepo,
		rankingRepo, drawRepo, suspensions, fakeTxManager{}, walkovers,
	).(*entryService)
	svc.now = func() time.Time { return now }

	return &entryServiceFixture{
		service:     svc,
		entryRepo:   entryRepo,
		drawRepo:    drawRepo,
		suspensions: suspensions,
		rankingRepo: rankingRepo,
		walkovers:   walkovers,
		now:         now,
	}
}

func TestRegisterSnapshotsRankingPoints(t *testing.T) {
	f := newEntryFixture(t)

	entry, err := f.service.Register(context.Background(), EntryInput{TournamentID: 1, PlayerID: 1})
	require.NoError(t, err)

	assert.Equal(t, 4, entry.AgeCategoryID) // turns 65 during the tournament year
	assert.Equal(t, models.SexMale, entry.Sex)
	assert.Equal(t, 150, entry.EntryPoints)
	assert.Equal(t, f.now, entry.EntryTime)
}

func TestRegisterUnrankedPlayerEntersWithZero(t *testing.T) {
	f := newEntryFixture(t)
	f.rankingRepo.latestYear = 0 // nothing published yet

	entry, err := f.service.Register(context.Background(), EntryInput{TournamentID: 1, PlayerID: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, entry.EntryPoints)
}

func TestRegisterValidation(t *testing.T) {
	t.Run("after the deadline", func(t *testing.T) {
		f := newEntryFixture(t)
		f.service.now = func() time.Time {
			return time.Date(2026, 2, 24, 10, 0, 1, 0, time.UTC)
		}
		_, err := f.service.Register(context.Background(), EntryInput{TournamentID: 1, PlayerID: 1})
		assert.ErrorIs(t, err, ErrEntryClosed)
	})

	t.Run("suspended player", func(t *testing.T) {
		f := newEntryFixture(t)
		f.suspensions.suspensions = []models.Suspension{{
			ID: 1, PlayerID: 1, TournamentID: 9, Reason: models.SuspensionReasonWalkover,
			Start: f.now.AddDate(0, -1, 0), End: f.now.AddDate(0, 1, 0),
		}}
		_, err := f.service.Register(context.Background(), EntryInput{TournamentID: 1, PlayerID: 1})
		assert.ErrorIs(t, err, ErrPlayerSuspended)
	})

	t.Run("wrong age category requested", func(t *testing.T) {
		f := newEntryFixture(t)
		_, err := f.service.Register(context.Background(),
			EntryInput{TournamentID: 1, PlayerID: 1, AgeCategoryID: intPtr(3)})
		assert.ErrorIs(t, err, ErrWrongAgeCategory)
	})

	t.Run("too young for any category", func(t *testing.T) {
		f := newEntryFixture(t)
		_, err := f.service.Register(context.Background(), EntryInput{TournamentID: 1, PlayerID: 3})
		assert.ErrorIs(t, err, ErrNoEligibleCategory)
	})

	t.Run("duplicate entry", func(t *testing.T) {
		f := newEntryFixture(t)
		ctx := context.Background()
		_, err := f.service.Register(ctx, EntryInput{TournamentID: 1, PlayerID: 1})
		require.NoError(t, err)
		_, err = f.service.Register(ctx, EntryInput{TournamentID: 1, PlayerID: 1})
		assert.ErrorIs(t, err, ErrDuplicateEntry)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		f := newEntryFixture(t)
		_, err := f.service.Register(context.Background(), EntryInput{TournamentID: 99, PlayerID: 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestWithdrawBeforeDraw(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	entry, err := f.service.Register(ctx, EntryInput{TournamentID: 1, PlayerID: 1})
	require.NoError(t, err)

	withdrawn, err := f.service.Withdraw(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, withdrawn.Withdrawal)
	assert.Equal(t, models.WithdrawalBeforeDraw, *withdrawn.Withdrawal)
	assert.Equal(t, f.now, *withdrawn.WithdrawnAt)
	assert.Empty(t, f.walkovers.calls)

	_, err = f.service.Withdraw(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrWithdrawalNotAllowed)
}

func TestWithdrawAfterGenerationAppliesWalkover(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	entry, err := f.service.Register(ctx, EntryInput{TournamentID: 1, PlayerID: 1})
	require.NoError(t, err)

	f.drawRepo.draws[1] = &models.Draw{
		ID: 1, TournamentID: 1, AgeCategoryID: 4, Sex: models.SexMale,
		Status: models.DrawStatusGenerated,
	}

	withdrawn, err := f.service.Withdraw(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalAfterDraw, *withdrawn.Withdrawal)

	require.Len(t, f.walkovers.calls, 1)
	assert.Equal(t, 1, f.walkovers.calls[0].drawID)
	assert.Equal(t, 1, f.walkovers.calls[0].playerID)
}

func TestWithdrawAfterGenerationRetriesFailedWalkover(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	entry, err := f.service.Register(ctx, EntryInput{TournamentID: 1, PlayerID: 1})
	require.NoError(t, err)

	f.drawRepo.draws[1] = &models.Draw{
		ID: 1, TournamentID: 1, AgeCategoryID: 4, Sex: models.SexMale,
		Status: models.DrawStatusGenerated,
	}

	f.walkovers.failure = assert.AnError
	_, err = f.service.Withdraw(ctx, entry.ID)
	require.Error(t, err)

	// The entry is already marked withdrawn; the retry must still reach the
	// walkover step instead of bouncing off the withdrawn state.
	stored, err := f.entryRepo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Withdrawn())

	withdrawn, err := f.service.Withdraw(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalAfterDraw, *withdrawn.Withdrawal)
	assert.Len(t, f.walkovers.calls, 2)
}

func TestWithdrawSeededPlayerRecomputesSnapshot(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	// Seven entries in the +65 men's field; players 1 to 3 carry points.
	base := f.now.Add(-time.Hour)
	points := map[int]int{1: 150, 2: 100, 3: 50}
	entryIDs := make(map[int]int)
	for pid := 1; pid <= 7; pid++ {
		e := &models.Entry{
			TournamentID: 1, PlayerID: pid, AgeCategoryID: 4, Sex: models.SexMale,
			EntryPoints: points[pid], EntryTime: base.Add(time.Duration(pid) * time.Minute),
		}
		require.NoError(t, f.entryRepo.Create(ctx, e))
		entryIDs[pid] = e.ID
	}

	f.drawRepo.draws[1] = &models.Draw{
		ID: 1, TournamentID: 1, AgeCategoryID: 4, Sex: models.SexMale,
		Status: models.DrawStatusClosed,
	}
	f.drawRepo.seeds[1] = []models.Seed{
		{DrawID: 1, PlayerID: 1, SeedNumber: 1, SeedingPoints: 150, IsActual: true},
		{DrawID: 1, PlayerID: 2, SeedNumber: 2, SeedingPoints: 100, IsActual: true},
	}

	_, err := f.service.Withdraw(ctx, entryIDs[1])
	require.NoError(t, err)

	actual, err := f.drawRepo.ListSeeds(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, actual, 2)
	assert.Equal(t, 2, actual[0].PlayerID)
	assert.Equal(t, 1, actual[0].SeedNumber)
	assert.Equal(t, 3, actual[1].PlayerID)
	assert.Equal(t, 2, actual[1].SeedNumber)
}

func TestWithdrawUnseededPlayerKeepsSnapshot(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	e := &models.Entry{
		TournamentID: 1, PlayerID: 5, AgeCategoryID: 4, Sex: models.SexMale,
		EntryTime: f.now.Add(-time.Hour),
	}
	require.NoError(t, f.entryRepo.Create(ctx, e))

	f.drawRepo.draws[1] = &models.Draw{
		ID: 1, TournamentID: 1, AgeCategoryID: 4, Sex: models.SexMale,
		Status: models.DrawStatusClosed,
	}
	f.drawRepo.seeds[1] = []models.Seed{
		{DrawID: 1, PlayerID: 1, SeedNumber: 1, SeedingPoints: 150, IsActual: true},
	}

	_, err := f.service.Withdraw(ctx, e.ID)
	require.NoError(t, err)

	actual, err := f.drawRepo.ListSeeds(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, actual, 1)
	assert.Equal(t, 1, actual[0].PlayerID)
}

func TestComputeSeeds(t *testing.T) {
	base := time.Date(2026, 2, 18, 9, 0, 0, 0, time.UTC)
	entry := func(playerID, points int, offset time.Duration) models.Entry {
		return models.Entry{PlayerID: playerID, EntryPoints: points, EntryTime: base.Add(offset)}
	}

	t.Run("top entries by points", func(t *testing.T) {
		entries := []models.Entry{
			entry(1, 40, 0), entry(2, 100, 0), entry(3, 0, 0),
			entry(4, 60, 0), entry(5, 0, 0), entry(6, 0, 0),
			entry(7, 0, 0), entry(8, 0, 0), entry(9, 0, 0),
		}
		seeds := ComputeSeeds(7, entries, true)
		require.Len(t, seeds, 4) // nine entrants take four seeds
		assert.Equal(t, 2, seeds[0].PlayerID)
		assert.Equal(t, 4, seeds[1].PlayerID)
		assert.Equal(t, 1, seeds[2].PlayerID)
		for i, s := range seeds {
			assert.Equal(t, 7, s.DrawID)
			assert.Equal(t, i+1, s.SeedNumber)
			assert.True(t, s.IsActual)
		}
	})

	t.Run("entry time breaks point ties", func(t *testing.T) {
		entries := []models.Entry{
			entry(1, 100, time.Hour), entry(2, 100, 0), entry(3, 0, 0),
			entry(4, 0, 0), entry(5, 0, 0), entry(6, 0, 0),
		}
		seeds := ComputeSeeds(1, entries, false)
		require.Len(t, seeds, 2)
		assert.Equal(t, 2, seeds[0].PlayerID)
		assert.Equal(t, 1, seeds[1].PlayerID)
		assert.False(t, seeds[0].IsActual)
	})

	t.Run("no ranking data means no seeds", func(t *testing.T) {
		entries := []models.Entry{
			entry(1, 0, 0), entry(2, 0, 0), entry(3, 0, 0),
			entry(4, 0, 0), entry(5, 0, 0), entry(6, 0, 0),
		}
		assert.Nil(t, ComputeSeeds(1, entries, true))
	})
}
