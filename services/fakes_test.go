package services

import (
	"context"
	"sort"
	"time"

	"github.com/mhamdane/knockout-tour/models"
	"github.com/mhamdane/knockout-tour/repositories"
)

// fakeTxManager runs the callback with no real transaction; the fakes below
// ignore the executor entirely.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(_ context.Context, fn func(tx repositories.SQLExecutor) error) error {
	return fn(nil)
}

type broadcastEvent struct {
	drawID    int
	eventType string
}

type fakeBroadcaster struct {
	events []broadcastEvent
}

func (f *fakeBroadcaster) BroadcastDraw(drawID int, eventType string, _ interface{}) {
	f.events = append(f.events, broadcastEvent{drawID: drawID, eventType: eventType})
}

type fakePointsAwarder struct {
	awarded []int // draw ids
}

func (f *fakePointsAwarder) AwardDraw(_ context.Context, _ repositories.SQLExecutor, draw *models.Draw) error {
	f.awarded = append(f.awarded, draw.ID)
	return nil
}

type fakeWalkoverApplier struct {
	calls   []struct{ drawID, playerID int }
	failure error // returned once, then cleared
}

func (f *fakeWalkoverApplier) ApplyWalkoverAgainst(_ context.Context, drawID, playerID int) error {
	f.calls = append(f.calls, struct{ drawID, playerID int }{drawID, playerID})
	if f.failure != nil {
		err := f.failure
		f.failure = nil
		return err
	}
	return nil
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (f *fakeMatchRepo) add(m models.Match) *models.Match {
	m.ID = f.nextID
	f.nextID++
	f.matches[m.ID] = &m
	return &m
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	return &c
}

func (f *fakeMatchRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, matches []*models.Match) error {
	for _, m := range matches {
		m.ID = f.nextID
		f.nextID++
		f.matches[m.ID] = cloneMatch(m)
	}
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (f *fakeMatchRepo) byNumber(drawID, round, number int) *models.Match {
	for _, m := range f.matches {
		if m.DrawID == drawID && m.Round == round && m.MatchNumber == number {
			return m
		}
	}
	return nil
}

func (f *fakeMatchRepo) GetByNumber(_ context.Context, _ repositories.SQLExecutor, drawID, round, number int) (*models.Match, error) {
	m := f.byNumber(drawID, round, number)
	if m == nil {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (f *fakeMatchRepo) ListByDraw(_ context.Context, drawID int) ([]models.Match, error) {
	var out []models.Match
	for _, m := range f.matches {
		if m.DrawID == drawID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out, nil
}

func (f *fakeMatchRepo) SetPlayerSlot(_ context.Context, _ repositories.SQLExecutor, drawID, round, number, slot int, playerID *int) error {
	m := f.byNumber(drawID, round, number)
	if m == nil {
		return repositories.ErrMatchNotFound
	}
	if slot == 1 {
		m.Player1ID = playerID
	} else {
		m.Player2ID = playerID
	}
	return nil
}

func (f *fakeMatchRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

func (f *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus, winnerID *int, score *string) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	m.WinnerID = winnerID
	m.ScoreJSON = score
	return nil
}

func (f *fakeMatchRepo) CountUnfinished(_ context.Context, _ repositories.SQLExecutor, drawID int) (int, error) {
	count := 0
	for _, m := range f.matches {
		if m.DrawID == drawID && !m.IsBye && !m.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

type fakeDrawRepo struct {
	draws       map[int]*models.Draw
	drawPlayers map[int][]models.DrawPlayer
	seeds       map[int][]models.Seed
}

func newFakeDrawRepo() *fakeDrawRepo {
	return &fakeDrawRepo{
		draws:       make(map[int]*models.Draw),
		drawPlayers: make(map[int][]models.DrawPlayer),
		seeds:       make(map[int][]models.Seed),
	}
}

func (f *fakeDrawRepo) Create(_ context.Context, draw *models.Draw) error {
	draw.ID = len(f.draws) + 1
	c := *draw
	f.draws[draw.ID] = &c
	return nil
}

func (f *fakeDrawRepo) GetByID(_ context.Context, id int) (*models.Draw, error) {
	d, ok := f.draws[id]
	if !ok {
		return nil, repositories.ErrDrawNotFound
	}
	c := *d
	return &c, nil
}

func (f *fakeDrawRepo) GetForTournament(_ context.Context, tournamentID, ageCategoryID int, sex models.Sex) (*models.Draw, error) {
	for _, d := range f.draws {
		if d.TournamentID == tournamentID && d.AgeCategoryID == ageCategoryID && d.Sex == sex {
			c := *d
			return &c, nil
		}
	}
	return nil, repositories.ErrDrawNotFound
}

func (f *fakeDrawRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.Draw, error) {
	var out []models.Draw
	for _, d := range f.draws {
		if d.TournamentID == tournamentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDrawRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.DrawStatus) error {
	d, ok := f.draws[id]
	if !ok {
		return repositories.ErrDrawNotFound
	}
	d.Status = status
	return nil
}

func (f *fakeDrawRepo) MarkGenerated(_ context.Context, _ repositories.SQLExecutor, id, playerCount int, at time.Time) error {
	d, ok := f.draws[id]
	if !ok {
		return repositories.ErrDrawNotFound
	}
	d.Status = models.DrawStatusGenerated
	d.PlayerCount = playerCount
	d.GeneratedAt = &at
	return nil
}

func (f *fakeDrawRepo) InsertDrawPlayers(_ context.Context, _ repositories.SQLExecutor, players []models.DrawPlayer) error {
	for _, p := range players {
		f.drawPlayers[p.DrawID] = append(f.drawPlayers[p.DrawID], p)
	}
	return nil
}

func (f *fakeDrawRepo) ListDrawPlayers(_ context.Context, drawID int) ([]models.DrawPlayer, error) {
	return f.drawPlayers[drawID], nil
}

func (f *fakeDrawRepo) InsertSeeds(_ context.Context, _ repositories.SQLExecutor, seeds []models.Seed) error {
	for _, s := range seeds {
		f.seeds[s.DrawID] = append(f.seeds[s.DrawID], s)
	}
	return nil
}

func (f *fakeDrawRepo) ListSeeds(_ context.Context, drawID int, actualOnly bool) ([]models.Seed, error) {
	var out []models.Seed
	for _, s := range f.seeds[drawID] {
		if actualOnly && !s.IsActual {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeDrawRepo) RetireSeeds(_ context.Context, _ repositories.SQLExecutor, drawID int) error {
	for i := range f.seeds[drawID] {
		f.seeds[drawID][i].IsActual = false
	}
	return nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func (f *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	t.ID = len(f.tournaments) + 1
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (f *fakeTournamentRepo) ListByWeek(_ context.Context, year, week int) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range f.tournaments {
		if t.Year == year && t.Week == week {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakePlayerRepo struct {
	players map[int]*models.Player
}

func (f *fakePlayerRepo) Create(_ context.Context, p *models.Player) error {
	p.ID = len(f.players) + 1
	f.players[p.ID] = p
	return nil
}

func (f *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakePlayerRepo) GetByIDs(_ context.Context, ids []int) (map[int]*models.Player, error) {
	out := make(map[int]*models.Player, len(ids))
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			c := *p
			out[id] = &c
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.PlayerStatus) error {
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Status = status
	return nil
}

type fakeSuspensionRepo struct {
	suspensions []models.Suspension
}

func (f *fakeSuspensionRepo) Create(_ context.Context, _ repositories.SQLExecutor, s *models.Suspension) error {
	for _, existing := range f.suspensions {
		if existing.PlayerID == s.PlayerID &&
			existing.TournamentID == s.TournamentID &&
			existing.Reason == s.Reason {
			return repositories.ErrSuspensionDuplicate
		}
	}
	s.ID = len(f.suspensions) + 1
	f.suspensions = append(f.suspensions, *s)
	return nil
}

func (f *fakeSuspensionRepo) ListActiveAt(_ context.Context, playerID int, at time.Time) ([]models.Suspension, error) {
	var out []models.Suspension
	for i := range f.suspensions {
		s := f.suspensions[i]
		if s.PlayerID == playerID && s.Covers(at) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSuspensionRepo) ListByPlayer(_ context.Context, playerID int) ([]models.Suspension, error) {
	var out []models.Suspension
	for _, s := range f.suspensions {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSuspensionRepo) SanctionedPlayers(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (map[int]bool, error) {
	out := make(map[int]bool)
	for _, s := range f.suspensions {
		if s.TournamentID == tournamentID {
			out[s.PlayerID] = true
		}
	}
	return out, nil
}

func (f *fakeSuspensionRepo) HasActiveBeyond(_ context.Context, _ repositories.SQLExecutor, playerID int, at time.Time) (bool, error) {
	for _, s := range f.suspensions {
		if s.PlayerID == playerID && s.End.After(at) {
			return true, nil
		}
	}
	return false, nil
}

type fakeEntryRepo struct {
	entries map[int]*models.Entry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[int]*models.Entry)}
}

func (f *fakeEntryRepo) Create(_ context.Context, e *models.Entry) error {
	for _, existing := range f.entries {
		if existing.TournamentID == e.TournamentID && existing.PlayerID == e.PlayerID {
			return repositories.ErrEntryDuplicate
		}
	}
	e.ID = len(f.entries) + 1
	c := *e
	f.entries[e.ID] = &c
	return nil
}

func (f *fakeEntryRepo) GetByID(_ context.Context, id int) (*models.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, repositories.ErrEntryNotFound
	}
	c := *e
	return &c, nil
}

func (f *fakeEntryRepo) ListActive(_ context.Context, tournamentID, ageCategoryID int, sex models.Sex) ([]models.Entry, error) {
	var out []models.Entry
	for _, e := range f.entries {
		if e.TournamentID == tournamentID && e.AgeCategoryID == ageCategoryID &&
			e.Sex == sex && !e.Withdrawn() {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].EntryTime.Before(out[j].EntryTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeEntryRepo) MarkWithdrawn(_ context.Context, _ repositories.SQLExecutor, id int, kind models.WithdrawalKind, at time.Time) error {
	e, ok := f.entries[id]
	if !ok {
		return repositories.ErrEntryNotFound
	}
	if e.Withdrawn() {
		return repositories.ErrEntryNotFound
	}
	e.Withdrawal = &kind
	e.WithdrawnAt = &at
	return nil
}

type fakeAgeCategoryRepo struct {
	categories []models.AgeCategory
}

func (f *fakeAgeCategoryRepo) List(_ context.Context) ([]models.AgeCategory, error) {
	return f.categories, nil
}

func (f *fakeAgeCategoryRepo) GetByID(_ context.Context, id int) (*models.AgeCategory, error) {
	for i := range f.categories {
		if f.categories[i].ID == id {
			return &f.categories[i], nil
		}
	}
	return nil, repositories.ErrAgeCategoryNotFound
}

type fakeRankingRepo struct {
	latestYear int
	latestWeek int
	points     map[int]int // player id -> points in the latest week

	replacedYear int
	replacedWeek int
	replaced     []*models.WeeklyRankingEntry
}

func (f *fakeRankingRepo) ReplaceWeek(_ context.Context, _ repositories.SQLExecutor, year, week int, entries []*models.WeeklyRankingEntry) error {
	f.replacedYear = year
	f.replacedWeek = week
	f.replaced = entries
	return nil
}

func (f *fakeRankingRepo) ListWeek(_ context.Context, _, _ int, _ repositories.RankingFilter) ([]models.WeeklyRankingEntry, error) {
	return nil, nil
}

func (f *fakeRankingRepo) LatestWeek(_ context.Context) (int, int, error) {
	if f.latestYear == 0 {
		return 0, 0, repositories.ErrRankingWeekNotFound
	}
	return f.latestYear, f.latestWeek, nil
}

func (f *fakeRankingRepo) PlayerPoints(_ context.Context, _, _, playerID int) (int, error) {
	return f.points[playerID], nil
}

type fakePointsRepo struct {
	upserted []*models.PointsRecord
	byPlayer map[int][]models.PointsRecord
	window   []repositories.PointsWindowRow
}

func (f *fakePointsRepo) UpsertBatch(_ context.Context, _ repositories.SQLExecutor, records []*models.PointsRecord) error {
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *fakePointsRepo) ListByPlayer(_ context.Context, playerID int) ([]models.PointsRecord, error) {
	return f.byPlayer[playerID], nil
}

func (f *fakePointsRepo) ListWindow(_ context.Context, _, _, _, _ int) ([]repositories.PointsWindowRow, error) {
	return f.window, nil
}

func intPtr(v int) *int { return &v }
