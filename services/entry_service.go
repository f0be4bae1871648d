package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mhamdane/knockout-tour/brackets"
	"github.com/mhamdane/knockout-tour/models"
	"github.com/mhamdane/knockout-tour/repositories"
	"github.com/mhamdane/knockout-tour/utils"
)

type EntryService interface {
	Register(ctx context.Context, input EntryInput) (*models.Entry, error)
	Withdraw(ctx context.Context, entryID int) (*models.Entry, error)
}

type EntryInput struct {
	TournamentID  int  `json:"tournament_id"`
	PlayerID      int  `json:"player_id"`
	AgeCategoryID *int `json:"age_category_id,omitempty"`
}

// WalkoverApplier is implemented by the match service. It records a walkover
// against a player in their next unplayed match of the draw, with all
// downstream effects (advancement, sanction).
type WalkoverApplier interface {
	ApplyWalkoverAgainst(ctx context.Context, drawID, playerID int) error
}

type entryService struct {
	entryRepo       repositories.EntryRepository
	tournamentRepo  repositories.TournamentRepository
	playerRepo      repositories.PlayerRepository
	ageCategoryRepo repositories.AgeCategoryRepository
	rankingRepo     repositories.RankingRepository
	drawRepo        repositories.DrawRepository
	suspensionRepo  repositories.SuspensionRepository
	txManager       repositories.TxManager
	walkovers       WalkoverApplier

	now func() time.Time
}

func NewEntryService(
	entryRepo repositories.EntryRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	ageCategoryRepo repositories.AgeCategoryRepository,
	rankingRepo repositories.RankingRepository,
	drawRepo repositories.DrawRepository,
	suspensionRepo repositories.SuspensionRepository,
	txManager repositories.TxManager,
	walkovers WalkoverApplier,
) EntryService {
	return &entryService{
		entryRepo:       entryRepo,
		tournamentRepo:  tournamentRepo,
		playerRepo:      playerRepo,
		ageCategoryRepo: ageCategoryRepo,
		rankingRepo:     rankingRepo,
		drawRepo:        drawRepo,
		suspensionRepo:  suspensionRepo,
		txManager:       txManager,
		walkovers:       walkovers,
		now:             time.Now,
	}
}

func (s *entryService) Register(ctx context.Context, input EntryInput) (*models.Entry, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	now := s.now()
	deadline := utils.EntryDeadline(utils.ISOWeek{Year: tournament.Year, Week: tournament.Week})
	if now.After(deadline) {
		return nil, ErrEntryClosed
	}

	player, err := s.playerRepo.GetByID(ctx, input.PlayerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	active, err := s.suspensionRepo.ListActiveAt(ctx, player.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check suspensions: %w", err)
	}
	if len(active) > 0 {
		return nil, ErrPlayerSuspended
	}

	categories, err := s.ageCategoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load age categories: %w", err)
	}
	required, ok := models.RequiredAgeCategory(player.BirthYear, tournament.Year, categories)
	if !ok {
		return nil, ErrNoEligibleCategory
	}
	if input.AgeCategoryID != nil && *input.AgeCategoryID != required.ID {
		return nil, ErrWrongAgeCategory
	}

	points, err := s.latestPublishedPoints(ctx, player.ID)
	if err != nil {
		return nil, err
	}

	entry := &models.Entry{
		TournamentID:  tournament.ID,
		PlayerID:      player.ID,
		AgeCategoryID: required.ID,
		Sex:           player.Sex,
		EntryPoints:   points,
		EntryTime:     now,
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrEntryDuplicate) {
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return entry, nil
}

// latestPublishedPoints snapshots the player's total from the most recent
// published ranking week. A player with no published ranking enters with 0.
func (s *entryService) latestPublishedPoints(ctx context.Context, playerID int) (int, error) {
	year, week, err := s.rankingRepo.LatestWeek(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrRankingWeekNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to resolve latest ranking week: %w", err)
	}
	points, err := s.rankingRepo.PlayerPoints(ctx, year, week, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to read ranking points: %w", err)
	}
	return points, nil
}

// Withdraw pulls a player out of a tournament. Before the draw is generated
// the entry is simply retired, with the seed snapshot recomputed if the
// player was seeded. After generation the withdrawal turns into a walkover
// in the player's next match, which also triggers the no-show sanction.
func (s *entryService) Withdraw(ctx context.Context, entryID int) (*models.Entry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	draw, err := s.drawRepo.GetForTournament(ctx, entry.TournamentID, entry.AgeCategoryID, entry.Sex)
	if err != nil && !errors.Is(err, repositories.ErrDrawNotFound) {
		return nil, fmt.Errorf("failed to load draw: %w", err)
	}

	now := s.now()
	afterDraw := draw != nil &&
		(draw.Status == models.DrawStatusGenerated || draw.Status == models.DrawStatusCompleted)

	if entry.Withdrawn() {
		// A failure between marking the entry and recording the walkover
		// leaves the withdrawal half-applied. The walkover step absorbs
		// replays, so post-generation retries run it again.
		if !afterDraw || *entry.Withdrawal != models.WithdrawalAfterDraw {
			return nil, ErrWithdrawalNotAllowed
		}
		if err := s.walkovers.ApplyWalkoverAgainst(ctx, draw.ID, entry.PlayerID); err != nil {
			return nil, fmt.Errorf("failed to apply withdrawal walkover: %w", err)
		}
		return entry, nil
	}

	if !afterDraw {
		kind := models.WithdrawalBeforeDraw
		err = s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
			if txErr := s.entryRepo.MarkWithdrawn(ctx, tx, entry.ID, kind, now); txErr != nil {
				return txErr
			}
			if draw != nil && draw.Status == models.DrawStatusClosed {
				return s.recomputeSeedsIfSeeded(ctx, tx, draw, entry)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to withdraw entry: %w", err)
		}
		entry.Withdrawal = &kind
		entry.WithdrawnAt = &now
		return entry, nil
	}

	kind := models.WithdrawalAfterDraw
	if err := s.entryRepo.MarkWithdrawn(ctx, nil, entry.ID, kind, now); err != nil {
		return nil, fmt.Errorf("failed to withdraw entry: %w", err)
	}
	entry.Withdrawal = &kind
	entry.WithdrawnAt = &now

	if err := s.walkovers.ApplyWalkoverAgainst(ctx, draw.ID, entry.PlayerID); err != nil {
		return nil, fmt.Errorf("failed to apply withdrawal walkover: %w", err)
	}
	return entry, nil
}

// recomputeSeedsIfSeeded replaces the actual seed snapshot when a currently
// seeded player withdraws between entry close and draw generation. The old
// rows stay with is_actual off as the audit trail.
func (s *entryService) recomputeSeedsIfSeeded(ctx context.Context, tx repositories.SQLExecutor, draw *models.Draw, withdrawn *models.Entry) error {
	seeds, err := s.drawRepo.ListSeeds(ctx, draw.ID, true)
	if err != nil {
		return fmt.Errorf("failed to list seeds: %w", err)
	}
	wasSeeded := false
	for _, seed := range seeds {
		if seed.PlayerID == withdrawn.PlayerID {
			wasSeeded = true
			break
		}
	}
	if !wasSeeded {
		return nil
	}

	entries, err := s.entryRepo.ListActive(ctx, draw.TournamentID, draw.AgeCategoryID, draw.Sex)
	if err != nil {
		return fmt.Errorf("failed to list active entries: %w", err)
	}
	// The withdrawal row is written in this same transaction, so the read
	// outside it may still include the player.
	remaining := entries[:0]
	for _, e := range entries {
		if e.PlayerID != withdrawn.PlayerID {
			remaining = append(remaining, e)
		}
	}

	if err := s.drawRepo.RetireSeeds(ctx, tx, draw.ID); err != nil {
		return fmt.Errorf("failed to retire seed snapshot: %w", err)
	}
	recomputed := ComputeSeeds(draw.ID, remaining, true)
	if len(recomputed) == 0 {
		return nil
	}
	if err := s.drawRepo.InsertSeeds(ctx, tx, recomputed); err != nil {
		return fmt.Errorf("failed to insert recomputed seeds: %w", err)
	}
	return nil
}

// ComputeSeeds ranks active entries by their entry-time points snapshot and
// returns the top-N seed rows for the draw. Entirely unranked fields produce
// no seeds.
func ComputeSeeds(drawID int, entries []models.Entry, actual bool) []models.Seed {
	anyPoints := false
	for _, e := range entries {
		if e.EntryPoints > 0 {
			anyPoints = true
			break
		}
	}
	if !anyPoints {
		return nil
	}

	sorted := make([]models.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EntryPoints != sorted[j].EntryPoints {
			return sorted[i].EntryPoints > sorted[j].EntryPoints
		}
		if !sorted[i].EntryTime.Equal(sorted[j].EntryTime) {
			return sorted[i].EntryTime.Before(sorted[j].EntryTime)
		}
		return sorted[i].PlayerID < sorted[j].PlayerID
	})

	count := brackets.SeedCountFor(len(sorted))
	if count > len(sorted) {
		count = len(sorted)
	}
	seeds := make([]models.Seed, 0, count)
	for i := 0; i < count; i++ {
		seeds = append(seeds, models.Seed{
			DrawID:        drawID,
			PlayerID:      sorted[i].PlayerID,
			SeedNumber:    i + 1,
			SeedingPoints: sorted[i].EntryPoints,
			IsActual:      actual,
		})
	}
	return seeds
}
