package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mhamdane/knockout-tour/brackets"
	"github.com/mhamdane/knockout-tour/models"
	"github.com/mhamdane/knockout-tour/repositories"
)

type DrawService interface {
	Create(ctx context.Context, input DrawInput) (*models.Draw, error)
	CloseEntries(ctx context.Context, drawID int) (*models.Draw, error)
	Generate(ctx context.Context, drawID int) (*models.Draw, error)
	GetBracket(ctx context.Context, drawID int) (*models.Draw, error)
}

type DrawInput struct {
	TournamentID     int        `json:"tournament_id"`
	AgeCategoryID    int        `json:"age_category_id"`
	Sex              models.Sex `json:"sex"`
	HasSuperTiebreak bool       `json:"has_supertiebreak"`
}

// DrawBroadcaster pushes live updates to bracket subscribers.
type DrawBroadcaster interface {
	BroadcastDraw(drawID int, eventType string, payload interface{})
}

type drawService struct {
	drawRepo       repositories.DrawRepository
	entryRepo      repositories.EntryRepository
	matchRepo      repositories.MatchRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	txManager      repositories.TxManager
	broadcaster    DrawBroadcaster

	now     func() time.Time
	newRand func() *rand.Rand
}

func NewDrawService(
	drawRepo repositories.DrawRepository,
	entryRepo repositories.EntryRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	txManager repositories.TxManager,
	broadcaster DrawBroadcaster,
) DrawService {
	return &drawService{
		drawRepo:       drawRepo,
		entryRepo:      entryRepo,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		txManager:      txManager,
		broadcaster:    broadcaster,
		now:            time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (s *drawService) Create(ctx context.Context, input DrawInput) (*models.Draw, error) {
	if !input.Sex.Valid() {
		return nil, ErrValidationFailed
	}
	if _, err := s.tournamentRepo.GetByID(ctx, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	draw := &models.Draw{
		TournamentID:     input.TournamentID,
		AgeCategoryID:    input.AgeCategoryID,
		Sex:              input.Sex,
		Status:           models.DrawStatusOpen,
		HasSuperTiebreak: input.HasSuperTiebreak,
	}
	if err := s.drawRepo.Create(ctx, draw); err != nil {
		if errors.Is(err, repositories.ErrDrawDuplicate) {
			return nil, ErrDrawAlreadyGenerated
		}
		return nil, fmt.Errorf("failed to create draw: %w", err)
	}
	return draw, nil
}

// CloseEntries freezes the field and stores the seed snapshot derived from
// the entry-time points. Later pre-generation withdrawals of seeded players
// replace that snapshot.
func (s *drawService) CloseEntries(ctx context.Context, drawID int) (*models.Draw, error) {
	draw, err := s.drawRepo.GetByID(ctx, drawID)
	if err != nil {
		if errors.Is(err, repositories.ErrDrawNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load draw: %w", err)
	}
	if draw.Status != models.DrawStatusOpen {
		return nil, ErrDrawNotOpen
	}

	entries, err := s.entryRepo.ListActive(ctx, draw.TournamentID, draw.AgeCategoryID, draw.Sex)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	err = s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		if txErr := s.drawRepo.UpdateStatus(ctx, tx, draw.ID, models.DrawStatusClosed); txErr != nil {
			return txErr
		}
		seeds := ComputeSeeds(draw.ID, entries, true)
		if len(seeds) == 0 {
			return nil
		}
		return s.drawRepo.InsertSeeds(ctx, tx, seeds)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to close entries: %w", err)
	}

	draw.Status = models.DrawStatusClosed
	s.broadcaster.BroadcastDraw(draw.ID, brackets.EventSeedsUpdated, draw)
	return draw, nil
}

// Generate builds the bracket: positions, byes and every round's matches in
// a single transaction. Bye matches are resolved immediately and their
// winners placed into round two.
func (s *drawService) Generate(ctx context.Context, drawID int) (*models.Draw, error) {
	draw, err := s.drawRepo.GetByID(ctx, drawID)
	if err != nil {
		if errors.Is(err, repositories.ErrDrawNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load draw: %w", err)
	}
	switch draw.Status {
	case models.DrawStatusClosed:
	case models.DrawStatusGenerated, models.DrawStatusCompleted:
		return nil, ErrDrawAlreadyGenerated
	default:
		return nil, ErrDrawNotOpen
	}

	entries, err := s.entryRepo.ListActive(ctx, draw.TournamentID, draw.AgeCategoryID, draw.Sex)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entrants := make([]brackets.Entrant, 0, len(entries))
	for _, e := range entries {
		entrants = append(entrants, brackets.Entrant{
			PlayerID:  e.PlayerID,
			Points:    e.EntryPoints,
			EnteredAt: e.EntryTime,
		})
	}

	plan, err := brackets.BuildPlan(entrants, s.newRand())
	if err != nil {
		switch {
		case errors.Is(err, brackets.ErrInsufficientPlayers):
			// Too few entrants means this draw will never run.
			if cErr := s.drawRepo.UpdateStatus(ctx, nil, draw.ID, models.DrawStatusCancelled); cErr != nil {
				return nil, fmt.Errorf("failed to cancel draw: %w", cErr)
			}
			return nil, ErrInsufficientPlayers
		case errors.Is(err, brackets.ErrDrawSizeExceeded):
			return nil, ErrDrawSizeExceeded
		}
		return nil, fmt.Errorf("failed to build seeding plan: %w", err)
	}

	skeleton := brackets.BuildSkeleton(plan)
	now := s.now()

	err = s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		drawPlayers := make([]models.DrawPlayer, 0, len(plan.Positions))
		for playerID, pos := range plan.Positions {
			drawPlayers = append(drawPlayers, models.DrawPlayer{
				DrawID:   draw.ID,
				PlayerID: playerID,
				Position: pos,
				HasBye:   plan.Byes[playerID],
			})
		}
		if txErr := s.drawRepo.InsertDrawPlayers(ctx, tx, drawPlayers); txErr != nil {
			return txErr
		}

		// Entries may close and generate in one shot; persist the seed
		// snapshot only if close did not already do it.
		existing, txErr := s.drawRepo.ListSeeds(ctx, draw.ID, true)
		if txErr != nil {
			return txErr
		}
		if len(existing) == 0 && len(plan.Seeds) > 0 {
			seeds := make([]models.Seed, 0, len(plan.Seeds))
			for _, sa := range plan.Seeds {
				seeds = append(seeds, models.Seed{
					DrawID:        draw.ID,
					PlayerID:      sa.PlayerID,
					SeedNumber:    sa.SeedNumber,
					SeedingPoints: sa.Points,
					IsActual:      true,
				})
			}
			if txErr := s.drawRepo.InsertSeeds(ctx, tx, seeds); txErr != nil {
				return txErr
			}
		}

		matches := make([]*models.Match, 0, len(skeleton))
		for _, sm := range skeleton {
			m := &models.Match{
				DrawID:      draw.ID,
				Round:       sm.Round,
				MatchNumber: sm.Number,
				Player1ID:   sm.Player1,
				Player2ID:   sm.Player2,
				IsBye:       sm.IsBye,
				WinnerID:    sm.WinnerID,
				Status:      models.MatchStatusPending,
			}
			switch {
			case sm.IsBye:
				m.Status = models.MatchStatusCompleted
			case sm.Player1 != nil && sm.Player2 != nil:
				m.Status = models.MatchStatusScheduled
			}
			matches = append(matches, m)
		}
		if txErr := s.matchRepo.CreateBatch(ctx, tx, matches); txErr != nil {
			return txErr
		}

		return s.drawRepo.MarkGenerated(ctx, tx, draw.ID, len(entries), now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate draw: %w", err)
	}

	generated, err := s.GetBracket(ctx, draw.ID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastDraw(draw.ID, brackets.EventBracketUpdated, generated)
	return generated, nil
}

// GetBracket loads the draw with its players, seeds and matches, reading the
// four result sets in parallel.
func (s *drawService) GetBracket(ctx context.Context, drawID int) (*models.Draw, error) {
	draw, err := s.drawRepo.GetByID(ctx, drawID)
	if err != nil {
		if errors.Is(err, repositories.ErrDrawNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load draw: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tournament, gErr := s.tournamentRepo.GetByID(gctx, draw.TournamentID)
		if gErr != nil {
			return gErr
		}
		draw.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		players, gErr := s.drawRepo.ListDrawPlayers(gctx, draw.ID)
		if gErr != nil {
			return gErr
		}
		draw.DrawPlayers = players
		return nil
	})
	g.Go(func() error {
		seeds, gErr := s.drawRepo.ListSeeds(gctx, draw.ID, false)
		if gErr != nil {
			return gErr
		}
		draw.Seeds = seeds
		return nil
	})
	g.Go(func() error {
		matches, gErr := s.matchRepo.ListByDraw(gctx, draw.ID)
		if gErr != nil {
			return gErr
		}
		draw.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load bracket: %w", err)
	}

	for i := range draw.Matches {
		if parsed, pErr := draw.Matches[i].Score(); pErr == nil {
			draw.Matches[i].ParsedScore = parsed
		}
	}
	return draw, nil
}
