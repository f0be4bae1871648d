package services

import (
	"context"
	"fmt"

	"github.com/mhamdane/knockout-tour/models"
	"github.com/mhamdane/knockout-tour/repositories"
)

type PointsService interface {
	PointsAwarder
	ListByPlayer(ctx context.Context, playerID int) ([]models.PointsRecord, error)
}

type pointsService struct {
	pointsRepo     repositories.PointsRepository
	matchRepo      repositories.MatchRepository
	drawRepo       repositories.DrawRepository
	tournamentRepo repositories.TournamentRepository
	suspensionRepo repositories.SuspensionRepository
}

func NewPointsService(
	pointsRepo repositories.PointsRepository,
	matchRepo repositories.MatchRepository,
	drawRepo repositories.DrawRepository,
	tournamentRepo repositories.TournamentRepository,
	suspensionRepo repositories.SuspensionRepository,
) PointsService {
	return &pointsService{
		pointsRepo:     pointsRepo,
		matchRepo:      matchRepo,
		drawRepo:       drawRepo,
		tournamentRepo: tournamentRepo,
		suspensionRepo: suspensionRepo,
	}
}

// AwardDraw writes one points row per draw participant once the bracket is
// finished. Three rules zero the amount while keeping the stage on record:
// losing your first played match, a walkover against you, and a
// disqualification. Sanctioned players forfeit the whole tournament.
func (s *pointsService) AwardDraw(ctx context.Context, exec repositories.SQLExecutor, draw *models.Draw) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, draw.TournamentID)
	if err != nil {
		return fmt.Errorf("failed to load tournament: %w", err)
	}
	scale, ok := models.PointsForStage[tournament.Category]
	if !ok {
		return fmt.Errorf("%w: unknown tournament category %q", ErrDataIntegrity, tournament.Category)
	}

	matches, err := s.matchRepo.ListByDraw(ctx, draw.ID)
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}
	drawPlayers, err := s.drawRepo.ListDrawPlayers(ctx, draw.ID)
	if err != nil {
		return fmt.Errorf("failed to list draw players: %w", err)
	}
	sanctioned, err := s.suspensionRepo.SanctionedPlayers(ctx, exec, draw.TournamentID)
	if err != nil {
		return fmt.Errorf("failed to list sanctioned players: %w", err)
	}

	stages := computeStages(matches, drawPlayers)

	records := make([]*models.PointsRecord, 0, len(drawPlayers))
	for _, dp := range drawPlayers {
		outcome, ok := stages[dp.PlayerID]
		if !ok {
			continue
		}
		points := scale[outcome.stage]
		if outcome.zeroed || sanctioned[dp.PlayerID] {
			points = 0
		}
		records = append(records, &models.PointsRecord{
			PlayerID:      dp.PlayerID,
			TournamentID:  draw.TournamentID,
			AgeCategoryID: draw.AgeCategoryID,
			Stage:         outcome.stage,
			PointsEarned:  points,
		})
	}
	if err := s.pointsRepo.UpsertBatch(ctx, exec, records); err != nil {
		return fmt.Errorf("failed to write points records: %w", err)
	}
	return nil
}

func (s *pointsService) ListByPlayer(ctx context.Context, playerID int) ([]models.PointsRecord, error) {
	return s.pointsRepo.ListByPlayer(ctx, playerID)
}

type playerOutcome struct {
	stage  models.Stage
	zeroed bool
}

// computeStages derives every participant's final stage from the finished
// bracket. A player's stage is set by the round they exited in; byes never
// count as played matches, so a bye recipient who then loses still counts as
// losing their first match.
func computeStages(matches []models.Match, drawPlayers []models.DrawPlayer) map[int]playerOutcome {
	totalRounds := 0
	for _, m := range matches {
		if m.Round > totalRounds {
			totalRounds = m.Round
		}
	}

	wins := make(map[int]int)
	lossRound := make(map[int]int)
	exitRound := make(map[int]int)
	var finalMatch *models.Match

	for i := range matches {
		m := &matches[i]
		if m.Round == totalRounds {
			finalMatch = m
		}
		for _, pid := range []*int{m.Player1ID, m.Player2ID} {
			if pid != nil && m.Round > exitRound[*pid] {
				exitRound[*pid] = m.Round
			}
		}
		if m.IsBye || !m.Status.Terminal() || m.WinnerID == nil {
			continue
		}
		wins[*m.WinnerID]++
		if loser := m.Opponent(*m.WinnerID); loser != nil {
			lossRound[*loser] = m.Round
		}
	}

	outcomes := make(map[int]playerOutcome, len(drawPlayers))
	for _, dp := range drawPlayers {
		pid := dp.PlayerID
		if finalMatch != nil && finalMatch.WinnerID != nil && *finalMatch.WinnerID == pid {
			outcomes[pid] = playerOutcome{stage: models.StageWinner}
			continue
		}

		round, lost := lossRound[pid]
		if !lost {
			// Exited without a decided loss (cancelled match); the furthest
			// round reached sets the stage.
			round = exitRound[pid]
		}

		outcomes[pid] = playerOutcome{
			stage:  models.StageFromLossRound(round, totalRounds),
			zeroed: lost && wins[pid] == 0,
		}
	}
	return outcomes
}
