package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mhamdane/knockout-tour/models"
	"github.com/mhamdane/knockout-tour/repositories"
)

type SuspensionService interface {
	ListForPlayer(ctx context.Context, playerID int) ([]models.Suspension, error)
	IsEligible(ctx context.Context, playerID int, at time.Time) (bool, error)
	ReactivateLapsed(ctx context.Context, playerID int) error
}

type suspensionService struct {
	suspensionRepo repositories.SuspensionRepository
	playerRepo     repositories.PlayerRepository
	txManager      repositories.TxManager

	now func() time.Time
}

func NewSuspensionService(
	suspensionRepo repositories.SuspensionRepository,
	playerRepo repositories.PlayerRepository,
	txManager repositories.TxManager,
) SuspensionService {
	return &suspensionService{
		suspensionRepo: suspensionRepo,
		playerRepo:     playerRepo,
		txManager:      txManager,
		now:            time.Now,
	}
}

func (s *suspensionService) ListForPlayer(ctx context.Context, playerID int) ([]models.Suspension, error) {
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return s.suspensionRepo.ListByPlayer(ctx, playerID)
}

// IsEligible reports whether the player may enter a draw at the given
// instant: no suspension window covering it.
func (s *suspensionService) IsEligible(ctx context.Context, playerID int, at time.Time) (bool, error) {
	active, err := s.suspensionRepo.ListActiveAt(ctx, playerID, at)
	if err != nil {
		return false, fmt.Errorf("failed to check suspensions: %w", err)
	}
	return len(active) == 0, nil
}

// ReactivateLapsed flips a suspended player back to active once every
// suspension window has ended. A player with a still-running ban keeps the
// suspended status.
func (s *suspensionService) ReactivateLapsed(ctx context.Context, playerID int) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load player: %w", err)
	}
	if player.Status != models.PlayerStatusSuspended {
		return nil
	}

	return s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		stillBanned, txErr := s.suspensionRepo.HasActiveBeyond(ctx, tx, playerID, s.now())
		if txErr != nil {
			return txErr
		}
		if stillBanned {
			return nil
		}
		return s.playerRepo.UpdateStatus(ctx, tx, playerID, models.PlayerStatusActive)
	})
}
