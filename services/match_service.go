package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mhamdane/knockout-tour/brackets"
	"github.com/mhamdane/knockout-tour/models"
	"github.com/mhamdane/knockout-tour/repositories"
	"github.com/mhamdane/knockout-tour/scoring"
	"github.com/mhamdane/knockout-tour/utils"
)

type MatchService interface {
	SubmitResult(ctx context.Context, matchID int, result scoring.Result, override bool) (*models.Match, error)
	ApplyWalkoverAgainst(ctx context.Context, drawID, playerID int) error
}

// PointsAwarder is implemented by the points service. It writes the points
// rows for a finished draw inside the caller's transaction.
type PointsAwarder interface {
	AwardDraw(ctx context.Context, exec repositories.SQLExecutor, draw *models.Draw) error
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	drawRepo       repositories.DrawRepository
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	suspensionRepo repositories.SuspensionRepository
	txManager      repositories.TxManager
	points         PointsAwarder
	broadcaster    DrawBroadcaster

	now func() time.Time

	// Serializes result submission per draw so two admins cannot interleave
	// advancement writes for the same bracket.
	locksMu sync.Mutex
	locks   map[int]*sync.Mutex
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	drawRepo repositories.DrawRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	suspensionRepo repositories.SuspensionRepository,
	txManager repositories.TxManager,
	points PointsAwarder,
	broadcaster DrawBroadcaster,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		drawRepo:       drawRepo,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		suspensionRepo: suspensionRepo,
		txManager:      txManager,
		points:         points,
		broadcaster:    broadcaster,
		now:            time.Now,
		locks:          make(map[int]*sync.Mutex),
	}
}

func (s *matchService) drawLock(drawID int) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[drawID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[drawID] = lock
	}
	return lock
}

// SubmitResult records or corrects a match result. A resubmission identical
// to the stored result is absorbed; a differing one is rejected unless the
// caller sets override, and even then only while the next round match has no
// result of its own.
func (s *matchService) SubmitResult(ctx context.Context, matchID int, result scoring.Result, override bool) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	lock := s.drawLock(match.DrawID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; another submission may have just landed.
	match, err = s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	if match.IsBye {
		return nil, ErrMatchIsBye
	}
	if match.Player1ID == nil || match.Player2ID == nil {
		return nil, ErrMatchNotReady
	}

	draw, err := s.drawRepo.GetByID(ctx, match.DrawID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draw: %w", err)
	}
	if draw.Status != models.DrawStatusGenerated && draw.Status != models.DrawStatusCompleted {
		return nil, ErrDrawNotGenerated
	}

	if err := scoring.Validate(result, *match.Player1ID, *match.Player2ID, draw.HasSuperTiebreak); err != nil {
		return nil, err
	}

	newStatus := models.StatusForOutcome(result.Outcome)
	var winnerID *int
	if result.Outcome != scoring.OutcomeCancelled {
		w := result.WinnerID
		winnerID = &w
	}
	scoreJSON, err := encodeScore(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode score: %w", err)
	}

	if match.Status.Terminal() {
		if sameResult(match, newStatus, winnerID, scoreJSON) {
			return match, nil
		}
		if match.Status == models.MatchStatusWalkover || match.Status == models.MatchStatusDisqualified {
			// Sanctions already went into the ledger; those results stand.
			return nil, ErrResultAlreadyRecorded
		}
		if !override {
			return nil, ErrResultDiffers
		}
	}

	err = s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		if match.Status.Terminal() {
			if txErr := s.retractResult(ctx, tx, match); txErr != nil {
				return txErr
			}
		}

		if txErr := s.matchRepo.UpdateResult(ctx, tx, match.ID, newStatus, winnerID, scoreJSON); txErr != nil {
			return txErr
		}

		if winnerID != nil {
			if txErr := s.advanceWinner(ctx, tx, match.DrawID, match.Round, match.MatchNumber, *winnerID); txErr != nil {
				return txErr
			}
		}

		switch result.Outcome {
		case scoring.OutcomeWalkover, scoring.OutcomeDisqualified:
			loser := match.Opponent(result.WinnerID)
			if loser == nil {
				return ErrDataIntegrity
			}
			reason := models.SuspensionReasonWalkover
			if result.Outcome == scoring.OutcomeDisqualified {
				reason = models.SuspensionReasonDisqualified
			}
			if txErr := s.sanction(ctx, tx, *loser, draw.TournamentID, reason); txErr != nil {
				return txErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply result: %w", err)
	}

	updated, err := s.matchRepo.GetByID(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload match: %w", err)
	}
	if parsed, pErr := updated.Score(); pErr == nil {
		updated.ParsedScore = parsed
	}

	if err := s.completeDrawIfFinished(ctx, draw); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastDraw(draw.ID, brackets.EventMatchUpdated, updated)
	return updated, nil
}

func encodeScore(result scoring.Result) (*string, error) {
	if result.Score.Empty() {
		return nil, nil
	}
	raw, err := json.Marshal(result.Score)
	if err != nil {
		return nil, err
	}
	encoded := string(raw)
	return &encoded, nil
}

func sameResult(match *models.Match, status models.MatchStatus, winnerID *int, scoreJSON *string) bool {
	if match.Status != status {
		return false
	}
	if (match.WinnerID == nil) != (winnerID == nil) {
		return false
	}
	if match.WinnerID != nil && *match.WinnerID != *winnerID {
		return false
	}
	if (match.ScoreJSON == nil) != (scoreJSON == nil) {
		return false
	}
	if match.ScoreJSON != nil && *match.ScoreJSON != *scoreJSON {
		return false
	}
	return true
}

// retractResult undoes a correctable result so a corrected one can be
// applied. The previous winner is pulled back out of the next round, which
// is only legal while that next match has not produced a result itself.
func (s *matchService) retractResult(ctx context.Context, tx repositories.SQLExecutor, match *models.Match) error {
	if match.WinnerID == nil {
		return nil
	}
	next, slot := brackets.NextSlot(match.MatchNumber)
	downstream, err := s.matchRepo.GetByNumber(ctx, tx, match.DrawID, match.Round+1, next)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil // final has no downstream
		}
		return err
	}
	if downstream.Status.Terminal() {
		return ErrDownstreamPlayed
	}
	if err := s.matchRepo.SetPlayerSlot(ctx, tx, match.DrawID, match.Round+1, next, slot, nil); err != nil {
		return err
	}
	if downstream.Status == models.MatchStatusScheduled {
		return s.matchRepo.UpdateStatus(ctx, tx, downstream.ID, models.MatchStatusPending)
	}
	return nil
}

// advanceWinner writes the winner into the downstream slot. When the
// downstream match is a pre-recorded walkover waiting for its opponent, the
// incoming player wins it immediately and the advancement cascades.
func (s *matchService) advanceWinner(ctx context.Context, tx repositories.SQLExecutor, drawID, round, number, winnerID int) error {
	next, slot := brackets.NextSlot(number)
	downstream, err := s.matchRepo.GetByNumber(ctx, tx, drawID, round+1, next)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil // that was the final
		}
		return err
	}

	if err := s.matchRepo.SetPlayerSlot(ctx, tx, drawID, round+1, next, slot, &winnerID); err != nil {
		return err
	}

	if downstream.Status == models.MatchStatusWalkover && downstream.WinnerID == nil {
		if err := s.matchRepo.UpdateResult(ctx, tx, downstream.ID, models.MatchStatusWalkover, &winnerID, nil); err != nil {
			return err
		}
		return s.advanceWinner(ctx, tx, drawID, round+1, next, winnerID)
	}

	other := downstream.Player1ID
	if slot == 1 {
		other = downstream.Player2ID
	}
	if other != nil && downstream.Status == models.MatchStatusPending {
		return s.matchRepo.UpdateStatus(ctx, tx, downstream.ID, models.MatchStatusScheduled)
	}
	return nil
}

// sanction writes the ledger row and flips the player to suspended. Replays
// of the same (player, tournament, reason) are absorbed.
func (s *matchService) sanction(ctx context.Context, tx repositories.SQLExecutor, playerID, tournamentID int, reason models.SuspensionReason) error {
	start := s.now()
	suspension := &models.Suspension{
		PlayerID:     playerID,
		TournamentID: tournamentID,
		Reason:       reason,
		Start:        start,
		End:          utils.AddMonths(start, models.SuspensionMonths(reason)),
	}
	err := s.suspensionRepo.Create(ctx, tx, suspension)
	if err != nil {
		if errors.Is(err, repositories.ErrSuspensionDuplicate) {
			return nil
		}
		return err
	}
	return s.playerRepo.UpdateStatus(ctx, tx, playerID, models.PlayerStatusSuspended)
}

// completeDrawIfFinished closes out the draw once no playable match is left,
// then runs the points award. Both happen after the result transaction, so
// the reads see the committed bracket.
func (s *matchService) completeDrawIfFinished(ctx context.Context, draw *models.Draw) error {
	if draw.Status == models.DrawStatusCompleted {
		return nil
	}
	unfinished, err := s.matchRepo.CountUnfinished(ctx, nil, draw.ID)
	if err != nil {
		return fmt.Errorf("failed to count unfinished matches: %w", err)
	}
	if unfinished > 0 {
		return nil
	}

	err = s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		if txErr := s.drawRepo.UpdateStatus(ctx, tx, draw.ID, models.DrawStatusCompleted); txErr != nil {
			return txErr
		}
		return s.points.AwardDraw(ctx, tx, draw)
	})
	if err != nil {
		return fmt.Errorf("failed to complete draw: %w", err)
	}
	s.broadcaster.BroadcastDraw(draw.ID, brackets.EventBracketUpdated, draw)
	return nil
}

// ApplyWalkoverAgainst records a no-show walkover in the player's next
// unresolved match. If the opponent is not known yet the match is parked as
// a winnerless walkover and resolves when the opponent arrives.
func (s *matchService) ApplyWalkoverAgainst(ctx context.Context, drawID, playerID int) error {
	lock := s.drawLock(drawID)
	lock.Lock()
	defer lock.Unlock()

	draw, err := s.drawRepo.GetByID(ctx, drawID)
	if err != nil {
		return fmt.Errorf("failed to load draw: %w", err)
	}

	matches, err := s.matchRepo.ListByDraw(ctx, drawID)
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}

	var target *models.Match
	for i := range matches {
		m := &matches[i]
		if m.Status.Terminal() || !m.HasParticipant(playerID) {
			continue
		}
		target = m
		break
	}

	err = s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		if target != nil {
			winnerID := target.Opponent(playerID)
			if txErr := s.matchRepo.UpdateResult(ctx, tx, target.ID, models.MatchStatusWalkover, winnerID, nil); txErr != nil {
				return txErr
			}
			if winnerID != nil {
				if txErr := s.advanceWinner(ctx, tx, drawID, target.Round, target.MatchNumber, *winnerID); txErr != nil {
					return txErr
				}
			}
		}
		return s.sanction(ctx, tx, playerID, draw.TournamentID, models.SuspensionReasonWalkover)
	})
	if err != nil {
		return fmt.Errorf("failed to apply walkover: %w", err)
	}

	if err := s.completeDrawIfFinished(ctx, draw); err != nil {
		return err
	}
	if target != nil {
		s.broadcaster.BroadcastDraw(drawID, brackets.EventMatchUpdated, target)
	}
	return nil
}
