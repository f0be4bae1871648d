package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mhamdane/knockout-tour/models"
	"github.com/mhamdane/knockout-tour/repositories"
	"github.com/mhamdane/knockout-tour/storage"
	"github.com/mhamdane/knockout-tour/utils"
)

type RankingService interface {
	PublishWeekly(ctx context.Context) ([]models.WeeklyRankingEntry, utils.ISOWeek, error)
	GetWeekly(ctx context.Context, week utils.ISOWeek, filter repositories.RankingFilter) ([]models.WeeklyRankingEntry, error)
	GetLatest(ctx context.Context, filter repositories.RankingFilter) ([]models.WeeklyRankingEntry, utils.ISOWeek, error)
}

type rankingService struct {
	rankingRepo repositories.RankingRepository
	pointsRepo  repositories.PointsRepository
	playerRepo  repositories.PlayerRepository
	txManager   repositories.TxManager
	uploader    storage.FileUploader
	logger      *slog.Logger

	now func() time.Time
}

func NewRankingService(
	rankingRepo repositories.RankingRepository,
	pointsRepo repositories.PointsRepository,
	playerRepo repositories.PlayerRepository,
	txManager repositories.TxManager,
	uploader storage.FileUploader,
	logger *slog.Logger,
) RankingService {
	return &rankingService{
		rankingRepo: rankingRepo,
		pointsRepo:  pointsRepo,
		playerRepo:  playerRepo,
		txManager:   txManager,
		uploader:    uploader,
		logger:      logger,
		now:         time.Now,
	}
}

// PublishWeekly computes the ranking for the current ISO week from the
// trailing 52 finished weeks and replaces that week's rows. Republication is
// safe: the week is rebuilt from scratch each time.
func (s *rankingService) PublishWeekly(ctx context.Context) ([]models.WeeklyRankingEntry, utils.ISOWeek, error) {
	week := utils.ISOWeekOf(s.now())
	start := week.AddWeeks(-models.RollingWeeks)
	end := week.AddWeeks(-1)

	rows, err := s.pointsRepo.ListWindow(ctx, start.Year, start.Week, end.Year, end.Week)
	if err != nil {
		return nil, week, fmt.Errorf("failed to read points window: %w", err)
	}

	entries := computeRanking(rows, week)

	err = s.txManager.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		return s.rankingRepo.ReplaceWeek(ctx, tx, week.Year, week.Week, entries)
	})
	if err != nil {
		return nil, week, fmt.Errorf("failed to publish ranking: %w", err)
	}

	s.archiveSnapshot(ctx, week, entries)

	published := make([]models.WeeklyRankingEntry, len(entries))
	for i, e := range entries {
		published[i] = *e
	}
	return published, week, nil
}

// archiveSnapshot stores the published week as a JSON object. Failures are
// logged, never surfaced: the database rows are the source of truth.
func (s *rankingService) archiveSnapshot(ctx context.Context, week utils.ISOWeek, entries []*models.WeeklyRankingEntry) {
	if s.uploader == nil {
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		s.logger.Error("ranking snapshot marshal failed", slog.Any("error", err))
		return
	}
	key := fmt.Sprintf("rankings/%d/week-%02d.json", week.Year, week.Week)
	if _, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		s.logger.Error("ranking snapshot upload failed",
			slog.String("key", key),
			slog.Any("error", err))
		return
	}
	s.logger.Info("ranking snapshot archived", slog.String("key", key))
}

func (s *rankingService) GetWeekly(ctx context.Context, week utils.ISOWeek, filter repositories.RankingFilter) ([]models.WeeklyRankingEntry, error) {
	entries, err := s.rankingRepo.ListWeek(ctx, week.Year, week.Week, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranking: %w", err)
	}
	if err := s.attachPlayers(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *rankingService) GetLatest(ctx context.Context, filter repositories.RankingFilter) ([]models.WeeklyRankingEntry, utils.ISOWeek, error) {
	year, weekNum, err := s.rankingRepo.LatestWeek(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrRankingWeekNotFound) {
			return nil, utils.ISOWeek{}, ErrRankingNotPublished
		}
		return nil, utils.ISOWeek{}, fmt.Errorf("failed to resolve latest ranking week: %w", err)
	}
	week := utils.ISOWeek{Year: year, Week: weekNum}
	entries, err := s.GetWeekly(ctx, week, filter)
	return entries, week, err
}

func (s *rankingService) attachPlayers(ctx context.Context, entries []models.WeeklyRankingEntry) error {
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PlayerID)
	}
	players, err := s.playerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}
	for i := range entries {
		entries[i].Player = players[entries[i].PlayerID]
	}
	return nil
}

type partitionKey struct {
	ageCategoryID int
	sex           models.Sex
}

// computeRanking sums each player's best results (at most BestResultsCounted
// tournaments) and ranks players inside their (age category, sex) partition,
// total descending with player id as the deterministic tie-break. Rank
// positions are contiguous from 1.
func computeRanking(rows []repositories.PointsWindowRow, week utils.ISOWeek) []*models.WeeklyRankingEntry {
	type playerResults struct {
		key     partitionKey
		results []int
	}
	byPlayer := make(map[partitionKey]map[int]*playerResults)

	for _, row := range rows {
		key := partitionKey{ageCategoryID: row.AgeCategoryID, sex: row.Sex}
		if byPlayer[key] == nil {
			byPlayer[key] = make(map[int]*playerResults)
		}
		pr, ok := byPlayer[key][row.PlayerID]
		if !ok {
			pr = &playerResults{key: key}
			byPlayer[key][row.PlayerID] = pr
		}
		pr.results = append(pr.results, row.PointsEarned)
	}

	var entries []*models.WeeklyRankingEntry
	for key, players := range byPlayer {
		partition := make([]*models.WeeklyRankingEntry, 0, len(players))
		for playerID, pr := range players {
			sort.Sort(sort.Reverse(sort.IntSlice(pr.results)))
			total := 0
			for i, points := range pr.results {
				if i >= models.BestResultsCounted {
					break
				}
				total += points
			}
			partition = append(partition, &models.WeeklyRankingEntry{
				PlayerID:      playerID,
				AgeCategoryID: key.ageCategoryID,
				Sex:           key.sex,
				Year:          week.Year,
				Week:          week.Week,
				TotalPoints:   total,
			})
		}
		sort.Slice(partition, func(i, j int) bool {
			if partition[i].TotalPoints != partition[j].TotalPoints {
				return partition[i].TotalPoints > partition[j].TotalPoints
			}
			return partition[i].PlayerID < partition[j].PlayerID
		})
		for i, e := range partition {
			e.RankPosition = i + 1
		}
		entries = append(entries, partition...)
	}

	// Deterministic overall order for storage and snapshots.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AgeCategoryID != entries[j].AgeCategoryID {
			return entries[i].AgeCategoryID < entries[j].AgeCategoryID
		}
		if entries[i].Sex != entries[j].Sex {
			return entries[i].Sex < entries[j].Sex
		}
		return entries[i].RankPosition < entries[j].RankPosition
	})
	return entries
}
