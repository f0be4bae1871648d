package models

import "time"

// Stage is how far a player got in a draw.
type Stage string

const (
	StageWinner          Stage = "winner"
	StageFinalist        Stage = "finalist"
	StageSemiFinalist    Stage = "semi_finalist"
	StageQuarterFinalist Stage = "quarter_finalist"
	StageLast16          Stage = "last_16"
	StageLast32          Stage = "last_32"
	StageLast64          Stage = "last_64"
)

// StageFromLossRound maps the round of a player's last loss to a stage, by
// distance from the final.
func StageFromLossRound(lossRound, totalRounds int) Stage {
	switch totalRounds - lossRound {
	case 0:
		return StageFinalist
	case 1:
		return StageSemiFinalist
	case 2:
		return StageQuarterFinalist
	case 3:
		return StageLast16
	case 4:
		return StageLast32
	}
	return StageLast64
}

// PointsRecord is one player's result in one tournament category. Rows are
// immutable once written; a sanction zeroes PointsEarned, it never deletes
// the row.
type PointsRecord struct {
	ID            int       `json:"id" db:"id"`
	PlayerID      int       `json:"player_id" db:"player_id"`
	TournamentID  int       `json:"tournament_id" db:"tournament_id"`
	AgeCategoryID int       `json:"age_category_id" db:"age_category_id"`
	Stage         Stage     `json:"stage" db:"stage"`
	PointsEarned  int       `json:"points_earned" db:"points_earned"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// PointsForStage is the (tournament category, stage) lookup table. The scale
// follows the category value: the winner takes the full amount, each stage
// down takes the same fraction across categories.
var PointsForStage = map[TournamentCategory]map[Stage]int{
	CategoryMT1000: {StageWinner: 1000, StageFinalist: 600, StageSemiFinalist: 360, StageQuarterFinalist: 215, StageLast16: 130, StageLast32: 80, StageLast64: 50},
	CategoryMT700:  {StageWinner: 700, StageFinalist: 420, StageSemiFinalist: 252, StageQuarterFinalist: 151, StageLast16: 91, StageLast32: 56, StageLast64: 35},
	CategoryMT400:  {StageWinner: 400, StageFinalist: 240, StageSemiFinalist: 144, StageQuarterFinalist: 86, StageLast16: 52, StageLast32: 32, StageLast64: 20},
	CategoryMT200:  {StageWinner: 200, StageFinalist: 120, StageSemiFinalist: 72, StageQuarterFinalist: 43, StageLast16: 26, StageLast32: 16, StageLast64: 10},
	CategoryMT100:  {StageWinner: 100, StageFinalist: 60, StageSemiFinalist: 36, StageQuarterFinalist: 22, StageLast16: 13, StageLast32: 8, StageLast64: 5},
}
