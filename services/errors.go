package services

import "errors"

// Errors shared between services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed     = errors.New("validation failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEntryClosed          = errors.New("entry deadline has passed")
	ErrPlayerSuspended      = errors.New("player is suspended")
	ErrWrongAgeCategory     = errors.New("player must enter the highest eligible age category")
	ErrNoEligibleCategory   = errors.New("no age category matches the player's age")
	ErrSexMismatch          = errors.New("entry sex does not match the player")
	ErrInsufficientPlayers  = errors.New("not enough entrants to generate a draw")
	ErrDrawSizeExceeded     = errors.New("too many entrants for the largest draw size")
	ErrWithdrawalNotAllowed = errors.New("entry is already withdrawn")

	// State conflicts
	ErrDrawNotOpen           = errors.New("draw is not open for this operation")
	ErrDrawNotGenerated      = errors.New("draw has not been generated yet")
	ErrDrawAlreadyGenerated  = errors.New("draw is already generated")
	ErrMatchNotReady         = errors.New("match does not have both participants yet")
	ErrMatchIsBye            = errors.New("bye matches do not accept results")
	ErrResultAlreadyRecorded = errors.New("match already has a recorded result")
	ErrResultDiffers         = errors.New("match already has a different result; set override to correct it")
	ErrDownstreamPlayed      = errors.New("a later round match involving this winner was already played")
	ErrDuplicateEntry        = errors.New("player already entered this tournament")
	ErrRankingNotPublished   = errors.New("no ranking has been published for this week")

	// Integrity failures that indicate a bug or corrupted data
	ErrDataIntegrity = errors.New("data integrity violation")
)
