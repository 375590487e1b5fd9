package ledger

import "errors"

// Validation rejections. Each aborts the operation with no state change;
// callers map these to user-facing reasons.
var (
	ErrNoCurrentPlayer    = errors.New("no player selected for auction")
	ErrPlayerNotEligible  = errors.New("player is not available for auction")
	ErrRosterFull         = errors.New("team roster is full")
	ErrInsufficientBudget = errors.New("insufficient team budget")
	ErrBidExceedsCeiling  = errors.New("bid exceeds team bid ceiling")
	ErrInvalidAmount      = errors.New("amount must be a non-negative number")
	ErrFoundingMember     = errors.New("founding members cannot be removed")
	ErrDuplicateName      = errors.New("a player with this name already exists")
	ErrNameRequired       = errors.New("name is required")
	ErrNoEligiblePlayers  = errors.New("no eligible players left")
)
