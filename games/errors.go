package games

import "errors"

var (
	ErrInvalidBet               = errors.New("invalid bet")
	ErrInvalidChoice            = errors.New("invalid choice")
	ErrSessionAlreadyActive     = errors.New("a game is already in progress for this account")
	ErrSessionNotFound          = errors.New("game session not found")
	ErrSessionTimeout           = errors.New("game session timed out")
	ErrSettlementAlreadyApplied = errors.New("settlement already applied")
	ErrNotYourSession           = errors.New("this game belongs to another player")
)
