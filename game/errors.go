package game

import "errors"

var (
	ErrAlreadyActive         = errors.New("connection is already in an activity")
	ErrTournamentFull        = errors.New("tournament is full")
	ErrTournamentStarted     = errors.New("tournament has already started")
	ErrGuestsNotAllowed      = errors.New("tournament does not accept guests")
	ErrBanned                = errors.New("banned from this tournament")
	ErrNameTaken             = errors.New("tournament name already taken")
	ErrNotFound              = errors.New("not found")
	ErrNotCreator            = errors.New("only the creator can do this")
	ErrNotEnoughParticipants = errors.New("not enough participants")
	ErrInvalidSettings       = errors.New("invalid tournament settings")
	ErrInvalidAlias          = errors.New("invalid alias")
	ErrInvalidTarget         = errors.New("invalid target participant")
	ErrNotInTournament       = errors.New("connection is not in a tournament")
	ErrAlreadyAuthenticated  = errors.New("connection is already authenticated")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrBadRequest            = errors.New("bad request")
	ErrTimerBusy             = errors.New("a delay is already pending")
	ErrLoopStopped           = errors.New("event loop stopped")
)
