package models

import "time"

// TournamentStatus is the lifecycle state of a live tournament.
type TournamentStatus string

const (
	TournamentCreation     TournamentStatus = "creation"
	TournamentWaitingReady TournamentStatus = "waiting-ready"
	TournamentStarted      TournamentStatus = "started"
	TournamentDisposed     TournamentStatus = "disposed"
)

// TournamentSettings are chosen by the creator and fixed for the tournament's lifetime.
type TournamentSettings struct {
	Name            string `json:"name" validate:"required,min=3,max=24"`
	Public          bool   `json:"public"`
	AcceptGuests    bool   `json:"accept_guests"`
	MaxParticipants int    `json:"max_participants" validate:"min=2,max=64"`
}

// TournamentDescription is the public listing entry of a tournament.
type TournamentDescription struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	CreatorName      string           `json:"creator_name"`
	AcceptGuests     bool             `json:"accept_guests"`
	MaxParticipants  int              `json:"max_participants"`
	ParticipantCount int              `json:"participant_count"`
	Status           TournamentStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
}

// TournamentArchive is the summary stored once a tournament finishes.
type TournamentArchive struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Winner       string            `json:"winner"`
	Qualified    []string          `json:"qualified"`
	Disqualified []string          `json:"disqualified"`
	Rounds       [][]ArchivedMatch `json:"rounds"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
}

// ArchivedMatch is one decided bracket match inside a TournamentArchive.
type ArchivedMatch struct {
	Left        string `json:"left"`
	Right       string `json:"right"`
	Winner      string `json:"winner"`
	WinnerScore int    `json:"winner_score"`
}
