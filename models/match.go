package models

import "time"

// Winner identifies which seat won a match.
type Winner string

const (
	WinnerLeft  Winner = "left"
	WinnerRight Winner = "right"
	WinnerDraw  Winner = "draw"
)

// MatchRecord is the payload handed to the match recorder once a room is over.
// Guest sides carry a name and no id.
type MatchRecord struct {
	ID              int64     `json:"id" db:"id"`
	TournamentID    *string   `json:"tournament_id,omitempty" db:"tournament_id"`
	LeftID          *int      `json:"left_id,omitempty" db:"left_id"`
	LeftGuestName   *string   `json:"left_guest_name,omitempty" db:"left_guest_name"`
	RightID         *int      `json:"right_id,omitempty" db:"right_id"`
	RightGuestName  *string   `json:"right_guest_name,omitempty" db:"right_guest_name"`
	WinnerIndicator Winner    `json:"winner" db:"winner"`
	ScoreLeft       int       `json:"score_left" db:"score_left"`
	ScoreRight      int       `json:"score_right" db:"score_right"`
	Duration        int64     `json:"duration_ms" db:"duration_ms"`
	Forfeit         bool      `json:"forfeit" db:"forfeit"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
