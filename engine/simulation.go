// Package engine holds the game simulation contract a room drives, and the
// Scoreboard simulation used in production.
package engine

import (
	"encoding/json"
	"time"

	"github.com/Dosada05/pong-arena/models"
)

// Result is how a match ended.
type Result struct {
	Winner     models.Winner
	Forfeit    bool
	ScoreLeft  int
	ScoreRight int
	Duration   time.Duration
}

// Events receives everything a simulation emits. Seats are 0 (left) and 1 (right).
type Events interface {
	GameStart()
	Score(seat int, score int)
	Relay(fromSeat int, payload json.RawMessage)
	End(Result)
}

// Simulation is one running match.
type Simulation interface {
	Start()
	Input(seat int, payload json.RawMessage)
	// Forfeit ends the match in favour of winner.
	Forfeit(winner models.Winner)
	Dispose()
}

// Factory creates a simulation bound to the room's event sink.
type Factory func(events Events) Simulation

// SeatWinner maps a seat index to the winner tag.
func SeatWinner(seat int) models.Winner {
	if seat == 0 {
		return models.WinnerLeft
	}
	return models.WinnerRight
}
