package engine

import (
	"encoding/json"
	"time"

	"github.com/Dosada05/pong-arena/models"
)

// Input kinds understood by the scoreboard. Anything else is dropped.
const (
	InputPaddle      = "paddle"
	InputGoalAgainst = "goal-against"
)

type input struct {
	Kind string `json:"kind"`
}

// Scoreboard is a goal-limit simulation. Ball and paddle physics run on the
// clients; the scoreboard relays paddle state to the opponent and counts the
// goals each seat reports having conceded.
type Scoreboard struct {
	events    Events
	goalLimit int
	now       func() time.Time

	started   bool
	ended     bool
	startedAt time.Time
	scores    [2]int
}

// NewScoreboardFactory returns a Factory producing scoreboards that end at goalLimit.
func NewScoreboardFactory(goalLimit int, now func() time.Time) Factory {
	if now == nil {
		now = time.Now
	}
	return func(events Events) Simulation {
		return &Scoreboard{events: events, goalLimit: goalLimit, now: now}
	}
}

func (s *Scoreboard) Start() {
	if s.started || s.ended {
		return
	}
	s.started = true
	s.startedAt = s.now()
	s.events.GameStart()
}

func (s *Scoreboard) Input(seat int, payload json.RawMessage) {
	if !s.started || s.ended || seat < 0 || seat > 1 {
		return
	}
	var in input
	if err := json.Unmarshal(payload, &in); err != nil {
		return
	}
	switch in.Kind {
	case InputPaddle:
		s.events.Relay(seat, payload)
	case InputGoalAgainst:
		scorer := 1 - seat
		s.scores[scorer]++
		s.events.Score(scorer, s.scores[scorer])
		if s.scores[scorer] >= s.goalLimit {
			s.end(SeatWinner(scorer), false)
		}
	}
}

func (s *Scoreboard) Forfeit(winner models.Winner) {
	if s.ended {
		return
	}
	s.end(winner, true)
}

func (s *Scoreboard) Dispose() {
	s.ended = true
}

// Scores returns the current left and right score.
func (s *Scoreboard) Scores() (int, int) {
	return s.scores[0], s.scores[1]
}

func (s *Scoreboard) end(winner models.Winner, forfeit bool) {
	s.ended = true
	var d time.Duration
	if s.started {
		d = s.now().Sub(s.startedAt)
	}
	s.events.End(Result{
		Winner:     winner,
		Forfeit:    forfeit,
		ScoreLeft:  s.scores[0],
		ScoreRight: s.scores[1],
		Duration:   d,
	})
}
