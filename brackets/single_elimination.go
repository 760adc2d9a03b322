// pong-arena/brackets/single_elimination.go
package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/pong-arena/models"
)

var (
	ErrTooFewParticipants = errors.New("not enough participants to generate a single elimination bracket (minimum 2)")
	ErrNotPowerOfTwo      = errors.New("single elimination bracket requires a power of two participants")
	ErrDuplicateEntrant   = errors.New("participant appears twice in the bracket")
	ErrUnknownMatch       = errors.New("match does not exist in this bracket")
	ErrMatchNotReady      = errors.New("match sides are not decided yet")
)

// Side is a seat in a match: Left (0) or Right (1).
type Side int

const (
	Left  Side = 0
	Right Side = 1
)

func (s Side) Other() Side {
	return 1 - s
}

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// MatchID addresses a Match inside its Bracket arena.
type MatchID int

// NoMatch marks a Slot that holds a participant directly.
const NoMatch MatchID = -1

// Slot is one side of a match: either a participant (leaf) or the winner of
// an earlier match.
type Slot struct {
	Participant string
	Source      MatchID
}

func entrant(name string) Slot {
	return Slot{Participant: name, Source: NoMatch}
}

func (s Slot) IsMatch() bool {
	return s.Source != NoMatch
}

type Match struct {
	ID    MatchID
	Round int
	Index int
	Left  Slot
	Right Slot

	decided     bool
	winner      string
	winnerSide  Side
	winnerScore int
}

func (m *Match) Decided() bool {
	return m.decided
}

// Winner returns the settled winner. ok is false until SetWinner succeeds.
func (m *Match) Winner() (name string, side Side, score int, ok bool) {
	return m.winner, m.winnerSide, m.winnerScore, m.decided
}

// Bracket is an arena of matches. rounds[r][i] is the i-th match of round r;
// round 0 holds the leaf matches.
type Bracket struct {
	matches []*Match
	rounds  [][]MatchID
}

// NewSingleElimination pairs adjacent entries recursively until a single top
// match remains.
func NewSingleElimination(participants []string) (*Bracket, error) {
	n := len(participants)
	if n < 2 {
		return nil, ErrTooFewParticipants
	}
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: got %d", ErrNotPowerOfTwo, n)
	}

	seen := make(map[string]struct{}, n)
	leaves := make([]Slot, 0, n)
	for _, p := range participants {
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntrant, p)
		}
		seen[p] = struct{}{}
		leaves = append(leaves, entrant(p))
	}

	b := &Bracket{matches: make([]*Match, 0, n-1)}
	b.pair(leaves, 0)
	return b, nil
}

func (b *Bracket) pair(slots []Slot, round int) {
	if len(slots) < 2 {
		return
	}
	b.rounds = append(b.rounds, make([]MatchID, 0, len(slots)/2))
	next := make([]Slot, 0, len(slots)/2)
	for i := 0; i < len(slots); i += 2 {
		m := &Match{
			ID:    MatchID(len(b.matches)),
			Round: round,
			Index: len(b.rounds[round]),
			Left:  slots[i],
			Right: slots[i+1],
		}
		b.matches = append(b.matches, m)
		b.rounds[round] = append(b.rounds[round], m.ID)
		next = append(next, Slot{Source: m.ID})
	}
	b.pair(next, round+1)
}

func (b *Bracket) RoundCount() int {
	return len(b.rounds)
}

// Round returns the matches of round r in bracket order.
func (b *Bracket) Round(r int) []*Match {
	if r < 0 || r >= len(b.rounds) {
		return nil
	}
	out := make([]*Match, len(b.rounds[r]))
	for i, id := range b.rounds[r] {
		out[i] = b.matches[id]
	}
	return out
}

func (b *Bracket) Match(id MatchID) (*Match, bool) {
	if id < 0 || int(id) >= len(b.matches) {
		return nil, false
	}
	return b.matches[id], true
}

// Root is the final.
func (b *Bracket) Root() *Match {
	return b.matches[len(b.matches)-1]
}

// Resolve returns the participant occupying a slot, if already known.
func (b *Bracket) Resolve(s Slot) (string, bool) {
	if !s.IsMatch() {
		return s.Participant, true
	}
	src, ok := b.Match(s.Source)
	if !ok || !src.decided {
		return "", false
	}
	return src.winner, true
}

// Sides returns both participants of a match once both are known.
func (b *Bracket) Sides(id MatchID) (left, right string, ok bool) {
	m, exists := b.Match(id)
	if !exists {
		return "", "", false
	}
	left, lok := b.Resolve(m.Left)
	right, rok := b.Resolve(m.Right)
	return left, right, lok && rok
}

// SetWinner settles a match. A second call is a no-op and reports false.
func (b *Bracket) SetWinner(id MatchID, side Side, score int) (bool, error) {
	m, ok := b.Match(id)
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownMatch, id)
	}
	if m.decided {
		return false, nil
	}
	left, right, ready := b.Sides(id)
	if !ready {
		return false, fmt.Errorf("%w: match %d", ErrMatchNotReady, id)
	}
	m.decided = true
	m.winnerSide = side
	m.winnerScore = score
	m.winner = left
	if side == Right {
		m.winner = right
	}
	return true, nil
}

// Loser is the side that is not the winner.
func (b *Bracket) Loser(id MatchID) (string, bool) {
	m, ok := b.Match(id)
	if !ok || !m.decided {
		return "", false
	}
	left, right, _ := b.Sides(id)
	if m.winnerSide == Left {
		return right, true
	}
	return left, true
}

// Archive flattens the decided state of every round.
func (b *Bracket) Archive() [][]models.ArchivedMatch {
	out := make([][]models.ArchivedMatch, len(b.rounds))
	for r := range b.rounds {
		for _, m := range b.Round(r) {
			left, _ := b.Resolve(m.Left)
			right, _ := b.Resolve(m.Right)
			out[r] = append(out[r], models.ArchivedMatch{
				Left:        left,
				Right:       right,
				Winner:      m.winner,
				WinnerScore: m.winnerScore,
			})
		}
	}
	return out
}
