package game

import (
	"github.com/Dosada05/pong-arena/protocol"
)

// TournamentHooks is notified at every visible step of a tournament.
// Rounds are zero-based.
type TournamentHooks interface {
	ParticipantsChanged(t *Tournament)
	Cancelled(t *Tournament)
	Removed(t *Tournament, p *Participant, reason string)
	WaitingReady(t *Tournament)
	QualificationMatches(t *Tournament, pairs []protocol.MatchPair)
	NewMatches(t *Tournament, pairs []protocol.MatchPair)
	ParticipantLose(t *Tournament, p *Participant, qualification bool, roundMatchCount int)
	QualificationsEnd(t *Tournament, qualified []string)
	RoundWinners(t *Tournament, round int, winners []string)
	ShowNextRound(t *Tournament, round int)
	TournamentEnd(t *Tournament, winner string)
}

// BroadcastHooks sends each step as a tournament-event to every attached
// connection. Rounds are shown one-based.
type BroadcastHooks struct{}

func event(t *Tournament, kind string) protocol.TournamentEvent {
	return protocol.TournamentEvent{Type: kind, TournamentID: t.id}
}

func (BroadcastHooks) ParticipantsChanged(t *Tournament) {
	ev := event(t, protocol.TournamentParticipants)
	ev.Participants = t.Participants()
	t.broadcast(ev)
}

func (BroadcastHooks) Cancelled(t *Tournament) {
	t.broadcast(event(t, protocol.TournamentCancelled))
}

func (BroadcastHooks) Removed(t *Tournament, p *Participant, reason string) {
	ev := event(t, reason)
	ev.Participant = p.name
	p.conn.Send(ev)
}

func (BroadcastHooks) WaitingReady(t *Tournament) {
	ev := event(t, protocol.TournamentWaitingReady)
	ev.Participants = t.Participants()
	t.broadcast(ev)
}

func (BroadcastHooks) QualificationMatches(t *Tournament, pairs []protocol.MatchPair) {
	ev := event(t, protocol.TournamentQualification)
	ev.Matches = pairs
	ev.Qualification = true
	t.broadcast(ev)
}

func (BroadcastHooks) NewMatches(t *Tournament, pairs []protocol.MatchPair) {
	ev := event(t, protocol.TournamentNewMatches)
	ev.Matches = pairs
	ev.Round = t.round + 1
	t.broadcast(ev)
}

func (BroadcastHooks) ParticipantLose(t *Tournament, p *Participant, qualification bool, roundMatchCount int) {
	ev := event(t, protocol.TournamentParticipantLose)
	ev.Participant = p.name
	ev.Qualification = qualification
	ev.RoundMatchCount = roundMatchCount
	p.conn.Send(ev)
}

func (BroadcastHooks) QualificationsEnd(t *Tournament, qualified []string) {
	ev := event(t, protocol.TournamentQualifiedEnd)
	ev.Winners = qualified
	t.broadcast(ev)
}

func (BroadcastHooks) RoundWinners(t *Tournament, round int, winners []string) {
	ev := event(t, protocol.TournamentRoundWinners)
	ev.Round = round + 1
	ev.Winners = winners
	t.broadcast(ev)
}

func (BroadcastHooks) ShowNextRound(t *Tournament, round int) {
	ev := event(t, protocol.TournamentShowNextRound)
	ev.Round = round + 1
	t.broadcast(ev)
}

func (BroadcastHooks) TournamentEnd(t *Tournament, winner string) {
	ev := event(t, protocol.TournamentEnd)
	ev.Winner = winner
	t.broadcast(ev)
}
