package game

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Dosada05/pong-arena/brackets"
	"github.com/Dosada05/pong-arena/engine"
	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/protocol"
)

// Participant is a connection registered in a tournament under a display name.
type Participant struct {
	name    string
	conn    *Connection
	profile models.Profile
	ready   bool
	gone    bool
	score   int
}

func (p *Participant) Name() string            { return p.name }
func (p *Participant) Conn() *Connection       { return p.conn }
func (p *Participant) Profile() models.Profile { return p.profile }
func (p *Participant) Ready() bool             { return p.ready }
func (p *Participant) Gone() bool              { return p.gone }
func (p *Participant) Score() int              { return p.score }

type qualificationMatch struct {
	left, right string
	running     bool
	done        bool
}

// TournamentOptions is shared by every tournament of a registry.
type TournamentOptions struct {
	Rooms        RoomFactory
	Scheduler    Scheduler
	Hooks        TournamentHooks
	RoundDelay   time.Duration
	ReadyTimeout time.Duration
	Record       func(models.MatchRecord)
	Archive      func(models.TournamentArchive)
	Now          func() time.Time
	Logger       *slog.Logger
}

// Tournament runs the creation, ready check, qualification and bracket of
// one single-elimination event.
type Tournament struct {
	id          string
	settings    models.TournamentSettings
	status      models.TournamentStatus
	creator     *Connection
	creatorName string
	createdAt   time.Time
	startedAt   time.Time

	participants map[string]*Participant
	order        []string
	members      map[*Connection]struct{}
	banned       map[string]struct{}
	bannedIDs    map[int]struct{}
	readyCount   int

	expected     int
	qualifying   bool
	pending      []string
	carry        []string
	qualified    []string
	disqualified []string
	qualMatches  []*qualificationMatch
	qualFinal    bool

	bracket  *brackets.Bracket
	round    int
	finished int
	running  map[brackets.MatchID]bool
	rooms    map[*Room]struct{}
	done     bool

	timer        delay
	factory      RoomFactory
	hooks        TournamentHooks
	roundDelay   time.Duration
	readyTimeout time.Duration
	record       func(models.MatchRecord)
	archive      func(models.TournamentArchive)
	now          func() time.Time
	onDispose    func(*Tournament)
	logger       *slog.Logger
}

func newTournament(id string, settings models.TournamentSettings, creator *Connection, opts TournamentOptions, onDispose func(*Tournament)) *Tournament {
	t := &Tournament{
		id:           id,
		settings:     settings,
		status:       models.TournamentCreation,
		creator:      creator,
		participants: make(map[string]*Participant),
		members:      make(map[*Connection]struct{}),
		banned:       make(map[string]struct{}),
		bannedIDs:    make(map[int]struct{}),
		running:      make(map[brackets.MatchID]bool),
		rooms:        make(map[*Room]struct{}),
		timer:        delay{scheduler: opts.Scheduler},
		factory:      opts.Rooms,
		hooks:        opts.Hooks,
		roundDelay:   opts.RoundDelay,
		readyTimeout: opts.ReadyTimeout,
		record:       opts.Record,
		archive:      opts.Archive,
		now:          opts.Now,
		onDispose:    onDispose,
		logger:       opts.Logger.With(slog.String("tournament_id", id)),
	}
	if t.hooks == nil {
		t.hooks = BroadcastHooks{}
	}
	if t.record == nil {
		t.record = func(models.MatchRecord) {}
	}
	if t.archive == nil {
		t.archive = func(models.TournamentArchive) {}
	}
	if t.now == nil {
		t.now = time.Now
	}
	t.createdAt = t.now()
	return t
}

func (t *Tournament) ID() string                          { return t.id }
func (t *Tournament) Name() string                        { return t.settings.Name }
func (t *Tournament) Settings() models.TournamentSettings { return t.settings }
func (t *Tournament) Status() models.TournamentStatus     { return t.status }
func (t *Tournament) Creator() *Connection                { return t.creator }
func (t *Tournament) Bracket() *brackets.Bracket          { return t.bracket }
func (t *Tournament) Round() int                          { return t.round }
func (t *Tournament) Qualifying() bool                    { return t.qualifying }
func (t *Tournament) Qualified() []string                 { return slices.Clone(t.qualified) }
func (t *Tournament) Disqualified() []string              { return slices.Clone(t.disqualified) }
func (t *Tournament) LiveRooms() int                      { return len(t.rooms) }

// Participant looks a participant up by display name.
func (t *Tournament) Participant(name string) (*Participant, bool) {
	p, ok := t.participants[name]
	return p, ok
}

// Participants returns the participant profiles in join order.
func (t *Tournament) Participants() []models.Profile {
	out := make([]models.Profile, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.participants[name].profile)
	}
	return out
}

func (t *Tournament) Describe() models.TournamentDescription {
	return models.TournamentDescription{
		ID:               t.id,
		Name:             t.settings.Name,
		CreatorName:      t.creatorName,
		AcceptGuests:     t.settings.AcceptGuests,
		MaxParticipants:  t.settings.MaxParticipants,
		ParticipantCount: len(t.participants),
		Status:           t.status,
		CreatedAt:        t.createdAt,
	}
}

// CanJoin runs the join checks for c without side effects. A nil c is an
// idle anonymous guest.
func (t *Tournament) CanJoin(c *Connection) error {
	if c == nil {
		return t.eligible(models.Profile{}, "")
	}
	if err := t.eligible(c.profile, c.profile.Name); err != nil {
		return err
	}
	if c.state != StateUnactive {
		return ErrAlreadyActive
	}
	return nil
}

func (t *Tournament) eligible(profile models.Profile, name string) error {
	if t.status != models.TournamentCreation {
		return ErrTournamentStarted
	}
	if len(t.participants) >= t.settings.MaxParticipants {
		return ErrTournamentFull
	}
	if profile.IsGuest() && !t.settings.AcceptGuests {
		return ErrGuestsNotAllowed
	}
	if _, ok := t.banned[name]; ok {
		return ErrBanned
	}
	if _, ok := t.banned[profile.Name]; ok {
		return ErrBanned
	}
	if _, ok := t.bannedIDs[profile.ID]; ok && !profile.IsGuest() {
		return ErrBanned
	}
	return nil
}

// AddParticipant registers c under alias, or under its profile name when
// alias is empty. A display name already in use is overwritten by the
// newcomer.
func (t *Tournament) AddParticipant(c *Connection, alias string) (*Participant, error) {
	name, err := displayName(c, alias)
	if err != nil {
		return nil, err
	}
	if err := t.eligible(c.profile, name); err != nil {
		return nil, err
	}
	if c.state != StateUnactive {
		return nil, ErrAlreadyActive
	}

	profile := c.profile
	profile.Name = name
	p := &Participant{name: name, conn: c, profile: profile}
	if _, exists := t.participants[name]; !exists {
		t.order = append(t.order, name)
	}
	t.participants[name] = p
	t.members[c] = struct{}{}
	c.state = StateTournamentWaiting
	c.tournament = t
	if c == t.creator {
		t.creatorName = name
	}

	t.logger.Info("Participant joined",
		slog.String("name", name),
		slog.Int("participants", len(t.participants)))
	t.hooks.ParticipantsChanged(t)
	return p, nil
}

func (t *Tournament) participantOf(c *Connection) *Participant {
	for _, name := range t.order {
		if p := t.participants[name]; p.conn == c {
			return p
		}
	}
	return nil
}

// RemoveParticipant detaches c from the tournament. A creator leaving during
// creation cancels it; a participant leaving a started tournament concedes
// its current match and forfeits the ones it has not played yet.
func (t *Tournament) RemoveParticipant(c *Connection) {
	if c.tournament != t || t.status == models.TournamentDisposed {
		return
	}
	p := t.participantOf(c)

	switch t.status {
	case models.TournamentCreation:
		if c == t.creator {
			t.cancel()
			return
		}
		t.release(c)
		if p != nil {
			t.drop(p)
		}
		t.hooks.ParticipantsChanged(t)

	case models.TournamentWaitingReady:
		t.release(c)
		if p != nil {
			if p.ready {
				t.readyCount--
			}
			t.drop(p)
		}
		t.hooks.ParticipantsChanged(t)
		if len(t.participants) < 2 {
			t.cancel()
			return
		}
		t.checkAllReady()

	case models.TournamentStarted:
		if c.room != nil && c.state == StateTournamentPlaying {
			c.room.OnDisconnect(c)
		}
		if t.status != models.TournamentStarted {
			return
		}
		if p != nil {
			p.gone = true
		}
		t.release(c)
		t.startNewMatches()
	}
}

func (t *Tournament) drop(p *Participant) {
	if t.participants[p.name] != p {
		return
	}
	delete(t.participants, p.name)
	if i := slices.Index(t.order, p.name); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
}

func (t *Tournament) release(c *Connection) {
	if c.tournament != t {
		return
	}
	delete(t.members, c)
	c.tournament = nil
	if c.state == StateTournamentWaiting {
		c.state = StateUnactive
	}
}

func (t *Tournament) requireCreator(c *Connection) error {
	if t.status != models.TournamentCreation {
		return ErrTournamentStarted
	}
	if c != t.creator {
		return ErrNotCreator
	}
	return nil
}

// Kick removes a participant during creation.
func (t *Tournament) Kick(by *Connection, name string) error {
	if err := t.requireCreator(by); err != nil {
		return err
	}
	p, ok := t.participants[name]
	if !ok {
		return ErrNotFound
	}
	if p.conn == t.creator {
		return ErrInvalidTarget
	}
	t.expel(p, protocol.TournamentKicked)
	return nil
}

// Ban forbids a display name (and the user behind it) from joining, kicking
// the participant currently using it.
func (t *Tournament) Ban(by *Connection, name string) error {
	if err := t.requireCreator(by); err != nil {
		return err
	}
	p, ok := t.participants[name]
	if ok && p.conn == t.creator {
		return ErrInvalidTarget
	}
	t.banned[name] = struct{}{}
	if !ok {
		return nil
	}
	if !p.profile.IsGuest() {
		t.bannedIDs[p.profile.ID] = struct{}{}
	}
	t.expel(p, protocol.TournamentBanned)
	return nil
}

func (t *Tournament) expel(p *Participant, reason string) {
	t.drop(p)
	t.release(p.conn)
	t.hooks.Removed(t, p, reason)
	t.hooks.ParticipantsChanged(t)
}

// Cancel disposes the tournament during creation.
func (t *Tournament) Cancel(by *Connection) error {
	if err := t.requireCreator(by); err != nil {
		return err
	}
	t.cancel()
	return nil
}

// Start closes registration and asks every participant to get ready.
func (t *Tournament) Start(by *Connection) error {
	if err := t.requireCreator(by); err != nil {
		return err
	}
	if len(t.participants) < 2 {
		return ErrNotEnoughParticipants
	}
	t.status = models.TournamentWaitingReady
	t.creator = nil
	t.readyCount = 0
	t.logger.Info("Tournament waiting for ready", slog.Int("participants", len(t.participants)))
	t.hooks.WaitingReady(t)
	if err := t.timer.after(t.readyTimeout, t.onReadyTimeout); err != nil {
		t.critical("Failed to schedule ready timeout", err)
	}
	return nil
}

// SetReady marks the participant behind c ready.
func (t *Tournament) SetReady(c *Connection) {
	if t.status != models.TournamentWaitingReady {
		return
	}
	p := t.participantOf(c)
	if p == nil || p.ready {
		return
	}
	p.ready = true
	t.readyCount++
	t.checkAllReady()
}

func (t *Tournament) checkAllReady() {
	if t.status != models.TournamentWaitingReady || len(t.participants) < 2 {
		return
	}
	if t.readyCount == len(t.participants) {
		t.begin()
	}
}

func (t *Tournament) onReadyTimeout() {
	if t.status != models.TournamentWaitingReady {
		return
	}
	for _, name := range slices.Clone(t.order) {
		if p := t.participants[name]; !p.ready {
			t.expel(p, protocol.TournamentReadyTimeout)
		}
	}
	if len(t.participants) < 2 {
		t.cancel()
		return
	}
	t.begin()
}

func (t *Tournament) begin() {
	t.timer.cancel()
	t.status = models.TournamentStarted
	t.startedAt = t.now()

	names := slices.Clone(t.order)
	t.expected = brackets.ExpectedQualifiedCount(len(names))
	t.logger.Info("Tournament started",
		slog.Int("participants", len(names)),
		slog.Int("bracket_size", t.expected))

	if brackets.IsPowerOfTwo(len(names)) {
		t.qualified = names
		if t.buildBracket() {
			t.startNewMatches()
		}
		return
	}
	t.qualifying = true
	t.pending = names
	t.planQualification()
}

func (t *Tournament) planQualification() {
	if t.status != models.TournamentStarted {
		return
	}
	plan := brackets.PlanQualification(t.pending, t.expected-len(t.qualified))
	t.pending = nil
	t.qualFinal = plan.Final
	if plan.Final {
		t.qualified = append(t.qualified, plan.Byes...)
	} else {
		t.carry = append(t.carry, plan.Byes...)
	}

	t.qualMatches = t.qualMatches[:0]
	pairs := make([]protocol.MatchPair, 0, len(plan.Pairs))
	for _, pair := range plan.Pairs {
		t.qualMatches = append(t.qualMatches, &qualificationMatch{left: pair[0], right: pair[1]})
		pairs = append(pairs, protocol.MatchPair{Left: pair[0], Right: pair[1]})
	}
	t.hooks.QualificationMatches(t, pairs)
	t.startNewMatches()
}

// startNewMatches opens a room for every match of the current round whose
// two sides are known and idle, settling walkovers on the way.
func (t *Tournament) startNewMatches() {
	if t.status != models.TournamentStarted || t.timer.busy() {
		return
	}
	if t.qualifying {
		t.startQualificationMatches()
		return
	}
	t.startBracketMatches()
}

func (t *Tournament) startQualificationMatches() {
	done := 0
	for _, m := range t.qualMatches {
		if m.done {
			done++
			continue
		}
		if m.running {
			continue
		}
		left, right := t.participants[m.left], t.participants[m.right]
		if absent(left) || absent(right) {
			t.settleQualification(m, walkoverSide(left, right), 0)
			done++
			continue
		}
		if t.available(left) && t.available(right) && t.openMatch(left, right, t.onQualificationEnd(m)) {
			m.running = true
		}
	}
	if done == len(t.qualMatches) {
		t.qualificationRoundDone()
	}
}

func (t *Tournament) onQualificationEnd(m *qualificationMatch) EndFunc {
	return func(r *Room, res engine.Result) {
		delete(t.rooms, r)
		if t.status != models.TournamentStarted {
			return
		}
		t.record(matchRecord(r, res, t.id, t.now()))
		side, score := resultSide(res)
		t.settleQualification(m, side, score)
		t.startNewMatches()
	}
}

func (t *Tournament) settleQualification(m *qualificationMatch, side brackets.Side, score int) {
	if m.done {
		return
	}
	m.running = false
	m.done = true
	winner, loser := m.left, m.right
	if side == brackets.Right {
		winner, loser = loser, winner
	}
	if p := t.participants[winner]; p != nil {
		p.score += score
	}
	if t.qualFinal {
		t.qualified = append(t.qualified, winner)
	} else {
		t.carry = append(t.carry, winner)
	}

	t.disqualified = append(t.disqualified, loser)
	if p := t.participants[loser]; p != nil {
		t.hooks.ParticipantLose(t, p, true, len(t.qualMatches))
		t.drop(p)
		t.release(p.conn)
	}
}

func (t *Tournament) qualificationRoundDone() {
	if len(t.qualified) == t.expected {
		t.qualifying = false
		t.hooks.QualificationsEnd(t, slices.Clone(t.qualified))
		if t.buildBracket() {
			t.scheduleNext(t.startNewMatches)
		}
		return
	}
	if len(t.carry) == 0 {
		t.critical("Qualification ran out of participants", fmt.Errorf("qualified %d of %d", len(t.qualified), t.expected))
		return
	}
	t.pending, t.carry = t.carry, nil
	t.scheduleNext(t.planQualification)
}

func (t *Tournament) buildBracket() bool {
	b, err := brackets.NewSingleElimination(t.qualified)
	if err != nil {
		t.critical("Failed to build bracket", err)
		return false
	}
	t.bracket = b
	t.round = 0
	t.finished = 0
	return true
}

func (t *Tournament) startBracketMatches() {
	round := t.bracket.Round(t.round)
	var started []protocol.MatchPair
	for _, m := range round {
		if m.Decided() || t.running[m.ID] {
			continue
		}
		leftName, rightName, ok := t.bracket.Sides(m.ID)
		if !ok {
			continue
		}
		left, right := t.participants[leftName], t.participants[rightName]
		if absent(left) || absent(right) {
			t.settleBracket(m.ID, walkoverSide(left, right), 0)
			continue
		}
		if !t.available(left) || !t.available(right) {
			continue
		}
		if t.openMatch(left, right, t.onBracketEnd(m.ID)) {
			t.running[m.ID] = true
			started = append(started, protocol.MatchPair{Left: leftName, Right: rightName})
		}
	}
	if len(started) > 0 {
		t.hooks.NewMatches(t, started)
	}
	if t.finished == len(round) {
		t.roundEnd()
	}
}

func (t *Tournament) onBracketEnd(id brackets.MatchID) EndFunc {
	return func(r *Room, res engine.Result) {
		delete(t.rooms, r)
		delete(t.running, id)
		if t.status != models.TournamentStarted {
			return
		}
		t.record(matchRecord(r, res, t.id, t.now()))
		side, score := resultSide(res)
		t.settleBracket(id, side, score)
		t.startNewMatches()
	}
}

func (t *Tournament) settleBracket(id brackets.MatchID, side brackets.Side, score int) {
	changed, err := t.bracket.SetWinner(id, side, score)
	if err != nil {
		t.critical("Failed to record bracket winner", err)
		return
	}
	if !changed {
		return
	}
	m, _ := t.bracket.Match(id)
	winner, _, _, _ := m.Winner()
	if p := t.participants[winner]; p != nil {
		p.score += score
	}
	if loser, ok := t.bracket.Loser(id); ok {
		if p := t.participants[loser]; p != nil {
			t.hooks.ParticipantLose(t, p, false, len(t.bracket.Round(m.Round)))
		}
	}
	t.finished++
}

func (t *Tournament) roundEnd() {
	var winners []string
	for _, m := range t.bracket.Round(t.round) {
		name, _, _, _ := m.Winner()
		winners = append(winners, name)
	}
	t.hooks.RoundWinners(t, t.round, winners)
	t.round++
	t.finished = 0
	if t.round >= t.bracket.RoundCount() {
		t.finish()
		return
	}
	t.hooks.ShowNextRound(t, t.round)
	t.scheduleNext(t.startNewMatches)
}

func (t *Tournament) finish() {
	winner, _, _, _ := t.bracket.Root().Winner()
	t.done = true
	t.logger.Info("Tournament finished", slog.String("winner", winner))
	t.hooks.TournamentEnd(t, winner)
	t.archive(models.TournamentArchive{
		ID:           t.id,
		Name:         t.settings.Name,
		Winner:       winner,
		Qualified:    slices.Clone(t.qualified),
		Disqualified: slices.Clone(t.disqualified),
		Rounds:       t.bracket.Archive(),
		StartedAt:    t.startedAt,
		FinishedAt:   t.now(),
	})
	t.Dispose()
}

func (t *Tournament) scheduleNext(fn func()) {
	if err := t.timer.after(t.roundDelay, fn); err != nil {
		t.critical("Failed to schedule next round", err)
	}
}

func (t *Tournament) openMatch(left, right *Participant, onEnd EndFunc) bool {
	room, err := t.factory.open(
		[2]*Connection{left.conn, right.conn},
		[2]models.Profile{left.profile, right.profile},
		onEnd,
	)
	if err != nil {
		t.critical("Failed to open tournament room", err)
		return false
	}
	t.rooms[room] = struct{}{}
	return true
}

func (t *Tournament) available(p *Participant) bool {
	return p.conn.tournament == t && p.conn.state == StateTournamentWaiting
}

func absent(p *Participant) bool {
	return p == nil || p.gone
}

// walkoverSide picks the side that advances when at least one side is gone.
func walkoverSide(left, right *Participant) brackets.Side {
	if absent(left) && !absent(right) {
		return brackets.Right
	}
	return brackets.Left
}

// resultSide maps a room result to the advancing side. Draws advance the left seat.
func resultSide(res engine.Result) (brackets.Side, int) {
	if res.Winner == models.WinnerRight {
		return brackets.Right, res.ScoreRight
	}
	return brackets.Left, res.ScoreLeft
}

func (t *Tournament) cancel() {
	t.logger.Info("Tournament cancelled", slog.String("status", string(t.status)))
	t.Dispose()
}

// Dispose ends the tournament: live rooms are closed, every member is
// released and the registry forgets it. Safe to call twice.
func (t *Tournament) Dispose() {
	if t.status == models.TournamentDisposed {
		return
	}
	if !t.done {
		t.hooks.Cancelled(t)
	}
	t.status = models.TournamentDisposed
	t.timer.cancel()
	for r := range t.rooms {
		r.Dispose()
	}
	for c := range t.members {
		t.release(c)
	}
	t.creator = nil
	if t.onDispose != nil {
		t.onDispose(t)
	}
}

func (t *Tournament) critical(msg string, err error) {
	t.logger.Error(msg, slog.String("severity", "CRITICAL"), slog.Any("error", err))
}

// broadcast sends msg to every connection still attached to t.
func (t *Tournament) broadcast(msg protocol.ServerMessage) {
	for c := range t.members {
		c.Send(msg)
	}
}
