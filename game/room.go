package game

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/pong-arena/engine"
	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/protocol"
	"github.com/google/uuid"
)

// EventInput is the room-scoped client event carrying simulation input.
const EventInput = "input-infos"

type RoomStatus int

const (
	RoomForming RoomStatus = iota
	RoomWaitingReady
	RoomStarted
	RoomDisposed
)

// EndFunc is called exactly once when a room is disposed.
type EndFunc func(r *Room, res engine.Result)

// RoomFactory holds what every room shares.
type RoomFactory struct {
	Scheduler     Scheduler
	NewSimulation engine.Factory
	StartDelay    time.Duration
	Logger        *slog.Logger
}

// New seats left at 0 and right at 1, showing each the other's profile.
func (f RoomFactory) New(left, right *Connection, onEnd EndFunc) (*Room, error) {
	return f.open([2]*Connection{left, right}, [2]models.Profile{left.profile, right.profile}, onEnd)
}

func (f RoomFactory) open(conns [2]*Connection, profiles [2]models.Profile, onEnd EndFunc) (*Room, error) {
	if conns[0] == conns[1] {
		return nil, ErrAlreadyActive
	}
	for _, c := range conns {
		if c.state != StateUnactive && c.state != StateTournamentWaiting {
			return nil, ErrAlreadyActive
		}
	}
	r := &Room{
		id:         uuid.NewString(),
		conns:      conns,
		profiles:   profiles,
		status:     RoomForming,
		newSim:     f.NewSimulation,
		startDelay: f.StartDelay,
		timer:      delay{scheduler: f.Scheduler},
		onEnd:      onEnd,
		handlers:   make(map[string]func(seat int, payload json.RawMessage)),
	}
	r.logger = f.Logger.With(slog.String("room_id", r.id))

	for seat, c := range conns {
		if c.state == StateTournamentWaiting {
			c.state = StateTournamentPlaying
		} else {
			c.state = StatePlaying
		}
		c.room = r
		c.seat = seat
		c.Send(protocol.JoinedGame{PlayerIndex: seat, RoomID: r.id, Opponent: profiles[1-seat]})
	}
	r.status = RoomWaitingReady
	r.logger.Debug("Room opened",
		slog.String("left", profiles[0].Name),
		slog.String("right", profiles[1].Name))
	return r, nil
}

// Room owns one match between two seated connections.
type Room struct {
	id         string
	conns      [2]*Connection
	profiles   [2]models.Profile
	status     RoomStatus
	ready      [2]bool
	readyCount int

	sim        engine.Simulation
	newSim     engine.Factory
	startDelay time.Duration
	timer      delay

	forfeitArmed [2]bool
	handlers     map[string]func(seat int, payload json.RawMessage)

	ended  bool
	result engine.Result
	onEnd  EndFunc
	logger *slog.Logger
}

func (r *Room) ID() string                      { return r.id }
func (r *Room) Status() RoomStatus              { return r.status }
func (r *Room) Profiles() [2]models.Profile     { return r.profiles }
func (r *Room) Connection(seat int) *Connection { return r.conns[r.checkSeat(seat)] }

// SeatOf returns the seat of c, or -1 when c is not seated here.
func (r *Room) SeatOf(c *Connection) int {
	for seat, seated := range r.conns {
		if seated == c {
			return seat
		}
	}
	return -1
}

func (r *Room) checkSeat(seat int) int {
	if seat < 0 || seat > 1 {
		panic(fmt.Sprintf("room %s: seat %d out of range", r.id, seat))
	}
	return seat
}

// Send delivers msg to one seat.
func (r *Room) Send(seat int, msg protocol.ServerMessage) {
	r.conns[r.checkSeat(seat)].Send(msg)
}

// Broadcast delivers msg to the seat opposite fromSeat.
func (r *Room) Broadcast(fromSeat int, msg protocol.ServerMessage) {
	r.Send(1-r.checkSeat(fromSeat), msg)
}

func (r *Room) sendAll(msg protocol.ServerMessage) {
	r.Send(0, msg)
	r.Send(1, msg)
}

// OnReady marks the seat of c ready. The match starts once both are.
func (r *Room) OnReady(c *Connection) {
	if r.status != RoomWaitingReady {
		return
	}
	seat := r.SeatOf(c)
	if seat < 0 || r.ready[seat] {
		return
	}
	r.ready[seat] = true
	r.readyCount++
	if r.readyCount == 2 {
		r.start()
	}
}

func (r *Room) start() {
	r.status = RoomStarted
	r.forfeitArmed = [2]bool{true, true}
	r.sim = r.newSim(roomEvents{r})
	r.on(EventInput, func(seat int, payload json.RawMessage) {
		r.sim.Input(seat, payload)
	})
	err := r.timer.after(r.startDelay, func() {
		if r.status != RoomStarted || r.ended {
			return
		}
		r.sim.Start()
	})
	if err != nil {
		r.logger.Error("Failed to schedule match start",
			slog.String("severity", "CRITICAL"),
			slog.Any("error", err))
	}
}

func (r *Room) on(event string, h func(seat int, payload json.RawMessage)) {
	r.handlers[event] = h
}

// Dispatch routes a room-scoped client event from c to its handler.
func (r *Room) Dispatch(c *Connection, event string, payload json.RawMessage) {
	seat := r.SeatOf(c)
	if seat < 0 {
		return
	}
	if h, ok := r.handlers[event]; ok {
		h(seat, payload)
	}
}

// Forfeit concedes the match for the seat of c. Each seat can do it once.
func (r *Room) Forfeit(c *Connection) {
	seat := r.SeatOf(c)
	if seat < 0 || r.status != RoomStarted || r.ended || !r.forfeitArmed[seat] {
		return
	}
	r.forfeitArmed[seat] = false
	r.Broadcast(seat, protocol.GameInfos{Type: protocol.GameForfeit})
	r.sim.Forfeit(engine.SeatWinner(1 - seat))
}

// OnDisconnect ends the match in favour of the seat that stayed.
func (r *Room) OnDisconnect(c *Connection) {
	seat := r.SeatOf(c)
	if seat < 0 || r.ended || r.status == RoomDisposed {
		return
	}
	other := 1 - seat
	r.Send(other, protocol.GameInfos{Type: protocol.GameForfeit})
	winner := engine.SeatWinner(other)
	if r.sim != nil {
		r.sim.Forfeit(winner)
	}
	if !r.ended {
		r.finish(engine.Result{Winner: winner, Forfeit: true})
	}
}

func (r *Room) finish(res engine.Result) {
	if r.ended {
		return
	}
	r.ended = true
	r.result = res
	r.sendAll(protocol.GameInfos{Type: protocol.GameEnd, Result: &protocol.GameResult{
		Winner:     res.Winner,
		Forfeit:    res.Forfeit,
		ScoreLeft:  res.ScoreLeft,
		ScoreRight: res.ScoreRight,
		DurationMS: res.Duration.Milliseconds(),
	}})
	r.Dispose()
}

// Dispose tears the room down and releases both seats. Safe to call twice.
func (r *Room) Dispose() {
	if r.status == RoomDisposed {
		return
	}
	r.status = RoomDisposed
	if !r.ended {
		r.ended = true
		r.result = engine.Result{Winner: models.WinnerDraw}
	}
	r.sendAll(protocol.RoomClosed{RoomID: r.id})
	r.timer.cancel()
	r.handlers = nil
	r.forfeitArmed = [2]bool{}
	if r.sim != nil {
		r.disposeSimulation()
	}
	for _, c := range r.conns {
		r.release(c)
	}
	onEnd := r.onEnd
	r.onEnd = nil
	if onEnd != nil {
		onEnd(r, r.result)
	}
}

func (r *Room) disposeSimulation() {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Simulation panicked on dispose", slog.String("panic", fmt.Sprint(p)))
		}
	}()
	r.sim.Dispose()
}

func (r *Room) release(c *Connection) {
	if c.room != r {
		return
	}
	c.room = nil
	c.seat = -1
	switch {
	case c.state == StateTournamentPlaying && c.tournament != nil:
		c.state = StateTournamentWaiting
	case c.state == StatePlaying || c.state == StateTournamentPlaying:
		c.state = StateUnactive
	}
}

// roomEvents forwards simulation output to the seats.
type roomEvents struct {
	r *Room
}

func (e roomEvents) GameStart() {
	if e.r.status != RoomStarted {
		return
	}
	e.r.sendAll(protocol.GameInfos{Type: protocol.GameStart})
}

func (e roomEvents) Score(seat, score int) {
	if e.r.status != RoomStarted {
		return
	}
	kind := protocol.GameLeftScore
	if e.r.checkSeat(seat) == 1 {
		kind = protocol.GameRightScore
	}
	e.r.sendAll(protocol.GameInfos{Type: kind, Score: score})
}

func (e roomEvents) Relay(fromSeat int, payload json.RawMessage) {
	if e.r.status != RoomStarted {
		return
	}
	e.r.Broadcast(fromSeat, protocol.GameInfos{Type: protocol.GameOpponentMove, Payload: payload})
}

func (e roomEvents) End(res engine.Result) {
	if e.r.status != RoomStarted {
		return
	}
	e.r.finish(res)
}

// matchRecord builds the persisted record of a finished room.
func matchRecord(r *Room, res engine.Result, tournamentID string, at time.Time) models.MatchRecord {
	rec := models.MatchRecord{
		WinnerIndicator: res.Winner,
		ScoreLeft:       res.ScoreLeft,
		ScoreRight:      res.ScoreRight,
		Duration:        res.Duration.Milliseconds(),
		Forfeit:         res.Forfeit,
		CreatedAt:       at,
	}
	if tournamentID != "" {
		rec.TournamentID = &tournamentID
	}
	rec.LeftID, rec.LeftGuestName = sideIdentity(r.profiles[0])
	rec.RightID, rec.RightGuestName = sideIdentity(r.profiles[1])
	return rec
}

func sideIdentity(p models.Profile) (*int, *string) {
	if p.IsGuest() {
		name := p.Name
		return nil, &name
	}
	id := p.ID
	return &id, nil
}
