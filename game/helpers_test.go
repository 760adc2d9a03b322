package game

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/pong-arena/engine"
	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() { t.stopped = true }

// fakeScheduler only runs timers when the test says so.
type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fire runs the timers pending right now. Timers they schedule wait for the next call.
func (s *fakeScheduler) fire() {
	snapshot := append([]*fakeTimer(nil), s.timers...)
	for _, t := range snapshot {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.fn()
	}
}

type recordingSender struct {
	msgs []protocol.ServerMessage
}

func (r *recordingSender) Send(msg protocol.ServerMessage) {
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) reset() { r.msgs = nil }

func (r *recordingSender) gameInfos(kind string) []protocol.GameInfos {
	var out []protocol.GameInfos
	for _, m := range r.msgs {
		if gi, ok := m.(protocol.GameInfos); ok && gi.Type == kind {
			out = append(out, gi)
		}
	}
	return out
}

func (r *recordingSender) tournamentEvents(kind string) []protocol.TournamentEvent {
	var out []protocol.TournamentEvent
	for _, m := range r.msgs {
		if ev, ok := m.(protocol.TournamentEvent); ok && ev.Type == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordingSender) count(event string) int {
	n := 0
	for _, m := range r.msgs {
		if m.Event() == event {
			n++
		}
	}
	return n
}

func (r *recordingSender) acks() []protocol.Ack {
	var out []protocol.Ack
	for _, m := range r.msgs {
		if a, ok := m.(protocol.Ack); ok {
			out = append(out, a)
		}
	}
	return out
}

func (r *recordingSender) lastAck() protocol.Ack {
	acks := r.acks()
	if len(acks) == 0 {
		return protocol.Ack{ID: -1}
	}
	return acks[len(acks)-1]
}

func (r *recordingSender) joinedGame() (protocol.JoinedGame, bool) {
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if jg, ok := r.msgs[i].(protocol.JoinedGame); ok {
			return jg, true
		}
	}
	return protocol.JoinedGame{}, false
}

// scriptedSim lets a test emit simulation events by hand.
type scriptedSim struct {
	events   engine.Events
	started  int
	inputs   []json.RawMessage
	forfeits []models.Winner
	disposed int
	auto     bool
}

func (s *scriptedSim) Start() {
	s.started++
	s.events.GameStart()
}

func (s *scriptedSim) Input(seat int, payload json.RawMessage) {
	s.inputs = append(s.inputs, payload)
}

// Forfeit ends the match like a real simulation would when auto is set.
func (s *scriptedSim) Forfeit(winner models.Winner) {
	s.forfeits = append(s.forfeits, winner)
	if s.auto {
		s.events.End(engine.Result{Winner: winner, Forfeit: true})
	}
}

func (s *scriptedSim) Dispose() { s.disposed++ }

type simFactory struct {
	auto bool
	sims []*scriptedSim
}

func (f *simFactory) New(events engine.Events) engine.Simulation {
	sim := &scriptedSim{events: events, auto: f.auto}
	f.sims = append(f.sims, sim)
	return sim
}

func (f *simFactory) last() *scriptedSim {
	return f.sims[len(f.sims)-1]
}

func guestConn(name string) (*Connection, *recordingSender) {
	sender := &recordingSender{}
	return newConnection(sender, models.Profile{Name: name}), sender
}

func userConn(id int, name string) (*Connection, *recordingSender) {
	sender := &recordingSender{}
	return newConnection(sender, models.Profile{ID: id, Name: name}), sender
}

func testRoomFactory(sched Scheduler, sims engine.Factory) RoomFactory {
	return RoomFactory{
		Scheduler:     sched,
		NewSimulation: sims,
		StartDelay:    3 * time.Second,
		Logger:        discardLogger(),
	}
}

type fakeVerifier struct {
	tokens map[string]int
}

func (v fakeVerifier) Verify(token string, refresh bool) (models.Identity, error) {
	id, ok := v.tokens[token]
	if !ok || refresh {
		return models.Identity{}, ErrUnauthorized
	}
	return models.Identity{UserID: id}, nil
}

type fakeProfiles struct {
	profiles map[int]models.Profile
	friends  map[int][]int
}

func (p fakeProfiles) GetProfile(_ context.Context, id int) (models.Profile, error) {
	prof, ok := p.profiles[id]
	if !ok {
		return models.Profile{}, errors.New("no such user")
	}
	return prof, nil
}

func (p fakeProfiles) GetFriendIDs(_ context.Context, id int) ([]int, error) {
	return p.friends[id], nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []models.MatchRecord
}

func (m *memoryRecorder) RegisterMatch(_ context.Context, rec *models.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

type memoryArchiver struct {
	archives []models.TournamentArchive
}

func (m *memoryArchiver) Archive(_ context.Context, a models.TournamentArchive) error {
	m.archives = append(m.archives, a)
	return nil
}

type testServer struct {
	*Server
	sched    *fakeScheduler
	sims     *simFactory
	recorder *memoryRecorder
	archiver *memoryArchiver
}

// newTestServer builds a Server whose loop hops and async work run inline.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		sched:    &fakeScheduler{},
		sims:     &simFactory{auto: true},
		recorder: &memoryRecorder{},
		archiver: &memoryArchiver{},
	}
	ts.Server = NewServer(ServerDeps{
		Loop:      NewLoop(discardLogger()),
		Scheduler: ts.sched,
		Verifier:  fakeVerifier{tokens: map[string]int{"alice-token": 1, "bob-token": 2}},
		Profiles: fakeProfiles{
			profiles: map[int]models.Profile{
				1: {ID: 1, Name: "alice", Avatar: "/a.png"},
				2: {ID: 2, Name: "bob"},
			},
			friends: map[int][]int{1: {2}},
		},
		Recorder:      ts.recorder,
		Archiver:      ts.archiver,
		NewSimulation: ts.sims.New,
		StartDelay:    time.Second,
		RoundDelay:    2 * time.Second,
		ReadyTimeout:  time.Minute,
		DefaultAvatar: "/default.png",
		Logger:        discardLogger(),
	})
	ts.post = func(fn func()) { fn() }
	ts.goAsync = func(fn func()) { fn() }
	return ts
}

func (ts *testServer) join() (*Connection, *recordingSender) {
	sender := &recordingSender{}
	return ts.connect(sender), sender
}

func (ts *testServer) send(c *Connection, frame string) {
	ts.Receive(c, []byte(frame))
}
