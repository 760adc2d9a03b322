package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Dosada05/pong-arena/engine"
	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roomFixture struct {
	room        *Room
	left, right *Connection
	ls, rs      *recordingSender
	sched       *fakeScheduler
	sims        *simFactory
	ends        []engine.Result
}

func newRoomFixture(t *testing.T) *roomFixture {
	t.Helper()
	f := &roomFixture{sched: &fakeScheduler{}, sims: &simFactory{auto: true}}
	f.left, f.ls = guestConn("left")
	f.right, f.rs = guestConn("right")
	room, err := testRoomFactory(f.sched, f.sims.New).New(f.left, f.right, func(_ *Room, res engine.Result) {
		f.ends = append(f.ends, res)
	})
	require.NoError(t, err)
	f.room = room
	return f
}

func (f *roomFixture) startMatch() *scriptedSim {
	f.room.OnReady(f.left)
	f.room.OnReady(f.right)
	f.sched.fire()
	return f.sims.last()
}

func TestRoom_SeatsBothConnections(t *testing.T) {
	f := newRoomFixture(t)

	assert.Equal(t, RoomWaitingReady, f.room.Status())
	assert.Equal(t, StatePlaying, f.left.State())
	assert.Equal(t, StatePlaying, f.right.State())
	assert.Same(t, f.room, f.left.Room())
	assert.Equal(t, 0, f.room.SeatOf(f.left))
	assert.Equal(t, 1, f.room.SeatOf(f.right))

	jg, ok := f.ls.joinedGame()
	require.True(t, ok)
	assert.Equal(t, 0, jg.PlayerIndex)
	assert.Equal(t, "right", jg.Opponent.Name)
	assert.Equal(t, f.room.ID(), jg.RoomID)

	jg, ok = f.rs.joinedGame()
	require.True(t, ok)
	assert.Equal(t, 1, jg.PlayerIndex)
	assert.Equal(t, "left", jg.Opponent.Name)
}

func TestRoom_RejectsBusyConnections(t *testing.T) {
	a, _ := guestConn("a")
	b, _ := guestConn("b")
	b.state = StateWaiting
	factory := testRoomFactory(&fakeScheduler{}, (&simFactory{}).New)

	_, err := factory.New(a, b, nil)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	_, err = factory.New(a, a, nil)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, StateUnactive, a.State())
}

func TestRoom_StartsAfterBothReadyAndDelay(t *testing.T) {
	f := newRoomFixture(t)

	f.room.OnReady(f.left)
	f.room.OnReady(f.left)
	assert.Equal(t, RoomWaitingReady, f.room.Status())
	assert.Empty(t, f.sims.sims)

	f.room.OnReady(f.right)
	assert.Equal(t, RoomStarted, f.room.Status())
	require.Len(t, f.sims.sims, 1)
	assert.Zero(t, f.sims.last().started)
	require.Equal(t, 1, f.sched.pending())
	assert.Equal(t, 3*time.Second, f.sched.timers[0].d)

	f.sched.fire()
	assert.Equal(t, 1, f.sims.last().started)
	assert.Len(t, f.ls.gameInfos(protocol.GameStart), 1)
	assert.Len(t, f.rs.gameInfos(protocol.GameStart), 1)

	f.room.OnReady(f.right)
	assert.Len(t, f.sims.sims, 1)
}

func TestRoom_RelaysAndScores(t *testing.T) {
	f := newRoomFixture(t)
	sim := f.startMatch()

	f.room.Dispatch(f.left, EventInput, json.RawMessage(`{"kind":"paddle","y":1}`))
	require.Len(t, sim.inputs, 1)

	sim.events.Relay(0, json.RawMessage(`{"kind":"paddle","y":1}`))
	moves := f.rs.gameInfos(protocol.GameOpponentMove)
	require.Len(t, moves, 1)
	assert.JSONEq(t, `{"kind":"paddle","y":1}`, string(moves[0].Payload))
	assert.Empty(t, f.ls.gameInfos(protocol.GameOpponentMove))

	sim.events.Score(1, 2)
	scores := f.ls.gameInfos(protocol.GameRightScore)
	require.Len(t, scores, 1)
	assert.Equal(t, 2, scores[0].Score)
	assert.Len(t, f.rs.gameInfos(protocol.GameRightScore), 1)
}

func TestRoom_EndDisposesOnce(t *testing.T) {
	f := newRoomFixture(t)
	sim := f.startMatch()

	result := engine.Result{Winner: models.WinnerLeft, ScoreLeft: 5, ScoreRight: 3, Duration: 120 * time.Millisecond}
	sim.events.End(result)
	sim.events.End(engine.Result{Winner: models.WinnerRight})

	assert.Equal(t, RoomDisposed, f.room.Status())
	require.Len(t, f.ends, 1)
	assert.Equal(t, result, f.ends[0])
	assert.Equal(t, 1, sim.disposed)

	ends := f.ls.gameInfos(protocol.GameEnd)
	require.Len(t, ends, 1)
	assert.Equal(t, &protocol.GameResult{Winner: models.WinnerLeft, ScoreLeft: 5, ScoreRight: 3, DurationMS: 120}, ends[0].Result)
	assert.Equal(t, 1, f.ls.count("room-closed"))
	assert.Equal(t, 1, f.rs.count("room-closed"))

	assert.Equal(t, StateUnactive, f.left.State())
	assert.Equal(t, StateUnactive, f.right.State())
	assert.Nil(t, f.left.Room())
	assert.Equal(t, -1, f.left.Seat())
}

func TestRoom_DisconnectWhileStarted(t *testing.T) {
	f := newRoomFixture(t)
	sim := f.startMatch()

	f.room.OnDisconnect(f.left)

	assert.Len(t, f.rs.gameInfos(protocol.GameForfeit), 1)
	assert.Empty(t, f.ls.gameInfos(protocol.GameForfeit))
	assert.Equal(t, []models.Winner{models.WinnerRight}, sim.forfeits)
	require.Len(t, f.ends, 1)
	assert.Equal(t, models.WinnerRight, f.ends[0].Winner)
	assert.True(t, f.ends[0].Forfeit)
	assert.Equal(t, RoomDisposed, f.room.Status())
}

func TestRoom_DisconnectBeforeStart(t *testing.T) {
	f := newRoomFixture(t)
	f.room.OnReady(f.left)

	f.room.OnDisconnect(f.right)

	assert.Empty(t, f.sims.sims)
	require.Len(t, f.ends, 1)
	assert.Equal(t, engine.Result{Winner: models.WinnerLeft, Forfeit: true}, f.ends[0])
	assert.Len(t, f.ls.gameInfos(protocol.GameForfeit), 1)
	assert.Equal(t, StateUnactive, f.left.State())
}

func TestRoom_DisconnectWithSilentSimulation(t *testing.T) {
	f := newRoomFixture(t)
	f.sims.auto = false
	f.startMatch()

	f.room.OnDisconnect(f.right)

	require.Len(t, f.ends, 1)
	assert.Equal(t, models.WinnerLeft, f.ends[0].Winner)
}

func TestRoom_ForfeitIsOneShot(t *testing.T) {
	f := newRoomFixture(t)
	f.sims.auto = false
	sim := f.startMatch()

	f.room.Forfeit(f.right)
	f.room.Forfeit(f.right)

	assert.Equal(t, []models.Winner{models.WinnerLeft}, sim.forfeits)
	assert.Len(t, f.ls.gameInfos(protocol.GameForfeit), 1)
}

func TestRoom_ForfeitBeforeStartIsIgnored(t *testing.T) {
	f := newRoomFixture(t)
	f.room.Forfeit(f.left)
	assert.Equal(t, RoomWaitingReady, f.room.Status())
	assert.Empty(t, f.ends)
}

func TestRoom_DisposeTwice(t *testing.T) {
	f := newRoomFixture(t)
	f.room.OnReady(f.left)
	f.room.OnReady(f.right)

	f.room.Dispose()
	f.room.Dispose()

	assert.Len(t, f.ends, 1)
	assert.Equal(t, models.WinnerDraw, f.ends[0].Winner)
	assert.Equal(t, 1, f.ls.count("room-closed"))
	assert.Equal(t, 1, f.rs.count("room-closed"))

	// The pending start must not fire into a disposed room.
	f.sched.fire()
	assert.Zero(t, f.sims.last().started)
}

func TestRoom_CallsAfterDisposeAreNoops(t *testing.T) {
	f := newRoomFixture(t)
	f.room.Dispose()
	f.ls.reset()

	assert.NotPanics(t, func() {
		f.room.OnReady(f.left)
		f.room.OnReady(f.right)
		f.room.Forfeit(f.left)
		f.room.OnDisconnect(f.left)
		f.room.Dispatch(f.left, EventInput, json.RawMessage(`{}`))
	})
	assert.Empty(t, f.ls.msgs)
	assert.Len(t, f.ends, 1)
}

func TestRoom_SimulationDisposePanicIsContained(t *testing.T) {
	f := newRoomFixture(t)
	f.room.OnReady(f.left)
	f.room.OnReady(f.right)
	f.room.sim = panickingSim{f.room.sim}

	assert.NotPanics(t, f.room.Dispose)
	assert.Len(t, f.ends, 1)
	assert.Equal(t, StateUnactive, f.left.State())
}

type panickingSim struct {
	engine.Simulation
}

func (panickingSim) Dispose() { panic("boom") }

func TestRoom_SendOutOfRangePanics(t *testing.T) {
	f := newRoomFixture(t)
	assert.Panics(t, func() { f.room.Send(2, protocol.RoomClosed{}) })
	assert.Panics(t, func() { f.room.Broadcast(-1, protocol.RoomClosed{}) })
}

func TestRoom_TournamentSeatsReturnToWaiting(t *testing.T) {
	a, _ := guestConn("a")
	b, _ := guestConn("b")
	tour := &Tournament{}
	for _, c := range []*Connection{a, b} {
		c.state = StateTournamentWaiting
		c.tournament = tour
	}

	room, err := testRoomFactory(&fakeScheduler{}, (&simFactory{}).New).New(a, b, nil)
	require.NoError(t, err)
	assert.Equal(t, StateTournamentPlaying, a.State())

	room.Dispose()
	assert.Equal(t, StateTournamentWaiting, a.State())
	assert.Equal(t, StateTournamentWaiting, b.State())
}
