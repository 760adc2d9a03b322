package game

import (
	"log/slog"
	"slices"
	"time"

	"github.com/Dosada05/pong-arena/engine"
	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/protocol"
)

// MatchmakingQueue pairs waiting connections into rooms. The newest waiter
// gets seat 0.
type MatchmakingQueue struct {
	waiting []*Connection
	rooms   map[*Room]struct{}
	factory RoomFactory
	record  func(models.MatchRecord)
	now     func() time.Time
	logger  *slog.Logger
}

func NewMatchmakingQueue(factory RoomFactory, record func(models.MatchRecord), logger *slog.Logger) *MatchmakingQueue {
	return &MatchmakingQueue{
		rooms:   make(map[*Room]struct{}),
		factory: factory,
		record:  record,
		now:     time.Now,
		logger:  logger,
	}
}

// Enqueue puts an idle connection in the queue and pairs if possible.
func (q *MatchmakingQueue) Enqueue(c *Connection) error {
	if c.state != StateUnactive {
		return ErrAlreadyActive
	}
	c.state = StateWaiting
	q.waiting = append(q.waiting, c)
	q.logger.Debug("Connection queued", slog.String("conn_id", c.id), slog.Int("waiting", len(q.waiting)))
	q.tryPairNext()
	return nil
}

// Dequeue takes c out of the queue. No-op unless c is waiting.
func (q *MatchmakingQueue) Dequeue(c *Connection) {
	if c.state != StateWaiting {
		return
	}
	if i := slices.Index(q.waiting, c); i >= 0 {
		q.waiting = slices.Delete(q.waiting, i, i+1)
	}
	c.state = StateUnactive
}

func (q *MatchmakingQueue) Waiting() int { return len(q.waiting) }
func (q *MatchmakingQueue) Rooms() int   { return len(q.rooms) }

func (q *MatchmakingQueue) tryPairNext() {
	if len(q.waiting) < 2 {
		return
	}
	left := q.pop()
	right := q.pop()
	left.state = StateUnactive
	right.state = StateUnactive

	room, err := q.factory.New(left, right, q.onRoomEnd)
	if err != nil {
		q.logger.Error("Failed to open matchmaking room",
			slog.String("severity", "CRITICAL"),
			slog.Any("error", err))
		left.Send(protocol.RoomClosed{})
		if right != left {
			right.Send(protocol.RoomClosed{})
		}
		return
	}
	q.rooms[room] = struct{}{}
}

func (q *MatchmakingQueue) pop() *Connection {
	last := len(q.waiting) - 1
	c := q.waiting[last]
	q.waiting[last] = nil
	q.waiting = q.waiting[:last]
	return c
}

func (q *MatchmakingQueue) onRoomEnd(r *Room, res engine.Result) {
	delete(q.rooms, r)
	q.record(matchRecord(r, res, "", q.now()))
}

// Shutdown disposes every live room.
func (q *MatchmakingQueue) Shutdown() {
	for r := range q.rooms {
		r.Dispose()
	}
}
