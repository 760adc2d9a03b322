package game

import (
	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/protocol"
	"github.com/google/uuid"
)

// State is the activity a connection is currently engaged in.
type State int

const (
	StateUnactive State = iota
	StateWaiting
	StatePlaying
	StateTournamentWaiting
	StateTournamentPlaying
)

func (s State) String() string {
	switch s {
	case StateUnactive:
		return "unactive"
	case StateWaiting:
		return "waiting"
	case StatePlaying:
		return "playing"
	case StateTournamentWaiting:
		return "tournament-waiting"
	case StateTournamentPlaying:
		return "tournament-playing"
	default:
		return "unknown"
	}
}

// Sender delivers a server message to one client. Implementations must not block.
type Sender interface {
	Send(msg protocol.ServerMessage)
}

// Connection is one live client session. It is only touched on the loop.
type Connection struct {
	id      string
	sender  Sender
	profile models.Profile
	state   State
	alive   bool

	room       *Room
	seat       int
	tournament *Tournament

	authenticating bool
}

func newConnection(sender Sender, guest models.Profile) *Connection {
	return &Connection{
		id:      uuid.NewString(),
		sender:  sender,
		profile: guest,
		alive:   true,
		seat:    -1,
	}
}

func (c *Connection) ID() string              { return c.id }
func (c *Connection) Profile() models.Profile { return c.profile }
func (c *Connection) State() State            { return c.state }
func (c *Connection) Room() *Room             { return c.room }
func (c *Connection) Tournament() *Tournament { return c.tournament }
func (c *Connection) Alive() bool             { return c.alive }
func (c *Connection) IsGuest() bool           { return c.profile.IsGuest() }
func (c *Connection) UserID() int             { return c.profile.ID }
func (c *Connection) Seat() int               { return c.seat }

// Send is a no-op once the connection is closed.
func (c *Connection) Send(msg protocol.ServerMessage) {
	if !c.alive {
		return
	}
	c.sender.Send(msg)
}
