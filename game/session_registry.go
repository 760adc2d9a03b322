package game

import (
	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/protocol"
)

type connSet map[*Connection]struct{}

// SessionRegistry tracks live connections, which users are online and who is
// watching whose presence.
type SessionRegistry struct {
	connections map[string]*Connection
	byUser      map[int]connSet
	watchers    map[int]connSet
	watching    map[*Connection]map[int]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	r := &SessionRegistry{}
	r.Reset()
	return r
}

// Reset drops every entry.
func (r *SessionRegistry) Reset() {
	r.connections = make(map[string]*Connection)
	r.byUser = make(map[int]connSet)
	r.watchers = make(map[int]connSet)
	r.watching = make(map[*Connection]map[int]struct{})
}

func (r *SessionRegistry) Add(c *Connection) {
	r.connections[c.id] = c
}

func (r *SessionRegistry) Get(id string) (*Connection, bool) {
	c, ok := r.connections[id]
	return c, ok
}

func (r *SessionRegistry) Len() int {
	return len(r.connections)
}

// OnlineUsers is the number of distinct authenticated users connected.
func (r *SessionRegistry) OnlineUsers() int {
	return len(r.byUser)
}

// Remove forgets c entirely: its user binding and its watches.
func (r *SessionRegistry) Remove(c *Connection) {
	r.Unbind(c)
	r.Unwatch(c, nil)
	delete(r.connections, c.id)
}

// Bind attaches an authenticated profile to c. The first connection of a
// user turns the user online.
func (r *SessionRegistry) Bind(c *Connection, profile models.Profile) {
	c.profile = profile
	set, ok := r.byUser[profile.ID]
	if !ok {
		set = make(connSet)
		r.byUser[profile.ID] = set
	}
	set[c] = struct{}{}
	if !ok {
		r.notify(profile.ID, models.UserStatusOnline)
	}
}

// Unbind detaches c from its user. The last connection of a user turns the
// user offline. The connection keeps its profile; callers replace it.
func (r *SessionRegistry) Unbind(c *Connection) {
	if c.IsGuest() {
		return
	}
	id := c.profile.ID
	set, ok := r.byUser[id]
	if !ok {
		return
	}
	if _, bound := set[c]; !bound {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.byUser, id)
		r.notify(id, models.UserStatusOffline)
	}
}

func (r *SessionRegistry) IsOnline(userID int) bool {
	return len(r.byUser[userID]) > 0
}

// Connections returns the live connections of a user.
func (r *SessionRegistry) Connections(userID int) []*Connection {
	set := r.byUser[userID]
	out := make([]*Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Watch subscribes c to presence changes of ids and sends their current status.
func (r *SessionRegistry) Watch(c *Connection, ids []int) {
	mine, ok := r.watching[c]
	if !ok {
		mine = make(map[int]struct{})
		r.watching[c] = mine
	}
	for _, id := range ids {
		set, ok := r.watchers[id]
		if !ok {
			set = make(connSet)
			r.watchers[id] = set
		}
		set[c] = struct{}{}
		mine[id] = struct{}{}
		c.Send(protocol.UserStatusChange{UserID: id, Status: r.status(id)})
	}
}

// Unwatch removes the given watches of c, or all of them when ids is nil.
func (r *SessionRegistry) Unwatch(c *Connection, ids []int) {
	mine := r.watching[c]
	if ids == nil {
		for id := range mine {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		if set, ok := r.watchers[id]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(r.watchers, id)
			}
		}
		delete(mine, id)
	}
	if len(mine) == 0 {
		delete(r.watching, c)
	}
}

func (r *SessionRegistry) status(userID int) models.UserStatus {
	if r.IsOnline(userID) {
		return models.UserStatusOnline
	}
	return models.UserStatusOffline
}

func (r *SessionRegistry) notify(userID int, status models.UserStatus) {
	msg := protocol.UserStatusChange{UserID: userID, Status: status}
	for c := range r.watchers[userID] {
		c.Send(msg)
	}
}
