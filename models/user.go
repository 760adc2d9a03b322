package models

import "time"

// Profile is what other players see of a connection: a registered user or a guest.
type Profile struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// IsGuest reports whether the profile belongs to an unauthenticated connection.
func (p Profile) IsGuest() bool {
	return p.ID == 0
}

// UserStatus is the presence status broadcast to watchers.
type UserStatus string

const (
	UserStatusOnline  UserStatus = "online"
	UserStatusOffline UserStatus = "offline"
)

// Identity is what a verified access token proves about its bearer.
type Identity struct {
	UserID int
	Email  string
}

// User is the stored account row the profile lookup reads. Accounts are
// managed elsewhere; this server never writes them.
type User struct {
	ID        int       `json:"id"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	LogoKey   *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
