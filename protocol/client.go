// Package protocol defines the frames exchanged over a player's websocket.
// Every inbound event has a concrete type; anything else is rejected at decode time.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/pong-arena/models"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformedFrame = errors.New("frame is not a valid envelope")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

const maxInputPayload = 1024

var validate = validator.New(validator.WithRequiredStructEnabled())

// ClientMessage is the closed set of client→server events.
type ClientMessage interface {
	Event() string
	isClientMessage()
}

type Authenticate struct {
	Token string `json:"token" validate:"required,max=4096"`
}

type JoinMatchmaking struct{}

type LeaveMatchmaking struct{}

type CreateTournament struct {
	// Settings are validated by the tournament registry so the client gets a
	// dedicated error code.
	Settings models.TournamentSettings `json:"settings" validate:"-"`
	Alias    string                    `json:"alias,omitempty"`
}

type JoinTournament struct {
	ID    string `json:"id" validate:"required,uuid"`
	Alias string `json:"alias,omitempty"`
}

type LeaveTournament struct{}

type GetTournaments struct{}

type StartTournament struct{}

type CancelTournament struct{}

type BanParticipant struct {
	Name string `json:"name" validate:"required,max=32"`
}

type KickParticipant struct {
	Name string `json:"name" validate:"required,max=32"`
}

type WatchProfile struct {
	IDs []int `json:"ids" validate:"required,max=256,dive,gt=0"`
}

type UnwatchProfile struct {
	IDs []int `json:"ids" validate:"required,max=256,dive,gt=0"`
}

type Ready struct{}

// InputInfos carries raw player input. The server never interprets it beyond
// handing it to the simulation.
type InputInfos struct {
	Payload json.RawMessage
}

type Forfeit struct{}

type Logout struct{}

func (Authenticate) Event() string     { return "authenticate" }
func (JoinMatchmaking) Event() string  { return "join-matchmaking" }
func (LeaveMatchmaking) Event() string { return "leave-matchmaking" }
func (CreateTournament) Event() string { return "create-tournament" }
func (JoinTournament) Event() string   { return "join-tournament" }
func (LeaveTournament) Event() string  { return "leave-tournament" }
func (GetTournaments) Event() string   { return "get-tournaments" }
func (StartTournament) Event() string  { return "tournament-start" }
func (CancelTournament) Event() string { return "tournament-cancel" }
func (BanParticipant) Event() string   { return "tournament-ban" }
func (KickParticipant) Event() string  { return "tournament-kick" }
func (WatchProfile) Event() string     { return "watch-profile" }
func (UnwatchProfile) Event() string   { return "unwatch-profile" }
func (Ready) Event() string            { return "ready" }
func (InputInfos) Event() string       { return "input-infos" }
func (Forfeit) Event() string          { return "forfeit" }
func (Logout) Event() string           { return "logout" }

func (Authenticate) isClientMessage()     {}
func (JoinMatchmaking) isClientMessage()  {}
func (LeaveMatchmaking) isClientMessage() {}
func (CreateTournament) isClientMessage() {}
func (JoinTournament) isClientMessage()   {}
func (LeaveTournament) isClientMessage()  {}
func (GetTournaments) isClientMessage()   {}
func (StartTournament) isClientMessage()  {}
func (CancelTournament) isClientMessage() {}
func (BanParticipant) isClientMessage()   {}
func (KickParticipant) isClientMessage()  {}
func (WatchProfile) isClientMessage()     {}
func (UnwatchProfile) isClientMessage()   {}
func (Ready) isClientMessage()            {}
func (InputInfos) isClientMessage()       {}
func (Forfeit) isClientMessage()          {}
func (Logout) isClientMessage()           {}

var clientMessages = map[string]func() ClientMessage{
	"authenticate":      func() ClientMessage { return &Authenticate{} },
	"join-matchmaking":  func() ClientMessage { return &JoinMatchmaking{} },
	"leave-matchmaking": func() ClientMessage { return &LeaveMatchmaking{} },
	"create-tournament": func() ClientMessage { return &CreateTournament{} },
	"join-tournament":   func() ClientMessage { return &JoinTournament{} },
	"leave-tournament":  func() ClientMessage { return &LeaveTournament{} },
	"get-tournaments":   func() ClientMessage { return &GetTournaments{} },
	"tournament-start":  func() ClientMessage { return &StartTournament{} },
	"tournament-cancel": func() ClientMessage { return &CancelTournament{} },
	"tournament-ban":    func() ClientMessage { return &BanParticipant{} },
	"tournament-kick":   func() ClientMessage { return &KickParticipant{} },
	"watch-profile":     func() ClientMessage { return &WatchProfile{} },
	"unwatch-profile":   func() ClientMessage { return &UnwatchProfile{} },
	"ready":             func() ClientMessage { return &Ready{} },
	"forfeit":           func() ClientMessage { return &Forfeit{} },
	"logout":            func() ClientMessage { return &Logout{} },
}

type envelope struct {
	Event string          `json:"event"`
	Ack   *int64          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Request is a decoded inbound frame. Ack is nil when the client did not ask
// for an acknowledgement.
type Request struct {
	Ack     *int64
	Message ClientMessage
}

// Decode parses and validates one inbound frame. When the envelope itself is
// readable the returned Request carries the ack id even on error, so the
// caller can still answer.
func Decode(frame []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	req := Request{Ack: env.Ack}

	if env.Event == "input-infos" {
		msg, err := decodeInput(env.Data)
		if err != nil {
			return req, err
		}
		req.Message = msg
		return req, nil
	}

	factory, ok := clientMessages[env.Event]
	if !ok {
		return req, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	msg := factory()
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(env.Data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(msg); err != nil {
			return req, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Event, err)
		}
	}
	if err := validate.Struct(msg); err != nil {
		return req, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Event, err)
	}
	req.Message = deref(msg)
	return req, nil
}

func decodeInput(data json.RawMessage) (InputInfos, error) {
	if len(data) == 0 || len(data) > maxInputPayload || !json.Valid(data) {
		return InputInfos{}, fmt.Errorf("%w: input-infos must be a JSON value up to %d bytes", ErrInvalidPayload, maxInputPayload)
	}
	return InputInfos{Payload: append(json.RawMessage(nil), data...)}, nil
}

// deref turns the pointer used for decoding back into the value type handlers switch on.
func deref(msg ClientMessage) ClientMessage {
	switch m := msg.(type) {
	case *Authenticate:
		return *m
	case *JoinMatchmaking:
		return *m
	case *LeaveMatchmaking:
		return *m
	case *CreateTournament:
		return *m
	case *JoinTournament:
		return *m
	case *LeaveTournament:
		return *m
	case *GetTournaments:
		return *m
	case *StartTournament:
		return *m
	case *CancelTournament:
		return *m
	case *BanParticipant:
		return *m
	case *KickParticipant:
		return *m
	case *WatchProfile:
		return *m
	case *UnwatchProfile:
		return *m
	case *Ready:
		return *m
	case *Forfeit:
		return *m
	case *Logout:
		return *m
	}
	return msg
}
