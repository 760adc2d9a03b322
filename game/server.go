package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/pong-arena/engine"
	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/protocol"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const collaboratorTimeout = 5 * time.Second

type TokenVerifier interface {
	Verify(token string, refresh bool) (models.Identity, error)
}

type ProfileLookup interface {
	GetProfile(ctx context.Context, userID int) (models.Profile, error)
	GetFriendIDs(ctx context.Context, userID int) ([]int, error)
}

type MatchRecorder interface {
	RegisterMatch(ctx context.Context, rec *models.MatchRecord) error
}

type TournamentArchiver interface {
	Archive(ctx context.Context, archive models.TournamentArchive) error
}

// ServerDeps wires a Server. Scheduler defaults to Loop; Archiver is optional.
type ServerDeps struct {
	Loop          *Loop
	Scheduler     Scheduler
	Verifier      TokenVerifier
	Profiles      ProfileLookup
	Recorder      MatchRecorder
	Archiver      TournamentArchiver
	NewSimulation engine.Factory
	StartDelay    time.Duration
	RoundDelay    time.Duration
	ReadyTimeout  time.Duration
	DefaultAvatar string
	Logger        *slog.Logger
}

// Stats is a snapshot of live state.
type Stats struct {
	Connections int `json:"connections"`
	OnlineUsers int `json:"online_users"`
	Waiting     int `json:"waiting"`
	Rooms       int `json:"rooms"`
	Tournaments int `json:"tournaments"`
}

// Server dispatches client events to the session registry, the matchmaking
// queue, rooms and tournaments. Its unexported methods run on the loop.
type Server struct {
	loop        *Loop
	sessions    *SessionRegistry
	queue       *MatchmakingQueue
	tournaments *TournamentRegistry

	verifier      TokenVerifier
	profiles      ProfileLookup
	recorder      MatchRecorder
	archiver      TournamentArchiver
	defaultAvatar string
	logger        *slog.Logger

	post    func(func())
	goAsync func(func())
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		loop:          deps.Loop,
		sessions:      NewSessionRegistry(),
		verifier:      deps.Verifier,
		profiles:      deps.Profiles,
		recorder:      deps.Recorder,
		archiver:      deps.Archiver,
		defaultAvatar: deps.DefaultAvatar,
		logger:        deps.Logger,
		goAsync:       func(fn func()) { go fn() },
	}
	s.post = func(fn func()) {
		if !s.loop.Post(fn) {
			s.logger.Warn("Dropped task posted after the event loop stopped")
		}
	}

	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = deps.Loop
	}
	rooms := RoomFactory{
		Scheduler:     scheduler,
		NewSimulation: deps.NewSimulation,
		StartDelay:    deps.StartDelay,
		Logger:        deps.Logger,
	}
	s.queue = NewMatchmakingQueue(rooms, s.recordMatch, deps.Logger)
	s.tournaments = NewTournamentRegistry(TournamentOptions{
		Rooms:        rooms,
		Scheduler:    scheduler,
		RoundDelay:   deps.RoundDelay,
		ReadyTimeout: deps.ReadyTimeout,
		Record:       s.recordMatch,
		Archive:      s.archiveTournament,
		Logger:       deps.Logger,
	})
	return s
}

// Attach registers a new guest connection delivering through sender.
func (s *Server) Attach(ctx context.Context, sender Sender) (*Connection, error) {
	var c *Connection
	if err := s.loop.Call(ctx, func() { c = s.connect(sender) }); err != nil {
		return nil, err
	}
	return c, nil
}

// Receive decodes a client frame and queues it for the loop.
func (s *Server) Receive(c *Connection, frame []byte) {
	req, err := protocol.Decode(frame)
	s.post(func() { s.handle(c, req, err) })
}

// Detach queues the disconnection of c.
func (s *Server) Detach(c *Connection) {
	s.post(func() { s.disconnect(c) })
}

// PublicTournaments lists the tournaments an anonymous guest could join.
func (s *Server) PublicTournaments(ctx context.Context) ([]models.TournamentDescription, error) {
	var out []models.TournamentDescription
	err := s.loop.Call(ctx, func() { out = s.tournaments.ListPublicDescriptions(nil) })
	return out, err
}

func (s *Server) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.loop.Call(ctx, func() { st = s.stats() })
	return st, err
}

// ReapIdleTournaments cancels tournaments left in creation longer than maxAge.
func (s *Server) ReapIdleTournaments(maxAge time.Duration) {
	s.post(func() {
		if n := s.tournaments.ReapIdle(time.Now(), maxAge); n > 0 {
			s.logger.Info("Idle tournaments reaped", slog.Int("count", n))
		}
	})
}

// Shutdown closes every room and tournament.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.loop.Call(ctx, func() {
		s.tournaments.Shutdown()
		s.queue.Shutdown()
	})
}

func (s *Server) stats() Stats {
	return Stats{
		Connections: s.sessions.Len(),
		OnlineUsers: s.sessions.OnlineUsers(),
		Waiting:     s.queue.Waiting(),
		Rooms:       s.queue.Rooms() + s.tournaments.LiveRooms(),
		Tournaments: s.tournaments.Len(),
	}
}

func (s *Server) newGuest() models.Profile {
	return models.Profile{
		Name:   "Guest-" + uuid.NewString()[:8],
		Avatar: s.defaultAvatar,
	}
}

func (s *Server) connect(sender Sender) *Connection {
	guest := s.newGuest()
	c := newConnection(sender, guest)
	s.sessions.Add(c)
	c.Send(protocol.Init{GuestName: guest.Name, Profile: guest})
	s.logger.Debug("Connection attached", slog.String("conn_id", c.id))
	return c
}

func (s *Server) disconnect(c *Connection) {
	if !c.alive {
		return
	}
	c.alive = false
	s.leaveAll(c)
	s.sessions.Remove(c)
	s.logger.Debug("Connection detached", slog.String("conn_id", c.id))
}

// leaveAll takes c out of whatever activity it is in, forfeiting live matches.
func (s *Server) leaveAll(c *Connection) {
	s.queue.Dequeue(c)
	if t := c.tournament; t != nil {
		t.RemoveParticipant(c)
	}
	if r := c.room; r != nil {
		r.OnDisconnect(c)
	}
}

func (s *Server) handle(c *Connection, req protocol.Request, decodeErr error) {
	if !c.alive {
		return
	}
	if decodeErr != nil {
		s.ack(c, req.Ack, nil, fmt.Errorf("%w: %v", ErrBadRequest, decodeErr))
		return
	}

	var (
		data any
		err  error
	)
	switch m := req.Message.(type) {
	case protocol.Authenticate:
		s.authenticate(c, req.Ack, m.Token)
		return
	case protocol.JoinMatchmaking:
		err = s.queue.Enqueue(c)
	case protocol.LeaveMatchmaking:
		s.queue.Dequeue(c)
	case protocol.CreateTournament:
		var t *Tournament
		if t, err = s.tournaments.Create(m.Settings, c, m.Alias); err == nil {
			data = t.Describe()
		}
	case protocol.JoinTournament:
		var t *Tournament
		if t, err = s.tournaments.Join(m.ID, c, m.Alias); err == nil {
			data = t.Participants()
		}
	case protocol.LeaveTournament:
		err = s.withTournament(c, func(t *Tournament) error {
			t.RemoveParticipant(c)
			return nil
		})
	case protocol.GetTournaments:
		data = s.tournaments.ListPublicDescriptions(c)
	case protocol.StartTournament:
		err = s.withTournament(c, func(t *Tournament) error { return t.Start(c) })
	case protocol.CancelTournament:
		err = s.withTournament(c, func(t *Tournament) error { return t.Cancel(c) })
	case protocol.BanParticipant:
		err = s.withTournament(c, func(t *Tournament) error { return t.Ban(c, m.Name) })
	case protocol.KickParticipant:
		err = s.withTournament(c, func(t *Tournament) error { return t.Kick(c, m.Name) })
	case protocol.WatchProfile:
		s.sessions.Watch(c, m.IDs)
	case protocol.UnwatchProfile:
		s.sessions.Unwatch(c, m.IDs)
	case protocol.Ready:
		switch {
		case c.room != nil:
			c.room.OnReady(c)
		case c.tournament != nil:
			c.tournament.SetReady(c)
		}
	case protocol.InputInfos:
		if c.room != nil {
			c.room.Dispatch(c, EventInput, m.Payload)
		}
		return
	case protocol.Forfeit:
		if c.room != nil {
			c.room.Forfeit(c)
		}
	case protocol.Logout:
		s.logout(c)
	default:
		err = fmt.Errorf("%w: unhandled event %T", ErrBadRequest, m)
	}
	s.ack(c, req.Ack, data, err)
}

func (s *Server) withTournament(c *Connection, fn func(t *Tournament) error) error {
	if c.tournament == nil {
		return ErrNotInTournament
	}
	return fn(c.tournament)
}

// authenticate verifies the token and loads the profile off the loop, then
// binds the user if c is still connected and idle.
func (s *Server) authenticate(c *Connection, ack *int64, token string) {
	if !c.IsGuest() || c.authenticating {
		s.ack(c, ack, nil, ErrAlreadyAuthenticated)
		return
	}
	if c.state != StateUnactive {
		s.ack(c, ack, nil, ErrAlreadyActive)
		return
	}
	c.authenticating = true
	s.goAsync(func() {
		profile, friends, err := s.resolve(token)
		s.post(func() {
			c.authenticating = false
			if !c.alive {
				return
			}
			if err == nil && c.state != StateUnactive {
				err = ErrAlreadyActive
			}
			if err != nil {
				s.ack(c, ack, nil, err)
				return
			}
			if profile.Avatar == "" {
				profile.Avatar = s.defaultAvatar
			}
			s.sessions.Bind(c, profile)
			s.sessions.Watch(c, friends)
			s.logger.Info("Connection authenticated",
				slog.String("conn_id", c.id),
				slog.Int("user_id", profile.ID))
			s.ack(c, ack, profile, nil)
		})
	})
}

func (s *Server) resolve(token string) (models.Profile, []int, error) {
	identity, err := s.verifier.Verify(token, false)
	if err != nil {
		return models.Profile{}, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var (
		profile models.Profile
		friends []int
	)
	g.Go(func() error {
		p, err := s.profiles.GetProfile(gctx, identity.UserID)
		if err != nil {
			return fmt.Errorf("load profile %d: %w", identity.UserID, err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		ids, err := s.profiles.GetFriendIDs(gctx, identity.UserID)
		if err != nil {
			return fmt.Errorf("load friends of %d: %w", identity.UserID, err)
		}
		friends = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Profile{}, nil, err
	}
	return profile, friends, nil
}

// logout turns an authenticated connection back into a fresh guest.
func (s *Server) logout(c *Connection) {
	if c.IsGuest() {
		return
	}
	s.leaveAll(c)
	s.sessions.Unbind(c)
	s.sessions.Unwatch(c, nil)
	guest := s.newGuest()
	c.profile = guest
	c.Send(protocol.Init{GuestName: guest.Name, Profile: guest})
}

func (s *Server) ack(c *Connection, id *int64, data any, err error) {
	if err != nil {
		s.logger.Debug("Request failed", slog.String("conn_id", c.id), slog.Any("error", err))
	}
	if id == nil {
		return
	}
	msg := protocol.Ack{ID: *id, Success: err == nil, Data: data}
	if err != nil {
		msg.Error = s.ackCodeForError(err)
		msg.Data = nil
	}
	c.Send(msg)
}

func (s *Server) ackCodeForError(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyActive):
		return "AlreadyActive"
	case errors.Is(err, ErrTournamentFull):
		return "TournamentFull"
	case errors.Is(err, ErrTournamentStarted):
		return "TournamentStarted"
	case errors.Is(err, ErrGuestsNotAllowed):
		return "GuestsNotAllowed"
	case errors.Is(err, ErrBanned):
		return "Banned"
	case errors.Is(err, ErrNameTaken):
		return "NameTaken"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNotInTournament):
		return "NotFound"
	case errors.Is(err, ErrNotCreator),
		errors.Is(err, ErrInvalidTarget):
		return "NotCreator"
	case errors.Is(err, ErrNotEnoughParticipants):
		return "NotEnoughParticipants"
	case errors.Is(err, ErrInvalidSettings):
		return "InvalidSettings"
	case errors.Is(err, ErrInvalidAlias):
		return "InvalidAlias"
	case errors.Is(err, ErrAlreadyAuthenticated):
		return "AlreadyAuthenticated"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrBadRequest):
		return "BadRequest"
	default:
		s.logger.Error("Unexpected request error", slog.Any("error", err))
		return "Internal"
	}
}

func (s *Server) recordMatch(rec models.MatchRecord) {
	if s.recorder == nil {
		return
	}
	s.goAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		if err := s.recorder.RegisterMatch(ctx, &rec); err != nil {
			s.logger.Error("Failed to record match",
				slog.String("winner", string(rec.WinnerIndicator)),
				slog.Any("error", err))
		}
	})
}

func (s *Server) archiveTournament(a models.TournamentArchive) {
	if s.archiver == nil {
		return
	}
	s.goAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		if err := s.archiver.Archive(ctx, a); err != nil {
			s.logger.Error("Failed to archive tournament",
				slog.String("tournament_id", a.ID),
				slog.Any("error", err))
		}
	})
}
