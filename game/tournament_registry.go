package game

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/pong-arena/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func displayName(c *Connection, alias string) (string, error) {
	if alias == "" {
		return c.profile.Name, nil
	}
	if err := validate.Var(alias, "min=3,max=16,printascii"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAlias, err)
	}
	return alias, nil
}

// TournamentRegistry indexes live tournaments by name and id.
type TournamentRegistry struct {
	byName map[string]*Tournament
	byID   map[string]*Tournament
	opts   TournamentOptions
	logger *slog.Logger
}

func NewTournamentRegistry(opts TournamentOptions) *TournamentRegistry {
	r := &TournamentRegistry{opts: opts, logger: opts.Logger}
	r.Reset()
	return r
}

// Reset forgets every tournament without disposing them.
func (r *TournamentRegistry) Reset() {
	r.byName = make(map[string]*Tournament)
	r.byID = make(map[string]*Tournament)
}

func (r *TournamentRegistry) Len() int {
	return len(r.byID)
}

func (r *TournamentRegistry) Get(id string) (*Tournament, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Create registers a tournament with creator as its first participant.
func (r *TournamentRegistry) Create(settings models.TournamentSettings, creator *Connection, alias string) (*Tournament, error) {
	if err := validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if _, taken := r.byName[settings.Name]; taken {
		return nil, ErrNameTaken
	}
	if creator.state != StateUnactive {
		return nil, ErrAlreadyActive
	}

	t := newTournament(uuid.NewString(), settings, creator, r.opts, r.remove)
	if _, err := t.AddParticipant(creator, alias); err != nil {
		return nil, err
	}
	r.byName[settings.Name] = t
	r.byID[t.id] = t
	r.logger.Info("Tournament created",
		slog.String("tournament_id", t.id),
		slog.String("name", settings.Name),
		slog.Int("max_participants", settings.MaxParticipants))
	return t, nil
}

// Join adds c to the tournament with the given id.
func (r *TournamentRegistry) Join(id string, c *Connection, alias string) (*Tournament, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if _, err := t.AddParticipant(c, alias); err != nil {
		return nil, err
	}
	return t, nil
}

// ListPublicDescriptions lists public tournaments viewer could join, oldest
// first. A nil viewer is treated as an anonymous guest.
func (r *TournamentRegistry) ListPublicDescriptions(viewer *Connection) []models.TournamentDescription {
	out := make([]models.TournamentDescription, 0, len(r.byID))
	for _, t := range r.byID {
		if !t.settings.Public || t.CanJoin(viewer) != nil {
			continue
		}
		out = append(out, t.Describe())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ReapIdle cancels tournaments still in creation after maxAge.
func (r *TournamentRegistry) ReapIdle(now time.Time, maxAge time.Duration) int {
	var stale []*Tournament
	for _, t := range r.byID {
		if t.status == models.TournamentCreation && now.Sub(t.createdAt) > maxAge {
			stale = append(stale, t)
		}
	}
	for _, t := range stale {
		r.logger.Info("Reaping idle tournament", slog.String("tournament_id", t.id))
		t.Dispose()
	}
	return len(stale)
}

// LiveRooms counts the rooms currently open across all tournaments.
func (r *TournamentRegistry) LiveRooms() int {
	n := 0
	for _, t := range r.byID {
		n += t.LiveRooms()
	}
	return n
}

// Shutdown disposes every tournament.
func (r *TournamentRegistry) Shutdown() {
	for _, t := range r.byID {
		t.Dispose()
	}
}

func (r *TournamentRegistry) remove(t *Tournament) {
	if r.byID[t.id] == t {
		delete(r.byID, t.id)
	}
	if r.byName[t.settings.Name] == t {
		delete(r.byName, t.settings.Name)
	}
}
