package game

import (
	"testing"
	"time"

	"github.com/Dosada05/pong-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateRejectsTakenName(t *testing.T) {
	h := newTourHarness(t)
	first, err := h.reg.Create(cupSettings(), h.conn("a"), "")
	require.NoError(t, err)

	other := h.conn("b")
	second, err := h.reg.Create(cupSettings(), other, "")
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.Nil(t, second)
	assert.Equal(t, 1, h.reg.Len())
	assert.Equal(t, StateUnactive, other.State())

	got, ok := h.reg.Get(first.ID())
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestRegistry_CreateValidatesSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings models.TournamentSettings
	}{
		{"short name", models.TournamentSettings{Name: "ab", MaxParticipants: 4}},
		{"missing name", models.TournamentSettings{MaxParticipants: 4}},
		{"too few seats", models.TournamentSettings{Name: "Cup", MaxParticipants: 1}},
		{"too many seats", models.TournamentSettings{Name: "Cup", MaxParticipants: 65}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTourHarness(t)
			c := h.conn("a")
			_, err := h.reg.Create(tt.settings, c, "")
			assert.ErrorIs(t, err, ErrInvalidSettings)
			assert.Equal(t, 0, h.reg.Len())
			assert.Equal(t, StateUnactive, c.State())
		})
	}
}

func TestRegistry_CreateRequiresIdleCreator(t *testing.T) {
	h := newTourHarness(t)
	c := h.conn("a")
	c.state = StatePlaying
	_, err := h.reg.Create(cupSettings(), c, "")
	assert.ErrorIs(t, err, ErrAlreadyActive)

	guest := h.conn("g")
	settings := cupSettings()
	settings.AcceptGuests = false
	_, err = h.reg.Create(settings, guest, "")
	assert.ErrorIs(t, err, ErrGuestsNotAllowed)
	assert.Equal(t, 0, h.reg.Len())
}

func TestRegistry_NameIsFreedOnDispose(t *testing.T) {
	h := newTourHarness(t)
	tour, err := h.reg.Create(cupSettings(), h.conn("a"), "")
	require.NoError(t, err)
	tour.Dispose()

	_, err = h.reg.Create(cupSettings(), h.conn("b"), "")
	assert.NoError(t, err)
}

func TestRegistry_ListPublicDescriptions(t *testing.T) {
	h := newTourHarness(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.reg.opts.Now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	open, err := h.reg.Create(cupSettings(), h.conn("a"), "")
	require.NoError(t, err)

	private := cupSettings()
	private.Name = "Private"
	private.Public = false
	_, err = h.reg.Create(private, h.conn("b"), "")
	require.NoError(t, err)

	members := cupSettings()
	members.Name = "Members"
	members.AcceptGuests = false
	owner, _ := userConn(7, "owner")
	membersOnly, err := h.reg.Create(members, owner, "")
	require.NoError(t, err)

	started := cupSettings()
	started.Name = "Started"
	startedTour, err := h.reg.Create(started, h.conn("c"), "")
	require.NoError(t, err)
	_, err = h.reg.Join(startedTour.ID(), h.conn("d"), "")
	require.NoError(t, err)
	require.NoError(t, startedTour.Start(h.conns["c"]))

	guestView := h.reg.ListPublicDescriptions(nil)
	require.Len(t, guestView, 1)
	assert.Equal(t, open.ID(), guestView[0].ID)
	assert.Equal(t, "a", guestView[0].CreatorName)
	assert.Equal(t, 1, guestView[0].ParticipantCount)
	assert.Equal(t, models.TournamentCreation, guestView[0].Status)

	viewer, _ := userConn(9, "viewer")
	userView := h.reg.ListPublicDescriptions(viewer)
	require.Len(t, userView, 2)
	assert.Equal(t, open.ID(), userView[0].ID)
	assert.Equal(t, membersOnly.ID(), userView[1].ID)
}

func TestRegistry_ReapIdle(t *testing.T) {
	h := newTourHarness(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.reg.opts.Now = func() time.Time { return created }

	stale, err := h.reg.Create(cupSettings(), h.conn("a"), "")
	require.NoError(t, err)

	busy := cupSettings()
	busy.Name = "Busy"
	running, err := h.reg.Create(busy, h.conn("b"), "")
	require.NoError(t, err)
	_, err = h.reg.Join(running.ID(), h.conn("c"), "")
	require.NoError(t, err)
	require.NoError(t, running.Start(h.conns["b"]))

	assert.Zero(t, h.reg.ReapIdle(created.Add(10*time.Minute), 30*time.Minute))
	assert.Equal(t, 1, h.reg.ReapIdle(created.Add(time.Hour), 30*time.Minute))

	assert.Equal(t, models.TournamentDisposed, stale.Status())
	assert.Equal(t, StateUnactive, h.conns["a"].State())
	assert.Equal(t, 1, h.reg.Len())
}

func TestRegistry_ListPublicHidesTournamentsFromBusyViewers(t *testing.T) {
	h := newTourHarness(t)
	open, err := h.reg.Create(cupSettings(), h.conn("a"), "")
	require.NoError(t, err)

	queued, _ := userConn(9, "queued")
	queued.state = StateWaiting
	assert.Empty(t, h.reg.ListPublicDescriptions(queued))
	assert.ErrorIs(t, open.CanJoin(queued), ErrAlreadyActive)
	_, err = h.reg.Join(open.ID(), queued, "")
	assert.ErrorIs(t, err, ErrAlreadyActive)

	member := h.conn("b")
	_, err = h.reg.Join(open.ID(), member, "")
	require.NoError(t, err)
	assert.Empty(t, h.reg.ListPublicDescriptions(member))

	idle, _ := userConn(10, "idle")
	listed := h.reg.ListPublicDescriptions(idle)
	require.Len(t, listed, 1)
	assert.Equal(t, open.ID(), listed[0].ID)
	assert.Len(t, h.reg.ListPublicDescriptions(nil), 1)
}
