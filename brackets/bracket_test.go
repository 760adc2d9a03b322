package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("p%02d", i)
	}
	return out
}

func TestNewSingleElimination_Shape(t *testing.T) {
	tests := []struct {
		participants int
		rounds       []int
	}{
		{2, []int{1}},
		{4, []int{2, 1}},
		{8, []int{4, 2, 1}},
		{16, []int{8, 4, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d participants", tt.participants), func(t *testing.T) {
			b, err := NewSingleElimination(names(tt.participants))
			require.NoError(t, err)
			require.Equal(t, len(tt.rounds), b.RoundCount())
			for r, want := range tt.rounds {
				round := b.Round(r)
				assert.Len(t, round, want)
				for i, m := range round {
					assert.Equal(t, r, m.Round)
					assert.Equal(t, i, m.Index)
				}
			}
			assert.Equal(t, tt.rounds[len(tt.rounds)-1], len(b.Round(b.RoundCount()-1)))
			assert.Same(t, b.Round(b.RoundCount() - 1)[0], b.Root())
		})
	}
}

func TestNewSingleElimination_PairsAdjacentEntries(t *testing.T) {
	b, err := NewSingleElimination([]string{"A", "B", "C", "D"})
	require.NoError(t, err)

	first := b.Round(0)
	assert.Equal(t, entrant("A"), first[0].Left)
	assert.Equal(t, entrant("B"), first[0].Right)
	assert.Equal(t, entrant("C"), first[1].Left)
	assert.Equal(t, entrant("D"), first[1].Right)

	final := b.Root()
	assert.Equal(t, first[0].ID, final.Left.Source)
	assert.Equal(t, first[1].ID, final.Right.Source)
}

func TestNewSingleElimination_Errors(t *testing.T) {
	_, err := NewSingleElimination([]string{"A"})
	assert.ErrorIs(t, err, ErrTooFewParticipants)

	_, err = NewSingleElimination([]string{"A", "B", "C"})
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)

	_, err = NewSingleElimination([]string{"A", "B", "A", "C"})
	assert.ErrorIs(t, err, ErrDuplicateEntrant)
}

func TestBracket_SetWinnerIsIdempotent(t *testing.T) {
	b, err := NewSingleElimination([]string{"A", "B"})
	require.NoError(t, err)
	id := b.Root().ID

	changed, err := b.SetWinner(id, Right, 5)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = b.SetWinner(id, Left, 9)
	require.NoError(t, err)
	assert.False(t, changed)

	name, side, score, ok := b.Root().Winner()
	assert.True(t, ok)
	assert.Equal(t, "B", name)
	assert.Equal(t, Right, side)
	assert.Equal(t, 5, score)

	loser, ok := b.Loser(id)
	assert.True(t, ok)
	assert.Equal(t, "A", loser)
}

func TestBracket_SetWinnerRequiresDecidedChildren(t *testing.T) {
	b, err := NewSingleElimination([]string{"A", "B", "C", "D"})
	require.NoError(t, err)
	final := b.Root()

	_, err = b.SetWinner(final.ID, Left, 1)
	assert.ErrorIs(t, err, ErrMatchNotReady)
	_, _, ready := b.Sides(final.ID)
	assert.False(t, ready)

	first := b.Round(0)
	_, err = b.SetWinner(first[0].ID, Left, 5)
	require.NoError(t, err)
	_, err = b.SetWinner(first[1].ID, Right, 5)
	require.NoError(t, err)

	left, right, ready := b.Sides(final.ID)
	require.True(t, ready)
	assert.Equal(t, "A", left)
	assert.Equal(t, "D", right)

	_, err = b.SetWinner(final.ID, Right, 5)
	require.NoError(t, err)
	loser, _ := b.Loser(final.ID)
	assert.Equal(t, "A", loser)

	archive := b.Archive()
	require.Len(t, archive, 2)
	assert.Equal(t, "D", archive[1][0].Winner)
}

func TestBracket_UnknownMatch(t *testing.T) {
	b, err := NewSingleElimination([]string{"A", "B"})
	require.NoError(t, err)
	_, err = b.SetWinner(42, Left, 0)
	assert.ErrorIs(t, err, ErrUnknownMatch)
	_, ok := b.Loser(42)
	assert.False(t, ok)
}

func TestSide(t *testing.T) {
	assert.Equal(t, Right, Left.Other())
	assert.Equal(t, Left, Right.Other())
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "right", Right.String())
}
