package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avisingh/spl-auction/internal/models"
)

func TestRandomPick_NeverRepeatsWithinRound(t *testing.T) {
	l := newTestLedger(t)

	seen := make(map[int]bool)
	for i := 0; i < 4; i++ {
		pick, err := l.RandomPick()
		require.NoError(t, err)
		assert.False(t, pick.NewRound, "pick %d", i)
		assert.False(t, seen[pick.Player.ID], "player %d surfaced twice in one round", pick.Player.ID)
		seen[pick.Player.ID] = true
	}
	assert.Len(t, seen, 4)
}

func TestRandomPick_ResetsWhenExhausted(t *testing.T) {
	l := newTestLedger(t)

	for i := 0; i < 4; i++ {
		_, err := l.RandomPick()
		require.NoError(t, err)
	}

	// Fifth pick starts a new round rather than failing.
	pick, err := l.RandomPick()
	require.NoError(t, err)
	assert.True(t, pick.NewRound)
	assert.Len(t, l.Session().PickedInSession, 1)
}

func TestRandomPick_NoEligiblePlayers(t *testing.T) {
	l := newTestLedger(t)

	for id := 1; id <= 4; id++ {
		_, ok := l.SelectForAuction(id)
		require.True(t, ok)
		_, err := l.ConfirmSale(id%2 + 1)
		require.NoError(t, err)
	}

	_, err := l.RandomPick()
	assert.ErrorIs(t, err, ErrNoEligiblePlayers)
}

func TestRandomPick_UnsoldPlayersInPool(t *testing.T) {
	players := []models.Player{
		{ID: 1, Name: "Only Player", FlatNo: "A-1", Role: models.RoleBatsman, BasePrice: 200, Status: models.PlayerStatusUnsold},
	}
	l := New(players, testTeams())

	pick, err := l.RandomPick()
	require.NoError(t, err)
	assert.Equal(t, 1, pick.Player.ID)
	assert.Len(t, pick.Spin, spinSamples)
}

func TestRandomPick_DrawOnlySurfaces(t *testing.T) {
	l := newTestLedger(t)

	pick, err := l.RandomPick()
	require.NoError(t, err)

	p, ok := l.Player(pick.Player.ID)
	require.True(t, ok)
	assert.Equal(t, models.PlayerStatusAvailable, p.Status, "a pick is surfaced, not sold")
	assert.Nil(t, l.Session().CurrentPlayer, "drawing does not put the player on the block")
}
