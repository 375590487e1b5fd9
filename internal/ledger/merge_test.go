package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avisingh/spl-auction/internal/models"
)

func TestApplyPlayerUpsert_ReplaceAndAppend(t *testing.T) {
	l := newTestLedger(t)

	// Known id: replaced in place.
	teamID, price := 1, 900
	l.ApplyPlayerUpsert(models.Player{ID: 1, Name: "Rohit Verma", FlatNo: "A-101", Role: models.RoleBatsman, BasePrice: 200, Status: models.PlayerStatusSold, SoldTo: &teamID, SoldPrice: &price})

	p, ok := l.Player(1)
	require.True(t, ok)
	assert.Equal(t, models.PlayerStatusSold, p.Status)

	// Unknown id: appended.
	l.ApplyPlayerUpsert(models.Player{ID: 50, Name: "Remote Player", Role: models.RoleBowler, BasePrice: 200, Status: models.PlayerStatusAvailable})
	_, ok = l.Player(50)
	assert.True(t, ok)
	assert.Len(t, l.Players(), 5)
}

func TestApplyPlayerUpsert_ExcludedIDStaysGone(t *testing.T) {
	l := newTestLedger(t)
	_, deleted := l.DeletePlayer(3)
	require.True(t, deleted)

	l.ApplyPlayerUpsert(models.Player{ID: 3, Name: "Vikram Iyer", Role: models.RoleAllRounder, Status: models.PlayerStatusAvailable})

	_, found := l.Player(3)
	assert.False(t, found, "remote rows must not resurrect deleted players")
}

func TestApplyPlayerDelete_ClearsSessionIfOnBlock(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(2)
	require.True(t, ok)

	l.ApplyPlayerDelete(2)

	_, found := l.Player(2)
	assert.False(t, found)
	assert.Nil(t, l.Session().CurrentPlayer)
}

func TestApplyTeamUpsertAndDelete(t *testing.T) {
	l := newTestLedger(t)

	l.ApplyTeamUpsert(models.Team{ID: 1, Name: "Sangria Strikers", Budget: 1234, Players: []models.RosterEntry{}})
	team, ok := l.Team(1)
	require.True(t, ok)
	assert.Equal(t, 1234, team.Budget)

	l.ApplyTeamUpsert(models.Team{ID: 9, Name: "Remote Team", Budget: 3000})
	_, ok = l.Team(9)
	assert.True(t, ok)

	l.ApplyTeamDelete(9)
	_, ok = l.Team(9)
	assert.False(t, ok)
}
