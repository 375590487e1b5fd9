package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avisingh/spl-auction/internal/models"
)

func testPlayers() []models.Player {
	return []models.Player{
		{ID: 1, Name: "Rohit Verma", FlatNo: "A-101", Role: models.RoleBatsman, BattingStyle: "Right-hand", BowlingStyle: "-", BasePrice: 200, Status: models.PlayerStatusAvailable},
		{ID: 2, Name: "Sandeep Rao", FlatNo: "B-204", Role: models.RoleBowler, BattingStyle: "Right-hand", BowlingStyle: "Medium", BasePrice: 200, Status: models.PlayerStatusAvailable},
		{ID: 3, Name: "Vikram Iyer", FlatNo: "C-302", Role: models.RoleAllRounder, BattingStyle: "Left-hand", BowlingStyle: "Off-spin", BasePrice: 200, Status: models.PlayerStatusAvailable},
		{ID: 4, Name: "Manish Gupta", FlatNo: "D-405", Role: models.RoleWicketkeeper, BattingStyle: "Right-hand", BowlingStyle: "-", BasePrice: 200, Status: models.PlayerStatusAvailable},
	}
}

func testTeams() []models.Team {
	founders := []models.RosterEntry{
		{Name: "Founder One", FlatNo: "F-1", Role: models.RoleBatsman, Captain: true},
		{Name: "Founder Two", FlatNo: "F-2", Role: models.RoleBowler},
		{Name: "Founder Three", FlatNo: "F-3", Role: models.RoleAllRounder},
	}
	return []models.Team{
		{ID: 1, Name: "Sangria Strikers", ShortName: "SS", Color: "#3b82f6", Budget: 3000, Players: append([]models.RosterEntry(nil), founders...)},
		{ID: 2, Name: "Megapolis Mavericks", ShortName: "MM", Color: "#ef4444", Budget: 3000, Players: append([]models.RosterEntry(nil), founders...)},
	}
}

func newTestLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	opts = append([]Option{WithRandSource(rand.NewSource(1))}, opts...)
	return New(testPlayers(), testTeams(), opts...)
}

func TestSelectForAuction_SetsBidToBasePrice(t *testing.T) {
	l := newTestLedger(t)

	p, ok := l.SelectForAuction(1)
	require.True(t, ok)
	assert.Equal(t, "Rohit Verma", p.Name)

	s := l.Session()
	require.NotNil(t, s.CurrentPlayer)
	assert.Equal(t, 1, s.CurrentPlayer.ID)
	assert.Equal(t, 200, s.CurrentBid)
}

func TestSelectForAuction_SoldPlayerIsNoOp(t *testing.T) {
	l := newTestLedger(t)

	_, ok := l.SelectForAuction(1)
	require.True(t, ok)
	_, err := l.ConfirmSale(1)
	require.NoError(t, err)

	_, ok = l.SelectForAuction(1)
	assert.False(t, ok, "sold player must not be selectable")
	assert.Nil(t, l.Session().CurrentPlayer)
}

func TestSelectForAuction_UnsoldPlayerStaysEligible(t *testing.T) {
	l := newTestLedger(t)

	_, ok := l.SelectForAuction(2)
	require.True(t, ok)
	_, err := l.MarkUnsold()
	require.NoError(t, err)

	_, ok = l.SelectForAuction(2)
	assert.True(t, ok, "unsold player must be eligible for re-auction")
}

func TestBidding_RaiseSetReset(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(1)
	require.True(t, ok)

	bid, err := l.RaiseBid(500)
	require.NoError(t, err)
	assert.Equal(t, 700, bid)

	bid, err = l.RaiseBid(1000)
	require.NoError(t, err)
	assert.Equal(t, 1700, bid)

	bid, err = l.SetBid(950)
	require.NoError(t, err)
	assert.Equal(t, 950, bid)

	_, err = l.SetBid(-1)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bid, err = l.ResetBid()
	require.NoError(t, err)
	assert.Equal(t, 200, bid)
}

func TestResetBid_Idempotent(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(1)
	require.True(t, ok)
	_, err := l.RaiseBid(1000)
	require.NoError(t, err)

	first, err := l.ResetBid()
	require.NoError(t, err)
	second, err := l.ResetBid()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 200, second)
}

func TestBidding_RequiresCurrentPlayer(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.RaiseBid(500)
	assert.ErrorIs(t, err, ErrNoCurrentPlayer)
	_, err = l.SetBid(100)
	assert.ErrorIs(t, err, ErrNoCurrentPlayer)
	_, err = l.ResetBid()
	assert.ErrorIs(t, err, ErrNoCurrentPlayer)
}

func TestConfirmSale_NoCurrentPlayer(t *testing.T) {
	l := newTestLedger(t)

	before := l.Teams()
	_, err := l.ConfirmSale(1)
	assert.ErrorIs(t, err, ErrNoCurrentPlayer)
	assert.Equal(t, before, l.Teams(), "rejection must not change state")
}

func TestConfirmSale_UpdatesPlayerAndTeam(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(1)
	require.True(t, ok)
	_, err := l.RaiseBid(500)
	require.NoError(t, err)

	sale, err := l.ConfirmSale(1)
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, 700, sale.Price)

	p, ok := l.Player(1)
	require.True(t, ok)
	assert.Equal(t, models.PlayerStatusSold, p.Status)
	require.NotNil(t, p.SoldTo)
	assert.Equal(t, 1, *p.SoldTo)
	require.NotNil(t, p.SoldPrice)
	assert.Equal(t, 700, *p.SoldPrice)

	team, ok := l.Team(1)
	require.True(t, ok)
	assert.Equal(t, 2300, team.Budget)
	require.Len(t, team.Players, 4)
	entry := team.Players[3]
	assert.Equal(t, "Rohit Verma", entry.Name)
	assert.False(t, entry.Captain)
	require.NotNil(t, entry.SoldPrice)
	assert.Equal(t, 700, *entry.SoldPrice)

	s := l.Session()
	assert.Nil(t, s.CurrentPlayer)
	assert.Equal(t, 0, s.CurrentBid)
}

func TestConfirmSale_AtomicOnRejection(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(1)
	require.True(t, ok)
	_, err := l.SetBid(5000) // above the 3000 budget
	require.NoError(t, err)

	playersBefore := l.Players()
	teamsBefore := l.Teams()

	_, err = l.ConfirmSale(1)
	assert.ErrorIs(t, err, ErrInsufficientBudget)

	assert.Equal(t, playersBefore, l.Players())
	assert.Equal(t, teamsBefore, l.Teams())
	// Player stays on the block after a rejected sale.
	require.NotNil(t, l.Session().CurrentPlayer)
	assert.Equal(t, 1, l.Session().CurrentPlayer.ID)
}

func TestConfirmSale_RosterFull(t *testing.T) {
	l := newTestLedger(t)

	// Fill the roster to the cap of 7 (3 founders + 4 buys).
	for id := 1; id <= 4; id++ {
		_, ok := l.SelectForAuction(id)
		require.True(t, ok)
		_, err := l.ConfirmSale(1)
		require.NoError(t, err)
	}

	extra, err := l.AddPlayer(AddPlayerRequest{Name: "Late Entrant", FlatNo: "E-1", Role: models.RoleBatsman, BasePrice: 200})
	require.NoError(t, err)
	_, ok := l.SelectForAuction(extra.ID)
	require.True(t, ok)

	_, err = l.ConfirmSale(1)
	assert.ErrorIs(t, err, ErrRosterFull)
}

func TestConfirmSale_UnknownTeamIsNoOp(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(1)
	require.True(t, ok)

	sale, err := l.ConfirmSale(99)
	assert.NoError(t, err)
	assert.Nil(t, sale)
	// Player stays on the block; nothing changed.
	require.NotNil(t, l.Session().CurrentPlayer)
}

func TestInvariants_BudgetAndRosterCap(t *testing.T) {
	l := newTestLedger(t)

	// Drive a mixed sequence of sales, manual assigns and removals, then
	// check the invariants hold for every team.
	for id := 1; id <= 3; id++ {
		_, ok := l.SelectForAuction(id)
		require.True(t, ok)
		_, err := l.RaiseBid(500)
		require.NoError(t, err)
		if _, err := l.ConfirmSale(id%2 + 1); err != nil {
			t.Fatalf("sale %d: %v", id, err)
		}
	}
	_, err := l.ManualAssign(1, 4, 300)
	require.NoError(t, err)
	_, err = l.RemovePlayerFromTeam(1, 3)
	require.NoError(t, err)

	for _, team := range l.Teams() {
		assert.GreaterOrEqual(t, team.Budget, 0, "team %d budget", team.ID)
		assert.LessOrEqual(t, len(team.Players), 7, "team %d roster", team.ID)
	}
}

func TestRemovePlayerFromTeam_RoundTrip(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(1)
	require.True(t, ok)
	_, err := l.RaiseBid(1000)
	require.NoError(t, err)
	_, err = l.ConfirmSale(1)
	require.NoError(t, err)

	teamAfterSale, _ := l.Team(1)

	removal, err := l.RemovePlayerFromTeam(1, 3)
	require.NoError(t, err)
	require.NotNil(t, removal)
	assert.Equal(t, 1200, removal.Refund)
	require.NotNil(t, removal.Player)
	assert.Equal(t, models.PlayerStatusAvailable, removal.Player.Status)

	// Re-acquire at the same price restores budget and roster length.
	_, err = l.ManualAssign(1, 1, 1200)
	require.NoError(t, err)

	teamAfterRebuy, _ := l.Team(1)
	assert.Equal(t, teamAfterSale.Budget, teamAfterRebuy.Budget)
	assert.Len(t, teamAfterRebuy.Players, len(teamAfterSale.Players))
}

func TestRemovePlayerFromTeam_FoundingMembersImmutable(t *testing.T) {
	l := newTestLedger(t)

	for idx := 0; idx < 3; idx++ {
		_, err := l.RemovePlayerFromTeam(1, idx)
		assert.ErrorIs(t, err, ErrFoundingMember, "index %d", idx)
	}

	team, _ := l.Team(1)
	assert.Len(t, team.Players, 3)
}

func TestRemovePlayerFromTeam_StaleIndexIsNoOp(t *testing.T) {
	l := newTestLedger(t)

	removal, err := l.RemovePlayerFromTeam(1, 10)
	assert.NoError(t, err)
	assert.Nil(t, removal)

	removal, err = l.RemovePlayerFromTeam(42, 3)
	assert.NoError(t, err)
	assert.Nil(t, removal)
}

func TestManualAssign_SkipsCeilingCheck(t *testing.T) {
	rules := DefaultRules()
	rules.BaseReservePrice = 500
	l := newTestLedger(t, WithRules(rules))

	// Ceiling for a 3-member roster: 3000 - (7-3-1)*500 = 1500. A manual
	// assign above the ceiling but within budget must still go through.
	ceiling, ok := l.BidCeiling(1)
	require.True(t, ok)
	require.Equal(t, 1500, ceiling)

	sale, err := l.ManualAssign(1, 1, 2500)
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, 500, sale.Team.Budget)

	// The live-bidding path enforces the ceiling for the same shape. With 4
	// filled slots and 500 left, the ceiling is floored at 0, so any bid
	// within budget is still rejected.
	_, ok = l.SelectForAuction(2)
	require.True(t, ok)
	_, err = l.SetBid(400)
	require.NoError(t, err)
	_, err = l.ConfirmSale(1)
	assert.ErrorIs(t, err, ErrBidExceedsCeiling)
}

func TestManualAssign_BudgetStillEnforced(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ManualAssign(1, 1, 3001)
	assert.ErrorIs(t, err, ErrInsufficientBudget)
	_, err = l.ManualAssign(1, 1, -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDeletePlayer_SurvivesReset(t *testing.T) {
	l := newTestLedger(t)

	_, deleted := l.DeletePlayer(2)
	require.True(t, deleted)

	l.ResetAll()

	_, found := l.Player(2)
	assert.False(t, found, "deleted player must not be resurrected by reset")
	assert.Contains(t, l.ExcludedIDs(), 2)
	assert.Len(t, l.Players(), 3)
}

func TestResetAll_RestoresSeedState(t *testing.T) {
	l := newTestLedger(t)

	_, ok := l.SelectForAuction(1)
	require.True(t, ok)
	_, err := l.ConfirmSale(1)
	require.NoError(t, err)

	l.ResetAll()

	for _, p := range l.Players() {
		assert.Equal(t, models.PlayerStatusAvailable, p.Status)
		assert.Nil(t, p.SoldTo)
		assert.Nil(t, p.SoldPrice)
	}
	for _, team := range l.Teams() {
		assert.Equal(t, 3000, team.Budget)
		assert.Len(t, team.Players, 3)
	}
	s := l.Session()
	assert.Nil(t, s.CurrentPlayer)
	assert.Empty(t, s.PickedInSession)
}

func TestAddTeam_AssignsNextID(t *testing.T) {
	l := newTestLedger(t)

	team, err := l.AddTeam("Corner Crushers", "CC", "#10b981")
	require.NoError(t, err)
	assert.Equal(t, 3, team.ID)
	assert.Equal(t, 3000, team.Budget)
	assert.Empty(t, team.Players)

	_, err = l.AddTeam("   ", "X", "#fff")
	assert.Error(t, err)
}

func TestRemoveTeam_FreesSoldPlayers(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(1)
	require.True(t, ok)
	_, err := l.ConfirmSale(2)
	require.NoError(t, err)

	freed, removed := l.RemoveTeam(2)
	require.True(t, removed)
	require.Len(t, freed, 1)
	assert.Equal(t, 1, freed[0].ID)
	assert.Equal(t, models.PlayerStatusAvailable, freed[0].Status)

	_, found := l.Team(2)
	assert.False(t, found)
}

func TestAddPlayer_RejectsDuplicateNames(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.AddPlayer(AddPlayerRequest{Name: "rohit verma", Role: models.RoleBatsman})
	assert.ErrorIs(t, err, ErrDuplicateName)

	p, err := l.AddPlayer(AddPlayerRequest{Name: "New Player", FlatNo: "Z-9", Role: models.RoleBowler, BasePrice: 200})
	require.NoError(t, err)
	assert.Equal(t, 5, p.ID)
	assert.Equal(t, models.PlayerStatusAvailable, p.Status)
}
