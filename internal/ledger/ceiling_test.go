package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avisingh/spl-auction/internal/models"
)

func TestBidCeiling_ReserveArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		budget  int
		filled  int
		reserve int
		want    int
	}{
		{"empty roster", 3000, 0, 200, 3000 - 6*200},
		{"three filled", 3000, 3, 200, 3000 - 3*200},
		{"six filled reserves nothing", 3000, 6, 200, 3000},
		{"full roster does not go negative", 3000, 7, 200, 3000},
		{"budget below reserve floors at zero", 500, 0, 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.BaseReservePrice = tt.reserve

			roster := make([]models.RosterEntry, tt.filled)
			teams := []models.Team{{ID: 1, Name: "T", Budget: tt.budget, Players: roster}}
			l := New(nil, teams, WithRules(rules))

			got, ok := l.BidCeiling(1)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBidCeiling_MonotoneInRosterLength(t *testing.T) {
	rules := DefaultRules()
	rules.BaseReservePrice = 250

	// A fuller roster reserves less, so for a fixed budget the ceiling can
	// only grow (or stay put) as slots fill, and is never negative.
	prev := -1
	for filled := 0; filled <= 8; filled++ {
		teams := []models.Team{{ID: 1, Name: "T", Budget: 2000, Players: make([]models.RosterEntry, filled)}}
		l := New(nil, teams, WithRules(rules))

		got, ok := l.BidCeiling(1)
		require.True(t, ok)
		assert.GreaterOrEqual(t, got, 0, "%d filled", filled)
		assert.GreaterOrEqual(t, got, prev, "%d filled", filled)
		prev = got
	}
}

func TestBidCeiling_UnknownTeam(t *testing.T) {
	l := New(nil, nil)
	_, ok := l.BidCeiling(7)
	assert.False(t, ok)
}

func TestConfirmSale_CeilingScenario(t *testing.T) {
	// A team with a 1,000,000 budget and 2 of 7 slots filled, base reserve
	// 30,000: the ceiling is 1,000,000 - (7-2-1)*30,000 = 880,000.
	rules := DefaultRules()
	rules.TeamBudget = 1_000_000
	rules.BaseReservePrice = 30_000

	players := []models.Player{{ID: 1, Name: "Star Player", FlatNo: "A-1", Role: models.RoleBatsman, BasePrice: 30_000, Status: models.PlayerStatusAvailable}}
	teams := []models.Team{{ID: 1, Name: "Big Spenders", Budget: 1_000_000, Players: make([]models.RosterEntry, 2)}}
	l := New(players, teams, WithRules(rules), WithRandSource(rand.NewSource(1)))

	ceiling, ok := l.BidCeiling(1)
	require.True(t, ok)
	assert.Equal(t, 880_000, ceiling)

	_, ok = l.SelectForAuction(1)
	require.True(t, ok)

	_, err := l.SetBid(880_001)
	require.NoError(t, err)
	_, err = l.ConfirmSale(1)
	assert.ErrorIs(t, err, ErrBidExceedsCeiling)

	_, err = l.SetBid(880_000)
	require.NoError(t, err)
	sale, err := l.ConfirmSale(1)
	require.NoError(t, err)
	assert.Equal(t, 120_000, sale.Team.Budget)
}

func TestAffordability_TracksCurrentBid(t *testing.T) {
	l := newTestLedger(t)
	_, ok := l.SelectForAuction(1)
	require.True(t, ok)
	_, err := l.SetBid(2500)
	require.NoError(t, err)

	// Ceiling for each seed team: 3000 - (7-3-1)*200 = 2400 < 2500.
	for _, a := range l.Affordability() {
		assert.Equal(t, 2400, a.Ceiling)
		assert.False(t, a.CanAfford)
	}

	_, err = l.SetBid(2400)
	require.NoError(t, err)
	for _, a := range l.Affordability() {
		assert.True(t, a.CanAfford)
	}
}
