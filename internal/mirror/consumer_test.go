package mirror

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avisingh/spl-auction/internal/models"
)

type fakeMerger struct {
	playerUpserts []models.Player
	playerDeletes []int
	teamUpserts   []models.Team
	teamDeletes   []int
}

func (f *fakeMerger) ApplyPlayerUpsert(p models.Player) { f.playerUpserts = append(f.playerUpserts, p) }
func (f *fakeMerger) ApplyPlayerDelete(id int)          { f.playerDeletes = append(f.playerDeletes, id) }
func (f *fakeMerger) ApplyTeamUpsert(t models.Team)     { f.teamUpserts = append(f.teamUpserts, t) }
func (f *fakeMerger) ApplyTeamDelete(id int)            { f.teamDeletes = append(f.teamDeletes, id) }

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestApplyNotice_PlayerUpsert(t *testing.T) {
	m := &fakeMerger{}
	p := models.Player{ID: 4, Name: "Kiran Shetty", Role: models.RoleBowler, BasePrice: 200, Status: models.PlayerStatusAvailable}

	err := applyNotice(m, ChangeNotice{Table: TablePlayers, Kind: KindUpsert, ID: 4, Row: mustJSON(t, p)})
	require.NoError(t, err)
	require.Len(t, m.playerUpserts, 1)
	assert.Equal(t, p, m.playerUpserts[0])
}

func TestApplyNotice_PlayerDelete(t *testing.T) {
	m := &fakeMerger{}

	err := applyNotice(m, ChangeNotice{Table: TablePlayers, Kind: KindDelete, ID: 9})
	require.NoError(t, err)
	assert.Equal(t, []int{9}, m.playerDeletes)
}

func TestApplyNotice_TeamUpsert(t *testing.T) {
	m := &fakeMerger{}
	price := 700
	team := models.Team{ID: 2, Name: "Megapolis Mavericks", Budget: 2300, Players: []models.RosterEntry{
		{Name: "Rohit Verma", FlatNo: "A-101", Role: models.RoleBatsman, SoldPrice: &price},
	}}

	err := applyNotice(m, ChangeNotice{Table: TableTeams, Kind: KindUpsert, ID: 2, Row: mustJSON(t, team)})
	require.NoError(t, err)
	require.Len(t, m.teamUpserts, 1)
	assert.Equal(t, team, m.teamUpserts[0])
}

func TestApplyNotice_TeamDelete(t *testing.T) {
	m := &fakeMerger{}

	err := applyNotice(m, ChangeNotice{Table: TableTeams, Kind: KindDelete, ID: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, m.teamDeletes)
}

func TestApplyNotice_BadRow(t *testing.T) {
	m := &fakeMerger{}

	err := applyNotice(m, ChangeNotice{Table: TablePlayers, Kind: KindUpsert, ID: 1, Row: json.RawMessage(`{`)})
	assert.Error(t, err)
	assert.Empty(t, m.playerUpserts)
}

func TestApplyNotice_UnknownTable(t *testing.T) {
	err := applyNotice(&fakeMerger{}, ChangeNotice{Table: "budgets", Kind: KindUpsert})
	assert.Error(t, err)
}
