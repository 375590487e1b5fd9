// Package seed loads the startup dataset for the auction: the player
// catalog and the team list, as JSON files in a data directory.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avisingh/spl-auction/internal/models"
)

const (
	playersFile = "players.json"
	teamsFile   = "teams.json"
)

// Dataset is the seed contract: two collections loaded once at startup.
// A load failure is fatal to the session; there is no degraded mode.
type Dataset struct {
	Players []models.Player
	Teams   []models.Team
}

// Load reads and validates the seed files from dir.
func Load(dir string) (*Dataset, error) {
	var ds Dataset

	if err := readJSON(filepath.Join(dir, playersFile), &ds.Players); err != nil {
		return nil, fmt.Errorf("failed to load players seed: %w", err)
	}
	if err := readJSON(filepath.Join(dir, teamsFile), &ds.Teams); err != nil {
		return nil, fmt.Errorf("failed to load teams seed: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed data: %w", err)
	}
	return &ds, nil
}

// Validate checks the structural invariants the ledger relies on.
func (ds *Dataset) Validate() error {
	playerIDs := make(map[int]struct{}, len(ds.Players))
	for i := range ds.Players {
		p := &ds.Players[i]
		if _, dup := playerIDs[p.ID]; dup {
			return fmt.Errorf("duplicate player id %d", p.ID)
		}
		playerIDs[p.ID] = struct{}{}
		if p.Name == "" {
			return fmt.Errorf("player %d has no name", p.ID)
		}
		if p.BasePrice < 0 {
			return fmt.Errorf("player %d has negative base price", p.ID)
		}
		if p.Status == "" {
			p.Status = models.PlayerStatusAvailable
		}
	}

	teamIDs := make(map[int]struct{}, len(ds.Teams))
	for i := range ds.Teams {
		t := &ds.Teams[i]
		if _, dup := teamIDs[t.ID]; dup {
			return fmt.Errorf("duplicate team id %d", t.ID)
		}
		teamIDs[t.ID] = struct{}{}
		if t.Name == "" {
			return fmt.Errorf("team %d has no name", t.ID)
		}
		if t.Budget < 0 {
			return fmt.Errorf("team %d has negative budget", t.ID)
		}
	}
	return nil
}

func readJSON(path string, v any) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
