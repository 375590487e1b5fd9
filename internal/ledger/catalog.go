package ledger

import (
	"strings"

	"github.com/avisingh/spl-auction/internal/models"
)

// AddPlayerRequest carries the fields for a new catalog entry.
type AddPlayerRequest struct {
	Name         string            `json:"name"`
	FlatNo       string            `json:"flatNo"`
	Role         models.PlayerRole `json:"role"`
	BattingStyle string            `json:"battingStyle"`
	BowlingStyle string            `json:"bowlingStyle"`
	BasePrice    int               `json:"basePrice"`
	Photo        string            `json:"photo,omitempty"`
}

// AddPlayer registers a new player with the next free id. Names are unique
// case-insensitively across the catalog.
func (l *Ledger) AddPlayer(req AddPlayerRequest) (models.Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(req.Name) == "" {
		return models.Player{}, ErrNameRequired
	}
	if req.BasePrice < 0 {
		return models.Player{}, ErrInvalidAmount
	}
	for _, p := range l.players {
		if strings.EqualFold(p.Name, req.Name) {
			return models.Player{}, ErrDuplicateName
		}
	}

	p := &models.Player{
		ID:           l.maxPlayerID() + 1,
		Name:         strings.TrimSpace(req.Name),
		FlatNo:       req.FlatNo,
		Role:         req.Role,
		BattingStyle: req.BattingStyle,
		BowlingStyle: req.BowlingStyle,
		BasePrice:    req.BasePrice,
		Photo:        req.Photo,
		Status:       models.PlayerStatusAvailable,
	}
	l.players = append(l.players, p)
	return *p, nil
}

// DeletePlayer permanently removes a player from the catalog and records
// the id on the exclusion list so a future reset cannot resurrect it.
// This is a terminal, one-way transition. Missing ids are a no-op.
func (l *Ledger) DeletePlayer(playerID int) (models.Player, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, p := range l.players {
		if p.ID != playerID {
			continue
		}
		removed := *p
		l.players = append(l.players[:i], l.players[i+1:]...)
		l.excluded[playerID] = struct{}{}
		delete(l.picked, playerID)
		if l.current != nil && l.current.ID == playerID {
			l.current = nil
			l.currentBid = 0
		}
		return removed, true
	}
	return models.Player{}, false
}

// AddTeam creates a new franchise with the default budget and an empty
// roster, assigning the next free id.
func (l *Ledger) AddTeam(name, shortName, color string) (models.Team, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		return models.Team{}, ErrNameRequired
	}

	t := &models.Team{
		ID:        l.maxTeamID() + 1,
		Name:      strings.TrimSpace(name),
		ShortName: shortName,
		Color:     color,
		Budget:    l.rules.TeamBudget,
		Players:   []models.RosterEntry{},
	}
	l.teams = append(l.teams, t)
	return cloneTeam(*t), nil
}

// RemoveTeam deletes a franchise. Every player sold to it returns to the
// available pool; the freed players are returned so callers can persist and
// broadcast them. Missing ids are a no-op.
func (l *Ledger) RemoveTeam(teamID int) ([]models.Player, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, t := range l.teams {
		if t.ID == teamID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	var freed []models.Player
	for _, p := range l.players {
		if p.SoldTo != nil && *p.SoldTo == teamID {
			p.Status = models.PlayerStatusAvailable
			p.SoldTo = nil
			p.SoldPrice = nil
			freed = append(freed, *p)
		}
	}
	l.teams = append(l.teams[:idx], l.teams[idx+1:]...)
	return freed, true
}

// ResetAll reloads the seed dataset: every non-excluded player back to
// available, every team back to its seed budget and founding roster, and a
// fresh session. Destructive; the caller gates it behind admin confirmation.
func (l *Ledger) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadFromSeed()
}
